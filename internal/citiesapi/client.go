// Package citiesapi is the HTTP client for the external cities REST API.
// It issues GET/POST/DELETE requests against a fixed base URL and decodes
// JSON bodies into domain types. It holds no state of its own.
package citiesapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"golang.org/x/time/rate"

	"github.com/pkordes/worldwise/internal/domain"
)

// DefaultBaseURL is where the cities API listens when nothing else is configured.
const DefaultBaseURL = "http://localhost:9000"

// RequestIDHeader is set on every outgoing request.
const RequestIDHeader = "X-Request-ID"

// ErrDecode is wrapped by errors caused by a malformed response body.
var ErrDecode = errors.New("malformed response body")

// StatusError is returned when the API answers with a non-2xx status.
// A 404 unwraps to domain.ErrNotFound.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return nil
}

// Client talks to the cities API. Construct it with New; the zero value is not usable.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client (e.g. an httptest server's client).
// h itself is never modified.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout bounds each request. Zero means no timeout, which is the default:
// a hung request keeps its caller waiting until the context is cancelled.
// It applies regardless of where WithHTTPClient appears in the options.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRateLimiter makes every request wait for a token from l before it is sent.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// New constructs a Client for baseURL. An empty baseURL falls back to DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		h := *c.http
		h.Timeout = c.timeout
		c.http = &h
	}
	return c
}

// List handles GET /cities and returns the collection in server order.
// Always returns a non-nil slice on success.
func (c *Client) List(ctx context.Context) ([]domain.City, error) {
	var body []cityJSON
	if err := c.do(ctx, http.MethodGet, "/cities", nil, &body); err != nil {
		return nil, fmt.Errorf("citiesapi.Client.List: %w", err)
	}
	cities := make([]domain.City, 0, len(body))
	for _, cj := range body {
		city, err := cj.toDomain()
		if err != nil {
			return nil, fmt.Errorf("citiesapi.Client.List: %w: %w", ErrDecode, err)
		}
		cities = append(cities, city)
	}
	return cities, nil
}

// Get handles GET /cities/{id}.
// Returns an error wrapping domain.ErrNotFound when the server answers 404.
func (c *Client) Get(ctx context.Context, id domain.CityID) (domain.City, error) {
	path, err := cityPath(id)
	if err != nil {
		return domain.City{}, fmt.Errorf("citiesapi.Client.Get: %w", err)
	}
	var body cityJSON
	if err := c.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return domain.City{}, fmt.Errorf("citiesapi.Client.Get: %w", err)
	}
	city, err := body.toDomain()
	if err != nil {
		return domain.City{}, fmt.Errorf("citiesapi.Client.Get: %w: %w", ErrDecode, err)
	}
	return city, nil
}

// Create handles POST /cities. The returned City carries the server-assigned ID.
func (c *Client) Create(ctx context.Context, nc domain.NewCity) (domain.City, error) {
	var body cityJSON
	if err := c.do(ctx, http.MethodPost, "/cities", newCityToJSON(nc), &body); err != nil {
		return domain.City{}, fmt.Errorf("citiesapi.Client.Create: %w", err)
	}
	city, err := body.toDomain()
	if err != nil {
		return domain.City{}, fmt.Errorf("citiesapi.Client.Create: %w: %w", ErrDecode, err)
	}
	return city, nil
}

// Delete handles DELETE /cities/{id}. Any 2xx status is success; the body is ignored.
func (c *Client) Delete(ctx context.Context, id domain.CityID) error {
	path, err := cityPath(id)
	if err != nil {
		return fmt.Errorf("citiesapi.Client.Delete: %w", err)
	}
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("citiesapi.Client.Delete: %w", err)
	}
	return nil
}

// do sends one request and decodes a 2xx JSON response into out.
// A nil in sends no body; a nil out discards the response body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var reqBody io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, requestID(ctx))

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

// cityPath renders /cities/{id} using the OpenAPI "simple" path style so the
// id is escaped the same way a generated client would escape it.
func cityPath(id domain.CityID) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: id is required", domain.ErrValidation)
	}
	p, err := runtime.StyleParamWithLocation("simple", false, "id", runtime.ParamLocationPath, string(id))
	if err != nil {
		return "", err
	}
	return "/cities/" + p, nil
}

// requestID reuses the inbound request ID placed in ctx by chi's RequestID
// middleware so one trace spans both hops; otherwise it mints a new UUID.
func requestID(ctx context.Context) string {
	if id := chimiddleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
