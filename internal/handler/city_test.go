package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/worldwise/internal/domain"
	"github.com/pkordes/worldwise/internal/handler"
	"github.com/pkordes/worldwise/internal/middleware"
	"github.com/pkordes/worldwise/internal/store"
)

// mockCityStore is a test double for handler.CityStore.
// state is returned by Snapshot; set only the operation fields your test needs.
type mockCityStore struct {
	state   store.State
	getByID func(ctx context.Context, id domain.CityID) error
	create  func(ctx context.Context, nc domain.NewCity) error
	delete  func(ctx context.Context, id domain.CityID) error
}

func (m *mockCityStore) Snapshot() store.State { return m.state }
func (m *mockCityStore) GetByID(ctx context.Context, id domain.CityID) error {
	return m.getByID(ctx, id)
}
func (m *mockCityStore) Create(ctx context.Context, nc domain.NewCity) error {
	return m.create(ctx, nc)
}
func (m *mockCityStore) Delete(ctx context.Context, id domain.CityID) error {
	return m.delete(ctx, id)
}

// compile-time checks: both the mock and the real store satisfy handler.CityStore.
var (
	_ handler.CityStore = (*mockCityStore)(nil)
	_ handler.CityStore = (*store.Store)(nil)
)

func cityFixture() domain.City {
	return domain.City{
		ID:       "73930385",
		CityName: "Lisbon",
		Country:  "Portugal",
		Emoji:    "🇵🇹",
		Date:     time.Date(2027, 10, 31, 15, 59, 59, 0, time.UTC),
		Notes:    "My favorite city so far!",
		Position: domain.Position{Lat: 38.72, Lng: -9.14},
	}
}

func serve(h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

// ---- GET /app/cities ------------------------------------------------------

func TestListCities_200(t *testing.T) {
	m := &mockCityStore{state: store.State{
		Cities: []domain.City{cityFixture()},
		Error:  store.MsgLoadCity,
	}}

	rec := serve(handler.NewServer(m).Routes(), http.MethodGet, "/app/cities", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body handler.CitiesResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Cities, 1)
	assert.Equal(t, "73930385", body.Cities[0].ID)
	assert.Equal(t, handler.Position{Lat: 38.72, Lng: -9.14}, body.Cities[0].Position)
	assert.False(t, body.IsLoading)
	assert.Equal(t, store.MsgLoadCity, body.Error)
}

func TestListCities_empty_returnsEmptyArray(t *testing.T) {
	rec := serve(handler.NewServer(&mockCityStore{}).Routes(), http.MethodGet, "/app/cities", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"cities":[],"isLoading":false}`, rec.Body.String())
}

// ---- GET /app/cities/{id} -------------------------------------------------

func TestGetCity_200(t *testing.T) {
	fixture := cityFixture()
	m := &mockCityStore{}
	m.getByID = func(_ context.Context, id domain.CityID) error {
		assert.Equal(t, fixture.ID, id)
		m.state.Current = &fixture
		return nil
	}

	rec := serve(handler.NewServer(m).Routes(), http.MethodGet, "/app/cities/73930385", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body handler.CurrentCityResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.NotNil(t, body.CurrentCity)
	assert.Equal(t, "Lisbon", body.CurrentCity.CityName)
	require.NotNil(t, body.CurrentCity.Date)
	assert.True(t, fixture.Date.Equal(*body.CurrentCity.Date))
}

func TestGetCity_502_Rejected(t *testing.T) {
	m := &mockCityStore{
		getByID: func(context.Context, domain.CityID) error {
			return &store.Rejection{Op: store.OpGetByID, Message: store.MsgLoadCity}
		},
	}

	rec := serve(handler.NewServer(m).Routes(), http.MethodGet, "/app/cities/1", nil)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	detail := decodeError(t, rec)
	assert.Equal(t, "upstream_error", detail.Code)
	assert.Equal(t, store.MsgLoadCity, detail.Message)
}

func TestGetCity_500_UnexpectedError(t *testing.T) {
	m := &mockCityStore{
		getByID: func(context.Context, domain.CityID) error { return context.Canceled },
	}

	rec := serve(handler.NewServer(m).Routes(), http.MethodGet, "/app/cities/1", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// getOnlyClient is a store.Client whose Get is supplied by the test; other
// methods are never called by the GET page.
type getOnlyClient struct {
	get func(ctx context.Context, id domain.CityID) (domain.City, error)
}

func (c *getOnlyClient) List(context.Context) ([]domain.City, error) { return nil, nil }
func (c *getOnlyClient) Get(ctx context.Context, id domain.CityID) (domain.City, error) {
	return c.get(ctx, id)
}
func (c *getOnlyClient) Create(context.Context, domain.NewCity) (domain.City, error) {
	return domain.City{}, nil
}
func (c *getOnlyClient) Delete(context.Context, domain.CityID) error { return nil }

var _ store.Client = (*getOnlyClient)(nil)

func TestGetCity_409_OvertakenByLaterGet(t *testing.T) {
	slowStarted := make(chan struct{})
	releaseSlow := make(chan struct{})
	client := &getOnlyClient{
		get: func(_ context.Context, id domain.CityID) (domain.City, error) {
			if id == "slow" {
				close(slowStarted)
				<-releaseSlow
			}
			return domain.City{ID: id, CityName: string(id), Country: "Portugal"}, nil
		},
	}
	routes := handler.NewServer(store.New(client, store.WithDropStale(true))).Routes()

	done := make(chan *httptest.ResponseRecorder)
	go func() { done <- serve(routes, http.MethodGet, "/app/cities/slow", nil) }()
	<-slowStarted

	fast := serve(routes, http.MethodGet, "/app/cities/fast", nil)
	require.Equal(t, http.StatusOK, fast.Code)
	var body handler.CurrentCityResponse
	require.NoError(t, json.NewDecoder(fast.Body).Decode(&body))
	require.NotNil(t, body.CurrentCity)
	assert.Equal(t, "fast", body.CurrentCity.ID)

	close(releaseSlow)
	slow := <-done

	require.Equal(t, http.StatusConflict, slow.Code, "slow must not render the fast city as its own")
	assert.Equal(t, "conflict", decodeError(t, slow).Code)
}

func TestDeleteCity_409_Stale(t *testing.T) {
	m := &mockCityStore{
		delete: func(context.Context, domain.CityID) error { return store.ErrStale },
	}

	rec := serve(handler.NewServer(m).Routes(), http.MethodDelete, "/app/cities/1", nil)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decodeError(t, rec).Code)
}

// ---- POST /app/cities -----------------------------------------------------

func TestCreateCity_201(t *testing.T) {
	var got domain.NewCity
	m := &mockCityStore{}
	m.create = func(_ context.Context, nc domain.NewCity) error {
		got = nc
		created := domain.City{ID: "42", CityName: nc.CityName, Country: nc.Country, Emoji: nc.Emoji, Date: nc.Date}
		m.state.Cities = append(m.state.Cities, created)
		m.state.Current = &created
		return nil
	}

	rec := serve(handler.NewServer(m).Routes(), http.MethodPost, "/app/cities", jsonBody(t, map[string]any{
		"cityName":    "Berlin",
		"country":     "Germany",
		"countryCode": "DE",
		"notes":       "currywurst",
		"position":    map[string]any{"lat": 52.52, "lng": 13.4},
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "🇩🇪", got.Emoji, "emoji derived from country code")
	assert.Equal(t, "currywurst", got.Notes)
	assert.Equal(t, domain.Position{Lat: 52.52, Lng: 13.4}, got.Position)
	assert.WithinDuration(t, time.Now(), got.Date, time.Minute, "date defaults to now")

	var body handler.City
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "42", body.ID)
}

func TestCreateCity_explicitDateIsKept(t *testing.T) {
	var got domain.NewCity
	m := &mockCityStore{}
	m.create = func(_ context.Context, nc domain.NewCity) error {
		got = nc
		c := domain.City{ID: "1"}
		m.state.Current = &c
		return nil
	}

	rec := serve(handler.NewServer(m).Routes(), http.MethodPost, "/app/cities", jsonBody(t, map[string]any{
		"cityName": "Berlin", "country": "Germany", "date": "2027-03-01T10:00:00Z",
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, time.Date(2027, 3, 1, 10, 0, 0, 0, time.UTC), got.Date)
}

func TestCreateCity_422_MissingName(t *testing.T) {
	m := &mockCityStore{
		create: func(context.Context, domain.NewCity) error {
			t.Fatal("store must not be called for invalid input")
			return nil
		},
	}

	rec := serve(handler.NewServer(m).Routes(), http.MethodPost, "/app/cities", jsonBody(t, map[string]any{
		"country": "Germany",
	}))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	detail := decodeError(t, rec)
	assert.Equal(t, "validation_error", detail.Code)
	assert.Equal(t, "cityName is required", detail.Message)
}

func TestCreateCity_400_MalformedBody(t *testing.T) {
	rec := serve(handler.NewServer(&mockCityStore{}).Routes(), http.MethodPost, "/app/cities",
		bytes.NewReader([]byte(`{"cityName":`)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", decodeError(t, rec).Code)
}

func TestCreateCity_413_BodyTooLarge(t *testing.T) {
	h := middleware.NewMaxBodySizeHandler(16)(handler.NewServer(&mockCityStore{}).Routes())
	req := httptest.NewRequest(http.MethodPost, "/app/cities",
		bytes.NewReader([]byte(`{"cityName":"`+string(bytes.Repeat([]byte("x"), 64))+`"}`)))
	req.ContentLength = -1
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCreateCity_502_Rejected(t *testing.T) {
	m := &mockCityStore{
		create: func(context.Context, domain.NewCity) error {
			return &store.Rejection{Op: store.OpCreate, Message: store.MsgCreateCity}
		},
	}

	rec := serve(handler.NewServer(m).Routes(), http.MethodPost, "/app/cities", jsonBody(t, map[string]any{
		"cityName": "Berlin", "country": "Germany",
	}))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, store.MsgCreateCity, decodeError(t, rec).Message)
}

// ---- DELETE /app/cities/{id} ----------------------------------------------

func TestDeleteCity_204(t *testing.T) {
	var deleted domain.CityID
	m := &mockCityStore{
		delete: func(_ context.Context, id domain.CityID) error {
			deleted = id
			return nil
		},
	}

	rec := serve(handler.NewServer(m).Routes(), http.MethodDelete, "/app/cities/73930385", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, domain.CityID("73930385"), deleted)
}

func TestDeleteCity_502_Rejected(t *testing.T) {
	m := &mockCityStore{
		delete: func(context.Context, domain.CityID) error {
			return &store.Rejection{Op: store.OpDelete, Message: store.MsgDeleteCity}
		},
	}

	rec := serve(handler.NewServer(m).Routes(), http.MethodDelete, "/app/cities/1", nil)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, store.MsgDeleteCity, decodeError(t, rec).Message)
}
