package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pkordes/worldwise/internal/domain"
)

// ErrorResponse is the envelope every error body uses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// validationBody returns an ErrorResponse for a domain validation failure.
// The message is extracted from the wrapped domain.ErrValidation error.
func validationBody(err error) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: unwrapMessage(err)}}
}

// requestBody returns an ErrorResponse for a request rejected before reaching
// the store (e.g. missing or malformed body).
func requestBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "bad_request", Message: message}}
}

// upstreamBody returns an ErrorResponse for an operation the store rejected.
// message is the store's fixed, user-facing text.
func upstreamBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "upstream_error", Message: message}}
}

// conflictBody returns an ErrorResponse for an operation overtaken by a later one.
func conflictBody() ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "conflict", Message: "superseded by a later operation; reload the page"}}
}

// unwrapMessage extracts the human-readable part from a wrapped validation error.
// e.g. "validation error: cityName is required" → "cityName is required"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if !errors.Is(err, domain.ErrValidation) {
		return msg
	}
	prefix := domain.ErrValidation.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return msg
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.WarnContext(r.Context(), "write response", "error", err)
	}
}
