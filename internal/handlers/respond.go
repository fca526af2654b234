package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"dcpm/internal/contextutil"
	"dcpm/internal/service"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// retryAfterSeconds is sent with 503 responses for a busy store.
const retryAfterSeconds = "1"

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Hint  string `json:"hint,omitempty"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

func badRequest(w http.ResponseWriter, field, message string) {
	writeError(w, http.StatusBadRequest, ErrorResponse{Error: message, Field: field})
}

// handleServiceError maps service errors to appropriate HTTP status codes and responses.
func handleServiceError(w http.ResponseWriter, ctx context.Context, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		logger.DebugContext(ctx, "invalid request", "error", err)
		writeError(w, http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("Validation error: %s", validationErr.Message),
			Field: validationErr.Field,
		})
		return
	}

	// Check for wrapped errors
	if errors.Is(err, service.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid input"})
		return
	}

	if errors.Is(err, service.ErrNotFound) {
		logger.DebugContext(ctx, "not found", "error", err)
		writeError(w, http.StatusNotFound, ErrorResponse{Error: "Resource not found"})
		return
	}

	if errors.Is(err, service.ErrConflict) {
		logger.WarnContext(ctx, "conflict", "error", err)
		writeError(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
		return
	}

	var unavailable *service.StoreUnavailableError
	if errors.As(err, &unavailable) {
		if unavailable.Retriable() {
			logger.WarnContext(ctx, "store busy", "error", err)
			w.Header().Set("Retry-After", retryAfterSeconds)
			writeError(w, http.StatusServiceUnavailable, ErrorResponse{Error: "Index is busy, retry shortly"})
			return
		}
		logger.ErrorContext(ctx, "store unavailable", "error", err)
		writeError(w, http.StatusServiceUnavailable, ErrorResponse{
			Error: "Index is unavailable",
			Hint:  "rebuild the index with POST /api/index/rebuild",
		})
		return
	}

	if errors.Is(err, context.Canceled) {
		logger.DebugContext(ctx, "request cancelled", "error", err)
		return
	}

	// Default to internal server error
	logger.ErrorContext(ctx, "service error", "error", err)
	writeError(w, http.StatusInternalServerError, ErrorResponse{Error: defaultMsg})
}

// decodeBody decodes a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		contextutil.LoggerFromContext(r.Context()).WarnContext(r.Context(), "invalid request body", "error", err)
		badRequest(w, "", "Invalid request body")
		return false
	}
	return true
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, key string) (*bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("%s must be true or false", key)
	}
	return &b, nil
}
