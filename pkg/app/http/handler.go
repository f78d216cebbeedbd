// Package http provides HTTP utilities including chi-compatible error handling
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/chainsafe/dao-governance/pkg/app/errors"
)

// HandlerFunc defines a function that returns an error for clean error handling
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// HandleError wraps an error-returning HandlerFunc into a standard http.HandlerFunc
// This allows using clean error-returning handlers with any router (chi, http.ServeMux, etc.)
//
// Usage with chi:
//
//	r.Post("/register", http.HandleError(handler.register))
func HandleError(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			DefaultErrorHandler(w, err)
		}
	}
}

// DefaultErrorHandler handles errors returned from HTTP handlers. Errors that
// are not a ServiceError are reported as a general error without their text.
func DefaultErrorHandler(w http.ResponseWriter, err error) {
	type errorResponse struct {
		ErrMsg     string `json:"error"`
		ErrMsgCode int    `json:"code"`
	}

	var svcErr *apperrors.ServiceError
	if !errors.As(err, &svcErr) {
		_ = errors.As(apperrors.GeneralError(err), &svcErr)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(svcErr.StatusCode())
	_ = json.NewEncoder(w).Encode(&errorResponse{
		ErrMsg:     svcErr.Message,
		ErrMsgCode: svcErr.StatusCode(),
	})
}

// MethodNotAllowed answers requests for a known path with an unsupported
// method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	DefaultErrorHandler(w, apperrors.NotSupportedError(nil, fmt.Sprintf("method %s not allowed", r.Method)))
}

// WriteJSON writes v as a JSON body with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	return nil
}

// DecodeJSON decodes the request body into v, rejecting unknown fields
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.BadRequestError(err, "invalid request body")
	}
	return nil
}
