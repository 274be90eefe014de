package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/o1x3/ctoken/pkg/processing/costs"
	"github.com/o1x3/ctoken/pkg/processing/tokens"
)

// Error types returned in ErrorResponse.
const (
	ErrorTypeInvalidRequest = "invalid_request_error"
	ErrorTypeNotFound       = "not_found"
	ErrorTypeServerError    = "server_error"
)

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failure.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Model   string `json:"model,omitempty"`
}

// statusFor maps domain errors to an HTTP status and error type.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, costs.ErrModelNotFound):
		return http.StatusNotFound, ErrorTypeNotFound
	case errors.Is(err, costs.ErrInvalidRequest),
		errors.Is(err, costs.ErrNilInput),
		errors.Is(err, tokens.ErrUnsupportedInput):
		return http.StatusBadRequest, ErrorTypeInvalidRequest
	}

	var tcErr *tokens.TokenCountError
	if errors.As(err, &tcErr) {
		return http.StatusBadRequest, ErrorTypeInvalidRequest
	}
	return http.StatusInternalServerError, ErrorTypeServerError
}

func writeError(w http.ResponseWriter, err error) {
	code, typ := statusFor(err)

	detail := ErrorDetail{Message: err.Error(), Type: typ}
	var ceErr *costs.CostEstimateError
	if errors.As(err, &ceErr) {
		detail.Model = ceErr.Model
	}
	if code == http.StatusInternalServerError {
		detail.Message = "An internal error occurred."
	}

	writeJSON(w, code, ErrorResponse{Error: detail})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{Message: msg, Type: ErrorTypeInvalidRequest}})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
