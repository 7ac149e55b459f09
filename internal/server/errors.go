package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/KaramelBytes/adcorr-cli/internal/ingest"
	"github.com/KaramelBytes/adcorr-cli/internal/period"
)

// APIError is the JSON body of every failed request.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	e.RequestID = middleware.GetReqID(r.Context())
	render.Status(r, e.StatusCode)
	return nil
}

func newAPIError(status int, code, msg string) *APIError {
	return &APIError{StatusCode: status, ErrorCode: code, Message: msg}
}

// errorFor maps domain errors onto HTTP statuses.
func errorFor(err error) *APIError {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return newAPIError(http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE", err.Error())
	case errors.Is(err, ingest.ErrFormat):
		return newAPIError(http.StatusUnprocessableEntity, "FORMAT_ERROR", err.Error())
	case errors.Is(err, period.ErrUnknownPeriod):
		return newAPIError(http.StatusBadRequest, "INVALID_PERIOD", err.Error())
	}
	return newAPIError(http.StatusInternalServerError, "INTERNAL", err.Error())
}

func writeError(w http.ResponseWriter, r *http.Request, e *APIError) {
	_ = render.Render(w, r, e)
}
