package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/simple-blog/pkg/simpleblog"
	"github.com/tendant/simple-blog/pkg/simpleblog/account"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes a failure
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Redirect  string `json:"redirect,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// MessageResponse is the body of a successful mutation: a flash message and
// the location the client should show next.
type MessageResponse struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
	ID       string `json:"id,omitempty"`
	Token    string `json:"token,omitempty"`
}

// statusFor maps an error onto an HTTP status and error code
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, simpleblog.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, simpleblog.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, simpleblog.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, account.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError renders err. Store faults are logged and reported with a
// generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status, code := statusFor(err)

	message := err.Error()
	switch {
	case status == http.StatusForbidden:
		message = "You do not have permission to do that"
	case status == http.StatusInternalServerError:
		slog.ErrorContext(r.Context(), msg, "error", err, "request_id", RequestIDFromContext(r.Context()))
		message = "An internal server error occurred"
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: ErrorBody{
		Code:      code,
		Message:   message,
		RequestID: RequestIDFromContext(r.Context()),
	}})
}

func badRequest(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ErrorResponse{Error: ErrorBody{
		Code:      "bad_request",
		Message:   message,
		RequestID: RequestIDFromContext(r.Context()),
	}})
}
