package web

// errors.go renders every API error the same way: the technical error is
// logged with the request ID, and the client receives the coded user
// message from core.MapError.

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/payrollx/internal/core"
	"github.com/JonMunkholm/payrollx/internal/logging"
)

var (
	errNoFile              = errors.New("no file provided")
	errRateLimited         = errors.New("rate limit exceeded")
	errUnknownExportFormat = errors.New("unknown export format")
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes its user message as JSON.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request error", "path", r.URL.Path, "status", status, "error", err, "code", msg.Code)
	} else {
		logger.Warn("request error", "path", r.URL.Path, "status", status, "error", err, "code", msg.Code)
	}

	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// statusFor picks the HTTP status for an extraction error.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrFileTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyRuns):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrEmptyFile), errors.Is(err, core.ErrInvalidCSV), errors.Is(err, core.ErrInvalidWorkbook):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errors.Is(err, errNoFile), errors.Is(err, errUnknownExportFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
