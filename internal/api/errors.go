package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/brainvault/brainvault-server/internal/errors"
	"github.com/brainvault/brainvault-server/internal/http/response"
	"github.com/brainvault/brainvault-server/internal/logger"
	"github.com/brainvault/brainvault-server/internal/store"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// FieldError is one schema violation reported by huma.
type FieldError struct {
	Location string `json:"location,omitempty"`
	Message  string `json:"message"`
	Value    any    `json:"value,omitempty"`
}

// RegisterErrorHandler configures huma to use domain errors. Server errors
// are logged with their causes before the message is replaced, through the
// request-scoped logger when huma passes a context.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler(log *slog.Logger) {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		logServerError(log, status, message, errs)
		return newAPIError(status, message, errs...)
	}
	huma.NewErrorWithContext = func(ctx huma.Context, status int, message string, errs ...error) huma.StatusError {
		reqLog := log
		if ctx != nil {
			reqLog = logger.FromContext(ctx.Context(), log)
		}
		logServerError(reqLog, status, message, errs)
		return newAPIError(status, message, errs...)
	}
}

func logServerError(log *slog.Logger, status int, message string, errs []error) {
	if status < http.StatusInternalServerError {
		return
	}
	log.Error("unhandled API error",
		slog.Int("status", status),
		slog.String("message", message),
		slog.Any("error", errors.Join(errs...)))
}

func newAPIError(status int, message string, errs ...error) huma.StatusError {
	var fields []FieldError
	for _, err := range errs {
		if err == nil {
			continue
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return apiErr
		}

		var domainErr *domainerrors.Error
		if errors.As(err, &domainErr) {
			return &APIError{
				status:  domainErr.HTTPStatus(),
				Code:    string(domainErr.Code),
				Message: domainErr.Message,
				Details: domainErr.Details,
			}
		}

		// Store errors that escaped the service layer keep their status.
		var storeErr *store.Error
		if errors.As(err, &storeErr) {
			return &APIError{
				status:  storeErr.HTTPCode(),
				Code:    string(response.CodeForStatus(storeErr.HTTPCode())),
				Message: storeErr.Message,
			}
		}

		var detailer huma.ErrorDetailer
		if errors.As(err, &detailer) {
			d := detailer.ErrorDetail()
			fields = append(fields, FieldError{Location: d.Location, Message: d.Message, Value: d.Value})
		}
	}

	// huma reports schema violations as 422; anything else at 500 is an
	// unexpected handler error whose message must not leak.
	if status >= http.StatusInternalServerError {
		message = "internal server error"
	}

	apiErr := &APIError{
		status:  status,
		Code:    string(response.CodeForStatus(status)),
		Message: message,
	}
	if len(fields) > 0 {
		apiErr.Details = fields
	}
	return apiErr
}
