package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/helixml/greenhouse/application/service"
	"github.com/helixml/greenhouse/domain/plant"
	"github.com/helixml/greenhouse/infrastructure/api/jsonapi"
	"github.com/helixml/greenhouse/internal/database"
	"github.com/helixml/greenhouse/internal/log"
)

// Base API errors as sentinels.
var (
	// ErrAuthentication indicates authentication failure.
	ErrAuthentication = errors.New("authentication failed")

	// ErrServer indicates the server returned an error response.
	ErrServer = errors.New("server error")
)

// APIError is an error with an explicit HTTP status.
type APIError struct {
	code    int
	message string
	cause   error
}

// NewAPIError creates a new APIError.
func NewAPIError(code int, message string, cause error) *APIError {
	return &APIError{code: code, message: message, cause: cause}
}

func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("api error %d: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("api error %d: %s", e.code, e.message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error { return e.cause }

// Code returns the HTTP status.
func (e *APIError) Code() int { return e.code }

// Message returns the client-facing message.
func (e *APIError) Message() string { return e.message }

// AuthenticationError is a rejected API key.
type AuthenticationError struct {
	message string
}

// NewAuthenticationError creates a new AuthenticationError.
func NewAuthenticationError(message string) *AuthenticationError {
	return &AuthenticationError{message: message}
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.message)
}

// Unwrap returns ErrAuthentication.
func (e *AuthenticationError) Unwrap() error { return ErrAuthentication }

// ServerError is a failure on the server side, such as a disabled feature.
type ServerError struct {
	statusCode int
	message    string
}

// NewServerError creates a new ServerError.
func NewServerError(statusCode int, message string) *ServerError {
	return &ServerError{statusCode: statusCode, message: message}
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.statusCode, e.message)
}

// Unwrap returns ErrServer.
func (e *ServerError) Unwrap() error { return ErrServer }

// StatusCode returns the HTTP status.
func (e *ServerError) StatusCode() int { return e.statusCode }

// Message returns the client-facing message.
func (e *ServerError) Message() string { return e.message }

// classify maps err to an HTTP status, title and detail.
func classify(err error) (int, string, string) {
	var (
		apiErr    *APIError
		serverErr *ServerError
		authErr   *AuthenticationError
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code(), http.StatusText(apiErr.Code()), apiErr.Message()
	case errors.As(err, &authErr):
		return http.StatusUnauthorized, "Unauthorized", authErr.message
	case errors.As(err, &serverErr):
		return serverErr.StatusCode(), http.StatusText(serverErr.StatusCode()), serverErr.Message()
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrPlantNotFound),
		errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, "Not Found", err.Error()
	case errors.Is(err, service.ErrInvalidSessionID), errors.Is(err, plant.ErrUnknownType):
		return http.StatusBadRequest, "Bad Request", err.Error()
	case errors.Is(err, service.ErrEventsClaimed):
		return http.StatusConflict, "Conflict", err.Error()
	case errors.Is(err, service.ErrSessionsClosed):
		return http.StatusServiceUnavailable, "Service Unavailable", err.Error()
	default:
		return http.StatusInternalServerError, "Internal Server Error", err.Error()
	}
}

// WriteError writes err as a JSON:API error document. Server-side failures
// are logged; logger may be nil.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status, title, detail := classify(err)
	correlationID := log.CorrelationID(r.Context())

	if logger != nil && status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request error",
			slog.Int("status", status),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}

	apiErr := jsonapi.NewError(strconv.Itoa(status), title, detail)
	apiErr.ID = correlationID

	w.Header().Set("Content-Type", jsonapi.MediaType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonapi.NewErrorResponse(apiErr))
}

// WriteJSON writes data as a JSON:API response body.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", jsonapi.MediaType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
