// Package exceptions turns arbitrary failures into client-facing HTTP error
// responses. It holds the typed errors raised by application code, the
// classifier that maps any failure value to (status, message, severity), the
// severity escalator, and the Pipeline that ties them to the structured
// logger.
package exceptions

import (
	"net/http"
	"runtime/debug"

	"github.com/tbourn/go-api-boilerplate/internal/domain"
)

// AppError is a failure that carries its own HTTP status and severity. It is
// the only kind of failure whose severity is taken verbatim by Classify.
type AppError struct {
	Status   int
	Message  string
	Severity domain.Severity
	Err      error

	stack string
}

// New returns an AppError. A zero status means 500.
func New(message string, status int, severity domain.Severity) *AppError {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return &AppError{Status: status, Message: message, Severity: severity, stack: string(debug.Stack())}
}

// Wrap is New with an underlying cause.
func Wrap(err error, message string, status int, severity domain.Severity) *AppError {
	e := New(message, status, severity)
	e.Err = err
	return e
}

func (e *AppError) Error() string { return e.Message }

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *AppError) Unwrap() error { return e.Err }

// Name is used when the error is normalized into a persisted cause.
func (e *AppError) Name() string { return "AppError" }

// StackTrace returns the stack captured at construction.
func (e *AppError) StackTrace() string { return e.stack }

// HTTPError is a generic HTTP failure: a status code plus a response body.
// Body is either a string or any JSON-serializable value; a nil body is
// rendered from Message.
type HTTPError struct {
	Status  int
	Body    any
	Message string

	stack string
}

// NewHTTP returns an HTTPError with an explicit body. When body is a string
// it doubles as Message.
func NewHTTP(status int, body any) *HTTPError {
	e := &HTTPError{Status: status, Body: body, stack: string(debug.Stack())}
	if s, ok := body.(string); ok {
		e.Message = s
	} else {
		e.Message = http.StatusText(status)
	}
	return e
}

func (e *HTTPError) Error() string { return e.Message }

// Name is used when the error is normalized into a persisted cause.
func (e *HTTPError) Name() string { return "HTTPError" }

// StackTrace returns the stack captured at construction.
func (e *HTTPError) StackTrace() string { return e.stack }

// Response returns the body to serialize. A nil Body yields
// {"message": Message} so classification never loses the error text.
func (e *HTTPError) Response() any {
	if e.Body == nil {
		return map[string]any{"message": e.Message}
	}
	return e.Body
}

// statusError builds the body shape used by the common HTTP errors below:
// {"statusCode": 401, "message": "API Key is missing", "error": "Unauthorized"}.
func statusError(status int, message string) *HTTPError {
	text := http.StatusText(status)
	if message == "" {
		message = text
	}
	e := NewHTTP(status, map[string]any{
		"statusCode": status,
		"message":    message,
		"error":      text,
	})
	e.Message = message
	return e
}

func BadRequest(message string) *HTTPError { return statusError(http.StatusBadRequest, message) }

func Unauthorized(message string) *HTTPError { return statusError(http.StatusUnauthorized, message) }

func Forbidden(message string) *HTTPError { return statusError(http.StatusForbidden, message) }

func NotFound(message string) *HTTPError { return statusError(http.StatusNotFound, message) }

func MethodNotAllowed(message string) *HTTPError {
	return statusError(http.StatusMethodNotAllowed, message)
}

func TooManyRequests(message string) *HTTPError {
	return statusError(http.StatusTooManyRequests, message)
}

func Internal(message string) *HTTPError {
	return statusError(http.StatusInternalServerError, message)
}
