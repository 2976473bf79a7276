package errors

import (
	"errors"
	"time"

	"github.com/landonvance1/BookSharingApp/pkg/code"
)

// AppError is the unified application error carrying a registered code,
// message, optional details, the request trace ID and the underlying cause.
type AppError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	TraceID string   `json:"traceId,omitempty"`
	// Cause is the original error, not serialized.
	Cause     error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`

	codeErr *code.Code
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the registered code and the cause, so errors.Is and
// errors.As reach either through the chain.
func (e *AppError) Unwrap() []error {
	var chain []error
	if e.codeErr != nil {
		chain = append(chain, e.codeErr)
	}
	if e.Cause != nil {
		chain = append(chain, e.Cause)
	}
	return chain
}

// NewAppError creates an AppError from a registered Code.
func NewAppError(c *code.Code, cause error) *AppError {
	return &AppError{
		Code:      c.Code(),
		Message:   c.Msg(),
		Details:   c.Details(),
		Cause:     cause,
		Timestamp: time.Now(),
		codeErr:   c,
	}
}

// NewAppErrorWithMessage creates an AppError with a custom message.
func NewAppErrorWithMessage(errorCode int, message string, cause error) *AppError {
	return &AppError{
		Code:      errorCode,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// WithTraceID sets the trace ID and returns the error for chaining.
func (e *AppError) WithTraceID(traceID string) *AppError {
	e.TraceID = traceID
	return e
}

// WithDetails sets details and returns the error for chaining.
func (e *AppError) WithDetails(details ...string) *AppError {
	e.Details = details
	return e
}

// IsAppError checks whether err is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts an AppError from the error chain, nil when absent.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// CodeOf walks the error chain and returns the registered Code, nil when absent.
func CodeOf(err error) *code.Code {
	var c *code.Code
	if errors.As(err, &c) {
		return c
	}
	return nil
}
