package errors

import (
	"errors"
	"fmt"
	"os"
)

// Standard error codes
const (
	ErrInvalidRequest      = 400
	ErrUnauthorized        = 401
	ErrForbidden           = 403
	ErrNotFound            = 404
	ErrConflict            = 409
	ErrInternalServerError = 500
	ErrServiceUnavailable  = 503

	// Engine-specific error codes (2000+)
	ErrFormat               = 2001 // malformed bet key / grid string
	ErrVerificationMismatch = 2002 // recomputed outcome differs from claimed
	ErrTimeout              = 2003 // retry/poll budget exhausted
	ErrBridgeProtocol       = 2004 // malformed or out-of-namespace bridge message
	ErrInsufficientBalance  = 2005
	ErrMachineNotFound      = 2006
	ErrSpinNotFound         = 2007
	ErrSpinState            = 2008 // illegal spin status transition
	ErrChain                = 2009 // chain collaborator failure
	ErrStateStore           = 2010 // queue snapshot store failure
	ErrWallet               = 2011
	ErrConfig               = 2012
)

// AppError represents a custom application error
type AppError struct {
	Code         int    `json:"code"`
	Message      string `json:"message"`
	DebugMessage string `json:"debug_message,omitempty"`
	Err          error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.DebugMessage != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.DebugMessage)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s [%v]", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message
func Newf(code int, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewWithDebug creates a new AppError with a debug message
func NewWithDebug(code int, message string, debugMessage string) *AppError {
	return &AppError{
		Code:         code,
		Message:      message,
		DebugMessage: debugMessage,
	}
}

// Wrap wraps an existing error into an AppError
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrapf wraps an existing error into an AppError with a formatted message
func Wrapf(err error, code int, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// Response returns a map suitable for JSON response
func (e *AppError) Response() map[string]interface{} {
	response := map[string]interface{}{
		"code":    e.Code,
		"message": e.Message,
	}

	// Include debug message in development environment
	env := os.Getenv("APP_ENV")
	if (env == "dev" || env == "development") && e.DebugMessage != "" {
		response["debug_message"] = e.DebugMessage
	}

	return response
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetCode extracts error code from an error
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternalServerError
}

// HasCode reports whether err carries the given error code
func HasCode(err error, code int) bool {
	return err != nil && GetCode(err) == code
}

// HTTPStatusFromCode maps error codes to HTTP status codes
func HTTPStatusFromCode(code int) int {
	switch code {
	case ErrInvalidRequest, ErrFormat, ErrInsufficientBalance:
		return 400
	case ErrUnauthorized:
		return 401
	case ErrForbidden:
		return 403
	case ErrNotFound, ErrMachineNotFound, ErrSpinNotFound:
		return 404
	case ErrConflict, ErrSpinState:
		return 409
	case ErrVerificationMismatch:
		return 422
	case ErrTimeout:
		return 504
	case ErrChain, ErrWallet, ErrStateStore:
		return 502
	case ErrServiceUnavailable:
		return 503
	default:
		return 500
	}
}
