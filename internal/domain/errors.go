package domain

import "fmt"

type ErrorCode string

const (
	CodeInvalid   ErrorCode = "invalid"
	CodeMalformed ErrorCode = "malformed"
	CodeRequired  ErrorCode = "required"
	CodeUnsafe    ErrorCode = "unsafe"
	CodeDuplicate ErrorCode = "duplicate"
)

// ValidationError is a user-correctable failure carrying a stable machine
// code next to the human message. It never wraps unexpected infrastructure
// errors; those surface as-is.
type ValidationError struct {
	Code    ErrorCode
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewValidationError(code ErrorCode, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}
