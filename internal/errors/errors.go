package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the typed failure returned by the social service.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Err     error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field: %s)", msg, e.Field)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a NOT_FOUND error
func NotFound(resource string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// PermissionDenied creates a PERMISSION_DENIED error
func PermissionDenied(message string) *AppError {
	return &AppError{
		Code:    ErrPermissionDenied,
		Message: message,
	}
}

// Validation creates a VALIDATION_ERROR
func Validation(field, message string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Transient wraps a data store failure. The cause stays reachable through
// errors.Is / errors.As.
func Transient(op string, err error) *AppError {
	return &AppError{
		Code:    ErrTransientIO,
		Message: fmt.Sprintf("%s failed", op),
		Err:     err,
	}
}

// CodeOf returns the code of the first AppError in err's chain, or "" when
// there is none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func IsNotFound(err error) bool         { return CodeOf(err) == ErrNotFound }
func IsPermissionDenied(err error) bool { return CodeOf(err) == ErrPermissionDenied }
func IsValidation(err error) bool       { return CodeOf(err) == ErrValidation }
func IsTransient(err error) bool        { return CodeOf(err) == ErrTransientIO }
