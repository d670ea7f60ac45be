package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// FileSystem errors
	ErrFileRead      ErrorCode = "FILE_READ"
	ErrFileWrite     ErrorCode = "FILE_WRITE"
	ErrFileAccess    ErrorCode = "FILE_ACCESS"
	ErrDirCreate     ErrorCode = "DIR_CREATE"
	ErrSymlinkCreate ErrorCode = "SYMLINK_CREATE"

	// Generated-section errors
	ErrSectionUpdate ErrorCode = "SECTION_UPDATE"

	// Operation executor errors
	ErrOpInvalid ErrorCode = "OP_INVALID"
	ErrOpExecute ErrorCode = "OP_EXECUTE"

	// Download errors
	ErrDownloadConfigsMissing ErrorCode = "DOWNLOAD_CONFIGS_MISSING"
	ErrURLUnresolved          ErrorCode = "URL_UNRESOLVED"
	ErrDownloadFailed         ErrorCode = "DOWNLOAD_FAILED"
)

// SetterError represents a structured error with code and details
type SetterError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *SetterError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *SetterError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *SetterError) Is(target error) bool {
	var targetErr *SetterError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new SetterError with the given code and message
func New(code ErrorCode, message string) *SetterError {
	return &SetterError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new SetterError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *SetterError {
	return &SetterError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a SetterError
func Wrap(err error, code ErrorCode, message string) *SetterError {
	if err == nil {
		return nil
	}
	return &SetterError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *SetterError {
	if err == nil {
		return nil
	}
	return &SetterError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *SetterError) WithDetail(key string, value interface{}) *SetterError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var setterErr *SetterError
	if errors.As(err, &setterErr) {
		return setterErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a SetterError
func GetErrorCode(err error) ErrorCode {
	var setterErr *SetterError
	if errors.As(err, &setterErr) {
		return setterErr.Code
	}
	return ErrUnknown
}
