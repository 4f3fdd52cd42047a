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
	ErrUnknown  ErrorCode = "UNKNOWN"
	ErrInternal ErrorCode = "INTERNAL"

	// ErrConfigInvalid covers invalid or missing roots, rules and settings.
	// It is always raised before anything on disk is touched.
	ErrConfigInvalid ErrorCode = "CONFIG_INVALID"

	// ErrFileSystem covers I/O failures during prune and populate.
	ErrFileSystem ErrorCode = "FILESYSTEM"

	// ErrCompile is raised when a source module fails to compile.
	ErrCompile ErrorCode = "COMPILE"

	// Manifest errors
	ErrManifestMissing  ErrorCode = "MANIFEST_MISSING"
	ErrManifestMismatch ErrorCode = "MANIFEST_MISMATCH"

	// Collaborator errors
	ErrInstaller ErrorCode = "INSTALLER"
	ErrArchive   ErrorCode = "ARCHIVE"
	ErrHook      ErrorCode = "HOOK"
)

// DistError represents a structured error with code and details
type DistError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *DistError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *DistError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *DistError) Is(target error) bool {
	var targetErr *DistError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new DistError with the given code and message
func New(code ErrorCode, message string) *DistError {
	return &DistError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new DistError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *DistError {
	return &DistError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a DistError
func Wrap(err error, code ErrorCode, message string) *DistError {
	if err == nil {
		return nil
	}
	return &DistError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *DistError {
	if err == nil {
		return nil
	}
	return &DistError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *DistError) WithDetail(key string, value interface{}) *DistError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *DistError) WithDetails(details map[string]interface{}) *DistError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var distErr *DistError
	if errors.As(err, &distErr) {
		return distErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a DistError
func GetErrorCode(err error) ErrorCode {
	var distErr *DistError
	if errors.As(err, &distErr) {
		return distErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a DistError
func GetErrorDetails(err error) map[string]interface{} {
	var distErr *DistError
	if errors.As(err, &distErr) {
		return distErr.Details
	}
	return nil
}

// ExitCode maps an error to the process exit status. A manifest mismatch
// exits with 2 so scripts can tell drift apart from failures.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case IsErrorCode(err, ErrManifestMismatch):
		return 2
	default:
		return 1
	}
}
