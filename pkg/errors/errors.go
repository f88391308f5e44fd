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
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Command execution errors
	ErrCommandFailed   ErrorCode = "COMMAND_FAILED"
	ErrCommandNotFound ErrorCode = "COMMAND_NOT_FOUND"

	// Repository errors
	ErrRepoSync ErrorCode = "REPO_SYNC"

	// Configuration errors
	ErrConfigLoad ErrorCode = "CONFIG_LOAD"

	// Prerequisite errors (missing required tool, no connectivity)
	ErrPrerequisite ErrorCode = "PREREQUISITE"

	// FileSystem errors
	ErrFileNotFound  ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess    ErrorCode = "FILE_ACCESS"
	ErrBackupCreate  ErrorCode = "BACKUP_CREATE"
	ErrSymlinkCreate ErrorCode = "SYMLINK_CREATE"
	ErrDirCreate     ErrorCode = "DIR_CREATE"
)

// InstallError represents a structured error with code and details
type InstallError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *InstallError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *InstallError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *InstallError) Is(target error) bool {
	var targetErr *InstallError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates an InstallError with the given code and message
func New(code ErrorCode, message string) *InstallError {
	return &InstallError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf is New with fmt-style message formatting
func Newf(code ErrorCode, format string, args ...interface{}) *InstallError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches a code and message to err, keeping err as the cause.
// A nil err yields nil so call sites can wrap unconditionally.
func Wrap(err error, code ErrorCode, message string) *InstallError {
	if err == nil {
		return nil
	}
	e := New(code, message)
	e.Wrapped = err
	return e
}

// Wrapf is Wrap with fmt-style message formatting
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *InstallError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WithDetail records a key/value pair for diagnostics and returns the
// error for chaining
func (e *InstallError) WithDetail(key string, value interface{}) *InstallError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var installErr *InstallError
	if errors.As(err, &installErr) {
		return installErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not an InstallError
func GetErrorCode(err error) ErrorCode {
	var installErr *InstallError
	if errors.As(err, &installErr) {
		return installErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not an InstallError
func GetErrorDetails(err error) map[string]interface{} {
	var installErr *InstallError
	if errors.As(err, &installErr) {
		return installErr.Details
	}
	return nil
}
