// Package errors defines the coded error type used across rig.
//
// Every failure falls into one of a small number of categories: fatal
// bootstrap failures (no package manager, no way to fetch state),
// per-package install failures, and per-file deployment failures. The
// latter two are recoverable and end up as warnings on the run report;
// only bootstrap failures abort a run.
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
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrPermission   ErrorCode = "PERMISSION"

	// Bootstrap errors (fatal: these abort the run)
	ErrBootstrap ErrorCode = "BOOTSTRAP"

	// Package reconciliation errors (recoverable, become warnings)
	ErrPackageProbe   ErrorCode = "PACKAGE_PROBE"
	ErrPackageInstall ErrorCode = "PACKAGE_INSTALL"

	// Dotfile deployment errors (recoverable, become warnings)
	ErrDeployment ErrorCode = "DEPLOYMENT"

	// Manifest errors
	ErrManifestLoad    ErrorCode = "MANIFEST_LOAD"
	ErrManifestParse   ErrorCode = "MANIFEST_PARSE"
	ErrManifestInvalid ErrorCode = "MANIFEST_INVALID"

	// Fetch errors
	ErrFetch ErrorCode = "FETCH"

	// FileSystem errors
	ErrFileAccess    ErrorCode = "FILE_ACCESS"
	ErrFileWrite     ErrorCode = "FILE_WRITE"
	ErrSymlinkCreate ErrorCode = "SYMLINK_CREATE"
	ErrDirCreate     ErrorCode = "DIR_CREATE"
)

// RigError represents a structured error with code and details
type RigError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *RigError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *RigError) Unwrap() error {
	return e.Wrapped
}

// Is matches two rig errors by code
func (e *RigError) Is(target error) bool {
	var targetErr *RigError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new RigError with the given code and message
func New(code ErrorCode, message string) *RigError {
	return &RigError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new RigError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *RigError {
	return &RigError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a RigError. Returns nil when err is
// nil so call sites can wrap unconditionally.
func Wrap(err error, code ErrorCode, message string) *RigError {
	if err == nil {
		return nil
	}
	return &RigError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *RigError {
	if err == nil {
		return nil
	}
	return &RigError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *RigError) WithDetail(key string, value interface{}) *RigError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var rigErr *RigError
	if errors.As(err, &rigErr) {
		return rigErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a RigError
func GetErrorCode(err error) ErrorCode {
	var rigErr *RigError
	if errors.As(err, &rigErr) {
		return rigErr.Code
	}
	return ErrUnknown
}

// IsFatal reports whether err must abort the whole run rather than be
// recorded as a warning on the report.
func IsFatal(err error) bool {
	return IsErrorCode(err, ErrBootstrap)
}
