package source

import (
	"errors"
	"fmt"
)

// Error codes for the engine boundary
const (
	// File-level errors, fatal to the whole session
	ErrCodeFileNotFound       = "FILE_NOT_FOUND"
	ErrCodeFileCorrupt        = "FILE_CORRUPT"
	ErrCodeUnsupportedVersion = "UNSUPPORTED_VERSION"
	ErrCodeUnsupportedFormat  = "UNSUPPORTED_FORMAT"

	// Request-level errors, scoped to one (column, scope) key
	ErrCodeDecodeFailed      = "DECODE_FAILED"
	ErrCodeColumnNotFound    = "COLUMN_NOT_FOUND"
	ErrCodeRowGroupRange     = "ROW_GROUP_OUT_OF_RANGE"
	ErrCodeStatNotApplicable = "STAT_NOT_APPLICABLE"
	ErrCodeSourceClosed      = "SOURCE_CLOSED"
)

// Error is a typed engine error with additional context
type Error struct {
	Code    string
	Message string
	Details string
	Cause   error
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates an error with the given code and message
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithDetails attaches detail text and returns the error
func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

// WithCause attaches the underlying cause and returns the error
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// Convenience constructors for common error types

func NewNotFoundError(path string, cause error) *Error {
	return NewError(ErrCodeFileNotFound, "file not found").
		WithDetails(path).
		WithCause(cause)
}

func NewCorruptError(path, reason string, cause error) *Error {
	return NewError(ErrCodeFileCorrupt, "invalid file footer").
		WithDetails(fmt.Sprintf("%s: %s", path, reason)).
		WithCause(cause)
}

func NewUnsupportedVersionError(path string, version int32) *Error {
	return NewError(ErrCodeUnsupportedVersion, "unsupported format version").
		WithDetails(fmt.Sprintf("%s: version %d", path, version))
}

func NewUnsupportedFormatError(path, extension string) *Error {
	return NewError(ErrCodeUnsupportedFormat, "unsupported file extension").
		WithDetails(fmt.Sprintf("%s: %q", path, extension))
}

func NewDecodeError(rowGroup int, column string, cause error) *Error {
	return NewError(ErrCodeDecodeFailed, "failed to decode column chunk").
		WithDetails(fmt.Sprintf("row group %d, column %s", rowGroup, column)).
		WithCause(cause)
}

func NewColumnNotFoundError(column string) *Error {
	return NewError(ErrCodeColumnNotFound, "column not found").
		WithDetails(column)
}

func NewRowGroupRangeError(index, count int) *Error {
	return NewError(ErrCodeRowGroupRange, "row group index out of range").
		WithDetails(fmt.Sprintf("index %d, file has %d row groups", index, count))
}

// IsErrorCode checks if an error carries a specific code
func IsErrorCode(err error, code string) bool {
	var srcErr *Error
	if errors.As(err, &srcErr) {
		return srcErr.Code == code
	}
	return false
}

// IsFatal reports whether the error ends the whole session rather than a
// single request
func IsFatal(err error) bool {
	var srcErr *Error
	if !errors.As(err, &srcErr) {
		return false
	}
	switch srcErr.Code {
	case ErrCodeFileNotFound, ErrCodeFileCorrupt, ErrCodeUnsupportedVersion, ErrCodeUnsupportedFormat:
		return true
	}
	return false
}
