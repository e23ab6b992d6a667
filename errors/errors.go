// Package errors provides custom error types for the merge kit
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents the type of error that occurred
type ErrorCode string

const (
	ErrCodeStorageFailure     ErrorCode = "STORAGE_FAILURE"
	ErrCodeUnsupportedContent ErrorCode = "UNSUPPORTED_CONTENT"
	ErrCodeConflictFailure    ErrorCode = "CONFLICT_FAILURE"
	ErrCodeValidationFailure  ErrorCode = "VALIDATION_FAILURE"
)

// Operation represents the type of merge-kit operation
type Operation string

const (
	OpMerge          Operation = "merge"
	OpDiff           Operation = "diff"
	OpRegisterPolicy Operation = "register_policy"
	OpDetect         Operation = "detect"
	OpResolve        Operation = "resolve"
	OpManualResolve  Operation = "manual_resolve"
	OpGet            Operation = "get"
	OpPut            Operation = "put"
	OpDelete         Operation = "delete"
	OpFind           Operation = "find"
	OpClose          Operation = "close"
)

// MergeError represents an error that occurred during a merge, diff, or
// conflict-registry operation
type MergeError struct {
	// Operation during which the error occurred
	Op Operation

	// Component that generated the error (e.g., "registry", "storage/sqlite")
	Component string

	// Underlying error
	Err error

	// Whether the operation can be retried
	Retryable bool

	// Error code for the error type
	Code ErrorCode

	// Metadata for additional context
	Metadata map[string]interface{}
}

func (e *MergeError) Error() string {
	var msg string
	if e.Component != "" {
		msg = fmt.Sprintf("%s operation failed in %s component", e.Op, e.Component)
	} else {
		msg = fmt.Sprintf("%s operation failed", e.Op)
	}

	if e.Code != "" {
		msg += fmt.Sprintf(" [%s]", e.Code)
	}

	return msg + fmt.Sprintf(": %v", e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a new storage-related MergeError
func NewStorageError(op Operation, cause error) *MergeError {
	return &MergeError{
		Code:      ErrCodeStorageFailure,
		Op:        op,
		Component: "store",
		Err:       cause,
		Retryable: true,
	}
}

// NewUnsupportedContentError creates a MergeError for content that cannot be
// merged or diffed (invalid UTF-8, or invalid JSON where JSON is required)
func NewUnsupportedContentError(op Operation, cause error) *MergeError {
	return &MergeError{
		Code:      ErrCodeUnsupportedContent,
		Op:        op,
		Err:       cause,
		Retryable: false,
	}
}

// NewConflictError creates a new conflict-related MergeError
func NewConflictError(op Operation, cause error) *MergeError {
	return &MergeError{
		Code:      ErrCodeConflictFailure,
		Op:        op,
		Component: "registry",
		Err:       cause,
		Retryable: false,
	}
}

// NewValidationError creates a new validation-related MergeError
func NewValidationError(op Operation, cause error) *MergeError {
	return &MergeError{
		Code:      ErrCodeValidationFailure,
		Op:        op,
		Err:       cause,
		Retryable: false,
	}
}

// New creates a new MergeError
func New(op Operation, err error) *MergeError {
	return &MergeError{
		Op:  op,
		Err: err,
	}
}

// NewWithComponent creates a new MergeError with component information
func NewWithComponent(op Operation, component string, err error) *MergeError {
	return &MergeError{
		Op:        op,
		Component: component,
		Err:       err,
	}
}

// IsRetryable checks if an error is a retryable MergeError
func IsRetryable(err error) bool {
	var mergeErr *MergeError
	if errors.As(err, &mergeErr) {
		return mergeErr.Retryable
	}
	return false
}

// IsUnsupportedContent reports whether err carries the UNSUPPORTED_CONTENT code.
// Callers use this to distinguish "this input cannot be merged/diffed" from
// infrastructure failures.
func IsUnsupportedContent(err error) bool {
	return HasCode(err, ErrCodeUnsupportedContent)
}

// IsStorageFailure reports whether err carries the STORAGE_FAILURE code.
func IsStorageFailure(err error) bool {
	return HasCode(err, ErrCodeStorageFailure)
}

// HasCode checks whether err is a MergeError with the given code
func HasCode(err error, code ErrorCode) bool {
	var mergeErr *MergeError
	if errors.As(err, &mergeErr) {
		return mergeErr.Code == code
	}
	return false
}
