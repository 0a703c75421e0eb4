package metadata

import (
	"errors"
	"fmt"
)

// StoreError represents a domain error from metadata store operations.
//
// These are business logic errors (record not found, cyclic parent, etc.)
// as opposed to infrastructure errors (disk failure, driver error), which
// are returned wrapped with fmt.Errorf and propagate unchanged.
//
// The API layer translates StoreError codes to HTTP status codes.
type StoreError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// ID is the directory or file identifier related to the error (0 if none)
	ID uint64
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("%s: %d", e.Message, e.ID)
	}
	return e.Message
}

// ErrorCode represents the category of a store error.
type ErrorCode int

const (
	// ErrValidation indicates invalid input (empty name, missing directory, empty query)
	ErrValidation ErrorCode = iota

	// ErrNotFound indicates the referenced directory or file does not exist
	ErrNotFound

	// ErrCyclicReference indicates a parent assignment would make a directory
	// its own ancestor
	ErrCyclicReference

	// ErrNotEmpty indicates a strict delete hit a directory that still has
	// subdirectories or files
	ErrNotEmpty
)

// String returns the error kind used in API error bodies.
func (c ErrorCode) String() string {
	switch c {
	case ErrValidation:
		return "ValidationError"
	case ErrNotFound:
		return "NotFoundError"
	case ErrCyclicReference:
		return "CyclicReferenceError"
	case ErrNotEmpty:
		return "NotEmptyError"
	default:
		return "UnknownError"
	}
}

func NewValidationError(format string, args ...any) *StoreError {
	return &StoreError{Code: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func NewDirectoryNotFoundError(id uint64) *StoreError {
	return &StoreError{Code: ErrNotFound, Message: "directory not found", ID: id}
}

func NewFileNotFoundError(id uint64) *StoreError {
	return &StoreError{Code: ErrNotFound, Message: "file not found", ID: id}
}

func NewCyclicReferenceError(id uint64) *StoreError {
	return &StoreError{Code: ErrCyclicReference, Message: "a directory cannot be its own ancestor", ID: id}
}

func NewNotEmptyError(id uint64) *StoreError {
	return &StoreError{Code: ErrNotEmpty, Message: "directory is not empty", ID: id}
}

// IsCode reports whether err is (or wraps) a StoreError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Code == code
	}
	return false
}

// IsNotFound reports whether err is (or wraps) an ErrNotFound StoreError.
func IsNotFound(err error) bool {
	return IsCode(err, ErrNotFound)
}
