package ledger

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes store failures.
type ErrorCode string

const (
	// ErrCodeStorageUnavailable indicates the ledger medium is inaccessible.
	// Callers may retry.
	ErrCodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"

	// ErrCodeInvalidThread indicates a malformed or missing thread identifier.
	// Caller error; not retryable.
	ErrCodeInvalidThread ErrorCode = "INVALID_THREAD"
)

// Error represents a failure in the ledger store.
//
// The code distinguishes "storage failed" from caller errors so that
// conversational surfaces can fall back to stateless behavior during an
// outage without implying data loss. An empty ledger is never an Error.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// ThreadID identifies the affected partition, when known.
	ThreadID string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ThreadID != "" {
		return fmt.Sprintf("%s: %s (thread=%s)", e.Code, e.Message, e.ThreadID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsStorageUnavailable returns true if err is a retryable storage failure.
// Uses errors.As to handle wrapped errors.
func IsStorageUnavailable(err error) bool {
	var le *Error
	if errors.As(err, &le) {
		return le.Code == ErrCodeStorageUnavailable
	}
	return false
}

// IsInvalidThread returns true if err signals a malformed thread identifier.
// Uses errors.As to handle wrapped errors.
func IsInvalidThread(err error) bool {
	var le *Error
	if errors.As(err, &le) {
		return le.Code == ErrCodeInvalidThread
	}
	return false
}

func storageErr(threadID, msg string, cause error) *Error {
	return &Error{Code: ErrCodeStorageUnavailable, ThreadID: threadID, Message: msg, Err: cause}
}

func invalidThreadErr(threadID string) *Error {
	return &Error{Code: ErrCodeInvalidThread, ThreadID: threadID, Message: "malformed thread identifier"}
}
