package session

import (
	"errors"
	"fmt"
)

// ErrorCode classifies session failures.
type ErrorCode string

const (
	// ErrCodeUnresolvedIdentity means the claims matched no registry row.
	ErrCodeUnresolvedIdentity ErrorCode = "UNRESOLVED_IDENTITY"

	// ErrCodeForbidden means a capability was requested that the member's
	// registered role does not grant.
	ErrCodeForbidden ErrorCode = "FORBIDDEN"

	// ErrCodeRegistryUnavailable means the registry database failed.
	ErrCodeRegistryUnavailable ErrorCode = "REGISTRY_UNAVAILABLE"
)

// Error is a typed session failure.
type Error struct {
	Code     ErrorCode
	MemberID string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.MemberID != "" {
		return fmt.Sprintf("session: %s: member %s: %s", e.Code, e.MemberID, e.Message)
	}
	return fmt.Sprintf("session: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsUnresolvedIdentity reports whether err is an unresolved-identity failure.
func IsUnresolvedIdentity(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeUnresolvedIdentity
}

// IsForbidden reports whether err is a capability refusal.
func IsForbidden(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeForbidden
}

func unresolvedErr(memberID, msg string) *Error {
	return &Error{Code: ErrCodeUnresolvedIdentity, MemberID: memberID, Message: msg}
}

func forbiddenErr(memberID, msg string) *Error {
	return &Error{Code: ErrCodeForbidden, MemberID: memberID, Message: msg}
}

func registryErr(msg string, err error) *Error {
	return &Error{Code: ErrCodeRegistryUnavailable, Message: msg, Err: err}
}
