package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
	KindInvalidArgument Kind = "invalid_argument"
	KindConflict        Kind = "conflict"
	KindInvalidState    Kind = "invalid_state"
	KindUnauthenticated Kind = "unauthenticated"
	KindInternal        Kind = "internal"
)

// Error is a classified domain failure. Two errors with the same Code are
// considered equal by errors.Is, so sentinels declared with New keep matching
// after Withf or WithDetails derive a new message from them.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code && e.Kind == other.Kind
}

func (e *Error) Withf(format string, args ...any) *Error {
	derived := *e
	derived.Message = fmt.Sprintf(format, args...)
	return &derived
}

func (e *Error) WithDetails(details map[string]any) *Error {
	derived := *e
	derived.Details = details
	return &derived
}

func KindOf(err error) Kind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindInternal
}

func As(err error) (*Error, bool) {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}
