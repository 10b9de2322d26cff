package models

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers and for the HTTP layer
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindRemote       Kind = "remote"
	KindInternal     Kind = "internal"
)

// Error is the normalized error shape shared by every layer
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError creates a local validation error
func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError creates a not-found error for the named entity
func NewNotFoundError(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found: %s", entity, id)}
}

// NewUnauthorizedError creates an authentication error
func NewUnauthorizedError(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// NewForbiddenError creates an authorization error
func NewForbiddenError(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// NewRemoteError wraps a collaborator or transport failure
func NewRemoteError(message string, err error) *Error {
	return &Error{Kind: KindRemote, Message: message, Err: err}
}

// NewInternalError wraps an unexpected failure
func NewInternalError(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of err, KindInternal for foreign errors and "" for nil
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsValidation reports whether err is a local validation error
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// MessageOf returns the human-readable message carried by err, or fallback when it has none
func MessageOf(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		if e.Err != nil && e.Err.Error() != "" {
			return e.Err.Error()
		}
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
