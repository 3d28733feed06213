// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package account

import (
	"errors"
	"fmt"
)

// Kind sentinels. Every *Error matches exactly one of them with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
)

// Stable error codes surfaced to API clients.
const (
	CodeUserNotFound       = "UserNotFoundError"
	CodeDuplicateEmail     = "DuplicateEmailError"
	CodeDuplicateUsername  = "DuplicateUsernameError"
	CodeInvalidCredentials = "InvalidCredentialsError"
	CodeExpiredSession     = "ExpiredSessionError"
	CodePermissionDenied   = "PermissionDeniedError"
	CodeInvalidArgument    = "InvalidArgumentValueError"
)

// Error is a domain outcome with a machine-readable code.
type Error struct {
	kind    error
	Code    string
	Message string
	// Detail carries the offending value (email, username, field reason) when there is one.
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Detail)
}

// Is reports whether target is the kind sentinel of e.
func (e *Error) Is(target error) bool {
	return target == e.kind
}

// Kind returns the kind sentinel.
func (e *Error) Kind() error {
	return e.kind
}

// AsError extracts a domain error from err's chain.
func AsError(err error) (*Error, bool) {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

// UserNotFound is returned when an id or email resolves to no user.
func UserNotFound() *Error {
	return &Error{
		kind:    ErrNotFound,
		Code:    CodeUserNotFound,
		Message: "you cast 'Locate Creature' but nothing answered: this user does not exist",
	}
}

// DuplicateEmail is returned when the email is already registered.
func DuplicateEmail(email string) *Error {
	return &Error{
		kind:    ErrConflict,
		Code:    CodeDuplicateEmail,
		Message: "no doppelgangers allowed, a user is already registered with this email",
		Detail:  email,
	}
}

// DuplicateUsername is returned when the username is already taken.
func DuplicateUsername(username string) *Error {
	return &Error{
		kind:    ErrConflict,
		Code:    CodeDuplicateUsername,
		Message: "no doppelgangers allowed, a user is already registered with this username",
		Detail:  username,
	}
}

// InvalidCredentials is returned when a password does not verify.
func InvalidCredentials() *Error {
	return &Error{
		kind:    ErrUnauthorized,
		Code:    CodeInvalidCredentials,
		Message: "invalid password",
	}
}

// ExpiredSession is returned for a malformed, expired or unknown session token.
func ExpiredSession() *Error {
	return &Error{
		kind:    ErrUnauthorized,
		Code:    CodeExpiredSession,
		Message: "your session has expired, log in again",
	}
}

// PermissionDenied is returned when a protected operation is called without a session.
func PermissionDenied() *Error {
	return &Error{
		kind:    ErrForbidden,
		Code:    CodePermissionDenied,
		Message: "log in before trying that",
	}
}

// Validation is returned when input fails a shape or strength rule.
func Validation(field, reason string) *Error {
	msg := reason
	if field != "" {
		msg = field + ": " + reason
	}
	return &Error{
		kind:    ErrValidation,
		Code:    CodeInvalidArgument,
		Message: "validation error",
		Detail:  msg,
	}
}

// ConstraintError is a unique-constraint violation reported by the user store.
// Constraint holds the violated index name.
type ConstraintError struct {
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("unique constraint %q violated: %v", e.Constraint, e.Err)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}
