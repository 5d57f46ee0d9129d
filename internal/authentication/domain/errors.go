// Package domain holds the value types, password hasher, and token codec that
// sit beneath every store and the authentication engine.
package domain

import (
	"errors"
	"fmt"
)

// Code classifies an Error into the taxonomy the engine and transport layer
// branch on. Every error the domain/store/engine packages return satisfies
// the Error interface below.
type Code int

const (
	// CodeInternal is the zero value so a bare error{} never silently maps
	// to a more specific, misleading code.
	CodeInternal Code = iota
	CodeValidation
	CodeUnauthenticated
	CodeTokenExpired
	CodeInvalidToken
	CodeNotFound
	CodeConstraintViolation
	CodeStorageError
)

func (c Code) String() string {
	switch c {
	case CodeValidation:
		return "validation_error"
	case CodeUnauthenticated:
		return "unauthenticated"
	case CodeTokenExpired:
		return "token_expired"
	case CodeInvalidToken:
		return "invalid_token"
	case CodeNotFound:
		return "not_found"
	case CodeConstraintViolation:
		return "constraint_violation"
	case CodeStorageError:
		return "storage_error"
	default:
		return "internal_error"
	}
}

// Error is the typed error every package above domain branches on instead of
// string-matching err.Error(). Where there is an underlying database/library
// error (StorageErr, InternalErr) it is kept as the wrapped cause so logs
// retain it, while callers only ever see the Code.
type Error struct {
	code    Code
	Field   string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Code returns the taxonomy classification, used by the transport layer to
// pick a gRPC status code.
func (e *Error) Code() Code { return e.code }

func newErr(code Code, msg string, cause error) *Error {
	return &Error{code: code, Message: msg, cause: cause}
}

// ValidationErr reports that input failed a syntactic or policy rule.
func ValidationErr(field, msg string) *Error {
	return &Error{code: CodeValidation, Field: field, Message: msg}
}

// Unauthenticated reports a rejected credential or token. Callers must use a
// single opaque message for client-facing errors to avoid an oracle.
func Unauthenticated(msg string) *Error {
	return newErr(CodeUnauthenticated, msg, nil)
}

// TokenExpiredErr reports a structurally valid token whose exp has passed.
func TokenExpiredErr() *Error {
	return newErr(CodeTokenExpired, "token expired", nil)
}

// InvalidTokenErr reports any decode or claim-check failure prior to
// expiration. reason is for server logs only, never echoed to a client.
func InvalidTokenErr(reason string) *Error {
	return newErr(CodeInvalidToken, reason, nil)
}

// NotFoundErr reports a lookup miss.
func NotFoundErr(what string) *Error {
	return newErr(CodeNotFound, what+" not found", nil)
}

// ConstraintViolationErr reports a database uniqueness or foreign-key failure.
func ConstraintViolationErr(constraint, field, msg string) *Error {
	return &Error{code: CodeConstraintViolation, Field: field, Message: msg}
}

// StorageErr wraps any other database failure, keeping SQL detail out of the
// Message and only in the wrapped cause.
func StorageErr(cause error) *Error {
	return newErr(CodeStorageError, "storage error", cause)
}

// InternalErr wraps a programmer error or unrecoverable I/O failure.
func InternalErr(cause error) *Error {
	return newErr(CodeInternal, "internal error", cause)
}

// IsCode reports whether err is a *Error of the given code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.code == code
	}
	return false
}

// AsError unwraps err into a *Error, the way the transport layer picks a
// gRPC status code from an engine/store failure.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
