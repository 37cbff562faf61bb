package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error by how it should reach the caller.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindPrecondition Kind = "precondition"
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindInternal     Kind = "internal"
)

// Error is a typed domain error carrying its HTTP status and a stable code.
type Error struct {
	Kind    Kind   `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches on Kind and Code so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func New(kind Kind, code string, status int, message string) *Error {
	return &Error{Kind: kind, Code: code, Status: status, Message: message}
}

// NotFound reports a missing entity. The message is shown to the caller verbatim.
func NotFound(message string) *Error {
	return New(KindNotFound, "NOT_FOUND", http.StatusNotFound, message)
}

// Precondition reports a business-rule violation such as a blocked user.
func Precondition(code, message string) *Error {
	return New(KindPrecondition, code, http.StatusBadRequest, message)
}

func Validation(message string) *Error {
	return New(KindValidation, "VALIDATION_ERROR", http.StatusBadRequest, message)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, "FORBIDDEN", http.StatusForbidden, message)
}

// Internal wraps an unexpected failure behind a generic message.
func Internal(err error) *Error {
	return &Error{
		Kind:    KindInternal,
		Code:    "INTERNAL_ERROR",
		Status:  http.StatusInternalServerError,
		Message: "internal server error",
		Err:     err,
	}
}

// FromError normalises any error into an *Error, treating unknown errors as internal.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func IsNotFound(err error) bool {
	return IsKind(err, KindNotFound)
}

func IsPrecondition(err error) bool {
	return IsKind(err, KindPrecondition)
}
