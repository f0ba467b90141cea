// Package errors defines the error taxonomy shared by the storefront
// services and the HTTP layer.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure.
type Code string

const (
	CodeNotFound              Code = "not_found"
	CodeInsufficientStock     Code = "insufficient_stock"
	CodeEmptyCart             Code = "empty_cart"
	CodeDuplicateSubmission   Code = "duplicate_submission"
	CodeInvalidTransition     Code = "invalid_transition"
	CodeValidation            Code = "validation_error"
	CodeDependencyUnavailable Code = "dependency_unavailable"
	CodeUnauthorized          Code = "unauthorized"
	CodeForbidden             Code = "forbidden"
	CodeConflict              Code = "conflict"
)

// Error is the single error type returned by services.
// Err holds the underlying cause for logs; it is never sent to clients.
type Error struct {
	Code    Code
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same code, so the sentinels below work
// with errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrNotFound              = &Error{Code: CodeNotFound, Message: "resource not found"}
	ErrInsufficientStock     = &Error{Code: CodeInsufficientStock, Message: "insufficient stock"}
	ErrEmptyCart             = &Error{Code: CodeEmptyCart, Message: "cart is empty"}
	ErrDuplicateSubmission   = &Error{Code: CodeDuplicateSubmission, Message: "payment verification already submitted for this order"}
	ErrInvalidTransition     = &Error{Code: CodeInvalidTransition, Message: "invalid status transition"}
	ErrValidation            = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrDependencyUnavailable = &Error{Code: CodeDependencyUnavailable, Message: "dependency unavailable"}
	ErrUnauthorized          = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden             = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrConflict              = &Error{Code: CodeConflict, Message: "conflict"}
)

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func NewValidationError(field, message string) *Error {
	return &Error{Code: CodeValidation, Field: field, Message: message}
}

func NotFound(what string) *Error {
	return &Error{Code: CodeNotFound, Message: what + " not found"}
}

func InsufficientStock(productID string, requested, available int) *Error {
	return &Error{
		Code:    CodeInsufficientStock,
		Field:   "quantity",
		Message: fmt.Sprintf("only %d of product %s available, %d requested", available, productID, requested),
	}
}

func InvalidTransition(from, to string) *Error {
	return &Error{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("cannot move from %s to %s", from, to),
	}
}

// Unavailable wraps a storage or transport failure. Errors that already
// belong to the taxonomy pass through untouched.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return err
	}
	return &Error{Code: CodeDependencyUnavailable, Message: op + " failed", Err: err}
}

// CodeOf reports the taxonomy code of err, or "" for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HTTPStatus maps an error to the status code the API responds with.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInsufficientStock, CodeEmptyCart, CodeValidation:
		return http.StatusBadRequest
	case CodeDuplicateSubmission, CodeInvalidTransition, CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeDependencyUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the client-safe description of err.
func PublicMessage(err error) string {
	var e *Error
	if !stderrors.As(err, &e) {
		return "internal server error"
	}
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// Is and As re-export the standard helpers so callers need one import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target interface{}) bool { return stderrors.As(err, target) }
