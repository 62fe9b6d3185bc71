package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique constraint was hit.
	ErrAlreadyExists = errors.New("already exists")
	// ErrForbidden indicates the principal may not touch the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized indicates a missing or invalid credential.
	ErrUnauthorized = errors.New("unauthorized")

	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)

// Error codes reported to clients.
const (
	CodeInvalidQuantity   = "invalid_quantity"
	CodeProductInactive   = "product_inactive"
	CodeEmptyCart         = "empty_cart"
	CodeMissingField      = "missing_field"
	CodeInvalidField      = "invalid_field"
	CodeInsufficientStock = "insufficient_stock"
	CodeInvalidTransition = "invalid_transition"
	CodeNotCancellable    = "not_cancellable"
	CodeEmailTaken        = "email_taken"
)

// Error is a caller-recoverable failure carrying a machine code.
// Kind is either ErrValidation or ErrConflict.
type Error struct {
	Kind    error
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// Validation builds a bad-input error.
func Validation(code, msg string) *Error {
	return &Error{Kind: ErrValidation, Code: code, Message: msg}
}

// Conflict builds an error for a request that is well formed but clashes with current state.
func Conflict(code, msg string) *Error {
	return &Error{Kind: ErrConflict, Code: code, Message: msg}
}

// Required reports a missing field.
func Required(field string) *Error {
	return Validation(CodeMissingField, field+" required")
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}
