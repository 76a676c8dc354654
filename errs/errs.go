// Package errs holds the error kinds shared by every layer and their HTTP mapping.
package errs

import (
	"errors"
	"net/http"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrAuth               = errors.New("not authorized")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrInternal           = errors.New("internal error")
)

const internalMessage = "internal server error"

// Error is a user-facing failure. Message is safe to show in an apology page.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// New returns an *Error of the given kind.
func New(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) error { return New(ErrValidation, message) }

func Auth(message string) error { return New(ErrAuth, message) }

func NotFound(message string) error { return New(ErrNotFound, message) }

// Status maps an error to the HTTP status of its apology page.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrAuth):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrInsufficientShares):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text shown to the user. Unhandled errors never leak details.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if Status(err) == http.StatusInternalServerError {
		return internalMessage
	}
	return err.Error()
}
