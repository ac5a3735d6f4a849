package domain

import "errors"

// Error kinds. Handlers map them to HTTP status codes.
var (
	ErrInvalid   = errors.New("invalid input")
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrForbidden = errors.New("forbidden")
	// ErrRule is a business rule violation on otherwise valid input.
	ErrRule = errors.New("business rule violation")
)

// Error carries a kind and an i18n message key.
type Error struct {
	Kind  error
	Key   string
	Field string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return e.Kind.Error() + ": " + e.Field + ": " + e.Key
	}
	return e.Kind.Error() + ": " + e.Key
}

func (e *Error) Unwrap() error { return e.Kind }

func NewError(kind error, key string) *Error {
	return &Error{Kind: kind, Key: key}
}

// Invalid reports a validation failure on a request field.
func Invalid(field, key string) *Error {
	return &Error{Kind: ErrInvalid, Key: key, Field: field}
}
