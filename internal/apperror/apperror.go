// Package apperror defines the error kinds services return to the HTTP layer.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindIntegrity
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindIntegrity:
		return "integrity"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error is a classified application error.
// Fields carries per-field validation messages keyed by JSON field name.
type Error struct {
	Kind      Kind
	Message   string
	Fields    map[string]string
	Duplicate bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports invalid input or a conflicting natural key.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Validationf is Validation with formatting.
func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

// ValidationFields reports shape errors for individual fields.
func ValidationFields(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

// ValidationField reports a problem with a single input field.
func ValidationField(field, msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: map[string]string{field: msg}}
}

// Duplicate reports a unique constraint hit that slipped past the pre-check.
func Duplicate(msg string, err error) *Error {
	return &Error{Kind: KindValidation, Message: msg, Duplicate: true, Err: err}
}

// NotFoundf reports a missing record.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Integrityf reports a delete blocked by dependent records.
func Integrityf(format string, args ...any) *Error {
	return &Error{Kind: KindIntegrity, Message: fmt.Sprintf(format, args...)}
}

// Persistence wraps a storage failure.
func Persistence(err error) *Error {
	return &Error{Kind: KindPersistence, Message: "storage operation failed", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

func IsValidation(err error) bool  { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool    { return KindOf(err) == KindNotFound }
func IsIntegrity(err error) bool   { return KindOf(err) == KindIntegrity }
func IsPersistence(err error) bool { return KindOf(err) == KindPersistence }
