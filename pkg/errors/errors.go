package errors

import (
	stdErrors "errors"
	"fmt"
)

// Error is the typed error every layer returns. Handlers render it through
// its Code; anything else reaching a handler is an internal error.
type Error struct {
	code    Code
	reason  Reason
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Kind declares a sentinel. errors.Is matches any copy of it (WithDetails,
// WithCause, or wrapped further) by code and reason.
func Kind(code Code, reason Reason, message string) *Error {
	return &Error{code: code, reason: reason, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

// As finds the outermost *Error in err's chain.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Reason() Reason {
	if e == nil {
		return ""
	}
	return e.reason
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	return e.clone(func(cp *Error) { cp.details = details })
}

func (e *Error) WithCause(cause error) *Error {
	return e.clone(func(cp *Error) { cp.cause = cause })
}

// clone leaves the receiver untouched so package-level sentinels stay shared.
func (e *Error) clone(edit func(*Error)) *Error {
	if e == nil {
		return nil
	}
	cp := *e
	edit(&cp)
	return &cp
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.reason == "":
		return fmt.Sprintf("%s: %s", e.code, e.message)
	}
	return fmt.Sprintf("%s/%s: %s", e.code, e.reason, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is reports whether target is a sentinel from Kind with the same code and
// reason. Reasonless errors never match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil || t.reason == "" {
		return false
	}
	return e.code == t.code && e.reason == t.reason
}
