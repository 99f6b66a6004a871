package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline failure. The string value is what callers
// see in the "kind" field of an error payload.
type ErrorKind string

const (
	KindAssetNotFound    ErrorKind = "AssetNotFound"
	KindPriceUnavailable ErrorKind = "PriceUnavailable"
	KindZeroOrderSize    ErrorKind = "ZeroOrderSize"
	KindEncodingError    ErrorKind = "EncodingError"
	KindSigningError     ErrorKind = "SigningError"
	KindVenueRejected    ErrorKind = "VenueRejected"
	KindInputValidation  ErrorKind = "InputValidationError"
	KindInternal         ErrorKind = "InternalError"
)

// Sentinels for errors.Is. A sentinel matches any *Error of the same kind.
var (
	ErrAssetNotFound    = &Error{Kind: KindAssetNotFound}
	ErrPriceUnavailable = &Error{Kind: KindPriceUnavailable}
	ErrZeroOrderSize    = &Error{Kind: KindZeroOrderSize}
	ErrEncoding         = &Error{Kind: KindEncodingError}
	ErrSigning          = &Error{Kind: KindSigningError}
	ErrVenueRejected    = &Error{Kind: KindVenueRejected}
	ErrInputValidation  = &Error{Kind: KindInputValidation}
)

// Error is a classified pipeline error.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

// Errorf builds a classified error. A trailing %w verb is honoured the same
// way fmt.Errorf honours it.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	wrapped := fmt.Errorf(format, args...)
	return &Error{
		Kind: kind,
		Msg:  wrapped.Error(),
		Err:  errors.Unwrap(wrapped),
	}
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the human readable message of the first *Error in err's
// chain, falling back to err.Error().
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return err.Error()
}
