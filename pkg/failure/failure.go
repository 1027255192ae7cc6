// Package failure defines the error taxonomy shared by the extraction,
// restoration and session layers.
//
// Every failure is one of four kinds:
//
// - ErrInvalidInput: the page image is missing or too small. Local, never retried.
// - ErrExtractionFailed: the text-structure service was unreachable or returned nothing.
// - ErrRestorationRefused: the restoration service returned no image.
// - ErrAuthorizationRequired: the service reported a billing/authorization problem.
//
// Callers test for a kind with errors.Is; the concrete *Error also carries the
// page number and the underlying cause.
package failure

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrExtractionFailed      = errors.New("extraction failed")
	ErrRestorationRefused    = errors.New("restoration refused")
	ErrAuthorizationRequired = errors.New("authorization required")
)

// Error is a classified failure for one page.
type Error struct {
	Kind error // One of the Err* kinds above
	Page int   // 1-based page number, 0 when unknown
	Err  error // Underlying cause, may be nil
}

// New wraps err as a failure of the given kind.
func New(kind error, page int, err error) *Error {
	return &Error{Kind: kind, Page: page, Err: err}
}

func (e *Error) Error() string {
	var b []byte
	if e.Page > 0 {
		b = fmt.Appendf(b, "page %d: ", e.Page)
	}
	b = append(b, e.Kind.Error()...)
	if e.Err != nil {
		b = fmt.Appendf(b, ": %v", e.Err)
	}
	return string(b)
}

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err, or nil if err is not classified.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrAuthorizationRequired,
		ErrInvalidInput,
		ErrRestorationRefused,
		ErrExtractionFailed,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Retryable reports whether an operation that failed with err may be
// re-invoked for the same page.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrInvalidInput)
}
