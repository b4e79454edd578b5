package search

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind categorizes search failures.
type ErrorKind string

const (
	// ErrConfiguration indicates missing or invalid options.
	ErrConfiguration ErrorKind = "CONFIGURATION_ERROR"

	// ErrSourceUnavailable indicates a database could not be opened or read.
	ErrSourceUnavailable ErrorKind = "SOURCE_UNAVAILABLE"

	// ErrMalformedRecord indicates a database record could not be decoded.
	ErrMalformedRecord ErrorKind = "MALFORMED_RECORD"

	// ErrInternalInvariant indicates the engine reached a state it cannot
	// continue from, e.g. a rewrite that needs more than ir.NDim slots.
	ErrInternalInvariant ErrorKind = "INTERNAL_INVARIANT_VIOLATION"

	// ErrCancelled indicates the caller or a confirmation aborted the search.
	ErrCancelled ErrorKind = "CANCELLED"
)

// Error is the single error type returned by Search. All kinds are fatal:
// a search that returns an *Error returns no result.
type Error struct {
	// Kind identifies the error category.
	Kind ErrorKind

	// Message is a human-readable description.
	Message string

	// File is the database involved, if any.
	File string

	// Ordinal is the 1-based record number within File, if known.
	Ordinal int

	// Offset is the byte offset within File, if known.
	Offset int64

	// Names lists the species involved, e.g. the record and component of a
	// failed rewrite.
	Names []string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	if e.File != "" {
		if e.Ordinal > 0 {
			fmt.Fprintf(&b, " (file=%s, record=%d, offset=%d)", e.File, e.Ordinal, e.Offset)
		} else {
			fmt.Fprintf(&b, " (file=%s)", e.File)
		}
	}
	if len(e.Names) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Names, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a search error, or "" if err is not one.
// Uses errors.As to handle wrapped errors.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// IsCancelled returns true if the search was cancelled.
func IsCancelled(err error) bool {
	return KindOf(err) == ErrCancelled
}

// IsConfigurationError returns true if the options were rejected.
func IsConfigurationError(err error) bool {
	return KindOf(err) == ErrConfiguration
}

// IsInternalInvariant returns true if the engine hit an unrecoverable state.
func IsInternalInvariant(err error) bool {
	return KindOf(err) == ErrInternalInvariant
}

func configError(format string, args ...any) *Error {
	return &Error{Kind: ErrConfiguration, Message: fmt.Sprintf(format, args...)}
}

func cancelled(message string, cause error) *Error {
	return &Error{Kind: ErrCancelled, Message: message, Err: cause}
}
