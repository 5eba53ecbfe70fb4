package errors

import (
	"errors"
	"fmt"
)

// Kind represents the class of failure reported by the review pipeline
type Kind string

const (
	KindInput            Kind = "input"
	KindNotFound         Kind = "not_found"
	KindRateLimited      Kind = "rate_limited"
	KindTransient        Kind = "transient"
	KindUnknown          Kind = "unknown"
	KindRetriesExhausted Kind = "retries_exhausted"
)

// Error carries a Kind so callers can branch on the reason instead of the text
type Error struct {
	Kind    Kind
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Kind)
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given kind
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind around cause
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Input reports a bad caller-supplied value
func Input(format string, args ...interface{}) *Error {
	return New(KindInput, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether any *Error in err's chain carries the given kind
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsRetryable checks if an error kind should be retried
func IsRetryable(kind Kind) bool {
	switch kind {
	case KindRateLimited, KindTransient, KindUnknown:
		return true
	case KindInput, KindNotFound, KindRetriesExhausted:
		return false
	default:
		return false
	}
}

// KindForStatus maps an HTTP status code from the review source to a Kind
func KindForStatus(statusCode int) Kind {
	switch statusCode {
	case 404:
		return KindNotFound
	case 429, 403:
		return KindRateLimited
	default:
		if statusCode >= 400 || statusCode == 0 {
			return KindTransient
		}
		return KindUnknown
	}
}
