package llm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies model-call failures so callers can translate them
// into user-visible messages without inspecting provider internals.
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindRateLimited
	KindUnreachable
	KindTimedOut
	KindUpstreamError
)

// Error wraps a provider failure with its classification.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("llm: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate limited"
	case KindUnreachable:
		return "unreachable"
	case KindTimedOut:
		return "timed out"
	case KindUpstreamError:
		return "upstream error"
	default:
		return "unexpected"
	}
}

// KindOf extracts the classification from err, defaulting to KindUnexpected.
func KindOf(err error) ErrorKind {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Kind
	}
	return KindUnexpected
}
