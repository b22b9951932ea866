package helper

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested article or entity does not exist in the graph.
	ErrNotFound = errors.New("not found")
	// ErrUnresolvedEntityReference marks a relationship whose endpoint could not be mapped to a stored entity.
	ErrUnresolvedEntityReference = errors.New("unresolved entity reference")
	// ErrStoreUnavailable is returned when the graph store cannot be reached or a transaction fails to commit.
	ErrStoreUnavailable = errors.New("graph store unavailable")
	// ErrMalformedRelationType is returned when a relation phrase normalizes to an empty identifier.
	ErrMalformedRelationType = errors.New("malformed relation type")
)

// Error wraps an error with the operation trace it occurred in.
type Error struct {
	Original error
	Trace    []string
}

// NewError wraps err with a trace element. Wrapping an *Error again prepends the trace
// so the outermost operation comes first.
func NewError(trace string, err error) error {
	if err == nil {
		return nil
	}

	if e, ok := err.(*Error); ok {
		return &Error{
			Original: e.Original,
			Trace:    append([]string{trace}, e.Trace...),
		}
	}

	return &Error{
		Original: err,
		Trace:    []string{trace},
	}
}

func (e *Error) Error() string {
	msg := ""
	for _, t := range e.Trace {
		msg += t + ": "
	}
	return fmt.Sprintf("%s%v", msg, e.Original)
}

func (e *Error) Unwrap() error {
	return e.Original
}
