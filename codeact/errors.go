package codeact

import (
	"errors"
	"fmt"
)

var (
	// ErrNoUserMessage is returned by AnnotateTurnBudget when the message
	// sequence contains no user message. It indicates a caller bug.
	ErrNoUserMessage = errors.New("no user message to annotate")

	// ErrMalformedTag means a required editor sub-tag is absent or its
	// value cannot be read.
	ErrMalformedTag = errors.New("malformed editor tag")

	// ErrUnknownOperation means the editor operation is not recognized.
	ErrUnknownOperation = errors.New("unknown editor operation")

	// ErrInvalidRange means an update range violates start <= stop.
	ErrInvalidRange = errors.New("invalid line range")
)

// TagError describes why an editor payload could not be parsed.
type TagError struct {
	Tag    string
	Reason string
	Err    error
}

func (e *TagError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Reason)
	}
	return fmt.Sprintf("%v <%s>: %s", e.Err, e.Tag, e.Reason)
}

func (e *TagError) Unwrap() error {
	return e.Err
}
