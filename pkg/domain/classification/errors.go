package classification

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindAcquisition       ErrorKind = "acquisition"
	KindTransport         ErrorKind = "transport"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindSchemaParse       ErrorKind = "schema_parse"
)

// Error is the terminal failure of a classification step. Every kind is final:
// callers never retry or fall back to a partial result.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

var (
	ErrAcquisition       = &Error{Kind: KindAcquisition}
	ErrTransport         = &Error{Kind: KindTransport}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
	ErrSchemaParse       = &Error{Kind: KindSchemaParse}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the bare sentinels (ErrTransport, ...) by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message != "" || t.Err != nil {
		return t == e
	}
	return t.Kind == e.Kind
}

func NewAcquisitionError(message string, err error) error {
	return &Error{Kind: KindAcquisition, Message: message, Err: err}
}

func NewTransportError(message string, err error) error {
	return &Error{Kind: KindTransport, Message: message, Err: err}
}

func NewMalformedResponseError(message string) error {
	return &Error{Kind: KindMalformedResponse, Message: message}
}

func NewSchemaParseError(message string, err error) error {
	return &Error{Kind: KindSchemaParse, Message: message, Err: err}
}

// KindOf reports the kind of a classification error, or "" if err is not one.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
