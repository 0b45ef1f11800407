package vision

import (
	"errors"
	"fmt"
)

// Kind classifies an operation error for the JSON error document.
type Kind string

const (
	KindInput     Kind = "input"
	KindDecode    Kind = "decode"
	KindInference Kind = "inference"
	KindWrite     Kind = "write"
	KindInternal  Kind = "internal"
)

// Error is the structured failure every operation returns instead of
// crashing. The CLIs and the server render it as a JSON error object.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind carried by err, or KindInternal for errors that
// escaped the structured paths.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ErrorDoc is the serialized form of a failed operation.
type ErrorDoc struct {
	Error string `json:"error"`
	Kind  Kind   `json:"kind"`
}

func DocFor(err error) ErrorDoc {
	return ErrorDoc{Error: err.Error(), Kind: KindOf(err)}
}
