package http

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a call failed. Every kind is terminal.
type ErrorKind int

const (
	// InvalidMethod means the method text is not a valid HTTP token
	InvalidMethod ErrorKind = iota + 1
	// TransportConfigError means the per-call client could not be built
	TransportConfigError
	// RequestFailed means the request never produced a response
	RequestFailed
	// BodyDecodeError means the response payload could not be read as text
	BodyDecodeError
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidMethod:
		return "InvalidMethod"
	case TransportConfigError:
		return "TransportConfigError"
	case RequestFailed:
		return "RequestFailed"
	case BodyDecodeError:
		return "BodyDecodeError"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

func (k ErrorKind) prefix() string {
	switch k {
	case InvalidMethod:
		return "invalid method"
	case TransportConfigError:
		return "client build failed"
	case RequestFailed:
		return "request failed"
	case BodyDecodeError:
		return "read body failed"
	default:
		return "error"
	}
}

// Error is returned by Executor.Execute for every failed call.
type Error struct {
	Kind ErrorKind
	Err  error
}

func newError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.prefix()
	}
	return e.Kind.prefix() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so callers can
// write errors.Is(err, &http.Error{Kind: http.RequestFailed}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Err == nil
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
