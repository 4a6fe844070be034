package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/sendhttp/packages/http"
)

// Exit codes for sendhttp CLI
const (
	// ExitSuccess indicates every request produced a response
	ExitSuccess = 0

	// ExitFailure is used for errors that have no more specific code
	ExitFailure = 1

	// ExitParseError indicates a request document or payload could not be read
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a request failed on the network
	ExitNetworkError = 4

	// ExitRequestError indicates an invalid method, transport configuration or body
	ExitRequestError = 5

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// exitCodeFor maps an error onto the exit code the process should use.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	if kind, ok := http.KindOf(err); ok {
		return exitCodeForKind(kind)
	}
	return ExitFailure
}

func exitCodeForKind(kind http.ErrorKind) int {
	switch kind {
	case http.RequestFailed:
		return ExitNetworkError
	case http.InvalidMethod, http.TransportConfigError, http.BodyDecodeError:
		return ExitRequestError
	default:
		return ExitFailure
	}
}
