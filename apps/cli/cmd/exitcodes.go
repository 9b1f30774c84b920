package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/easyhttp/packages/http"
)

// Exit codes for easyhttp CLI
const (
	// ExitSuccess indicates the request was accepted
	ExitSuccess = 0

	// ExitStatusFailure indicates a response status that was not accepted
	ExitStatusFailure = 1

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries an exit code for an error that has already been reported
type exitError struct {
	code int
	err  error

	// reported is set once the error was written by an output formatter
	reported bool
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func usageError(err error) error {
	return &exitError{code: ExitUsageError, err: err}
}

func reportedError(err error) error {
	return &exitError{code: exitCodeFor(err), err: err, reported: true}
}

// exitCodeFor maps an execution error to an exit code
func exitCodeFor(err error) int {
	var ee *exitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ee):
		return ee.code
	case errors.Is(err, http.ErrUnexpectedStatus):
		return ExitStatusFailure
	case errors.Is(err, http.ErrConfiguration):
		return ExitConfigError
	default:
		return ExitNetworkError
	}
}
