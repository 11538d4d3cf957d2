package errors

import "errors"

// Exit codes for the ocelot CLI.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitConfigError indicates the distributions or dependency configuration
	// is missing, malformed, or contains a circular base chain.
	ExitConfigError = 2

	// ExitAWSError indicates an AWS API call failed.
	ExitAWSError = 3

	// ExitNotFound indicates a distribution, layer, or artifact was not found.
	ExitNotFound = 4
)

// ExitError carries an exit code through the command layer to main.
type ExitError struct {
	// Code is the process exit code.
	Code int

	// Err is the underlying error.
	Err error

	// Printed reports whether the command layer already printed the error.
	Printed bool
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit error"
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCodeFor maps sentinel errors to exit codes.
func ExitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrConfigNotFound),
		errors.Is(err, ErrConfigMalformed),
		errors.Is(err, ErrCircularDependency):
		return ExitConfigError
	case errors.Is(err, ErrNotFound):
		return ExitNotFound
	case errors.Is(err, ErrAWS):
		return ExitAWSError
	default:
		return ExitGeneralError
	}
}
