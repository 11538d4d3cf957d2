// Package errors provides sentinel errors for the ocelot CLI.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for known conditions.
var (
	// ErrConfigNotFound indicates the distributions file (or another required
	// configuration file) could not be located.
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrConfigMalformed indicates a configuration file parsed but did not
	// have the expected shape.
	ErrConfigMalformed = errors.New("configuration malformed")

	// ErrCircularDependency indicates a distribution base chain revisits a
	// distribution that is already being resolved.
	ErrCircularDependency = errors.New("circular dependency")

	// ErrNotFound indicates a distribution, layer, or record was not found.
	ErrNotFound = errors.New("not found")

	// ErrAWS indicates an AWS API call failed.
	ErrAWS = errors.New("aws error")
)

// Wrap wraps an error with a sentinel error type.
func Wrap(sentinel error, message string) error {
	return fmt.Errorf("%s: %w", message, sentinel)
}

// Wrapf wraps an error with a sentinel error type and a formatted message.
func Wrapf(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
}
