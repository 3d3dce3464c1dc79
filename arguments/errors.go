package arguments

import (
	"errors"
	"fmt"
)

// ArgumentCountError is returned when a call supplies a number of arguments
// outside the [MinArgs, MaxArgs] range of the keyword's spec.
type ArgumentCountError struct {
	Keyword string
	Min     int
	Max     int
	Got     int
}

func (e *ArgumentCountError) Error() string {
	name := e.Keyword
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("Keyword '%s' expected %s, got %d.", name, expectedCount(e.Min, e.Max), e.Got)
}

func expectedCount(min, max int) string {
	switch {
	case max == Unbounded:
		return fmt.Sprintf("at least %d %s", min, plural(min))
	case min == max:
		return fmt.Sprintf("%d %s", min, plural(min))
	default:
		return fmt.Sprintf("%d to %d arguments", min, max)
	}
}

func plural(n int) string {
	if n == 1 {
		return "argument"
	}
	return "arguments"
}

// ArgumentSpecError is returned when a signature source cannot be normalized
// into an ArgumentSpec, e.g. a mandatory argument after an optional one.
type ArgumentSpecError struct {
	Reason string
}

func (e *ArgumentSpecError) Error() string {
	return fmt.Sprintf("Invalid argument specification: %s", e.Reason)
}

func specErrorf(format string, args ...any) *ArgumentSpecError {
	return &ArgumentSpecError{Reason: fmt.Sprintf(format, args...)}
}

// DuplicateNamedArgumentError is returned when the same named argument is given twice
type DuplicateNamedArgumentError struct {
	Name string
}

func (e *DuplicateNamedArgumentError) Error() string {
	return fmt.Sprintf("Keyword argument %s repeated.", e.Name)
}

// MissingArgumentError is returned when a mandatory user keyword argument
// that was never bound is read.
type MissingArgumentError struct {
	Name string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("Mandatory argument '%s' was accessed before it was set.", e.Name)
}

// IsResolutionError reports whether err was raised while building or resolving arguments.
// These errors are reported like ordinary keyword failures.
func IsResolutionError(err error) bool {
	var countErr *ArgumentCountError
	var specErr *ArgumentSpecError
	var dupErr *DuplicateNamedArgumentError
	return errors.As(err, &countErr) || errors.As(err, &specErr) || errors.As(err, &dupErr)
}

// IsMissingArgument reports whether err is or wraps a MissingArgumentError
func IsMissingArgument(err error) bool {
	var missing *MissingArgumentError
	return errors.As(err, &missing)
}
