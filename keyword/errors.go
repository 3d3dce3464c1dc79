package keyword

import (
	"errors"
	"fmt"

	"github.com/ethereum-optimism/infra/op-keyword/arguments"
	"github.com/ethereum-optimism/infra/op-keyword/types"
)

// AssertionError is an expected failure raised by a keyword, such as a failed verification
type AssertionError struct {
	Message string
}

func (e *AssertionError) Error() string {
	return e.Message
}

// Fail returns an AssertionError with a formatted message
func Fail(format string, args ...any) error {
	return &AssertionError{Message: fmt.Sprintf(format, args...)}
}

// FrameworkError is a failure that stops the whole run. It is raised for
// violated execution invariants and for keywords that request a fatal stop.
type FrameworkError struct {
	Message string
	Err     error
}

func (e *FrameworkError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *FrameworkError) Unwrap() error {
	return e.Err
}

// Fatal returns a FrameworkError with a formatted message
func Fatal(format string, args ...any) error {
	return &FrameworkError{Message: fmt.Sprintf(format, args...)}
}

// Classify returns the severity of a keyword error. Framework errors and reads of
// unbound mandatory arguments are fatal; everything else is recoverable.
func Classify(err error) types.Severity {
	var fwErr *FrameworkError
	var failed *ExecutionFailed
	switch {
	case errors.As(err, &failed):
		return failed.Severity
	case errors.As(err, &fwErr), arguments.IsMissingArgument(err):
		return types.SeverityFatal
	default:
		return types.SeverityRecoverable
	}
}

// IsFatal reports whether err stops the whole run
func IsFatal(err error) bool {
	return Classify(err) == types.SeverityFatal
}

// IsAssertion reports whether err is an expected failure
func IsAssertion(err error) bool {
	var assertErr *AssertionError
	return errors.As(err, &assertErr)
}

// ExecutionFailed carries a keyword failure up through nested keywords with its
// severity already decided. Errors collects the failures of a keyword teardown
// or of a body that continued past failures.
type ExecutionFailed struct {
	Message  string
	Severity types.Severity
	Err      error
}

func (e *ExecutionFailed) Error() string {
	return e.Message
}

func (e *ExecutionFailed) Unwrap() error {
	return e.Err
}

// NewExecutionFailed wraps err with its classified severity. An error that
// already is an ExecutionFailed is returned as is.
func NewExecutionFailed(err error) *ExecutionFailed {
	var failed *ExecutionFailed
	if errors.As(err, &failed) {
		return failed
	}
	return &ExecutionFailed{Message: Message(err), Severity: Classify(err), Err: err}
}

// Message returns the failure message reported for err
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if msg == "" {
		return fmt.Sprintf("%T", err)
	}
	return msg
}

// Failure converts err to a stage failure record
func Failure(stage types.Stage, err error) *types.Failure {
	if err == nil {
		return nil
	}
	return &types.Failure{Stage: stage, Message: Message(err), Severity: Classify(err)}
}
