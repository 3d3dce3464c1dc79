// Package types contains shared types used across the keyword execution engine
package types

import "fmt"

// Status represents the possible states of a test or suite execution
type Status string

const (
	StatusRunning Status = "RUNNING"
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
)

// String implements the Stringer interface for Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether the status is a final verdict
func (s Status) IsTerminal() bool {
	return s == StatusPass || s == StatusFail
}

// Stage identifies which part of a test or suite lifecycle produced a failure
type Stage string

const (
	StageSetup    Stage = "setup"
	StageBody     Stage = "body"
	StageTeardown Stage = "teardown"
)

// Severity classifies whether a failure can be recovered from at the test boundary
type Severity string

const (
	SeverityRecoverable Severity = "recoverable"
	SeverityFatal       Severity = "fatal"
)

// Failure records a single failing lifecycle stage
type Failure struct {
	Stage    Stage
	Message  string
	Severity Severity
}

func (f Failure) String() string {
	return fmt.Sprintf("%s failure (%s): %s", f.Stage, f.Severity, f.Message)
}

// IsFatal reports whether the failure must abort remaining sibling execution
func (f *Failure) IsFatal() bool {
	return f != nil && f.Severity == SeverityFatal
}
