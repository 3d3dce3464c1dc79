package runner

import (
	"fmt"
	"strings"

	"github.com/ethereum-optimism/infra/op-keyword/keyword"
	"github.com/ethereum-optimism/infra/op-keyword/types"
)

const (
	fatalErrorMessage    = "Test execution stopped due to a fatal error."
	exitOnFailureMessage = "Critical failure occurred and exit-on-failure mode is in use."
)

// TestFailures aggregates the failures of a test's setup, body and teardown
// into one verdict and message.
type TestFailures struct {
	Setup    *types.Failure
	Body     *types.Failure
	Teardown *types.Failure
}

// Record stores err as the failure of stage. A nil err records nothing.
func (f *TestFailures) Record(stage types.Stage, err error) {
	failure := keyword.Failure(stage, err)
	if failure == nil {
		return
	}
	switch stage {
	case types.StageSetup:
		f.Setup = failure
	case types.StageBody:
		f.Body = failure
	case types.StageTeardown:
		f.Teardown = failure
	}
}

// RunAllowed reports whether the body may run, i.e. the setup passed
func (f *TestFailures) RunAllowed() bool {
	return f.Setup == nil
}

// Failed reports whether any stage failed
func (f *TestFailures) Failed() bool {
	return f.Setup != nil || f.Body != nil || f.Teardown != nil
}

// Fatal reports whether any stage failed with a fatal failure
func (f *TestFailures) Fatal() bool {
	return f.Setup.IsFatal() || f.Body.IsFatal() || f.Teardown.IsFatal()
}

// Status returns FAIL if any stage failed, PASS otherwise
func (f *TestFailures) Status() types.Status {
	if f.Failed() {
		return types.StatusFail
	}
	return types.StatusPass
}

// Message returns the test message. The setup failure is the primary message;
// body and teardown failures are kept after it in that order.
func (f *TestFailures) Message() string {
	var primary []string
	if f.Setup != nil {
		primary = append(primary, f.Setup.Message)
	}
	if f.Body != nil {
		if f.Setup != nil {
			primary = append(primary, "Also test body failed:\n"+f.Body.Message)
		} else {
			primary = append(primary, f.Body.Message)
		}
	}
	if f.Teardown == nil {
		return strings.Join(primary, "\n\n")
	}
	if len(primary) == 0 {
		return "Teardown failed:\n" + f.Teardown.Message
	}
	return strings.Join(primary, "\n\n") + "\n\nAlso teardown failed:\n" + f.Teardown.Message
}

// suiteStatus tracks what the tests and child suites of a running suite are
// still allowed to do.
type suiteStatus struct {
	parent *suiteStatus
	run    *runStatus

	setupFailure string
	started      bool
}

// runStatus is shared by every suite of one run
type runStatus struct {
	exitOnFailure  bool
	fatal          bool
	criticalFailed bool
}

func newSuiteStatus(parent *suiteStatus, run *runStatus) *suiteStatus {
	return &suiteStatus{parent: parent, run: run}
}

// blocked returns the message of tests that must not run and whether they
// are blocked: a suite setup above them failed, a fatal failure occurred, or
// a critical test failed in exit-on-failure mode.
func (s *suiteStatus) blocked() (string, bool) {
	for st := s; st != nil; st = st.parent {
		if st.setupFailure != "" {
			return "Parent suite setup failed:\n" + st.setupFailure, true
		}
	}
	if s.run.fatal {
		return fatalErrorMessage, true
	}
	if s.run.exitOnFailure && s.run.criticalFailed {
		return exitOnFailureMessage, true
	}
	return "", false
}

// setupBlocked reports whether the suite's own setup must be skipped
func (s *suiteStatus) setupBlocked() bool {
	if s.parent != nil {
		_, blocked := s.parent.blocked()
		return blocked
	}
	return s.run.fatal || (s.run.exitOnFailure && s.run.criticalFailed)
}

// testEnded updates the run state with a finished test
func (s *suiteStatus) testEnded(test *types.TestResult, failures *TestFailures) {
	if failures != nil && failures.Fatal() {
		s.run.fatal = true
	}
	if test.Status == types.StatusFail && test.Critical() {
		s.run.criticalFailed = true
	}
}

// suiteTeardownFailed fails every test of suite, including nested suites,
// because the suite's teardown failed.
func suiteTeardownFailed(suite *types.SuiteResult, message string) {
	if suite.Message == "" {
		suite.Message = "Suite teardown failed:\n" + message
	} else {
		suite.Message += "\n\nAlso suite teardown failed:\n" + message
	}
	suite.VisitTests(func(test *types.TestResult) {
		test.Status = types.StatusFail
		if test.Message == "" {
			test.Message = "Parent suite teardown failed:\n" + message
			return
		}
		test.Message += "\n\nAlso parent suite teardown failed:\n" + message
	})
}

// combineFailures joins the failures of a body that continued past failures,
// as teardowns do. The result is fatal if any failure was.
func combineFailures(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return keyword.NewExecutionFailed(errs[0])
	}
	severity := types.SeverityRecoverable
	var b strings.Builder
	b.WriteString("Several failures occurred:")
	for i, err := range errs {
		fmt.Fprintf(&b, "\n\n%d) %s", i+1, keyword.Message(err))
		if keyword.IsFatal(err) {
			severity = types.SeverityFatal
		}
	}
	return &keyword.ExecutionFailed{Message: b.String(), Severity: severity, Err: errs[0]}
}

// withKeywordTeardown combines a user keyword's failure with the failure of
// its teardown.
func withKeywordTeardown(bodyErr, teardownErr error) error {
	if teardownErr == nil {
		return bodyErr
	}
	severity := keyword.Classify(teardownErr)
	if bodyErr == nil {
		return &keyword.ExecutionFailed{
			Message:  "Keyword teardown failed:\n" + keyword.Message(teardownErr),
			Severity: severity,
			Err:      teardownErr,
		}
	}
	if keyword.IsFatal(bodyErr) {
		severity = types.SeverityFatal
	}
	return &keyword.ExecutionFailed{
		Message:  keyword.Message(bodyErr) + "\n\nAlso keyword teardown failed:\n" + keyword.Message(teardownErr),
		Severity: severity,
		Err:      bodyErr,
	}
}
