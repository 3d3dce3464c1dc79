package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/op-keyword/keyword"
	"github.com/ethereum-optimism/infra/op-keyword/library"
	"github.com/ethereum-optimism/infra/op-keyword/variables"
)

// TimeoutError is the failure of a test whose timeout expired
type TimeoutError struct {
	Timeout string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Test timeout %s exceeded.", e.Timeout)
}

// ErrCancelled is the failure of keywords started after the run was cancelled
var ErrCancelled = &keyword.AssertionError{Message: "Execution cancelled."}

// TestTimeout is a cooperative test timeout. It is armed with Start and is
// never enforced by interrupting a keyword: keyword dispatch checks the
// context before every keyword and keywords that block receive the deadline.
type TestTimeout struct {
	value    string
	duration time.Duration
}

// NewTestTimeout parses a timeout setting after variable substitution.
// An empty or "NONE" value disables the timeout.
func NewTestTimeout(value string, vars *variables.Variables) (*TestTimeout, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "NONE") {
		return &TestTimeout{}, nil
	}
	replaced, err := vars.ReplaceString(value)
	if err != nil {
		return nil, fmt.Errorf("Setting test timeout failed: %w", err)
	}
	d, err := library.ParseDuration(replaced)
	if err != nil {
		return nil, fmt.Errorf("Setting test timeout failed: %w", err)
	}
	if d <= 0 {
		return &TestTimeout{}, nil
	}
	return &TestTimeout{value: replaced, duration: d}, nil
}

// Active reports whether the timeout limits anything
func (t *TestTimeout) Active() bool {
	return t != nil && t.duration > 0
}

// String returns the timeout as it was given
func (t *TestTimeout) String() string {
	if !t.Active() {
		return ""
	}
	return t.value
}

// Start arms the timeout. The returned context expires with a TimeoutError
// as its cause; cancel must be called when the test body is finished.
func (t *TestTimeout) Start(ctx context.Context) (context.Context, context.CancelFunc) {
	if !t.Active() {
		return context.WithCancel(ctx)
	}
	return context.WithDeadlineCause(ctx, time.Now().Add(t.duration), &TimeoutError{Timeout: t.value})
}

// checkpoint returns the failure a keyword about to start must report when
// its context is done: the test timeout, or cancellation of the run.
func checkpoint(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}
	cause := context.Cause(ctx)
	var timeout *TimeoutError
	if errors.As(cause, &timeout) {
		return timeout
	}
	return ErrCancelled
}
