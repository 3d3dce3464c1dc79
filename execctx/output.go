package execctx

import (
	"time"

	"github.com/ethereum-optimism/infra/op-keyword/types"
)

// Message levels accepted by Output.Message
const (
	LevelTrace = "TRACE"
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Output receives execution events as they happen
type Output interface {
	StartSuite(suite *types.SuiteResult)
	EndSuite(suite *types.SuiteResult)
	StartTest(test *types.TestResult)
	EndTest(test *types.TestResult)
	StartKeyword(name string, args []any)
	EndKeyword(name string, status types.Status, elapsed time.Duration, err error)
	Message(level string, msg string)
}

// NopOutput discards all events
type NopOutput struct{}

func (NopOutput) StartSuite(*types.SuiteResult) {}
func (NopOutput) EndSuite(*types.SuiteResult) {}
func (NopOutput) StartTest(*types.TestResult) {}
func (NopOutput) EndTest(*types.TestResult) {}
func (NopOutput) StartKeyword(string, []any) {}
func (NopOutput) EndKeyword(string, types.Status, time.Duration, error) {}
func (NopOutput) Message(string, string) {}
