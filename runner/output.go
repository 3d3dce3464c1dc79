package runner

import (
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-keyword/execctx"
	"github.com/ethereum-optimism/infra/op-keyword/types"
)

// LogOutput writes execution events to a logger. Suites and tests are logged
// at info level, keywords at debug level.
type LogOutput struct {
	log log.Logger
}

var _ execctx.Output = (*LogOutput)(nil)

// NewLogOutput creates an output that logs to logger
func NewLogOutput(logger log.Logger) *LogOutput {
	return &LogOutput{log: logger}
}

func (o *LogOutput) StartSuite(suite *types.SuiteResult) {
	o.log.Info("Suite started", "suite", suite.LongName(), "tests", suite.TestCount())
}

func (o *LogOutput) EndSuite(suite *types.SuiteResult) {
	stats := suite.AllStats()
	o.log.Info("Suite ended", "suite", suite.LongName(), "status", suite.Status(),
		"passed", stats.Passed, "failed", stats.Failed, "duration", suite.ElapsedTime())
	if suite.Message != "" {
		o.log.Warn("Suite message", "suite", suite.LongName(), "message", suite.Message)
	}
}

func (o *LogOutput) StartTest(test *types.TestResult) {
	o.log.Info("Test started", "test", test.LongName())
}

func (o *LogOutput) EndTest(test *types.TestResult) {
	if test.Status == types.StatusFail {
		o.log.Warn("Test failed", "test", test.LongName(), "message", test.Message, "duration", test.ElapsedTime())
		return
	}
	o.log.Info("Test passed", "test", test.LongName(), "duration", test.ElapsedTime())
}

func (o *LogOutput) StartKeyword(name string, args []any) {
	o.log.Debug("Keyword started", "keyword", name, "args", args)
}

func (o *LogOutput) EndKeyword(name string, status types.Status, elapsed time.Duration, err error) {
	if err != nil {
		o.log.Debug("Keyword failed", "keyword", name, "duration", elapsed, "err", err)
		return
	}
	o.log.Debug("Keyword ended", "keyword", name, "status", status, "duration", elapsed)
}

// Message logs a keyword message at the level it was given
func (o *LogOutput) Message(level string, msg string) {
	switch level {
	case execctx.LevelTrace:
		o.log.Trace(msg)
	case execctx.LevelDebug:
		o.log.Debug(msg)
	case execctx.LevelWarn:
		o.log.Warn(msg)
	case execctx.LevelError:
		o.log.Error(msg)
	default:
		o.log.Info(msg)
	}
}
