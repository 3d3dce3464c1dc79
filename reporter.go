package kdt

import (
	"github.com/ethereum-optimism/infra/op-keyword/metrics"
	"github.com/ethereum-optimism/infra/op-keyword/reporting"
	"github.com/ethereum-optimism/infra/op-keyword/runner"
)

// ResultReporter publishes the result of a run
type ResultReporter interface {
	ReportResults(result *runner.RunResult) error
}

// MetricsReporter records run totals as prometheus metrics.
type MetricsReporter struct{}

// ReportResults records the statistics of the run over all tests.
func (MetricsReporter) ReportResults(result *runner.RunResult) error {
	stats := result.Suite.AllStats()
	metrics.RecordRun(
		result.RunID,
		stats.Total,
		stats.Passed,
		stats.Failed,
		result.Duration,
	)
	return nil
}

// SinkReporter hands the result tree to result sinks.
type SinkReporter struct {
	Sinks []reporting.ResultSink
}

// NewSinkReporter creates the JSON and text summary sinks writing under outputDir.
func NewSinkReporter(outputDir string) *SinkReporter {
	return &SinkReporter{Sinks: []reporting.ResultSink{
		reporting.NewJSONSink(outputDir),
		reporting.NewTextSummarySink(outputDir, true),
	}}
}

// ReportResults feeds the result to every sink and completes the run.
func (r *SinkReporter) ReportResults(result *runner.RunResult) error {
	for _, sink := range r.Sinks {
		if err := sink.Consume(result.Suite, result.RunID); err != nil {
			return err
		}
		if err := sink.Complete(result.RunID); err != nil {
			return err
		}
	}
	return nil
}
