// Package reporting turns suite results into reports: a JSON result tree,
// a plain text summary and a console table.
package reporting

import (
	"time"

	"github.com/acarl005/stripansi"

	"github.com/ethereum-optimism/infra/op-keyword/types"
)

// ResultSink receives the result tree of each run
type ResultSink interface {
	Consume(result *types.SuiteResult, runID string) error
	Complete(runID string) error
}

// Report is the serializable form of a run. Suite statuses and statistics are
// derived from the result tree when the report is built.
type Report struct {
	RunID         string        `json:"runId"`
	Timestamp     time.Time     `json:"timestamp"`
	Status        types.Status  `json:"status"`
	CriticalStats types.Stats   `json:"criticalStats"`
	AllStats      types.Stats   `json:"allStats"`
	Duration      time.Duration `json:"duration"`
	Suite         ReportSuite   `json:"suite"`
	FailedTests   []string      `json:"failedTests,omitempty"`
}

// ReportSuite is one suite of a report
type ReportSuite struct {
	Name          string            `json:"name"`
	LongName      string            `json:"longName"`
	Doc           string            `json:"doc,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Source        string            `json:"source,omitempty"`
	Status        types.Status      `json:"status"`
	Message       string            `json:"message,omitempty"`
	StartTime     time.Time         `json:"startTime"`
	EndTime       time.Time         `json:"endTime"`
	Duration      time.Duration     `json:"duration"`
	CriticalStats types.Stats       `json:"criticalStats"`
	AllStats      types.Stats       `json:"allStats"`
	Tests         []ReportTest      `json:"tests,omitempty"`
	Suites        []ReportSuite     `json:"suites,omitempty"`
}

// ReportTest is one test of a report
type ReportTest struct {
	Name      string        `json:"name"`
	LongName  string        `json:"longName"`
	Doc       string        `json:"doc,omitempty"`
	Tags      []string      `json:"tags,omitempty"`
	Critical  bool          `json:"critical"`
	Status    types.Status  `json:"status"`
	Message   string        `json:"message,omitempty"`
	Timeout   string        `json:"timeout,omitempty"`
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Duration  time.Duration `json:"duration"`
}

// BuildReport converts a result tree into a report
func BuildReport(result *types.SuiteResult, runID string) *Report {
	report := &Report{
		RunID:         runID,
		Timestamp:     result.StartTime,
		Status:        result.Status(),
		CriticalStats: result.CriticalStats(),
		AllStats:      result.AllStats(),
		Duration:      result.ElapsedTime(),
		Suite:         buildSuite(result),
	}
	result.VisitTests(func(t *types.TestResult) {
		if t.Status == types.StatusFail {
			report.FailedTests = append(report.FailedTests, t.LongName())
		}
	})
	return report
}

func buildSuite(s *types.SuiteResult) ReportSuite {
	suite := ReportSuite{
		Name:          s.Name,
		LongName:      s.LongName(),
		Doc:           s.Doc,
		Metadata:      s.Metadata,
		Source:        s.Source,
		Status:        s.Status(),
		Message:       cleanMessage(s.Message),
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		Duration:      s.ElapsedTime(),
		CriticalStats: s.CriticalStats(),
		AllStats:      s.AllStats(),
	}
	for _, t := range s.Tests {
		suite.Tests = append(suite.Tests, ReportTest{
			Name:      t.Name,
			LongName:  t.LongName(),
			Doc:       t.Doc,
			Tags:      t.Tags,
			Critical:  t.Critical(),
			Status:    t.Status,
			Message:   cleanMessage(t.Message),
			Timeout:   t.Timeout,
			StartTime: t.StartTime,
			EndTime:   t.EndTime,
			Duration:  t.ElapsedTime(),
		})
	}
	for _, child := range s.Suites {
		suite.Suites = append(suite.Suites, buildSuite(child))
	}
	return suite
}

// cleanMessage strips terminal colour codes that libraries may put into
// failure messages
func cleanMessage(msg string) string {
	return stripansi.Strip(msg)
}
