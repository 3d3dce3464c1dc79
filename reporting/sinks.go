package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/op-keyword/types"
)

const (
	// JSONFilename is the name of the result tree written by JSONSink
	JSONFilename = "output.json"
	// SummaryFilename is the name of the summary written by TextSummarySink
	SummaryFilename = "summary.log"
)

// RunDir returns the directory the reports of a run are written to
func RunDir(baseDir, runID string) string {
	return filepath.Join(baseDir, "testrun-"+runID)
}

// reports collects the reports of runs until they are completed
type reports map[string]*Report

func (r reports) take(runID string) (*Report, error) {
	report, ok := r[runID]
	if !ok {
		return nil, fmt.Errorf("no results consumed for run %s", runID)
	}
	delete(r, runID)
	return report, nil
}

func writeRunFile(baseDir, runID, name string, content []byte) error {
	outputDir := RunDir(baseDir, runID)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}
	path := filepath.Join(outputDir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// JSONSink writes the result tree of a run as JSON
type JSONSink struct {
	baseDir string
	reports reports
}

var _ ResultSink = (*JSONSink)(nil)

// NewJSONSink creates a sink writing under baseDir
func NewJSONSink(baseDir string) *JSONSink {
	return &JSONSink{baseDir: baseDir, reports: make(reports)}
}

// Consume builds the report of a run
func (s *JSONSink) Consume(result *types.SuiteResult, runID string) error {
	s.reports[runID] = BuildReport(result, runID)
	return nil
}

// Complete writes the report of a run to output.json
func (s *JSONSink) Complete(runID string) error {
	report, err := s.reports.take(runID)
	if err != nil {
		return err
	}
	content, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return writeRunFile(s.baseDir, runID, JSONFilename, content)
}

// TextSummarySink writes a plain text summary of a run
type TextSummarySink struct {
	baseDir        string
	includeDetails bool
	reports        reports
}

var _ ResultSink = (*TextSummarySink)(nil)

// NewTextSummarySink creates a sink writing under baseDir. With includeDetails
// every suite and test is listed, not only the failures.
func NewTextSummarySink(baseDir string, includeDetails bool) *TextSummarySink {
	return &TextSummarySink{baseDir: baseDir, includeDetails: includeDetails, reports: make(reports)}
}

// Consume builds the report of a run
func (s *TextSummarySink) Consume(result *types.SuiteResult, runID string) error {
	s.reports[runID] = BuildReport(result, runID)
	return nil
}

// Complete writes the summary of a run to summary.log
func (s *TextSummarySink) Complete(runID string) error {
	report, err := s.reports.take(runID)
	if err != nil {
		return err
	}
	return writeRunFile(s.baseDir, runID, SummaryFilename, []byte(FormatSummary(report, s.includeDetails)))
}

// FormatSummary renders a report as plain text
func FormatSummary(report *Report, includeDetails bool) string {
	var summary strings.Builder

	fmt.Fprintf(&summary, "TEST SUMMARY\n")
	fmt.Fprintf(&summary, "============\n")
	fmt.Fprintf(&summary, "Run ID: %s\n", report.RunID)
	fmt.Fprintf(&summary, "Suite: %s\n", report.Suite.Name)
	fmt.Fprintf(&summary, "Time: %s\n", report.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&summary, "Duration: %s\n", formatDuration(report.Duration))
	fmt.Fprintf(&summary, "Status: %s\n\n", report.Status)

	fmt.Fprintf(&summary, "Critical tests: %d, %d passed, %d failed\n",
		report.CriticalStats.Total, report.CriticalStats.Passed, report.CriticalStats.Failed)
	fmt.Fprintf(&summary, "All tests:      %d, %d passed, %d failed\n\n",
		report.AllStats.Total, report.AllStats.Passed, report.AllStats.Failed)

	if len(report.FailedTests) > 0 {
		fmt.Fprintf(&summary, "Failed tests:\n")
		for _, name := range report.FailedTests {
			fmt.Fprintf(&summary, "  - %s\n", name)
		}
		fmt.Fprintf(&summary, "\n")
	}

	if includeDetails {
		fmt.Fprintf(&summary, "DETAILED RESULTS:\n")
		fmt.Fprintf(&summary, "=================\n")
		writeSuiteDetails(&summary, report.Suite, 0)
	}
	return summary.String()
}

func writeSuiteDetails(b *strings.Builder, suite ReportSuite, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%sSuite: %s (%s) [%s]\n", indent, suite.Name, formatDuration(suite.Duration), suite.Status)
	if suite.Message != "" {
		fmt.Fprintf(b, "%s  %s\n", indent, indentLines(suite.Message, indent+"  "))
	}
	for _, test := range suite.Tests {
		label := string(test.Status)
		if !test.Critical {
			label += ", non-critical"
		}
		fmt.Fprintf(b, "%s  - %s (%s) [%s]\n", indent, test.Name, formatDuration(test.Duration), label)
		if test.Message != "" {
			fmt.Fprintf(b, "%s    %s\n", indent, indentLines(test.Message, indent+"    "))
		}
	}
	for _, child := range suite.Suites {
		writeSuiteDetails(b, child, depth+1)
	}
}

func indentLines(msg, indent string) string {
	return strings.ReplaceAll(msg, "\n", "\n"+indent)
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}
