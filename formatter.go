package kdt

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/op-keyword/reporting"
	"github.com/ethereum-optimism/infra/op-keyword/runner"
	"github.com/ethereum-optimism/infra/op-keyword/types"
	"github.com/ethereum-optimism/infra/op-keyword/ui"
)

// ResultFormatter is responsible for formatting and displaying test results.
type ResultFormatter interface {
	FormatResults(result *runner.RunResult) error
}

// ConsoleResultFormatter prints a run as a table
type ConsoleResultFormatter struct {
	logger log.Logger
	out    io.Writer
}

// NewConsoleResultFormatter creates a formatter writing to out.
func NewConsoleResultFormatter(logger log.Logger, out io.Writer) *ConsoleResultFormatter {
	return &ConsoleResultFormatter{
		logger: logger,
		out:    out,
	}
}

// FormatResults prints one row per suite and test, followed by the totals.
func (f *ConsoleResultFormatter) FormatResults(result *runner.RunResult) error {
	f.logger.Debug("Printing results...")
	report := reporting.BuildReport(result.Suite, result.RunID)

	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.SetTitle(fmt.Sprintf("Keyword Test Results (%s)", formatDuration(result.Duration)))
	t.AppendHeader(table.Row{
		"Type", "Name", "Duration", "Tests", "Passed", "Failed", "Status", "Message",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Type", AutoMerge: true},
		{Name: "Name", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Message", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	appendSuite(t, report.Suite, 0, true, nil)

	if report.Status == types.StatusFail {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}
	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		formatDuration(report.Duration),
		report.AllStats.Total,
		report.AllStats.Passed,
		report.AllStats.Failed,
		getResultString(report.Status, true),
		"",
	})
	t.Render()

	_, err := fmt.Fprintln(f.out, result.String())
	return err
}

// appendSuite adds rows for a suite, its tests and its child suites.
// parentIsLast tracks, per ancestor below the root, whether it was drawn last.
func appendSuite(t table.Writer, suite reporting.ReportSuite, depth int, isLast bool, parentIsLast []bool) {
	t.AppendRow(table.Row{
		"Suite",
		ui.BuildTreePrefix(depth, isLast, parentIsLast) + suite.Name,
		formatDuration(suite.Duration),
		"-",
		suite.AllStats.Passed,
		suite.AllStats.Failed,
		getResultString(suite.Status, true),
		firstLine(suite.Message),
	})

	childParents := parentIsLast
	if depth > 0 {
		childParents = append(append([]bool{}, parentIsLast...), isLast)
	}
	children := len(suite.Tests) + len(suite.Suites)
	for i, test := range suite.Tests {
		t.AppendRow(table.Row{
			"Test",
			ui.BuildTreePrefix(depth+1, i == children-1, childParents) + test.Name,
			formatDuration(test.Duration),
			1,
			boolToInt(test.Status == types.StatusPass),
			boolToInt(test.Status == types.StatusFail),
			getResultString(test.Status, test.Critical),
			firstLine(test.Message),
		})
	}
	for i, child := range suite.Suites {
		appendSuite(t, child, depth+1, len(suite.Tests)+i == children-1, childParents)
	}
}

// firstLine keeps the table compact; the full message is in the result files
func firstLine(msg string) string {
	line, _, _ := strings.Cut(msg, "\n")
	return line
}

func getResultString(status types.Status, critical bool) string {
	var s string
	switch status {
	case types.StatusPass:
		s = "✓ pass"
	case types.StatusFail:
		s = "✗ fail"
	default:
		s = "… " + strings.ToLower(string(status))
	}
	if !critical {
		s += " (non-critical)"
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}
