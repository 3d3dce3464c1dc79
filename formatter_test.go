package kdt

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-keyword/runner"
	"github.com/ethereum-optimism/infra/op-keyword/types"
)

func sampleRunResult() *runner.RunResult {
	start := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	root := &types.SuiteResult{Name: "Checkout", StartTime: start, EndTime: start.Add(2 * time.Second)}
	root.SetCriticality(nil, []string{"flaky"})
	root.AddTest(&types.TestResult{Name: "Add To Cart", Status: types.StatusPass})
	payments := root.CreateSuite("Payments")
	payments.AddTest(&types.TestResult{
		Name:    "Card Declined",
		Status:  types.StatusFail,
		Message: "expected DECLINED\nbut got ACCEPTED",
	})
	payments.AddTest(&types.TestResult{Name: "Retry", Tags: []string{"flaky"}, Status: types.StatusFail, Message: "timeout"})
	return &runner.RunResult{RunID: "run-42", Suite: root, Duration: 2 * time.Second}
}

func TestConsoleResultFormatter_FormatResults(t *testing.T) {
	var out bytes.Buffer
	formatter := NewConsoleResultFormatter(testLogger(), &out)

	require.NoError(t, formatter.FormatResults(sampleRunResult()))

	printed := out.String()
	assert.Contains(t, printed, "Keyword Test Results (2s)")
	assert.Contains(t, printed, "Checkout")
	assert.Contains(t, printed, "├── Add To Cart")
	assert.Contains(t, printed, "└── Retry")
	assert.Contains(t, printed, "└── Payments")
	assert.Contains(t, printed, "├── Card Declined")
	assert.Contains(t, printed, "expected DECLINED")
	assert.NotContains(t, printed, "but got ACCEPTED", "only the first message line is shown")
	assert.Contains(t, printed, "✗ fail (non-critical)")
	assert.Contains(t, printed, "TOTAL")
	assert.Contains(t, printed, "FAIL: 2 critical tests, 1 passed, 1 failed; 3 tests total, 1 passed, 2 failed")
}

func TestGetResultString(t *testing.T) {
	assert.Equal(t, "✓ pass", getResultString(types.StatusPass, true))
	assert.Equal(t, "✗ fail", getResultString(types.StatusFail, true))
	assert.Equal(t, "✓ pass (non-critical)", getResultString(types.StatusPass, false))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "one", firstLine("one\ntwo"))
	assert.Equal(t, "", firstLine(""))
}
