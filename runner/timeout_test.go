package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-keyword/variables"
)

func TestNewTestTimeout(t *testing.T) {
	vars := variables.New()
	vars.Set("${LIMIT}", "2s")

	tests := []struct {
		value    string
		active   bool
		expected string
	}{
		{value: "", active: false},
		{value: "NONE", active: false},
		{value: "none", active: false},
		{value: "0", active: false},
		{value: "1.5", active: true, expected: "1.5"},
		{value: "1m", active: true, expected: "1m"},
		{value: "${LIMIT}", active: true, expected: "2s"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			timeout, err := NewTestTimeout(tt.value, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.active, timeout.Active())
			assert.Equal(t, tt.expected, timeout.String())
		})
	}
}

func TestNewTestTimeoutErrors(t *testing.T) {
	_, err := NewTestTimeout("${MISSING}", variables.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Setting test timeout failed: ")

	_, err = NewTestTimeout("later", variables.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Setting test timeout failed: ")
}

func TestTimeoutStart(t *testing.T) {
	timeout, err := NewTestTimeout("10ms", variables.New())
	require.NoError(t, err)

	ctx, cancel := timeout.Start(context.Background())
	defer cancel()
	assert.NoError(t, checkpoint(ctx))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("timeout did not expire")
	}
	err = checkpoint(ctx)
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "Test timeout 10ms exceeded.", err.Error())
}

func TestInactiveTimeoutStart(t *testing.T) {
	timeout, err := NewTestTimeout("", variables.New())
	require.NoError(t, err)

	ctx, cancel := timeout.Start(context.Background())
	_, hasDeadline := ctx.Deadline()
	assert.False(t, hasDeadline)
	cancel()
	assert.Equal(t, ErrCancelled, checkpoint(ctx))
}
