package kdt

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/op-keyword/flags"
	"github.com/ethereum-optimism/infra/op-keyword/types"
)

// parseConfig runs NewConfig against a cli context built from args
func parseConfig(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	var (
		cfg    *Config
		cfgErr error
	)
	app := cli.NewApp()
	app.Flags = flags.Flags
	app.Action = func(ctx *cli.Context) error {
		cfg, cfgErr = NewConfig(ctx, testLogger())
		return nil
	}
	require.NoError(t, app.Run(append([]string{"op-keyword"}, args...)))
	return cfg, cfgErr
}

func TestNewConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := parseConfig(t,
		"--suite", filepath.Join(dir, "suites"),
		"--variable", "HOST:localhost",
		"--variable", "${PORT}:8545",
		"--variable-file", "vars.yaml",
		"--noncritical", "flaky",
		"--exit-on-failure",
		"--run-interval", "5m",
		"--output-dir", filepath.Join(dir, "results"),
	)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "suites"), cfg.SuitePath)
	assert.Equal(t, []types.Variable{
		{Name: "${HOST}", Value: "localhost"},
		{Name: "${PORT}", Value: "8545"},
	}, cfg.Variables)
	assert.Equal(t, []string{"vars.yaml"}, cfg.VariableFiles)
	assert.Equal(t, []string{"flaky"}, cfg.NonCriticalTags)
	assert.Empty(t, cfg.CriticalTags)
	assert.True(t, cfg.ExitOnFailure)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, 5*time.Minute, cfg.RunInterval)
	assert.False(t, cfg.RunOnce)
	assert.Equal(t, filepath.Join(dir, "results"), cfg.OutputDir)
	assert.False(t, cfg.Metrics.Enabled)
	assert.NotNil(t, cfg.Log)
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := parseConfig(t, "--suite", "suite.yaml")
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.SuitePath))
	assert.Equal(t, "suite.yaml", filepath.Base(cfg.SuitePath))
	assert.True(t, cfg.RunOnce)
	assert.Equal(t, "logs", filepath.Base(cfg.OutputDir))
	assert.Empty(t, cfg.HealthzAddr)
}

func TestNewConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing suite", nil, "flag suite is required"},
		{"bad variable", []string{"--suite", "s.yaml", "--variable", "novalue"}, "expected 'name:value'"},
		{"negative interval", []string{"--suite", "s.yaml", "--run-interval", "-1m"}, "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseConfig(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseVariables(t *testing.T) {
	vars, err := ParseVariables([]string{"URL:http://localhost:8545", "${EMPTY}:"})
	require.NoError(t, err)
	assert.Equal(t, []types.Variable{
		{Name: "${URL}", Value: "http://localhost:8545"},
		{Name: "${EMPTY}", Value: ""},
	}, vars)

	_, err = ParseVariables([]string{":value"})
	require.Error(t, err)
}
