package kdt

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/ethereum-optimism/infra/op-keyword/flags"
	"github.com/ethereum-optimism/infra/op-keyword/types"
)

// Config holds the application configuration
type Config struct {
	SuitePath       string
	Variables       []types.Variable // Global variables given on the command line
	VariableFiles   []string
	DryRun          bool
	CriticalTags    []string
	NonCriticalTags []string
	ExitOnFailure   bool
	RunInterval     time.Duration // Interval between test runs
	RunOnce         bool          // Indicates if the service should exit after one test run
	OutputDir       string        // Directory the results of each run are written to
	HealthzAddr     string
	Metrics         opmetrics.CLIConfig
	Log             log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}
	suitePath := ctx.String(flags.Suite.Name)
	if suitePath == "" {
		return nil, errors.New("suite path is required")
	}
	absSuitePath, err := filepath.Abs(suitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for suite '%s': %w", suitePath, err)
	}

	vars, err := ParseVariables(ctx.StringSlice(flags.Variable.Name))
	if err != nil {
		return nil, err
	}

	outputDir := ctx.String(flags.OutputDir.Name)
	if outputDir == "" {
		outputDir = "logs"
	}
	outputDir, err = filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for output directory '%s': %w", outputDir, err)
	}

	metricsCfg := opmetrics.ReadCLIConfig(ctx)
	if err := metricsCfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid metrics config: %w", err)
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)
	if runInterval < 0 {
		return nil, fmt.Errorf("run interval must not be negative, got %s", runInterval)
	}

	return &Config{
		SuitePath:       absSuitePath,
		Variables:       vars,
		VariableFiles:   ctx.StringSlice(flags.VariableFile.Name),
		DryRun:          ctx.Bool(flags.DryRun.Name),
		CriticalTags:    ctx.StringSlice(flags.Critical.Name),
		NonCriticalTags: ctx.StringSlice(flags.NonCritical.Name),
		ExitOnFailure:   ctx.Bool(flags.ExitOnFailure.Name),
		RunInterval:     runInterval,
		RunOnce:         runInterval == 0,
		OutputDir:       outputDir,
		HealthzAddr:     ctx.String(flags.HealthzAddr.Name),
		Metrics:         metricsCfg,
		Log:             log,
	}, nil
}

// ParseVariables parses command line variables given as "name:value". The
// name may be given with or without the ${} decoration.
func ParseVariables(values []string) ([]types.Variable, error) {
	vars := make([]types.Variable, 0, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid variable '%s': expected 'name:value'", v)
		}
		if !strings.HasPrefix(name, "${") {
			name = "${" + name + "}"
		}
		vars = append(vars, types.Variable{Name: name, Value: value})
	}
	return vars, nil
}
