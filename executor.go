package kdt

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-keyword/registry"
	"github.com/ethereum-optimism/infra/op-keyword/runner"
	"github.com/ethereum-optimism/infra/op-keyword/variables"
)

// TestExecutor runs the configured suite once
type TestExecutor interface {
	RunTests(ctx context.Context) (*runner.RunResult, error)
}

// DefaultTestExecutor loads the suite and the global variables from disk on
// every run, so edits between scheduled runs are picked up.
type DefaultTestExecutor struct {
	config   *Config
	registry *registry.Registry
	logger   log.Logger
}

var _ TestExecutor = (*DefaultTestExecutor)(nil)

// NewDefaultTestExecutor creates a new DefaultTestExecutor.
func NewDefaultTestExecutor(config *Config, reg *registry.Registry, logger log.Logger) *DefaultTestExecutor {
	return &DefaultTestExecutor{
		config:   config,
		registry: reg,
		logger:   logger,
	}
}

// RunTests loads and runs the suite. Errors loading the suite or the variables
// are RuntimeErrors; test failures are only reported in the result.
func (e *DefaultTestExecutor) RunTests(ctx context.Context) (*runner.RunResult, error) {
	suite, err := e.registry.LoadSuite(e.config.SuitePath)
	if err != nil {
		return nil, NewRuntimeError(err)
	}
	globals, err := e.globals()
	if err != nil {
		return nil, NewRuntimeError(err)
	}

	r, err := runner.New(runner.Config{
		Globals:         globals,
		Importer:        e.registry,
		DryRun:          e.config.DryRun,
		CriticalTags:    e.config.CriticalTags,
		NonCriticalTags: e.config.NonCriticalTags,
		ExitOnFailure:   e.config.ExitOnFailure,
		Log:             e.logger,
	})
	if err != nil {
		return nil, NewRuntimeError(err)
	}

	e.logger.Info("Running suite...", "suite", suite.Name, "tests", suite.TestCount())
	result, err := r.Run(ctx, suite)
	if err != nil {
		e.logger.Error("Error running suite", "error", err)
		return nil, NewRuntimeError(err)
	}
	e.logger.Info("Suite run completed", "run_id", result.RunID, "status", result.Status())
	return result, nil
}

// globals builds the global variables. Command line variables override
// variable files, and later files override earlier ones.
func (e *DefaultTestExecutor) globals() (*variables.Variables, error) {
	globals := variables.New()
	for _, path := range e.config.VariableFiles {
		vars, err := e.registry.LoadVariableFile(path)
		if err != nil {
			return nil, err
		}
		if err := globals.SetFromTable(vars); err != nil {
			return nil, fmt.Errorf("variable file %s: %w", path, err)
		}
	}
	if err := globals.SetFromTable(e.config.Variables); err != nil {
		return nil, fmt.Errorf("command line variables: %w", err)
	}
	if err := globals.ResolveDelayed(); err != nil {
		return nil, err
	}
	return globals, nil
}
