package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/op-keyword/builtin"
	"github.com/ethereum-optimism/infra/op-keyword/execctx"
	"github.com/ethereum-optimism/infra/op-keyword/keyword"
	"github.com/ethereum-optimism/infra/op-keyword/types"
	"github.com/ethereum-optimism/infra/op-keyword/variables"
)

// LibraryImporter resolves the library imports of a suite into keyword sources
type LibraryImporter interface {
	Import(ctx context.Context, imp types.LibraryImport) (keyword.Source, error)
}

// Config holds configuration for creating a new runner
type Config struct {
	// Globals are the process wide variables every suite starts from
	Globals  *variables.Variables
	Importer LibraryImporter
	Output   execctx.Output
	// DryRun resolves every keyword call without running library keywords
	DryRun          bool
	CriticalTags    []string
	NonCriticalTags []string
	// ExitOnFailure stops running tests after the first critical failure
	ExitOnFailure bool
	Log           log.Logger
}

// RunResult is the outcome of one run of a suite tree
type RunResult struct {
	RunID    string
	Suite    *types.SuiteResult
	Duration time.Duration
}

// Status returns the verdict of the root suite
func (r *RunResult) Status() types.Status {
	return r.Suite.Status()
}

func (r *RunResult) String() string {
	crit, all := r.Suite.CriticalStats(), r.Suite.AllStats()
	return fmt.Sprintf("%s: %d critical tests, %d passed, %d failed; %d tests total, %d passed, %d failed",
		r.Suite.Status(), crit.Total, crit.Passed, crit.Failed, all.Total, all.Passed, all.Failed)
}

// Runner executes suite models. A runner owns its execution context stack
// and runs one suite tree at a time on the calling goroutine.
type Runner struct {
	globals       *variables.Variables
	importer      LibraryImporter
	contexts      *execctx.Contexts
	builtIn       keyword.Source
	output        execctx.Output
	dryRun        bool
	critical      []string
	nonCrit       []string
	exitOnFailure bool
	log           log.Logger
	tracer        trace.Tracer

	runID  string
	status *runStatus
}

// New creates a runner
func New(cfg Config) (*Runner, error) {
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.Globals == nil {
		cfg.Globals = variables.New()
	}
	if cfg.Output == nil {
		cfg.Output = NewLogOutput(cfg.Log)
	}

	r := &Runner{
		globals:       cfg.Globals,
		importer:      cfg.Importer,
		contexts:      execctx.New(),
		output:        cfg.Output,
		dryRun:        cfg.DryRun,
		critical:      cfg.CriticalTags,
		nonCrit:       cfg.NonCriticalTags,
		exitOnFailure: cfg.ExitOnFailure,
		log:           cfg.Log,
		tracer:        otel.Tracer("keyword runner"),
	}
	lib, err := builtin.New(r.contexts, r.globals, r)
	if err != nil {
		return nil, fmt.Errorf("creating BuiltIn library: %w", err)
	}
	r.builtIn = lib

	cfg.Log.Debug("NewRunner()", "dryRun", cfg.DryRun, "critical", cfg.CriticalTags,
		"nonCritical", cfg.NonCriticalTags, "exitOnFailure", cfg.ExitOnFailure)
	return r, nil
}

// Contexts returns the runner's execution context stack
func (r *Runner) Contexts() *execctx.Contexts {
	return r.contexts
}

// Run executes the suite tree and returns its results. Test failures are
// reported in the results; an error is returned only when the run itself
// could not be carried out.
func (r *Runner) Run(ctx context.Context, suite *types.SuiteModel) (*RunResult, error) {
	if suite == nil {
		return nil, errors.New("suite is required")
	}
	if r.contexts.Len() != 0 {
		return nil, errors.New("runner is already running")
	}

	r.runID = uuid.New().String()
	r.status = &runStatus{exitOnFailure: r.exitOnFailure}
	defer func() {
		r.runID = ""
		r.status = nil
	}()

	start := time.Now()
	r.log.Debug("Running suite", "run_id", r.runID, "suite", suite.Name, "tests", suite.TestCount())
	result, err := r.runSuite(ctx, suite, nil, nil)
	if err != nil {
		return nil, err
	}
	if r.contexts.Len() != 0 {
		return nil, fmt.Errorf("execution context stack not empty after run: %s", r.contexts.Names())
	}
	return &RunResult{
		RunID:    r.runID,
		Suite:    result,
		Duration: time.Since(start),
	}, nil
}

// RunID returns the id of the run in progress, empty between runs
func (r *Runner) RunID() string {
	return r.runID
}

// RunKeyword runs the keyword name in the current context with args that
// are already variable substituted. BuiltIn keywords that run other
// keywords use it.
func (r *Runner) RunKeyword(ctx context.Context, name string, args []any) (any, error) {
	ec := r.contexts.Current()
	if ec == nil {
		return nil, keyword.Fatal("Keyword '%s' cannot be run when no suite is running.", name)
	}
	return r.execute(ctx, ec, name, args)
}
