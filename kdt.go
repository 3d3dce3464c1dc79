// Package kdt runs keyword driven test suites as a command line service.
package kdt

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"

	"github.com/ethereum-optimism/infra/op-keyword/metrics"
	"github.com/ethereum-optimism/infra/op-keyword/registry"
	"github.com/ethereum-optimism/infra/op-keyword/reporting"
	"github.com/ethereum-optimism/infra/op-keyword/runner"
	"github.com/ethereum-optimism/infra/op-keyword/service"
	"github.com/ethereum-optimism/infra/op-keyword/types"
)

var _ cliapp.Lifecycle = (*KDT)(nil)

// KDT runs the configured suite once, or periodically at the run interval.
type KDT struct {
	config    *Config
	version   string
	registry  *registry.Registry
	executor  TestExecutor
	scheduler TestScheduler
	formatter ResultFormatter
	reporters []ResultReporter
	service   *service.Service

	result  atomic.Pointer[runner.RunResult]
	stopped atomic.Bool

	shutdownCallback func(error) // Callback to signal application shutdown
}

// New wires the components of a run from config
func New(config *Config, version string, shutdownCallback context.CancelCauseFunc) (*KDT, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	config.Log.Debug("Creating KDT with config",
		"suite", config.SuitePath,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce,
		"dryRun", config.DryRun)

	reg, err := registry.NewRegistry(registry.Config{Log: config.Log})
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	svcCfg := service.Config{HealthzAddr: config.HealthzAddr, Log: config.Log}
	if config.Metrics.Enabled {
		svcCfg.MetricsAddr = net.JoinHostPort(config.Metrics.ListenAddr, strconv.Itoa(config.Metrics.ListenPort))
	}

	return &KDT{
		config:    config,
		version:   version,
		registry:  reg,
		executor:  NewDefaultTestExecutor(config, reg, config.Log),
		scheduler: NewDefaultTestScheduler(config.RunInterval, config.RunOnce, config.Log),
		formatter: NewConsoleResultFormatter(config.Log, os.Stdout),
		reporters: []ResultReporter{MetricsReporter{}, NewSinkReporter(config.OutputDir)},
		service:   service.New(svcCfg),
		shutdownCallback: func(err error) {
			if shutdownCallback != nil {
				shutdownCallback(err)
			}
		},
	}, nil
}

// Start implements the cliapp.Lifecycle interface.
func (k *KDT) Start(ctx context.Context) error {
	k.service.Start(ctx)

	if k.config.RunOnce {
		k.config.Log.Info("Starting op-keyword in run-once mode", "version", k.version)
	} else {
		k.config.Log.Info("Starting op-keyword in continuous mode", "version", k.version, "interval", k.config.RunInterval)
	}

	k.scheduler.RegisterCallback(k.runTests)
	if err := k.scheduler.Start(ctx); err != nil {
		k.config.Log.Error("Runtime error running tests", "error", err)
		return err
	}

	if k.config.RunOnce {
		result := k.result.Load()
		if result != nil && result.Status() == types.StatusFail {
			k.config.Log.Warn("Run-once test run completed with failures, returning exit code 1")
			return NewTestFailureError(result.String())
		}
		k.config.Log.Info("Tests completed, exiting (run-once mode)")
		go k.shutdownCallback(nil)
	}
	return nil
}

// runTests runs the suite and publishes its results
func (k *KDT) runTests(ctx context.Context) error {
	result, err := k.executor.RunTests(ctx)
	if err != nil {
		metrics.RecordErrorDetails("run", err)
		return err
	}
	k.result.Store(result)

	if err := k.formatter.FormatResults(result); err != nil {
		k.config.Log.Warn("Failed to print results", "error", err)
	}
	for _, reporter := range k.reporters {
		if err := reporter.ReportResults(result); err != nil {
			metrics.RecordErrorDetails("report", err)
			return NewRuntimeError(fmt.Errorf("failed to report results: %w", err))
		}
	}
	k.config.Log.Info("Test run completed", "run_id", result.RunID, "status", result.Status(),
		"results", reporting.RunDir(k.config.OutputDir, result.RunID))
	return nil
}

// Result returns the result of the latest completed run
func (k *KDT) Result() *runner.RunResult {
	return k.result.Load()
}

// Stop implements the cliapp.Lifecycle interface.
func (k *KDT) Stop(ctx context.Context) error {
	if k.stopped.Swap(true) {
		return nil
	}
	k.config.Log.Info("Stopping op-keyword")

	err := k.scheduler.Stop()
	if waitErr := k.scheduler.WaitForShutdown(ctx); waitErr != nil {
		err = errors.Join(err, waitErr)
	}
	k.service.Shutdown(ctx)
	k.registry.Close()

	k.config.Log.Info("op-keyword stopped")
	return err
}

// Stopped implements the cliapp.Lifecycle interface.
func (k *KDT) Stopped() bool {
	return k.stopped.Load()
}
