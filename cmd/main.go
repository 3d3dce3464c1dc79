package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"

	kdt "github.com/ethereum-optimism/infra/op-keyword"
	"github.com/ethereum-optimism/infra/op-keyword/flags"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := newApp()

	// Start telemetry
	ctx, shutdown, err := telemetry.SetupOpenTelemetry(
		context.Background(),
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	ctx = ctxinterrupt.WithSignalWaiterMain(ctx)
	err = app.RunContext(ctx, os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "op-keyword"
	app.Usage = "Keyword driven test runner"
	app.Description = "op-keyword runs keyword driven test suites and reports their verdicts"
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = cliapp.LifecycleCmd(run)
	app.ExitErrHandler = exitErrHandler
	app.Commands = []*cli.Command{
		{
			Name:        "serve-remote",
			Usage:       "Serve a keyword library to remote runners",
			Description: "Serves a registered keyword library over the remote keyword JSON-RPC protocol",
			Flags:       cliapp.ProtectFlags(flags.ServeFlags),
			Action:      cliapp.LifecycleCmd(serveRemote),
		},
	}
	return app
}

// exitErrHandler maps run errors onto exit codes
func exitErrHandler(c *cli.Context, err error) {
	if err == nil {
		return
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		cli.HandleExitCoder(exitErr)
		return
	}
	cli.HandleExitCoder(cli.Exit(err.Error(), kdt.ExitCode(err)))
}

func setupLogger(ctx *cli.Context) log.Logger {
	logCfg := oplog.ReadCLIConfig(ctx)
	logger := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
	oplog.SetGlobalLogHandler(logger.Handler())
	oplog.SetupDefaults()
	return logger
}

func run(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	logger := setupLogger(ctx)

	cfg, err := kdt.NewConfig(ctx, logger)
	if err != nil {
		return nil, kdt.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}
	cfg.Log.Debug("Config", "config", cfg)

	svc, err := kdt.New(cfg, Version, closeApp)
	if err != nil {
		return nil, kdt.NewRuntimeError(fmt.Errorf("failed to create op-keyword: %w", err))
	}
	return svc, nil
}

func serveRemote(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	logger := setupLogger(ctx)
	srv, err := kdt.NewLibraryServer(ctx.Context, kdt.ServeConfig{
		Addr:    ctx.String(flags.ServeAddr.Name),
		Library: ctx.String(flags.ServeLibrary.Name),
		Log:     logger,
	})
	if err != nil {
		return nil, err
	}
	return srv, nil
}
