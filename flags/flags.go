package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	opflags "github.com/ethereum-optimism/optimism/op-service/flags"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

const EnvVarPrefix = "OP_KEYWORD"

var (
	Suite = &cli.StringFlag{
		Name:    "suite",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SUITE"),
		Usage:   "Path to a suite file or a directory of suite files",
	}
	Variable = &cli.StringSliceFlag{
		Name:    "variable",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "VARIABLE"),
		Usage:   "Set a global scalar variable as 'name:value'. Can be given multiple times.",
	}
	VariableFile = &cli.StringSliceFlag{
		Name:    "variable-file",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "VARIABLE_FILE"),
		Usage:   "YAML or TOML file of global variables. Can be given multiple times.",
	}
	DryRun = &cli.BoolFlag{
		Name:    "dry-run",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "DRY_RUN"),
		Usage:   "Resolve every keyword without running library keywords",
	}
	Critical = &cli.StringSliceFlag{
		Name:    "critical",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CRITICAL"),
		Usage:   "Only tests with one of these tags are critical",
	}
	NonCritical = &cli.StringSliceFlag{
		Name:    "noncritical",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "NONCRITICAL"),
		Usage:   "Tests with one of these tags are not critical",
	}
	ExitOnFailure = &cli.BoolFlag{
		Name:    "exit-on-failure",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "EXIT_ON_FAILURE"),
		Usage:   "Stop running tests after the first critical failure",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RUN_INTERVAL"),
		Usage:   "Interval between test runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	OutputDir = &cli.StringFlag{
		Name:    "output-dir",
		Value:   "logs",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "OUTPUT_DIR"),
		Usage:   "Directory the results of each run are written to",
	}
	HealthzAddr = &cli.StringFlag{
		Name:    "healthz.addr",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "HEALTHZ_ADDR"),
		Usage:   "Address to serve /healthz on (e.g. '0.0.0.0:8080'). Disabled when empty.",
	}
)

// Flags of the serve-remote command
var (
	ServeAddr = &cli.StringFlag{
		Name:    "serve.addr",
		Value:   "127.0.0.1:8270",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SERVE_ADDR"),
		Usage:   "Address to serve keyword libraries on",
	}
	ServeLibrary = &cli.StringFlag{
		Name:    "serve.library",
		Value:   "String",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SERVE_LIBRARY"),
		Usage:   "Name of the registered library to serve",
	}
)

var requiredFlags = []cli.Flag{
	Suite,
}

var optionalFlags = []cli.Flag{
	Variable,
	VariableFile,
	DryRun,
	Critical,
	NonCritical,
	ExitOnFailure,
	RunInterval,
	OutputDir,
	HealthzAddr,
}

var Flags []cli.Flag

var ServeFlags = []cli.Flag{
	ServeAddr,
	ServeLibrary,
}

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
	ServeFlags = append(ServeFlags, oplog.CLIFlags(EnvVarPrefix)...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return opflags.CheckRequiredXor(ctx)
}
