package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum-optimism/infra/op-keyword/execctx"
	"github.com/ethereum-optimism/infra/op-keyword/keyword"
	"github.com/ethereum-optimism/infra/op-keyword/metrics"
	"github.com/ethereum-optimism/infra/op-keyword/namespace"
	"github.com/ethereum-optimism/infra/op-keyword/types"
	"github.com/ethereum-optimism/infra/op-keyword/variables"
)

// runSuite runs a suite with its tests and child suites. The suite's context
// is popped and its teardown run on every return path.
func (r *Runner) runSuite(ctx context.Context, model *types.SuiteModel, parent *types.SuiteResult, parentStatus *suiteStatus) (result *types.SuiteResult, err error) {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("suite %s", model.Name))
	defer span.End()

	vars := r.suiteVariables(model)
	result = &types.SuiteResult{
		Name:      model.Name,
		Doc:       model.Doc,
		Metadata:  model.Metadata,
		Source:    model.Source,
		StartTime: time.Now(),
	}
	if parent == nil {
		result.SetCriticality(r.critical, r.nonCrit)
	} else {
		parent.AddSuite(result)
	}

	ns := namespace.New(result, vars, model.Keywords, r.builtIn)
	ec := r.contexts.StartSuite(ns, r.output, r.dryRun)
	defer func() {
		if popErr := r.contexts.EndSuite(); popErr != nil && err == nil {
			err = popErr
		}
	}()

	r.importLibraries(ctx, ec, model.Libraries)
	if err := vars.ResolveDelayed(); err != nil {
		r.reportError(ec, fmt.Sprintf("Error in suite '%s' variable table: %v", model.Name, err))
	}
	result.Doc = resolveSetting(vars, model.Doc)
	ec.SetSuiteVariables(result)
	r.output.StartSuite(result)

	status := newSuiteStatus(parentStatus, r.status)
	if !status.setupBlocked() {
		status.started = true
		if setupErr := r.runFixture(ctx, ec, model.Setup); setupErr != nil {
			msg := keyword.Message(setupErr)
			status.setupFailure = msg
			result.Message = "Suite setup failed:\n" + msg
			if keyword.IsFatal(setupErr) {
				r.status.fatal = true
			}
		}
	}

	for i := range model.Tests {
		r.runTest(ctx, ec, &model.Tests[i], result, status)
	}
	for i := range model.Suites {
		if _, err := r.runSuite(ctx, &model.Suites[i], result, status); err != nil {
			return result, err
		}
	}

	if status.started {
		ec.ReportSuiteStatus(result.Status(), result.Message)
		teardownErr := ec.InSuiteTeardown(func() error {
			return r.runFixture(context.WithoutCancel(ctx), ec, model.Teardown)
		})
		if teardownErr != nil {
			suiteTeardownFailed(result, keyword.Message(teardownErr))
			if keyword.IsFatal(teardownErr) {
				r.status.fatal = true
			}
		}
	}

	result.EndTime = time.Now()
	r.contexts.CopyPrevTestVarsToGlobal(r.globals)
	r.output.EndSuite(result)
	if parent == nil {
		metrics.RecordSuite(r.runID, result.Name, result.Status())
	}
	return result, nil
}

// suiteVariables creates the suite variable scope: a copy of the global
// variables overlaid with the suite's variable table, reading through to the
// variables of the parent suite.
func (r *Runner) suiteVariables(model *types.SuiteModel) *variables.Variables {
	var vars *variables.Variables
	if current := r.contexts.Current(); current != nil {
		vars = current.Namespace.Variables.NewChild()
		vars.Update(r.globals)
	} else {
		vars = r.globals.Copy()
	}
	if err := vars.SetFromTable(model.Variables); err != nil {
		r.log.Error("Invalid variable table", "suite", model.Name, "err", err)
	}
	return vars
}

func (r *Runner) importLibraries(ctx context.Context, ec *execctx.Context, imports []types.LibraryImport) {
	for _, imp := range imports {
		if r.importer == nil {
			r.reportError(ec, fmt.Sprintf("Importing library '%s' failed: no library importer configured", imp.Name))
			continue
		}
		lib, err := r.importer.Import(ctx, imp)
		if err != nil {
			r.reportError(ec, fmt.Sprintf("Importing library '%s' failed: %v", imp.Name, err))
			metrics.RecordErrorDetails("import", err)
			continue
		}
		ec.Namespace.AddLibrary(lib)
		r.log.Debug("Imported library", "library", lib.Name(), "keywords", len(lib.KeywordNames()))
	}
}

func (r *Runner) reportError(ec *execctx.Context, msg string) {
	r.log.Error(msg)
	ec.Output.Message(execctx.LevelError, msg)
}

// resolveSetting substitutes variables in a documentation-like setting,
// keeping the original text when a variable does not resolve.
func resolveSetting(vars *variables.Variables, value string) string {
	if value == "" {
		return value
	}
	replaced, err := vars.ReplaceString(value)
	if err != nil {
		return value
	}
	return replaced
}
