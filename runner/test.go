package runner

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ethereum-optimism/infra/op-keyword/execctx"
	"github.com/ethereum-optimism/infra/op-keyword/metrics"
	"github.com/ethereum-optimism/infra/op-keyword/types"
)

// runTest runs one test: setup, body and teardown. The teardown runs
// whenever the test was started, and every stage failure ends up in the
// test's message.
func (r *Runner) runTest(ctx context.Context, ec *execctx.Context, model *types.TestModel, suite *types.SuiteResult, status *suiteStatus) {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("test %s", model.Name))
	defer span.End()

	ns := ec.Namespace
	result := suite.AddTest(&types.TestResult{
		Name:      model.Name,
		Doc:       model.Doc,
		Tags:      model.Tags,
		Status:    types.StatusRunning,
		StartTime: time.Now(),
	})
	ns.StartTest(result)
	ec.SetTestVariables(result)
	result.Doc = resolveSetting(ec.Variables(), model.Doc)
	r.output.StartTest(result)

	var failures *TestFailures
	if msg, blocked := status.blocked(); blocked {
		result.Status = types.StatusFail
		result.Message = msg
	} else {
		failures = r.runTestStages(ctx, ec, model, result)
		result.Status = failures.Status()
		result.Message = failures.Message()
	}

	result.EndTime = time.Now()
	status.testEnded(result, failures)
	ns.EndTest()
	ec.SetPrevTestVariables(result)
	r.output.EndTest(result)
	span.SetAttributes(attribute.String("status", result.Status.String()))
	metrics.RecordTest(r.runID, suite.LongName(), result.Name, result.Status, result.ElapsedTime())
}

func (r *Runner) runTestStages(ctx context.Context, ec *execctx.Context, model *types.TestModel, result *types.TestResult) *TestFailures {
	failures := &TestFailures{}

	timeout, err := NewTestTimeout(model.Timeout, ec.Variables())
	if err != nil {
		failures.Record(types.StageSetup, err)
		timeout = &TestTimeout{}
	}
	result.Timeout = timeout.String()
	bodyCtx, cancel := timeout.Start(ctx)
	defer cancel()

	if failures.RunAllowed() {
		failures.Record(types.StageSetup, r.runFixture(bodyCtx, ec, model.Setup))
	}
	if failures.RunAllowed() {
		for _, call := range model.Keywords {
			if err := r.runCall(bodyCtx, ec, call); err != nil {
				failures.Record(types.StageBody, err)
				break
			}
		}
	}

	// A test with a verdict is in teardown; its keywords continue past failures.
	result.Status = failures.Status()
	result.Message = failures.Message()
	ec.SetTestStatusBeforeTeardown(result.Status, result.Message)
	failures.Record(types.StageTeardown, r.runFixture(context.WithoutCancel(ctx), ec, model.Teardown))
	return failures
}
