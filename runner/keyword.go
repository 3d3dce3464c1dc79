package runner

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ethereum-optimism/infra/op-keyword/arguments"
	"github.com/ethereum-optimism/infra/op-keyword/execctx"
	"github.com/ethereum-optimism/infra/op-keyword/keyword"
	"github.com/ethereum-optimism/infra/op-keyword/metrics"
	"github.com/ethereum-optimism/infra/op-keyword/namespace"
	"github.com/ethereum-optimism/infra/op-keyword/types"
	"github.com/ethereum-optimism/infra/op-keyword/variables"
)

const resolutionErrorLabel = "argument_resolution"

// runFixture runs a setup or teardown call. A missing call, or one named
// NONE, passes.
func (r *Runner) runFixture(ctx context.Context, ec *execctx.Context, call *types.KeywordCall) error {
	if call == nil || call.Name == "" || strings.EqualFold(call.Name, "NONE") {
		return nil
	}
	return r.runCall(ctx, ec, *call)
}

// runCall substitutes variables in a keyword call, runs it and assigns its
// return value.
func (r *Runner) runCall(ctx context.Context, ec *execctx.Context, call types.KeywordCall) error {
	vars := ec.Variables()
	name, err := vars.ReplaceString(call.Name)
	if err != nil {
		return keyword.NewExecutionFailed(err)
	}
	args, err := vars.ReplaceList(call.Args)
	if err != nil {
		return keyword.NewExecutionFailed(err)
	}
	value, err := r.execute(ctx, ec, name, args)
	if err != nil {
		return err
	}
	if ec.DryRun {
		return nil
	}
	if err := assign(ec.Variables(), call.Assign, value); err != nil {
		return keyword.NewExecutionFailed(err)
	}
	return nil
}

// runBody runs keywords in order and stops at the first failure. In a
// teardown it continues past ordinary failures and reports them all.
func (r *Runner) runBody(ctx context.Context, ec *execctx.Context, calls []types.KeywordCall) error {
	var errs []error
	for _, call := range calls {
		err := r.runCall(ctx, ec, call)
		if err == nil {
			continue
		}
		errs = append(errs, err)
		if !ec.InTeardown() || keyword.IsFatal(err) {
			break
		}
	}
	return combineFailures(errs)
}

// execute looks up and runs one keyword with substituted arguments. Every
// failure is returned as a keyword.ExecutionFailed with its severity decided.
func (r *Runner) execute(ctx context.Context, ec *execctx.Context, name string, args []any) (result any, retErr error) {
	if err := checkpoint(ctx); err != nil {
		return nil, keyword.NewExecutionFailed(err)
	}
	handler, err := ec.Namespace.Handler(name)
	if err != nil {
		return nil, keyword.NewExecutionFailed(err)
	}
	if err := ec.StartKeyword(); err != nil {
		return nil, keyword.NewExecutionFailed(err)
	}
	defer func() {
		if err := ec.EndKeyword(); err != nil && retErr == nil {
			result, retErr = nil, keyword.NewExecutionFailed(&keyword.FrameworkError{Err: err})
		}
	}()

	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("keyword %s", handler.Name))
	defer span.End()

	r.output.StartKeyword(handler.Name, args)
	start := time.Now()
	var value any
	if handler.IsUserKeyword() {
		value, err = r.runUserKeyword(ctx, ec, handler, args)
	} else {
		value, err = r.runLibraryKeyword(ctx, ec, handler, args)
	}
	elapsed := time.Since(start)

	status := types.StatusPass
	if err != nil {
		status = types.StatusFail
	}
	span.SetAttributes(attribute.String("status", status.String()))
	r.output.EndKeyword(handler.Name, status, elapsed, err)
	kwName := handler.Spec.Name
	if kwName == "" {
		kwName = handler.Name
	}
	metrics.RecordKeyword(handler.Library, kwName, status, elapsed)
	if err != nil {
		return nil, keyword.NewExecutionFailed(err)
	}
	return value, nil
}

func (r *Runner) runLibraryKeyword(ctx context.Context, ec *execctx.Context, handler namespace.Handler, args []any) (any, error) {
	resolved, err := arguments.Resolve(handler.Spec, args, arguments.LibraryStyle)
	if err != nil {
		return nil, recordResolutionError(err)
	}
	if ec.DryRun {
		return nil, nil
	}
	return handler.Source.Invoke(ctx, handler.Spec.Name, resolved.Positional, resolved.Named)
}

// recordResolutionError counts arity and named argument errors of a call
func recordResolutionError(err error) error {
	if arguments.IsResolutionError(err) {
		metrics.RecordError(resolutionErrorLabel)
	}
	return err
}

// runUserKeyword binds the arguments in a new keyword scope, runs the body,
// evaluates the return value and runs the keyword teardown.
func (r *Runner) runUserKeyword(ctx context.Context, ec *execctx.Context, handler namespace.Handler, args []any) (result any, retErr error) {
	uk := handler.UserKeyword
	if uk.Err != nil {
		return nil, uk.Err
	}
	scope := ec.Namespace.StartUserKeyword()
	defer func() {
		if err := ec.Namespace.EndUserKeyword(); err != nil && retErr == nil {
			result, retErr = nil, &keyword.FrameworkError{Err: err}
		}
	}()

	if err := uk.Arguments.SetTo(scope, args); err != nil {
		return nil, recordResolutionError(err)
	}

	bodyErr := r.runBody(ctx, ec, uk.Model.Keywords)
	var value any
	if bodyErr == nil && !ec.DryRun {
		value, bodyErr = returnValue(scope, uk.Model.Return)
	}

	if uk.Model.Teardown == nil {
		return value, bodyErr
	}
	ec.StartKeywordTeardown(bodyErr)
	teardownErr := r.runFixture(context.WithoutCancel(ctx), ec, uk.Model.Teardown)
	ec.EndKeywordTeardown()
	if err := withKeywordTeardown(bodyErr, teardownErr); err != nil {
		return nil, err
	}
	return value, nil
}

// returnValue evaluates a user keyword's [Return] values: nothing, a single
// value, or a list of all values.
func returnValue(vars *variables.Variables, ret []string) (any, error) {
	if len(ret) == 0 {
		return nil, nil
	}
	items := make([]any, len(ret))
	for i, item := range ret {
		items[i] = item
	}
	values, err := vars.ReplaceList(items)
	if err != nil {
		return nil, err
	}
	if len(values) == 1 && !strings.HasPrefix(ret[0], "@{") {
		return values[0], nil
	}
	return values, nil
}

// assign stores a keyword's return value into the variables named by targets:
// one scalar gets the value as is, one list variable gets the value as a list,
// and several scalars, optionally followed by a list variable, split it.
func assign(vars *variables.Variables, targets []string, value any) error {
	if len(targets) == 0 {
		return nil
	}
	names := make([]string, len(targets))
	for i, target := range targets {
		name := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(target), "="))
		if !isAssignable(name) {
			return keyword.Fail("Invalid variable to assign: '%s'.", target)
		}
		if name[0] == '@' && i != len(targets)-1 {
			return keyword.Fail("List variable '%s' must be the last variable to assign.", name)
		}
		names[i] = name
	}

	if len(names) == 1 {
		if names[0][0] == '$' {
			vars.Set(names[0], value)
			return nil
		}
		list, ok := asList(value)
		if !ok {
			return keyword.Fail("Cannot set variable '%s': Expected list-like value, got %T.", names[0], value)
		}
		vars.Set(names[0], list)
		return nil
	}

	list, ok := asList(value)
	if !ok {
		return keyword.Fail("Cannot set variables: Expected list-like value, got %T.", value)
	}
	last := names[len(names)-1]
	scalars := names
	if last[0] == '@' {
		scalars = names[:len(names)-1]
		if len(list) < len(scalars) {
			return keyword.Fail("Cannot set variables: Expected %d or more return values, got %d.", len(scalars), len(list))
		}
	} else if len(list) != len(scalars) {
		return keyword.Fail("Cannot set variables: Expected %d return values, got %d.", len(scalars), len(list))
	}
	for i, name := range scalars {
		vars.Set(name, list[i])
	}
	if last[0] == '@' {
		vars.Set(last, append([]any{}, list[len(scalars):]...))
	}
	return nil
}

func isAssignable(name string) bool {
	return len(name) > 3 && (name[0] == '$' || name[0] == '@') && name[1] == '{' && name[len(name)-1] == '}'
}

func asList(value any) ([]any, bool) {
	if list, ok := value.([]any); ok {
		return list, true
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	list := make([]any, rv.Len())
	for i := range list {
		list[i] = rv.Index(i).Interface()
	}
	return list, true
}
