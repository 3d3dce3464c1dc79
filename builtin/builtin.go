// Package builtin implements the BuiltIn keyword library that every suite imports.
// Its keywords need the running execution context, so the library is created
// per runner with the context stack and the keyword runner it reports back to.
package builtin

import (
	"context"
	"fmt"
	"path"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/op-keyword/execctx"
	"github.com/ethereum-optimism/infra/op-keyword/keyword"
	"github.com/ethereum-optimism/infra/op-keyword/library"
	"github.com/ethereum-optimism/infra/op-keyword/namespace"
	"github.com/ethereum-optimism/infra/op-keyword/types"
	"github.com/ethereum-optimism/infra/op-keyword/variables"
)

// KeywordRunner runs a keyword by name in the current execution context.
// Arguments are passed as is, without variable substitution.
type KeywordRunner interface {
	RunKeyword(ctx context.Context, name string, args []any) (any, error)
}

type builtIn struct {
	contexts *execctx.Contexts
	globals  *variables.Variables
	runner   KeywordRunner
}

// New returns the BuiltIn library bound to contexts. globals is the process
// wide variable scope updated by Set Global Variable.
func New(contexts *execctx.Contexts, globals *variables.Variables, runner KeywordRunner) (*library.Library, error) {
	b := &builtIn{contexts: contexts, globals: globals, runner: runner}
	lib := library.New(namespace.BuiltInName)

	registrations := []struct {
		name     string
		fn       any
		names    []string
		defaults []any
		vararg   string
	}{
		{"No Operation", func() {}, nil, nil, ""},
		{"Log", b.log, []string{"message", "level"}, []any{execctx.LevelInfo}, ""},
		{"Fail", fail, []string{"msg"}, []any{"AssertionError"}, ""},
		{"Fatal Error", fatalError, []string{"msg"}, []any{"AssertionError"}, ""},
		{"Should Be Equal", shouldBeEqual, []string{"first", "second", "msg"}, []any{""}, ""},
		{"Should Not Be Equal", shouldNotBeEqual, []string{"first", "second", "msg"}, []any{""}, ""},
		{"Should Contain", shouldContain, []string{"container", "item", "msg"}, []any{""}, ""},
		{"Set Variable", setVariable, nil, nil, "values"},
		{"Set Test Variable", b.setTestVariable, []string{"name"}, nil, "values"},
		{"Set Suite Variable", b.setSuiteVariable, []string{"name"}, nil, "values"},
		{"Set Global Variable", b.setGlobalVariable, []string{"name"}, nil, "values"},
		{"Get Variable Value", b.getVariableValue, []string{"name", "default"}, []any{nil}, ""},
		{"Variable Should Exist", b.variableShouldExist, []string{"name", "msg"}, []any{""}, ""},
		{"Run Keyword", b.runKeyword, []string{"name"}, nil, "args"},
		{"Run Keyword And Ignore Error", b.runKeywordAndIgnoreError, []string{"name"}, nil, "args"},
		{"Run Keyword And Expect Error", b.runKeywordAndExpectError, []string{"expected_error", "name"}, nil, "args"},
		{"Convert To Integer", convertToInteger, []string{"item", "base"}, []any{0}, ""},
		{"Sleep", sleep, []string{"time", "reason"}, []any{""}, ""},
		{"Get Count", getCount, []string{"container", "item"}, nil, ""},
		{"Catenate", catenate, nil, nil, "items"},
	}
	for _, r := range registrations {
		if err := lib.Register(r.name, r.fn, r.names, r.defaults, r.vararg); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

func (b *builtIn) current() (*execctx.Context, error) {
	ec := b.contexts.Current()
	if ec == nil {
		return nil, keyword.Fatal("No suite is running.")
	}
	return ec, nil
}

func (b *builtIn) log(message string, level string) error {
	ec, err := b.current()
	if err != nil {
		return err
	}
	level = strings.ToUpper(strings.TrimSpace(level))
	switch level {
	case execctx.LevelTrace, execctx.LevelDebug, execctx.LevelInfo, execctx.LevelWarn, execctx.LevelError:
	case "HTML":
		level = execctx.LevelInfo
	default:
		return fmt.Errorf("Invalid log level '%s'.", level)
	}
	ec.Output.Message(level, message)
	return nil
}

func fail(msg string) error {
	return keyword.Fail("%s", msg)
}

func fatalError(msg string) error {
	return keyword.Fatal("%s", msg)
}

func shouldBeEqual(first, second any, msg string) error {
	if equal(first, second) {
		return nil
	}
	return failure(msg, "%s != %s", variables.Stringify(first), variables.Stringify(second))
}

func shouldNotBeEqual(first, second any, msg string) error {
	if !equal(first, second) {
		return nil
	}
	return failure(msg, "%s == %s", variables.Stringify(first), variables.Stringify(second))
}

func shouldContain(container, item any, msg string) error {
	count, err := getCount(container, item)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return failure(msg, "'%s' does not contain '%s'", variables.Stringify(container), variables.Stringify(item))
}

// equal compares values of different numeric kinds by value, so that a
// number from a variable file equals the same number returned by a keyword.
func equal(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	return okA && okB && fa == fb
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func failure(msg string, format string, args ...any) error {
	if msg != "" {
		return keyword.Fail("%s", msg)
	}
	return keyword.Fail(format, args...)
}

// setVariable returns an empty string, the only value, or all values as a list
func setVariable(values ...any) any {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	default:
		return values
	}
}

// variableValue decides the value Set X Variable keywords assign. Without
// values the variable's current value is used.
func variableValue(vars *variables.Variables, name string, values []any) (any, error) {
	if !strings.HasPrefix(name, "${") && !strings.HasPrefix(name, "@{") {
		return nil, keyword.Fail("Invalid variable name '%s'.", name)
	}
	if len(values) == 0 {
		return vars.Get(name)
	}
	if name[0] == '@' {
		return values, nil
	}
	return setVariable(values...), nil
}

func (b *builtIn) setTestVariable(name string, values ...any) error {
	ec, err := b.current()
	if err != nil {
		return err
	}
	test := ec.Namespace.TestVariables()
	if test == nil {
		return keyword.Fail("Cannot set test variable '%s' when no test is started.", name)
	}
	value, err := variableValue(ec.Variables(), name, values)
	if err != nil {
		return err
	}
	test.Set(name, value)
	ec.Variables().Set(name, value)
	return nil
}

func (b *builtIn) setSuiteVariable(name string, values ...any) error {
	ec, err := b.current()
	if err != nil {
		return err
	}
	value, err := variableValue(ec.Variables(), name, values)
	if err != nil {
		return err
	}
	ec.Namespace.Variables.Set(name, value)
	if test := ec.Namespace.TestVariables(); test != nil {
		test.Set(name, value)
	}
	ec.Variables().Set(name, value)
	return nil
}

func (b *builtIn) setGlobalVariable(name string, values ...any) error {
	ec, err := b.current()
	if err != nil {
		return err
	}
	value, err := variableValue(ec.Variables(), name, values)
	if err != nil {
		return err
	}
	b.contexts.SetGlobal(b.globals, name, value)
	if test := ec.Namespace.TestVariables(); test != nil {
		test.Set(name, value)
	}
	ec.Variables().Set(name, value)
	return nil
}

func (b *builtIn) getVariableValue(name string, def any) (any, error) {
	ec, err := b.current()
	if err != nil {
		return nil, err
	}
	value, err := ec.Variables().Get(name)
	if err != nil {
		if keyword.IsFatal(err) {
			return nil, err
		}
		return def, nil
	}
	return value, nil
}

func (b *builtIn) variableShouldExist(name string, msg string) error {
	ec, err := b.current()
	if err != nil {
		return err
	}
	if _, err := ec.Variables().Get(name); err != nil {
		return failure(msg, "Variable %s does not exist.", name)
	}
	return nil
}

func (b *builtIn) runKeyword(ctx context.Context, name string, args ...any) (any, error) {
	return b.runner.RunKeyword(ctx, name, args)
}

// runKeywordAndIgnoreError returns ["PASS", value] or ["FAIL", message].
// Fatal failures are never ignored.
func (b *builtIn) runKeywordAndIgnoreError(ctx context.Context, name string, args ...any) ([]any, error) {
	value, err := b.runner.RunKeyword(ctx, name, args)
	if err == nil {
		return []any{types.StatusPass.String(), value}, nil
	}
	if keyword.IsFatal(err) {
		return nil, err
	}
	return []any{types.StatusFail.String(), keyword.Message(err)}, nil
}

// runKeywordAndExpectError passes when the keyword fails with a message
// matching expected, which may contain glob wildcards.
func (b *builtIn) runKeywordAndExpectError(ctx context.Context, expected string, name string, args ...any) (string, error) {
	_, err := b.runner.RunKeyword(ctx, name, args)
	if err == nil {
		return "", keyword.Fail("Expected error '%s' did not occur.", expected)
	}
	if keyword.IsFatal(err) {
		return "", err
	}
	msg := keyword.Message(err)
	if msg == expected {
		return msg, nil
	}
	if ok, matchErr := path.Match(expected, msg); matchErr == nil && ok {
		return msg, nil
	}
	return "", keyword.Fail("Expected error '%s' but got '%s'.", expected, msg)
}

func convertToInteger(item any, base int) (int64, error) {
	switch v := item.(type) {
	case string:
		s := strings.TrimSpace(v)
		if base == 0 {
			s = strings.ToLower(s)
		}
		i, err := strconv.ParseInt(s, base, 64)
		if err != nil {
			return 0, keyword.Fail("'%s' cannot be converted to an integer.", v)
		}
		return i, nil
	default:
		if f, ok := toFloat(item); ok {
			return int64(f), nil
		}
		return 0, keyword.Fail("'%s' cannot be converted to an integer.", variables.Stringify(item))
	}
}

// sleep pauses until the duration passes or ctx is done; a test timeout
// expiring during the sleep fails the keyword with the timeout's cause.
func sleep(ctx context.Context, d time.Duration, reason string) error {
	if d < 0 {
		d = 0
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

func getCount(container, item any) (int, error) {
	if s, ok := container.(string); ok {
		return strings.Count(s, variables.Stringify(item)), nil
	}
	rv := reflect.ValueOf(container)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		count := 0
		for i := 0; i < rv.Len(); i++ {
			if equal(rv.Index(i).Interface(), item) {
				count++
			}
		}
		return count, nil
	case reflect.Map:
		count := 0
		for _, k := range rv.MapKeys() {
			if equal(k.Interface(), item) {
				count++
			}
		}
		return count, nil
	}
	return 0, keyword.Fail("Converting '%s' to list failed.", variables.Stringify(container))
}

// catenate joins items with a space, or with the separator given as a
// leading "SEPARATOR=<sep>" item.
func catenate(items ...string) string {
	sep := " "
	if len(items) > 0 && strings.HasPrefix(items[0], "SEPARATOR=") {
		sep = strings.TrimPrefix(items[0], "SEPARATOR=")
		items = items[1:]
	}
	return strings.Join(items, sep)
}
