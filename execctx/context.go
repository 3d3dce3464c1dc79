// Package execctx implements the stack of suite execution contexts. The
// innermost context owns the running suite's namespace and its bookkeeping
// of teardowns and started keywords.
package execctx

import (
	"errors"
	"strings"

	"github.com/emirpasic/gods/stacks/arraystack"

	"github.com/ethereum-optimism/infra/op-keyword/keyword"
	"github.com/ethereum-optimism/infra/op-keyword/namespace"
	"github.com/ethereum-optimism/infra/op-keyword/types"
	"github.com/ethereum-optimism/infra/op-keyword/variables"
)

// MaxStartedKeywords is the maximum number of keywords open at the same time in one context
const MaxStartedKeywords = 42

// ErrStackEmpty is returned when a suite is ended with no suite running
var ErrStackEmpty = errors.New("execution context stack is empty")

// ErrNoStartedKeyword is returned when a keyword is ended that was never started
var ErrNoStartedKeyword = errors.New("no started keyword to end")

var prevTestVariables = []string{"${PREV_TEST_NAME}", "${PREV_TEST_STATUS}", "${PREV_TEST_MESSAGE}"}

// Context is the execution state of one running suite
type Context struct {
	Namespace *namespace.Namespace
	Output    Output
	DryRun    bool

	inSuiteTeardown  bool
	keywordTeardowns int
	startedKeywords  int
}

// Variables returns the innermost active variable scope
func (c *Context) Variables() *variables.Variables {
	return c.Namespace.Current()
}

// InSuiteTeardown runs fn with the suite teardown flag set. The flag is reset
// when fn returns, also when it fails or panics.
func (c *Context) InSuiteTeardown(fn func() error) error {
	c.inSuiteTeardown = true
	defer func() { c.inSuiteTeardown = false }()
	return fn()
}

// IsSuiteTeardown reports whether the suite teardown is running
func (c *Context) IsSuiteTeardown() bool {
	return c.inSuiteTeardown
}

// StartKeywordTeardown marks a user keyword teardown as running and exposes
// the keyword's outcome as ${KEYWORD_STATUS} and ${KEYWORD_MESSAGE}.
func (c *Context) StartKeywordTeardown(err error) {
	status, message := types.StatusPass, ""
	if err != nil {
		status, message = types.StatusFail, keyword.Message(err)
	}
	vars := c.Variables()
	vars.Set("${KEYWORD_STATUS}", status.String())
	vars.Set("${KEYWORD_MESSAGE}", message)
	c.keywordTeardowns++
}

// EndKeywordTeardown marks the innermost user keyword teardown as finished
func (c *Context) EndKeywordTeardown() {
	if c.keywordTeardowns > 0 {
		c.keywordTeardowns--
	}
}

// InTeardown reports whether any teardown is running: the suite teardown,
// a user keyword teardown, or a test teardown (the test already has a verdict).
func (c *Context) InTeardown() bool {
	if c.inSuiteTeardown || c.keywordTeardowns > 0 {
		return true
	}
	test := c.Namespace.Test
	return test != nil && test.Status != types.StatusRunning
}

// StartKeyword registers a keyword as started. It fails with a framework error
// when MaxStartedKeywords keywords are already open, which stops runaway recursion.
func (c *Context) StartKeyword() error {
	if c.startedKeywords >= MaxStartedKeywords {
		return keyword.Fatal("Maximum limit of started keywords exceeded.")
	}
	c.startedKeywords++
	return nil
}

// EndKeyword registers a started keyword as finished
func (c *Context) EndKeyword() error {
	if c.startedKeywords == 0 {
		return ErrNoStartedKeyword
	}
	c.startedKeywords--
	return nil
}

// StartedKeywords returns the number of keywords currently open
func (c *Context) StartedKeywords() int {
	return c.startedKeywords
}

// SetSuiteVariables exposes the suite's name, source, documentation and metadata
func (c *Context) SetSuiteVariables(suite *types.SuiteResult) {
	vars := c.Namespace.Variables
	vars.Set("${SUITE_NAME}", suite.LongName())
	vars.Set("${SUITE_SOURCE}", suite.Source)
	vars.Set("${SUITE_DOCUMENTATION}", suite.Doc)
	metadata := make(map[string]any, len(suite.Metadata))
	for k, v := range suite.Metadata {
		metadata[k] = v
	}
	vars.Set("${SUITE_METADATA}", metadata)
}

// ReportSuiteStatus exposes the suite's verdict before its teardown runs
func (c *Context) ReportSuiteStatus(status types.Status, message string) {
	vars := c.Namespace.Variables
	vars.Set("${SUITE_STATUS}", status.String())
	vars.Set("${SUITE_MESSAGE}", message)
}

// SetTestVariables exposes the running test's name and tags in the test scope
func (c *Context) SetTestVariables(test *types.TestResult) {
	vars := c.Namespace.TestVariables()
	if vars == nil {
		vars = c.Namespace.Variables
	}
	vars.Set("${TEST_NAME}", test.Name)
	tags := make([]any, len(test.Tags))
	for i, tag := range test.Tags {
		tags[i] = tag
	}
	vars.Set("@{TEST_TAGS}", tags)
	vars.Set("${TEST_DOCUMENTATION}", test.Doc)
}

// SetTestStatusBeforeTeardown exposes the test's verdict to its teardown
func (c *Context) SetTestStatusBeforeTeardown(status types.Status, message string) {
	vars := c.Namespace.TestVariables()
	if vars == nil {
		vars = c.Namespace.Variables
	}
	vars.Set("${TEST_STATUS}", status.String())
	vars.Set("${TEST_MESSAGE}", message)
}

// SetPrevTestVariables exposes the finished test to the rest of the suite
func (c *Context) SetPrevTestVariables(test *types.TestResult) {
	vars := c.Namespace.Variables
	vars.Set("${PREV_TEST_NAME}", test.LongName())
	vars.Set("${PREV_TEST_STATUS}", test.Status.String())
	vars.Set("${PREV_TEST_MESSAGE}", test.Message)
}

// Warn sends a warning to the context's output
func (c *Context) Warn(msg string) {
	if c.Output != nil {
		c.Output.Message(LevelWarn, msg)
	}
}

// Contexts is the stack of running suites. The innermost suite is the current one.
type Contexts struct {
	stack *arraystack.Stack
}

// New returns an empty context stack
func New() *Contexts {
	return &Contexts{stack: arraystack.New()}
}

// Current returns the innermost context, or nil when no suite is running
func (cs *Contexts) Current() *Context {
	top, ok := cs.stack.Peek()
	if !ok {
		return nil
	}
	return top.(*Context)
}

// Top returns the outermost context, the root suite's, or nil
func (cs *Contexts) Top() *Context {
	values := cs.stack.Values()
	if len(values) == 0 {
		return nil
	}
	return values[len(values)-1].(*Context)
}

// Len returns the number of running suites
func (cs *Contexts) Len() int {
	return cs.stack.Size()
}

// All returns the running contexts from outermost to innermost
func (cs *Contexts) All() []*Context {
	values := cs.stack.Values()
	all := make([]*Context, len(values))
	for i, v := range values {
		all[len(values)-1-i] = v.(*Context)
	}
	return all
}

// StartSuite pushes the context of a suite starting to run
func (cs *Contexts) StartSuite(ns *namespace.Namespace, output Output, dryRun bool) *Context {
	if output == nil {
		output = NopOutput{}
	}
	ctx := &Context{Namespace: ns, Output: output, DryRun: dryRun}
	cs.stack.Push(ctx)
	return ctx
}

// EndSuite pops the innermost context
func (cs *Contexts) EndSuite() error {
	if _, ok := cs.stack.Pop(); !ok {
		return ErrStackEmpty
	}
	return nil
}

// SetGlobal sets a variable in globals and in the suite scope of every running
// suite, so the value is visible everywhere for the rest of the run.
func (cs *Contexts) SetGlobal(globals *variables.Variables, name string, value any) {
	if globals != nil {
		globals.Set(name, value)
	}
	for _, c := range cs.All() {
		c.Namespace.Variables.Set(name, value)
	}
}

// CopyPrevTestVarsToGlobal promotes the current suite's ${PREV_TEST_*}
// variables so that suites that run later see the last finished test.
func (cs *Contexts) CopyPrevTestVarsToGlobal(globals *variables.Variables) {
	current := cs.Current()
	if current == nil {
		return
	}
	for _, name := range prevTestVariables {
		value, err := current.Namespace.Variables.Get(name)
		if err != nil {
			continue
		}
		cs.SetGlobal(globals, name, value)
	}
}

// Names returns the long names of the running suites, outermost first
func (cs *Contexts) Names() string {
	names := make([]string, 0, cs.Len())
	for _, c := range cs.All() {
		names = append(names, c.Namespace.Suite.Name)
	}
	return strings.Join(names, " > ")
}
