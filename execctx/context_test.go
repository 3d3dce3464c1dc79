package execctx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-keyword/keyword"
	"github.com/ethereum-optimism/infra/op-keyword/namespace"
	"github.com/ethereum-optimism/infra/op-keyword/types"
	"github.com/ethereum-optimism/infra/op-keyword/variables"
)

func newNamespace(name string) *namespace.Namespace {
	return namespace.New(&types.SuiteResult{Name: name}, variables.New(), nil)
}

func TestStackPushPop(t *testing.T) {
	cs := New()
	assert.Nil(t, cs.Current())
	assert.Nil(t, cs.Top())
	assert.Equal(t, 0, cs.Len())

	var pushed []*Context
	for _, name := range []string{"root", "child", "grandchild"} {
		pushed = append(pushed, cs.StartSuite(newNamespace(name), nil, false))
		assert.Same(t, pushed[len(pushed)-1], cs.Current())
		assert.Same(t, pushed[0], cs.Top())
	}
	assert.Equal(t, 3, cs.Len())
	assert.Equal(t, pushed, cs.All())
	assert.Equal(t, "root > child > grandchild", cs.Names())

	for i := len(pushed) - 1; i >= 0; i-- {
		assert.Same(t, pushed[i], cs.Current())
		require.NoError(t, cs.EndSuite())
	}
	assert.Equal(t, 0, cs.Len())
	assert.ErrorIs(t, cs.EndSuite(), ErrStackEmpty)
}

func TestStartedKeywordsCeiling(t *testing.T) {
	ctx := New().StartSuite(newNamespace("root"), nil, false)
	for i := 0; i < MaxStartedKeywords; i++ {
		require.NoError(t, ctx.StartKeyword(), "keyword %d", i+1)
	}
	assert.Equal(t, MaxStartedKeywords, ctx.StartedKeywords())

	err := ctx.StartKeyword()
	require.Error(t, err)
	assert.True(t, keyword.IsFatal(err))
	assert.Equal(t, "Maximum limit of started keywords exceeded.", err.Error())
	assert.Equal(t, MaxStartedKeywords, ctx.StartedKeywords())

	require.NoError(t, ctx.EndKeyword())
	assert.NoError(t, ctx.StartKeyword())
}

func TestEndKeywordWithoutStart(t *testing.T) {
	ctx := New().StartSuite(newNamespace("root"), nil, false)
	require.NoError(t, ctx.StartKeyword())
	require.NoError(t, ctx.EndKeyword())

	assert.ErrorIs(t, ctx.EndKeyword(), ErrNoStartedKeyword)
	assert.Equal(t, 0, ctx.StartedKeywords())
}

func TestInTeardown(t *testing.T) {
	ns := newNamespace("root")
	ctx := New().StartSuite(ns, nil, false)
	assert.False(t, ctx.InTeardown())

	t.Run("suite teardown", func(t *testing.T) {
		var during bool
		err := ctx.InSuiteTeardown(func() error {
			during = ctx.InTeardown()
			return errors.New("failed")
		})
		assert.Error(t, err)
		assert.True(t, during)
		assert.False(t, ctx.IsSuiteTeardown())
	})

	t.Run("keyword teardown", func(t *testing.T) {
		ctx.StartKeywordTeardown(keyword.Fail("kw failed"))
		assert.True(t, ctx.InTeardown())
		status, err := ctx.Variables().Get("${KEYWORD_STATUS}")
		require.NoError(t, err)
		assert.Equal(t, "FAIL", status)
		msg, err := ctx.Variables().Get("${KEYWORD_MESSAGE}")
		require.NoError(t, err)
		assert.Equal(t, "kw failed", msg)
		ctx.EndKeywordTeardown()
		assert.False(t, ctx.InTeardown())
	})

	t.Run("test teardown", func(t *testing.T) {
		test := ns.Suite.CreateTest("T")
		test.Status = types.StatusRunning
		ns.StartTest(test)
		assert.False(t, ctx.InTeardown())
		test.Status = types.StatusFail
		assert.True(t, ctx.InTeardown())
		ns.EndTest()
	})
}

func TestVariableChannel(t *testing.T) {
	cs := New()
	root := cs.StartSuite(newNamespace("Root"), nil, false)
	childNs := namespace.New(root.Namespace.Suite.CreateSuite("Child"), root.Namespace.Variables.NewChild(), nil)
	child := cs.StartSuite(childNs, nil, false)

	child.SetSuiteVariables(childNs.Suite)
	name, err := child.Variables().Get("${SUITE_NAME}")
	require.NoError(t, err)
	assert.Equal(t, "Root.Child", name)

	test := childNs.Suite.CreateTest("Last")
	test.Status = types.StatusPass
	childNs.StartTest(test)
	child.SetTestVariables(test)
	tags, err := child.Variables().Get("@{TEST_TAGS}")
	require.NoError(t, err)
	assert.Equal(t, []any{}, tags)
	childNs.EndTest()

	child.SetPrevTestVariables(test)
	globals := variables.New()
	cs.CopyPrevTestVarsToGlobal(globals)

	for _, vars := range []*variables.Variables{globals, root.Namespace.Variables} {
		value, err := vars.Get("${PREV_TEST_NAME}")
		require.NoError(t, err)
		assert.Equal(t, "Root.Child.Last", value)
		status, err := vars.Get("${PREV_TEST_STATUS}")
		require.NoError(t, err)
		assert.Equal(t, "PASS", status)
	}

	root.ReportSuiteStatus(types.StatusFail, "boom")
	msg, err := root.Namespace.Variables.Get("${SUITE_MESSAGE}")
	require.NoError(t, err)
	assert.Equal(t, "boom", msg)
}
