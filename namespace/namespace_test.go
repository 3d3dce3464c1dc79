package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-keyword/keyword"
	"github.com/ethereum-optimism/infra/op-keyword/library"
	"github.com/ethereum-optimism/infra/op-keyword/types"
	"github.com/ethereum-optimism/infra/op-keyword/variables"
)

func newLib(t *testing.T, name string, keywords ...string) *library.Library {
	t.Helper()
	lib := library.New(name)
	for _, kw := range keywords {
		require.NoError(t, lib.Register(kw, func() {}, nil, nil, ""))
	}
	return lib
}

func newTestNamespace(t *testing.T, libs ...keyword.Source) *Namespace {
	t.Helper()
	suite := &types.SuiteResult{Name: "Suite"}
	return New(suite, variables.New(), []types.UserKeywordModel{
		{Name: "My Keyword", Args: []string{"${a}"}},
		{Name: "Shared", Args: nil},
		{Name: "Broken", Args: []string{"a"}},
	}, libs...)
}

func TestHandlerLookupOrder(t *testing.T) {
	ns := newTestNamespace(t,
		newLib(t, BuiltInName, "Log", "Shared"),
		newLib(t, "Custom", "Log", "Only Here"),
		newLib(t, "Other", "Only Here"),
	)

	t.Run("user keyword first", func(t *testing.T) {
		h, err := ns.Handler("shared")
		require.NoError(t, err)
		assert.True(t, h.IsUserKeyword())
		assert.Equal(t, "Shared", h.Name)
	})

	t.Run("full name", func(t *testing.T) {
		h, err := ns.Handler("BuiltIn.Log")
		require.NoError(t, err)
		assert.Equal(t, BuiltInName, h.Library)
		assert.Equal(t, "BuiltIn.Log", h.Name)
	})

	t.Run("custom library wins over BuiltIn", func(t *testing.T) {
		h, err := ns.Handler("LOG")
		require.NoError(t, err)
		assert.Equal(t, "Custom.Log", h.Name)
	})

	t.Run("ambiguous", func(t *testing.T) {
		_, err := ns.Handler("Only Here")
		require.Error(t, err)
		assert.True(t, keyword.IsAssertion(err))
		assert.Contains(t, err.Error(), "Multiple keywords with name 'Only Here' found.")
		assert.Contains(t, err.Error(), "'Custom.Only Here' and 'Other.Only Here'")
	})

	t.Run("missing", func(t *testing.T) {
		_, err := ns.Handler("Nope")
		assert.EqualError(t, err, "No keyword with name 'Nope' found.")
	})

	t.Run("invalid user keyword", func(t *testing.T) {
		h, err := ns.Handler("Broken")
		require.NoError(t, err)
		assert.Error(t, h.UserKeyword.Err)
	})
}

func TestHandlerCache(t *testing.T) {
	ns := newTestNamespace(t, newLib(t, "Lib", "Kw"))
	first, err := ns.Handler("Kw")
	require.NoError(t, err)
	second, err := ns.Handler("k w")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	ns.AddLibrary(newLib(t, "Late", "Late Kw"))
	_, err = ns.Handler("Late Kw")
	assert.NoError(t, err)
}

func TestUserKeywordSpec(t *testing.T) {
	ns := newTestNamespace(t)
	h, err := ns.Handler("my keyword")
	require.NoError(t, err)
	assert.Equal(t, []string{"${a}"}, h.Spec.Names)
	assert.Equal(t, "My Keyword", h.Spec.Name)
}

func TestVariableScopes(t *testing.T) {
	ns := newTestNamespace(t)
	ns.Variables.Set("${suite}", "s")
	assert.Same(t, ns.Variables, ns.Current())

	test := ns.Suite.CreateTest("T")
	ns.StartTest(test)
	assert.Same(t, test, ns.Test)
	ns.Current().Set("${test}", "t")

	kwScope := ns.StartUserKeyword()
	assert.Same(t, kwScope, ns.Current())
	kwScope.Set("${local}", "l")
	assert.True(t, kwScope.Has("${suite}"))
	assert.True(t, kwScope.Has("${test}"))

	inner := ns.StartUserKeyword()
	assert.False(t, inner.Has("${local}"))
	require.NoError(t, ns.EndUserKeyword())
	assert.Same(t, kwScope, ns.Current())
	require.NoError(t, ns.EndUserKeyword())
	assert.ErrorIs(t, ns.EndUserKeyword(), ErrNoKeywordScope)

	assert.True(t, ns.Current().Has("${test}"))
	assert.False(t, ns.Current().Has("${local}"))

	ns.EndTest()
	assert.Nil(t, ns.TestVariables())
	assert.False(t, ns.Current().Has("${test}"))
	assert.True(t, ns.Current().Has("${suite}"))
}
