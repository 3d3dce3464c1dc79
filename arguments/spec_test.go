package arguments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFunc(t *testing.T) {
	t.Run("fixed arguments with defaults", func(t *testing.T) {
		fn := func(a string, b int, c bool) {}
		spec, err := FromFunc(fn, []string{"a", "b", "c"}, []any{2, true}, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, spec.Names)
		assert.Equal(t, 1, spec.MinArgs)
		assert.Equal(t, 3, spec.MaxArgs)
		assert.False(t, spec.HasVararg())
	})

	t.Run("context parameter is implicit", func(t *testing.T) {
		fn := func(ctx context.Context, a string) error { return nil }
		spec, err := FromFunc(fn, []string{"a"}, nil, "")
		require.NoError(t, err)
		assert.Equal(t, 1, spec.MinArgs)
		assert.Equal(t, 1, spec.MaxArgs)
	})

	t.Run("variadic collects into vararg", func(t *testing.T) {
		fn := func(a string, rest ...string) {}
		spec, err := FromFunc(fn, []string{"a"}, nil, "")
		require.NoError(t, err)
		assert.Equal(t, "args", spec.Vararg)
		assert.Equal(t, 1, spec.MinArgs)
		assert.Equal(t, Unbounded, spec.MaxArgs)
	})

	t.Run("name count must match arity", func(t *testing.T) {
		_, err := FromFunc(func(a, b string) {}, []string{"a"}, nil, "")
		var specErr *ArgumentSpecError
		require.ErrorAs(t, err, &specErr)
	})

	t.Run("not a function", func(t *testing.T) {
		_, err := FromFunc("nope", nil, nil, "")
		assert.Error(t, err)
	})

	t.Run("vararg on non-variadic function", func(t *testing.T) {
		_, err := FromFunc(func(a string) {}, []string{"a"}, nil, "rest")
		assert.Error(t, err)
	})
}

func TestFromOverloads(t *testing.T) {
	tests := []struct {
		name string
		sigs []Signature
		min  int
		max  int
	}{
		{name: "single", sigs: []Signature{{Params: 2}}, min: 2, max: 2},
		{name: "single variadic", sigs: []Signature{{Params: 2, Variadic: true}}, min: 1, max: Unbounded},
		{name: "band", sigs: []Signature{{Params: 1}, {Params: 3}, {Params: 2}}, min: 1, max: 3},
		{name: "gap is accepted", sigs: []Signature{{Params: 1}, {Params: 3}}, min: 1, max: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := FromOverloads(tt.sigs...)
			require.NoError(t, err)
			assert.Equal(t, tt.min, spec.MinArgs)
			assert.Equal(t, tt.max, spec.MaxArgs)
			assert.Empty(t, spec.Names)
		})
	}

	_, err := FromOverloads()
	assert.Error(t, err)
}

func TestFromTokens(t *testing.T) {
	t.Run("full grammar", func(t *testing.T) {
		spec, err := FromTokens([]string{"arg", "opt=default", "*rest"})
		require.NoError(t, err)
		assert.Equal(t, []string{"arg", "opt"}, spec.Names)
		assert.Equal(t, []any{"default"}, spec.Defaults)
		assert.Equal(t, "rest", spec.Vararg)
		assert.Equal(t, 1, spec.MinArgs)
		assert.Equal(t, Unbounded, spec.MaxArgs)
	})

	t.Run("no introspection accepts anything", func(t *testing.T) {
		spec, err := FromTokens(nil)
		require.NoError(t, err)
		assert.Equal(t, 0, spec.MinArgs)
		assert.Equal(t, Unbounded, spec.MaxArgs)
		assert.Equal(t, UnknownVararg, spec.Vararg)
	})

	t.Run("empty list means no arguments", func(t *testing.T) {
		spec, err := FromTokens([]string{})
		require.NoError(t, err)
		assert.Equal(t, 0, spec.MinArgs)
		assert.Equal(t, 0, spec.MaxArgs)
	})

	for name, tokens := range map[string][]string{
		"mandatory after optional": {"a=1", "b"},
		"vararg not last":          {"*rest", "a"},
		"two varargs":              {"*a", "*b"},
		"duplicate names":          {"a", "a=1"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := FromTokens(tokens)
			var specErr *ArgumentSpecError
			assert.ErrorAs(t, err, &specErr)
		})
	}
}

func TestFromUserKeyword(t *testing.T) {
	spec, err := FromUserKeyword([]string{"${a}", "${b}=2", "@{rest}"})
	require.NoError(t, err)
	assert.Equal(t, []string{"${a}", "${b}"}, spec.Names)
	assert.Equal(t, []any{"2"}, spec.Defaults)
	assert.Equal(t, "@{rest}", spec.Vararg)
	assert.Equal(t, 1, spec.MinArgs)
	assert.Equal(t, Unbounded, spec.MaxArgs)

	for _, tokens := range [][]string{
		{"a"},
		{"${a}=1", "${b}"},
		{"@{rest}", "${a}"},
		{"${a}", "${a}"},
	} {
		_, err := FromUserKeyword(tokens)
		assert.Error(t, err, "%v", tokens)
	}
}

func TestCheckArity(t *testing.T) {
	spec, err := FromTokens([]string{"a", "b=1"})
	require.NoError(t, err)
	spec.Name = "My Keyword"

	assert.NoError(t, spec.CheckArity(1))
	assert.NoError(t, spec.CheckArity(2))

	err = spec.CheckArity(3)
	var countErr *ArgumentCountError
	require.ErrorAs(t, err, &countErr)
	assert.Equal(t, "Keyword 'My Keyword' expected 1 to 2 arguments, got 3.", err.Error())

	exact, err := FromTokens([]string{"a"})
	require.NoError(t, err)
	exact.Name = "Exact"
	assert.EqualError(t, exact.CheckArity(0), "Keyword 'Exact' expected 1 argument, got 0.")

	atLeast, err := FromTokens([]string{"a", "b", "*c"})
	require.NoError(t, err)
	atLeast.Name = "Many"
	assert.EqualError(t, atLeast.CheckArity(1), "Keyword 'Many' expected at least 2 arguments, got 1.")
}

func TestSpecString(t *testing.T) {
	spec, err := FromTokens([]string{"a", "b=1", "*c"})
	require.NoError(t, err)
	assert.Equal(t, "[a | b=1 | *c]", spec.String())
}
