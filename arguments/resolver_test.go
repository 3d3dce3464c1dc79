package arguments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTokens(t *testing.T, tokens ...string) ArgumentSpec {
	t.Helper()
	spec, err := FromTokens(tokens)
	require.NoError(t, err)
	return spec
}

func TestResolve(t *testing.T) {
	spec := mustTokens(t, "a=1", "b=2")

	tests := []struct {
		name       string
		values     []any
		positional []any
		named      map[string]any
	}{
		{
			name:       "named after positional",
			values:     []any{"x", "b=2"},
			positional: []any{"x"},
			named:      map[string]any{"b": "2"},
		},
		{
			name:       "named before positional stays positional",
			values:     []any{"a=1", "x"},
			positional: []any{"a=1", "x"},
			named:      map[string]any{},
		},
		{
			name:       "escaped separator",
			values:     []any{`a\=b`},
			positional: []any{"a=b"},
			named:      map[string]any{},
		},
		{
			name:       "unknown name is positional",
			values:     []any{"c=3"},
			positional: []any{"c=3"},
			named:      map[string]any{},
		},
		{
			name:       "non-string values are positional",
			values:     []any{42},
			positional: []any{42},
			named:      map[string]any{},
		},
		{
			name:       "all named",
			values:     []any{"b=x", "a=y"},
			positional: []any{},
			named:      map[string]any{"a": "y", "b": "x"},
		},
		{
			name:       "value keeps later separators",
			values:     []any{"b=x=y"},
			positional: []any{},
			named:      map[string]any{"b": "x=y"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := Resolve(spec, tt.values, LibraryStyle)
			require.NoError(t, err)
			assert.Equal(t, tt.positional, resolved.Positional)
			assert.Equal(t, tt.named, resolved.Named)
		})
	}
}

func TestResolveMandatoryPrefixIsPositional(t *testing.T) {
	spec := mustTokens(t, "a", "b=1")
	resolved, err := Resolve(spec, []any{"b=5"}, LibraryStyle)
	require.NoError(t, err)
	assert.Equal(t, []any{"b=5"}, resolved.Positional)
	assert.Empty(t, resolved.Named)
}

func TestResolveDuplicateNamed(t *testing.T) {
	spec := mustTokens(t, "a=1", "b=2")
	_, err := Resolve(spec, []any{"b=1", "b=2"}, LibraryStyle)
	var dupErr *DuplicateNamedArgumentError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "b", dupErr.Name)
	assert.True(t, IsResolutionError(err))
}

func TestResolveArity(t *testing.T) {
	spec := mustTokens(t, "a", "b=1")
	spec.Name = "Kw"

	_, err := Resolve(spec, []any{}, LibraryStyle)
	var countErr *ArgumentCountError
	require.ErrorAs(t, err, &countErr)
	assert.Equal(t, 0, countErr.Got)

	_, err = Resolve(spec, []any{"1", "2", "3"}, LibraryStyle)
	require.ErrorAs(t, err, &countErr)
	assert.Equal(t, 3, countErr.Got)
}

func TestResolveUserKeywordStyle(t *testing.T) {
	spec, err := FromUserKeyword([]string{"${a}=1", "${b}=2"})
	require.NoError(t, err)

	resolved, err := Resolve(spec, []any{"x", "b=y"}, UserKeywordStyle)
	require.NoError(t, err)
	assert.Equal(t, []any{"x"}, resolved.Positional)
	assert.Equal(t, map[string]any{"${b}": "y"}, resolved.Named)

	resolved, err = Resolve(spec, []any{`b\=y`}, UserKeywordStyle)
	require.NoError(t, err)
	assert.Equal(t, []any{"b=y"}, resolved.Positional)
}

func TestResolveDoesNotModifyInput(t *testing.T) {
	spec := mustTokens(t, "a", "b=1")
	values := []any{"x", `b\=y`}
	_, err := Resolve(spec, values, LibraryStyle)
	require.NoError(t, err)
	assert.Equal(t, []any{"x", `b\=y`}, values)
}
