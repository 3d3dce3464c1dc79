package variables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVariables() *Variables {
	v := New()
	v.Set("${name}", "world")
	v.Set("${num}", 42)
	v.Set("@{list}", []any{"a", "b"})
	v.Set("${key}", "name")
	return v
}

func TestReplaceString(t *testing.T) {
	v := newTestVariables()
	tests := []struct {
		in   string
		want string
	}{
		{in: "hello ${name}", want: "hello world"},
		{in: "${num} items", want: "42 items"},
		{in: "${name}${name}", want: "worldworld"},
		{in: "nested ${${key}}", want: "nested world"},
		{in: `escaped \${name}`, want: "escaped ${name}"},
		{in: `keeps a\=b`, want: `keeps a\=b`},
		{in: "unclosed ${name", want: "unclosed ${name"},
		{in: "no variables", want: "no variables"},
		{in: "list @{list}", want: "list [a b]"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := v.ReplaceString(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReplaceStringMissing(t *testing.T) {
	v := newTestVariables()
	_, err := v.ReplaceString("hello ${nobody}")
	assert.EqualError(t, err, "Non-existing variable '${nobody}'.")
}

func TestReplaceScalarKeepsObjects(t *testing.T) {
	v := newTestVariables()

	value, err := v.ReplaceScalar("${num}")
	require.NoError(t, err)
	assert.Equal(t, 42, value)

	value, err = v.ReplaceScalar("@{list}")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, value)

	value, err = v.ReplaceScalar("${num}!")
	require.NoError(t, err)
	assert.Equal(t, "42!", value)

	value, err = v.ReplaceScalar(7)
	require.NoError(t, err)
	assert.Equal(t, 7, value)

	value, err = v.ReplaceScalar([]any{"${name}", map[string]any{"k": "${num}"}})
	require.NoError(t, err)
	assert.Equal(t, []any{"world", map[string]any{"k": 42}}, value)
}

func TestReplaceList(t *testing.T) {
	v := newTestVariables()
	got, err := v.ReplaceList([]any{"first", "@{list}", "${num}", `\@{list}`})
	require.NoError(t, err)
	assert.Equal(t, []any{"first", "a", "b", 42, "@{list}"}, got)

	_, err = v.ReplaceList([]any{"@{name}"})
	assert.Error(t, err)
}

func TestEnvironmentVariables(t *testing.T) {
	t.Setenv("OP_KEYWORD_TEST_ENV", "from-env")
	v := New()

	got, err := v.ReplaceString("%{OP_KEYWORD_TEST_ENV}")
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)

	got, err = v.ReplaceString("%{OP_KEYWORD_UNSET_ENV=fallback}")
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)

	_, err = v.ReplaceString("%{OP_KEYWORD_UNSET_ENV}")
	var varErr *VariableError
	assert.ErrorAs(t, err, &varErr)
}

func TestContainsVariable(t *testing.T) {
	assert.True(t, ContainsVariable("a ${b}"))
	assert.False(t, ContainsVariable(`a \${b}`))
	assert.False(t, ContainsVariable("plain"))
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "None", Stringify(nil))
	assert.Equal(t, "True", Stringify(true))
	assert.Equal(t, "1.5", Stringify(1.5))
}
