package arguments

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapScope struct {
	values map[string]any
}

func newMapScope(values map[string]any) *mapScope {
	if values == nil {
		values = map[string]any{}
	}
	return &mapScope{values: values}
}

func (s *mapScope) Set(name string, value any) {
	s.values[name] = value
}

func (s *mapScope) ReplaceScalar(value any) (any, error) {
	str, ok := value.(string)
	if !ok || !strings.HasPrefix(str, "${") {
		return value, nil
	}
	v, ok := s.values[str]
	if !ok {
		return nil, errors.New("Non-existing variable '" + str + "'.")
	}
	return v, nil
}

func userKeywordArgs(t *testing.T, tokens ...string) UserKeywordArguments {
	t.Helper()
	spec, err := FromUserKeyword(tokens)
	require.NoError(t, err)
	return NewUserKeywordArguments(spec)
}

func TestSetTo(t *testing.T) {
	t.Run("positional and defaults", func(t *testing.T) {
		args := userKeywordArgs(t, "${a}", "${b}=default")
		scope := newMapScope(nil)
		require.NoError(t, args.SetTo(scope, []any{"x"}))
		assert.Equal(t, "x", scope.values["${a}"])
		assert.Equal(t, "default", scope.values["${b}"])
	})

	t.Run("named overrides default", func(t *testing.T) {
		args := userKeywordArgs(t, "${a}", "${b}=1", "${c}=2")
		scope := newMapScope(nil)
		require.NoError(t, args.SetTo(scope, []any{"x", "c=3"}))
		assert.Equal(t, "x", scope.values["${a}"])
		assert.Equal(t, "1", scope.values["${b}"])
		assert.Equal(t, "3", scope.values["${c}"])
	})

	t.Run("defaults are substituted in scope", func(t *testing.T) {
		args := userKeywordArgs(t, "${a}=${HOST}")
		scope := newMapScope(map[string]any{"${HOST}": "localhost"})
		require.NoError(t, args.SetTo(scope, nil))
		assert.Equal(t, "localhost", scope.values["${a}"])
	})

	t.Run("varargs collect the tail", func(t *testing.T) {
		args := userKeywordArgs(t, "${a}", "@{rest}")
		scope := newMapScope(nil)
		require.NoError(t, args.SetTo(scope, []any{"1", "2", "3"}))
		assert.Equal(t, "1", scope.values["${a}"])
		assert.Equal(t, []any{"2", "3"}, scope.values["@{rest}"])
	})

	t.Run("empty varargs", func(t *testing.T) {
		args := userKeywordArgs(t, "@{rest}")
		scope := newMapScope(nil)
		require.NoError(t, args.SetTo(scope, nil))
		assert.Equal(t, []any{}, scope.values["@{rest}"])
	})

	t.Run("failed default binds nothing", func(t *testing.T) {
		args := userKeywordArgs(t, "${a}", "${b}=${missing}")
		scope := newMapScope(nil)
		require.Error(t, args.SetTo(scope, []any{"x"}))
		assert.Empty(t, scope.values)
	})

	t.Run("arity error binds nothing", func(t *testing.T) {
		args := userKeywordArgs(t, "${a}", "${b}")
		scope := newMapScope(nil)
		err := args.SetTo(scope, []any{"x"})
		var countErr *ArgumentCountError
		require.ErrorAs(t, err, &countErr)
		assert.Empty(t, scope.values)
	})
}

func TestUnsetSlot(t *testing.T) {
	u := Unset{Name: "${a}"}
	assert.True(t, IsUnset(u))
	assert.False(t, IsUnset("${a}"))

	err := u.Err()
	assert.True(t, IsMissingArgument(err))
	assert.False(t, IsResolutionError(err))
	assert.Contains(t, err.Error(), "${a}")
}
