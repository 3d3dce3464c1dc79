package library

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-keyword/arguments"
	"github.com/ethereum-optimism/infra/op-keyword/keyword"
)

func newTestLibrary(t *testing.T) *Library {
	t.Helper()
	lib := New("Example")
	require.NoError(t, lib.Register("Join", func(a string, b string, sep string) string {
		return a + sep + b
	}, []string{"a", "b", "sep"}, []any{"-"}, ""))
	require.NoError(t, lib.Register("Add Numbers", func(ctx context.Context, a int, b int) (int, error) {
		return a + b, nil
	}, []string{"a", "b"}, []any{10}, ""))
	require.NoError(t, lib.Register("Count Args", func(first string, rest ...string) int {
		return 1 + len(rest)
	}, []string{"first"}, nil, "rest"))
	require.NoError(t, lib.Register("Failing", func() error {
		return keyword.Fail("expected failure")
	}, nil, nil, ""))
	require.NoError(t, lib.Register("Panicking", func() {
		panic("boom")
	}, nil, nil, ""))
	require.NoError(t, lib.Register("Wait", func(d time.Duration, ok bool) time.Duration {
		return d
	}, []string{"d", "ok"}, []any{"true"}, ""))
	return lib
}

func TestLibrarySpecs(t *testing.T) {
	lib := newTestLibrary(t)
	assert.Equal(t, []string{"Join", "Add Numbers", "Count Args", "Failing", "Panicking", "Wait"}, lib.KeywordNames())

	spec, ok := lib.Spec("add_numbers")
	require.True(t, ok)
	assert.Equal(t, "Add Numbers", spec.Name)
	assert.Equal(t, 1, spec.MinArgs)
	assert.Equal(t, 2, spec.MaxArgs)

	_, ok = lib.Spec("missing")
	assert.False(t, ok)
}

func TestInvoke(t *testing.T) {
	lib := newTestLibrary(t)
	ctx := context.Background()

	t.Run("defaults are filled", func(t *testing.T) {
		out, err := lib.Invoke(ctx, "Join", []any{"x", "y"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "x-y", out)
	})

	t.Run("named override default", func(t *testing.T) {
		out, err := lib.Invoke(ctx, "join", []any{"x", "y"}, map[string]any{"sep": "+"})
		require.NoError(t, err)
		assert.Equal(t, "x+y", out)
	})

	t.Run("strings converted to parameter types", func(t *testing.T) {
		out, err := lib.Invoke(ctx, "Add Numbers", []any{"1", int64(2)}, nil)
		require.NoError(t, err)
		assert.Equal(t, 3, out)

		out, err = lib.Invoke(ctx, "Add Numbers", []any{"0x10"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 26, out)
	})

	t.Run("conversion failure", func(t *testing.T) {
		_, err := lib.Invoke(ctx, "Add Numbers", []any{"abc"}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be converted to an integer")
	})

	t.Run("varargs", func(t *testing.T) {
		out, err := lib.Invoke(ctx, "Count Args", []any{"a", "b", "c"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 3, out)
	})

	t.Run("durations", func(t *testing.T) {
		out, err := lib.Invoke(ctx, "Wait", []any{"1.5"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 1500*time.Millisecond, out)

		out, err = lib.Invoke(ctx, "Wait", []any{"2m", "false"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 2*time.Minute, out)
	})

	t.Run("multiple values for argument", func(t *testing.T) {
		_, err := lib.Invoke(ctx, "Join", []any{"x", "y"}, map[string]any{"b": "z"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "got multiple values for argument 'b'")
	})

	t.Run("returned error", func(t *testing.T) {
		_, err := lib.Invoke(ctx, "Failing", nil, nil)
		assert.True(t, keyword.IsAssertion(err))
	})

	t.Run("panic becomes failure", func(t *testing.T) {
		_, err := lib.Invoke(ctx, "Panicking", nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panicked: boom")
		assert.False(t, keyword.IsFatal(err))
	})
}

func TestRegisterErrors(t *testing.T) {
	lib := New("Bad")
	assert.Error(t, lib.Register("Names", func(a string) {}, []string{"a", "b"}, nil, ""))
	assert.Error(t, lib.Register("Results", func() (int, int) { return 0, 0 }, nil, nil, ""))
	require.NoError(t, lib.Register("Once", func() {}, nil, nil, ""))
	assert.Error(t, lib.Register("once", func() {}, nil, nil, ""))
	assert.Panics(t, func() { lib.MustRegister("ONCE", func() {}, nil, nil, "") })
}

func TestOverloads(t *testing.T) {
	lib := New("Overloaded")
	require.NoError(t, lib.RegisterOverloads("Describe",
		func(a string) string { return "one:" + a },
		func(a, b, c string) string { return "three:" + strings.Join([]string{a, b, c}, ",") },
	))

	spec, ok := lib.Spec("Describe")
	require.True(t, ok)
	assert.Equal(t, 1, spec.MinArgs)
	assert.Equal(t, 3, spec.MaxArgs)

	out, err := lib.Invoke(context.Background(), "Describe", []any{"x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "one:x", out)

	out, err = lib.Invoke(context.Background(), "Describe", []any{"x", "y", "z"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "three:x,y,z", out)

	// Two arguments are inside the band but match no overload.
	require.NoError(t, spec.CheckArity(2))
	_, err = lib.Invoke(context.Background(), "Describe", []any{"x", "y"}, nil)
	var countErr *arguments.ArgumentCountError
	require.ErrorAs(t, err, &countErr)
	assert.Equal(t, "Keyword 'Describe' expected 1 to 3 arguments, got 2.", err.Error())
}

type fakeDynamic struct {
	calls []string
}

func (f *fakeDynamic) KeywordNames() []string {
	return []string{"Do Thing", "Anything"}
}

func (f *fakeDynamic) KeywordArguments(name string) []string {
	if name == "Do Thing" {
		return []string{"what", "how=fast"}
	}
	return nil
}

func (f *fakeDynamic) RunKeyword(ctx context.Context, name string, args []any, named map[string]any) (any, error) {
	f.calls = append(f.calls, name)
	if name == "Anything" && len(args) == 0 {
		return nil, errors.New("no args")
	}
	return len(args) + len(named), nil
}

func TestDynamic(t *testing.T) {
	fake := &fakeDynamic{}
	d, err := NewDynamic("Dyn", fake)
	require.NoError(t, err)
	assert.Equal(t, "Dyn", d.Name())
	assert.Equal(t, []string{"Do Thing", "Anything"}, d.KeywordNames())

	spec, ok := d.Spec("do thing")
	require.True(t, ok)
	assert.Equal(t, []string{"what", "how"}, spec.Names)
	assert.Equal(t, 1, spec.MinArgs)

	anything, ok := d.Spec("Anything")
	require.True(t, ok)
	assert.Equal(t, arguments.Unbounded, anything.MaxArgs)

	out, err := d.Invoke(context.Background(), "DO_THING", []any{"a"}, map[string]any{"how": "slow"})
	require.NoError(t, err)
	assert.Equal(t, 2, out)
	assert.Equal(t, []string{"Do Thing"}, fake.calls)

	_, err = d.Invoke(context.Background(), "Anything", nil, nil)
	assert.EqualError(t, err, "no args")
}
