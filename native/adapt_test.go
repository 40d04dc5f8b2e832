package native

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey struct{}

func TestFromFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fn       any
		params   []string
		args     []any
		expected any
	}{
		{
			name:     "two strings",
			fn:       func(a, b string) string { return a + b },
			params:   []string{"a", "b"},
			args:     []any{"foo", "bar"},
			expected: "foobar",
		},
		{
			name:     "number into int",
			fn:       func(n int) int { return n * 2 },
			args:     []any{21.0},
			expected: 42,
		},
		{
			name:     "null into pointer",
			fn:       func(s *string) bool { return s == nil },
			args:     []any{nil},
			expected: true,
		},
		{
			name:     "untyped argument",
			fn:       func(v any) any { return v },
			args:     []any{true},
			expected: true,
		},
		{
			name:     "no arguments",
			fn:       func() map[string]any { return map[string]any{"ok": true} },
			expected: map[string]any{"ok": true},
		},
		{
			name:     "value and nil error",
			fn:       func(s string) (int, error) { return len(s), nil },
			args:     []any{"four"},
			expected: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := FromFunc(tt.fn, tt.params...)
			require.NoError(t, err)

			result, err := f(context.Background(), tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestFromFunc_Context(t *testing.T) {
	t.Parallel()

	f, err := FromFunc(func(ctx context.Context, suffix string) string {
		return ctx.Value(ctxKey{}).(string) + suffix
	}, "suffix")
	require.NoError(t, err)

	ctx := context.WithValue(context.Background(), ctxKey{}, "value-")
	result, err := f(ctx, []any{"x"})
	require.NoError(t, err)
	assert.Equal(t, "value-x", result)
}

func TestFromFunc_PassThrough(t *testing.T) {
	t.Parallel()

	called := false
	var raw Func = func(ctx context.Context, args []any) (any, error) {
		called = true
		return len(args), nil
	}

	f, err := FromFunc(raw)
	require.NoError(t, err)
	result, err := f(context.Background(), []any{1.0, 2.0})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, 2, result)
}

func TestFromFunc_InvalidFunctions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fn     any
		params []string
	}{
		{name: "nil", fn: nil},
		{name: "not a function", fn: 42},
		{name: "variadic", fn: func(xs ...string) string { return "" }},
		{name: "no results", fn: func(string) {}},
		{name: "only error", fn: func() error { return nil }},
		{name: "second result not error", fn: func() (int, int) { return 1, 2 }},
		{name: "too many results", fn: func() (int, int, error) { return 1, 2, nil }},
		{name: "parameter count mismatch", fn: func(a string) string { return a }, params: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := FromFunc(tt.fn, tt.params...)
			require.ErrorIs(t, err, ErrInvalidFunction)
			require.Nil(t, f)
		})
	}
}

func TestFromFunc_CallErrors(t *testing.T) {
	t.Parallel()

	t.Run("type mismatch", func(t *testing.T) {
		f, err := FromFunc(func(n int) string { return "aaa" }, "n")
		require.NoError(t, err)

		_, err = f(context.Background(), []any{"a"})
		require.ErrorIs(t, err, ErrArgumentType)
		require.Contains(t, err.Error(), "argument 0 (n)")
		require.Contains(t, err.Error(), "expected type 'int'")
	})

	t.Run("inexact integers", func(t *testing.T) {
		tests := []struct {
			name string
			fn   any
			arg  any
			msg  string
		}{
			{name: "fraction into int", fn: func(n int) int { return n }, arg: 1.5, msg: "1.5 is not an integer"},
			{name: "overflow int8", fn: func(n int8) int8 { return n }, arg: 300.0, msg: "300 overflows int8"},
			{name: "negative into uint", fn: func(n uint) uint { return n }, arg: -1.0, msg: "-1 overflows uint"},
			{name: "beyond int64", fn: func(n int64) int64 { return n }, arg: 1e19, msg: "overflows int64"},
			{name: "infinity", fn: func(n int) int { return n }, arg: math.Inf(1), msg: "overflows int"},
			{name: "not a number", fn: func(n int) int { return n }, arg: math.NaN(), msg: "is not an integer"},
			{name: "fraction in a slice", fn: func(ns []int) int { return len(ns) }, arg: []any{1.0, 2.5}, msg: "2.5 is not an integer"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f, err := FromFunc(tt.fn, "n")
				require.NoError(t, err)

				_, err = f(context.Background(), []any{tt.arg})
				require.ErrorIs(t, err, ErrArgumentType)
				require.Contains(t, err.Error(), "argument 0 (n)")
				require.Contains(t, err.Error(), tt.msg)
			})
		}
	})

	t.Run("exact integers at the range limits", func(t *testing.T) {
		f, err := FromFunc(func(a int8, b uint8, c int) []any { return []any{a, b, c} })
		require.NoError(t, err)

		out, err := f(context.Background(), []any{-128.0, 255.0, 3.0})
		require.NoError(t, err)
		assert.Equal(t, []any{int8(-128), uint8(255), 3}, out)
	})

	t.Run("wrong argument count", func(t *testing.T) {
		f, err := FromFunc(func(a, b string) string { return a + b })
		require.NoError(t, err)

		_, err = f(context.Background(), []any{"a"})
		require.ErrorIs(t, err, ErrArgumentCount)
		require.Contains(t, err.Error(), "expected 2, got 1")
	})

	t.Run("function error", func(t *testing.T) {
		boom := errors.New("Test error")
		f, err := FromFunc(func(any) (string, error) { return "", boom })
		require.NoError(t, err)

		_, err = f(context.Background(), []any{"a"})
		require.ErrorIs(t, err, boom)
		require.Equal(t, "Test error", err.Error())
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		fn, err := New("concat", func(a, b string) string { return a + b }, "a", "b")
		require.NoError(t, err)
		assert.Equal(t, "concat", fn.Name)
		assert.Equal(t, []string{"a", "b"}, fn.Params)

		result, err := fn.Func(context.Background(), []any{"foo", "bar"})
		require.NoError(t, err)
		assert.Equal(t, "foobar", result)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := New("", func() string { return "" })
		require.ErrorIs(t, err, ErrInvalidFunction)
	})

	t.Run("duplicate parameter", func(t *testing.T) {
		_, err := New("dup", func(a, b string) string { return a }, "x", "x")
		require.ErrorIs(t, err, ErrInvalidFunction)
		require.Contains(t, err.Error(), `parameter "x" twice`)
	})

	t.Run("must panics", func(t *testing.T) {
		require.Panics(t, func() { Must("bad", 1) })
	})
}

func TestFunction_Validate(t *testing.T) {
	t.Parallel()

	noop := func(context.Context, []any) (any, error) { return nil, nil }

	tests := []struct {
		name    string
		fn      Function
		wantErr bool
	}{
		{name: "valid", fn: Function{Name: "f", Params: []string{"a"}, Func: noop}},
		{name: "no params", fn: Function{Name: "f", Func: noop}},
		{name: "missing func", fn: Function{Name: "f"}, wantErr: true},
		{name: "missing name", fn: Function{Func: noop}, wantErr: true},
		{name: "empty param", fn: Function{Name: "f", Params: []string{""}, Func: noop}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidFunction)
				return
			}
			require.NoError(t, err)
		})
	}
}
