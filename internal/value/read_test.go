package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeValue mimics an engine argument: exactly one kind is populated.
type fakeValue struct {
	kind string
	val  any
}

type fakeReader struct{}

func (fakeReader) IsNull(v *fakeValue) bool { return v.kind == "null" }

func (fakeReader) String(v *fakeValue) (string, bool) {
	if v.kind != "string" {
		return "", false
	}
	return v.val.(string), true
}

func (fakeReader) Number(v *fakeValue) (float64, bool) {
	if v.kind != "number" {
		return 0, false
	}
	return v.val.(float64), true
}

func (fakeReader) Bool(v *fakeValue) (bool, bool) {
	if v.kind != "bool" {
		return false, false
	}
	return v.val.(bool), true
}

func TestRead(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    *fakeValue
		expected any
	}{
		{name: "null", input: &fakeValue{kind: "null"}, expected: nil},
		{name: "string", input: &fakeValue{kind: "string", val: "hi"}, expected: "hi"},
		{name: "empty string", input: &fakeValue{kind: "string", val: ""}, expected: ""},
		{name: "number", input: &fakeValue{kind: "number", val: 2.5}, expected: 2.5},
		{name: "false", input: &fakeValue{kind: "bool", val: false}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read[*fakeValue](fakeReader{}, tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
		})
	}

	t.Run("unknown kind", func(t *testing.T) {
		_, err := Read[*fakeValue](fakeReader{}, &fakeValue{kind: "array"})
		require.ErrorIs(t, err, ErrUnknownNativeValue)
		require.Equal(t, ErrUnknownNativeValue.Error(), err.Error())
	})
}

func TestReadArgs(t *testing.T) {
	t.Parallel()

	t.Run("all scalars", func(t *testing.T) {
		argv := []*fakeValue{
			{kind: "string", val: "a"},
			{kind: "number", val: 1.0},
			{kind: "bool", val: true},
			{kind: "null"},
		}
		args, err := ReadArgs[*fakeValue](fakeReader{}, argv)
		require.NoError(t, err)
		require.Equal(t, []any{"a", 1.0, true, nil}, args)
	})

	t.Run("empty", func(t *testing.T) {
		args, err := ReadArgs[*fakeValue](fakeReader{}, nil)
		require.NoError(t, err)
		require.Empty(t, args)
	})

	t.Run("reports failing index", func(t *testing.T) {
		argv := []*fakeValue{{kind: "string", val: "a"}, {kind: "object"}}
		args, err := ReadArgs[*fakeValue](fakeReader{}, argv)
		require.Nil(t, args)
		require.ErrorIs(t, err, ErrUnknownNativeValue)

		var nativeErr *UnknownNativeValueError
		require.ErrorAs(t, err, &nativeErr)
		require.Equal(t, 1, nativeErr.Index)
		require.Contains(t, err.Error(), "argument 1")
	})
}
