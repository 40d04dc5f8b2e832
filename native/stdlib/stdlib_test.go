package stdlib

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robbyt/go-jsonnetvm/native"
)

func call(t *testing.T, name string, args ...any) (any, error) {
	t.Helper()
	for _, f := range Functions() {
		if f.Name == name {
			require.Len(t, args, len(f.Params), "argument count for %s", name)
			return f.Func(context.Background(), args)
		}
	}
	t.Fatalf("no function named %s", name)
	return nil, nil
}

func TestFunctions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fn       string
		args     []any
		expected any
	}{
		{
			name:     "parse single yaml document",
			fn:       "parseYaml",
			args:     []any{"name: app\nports: [80, 443]\nnested:\n  1: one\n"},
			expected: map[string]any{"name": "app", "ports": []any{80, 443}, "nested": map[string]any{"1": "one"}},
		},
		{
			name:     "parse yaml stream",
			fn:       "parseYaml",
			args:     []any{"a: 1\n---\nb: 2\n"},
			expected: []any{map[string]any{"a": 1}, map[string]any{"b": 2}},
		},
		{
			name:     "parse empty yaml",
			fn:       "parseYaml",
			args:     []any{""},
			expected: nil,
		},
		{
			name:     "escape regex",
			fn:       "escapeStringRegex",
			args:     []any{"a.b*c"},
			expected: `a\.b\*c`,
		},
		{
			name:     "regex match",
			fn:       "regexMatch",
			args:     []any{"^v[0-9]+$", "v12"},
			expected: true,
		},
		{
			name:     "regex no match",
			fn:       "regexMatch",
			args:     []any{"^v[0-9]+$", "12"},
			expected: false,
		},
		{
			name: "regex find",
			fn:   "regexFind",
			args: []any{`(?P<major>\d+)\.(\d+)`, "version 1.22 released"},
			expected: map[string]any{
				"string":   "1.22",
				"captures": []string{"1", "22"},
				"named":    map[string]string{"major": "1"},
			},
		},
		{
			name:     "regex find nothing",
			fn:       "regexFind",
			args:     []any{`\d`, "none"},
			expected: nil,
		},
		{
			name:     "regex subst",
			fn:       "regexSubst",
			args:     []any{"-+", "a--b---c", "_"},
			expected: "a_b_c",
		},
		{
			name:     "sha256",
			fn:       "sha256",
			args:     []any{"abc"},
			expected: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
		{
			name:     "semver older",
			fn:       "semverCompare",
			args:     []any{"1.2.3", "v1.10.0"},
			expected: -1,
		},
		{
			name:     "semver equal",
			fn:       "semverCompare",
			args:     []any{"v2.0.0", "2.0.0"},
			expected: 0,
		},
		{
			name:     "semver satisfies",
			fn:       "semverSatisfies",
			args:     []any{"1.5.0", ">=1.2.0 <2.0.0"},
			expected: true,
		},
		{
			name:     "semver outside range",
			fn:       "semverSatisfies",
			args:     []any{"2.1.0", ">=1.2.0 <2.0.0"},
			expected: false,
		},
		{
			name:     "shell split",
			fn:       "shellSplit",
			args:     []any{`echo "hello world" 'a b'`},
			expected: []string{"echo", "hello world", "a b"},
		},
		{
			name:     "shell split empty",
			fn:       "shellSplit",
			args:     []any{""},
			expected: []string{},
		},
		{
			name:     "uuid v5 dns",
			fn:       "uuidV5",
			args:     []any{"dns", "python.org"},
			expected: "886313e1-3b8a-5372-9b90-0c9aee199e5d",
		},
		{
			name:     "uuid v5 explicit namespace",
			fn:       "uuidV5",
			args:     []any{"6ba7b810-9dad-11d1-80b4-00c04fd430c8", "python.org"},
			expected: "886313e1-3b8a-5372-9b90-0c9aee199e5d",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := call(t, tt.fn, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestFunctionErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fn      string
		args    []any
		message string
	}{
		{name: "bad yaml", fn: "parseYaml", args: []any{"a: [1"}, message: "failed to parse YAML"},
		{name: "bad regex", fn: "regexMatch", args: []any{"(", "x"}, message: "invalid regular expression"},
		{name: "bad version", fn: "semverCompare", args: []any{"one", "1.0.0"}, message: `invalid version "one"`},
		{name: "bad range", fn: "semverSatisfies", args: []any{"1.0.0", ">=x.y"}, message: `invalid range ">=x.y"`},
		{name: "unterminated quote", fn: "shellSplit", args: []any{`echo "oops`}, message: "failed to split"},
		{name: "bad namespace", fn: "uuidV5", args: []any{"nope", "x"}, message: `invalid namespace "nope"`},
		{name: "wrong argument type", fn: "sha256", args: []any{true}, message: "expected type 'string'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := call(t, tt.fn, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestShellQuoteRoundTrip(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"plain", "with space", "it's", `"double"`, "$HOME; rm -rf /", ""} {
		quoted, err := call(t, "shellQuote", in)
		require.NoError(t, err)

		words, err := call(t, "shellSplit", quoted)
		require.NoError(t, err)
		assert.Equal(t, []string{in}, words, "round trip of %q via %q", in, quoted)
	}
}

type recordingRegistrar struct {
	names []string
	fail  string
}

func (r *recordingRegistrar) RegisterNative(f native.Function) error {
	if f.Name == r.fail {
		return errors.New("rejected")
	}
	r.names = append(r.names, f.Name)
	return nil
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("all functions", func(t *testing.T) {
		r := &recordingRegistrar{}
		require.NoError(t, Register(r))
		assert.Len(t, r.names, len(Functions()))
		assert.Contains(t, r.names, "parseYaml")
	})

	t.Run("stops on failure", func(t *testing.T) {
		r := &recordingRegistrar{fail: "sha256"}
		err := Register(r)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to register sha256")
	})
}
