package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun(t *testing.T) {
	t.Parallel()

	libDir := t.TempDir()
	writeFile(t, libDir, "lib.libsonnet", "{ name: 'lib' }")
	starFile := writeFile(t, t.TempDir(), "fns.star", "def double(x):\n    return x * 2\n")
	mainFile := writeFile(t, t.TempDir(), "main.jsonnet", `{ lib: (import "lib.libsonnet").name }`)

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{
			name:     "snippet",
			args:     []string{"-e", "{ x: 1, y: self.x + 1 } { x: 10 }"},
			expected: "{\n   \"x\": 10,\n   \"y\": 11\n}\n",
		},
		{
			name:     "file with library path",
			args:     []string{"-J", libDir, mainFile},
			expected: "{\n   \"lib\": \"lib\"\n}\n",
		},
		{
			name: "bindings",
			args: []string{
				"-V", "a=x", "--ext-code", "b=1+1", "-A", "c=y", "--tla-code", "d=[]",
				"-e", `function(c, d) [std.extVar("a"), std.extVar("b"), c, d]`,
			},
			expected: "[\n   \"x\",\n   2,\n   \"y\",\n   [ ]\n]\n",
		},
		{
			name:     "string output",
			args:     []string{"-S", "-e", `"plain"`},
			expected: "plain\n",
		},
		{
			name:     "yaml stream",
			args:     []string{"-y", "-e", "[1, 2]"},
			expected: "---\n1\n---\n2\n...\n",
		},
		{
			name:     "empty yaml stream",
			args:     []string{"-y", "-e", "[]"},
			expected: "",
		},
		{
			name:     "stock native functions",
			args:     []string{"--stdlib", "-e", `std.native("shellQuote")("a b")`},
			expected: "\"'a b'\"\n",
		},
		{
			name:     "starlark native functions",
			args:     []string{"--starlark", starFile, "-e", `std.native("double")(21)`},
			expected: "42\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, stdout, stderr := execute(t, tc.args...)
			require.Equal(t, 0, code, stderr)
			assert.Equal(t, tc.expected, stdout)
		})
	}
}

func TestRun_Multi(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "out")

	code, stdout, stderr := execute(t, "-m", dir, "-e", `{ "a.json": { v: 1 }, "sub/b.json": "x" }`)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, filepath.Join(dir, "a.json")+"\n"+filepath.Join(dir, "sub", "b.json")+"\n", stdout)

	content, err := os.ReadFile(filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n   \"v\": 1\n}\n", string(content))
	content, err = os.ReadFile(filepath.Join(dir, "sub", "b.json"))
	require.NoError(t, err)
	assert.Equal(t, "\"x\"\n", string(content))
}

func TestRun_MultiRejectsEscapingNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
	}{
		{name: "parent directory", key: "../escape.json"},
		{name: "nested parent directory", key: "sub/../../escape.json"},
		{name: "absolute path", key: "/tmp/escape.json"},
		{name: "empty name", key: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			dir := filepath.Join(root, "out")

			code, stdout, stderr := execute(t, "-m", dir, "-e",
				fmt.Sprintf(`{ "a.json": 1, %q: 2 }`, tc.key))
			assert.Equal(t, 1, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, "is outside "+dir)

			assert.NoFileExists(t, filepath.Join(root, "escape.json"))
			assert.NoFileExists(t, filepath.Join(dir, "a.json"))
		})
	}
}

func TestRun_OutputFile(t *testing.T) {
	t.Parallel()
	out := filepath.Join(t.TempDir(), "out.json")

	code, stdout, stderr := execute(t, "-o", out, "-e", "[1]")
	require.Equal(t, 0, code, stderr)
	assert.Empty(t, stdout)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "[\n   1\n]\n", string(content))
}

func TestRun_EnvBinding(t *testing.T) {
	t.Setenv("JSONNETVM_TEST_REGION", "eu-west-1")

	code, stdout, stderr := execute(t, "-V", "JSONNETVM_TEST_REGION", "-e", `std.extVar("JSONNETVM_TEST_REGION")`)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "\"eu-west-1\"\n", stdout)
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		contains string
	}{
		{name: "no arguments", args: []string{}, contains: "accepts 1 arg(s)"},
		{name: "evaluation error", args: []string{"-e", "1 / 0"}, contains: "RUNTIME ERROR: division by zero."},
		{name: "missing file", args: []string{filepath.Join(t.TempDir(), "missing.jsonnet")}, contains: "missing.jsonnet"},
		{name: "undefined env binding", args: []string{"-V", "JSONNETVM_TEST_UNDEFINED", "-e", "1"}, contains: "was undefined"},
		{name: "invalid log level", args: []string{"--log-level", "loud", "-e", "1"}, contains: "invalid log level"},
		{name: "conflicting outputs", args: []string{"-y", "-m", t.TempDir(), "-e", "[]"}, contains: "cannot be combined"},
		{name: "missing starlark file", args: []string{"--starlark", "/nonexistent/fns.star", "-e", "1"}, contains: "fns.star"},
		{name: "max stack", args: []string{"-s", "5", "-e", "local f(n) = if n == 0 then 0 else f(n - 1) + 1; f(50)"}, contains: "max stack frames exceeded"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, stdout, stderr := execute(t, tc.args...)
			assert.Equal(t, 1, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, tc.contains)
		})
	}
}
