package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/robbyt/go-jsonnetvm"
	"github.com/robbyt/go-jsonnetvm/native/starlark"
	"github.com/robbyt/go-jsonnetvm/native/stdlib"
	"github.com/robbyt/go-jsonnetvm/options"
	"github.com/robbyt/go-jsonnetvm/vm"
)

const snippetFilename = "<cmdline>"

type flags struct {
	exec            bool
	extStr          []string
	extCode         []string
	tlaStr          []string
	tlaCode         []string
	jpaths          []string
	maxStack        uint
	gcMinObjects    uint
	gcGrowthTrigger float64
	maxTrace        uint
	stringOutput    bool
	multiDir        string
	yamlStream      bool
	outputFile      string
	stdlib          bool
	starlarkFiles   []string
	logLevel        string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:           "jsonnetvm [flags] <file>",
		Short:         "Evaluate Jsonnet with the native engine",
		Version:       vm.Version(),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(cmd.Context(), cmd.Flags(), args[0], stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	fs := cmd.Flags()
	fs.BoolVarP(&f.exec, "exec", "e", false, "Treat the argument as a snippet instead of a filename")
	fs.StringArrayVarP(&f.extStr, "ext-str", "V", nil, "Bind an external variable to a string: name=value, or name to read $name")
	fs.StringArrayVar(&f.extCode, "ext-code", nil, "Bind an external variable to Jsonnet code: name=code, or name to read $name")
	fs.StringArrayVarP(&f.tlaStr, "tla-str", "A", nil, "Bind a top-level argument to a string: name=value, or name to read $name")
	fs.StringArrayVar(&f.tlaCode, "tla-code", nil, "Bind a top-level argument to Jsonnet code: name=code, or name to read $name")
	fs.StringArrayVarP(&f.jpaths, "jpath", "J", nil, "Add a library search directory (later directories take precedence)")
	fs.UintVarP(&f.maxStack, "max-stack", "s", 0, "Maximum stack depth")
	fs.UintVar(&f.gcMinObjects, "gc-min-objects", 0, "Do not run the garbage collector below this many objects")
	fs.Float64Var(&f.gcGrowthTrigger, "gc-growth-trigger", 0, "Run the garbage collector after this amount of object growth")
	fs.UintVarP(&f.maxTrace, "max-trace", "t", 0, "Maximum number of stack frames in error output (0 for all)")
	fs.BoolVarP(&f.stringOutput, "string", "S", false, "Expect a string and print it unquoted")
	fs.StringVarP(&f.multiDir, "multi", "m", "", "Write each field of the result object to a file in this directory")
	fs.BoolVarP(&f.yamlStream, "yaml-stream", "y", false, "Print the elements of the result array as a YAML stream")
	fs.StringVarP(&f.outputFile, "output-file", "o", "", "Write the output to this file instead of stdout")
	fs.BoolVar(&f.stdlib, "stdlib", false, "Register the stock native functions")
	fs.StringArrayVar(&f.starlarkFiles, "starlark", nil, "Register the functions of a Starlark file as native functions")
	fs.StringVar(&f.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")

	return cmd
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		msg := strings.TrimSuffix(err.Error(), "\n")
		color.New(color.FgRed).Fprintln(stderr, msg)
		return 1
	}
	return 0
}

func (f *flags) run(ctx context.Context, fs *pflag.FlagSet, target string, stdout, stderr io.Writer) error {
	if f.multiDir != "" && f.yamlStream {
		return fmt.Errorf("--multi and --yaml-stream cannot be combined")
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(f.logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", f.logLevel)
	}
	handler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})

	opts, err := f.options(ctx, fs, handler)
	if err != nil {
		return err
	}
	s, err := jsonnetvm.NewSession(ctx, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	switch {
	case f.multiDir != "":
		var files map[string]string
		if f.exec {
			files, err = s.EvaluateSnippetMulti(ctx, snippetFilename, target)
		} else {
			files, err = s.EvaluateFileMulti(ctx, target)
		}
		if err != nil {
			return err
		}
		return f.writeMulti(files, stdout)
	case f.yamlStream:
		var docs []string
		if f.exec {
			docs, err = s.EvaluateSnippetStream(ctx, snippetFilename, target)
		} else {
			docs, err = s.EvaluateFileStream(ctx, target)
		}
		if err != nil {
			return err
		}
		return f.write(yamlStream(docs), stdout)
	default:
		var out string
		if f.exec {
			out, err = s.EvaluateSnippet(ctx, snippetFilename, target)
		} else {
			out, err = s.EvaluateFile(ctx, target)
		}
		if err != nil {
			return err
		}
		return f.write(out, stdout)
	}
}

func (f *flags) options(ctx context.Context, fs *pflag.FlagSet, handler slog.Handler) ([]options.Option, error) {
	opts := []options.Option{
		options.WithLogHandler(handler),
		options.WithStringOutput(f.stringOutput),
		options.WithJPath(f.jpaths...),
	}
	if fs.Changed("max-stack") {
		opts = append(opts, options.WithMaxStack(f.maxStack))
	}
	if fs.Changed("gc-min-objects") {
		opts = append(opts, options.WithGCMinObjects(f.gcMinObjects))
	}
	if fs.Changed("gc-growth-trigger") {
		opts = append(opts, options.WithGCGrowthTrigger(f.gcGrowthTrigger))
	}
	if fs.Changed("max-trace") {
		opts = append(opts, options.WithMaxTrace(f.maxTrace))
	}

	bindings := []struct {
		values []string
		option func(name, value string) options.Option
	}{
		{f.extStr, options.WithExtVar},
		{f.extCode, options.WithExtCode},
		{f.tlaStr, options.WithTLAVar},
		{f.tlaCode, options.WithTLACode},
	}
	for _, b := range bindings {
		for _, raw := range b.values {
			name, value, err := splitBinding(raw)
			if err != nil {
				return nil, err
			}
			opts = append(opts, b.option(name, value))
		}
	}

	if f.stdlib {
		opts = append(opts, options.WithNativeFunctions(stdlib.Functions()...))
	}
	for _, file := range f.starlarkFiles {
		m, err := starlark.LoadFile(ctx, file, starlark.WithLogHandler(handler))
		if err != nil {
			return nil, err
		}
		opts = append(opts, options.WithNativeFunctions(m.Functions()...))
	}
	return opts, nil
}

// splitBinding parses name=value. A bare name takes its value from the environment.
func splitBinding(raw string) (string, string, error) {
	if name, value, ok := strings.Cut(raw, "="); ok {
		return name, value, nil
	}
	value, ok := os.LookupEnv(raw)
	if !ok {
		return "", "", fmt.Errorf("environment variable %s was undefined", raw)
	}
	return raw, value, nil
}

func yamlStream(docs []string) string {
	var b strings.Builder
	for _, doc := range docs {
		b.WriteString("---\n")
		b.WriteString(doc)
	}
	if len(docs) > 0 {
		b.WriteString("...\n")
	}
	return b.String()
}

func (f *flags) write(out string, stdout io.Writer) error {
	if f.outputFile == "" {
		_, err := io.WriteString(stdout, out)
		return err
	}
	if err := os.WriteFile(f.outputFile, []byte(out), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// writeMulti writes each file below multiDir and prints the written paths. Nothing is
// written unless every name stays inside multiDir.
func (f *flags) writeMulti(files map[string]string, stdout io.Writer) error {
	if err := os.MkdirAll(f.multiDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	names := slices.Sorted(maps.Keys(files))
	for _, name := range names {
		if !filepath.IsLocal(name) {
			return fmt.Errorf("output file %q is outside %s", name, f.multiDir)
		}
	}
	var listing strings.Builder
	for _, name := range names {
		path := filepath.Join(f.multiDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(files[name]), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		listing.WriteString(path + "\n")
	}
	return f.write(listing.String(), stdout)
}
