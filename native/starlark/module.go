// Package starlark defines Jsonnet native functions in Starlark. Every public top-level
// function of a loaded file becomes a native function with the same name and parameters:
//
//	def slugify(s):
//	    return s.lower().replace(" ", "-")
//
// is called from Jsonnet as std.native('slugify')('Hello World').
package starlark

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	starlarkLib "go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/robbyt/go-jsonnetvm/internal/helpers"
	"github.com/robbyt/go-jsonnetvm/native"
)

// Registrar is satisfied by *vm.Session.
type Registrar interface {
	RegisterNative(f native.Function) error
}

// Module is an executed Starlark file. Its globals are frozen, so its functions may be
// called from any number of sessions.
type Module struct {
	filename   string
	globals    starlarkLib.StringDict
	logHandler slog.Handler
	logger     *slog.Logger
}

// LoadFile reads and executes a Starlark file.
func LoadFile(ctx context.Context, filename string, opts ...Option) (*Module, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return Load(ctx, filename, src, opts...)
}

// Load executes src, using filename in error messages.
func Load(ctx context.Context, filename string, src []byte, opts ...Option) (*Module, error) {
	m := &Module{filename: filename}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("error applying option: %w", err)
		}
	}
	m.setupLogger()
	logger := m.logger.WithGroup("Load")

	if len(src) == 0 {
		return nil, ErrContentNil
	}

	thread := m.newThread(ctx, "load")
	stop := cancelOnDone(ctx, thread)
	defer stop()

	globals, err := starlarkLib.ExecFileOptions(&syntax.FileOptions{}, thread, filename, src, predeclared())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	m.globals = globals
	logger.DebugContext(ctx, "module loaded",
		"filename", filename, "sha256", helpers.ShortSHA256Bytes(src), "globals", len(globals))
	return m, nil
}

func (m *Module) String() string {
	return fmt.Sprintf("starlark.Module{Filename: %s}", m.filename)
}

func (m *Module) newThread(ctx context.Context, name string) *starlarkLib.Thread {
	return &starlarkLib.Thread{
		Name: name,
		Print: func(thread *starlarkLib.Thread, msg string) {
			m.logger.InfoContext(ctx, msg, "starlark-thread", thread.Name)
		},
	}
}

func cancelOnDone(ctx context.Context, thread *starlarkLib.Thread) func() bool {
	return context.AfterFunc(ctx, func() {
		thread.Cancel(ctx.Err().Error())
	})
}

// Functions returns a native function for each public top-level function, sorted by name.
// Functions taking *args, **kwargs or keyword-only parameters are skipped since a Jsonnet
// native function has a fixed list of positional parameters.
func (m *Module) Functions() []native.Function {
	logger := m.logger.WithGroup("Functions")

	var out []native.Function
	for _, name := range slices.Sorted(maps.Keys(m.globals)) {
		fn, ok := m.globals[name].(*starlarkLib.Function)
		if !ok || strings.HasPrefix(name, "_") {
			continue
		}
		if fn.HasVarargs() || fn.HasKwargs() || fn.NumKwonlyParams() > 0 {
			logger.Warn("skipping function with variadic or keyword-only parameters", "name", name)
			continue
		}

		params := make([]string, fn.NumParams())
		for i := range params {
			params[i], _ = fn.Param(i)
		}
		out = append(out, native.Function{Name: name, Params: params, Func: m.call(fn)})
	}
	return out
}

// Register adds every function returned by Functions to r.
func (m *Module) Register(r Registrar) error {
	for _, f := range m.Functions() {
		if err := r.RegisterNative(f); err != nil {
			return fmt.Errorf("failed to register %s: %w", f.Name, err)
		}
	}
	return nil
}

func (m *Module) call(fn *starlarkLib.Function) native.Func {
	return func(ctx context.Context, args []any) (any, error) {
		sargs := make(starlarkLib.Tuple, len(args))
		for i, arg := range args {
			v, err := toStarlark(arg)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			sargs[i] = v
		}

		thread := m.newThread(ctx, fn.Name())
		stop := cancelOnDone(ctx, thread)
		defer stop()

		result, err := starlarkLib.Call(thread, fn, sargs, nil)
		if err != nil {
			return nil, err
		}
		return fromStarlark(result)
	}
}
