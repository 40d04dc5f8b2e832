// Package native defines the Go side of functions exposed to Jsonnet through std.native.
package native

import (
	"context"
	"fmt"
)

// Func implements a native function. args holds exactly one value per declared parameter,
// each one of nil, string, float64 or bool. The result may be any value the session can
// convert: scalars, maps, slices, structs and pointers to them.
type Func func(ctx context.Context, args []any) (any, error)

// Function is a named native function together with its parameter names. The parameter
// list is the arity contract the engine enforces at call sites.
type Function struct {
	Name   string
	Params []string
	Func   Func
}

// Validate reports whether the function can be registered.
func (f Function) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidFunction)
	}
	if f.Func == nil {
		return fmt.Errorf("%w: %q has no implementation", ErrInvalidFunction, f.Name)
	}
	seen := make(map[string]struct{}, len(f.Params))
	for _, p := range f.Params {
		if p == "" {
			return fmt.Errorf("%w: %q has an empty parameter name", ErrInvalidFunction, f.Name)
		}
		if _, ok := seen[p]; ok {
			return fmt.Errorf("%w: %q declares parameter %q twice", ErrInvalidFunction, f.Name, p)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// New adapts a typed Go function (see FromFunc) and names it.
func New(name string, fn any, params ...string) (Function, error) {
	impl, err := FromFunc(fn, params...)
	if err != nil {
		return Function{}, fmt.Errorf("native function %q: %w", name, err)
	}
	f := Function{Name: name, Params: params, Func: impl}
	if err := f.Validate(); err != nil {
		return Function{}, err
	}
	return f, nil
}

// Must is like New but panics on error. Intended for package-level tables.
func Must(name string, fn any, params ...string) Function {
	f, err := New(name, fn, params...)
	if err != nil {
		panic(err)
	}
	return f
}
