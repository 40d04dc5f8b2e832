package data

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

// Binder is satisfied by *vm.Session.
type Binder interface {
	BindExtValue(name string, v any) error
	BindTLAValue(name string, v any) error
}

// BindExtVars binds every entry of p as an external variable.
func BindExtVars(ctx context.Context, b Binder, p Provider) error {
	return bind(ctx, p, b.BindExtValue)
}

// BindTLAs binds every entry of p as a top-level argument.
func BindTLAs(ctx context.Context, b Binder, p Provider) error {
	return bind(ctx, p, b.BindTLAValue)
}

func bind(ctx context.Context, p Provider, bindFn func(string, any) error) error {
	if p == nil {
		return nil
	}
	values, err := p.GetData(ctx)
	if err != nil {
		return fmt.Errorf("failed to get data: %w", err)
	}
	for _, name := range slices.Sorted(maps.Keys(values)) {
		if err := bindFn(name, values[name]); err != nil {
			return fmt.Errorf("failed to bind %q: %w", name, err)
		}
	}
	return nil
}
