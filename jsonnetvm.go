// Package jsonnetvm evaluates Jsonnet through the native engine.
//
// EvaluateFile and EvaluateSnippet configure a session, evaluate once and release it:
//
//	out, err := jsonnetvm.EvaluateSnippet(ctx, "main.jsonnet", `{ env: std.extVar("env") }`,
//		options.WithExtVar("env", "prod"),
//	)
//
// Programs that evaluate repeatedly with the same configuration should keep the *vm.Session
// returned by NewSession and Close it when done.
package jsonnetvm

import (
	"context"
	"errors"
	"fmt"

	"github.com/robbyt/go-jsonnetvm/data"
	"github.com/robbyt/go-jsonnetvm/options"
	"github.com/robbyt/go-jsonnetvm/vm"
)

// NewSession creates a session configured by opts. The caller must Close it.
func NewSession(ctx context.Context, opts ...options.Option) (*vm.Session, error) {
	cfg := options.DefaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("error applying option: %w", err)
		}
	}
	if err := options.WithDefaults()(cfg); err != nil {
		return nil, fmt.Errorf("error applying defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logOpt := vm.WithLogHandler(cfg.GetHandler())
	if logger := cfg.GetLogger(); logger != nil {
		logOpt = vm.WithLogger(logger)
	}
	s, err := vm.New(logOpt)
	if err != nil {
		return nil, err
	}
	if err := configure(ctx, s, cfg); err != nil {
		return nil, errors.Join(err, s.Close())
	}
	return s, nil
}

func configure(ctx context.Context, s *vm.Session, cfg *options.Config) error {
	if err := s.SetLimits(cfg.GetLimits()); err != nil {
		return err
	}
	if err := s.SetStringOutput(cfg.GetStringOutput()); err != nil {
		return err
	}
	for _, dir := range cfg.GetJPaths() {
		if err := s.AddJPath(dir); err != nil {
			return err
		}
	}
	if err := data.BindExtVars(ctx, s, cfg.GetExtData()); err != nil {
		return fmt.Errorf("external variables: %w", err)
	}
	if err := data.BindTLAs(ctx, s, cfg.GetTLAData()); err != nil {
		return fmt.Errorf("top-level arguments: %w", err)
	}
	for _, b := range cfg.GetBindings() {
		if err := bind(s, b); err != nil {
			return err
		}
	}
	if r := cfg.GetImportResolver(); r != nil {
		if err := s.SetImportResolver(r); err != nil {
			return err
		}
	}
	for _, f := range cfg.GetNativeFunctions() {
		if err := s.RegisterNative(f); err != nil {
			return err
		}
	}
	return nil
}

func bind(s *vm.Session, b options.Binding) error {
	switch b.Kind {
	case options.ExtVar:
		return s.BindExtVar(b.Name, b.Value)
	case options.ExtCode:
		return s.BindExtCode(b.Name, b.Value)
	case options.TLAVar:
		return s.BindTLAVar(b.Name, b.Value)
	case options.TLACode:
		return s.BindTLACode(b.Name, b.Value)
	default:
		return fmt.Errorf("%w: unknown binding kind %s", vm.ErrInvalidArgument, b.Kind)
	}
}

// EvaluateFile evaluates the file at filename with a session configured by opts.
func EvaluateFile(ctx context.Context, filename string, opts ...options.Option) (string, error) {
	s, err := NewSession(ctx, opts...)
	if err != nil {
		return "", err
	}
	defer func() { _ = s.Close() }()
	return s.EvaluateFile(ctx, filename)
}

// EvaluateSnippet evaluates snippet with a session configured by opts. filename is used in
// diagnostics and as the base for relative imports.
func EvaluateSnippet(ctx context.Context, filename, snippet string, opts ...options.Option) (string, error) {
	s, err := NewSession(ctx, opts...)
	if err != nil {
		return "", err
	}
	defer func() { _ = s.Close() }()
	return s.EvaluateSnippet(ctx, filename, snippet)
}
