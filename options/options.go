// Package options configures one-shot sessions created by the jsonnetvm package.
package options

import (
	"fmt"
	"log/slog"

	"github.com/robbyt/go-jsonnetvm/data"
	"github.com/robbyt/go-jsonnetvm/importer"
	"github.com/robbyt/go-jsonnetvm/native"
	"github.com/robbyt/go-jsonnetvm/vm"
)

// BindingKind selects how a Binding reaches the program.
type BindingKind int

const (
	ExtVar BindingKind = iota
	ExtCode
	TLAVar
	TLACode
)

func (k BindingKind) String() string {
	switch k {
	case ExtVar:
		return "ext-str"
	case ExtCode:
		return "ext-code"
	case TLAVar:
		return "tla-str"
	case TLACode:
		return "tla-code"
	default:
		return fmt.Sprintf("BindingKind(%d)", int(k))
	}
}

// Binding is one external variable or top-level argument.
type Binding struct {
	Kind  BindingKind
	Name  string
	Value string
}

// Config holds everything applied to a session before evaluation.
type Config struct {
	handler      slog.Handler
	logger       *slog.Logger
	limits       vm.Limits
	stringOutput bool
	jpaths       []string
	bindings     []Binding
	extData      data.Provider
	tlaData      data.Provider
	resolver     importer.Resolver
	natives      []native.Function
}

// Option is a function that modifies Config
type Option func(*Config) error

// WithLogHandler sets the handler used by the session and its components.
func WithLogHandler(handler slog.Handler) Option {
	return func(c *Config) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		c.handler = handler
		c.logger = nil
		return nil
	}
}

// WithLogger sets the session logger directly, keeping the caller's groups and attributes.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		c.handler = logger.Handler()
		return nil
	}
}

// WithMaxStack sets the maximum stack depth.
func WithMaxStack(n uint) Option {
	return func(c *Config) error {
		c.limits.MaxStack = &n
		return nil
	}
}

// WithGCMinObjects sets the number of objects required before a garbage collection.
func WithGCMinObjects(n uint) Option {
	return func(c *Config) error {
		c.limits.GCMinObjects = &n
		return nil
	}
}

// WithGCGrowthTrigger sets the heap growth factor that triggers a garbage collection.
func WithGCGrowthTrigger(v float64) Option {
	return func(c *Config) error {
		c.limits.GCGrowthTrigger = &v
		return nil
	}
}

// WithMaxTrace sets the number of stack frames shown in error diagnostics. 0 shows all.
func WithMaxTrace(n uint) Option {
	return func(c *Config) error {
		c.limits.MaxTrace = &n
		return nil
	}
}

// WithStringOutput expects the program to yield a string and emits it unquoted.
func WithStringOutput(enabled bool) Option {
	return func(c *Config) error {
		c.stringOutput = enabled
		return nil
	}
}

// WithJPath appends library search paths.
func WithJPath(dirs ...string) Option {
	return func(c *Config) error {
		for _, dir := range dirs {
			if dir == "" {
				return fmt.Errorf("library path cannot be empty")
			}
		}
		c.jpaths = append(c.jpaths, dirs...)
		return nil
	}
}

func withBinding(kind BindingKind, name, value string) Option {
	return func(c *Config) error {
		if name == "" {
			return fmt.Errorf("%s binding name cannot be empty", kind)
		}
		c.bindings = append(c.bindings, Binding{Kind: kind, Name: name, Value: value})
		return nil
	}
}

// WithExtVar binds an external variable to a string.
func WithExtVar(name, value string) Option { return withBinding(ExtVar, name, value) }

// WithExtCode binds an external variable to the result of Jsonnet code.
func WithExtCode(name, code string) Option { return withBinding(ExtCode, name, code) }

// WithTLAVar binds a top-level argument to a string.
func WithTLAVar(name, value string) Option { return withBinding(TLAVar, name, value) }

// WithTLACode binds a top-level argument to the result of Jsonnet code.
func WithTLACode(name, code string) Option { return withBinding(TLACode, name, code) }

// WithExtData binds the values of a provider as external variables.
func WithExtData(provider data.Provider) Option {
	return func(c *Config) error {
		if provider != nil {
			c.extData = provider
		}
		return nil
	}
}

// WithTLAData binds the values of a provider as top-level arguments.
func WithTLAData(provider data.Provider) Option {
	return func(c *Config) error {
		if provider != nil {
			c.tlaData = provider
		}
		return nil
	}
}

// WithImportResolver replaces the engine's default file importer.
func WithImportResolver(r importer.Resolver) Option {
	return func(c *Config) error {
		if r == nil {
			return fmt.Errorf("import resolver cannot be nil")
		}
		c.resolver = r
		return nil
	}
}

// WithNativeFunctions registers native functions. A later function replaces an earlier one
// with the same name.
func WithNativeFunctions(fns ...native.Function) Option {
	return func(c *Config) error {
		for _, f := range fns {
			if err := f.Validate(); err != nil {
				return err
			}
		}
		c.natives = append(c.natives, fns...)
		return nil
	}
}

// Validate performs basic validation on the configuration
func (c *Config) Validate() error {
	if c.handler == nil {
		return fmt.Errorf("no log handler specified")
	}
	if c.limits.GCGrowthTrigger != nil && *c.limits.GCGrowthTrigger <= 0 {
		return fmt.Errorf("gc growth trigger must be positive, got %v", *c.limits.GCGrowthTrigger)
	}
	return nil
}

func (c *Config) GetHandler() slog.Handler { return c.handler }

// GetLogger returns the logger set by WithLogger, or nil when only a handler was given.
func (c *Config) GetLogger() *slog.Logger { return c.logger }

func (c *Config) GetLimits() vm.Limits { return c.limits }

func (c *Config) GetStringOutput() bool { return c.stringOutput }

func (c *Config) GetJPaths() []string { return c.jpaths }

// GetBindings returns the bindings in the order they were added.
func (c *Config) GetBindings() []Binding { return c.bindings }

func (c *Config) GetExtData() data.Provider { return c.extData }

func (c *Config) GetTLAData() data.Provider { return c.tlaData }

func (c *Config) GetImportResolver() importer.Resolver { return c.resolver }

func (c *Config) GetNativeFunctions() []native.Function { return c.natives }
