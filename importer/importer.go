// Package importer resolves Jsonnet import statements on behalf of an engine session.
//
// A session calls its Resolver once per distinct import. baseDir is the directory of the
// importing file (with a trailing separator, or empty for snippets without a path) and rel
// is the string literal from the import expression. The returned foundHere becomes the
// imported file's name in diagnostics and the baseDir of its own imports.
package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robbyt/go-jsonnetvm/internal/helpers"
)

// Resolver locates and reads imported files.
type Resolver interface {
	Import(ctx context.Context, baseDir, rel string) (content string, foundHere string, err error)
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func(ctx context.Context, baseDir, rel string) (string, string, error)

func (f ResolverFunc) Import(ctx context.Context, baseDir, rel string) (string, string, error) {
	return f(ctx, baseDir, rel)
}

// Option configures the logging of a resolver.
type Option func(*logging) error

// WithLogHandler sets the handler used to build the resolver's logger.
func WithLogHandler(handler slog.Handler) Option {
	return func(l *logging) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		l.logHandler = handler
		l.logger = nil
		return nil
	}
}

// WithLogger sets the resolver's logger directly.
func WithLogger(logger *slog.Logger) Option {
	return func(l *logging) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		l.logger = logger
		l.logHandler = nil
		return nil
	}
}

type logging struct {
	logHandler slog.Handler
	logger     *slog.Logger
}

func newLogging(component string, opts []Option) (logging, error) {
	var l logging
	for _, opt := range opts {
		if err := opt(&l); err != nil {
			return logging{}, fmt.Errorf("error applying option: %w", err)
		}
	}
	if l.logger != nil {
		l.logHandler = l.logger.Handler()
	} else {
		l.logHandler, l.logger = helpers.SetupLogger(l.logHandler, "jsonnet", component)
	}
	return l, nil
}
