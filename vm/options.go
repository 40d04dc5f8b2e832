package vm

import (
	"fmt"
	"log/slog"

	"github.com/robbyt/go-jsonnetvm/internal/helpers"
)

// Option configures a Session at construction.
type Option func(*Session) error

// WithLogHandler sets the handler the session builds its logger from.
func WithLogHandler(handler slog.Handler) Option {
	return func(s *Session) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		s.logHandler = handler
		s.logger = nil
		return nil
	}
}

// WithLogger sets the session logger directly, keeping the caller's groups and attributes.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		s.logger = logger
		s.logHandler = nil
		return nil
	}
}

func (s *Session) setupLogger() {
	if s.logger != nil {
		s.logHandler = s.logger.Handler()
	} else {
		s.logHandler, s.logger = helpers.SetupLogger(s.logHandler, "jsonnet", "Session")
	}
}

// Limits groups the engine's resource limits. Nil fields leave the current value untouched.
type Limits struct {
	// MaxStack is the maximum number of stack frames (engine default 500).
	MaxStack *uint
	// GCMinObjects is the number of live objects below which no collection runs (default 1000).
	GCMinObjects *uint
	// GCGrowthTrigger runs a collection when the heap grows by this factor (default 2.0).
	GCGrowthTrigger *float64
	// MaxTrace is the number of stack frames kept in error traces, 0 for all (default 20).
	MaxTrace *uint
}
