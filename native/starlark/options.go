package starlark

import (
	"fmt"
	"log/slog"

	"github.com/robbyt/go-jsonnetvm/internal/helpers"
)

// Option configures a Module.
type Option func(*Module) error

// WithLogHandler sets the handler for the module logger, which also receives print() output.
func WithLogHandler(handler slog.Handler) Option {
	return func(m *Module) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		m.logHandler = handler
		m.logger = nil
		return nil
	}
}

// WithLogger sets the module logger directly.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Module) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		m.logger = logger
		m.logHandler = nil
		return nil
	}
}

func (m *Module) setupLogger() {
	if m.logger != nil {
		m.logHandler = m.logger.Handler()
	} else {
		m.logHandler, m.logger = helpers.SetupLogger(m.logHandler, "starlark", "Module")
	}
}
