package extism

import (
	"fmt"
	"log/slog"

	extismSDK "github.com/extism/go-sdk"
	"github.com/tetratelabs/wazero"

	"github.com/robbyt/go-jsonnetvm/internal/helpers"
)

type settings struct {
	enableWASI    bool
	runtimeConfig wazero.RuntimeConfig
	hostFunctions []extismSDK.HostFunction
	logHandler    slog.Handler
	logger        *slog.Logger
}

// Option configures compilation of a Plugin.
type Option func(*settings) error

func defaultSettings() *settings {
	return &settings{
		enableWASI:    true,
		runtimeConfig: wazero.NewRuntimeConfig(),
	}
}

// WithWASIEnabled toggles WASI support. It is enabled by default.
func WithWASIEnabled(enabled bool) Option {
	return func(s *settings) error {
		s.enableWASI = enabled
		return nil
	}
}

// WithRuntimeConfig replaces the wazero runtime configuration.
func WithRuntimeConfig(cfg wazero.RuntimeConfig) Option {
	return func(s *settings) error {
		if cfg == nil {
			return fmt.Errorf("runtime config cannot be nil")
		}
		s.runtimeConfig = cfg
		return nil
	}
}

// WithHostFunctions adds host functions the plugin may import.
func WithHostFunctions(funcs ...extismSDK.HostFunction) Option {
	return func(s *settings) error {
		s.hostFunctions = append(s.hostFunctions, funcs...)
		return nil
	}
}

// WithLogHandler sets the handler for the plugin logger.
func WithLogHandler(handler slog.Handler) Option {
	return func(s *settings) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		s.logHandler = handler
		s.logger = nil
		return nil
	}
}

// WithLogger sets the plugin logger directly.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		s.logger = logger
		s.logHandler = nil
		return nil
	}
}

func (s *settings) setupLogger() {
	if s.logger != nil {
		s.logHandler = s.logger.Handler()
	} else {
		s.logHandler, s.logger = helpers.SetupLogger(s.logHandler, "extism", "Plugin")
	}
}
