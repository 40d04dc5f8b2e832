package options

import (
	"log/slog"
	"os"
)

// DefaultConfig returns a Config with the default log handler and engine defaults for
// everything else.
func DefaultConfig() *Config {
	return &Config{handler: DefaultHandler()}
}

// DefaultHandler logs warnings and errors to stderr, leaving stdout to the rendered output.
func DefaultHandler() slog.Handler {
	return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
}

// WithDefaults applies default values to any config properties that are nil
func WithDefaults() Option {
	return func(c *Config) error {
		if c.handler == nil {
			c.handler = DefaultHandler()
		}
		return nil
	}
}

// New applies opts on top of DefaultConfig and validates the result.
func New(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
