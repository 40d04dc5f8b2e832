package helpers

import (
	"log/slog"
	"os"
)

// SetupLogger creates the handler/logger pair used by every component that talks to the
// engine. A nil handler falls back to a text handler on stderr grouped under "jsonnet".
//
// Parameters:
//   - handler: The slog.Handler to use, or nil for defaults
//   - scope: The top-level group for the component family (e.g. "jsonnet", "importer")
//   - component: Optional additional group naming the component itself (e.g. "Session")
//
// Returns:
//   - The configured handler
//   - A logger created from the handler
func SetupLogger(handler slog.Handler, scope string, component string) (slog.Handler, *slog.Logger) {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, nil).WithGroup(scope)
		slog.New(handler).Debug("Handler is nil, using the default logger configuration.")
	}

	if component == "" {
		return handler, slog.New(handler)
	}
	return handler, slog.New(handler.WithGroup(component))
}
