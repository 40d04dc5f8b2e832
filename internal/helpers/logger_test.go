package helpers

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	t.Parallel()

	t.Run("nil handler uses default", func(t *testing.T) {
		handler, logger := SetupLogger(nil, "jsonnet", "Session")
		require.NotNil(t, handler)
		require.NotNil(t, logger)
	})

	t.Run("component group is applied", func(t *testing.T) {
		var buf bytes.Buffer
		base := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})

		handler, logger := SetupLogger(base, "jsonnet", "Session")
		require.Equal(t, base, handler)

		logger.Info("hello", "key", "value")
		require.Contains(t, buf.String(), "Session.key=value")
	})

	t.Run("empty component keeps handler groups", func(t *testing.T) {
		var buf bytes.Buffer
		base := slog.NewTextHandler(&buf, nil)

		_, logger := SetupLogger(base, "jsonnet", "")
		logger.Info("hello", "key", "value")
		require.Contains(t, buf.String(), " key=value")
	})
}
