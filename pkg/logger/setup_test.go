package logger

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/raywall/single-table-toolkit/pkg/config"
)

func TestConfigure(t *testing.T) {
	t.Run("default level is info", func(t *testing.T) {
		cfg := config.LoggingConf{Enabled: true}
		_ = Configure(cfg)

		if zerolog.GlobalLevel() != zerolog.InfoLevel {
			t.Errorf("expected InfoLevel, got %v", zerolog.GlobalLevel())
		}
	})

	t.Run("custom level debug", func(t *testing.T) {
		cfg := config.LoggingConf{Enabled: true, Level: "debug"}
		_ = Configure(cfg)

		if zerolog.GlobalLevel() != zerolog.DebugLevel {
			t.Errorf("expected DebugLevel, got %v", zerolog.GlobalLevel())
		}
	})

	t.Run("disabled logger discards output", func(t *testing.T) {
		cfg := config.LoggingConf{Enabled: false}
		logger := Configure(cfg)

		logger.Info().Msg("dropped")
	})
}
