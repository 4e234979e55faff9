package cli

import (
	"github.com/glorpus-work/enpkg/internal/logger"
	"github.com/glorpus-work/enpkg/pkg/config"
)

// initLogger configures the global logger from the settings.
func initLogger(cfg *config.Config) {
	format := logger.FormatText
	if cfg.Settings.OutputFormat == string(logger.FormatJSON) {
		format = logger.FormatJSON
	}
	logger.InitLogger(cfg.Settings.LogLevel, format)
}
