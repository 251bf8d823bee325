package bootstrap

import (
	"risk_guard/internal/core"
	"risk_guard/pkg/logging"
)

// InitLogger initializes the global logger based on configuration.
func InitLogger(cfg *Config) (core.ILogger, error) {
	logger, err := logging.NewZapLogger(cfg.System.LogLevel)
	if err != nil {
		return nil, err
	}
	logging.SetGlobalLogger(logger)
	return logger, nil
}
