package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"

	"risk_guard/internal/config"
)

// Config is an alias for the project's main configuration struct
type Config = config.Config

// LoadConfig delegates to the project's config loader
func LoadConfig(path string) (*Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	// Pre-flight Checks
	if err := checkPreFlight(cfg); err != nil {
		return nil, fmt.Errorf("pre-flight checks failed: %w", err)
	}

	return cfg, nil
}

// checkPreFlight performs environment checks beyond schema validation
func checkPreFlight(cfg *Config) error {
	if cfg.Settings.Source == "sqlite" {
		dir := filepath.Dir(cfg.Settings.DBPath)
		info, err := os.Stat(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("settings db directory not found: %s", dir)
			}
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("settings db path parent is not a directory: %s", dir)
		}
	}

	if cfg.Telemetry.MetricsPort < 0 || cfg.Telemetry.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.Telemetry.MetricsPort)
	}

	return nil
}
