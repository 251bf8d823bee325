// Package config handles configuration management with validation
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"risk_guard/internal/settings"
)

// Config represents the complete configuration structure
type Config struct {
	System      SystemConfig      `yaml:"system"`
	Feed        FeedConfig        `yaml:"feed"`
	Symbols     []SymbolConfig    `yaml:"symbols"`
	Settings    SettingsConfig    `yaml:"settings"`
	Checks      ChecksConfig      `yaml:"checks"`
	Risk        RiskConfig        `yaml:"risk"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Alerts      AlertsConfig      `yaml:"alerts"`
}

// SystemConfig contains system settings
type SystemConfig struct {
	LogLevel string `yaml:"log_level" validate:"required,oneof=DEBUG INFO WARN ERROR FATAL"`
}

// FeedConfig contains quote service endpoints
type FeedConfig struct {
	RESTBaseURL    string `yaml:"rest_base_url" validate:"required"`
	WebsocketURL   string `yaml:"websocket_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"min=1,max=120"`
}

// SymbolConfig describes one tradable contract
type SymbolConfig struct {
	Name           string  `yaml:"name" validate:"required"`
	PricePrecision int32   `yaml:"price_precision" validate:"min=0,max=8"`
	TickSize       string  `yaml:"tick_size"`
	MinOrderQty    string  `yaml:"min_order_qty"`
	MinNotional    string  `yaml:"min_notional"`
	QuoteCoin      string  `yaml:"quote_coin" validate:"required"`
	MinLeverage    int     `yaml:"min_leverage" validate:"min=1"`
	MaxLeverage    int     `yaml:"max_leverage" validate:"min=1,max=125"`
	MaintenanceMMR float64 `yaml:"maintenance_margin_rate" validate:"min=0,max=1"`
}

// SettingsConfig selects where risk parameters come from
type SettingsConfig struct {
	// Source is "static" (config entries only) or "sqlite".
	Source  string           `yaml:"source" validate:"oneof=static sqlite"`
	DBPath  string           `yaml:"db_path"`
	Entries []settings.Entry `yaml:"entries"`
}

// ChecksConfig tunes the check pipeline
type ChecksConfig struct {
	// Policy is "STOP_ON_FIRST_FAILURE" or "AGGREGATE".
	Policy string `yaml:"policy" validate:"oneof=STOP_ON_FIRST_FAILURE AGGREGATE"`
}

// RiskConfig contains estimator defaults
type RiskConfig struct {
	MaintenanceMarginRate float64 `yaml:"maintenance_margin_rate" validate:"min=0,max=1"`
}

// ConcurrencyConfig contains worker pool settings
type ConcurrencyConfig struct {
	EvaluatorPoolSize   int `yaml:"evaluator_pool_size" validate:"min=1,max=100"`
	EvaluatorPoolBuffer int `yaml:"evaluator_pool_buffer" validate:"min=1,max=10000"`
}

// TelemetryConfig contains telemetry settings
type TelemetryConfig struct {
	MetricsPort   int  `yaml:"metrics_port"`
	EnableMetrics bool `yaml:"enable_metrics"`
}

// AlertsConfig configures veto notification sinks
type AlertsConfig struct {
	Enabled          bool   `yaml:"enabled"`
	SlackWebhookURL  Secret `yaml:"slack_webhook_url"`
	TelegramBotToken Secret `yaml:"telegram_bot_token"`
	TelegramChatID   string `yaml:"telegram_chat_id"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s' (value: %v): %s", e.Field, e.Value, e.Message)
}

// LoadConfig loads configuration from a YAML file with environment variable expansion
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := expandEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.System.LogLevel == "" {
		c.System.LogLevel = "INFO"
	}
	if c.Feed.TimeoutSeconds == 0 {
		c.Feed.TimeoutSeconds = 10
	}
	if c.Settings.Source == "" {
		c.Settings.Source = "static"
	}
	if c.Checks.Policy == "" {
		c.Checks.Policy = "STOP_ON_FIRST_FAILURE"
	}
	if c.Concurrency.EvaluatorPoolSize == 0 {
		c.Concurrency.EvaluatorPoolSize = 8
	}
	if c.Concurrency.EvaluatorPoolBuffer == 0 {
		c.Concurrency.EvaluatorPoolBuffer = 256
	}
	if c.Telemetry.MetricsPort == 0 {
		c.Telemetry.MetricsPort = 9090
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	var errors []string

	if err := c.validateSystemConfig(); err != nil {
		errors = append(errors, err.Error())
	}
	if err := c.validateFeedConfig(); err != nil {
		errors = append(errors, err.Error())
	}
	if err := c.validateSymbols(); err != nil {
		errors = append(errors, err.Error())
	}
	if err := c.validateSettingsConfig(); err != nil {
		errors = append(errors, err.Error())
	}
	if err := c.validateChecksConfig(); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}

func (c *Config) validateSystemConfig() error {
	validLevels := []string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}
	if !contains(validLevels, strings.ToUpper(c.System.LogLevel)) {
		return ValidationError{
			Field:   "system.log_level",
			Value:   c.System.LogLevel,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validLevels, ", ")),
		}
	}
	return nil
}

func (c *Config) validateFeedConfig() error {
	if c.Feed.RESTBaseURL == "" {
		return ValidationError{
			Field:   "feed.rest_base_url",
			Message: "quote service base URL is required",
		}
	}
	return nil
}

func (c *Config) validateSymbols() error {
	if len(c.Symbols) == 0 {
		return ValidationError{
			Field:   "symbols",
			Message: "at least one symbol must be configured",
		}
	}
	seen := make(map[string]bool)
	for _, s := range c.Symbols {
		if s.Name == "" {
			return ValidationError{
				Field:   "symbols.name",
				Message: "symbol name is required",
			}
		}
		if seen[s.Name] {
			return ValidationError{
				Field:   "symbols.name",
				Value:   s.Name,
				Message: "duplicate symbol",
			}
		}
		seen[s.Name] = true
		if s.QuoteCoin == "" {
			return ValidationError{
				Field:   fmt.Sprintf("symbols.%s.quote_coin", s.Name),
				Message: "quote coin is required",
			}
		}
		if s.MaxLeverage <= 0 {
			return ValidationError{
				Field:   fmt.Sprintf("symbols.%s.max_leverage", s.Name),
				Value:   s.MaxLeverage,
				Message: "max leverage must be positive",
			}
		}
		if s.MinLeverage > s.MaxLeverage {
			return ValidationError{
				Field:   fmt.Sprintf("symbols.%s.min_leverage", s.Name),
				Value:   s.MinLeverage,
				Message: "min leverage must not exceed max leverage",
			}
		}
	}
	return nil
}

func (c *Config) validateSettingsConfig() error {
	switch c.Settings.Source {
	case "static":
		if len(c.Settings.Entries) == 0 {
			return ValidationError{
				Field:   "settings.entries",
				Message: "static settings source requires at least one entry",
			}
		}
	case "sqlite":
		if c.Settings.DBPath == "" {
			return ValidationError{
				Field:   "settings.db_path",
				Message: "sqlite settings source requires a database path",
			}
		}
	default:
		return ValidationError{
			Field:   "settings.source",
			Value:   c.Settings.Source,
			Message: "must be one of: static, sqlite",
		}
	}
	return nil
}

func (c *Config) validateChecksConfig() error {
	validPolicies := []string{"STOP_ON_FIRST_FAILURE", "AGGREGATE"}
	if !contains(validPolicies, c.Checks.Policy) {
		return ValidationError{
			Field:   "checks.policy",
			Value:   c.Checks.Policy,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validPolicies, ", ")),
		}
	}
	return nil
}

// String returns a string representation of the configuration. Secret fields
// redact themselves during marshaling.
func (c *Config) String() string {
	data, _ := yaml.Marshal(c)
	return string(data)
}

// Helper functions

func expandEnvVars(s string) string {
	return os.Expand(s, os.Getenv)
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// DefaultConfig returns a default configuration for testing
func DefaultConfig() *Config {
	cfg := &Config{
		System: SystemConfig{LogLevel: "INFO"},
		Feed: FeedConfig{
			RESTBaseURL:    "http://localhost:8080",
			TimeoutSeconds: 10,
		},
		Symbols: []SymbolConfig{
			{
				Name:           "BTCUSDT",
				PricePrecision: 2,
				TickSize:       "0.5",
				MinOrderQty:    "0.001",
				MinNotional:    "5",
				QuoteCoin:      "USDT",
				MinLeverage:    1,
				MaxLeverage:    100,
				MaintenanceMMR: 0.005,
			},
		},
		Settings: SettingsConfig{
			Source: "static",
			Entries: []settings.Entry{
				{Key: "warning_pnl_distance", Value: "100"},
				{Key: "critical_part_of_liquidation_distance", Value: "30"},
				{Key: "percent_of_liquidation_distance_to_add_stop", Value: "70"},
				{Key: "stops_range_pnl_percent", Value: "3"},
				{Key: "percent_of_liquidation_distance_for_stops_range", Value: "10"},
				{Key: "acceptable_stopped_part", Value: "30"},
				{Key: "acceptable_stopped_part_divider", Value: "2"},
				{Key: "safe_liquidation_distance", Value: "5000"},
				{Key: "max_average_price_deviation", Value: "2"},
				{Key: "risk_level", Value: "STANDARD"},
				{Key: "liquidation_assertion_mode", Value: "MODERATE"},
				{Key: "taker_fee_rate", Value: "0.00055"},
			},
		},
		Checks:      ChecksConfig{Policy: "STOP_ON_FIRST_FAILURE"},
		Risk:        RiskConfig{MaintenanceMarginRate: 0.005},
		Concurrency: ConcurrencyConfig{EvaluatorPoolSize: 8, EvaluatorPoolBuffer: 256},
		Telemetry:   TelemetryConfig{MetricsPort: 9090, EnableMetrics: true},
	}
	return cfg
}
