package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnvVars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		envVars  map[string]string
		expected string
	}{
		{
			name:  "expand single env var",
			input: "webhook: ${TEST_WEBHOOK}",
			envVars: map[string]string{
				"TEST_WEBHOOK": "https://hooks.example.com/T123",
			},
			expected: "webhook: https://hooks.example.com/T123",
		},
		{
			name:  "expand multiple env vars",
			input: "webhook: ${HOOK}\ntoken: ${TOKEN}",
			envVars: map[string]string{
				"HOOK":  "hook_value",
				"TOKEN": "token_value",
			},
			expected: "webhook: hook_value\ntoken: token_value",
		},
		{
			name:     "missing env var returns empty string",
			input:    "webhook: ${MISSING_VAR}",
			envVars:  map[string]string{},
			expected: "webhook: ",
		},
		{
			name:  "mixed static and env vars",
			input: "static_value: 123\nwebhook: ${TEST_KEY}",
			envVars: map[string]string{
				"TEST_KEY": "dynamic_value",
			},
			expected: "static_value: 123\nwebhook: dynamic_value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				os.Setenv(k, v)
				defer os.Unsetenv(k)
			}

			result := expandEnvVars(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `system:
  log_level: "INFO"

feed:
  rest_base_url: "http://localhost:8080"

symbols:
  - name: "BTCUSDT"
    price_precision: 2
    quote_coin: "USDT"
    min_leverage: 1
    max_leverage: 100
    maintenance_margin_rate: 0.005

settings:
  source: "static"
  entries:
    - key: "risk_level"
      value: "STANDARD"

alerts:
  enabled: true
  slack_webhook_url: "${TEST_SLACK_WEBHOOK}"
`

func TestLoadConfigWithEnvVars(t *testing.T) {
	os.Setenv("TEST_SLACK_WEBHOOK", "https://hooks.example.com/T123")
	defer os.Unsetenv("TEST_SLACK_WEBHOOK")

	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, Secret("https://hooks.example.com/T123"), cfg.Alerts.SlackWebhookURL)
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Feed.TimeoutSeconds)
	assert.Equal(t, "STOP_ON_FIRST_FAILURE", cfg.Checks.Policy)
	assert.Equal(t, 8, cfg.Concurrency.EvaluatorPoolSize)
	assert.Equal(t, 256, cfg.Concurrency.EvaluatorPoolBuffer)
	assert.Equal(t, 9090, cfg.Telemetry.MetricsPort)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "default config is valid", mutate: func(*Config) {}},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.System.LogLevel = "VERBOSE" },
			wantErr: "system.log_level",
		},
		{
			name:    "missing feed url",
			mutate:  func(c *Config) { c.Feed.RESTBaseURL = "" },
			wantErr: "feed.rest_base_url",
		},
		{
			name:    "no symbols",
			mutate:  func(c *Config) { c.Symbols = nil },
			wantErr: "symbols",
		},
		{
			name:    "duplicate symbol",
			mutate:  func(c *Config) { c.Symbols = append(c.Symbols, c.Symbols[0]) },
			wantErr: "duplicate symbol",
		},
		{
			name:    "min leverage above max",
			mutate:  func(c *Config) { c.Symbols[0].MinLeverage = 200 },
			wantErr: "min_leverage",
		},
		{
			name:    "sqlite source without path",
			mutate:  func(c *Config) { c.Settings = SettingsConfig{Source: "sqlite"} },
			wantErr: "settings.db_path",
		},
		{
			name:    "static source without entries",
			mutate:  func(c *Config) { c.Settings = SettingsConfig{Source: "static"} },
			wantErr: "settings.entries",
		},
		{
			name:    "unknown settings source",
			mutate:  func(c *Config) { c.Settings.Source = "etcd" },
			wantErr: "settings.source",
		},
		{
			name:    "unknown check policy",
			mutate:  func(c *Config) { c.Checks.Policy = "WHATEVER" },
			wantErr: "checks.policy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigStringRedactsSecrets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Alerts = AlertsConfig{
		Enabled:          true,
		SlackWebhookURL:  Secret("https://hooks.example.com/T123/secret"),
		TelegramBotToken: Secret("123456:bot-token"),
		TelegramChatID:   "-100200300",
	}

	output := cfg.String()

	assert.Contains(t, output, "[REDACTED]")
	assert.NotContains(t, output, "secret")
	assert.NotContains(t, output, "bot-token")
	assert.Contains(t, output, "-100200300", "chat id is not a secret")
}
