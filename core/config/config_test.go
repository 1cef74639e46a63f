package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_YAMLWithEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
telegram:
  token: "from-yaml"
  run_mode: polling
registration:
  base_url: "https://example.test/api/"
  timeout_seconds: 3
session:
  idle_ttl_seconds: 0
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, "https://example.test/api", cfg.Registration.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Registration.Timeout())
	assert.Equal(t, time.Duration(0), cfg.Session.IdleTTL(), "explicit zero disables eviction")
	assert.Equal(t, DefaultSweepIntervalSeconds, cfg.Session.SweepIntervalSeconds)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_MissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-only")
	t.Setenv("API_URL", "http://api.internal:9000/api")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "env-only", cfg.Telegram.Token)
	assert.Equal(t, "http://api.internal:9000/api", cfg.Registration.BaseURL)
	assert.Equal(t, DefaultTimeoutSeconds, cfg.Registration.TimeoutSeconds)
	assert.Equal(t, DefaultIdleTTLSeconds, cfg.Session.IdleTTLSeconds)
}

func TestLoad_MissingTokenIsFatal(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: " t "}}
	require.NoError(t, Normalize(cfg))

	assert.Equal(t, "t", cfg.Telegram.Token)
	assert.Equal(t, DefaultBaseURL, cfg.Registration.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Registration.Timeout())
	assert.Equal(t, time.Minute, cfg.Session.SweepInterval())
}

func TestNormalize_Rejects(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"relative base url", func(c *Config) { c.Registration.BaseURL = "/api" }},
		{"ftp base url", func(c *Config) { c.Registration.BaseURL = "ftp://host/api" }},
		{"negative timeout", func(c *Config) { c.Registration.TimeoutSeconds = -2 }},
		{"bad run mode", func(c *Config) { c.Telegram.RunMode = "carrier-pigeon" }},
		{"webhook without url", func(c *Config) { c.Telegram.RunMode = RunModeWebhook }},
		{"bad rate limit exclusion", func(c *Config) { c.RateLimit.ExcludeUpdates = []string{"inline_query"} }},
		{"database without host", func(c *Config) { c.Database.Enabled = true }},
		{"negative ttl", func(c *Config) { c.Session.IdleTTLSeconds = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Telegram: TelegramConfig{Token: "t"}}
			tt.mut(cfg)
			assert.Error(t, Normalize(cfg))
		})
	}
}

func TestNormalize_DatabaseDefaults(t *testing.T) {
	cfg := &Config{
		Telegram: TelegramConfig{Token: "t"},
		Database: DatabaseConfig{Enabled: true, Host: "db", Name: "regbot"},
	}
	require.NoError(t, Normalize(cfg))

	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 4, cfg.Database.MaxConnections)
	assert.Equal(t, "migrations", cfg.Database.MigrationsDir)
}

func TestNormalize_ReportsEveryProblem(t *testing.T) {
	cfg := &Config{
		Telegram:     TelegramConfig{Token: "t", RunMode: RunModeWebhook},
		Registration: RegistrationConfig{BaseURL: "ftp://host"},
		RateLimit:    RateLimitConfig{IntervalMS: -1},
	}
	err := Normalize(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook.url, webhook.listen, webhook.port")
	assert.Contains(t, err.Error(), "registration.base_url")
	assert.Contains(t, err.Error(), "rate_limit.interval_ms")
}

func TestNormalize_RateLimitExclusions(t *testing.T) {
	cfg := &Config{
		Telegram:  TelegramConfig{Token: "t", RunMode: "Polling"},
		RateLimit: RateLimitConfig{IntervalMS: 1500, ExcludeUpdates: []string{" Contact ", "", "contact", "MESSAGE"}},
	}
	require.NoError(t, Normalize(cfg))

	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, []string{"contact", "message"}, cfg.RateLimit.ExcludeUpdates)
	assert.Equal(t, map[string]struct{}{"contact": {}, "message": {}}, cfg.RateLimit.Excluded())
	assert.Equal(t, 1500*time.Millisecond, cfg.RateLimit.Interval())
}
