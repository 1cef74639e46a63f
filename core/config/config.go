package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig identifies the bot and how it receives updates.
type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"TELEGRAM_BOT_TOKEN"`
	// AdminID may run /sessions; 0 leaves admin commands open.
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds of 0 means the poller default.
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig is read only in webhook mode.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// RegistrationConfig points the bot at the site registration API.
type RegistrationConfig struct {
	BaseURL        string `yaml:"base_url" envconfig:"API_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"API_TIMEOUT_SECONDS"`
}

// Timeout returns the per-call deadline for the registration API.
func (c RegistrationConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SessionConfig controls eviction of abandoned dialogues.
type SessionConfig struct {
	// IdleTTLSeconds of 0 keeps sessions until they finish or are cancelled.
	IdleTTLSeconds       int `yaml:"idle_ttl_seconds" envconfig:"SESSION_IDLE_TTL_SECONDS"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds" envconfig:"SESSION_SWEEP_INTERVAL_SECONDS"`
}

// IdleTTL returns the idle lifetime of a session.
func (c SessionConfig) IdleTTL() time.Duration {
	return time.Duration(c.IdleTTLSeconds) * time.Second
}

// SweepInterval returns how often stale sessions are collected.
func (c SessionConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// DatabaseConfig holds connection settings for the registration journal.
type DatabaseConfig struct {
	Enabled        bool   `yaml:"enabled" envconfig:"DB_ENABLED"`
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	MigrationsDir  string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

// LoggingConfig shapes the structured log output.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
	// KeysOrder is a comma separated column order for kv lines.
	KeysOrder string `yaml:"keys_order"`
	// DebugSample is "N/D" or "D"; "off" keeps every debug line.
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	File        string `yaml:"file" envconfig:"LOG_FILE"`
	// Profile "debug" lowers the default level; "prod" raises it.
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// Telegram run modes.
const (
	RunModeWebhook  = "webhook"
	RunModeLongpoll = "longpoll"
)

// Update kinds that rate_limit.exclude_updates may name.
const (
	UpdateMessage = "message"
	UpdateContact = "contact"
)

const (
	DefaultBaseURL              = "http://localhost:8000/api"
	DefaultTimeoutSeconds       = 10
	DefaultIdleTTLSeconds       = 1800
	DefaultSweepIntervalSeconds = 60
)

// RateLimitConfig throttles each user to one update per IntervalMS.
// ExcludeUpdates lists update kinds that are never throttled: "message" or "contact".
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Interval returns IntervalMS as a duration; zero disables throttling.
func (c RateLimitConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

// Excluded returns ExcludeUpdates as a set.
func (c RateLimitConfig) Excluded() map[string]struct{} {
	set := make(map[string]struct{}, len(c.ExcludeUpdates))
	for _, kind := range c.ExcludeUpdates {
		set[kind] = struct{}{}
	}
	return set
}

// Config aggregates the whole bot configuration.
type Config struct {
	Telegram     TelegramConfig     `yaml:"telegram"`
	Webhook      WebhookConfig      `yaml:"webhook"`
	Registration RegistrationConfig `yaml:"registration"`
	Session      SessionConfig      `yaml:"session"`
	Database     DatabaseConfig     `yaml:"database"`
	Logging      LoggingConfig      `yaml:"logging"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
}

// Load reads the optional YAML file at path, overlays the environment and
// normalizes the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Config{
		Session: SessionConfig{
			IdleTTLSeconds: -1,
		},
	}

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse YAML config: %w", err)
			}
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

