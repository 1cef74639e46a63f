package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Normalize validates cfg and fills defaults in place. Every problem found
// is reported in one joined error.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	var errs []error
	check := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	check(normalizeTelegram(&cfg.Telegram, cfg.Webhook))
	check(normalizeRegistration(&cfg.Registration))
	check(normalizeSession(&cfg.Session))
	check(normalizeDatabase(&cfg.Database))
	check(normalizeRateLimit(&cfg.RateLimit))
	return errors.Join(errs...)
}

func normalizeTelegram(tc *TelegramConfig, wh WebhookConfig) error {
	tc.Token = strings.TrimSpace(tc.Token)
	if tc.Token == "" {
		return errors.New("telegram token is required (TELEGRAM_BOT_TOKEN)")
	}

	mode := strings.ToLower(strings.TrimSpace(tc.RunMode))
	switch mode {
	case "", "polling", RunModeLongpoll:
		tc.RunMode = RunModeLongpoll
		if tc.LongPollTimeoutSeconds < 0 {
			return errors.New("telegram.longpoll_timeout_seconds must be >= 0")
		}
	case RunModeWebhook:
		tc.RunMode = RunModeWebhook
		var missing []string
		if strings.TrimSpace(wh.URL) == "" {
			missing = append(missing, "url")
		}
		if strings.TrimSpace(wh.Listen) == "" {
			missing = append(missing, "listen")
		}
		if wh.Port <= 0 {
			missing = append(missing, "port")
		}
		if len(missing) > 0 {
			return fmt.Errorf("webhook mode needs webhook.%s", strings.Join(missing, ", webhook."))
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", tc.RunMode)
	}
	return nil
}

func normalizeRegistration(rc *RegistrationConfig) error {
	base := strings.TrimRight(strings.TrimSpace(rc.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("registration.base_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("registration.base_url must be an absolute http(s) URL, got %q", rc.BaseURL)
	}
	rc.BaseURL = base

	if rc.TimeoutSeconds < 0 {
		return errors.New("registration.timeout_seconds must be > 0")
	}
	if rc.TimeoutSeconds == 0 {
		rc.TimeoutSeconds = DefaultTimeoutSeconds
	}
	return nil
}

// normalizeSession treats IdleTTLSeconds == -1 as unset; Load seeds it so an
// explicit 0 ("never evict") survives.
func normalizeSession(sc *SessionConfig) error {
	if sc.IdleTTLSeconds == -1 {
		sc.IdleTTLSeconds = DefaultIdleTTLSeconds
	}
	if sc.IdleTTLSeconds < 0 {
		return errors.New("session.idle_ttl_seconds must be >= 0")
	}
	if sc.SweepIntervalSeconds < 0 {
		return errors.New("session.sweep_interval_seconds must be > 0")
	}
	if sc.SweepIntervalSeconds == 0 {
		sc.SweepIntervalSeconds = DefaultSweepIntervalSeconds
	}
	return nil
}

func normalizeDatabase(dc *DatabaseConfig) error {
	if !dc.Enabled {
		return nil
	}
	if strings.TrimSpace(dc.Host) == "" || strings.TrimSpace(dc.Name) == "" {
		return errors.New("database.host and database.name are required when database.enabled is true")
	}
	setDefault(&dc.Port, "5432")
	setDefault(&dc.SSLMode, "disable")
	setDefault(&dc.MigrationsDir, "migrations")
	if dc.MaxConnections <= 0 {
		dc.MaxConnections = 4
	}
	return nil
}

func normalizeRateLimit(rl *RateLimitConfig) error {
	if rl.IntervalMS < 0 {
		return errors.New("rate_limit.interval_ms must be >= 0")
	}
	kinds := rl.ExcludeUpdates[:0]
	for _, raw := range rl.ExcludeUpdates {
		kind := strings.ToLower(strings.TrimSpace(raw))
		switch kind {
		case "":
			continue
		case UpdateMessage, UpdateContact:
			if !slices.Contains(kinds, kind) {
				kinds = append(kinds, kind)
			}
		default:
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: message, contact", raw)
		}
	}
	rl.ExcludeUpdates = kinds
	return nil
}

func setDefault(v *string, def string) {
	if *v == "" {
		*v = def
	}
}
