// Package logger provides the bot's structured slog setup: one line per
// event, stable column order, component scoping and update correlation.
package logger

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/roskarniz/regbot/core/buildinfo"
	coreconfig "github.com/roskarniz/regbot/core/config"
)

var (
	setupOnce sync.Once
	closeOnce sync.Once

	out     *lineWriter
	files   []io.Closer
	level   slog.LevelVar
	sampler debugSampler
	tracing bool

	// L is the root logger; slog.Default until Init runs.
	L = slog.Default()
)

// settings is the logging configuration after defaults are applied.
type settings struct {
	format    lineFormat
	level     slog.Level
	order     []string
	sampleNum int
	sampleDen int
	profile   string
	filePath  string
}

func settingsFrom(cfg *coreconfig.Config) settings {
	s := settings{
		format:    lineJSON,
		level:     slog.LevelInfo,
		order:     keyOrder,
		sampleNum: 1,
		sampleDen: 50,
		profile:   "prod",
	}
	if cfg == nil {
		return s
	}
	lc := cfg.Logging
	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		s.profile = p
	}
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		s.format = lineKV
	case "json":
	default:
		if s.profile == "debug" || s.profile == "dev" {
			s.format = lineKV
		}
	}
	switch strings.ToLower(strings.TrimSpace(lc.Level)) {
	case "debug":
		s.level = slog.LevelDebug
	case "warn", "warning":
		s.level = slog.LevelWarn
	case "error":
		s.level = slog.LevelError
	}
	if custom := splitKeys(lc.KeysOrder); len(custom) > 0 {
		s.order = custom
	}
	s.sampleNum, s.sampleDen = debugRatio(lc.DebugSample)
	dir, name := strings.TrimSpace(lc.Dir), strings.TrimSpace(lc.File)
	if dir != "" && name != "" {
		s.filePath = filepath.Join(dir, name)
	}
	return s
}

func splitKeys(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "default" {
		return nil
	}
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// openLogFile returns nil when the file sink cannot be used; stdout still works.
func openLogFile(path string) *os.File {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("logger: log dir unavailable: %v", err)
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("logger: log file unavailable: %v", err)
		return nil
	}
	return f
}

// Init installs the structured logger as the slog default. Only the first call has effect.
func Init(cfg *coreconfig.Config) error {
	setupOnce.Do(func() {
		s := settingsFrom(cfg)
		level.Set(s.level)
		sampler.Set(s.sampleNum, s.sampleDen)
		tracing = envFlag("TRACE") || envFlag("LOG_TRACE")

		sinks := []io.Writer{os.Stdout}
		if f := openLogFile(s.filePath); f != nil {
			sinks = append(sinks, f)
			files = append(files, f)
		}
		out = newLineWriter(sinks, 64<<10)

		L = slog.New(newHandler(&level, out, s.format, s.order))
		slog.SetDefault(L)

		startup := []slog.Attr{
			slog.String("go_version", runtime.Version()),
			slog.String("build_version", buildinfo.Version),
			slog.String("build_commit", buildinfo.Commit),
			slog.String("cfg_profile", s.profile),
		}
		if cfg != nil {
			startup = append(startup,
				slog.String("mode", cfg.Telegram.RunMode),
				slog.String("api_url", cfg.Registration.BaseURL),
			)
		}
		Info(context.Background(), "app", "startup", startup...)
	})
	return nil
}

// Shutdown drains pending lines and closes the log file.
func Shutdown() error {
	var err error
	closeOnce.Do(func() {
		var errs []error
		if out != nil {
			errs = append(errs, out.Close())
		}
		for _, f := range files {
			errs = append(errs, f.Close())
		}
		err = errors.Join(errs...)
	})
	return err
}

func envFlag(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// Background is context.Background for call sites that have no update context.
func Background() context.Context {
	return context.Background()
}

// Component returns the root logger tagged with component=name.
func Component(name string) *slog.Logger {
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

// LogEvent writes one event line. A nil logg falls back to the context logger.
func LogEvent(ctx context.Context, logg *slog.Logger, lvl slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, lvl, "", attrs...)
}

// Event logs under the given component.
func Event(ctx context.Context, component string, lvl slog.Level, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), lvl, event, attrs...)
}

func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}

// ShouldSampleDebug thins out per-update debug lines unless tracing is on.
func ShouldSampleDebug() bool {
	return tracing || sampler.Allow()
}
