// Package cmd is the process entry point shared by the bot binaries.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/roskarniz/regbot/core/buildinfo"
	coreconfig "github.com/roskarniz/regbot/core/config"
	"github.com/roskarniz/regbot/core/logger"
	coretelegram "github.com/roskarniz/regbot/core/telegram"
)

// TelegramApp describes how an application wants to be hosted by the Telegram runtime.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Options wires the process. Only Bootstrap is required.
type Options struct {
	Name string
	// Args excludes the program name; nil means os.Args[1:].
	Args   []string
	Stdout io.Writer

	// ConfigEnvVar names the variable holding the default config path (CONFIG_PATH).
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (*coreconfig.Config, error)
	Bootstrap  func(cfg *coreconfig.Config) (TelegramApp, error)

	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

func (o *Options) defaults() {
	if o.Name == "" {
		o.Name = "bot"
	}
	if o.Args == nil {
		o.Args = os.Args[1:]
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.ConfigEnvVar == "" {
		o.ConfigEnvVar = "CONFIG_PATH"
	}
	if o.LoadConfig == nil {
		o.LoadConfig = coreconfig.Load
	}
	if o.ShutdownLogger == nil {
		o.ShutdownLogger = logger.Shutdown
	}
	if o.RunTelegram == nil {
		o.RunTelegram = coretelegram.RunTelegram
	}
}

// Run serves the bot until SIGINT or SIGTERM. A failure is written to the
// structured log before the logger is shut down.
func Run(opts Options) error {
	opts.defaults()

	err := run(opts)
	if err != nil {
		logger.Error(context.Background(), "app", "exit",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
	// The structured sinks are closed past this point.
	if serr := opts.ShutdownLogger(); serr != nil {
		log.Printf("logger shutdown error: %v", serr)
	}
	return err
}

type invocation struct {
	configPath  string
	showVersion bool
}

func parseArgs(opts Options) (invocation, error) {
	path := os.Getenv(opts.ConfigEnvVar)
	if path == "" {
		path = opts.DefaultConfigPath
	}

	var inv invocation
	fs := pflag.NewFlagSet(opts.Name, pflag.ContinueOnError)
	fs.SetOutput(opts.Stdout)
	fs.StringVarP(&inv.configPath, "config", "c", path, "path to YAML config (optional; env vars override it)")
	fs.BoolVar(&inv.showVersion, "version", false, "print build information and exit")
	if err := fs.Parse(opts.Args); err != nil {
		return inv, fmt.Errorf("cmd: %w", err)
	}
	return inv, nil
}

func run(opts Options) error {
	if opts.Bootstrap == nil {
		return errors.New("cmd: Bootstrap is required")
	}
	inv, err := parseArgs(opts)
	if err != nil {
		return err
	}
	if inv.showVersion {
		fmt.Fprintln(opts.Stdout, buildinfo.String())
		return nil
	}

	startedAt := time.Now()
	cfg, err := opts.LoadConfig(inv.configPath)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}
	application, err := opts.Bootstrap(cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}
	if inv.configPath != "" {
		logger.Info(context.Background(), "app", "config.load", slog.String("path", inv.configPath))
	}

	runOpts, err := application.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options build failed: %w", err)
	}
	withLifecycleLogs(&runOpts, startedAt)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return opts.RunTelegram(ctx, runOpts)
}

// withLifecycleLogs wraps the app hooks with ready and shutdown events.
func withLifecycleLogs(ro *coretelegram.RunOptions, startedAt time.Time) {
	onStart, onStop := ro.OnStart, ro.OnStop

	ro.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if onStart != nil {
			if err := onStart(ctx, rt); err != nil {
				return err
			}
		}
		logger.Info(ctx, "app", "ready", slog.Duration("startup_duration", logger.Took(startedAt)))
		return nil
	}
	ro.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.Info(ctx, "app", "shutdown")
		if onStop == nil {
			return nil
		}
		return onStop(ctx, rt)
	}
}
