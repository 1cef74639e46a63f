package cmd

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/roskarniz/regbot/core/config"
	"github.com/roskarniz/regbot/core/logger"
	coretelegram "github.com/roskarniz/regbot/core/telegram"
)

type stubApp struct{ opts coretelegram.RunOptions }

func (s stubApp) TelegramRunOptions() (coretelegram.RunOptions, error) { return s.opts, nil }

func TestRun_VersionFlag(t *testing.T) {
	var out bytes.Buffer
	err := Run(Options{
		Name:   "regbot",
		Args:   []string{"--version"},
		Stdout: &out,
		Bootstrap: func(*coreconfig.Config) (TelegramApp, error) {
			t.Fatal("bootstrap must not run for --version")
			return nil, nil
		},
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "regbot")
}

func TestRun_ConfigFlagAndHooks(t *testing.T) {
	var gotPath string
	var started, stopped bool
	err := Run(Options{
		Args: []string{"--config", "custom.yaml"},
		LoadConfig: func(path string) (*coreconfig.Config, error) {
			gotPath = path
			return &coreconfig.Config{}, nil
		},
		Bootstrap: func(*coreconfig.Config) (TelegramApp, error) {
			return stubApp{}, nil
		},
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			require.NoError(t, opts.OnStart(ctx, coretelegram.Runtime{}))
			started = true
			require.NoError(t, opts.OnStop(ctx, coretelegram.Runtime{}))
			stopped = true
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "custom.yaml", gotPath)
	assert.True(t, started)
	assert.True(t, stopped)
}

func TestRun_ConfigEnvVarDefault(t *testing.T) {
	t.Setenv("REGBOT_CONFIG", "from-env.yaml")
	var gotPath string
	err := Run(Options{
		Args:         []string{},
		ConfigEnvVar: "REGBOT_CONFIG",
		LoadConfig: func(path string) (*coreconfig.Config, error) {
			gotPath = path
			return nil, errors.New("stop here")
		},
		Bootstrap: func(*coreconfig.Config) (TelegramApp, error) { return stubApp{}, nil },
	})
	require.Error(t, err)
	assert.Equal(t, "from-env.yaml", gotPath)
}

func TestRun_LoadFailureIsReported(t *testing.T) {
	err := Run(Options{
		Args: []string{},
		LoadConfig: func(string) (*coreconfig.Config, error) {
			return nil, errors.New("telegram token is required")
		},
		Bootstrap: func(*coreconfig.Config) (TelegramApp, error) { return stubApp{}, nil },
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}

func TestRun_FailureLoggedBeforeShutdown(t *testing.T) {
	var buf bytes.Buffer
	prev := logger.L
	logger.L = slog.New(slog.NewJSONHandler(&buf, nil))
	t.Cleanup(func() { logger.L = prev })

	var loggedAtShutdown string
	err := Run(Options{
		Args: []string{},
		LoadConfig: func(string) (*coreconfig.Config, error) {
			return &coreconfig.Config{}, nil
		},
		Bootstrap: func(*coreconfig.Config) (TelegramApp, error) {
			return nil, errors.New("db unreachable")
		},
		ShutdownLogger: func() error {
			loggedAtShutdown = buf.String()
			return nil
		},
	})
	require.Error(t, err)
	assert.Contains(t, loggedAtShutdown, `"event":"exit"`)
	assert.Contains(t, loggedAtShutdown, "db unreachable")
}
