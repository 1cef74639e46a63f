package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/roskarniz/regbot/core/config"
	coretelegram "github.com/roskarniz/regbot/core/telegram"
	"github.com/roskarniz/regbot/internal/onboarding"

	tele "gopkg.in/telebot.v4"
)

func testConfig(t *testing.T, adminID int64) *coreconfig.Config {
	t.Helper()
	cfg := &coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t", AdminID: adminID}}
	require.NoError(t, coreconfig.Normalize(cfg))
	return cfg
}

func TestNew_RegistersCommands(t *testing.T) {
	a, err := New(testConfig(t, 0), nil)
	require.NoError(t, err)

	menu := a.registry.MenuCommands()
	require.Len(t, menu, 2)
	assert.Equal(t, "cancel", menu[0].Text)
	assert.Equal(t, "start", menu[1].Text)
	assert.Len(t, a.registry.Commands(), 2)
}

func TestNew_AdminCommandHiddenFromMenu(t *testing.T) {
	a, err := New(testConfig(t, 777), nil)
	require.NoError(t, err)

	assert.Len(t, a.registry.Commands(), 3)
	assert.Len(t, a.registry.MenuCommands(), 2)
	assert.True(t, a.registry.Commands()["/sessions"].AdminOnly)
}

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestTelegramRunOptions(t *testing.T) {
	a, err := New(testConfig(t, 0), nil)
	require.NoError(t, err)

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)

	endpoints := map[any]bool{}
	for _, r := range opts.Routes {
		endpoints[r.Endpoint] = true
	}
	assert.True(t, endpoints["/start"])
	assert.True(t, endpoints["/cancel"])
	assert.True(t, endpoints[tele.OnText])
	assert.True(t, endpoints[tele.OnContact])

	var names []string
	for _, mw := range opts.Middlewares {
		names = append(names, mw.Name)
	}
	assert.Equal(t, []string{"recover", "logger"}, names)
	assert.Same(t, a.cfg, opts.Config)
}

func TestLifecycle_StopDrainsDialog(t *testing.T) {
	a, err := New(testConfig(t, 0), nil)
	require.NoError(t, err)
	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, opts.OnStart(ctx, coretelegram.Runtime{}))
	require.NoError(t, opts.OnStop(ctx, coretelegram.Runtime{}))
	require.NoError(t, opts.OnStop(ctx, coretelegram.Runtime{}))

	assert.Error(t, a.Dialog().Submit(ctx, onboarding.Event{Kind: onboarding.EventStart, UserID: 1, ChatID: 1}))
}
