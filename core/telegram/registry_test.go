package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistry_MenuHidesAdminAndHidden(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", Command{Handler: noop, Description: "Start registration"}))
	require.NoError(t, reg.RegisterCommand("/cancel", Command{Handler: noop, Description: "Cancel registration"}))
	require.NoError(t, reg.RegisterCommand("/sessions", Command{Handler: noop, Description: "Active sessions", AdminOnly: true, Hidden: true}))

	menu := reg.MenuCommands()
	require.Len(t, menu, 2)
	assert.Equal(t, "cancel", menu[0].Text)
	assert.Equal(t, "start", menu[1].Text)
	assert.Len(t, reg.Commands(), 3)
}

func TestRegistry_RejectsInvalidAndDuplicate(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.RegisterCommand("start", Command{Handler: noop, Description: "no slash"}))
	assert.Error(t, reg.RegisterCommand("/", Command{Handler: noop, Description: "bare slash"}))
	assert.Error(t, reg.RegisterCommand("/empty", Command{Handler: noop}))
	assert.Error(t, reg.RegisterCommand("/nil", Command{Description: "no handler"}))
	require.NoError(t, reg.RegisterCommand("/start", Command{Handler: noop, Description: "first"}))
	assert.Error(t, reg.RegisterCommand("/start", Command{Handler: noop, Description: "second"}))

	require.Len(t, reg.Commands(), 1)
	assert.Equal(t, "first", reg.Commands()["/start"].Description)
}
