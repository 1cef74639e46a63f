package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactRequest(t *testing.T) {
	m := ContactRequest("share")
	require.Len(t, m.ReplyKeyboard, 1)
	require.Len(t, m.ReplyKeyboard[0], 1)

	btn := m.ReplyKeyboard[0][0]
	assert.Equal(t, "share", btn.Text)
	assert.True(t, btn.Contact)
	assert.True(t, m.OneTimeKeyboard)
	assert.True(t, m.ResizeKeyboard)
}

func TestRemoveKeyboard(t *testing.T) {
	assert.True(t, RemoveKeyboard().RemoveKeyboard)
}
