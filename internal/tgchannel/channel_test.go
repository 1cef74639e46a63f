package tgchannel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roskarniz/regbot/core/telegram/sender"
	"github.com/roskarniz/regbot/internal/onboarding"

	tele "gopkg.in/telebot.v4"
)

type sentMsg struct {
	to   tele.Recipient
	what interface{}
	opts []interface{}
}

type fakeBot struct {
	mu        sync.Mutex
	sent      []sentMsg
	deleted   []tele.Editable
	deleteErr error
}

func (f *fakeBot) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMsg{to: to, what: what, opts: opts})
	return &tele.Message{}, nil
}

func (f *fakeBot) Delete(msg tele.Editable) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, msg)
	return f.deleteErr
}

func (f *fakeBot) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestChannel_NotBound(t *testing.T) {
	ch := New()
	assert.ErrorIs(t, ch.Send(context.Background(), 1, "x", onboarding.AffordanceNone), ErrNotBound)
	assert.ErrorIs(t, ch.Delete(context.Background(), 1, 2), ErrNotBound)
}

func TestChannel_SendAffordances(t *testing.T) {
	bot := &fakeBot{}
	ch := New()
	ch.Bind(bot, nil)
	ctx := context.Background()

	require.NoError(t, ch.Send(ctx, 10, "plain", onboarding.AffordanceNone))
	require.NoError(t, ch.Send(ctx, 10, "share", onboarding.AffordanceContactRequest))
	require.NoError(t, ch.Send(ctx, 10, "done", onboarding.AffordanceRemove))

	require.Len(t, bot.sent, 3)
	assert.Equal(t, tele.ChatID(10), bot.sent[0].to)
	assert.Equal(t, "plain", bot.sent[0].what)
	assert.Empty(t, bot.sent[0].opts)

	opts, ok := bot.sent[1].opts[0].(*tele.SendOptions)
	require.True(t, ok)
	require.Len(t, opts.ReplyMarkup.ReplyKeyboard, 1)
	assert.True(t, opts.ReplyMarkup.ReplyKeyboard[0][0].Contact)
	assert.Equal(t, onboarding.ContactButtonLabel, opts.ReplyMarkup.ReplyKeyboard[0][0].Text)

	opts, ok = bot.sent[2].opts[0].(*tele.SendOptions)
	require.True(t, ok)
	assert.True(t, opts.ReplyMarkup.RemoveKeyboard)
}

func TestChannel_DeleteTargetsMessage(t *testing.T) {
	bot := &fakeBot{deleteErr: errors.New("message to delete not found")}
	ch := New()
	ch.Bind(bot, nil)

	err := ch.Delete(context.Background(), 10, 55)
	require.Error(t, err)
	require.Len(t, bot.deleted, 1)
	id, chatID := bot.deleted[0].MessageSig()
	assert.Equal(t, "55", id)
	assert.Equal(t, int64(10), chatID)
}

func TestChannel_ThroughDispatcher(t *testing.T) {
	bot := &fakeBot{}
	disp := sender.NewDispatcher(sender.Options{QueueSize: 8})
	t.Cleanup(disp.Close)

	ch := New()
	ch.Bind(bot, disp)
	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, ch.Send(context.Background(), 10, text, onboarding.AffordanceNone))
	}

	require.Eventually(t, func() bool { return bot.sentCount() == 3 }, time.Second, 5*time.Millisecond)
	disp.Close()
	assert.Equal(t, sender.Stats{Sent: 3}, ch.Stats())

	bot.mu.Lock()
	defer bot.mu.Unlock()
	assert.Equal(t, "one", bot.sent[0].what)
	assert.Equal(t, "two", bot.sent[1].what)
	assert.Equal(t, "three", bot.sent[2].what)
}

func TestChannel_StatsZeroWhenUnbound(t *testing.T) {
	assert.Equal(t, sender.Stats{}, New().Stats())
}
