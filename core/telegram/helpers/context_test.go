package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roskarniz/regbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	upd   tele.Update
	store map[string]interface{}
}

func newFakeContext() *fakeContext {
	msg := &tele.Message{Sender: &tele.User{ID: 42}, Chat: &tele.Chat{ID: 77}}
	return &fakeContext{upd: tele.Update{ID: 5, Message: msg}, store: map[string]interface{}{}}
}

func (f *fakeContext) Update() tele.Update           { return f.upd }
func (f *fakeContext) Chat() *tele.Chat              { return f.upd.Message.Chat }
func (f *fakeContext) Sender() *tele.User            { return f.upd.Message.Sender }
func (f *fakeContext) Get(key string) interface{}    { return f.store[key] }
func (f *fakeContext) Set(key string, v interface{}) { f.store[key] = v }

func TestContext_DerivedOnceFromUpdate(t *testing.T) {
	c := newFakeContext()
	ctx := Context(c)

	assert.Equal(t, logger.BuildRID(5, 77, 42), logger.RIDFrom(ctx))
	assert.Equal(t, 5, logger.UpdateIDFrom(ctx))
	assert.Equal(t, int64(42), logger.UserIDFrom(ctx))
	assert.Equal(t, int64(77), logger.ChatIDFrom(ctx))
	assert.Equal(t, ctx, Context(c))
}

func TestWithHandler_Sticks(t *testing.T) {
	c := newFakeContext()
	WithHandler(c, "start")

	assert.Equal(t, "start", logger.HandlerFrom(Context(c)))
	assert.Equal(t, "start", logger.HandlerFrom(WithHandler(c, "")))
}
