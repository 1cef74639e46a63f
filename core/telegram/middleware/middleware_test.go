package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roskarniz/regbot/core/logger"
	tghelpers "github.com/roskarniz/regbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	upd   tele.Update
	store map[string]interface{}
}

func newFakeContext(userID int64, msg *tele.Message) *fakeContext {
	if msg == nil {
		msg = &tele.Message{}
	}
	msg.Sender = &tele.User{ID: userID}
	msg.Chat = &tele.Chat{ID: userID, Type: tele.ChatPrivate}
	return &fakeContext{upd: tele.Update{ID: int(userID), Message: msg}, store: map[string]interface{}{}}
}

func (f *fakeContext) Update() tele.Update           { return f.upd }
func (f *fakeContext) Chat() *tele.Chat              { return f.upd.Message.Chat }
func (f *fakeContext) Sender() *tele.User            { return f.upd.Message.Sender }
func (f *fakeContext) Get(key string) interface{}    { return f.store[key] }
func (f *fakeContext) Set(key string, v interface{}) { f.store[key] = v }

func counting(n *int) tele.HandlerFunc {
	return func(tele.Context) error {
		*n++
		return nil
	}
}

func TestRateLimit_DropsBurstPerUser(t *testing.T) {
	var handled, limited int
	mw := RateLimitMiddleware(RateLimitOptions{Interval: time.Hour, OnLimited: counting(&limited)})
	h := mw(counting(&handled))

	require.NoError(t, h(newFakeContext(1, &tele.Message{Text: "a"})))
	require.NoError(t, h(newFakeContext(1, &tele.Message{Text: "b"})))
	require.NoError(t, h(newFakeContext(2, &tele.Message{Text: "c"})))

	assert.Equal(t, 2, handled)
	assert.Equal(t, 1, limited)
}

func TestRateLimit_ExcludedKindsPass(t *testing.T) {
	var handled int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		Exclude:  map[string]struct{}{"contact": {}},
	})
	h := mw(counting(&handled))

	contact := func() *tele.Message { return &tele.Message{Contact: &tele.Contact{PhoneNumber: "1"}} }
	require.NoError(t, h(newFakeContext(1, contact())))
	require.NoError(t, h(newFakeContext(1, contact())))
	assert.Equal(t, 2, handled)
}

func TestUpdateKind(t *testing.T) {
	assert.Equal(t, "contact", UpdateKind(tele.Update{Message: &tele.Message{Contact: &tele.Contact{}}}))
	assert.Equal(t, "message", UpdateKind(tele.Update{Message: &tele.Message{Text: "x"}}))
	assert.Equal(t, "other", UpdateKind(tele.Update{}))
}

func TestAdminOnly(t *testing.T) {
	var handled, rejected int
	mw := AdminOnlyMiddleware(AdminOptions{AdminID: 7, OnReject: counting(&rejected)})
	h := mw(counting(&handled))

	require.NoError(t, h(newFakeContext(7, nil)))
	require.NoError(t, h(newFakeContext(8, nil)))
	assert.Equal(t, 1, handled)
	assert.Equal(t, 1, rejected)
}

func TestRecover_SwallowsPanic(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	assert.NotPanics(t, func() {
		assert.NoError(t, h(newFakeContext(1, nil)))
	})
}

func TestPayloadAttrs(t *testing.T) {
	attrs := payloadAttrs(&tele.Message{Text: "securepass"}, true)
	require.Len(t, attrs, 2)
	assert.Equal(t, "[redacted]", attrs[1].Value.String())

	attrs = payloadAttrs(&tele.Message{Text: "hello"}, false)
	require.Len(t, attrs, 2)
	assert.Equal(t, "hello", attrs[1].Value.String())

	attrs = payloadAttrs(&tele.Message{Contact: &tele.Contact{PhoneNumber: "+7999"}}, false)
	require.Len(t, attrs, 1)
	assert.Equal(t, "contact", attrs[0].Value.String())

	assert.Nil(t, payloadAttrs(&tele.Message{}, false))
}

func TestLoggerMiddleware_StoresRID(t *testing.T) {
	var handled int
	h := NewLoggerMiddleware(LoggerOptions{Redact: func(int64) bool { return true }})(counting(&handled))

	c := newFakeContext(42, &tele.Message{Text: "x"})
	require.NoError(t, h(c))
	assert.Equal(t, 1, handled)
	assert.Equal(t, logger.BuildRID(42, 42, 42), logger.RIDFrom(tghelpers.Context(c)))
}


func TestThrottle_ForgetsQuietUsers(t *testing.T) {
	th := &throttle{interval: time.Second, last: map[int64]time.Time{}}
	t0 := time.Unix(1_700_000_000, 0)

	assert.True(t, th.allow(1, t0))
	assert.False(t, th.allow(1, t0.Add(500*time.Millisecond)))
	assert.True(t, th.allow(2, t0.Add(3*time.Second)))
	assert.NotContains(t, th.last, int64(1))
	assert.True(t, th.allow(1, t0.Add(3*time.Second)))
}

func TestAdminOnly_OpenWithoutAdmin(t *testing.T) {
	var handled int
	h := AdminOnlyMiddleware(AdminOptions{})(counting(&handled))
	require.NoError(t, h(newFakeContext(8, nil)))
	assert.Equal(t, 1, handled)
}
