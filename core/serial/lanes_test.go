package serial

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roskarniz/regbot/core/logger"
)

func TestLanes_PreservesOrderPerKey(t *testing.T) {
	l := New(0)

	var mu sync.Mutex
	var got []int
	for i := 0; i < 50; i++ {
		i := i
		require.NoError(t, l.Submit(7, func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}
	l.Close()

	require.Len(t, got, 50)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
	assert.Zero(t, l.Active())
}

func TestLanes_BlockedKeyDoesNotStallOthers(t *testing.T) {
	l := New(0)
	defer l.Close()

	release := make(chan struct{})
	require.NoError(t, l.Submit(1, func() { <-release }))

	done := make(chan struct{})
	require.NoError(t, l.Submit(2, func() { close(done) }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("key 2 was blocked by key 1")
	}
	close(release)
}

func TestLanes_SubmitAfterClose(t *testing.T) {
	l := New(0)
	l.Close()
	assert.ErrorIs(t, l.Submit(1, func() {}), ErrClosed)
}

func TestLanes_PendingLimit(t *testing.T) {
	l := New(1)
	release := make(chan struct{})
	require.NoError(t, l.Submit(1, func() { <-release }))
	assert.ErrorIs(t, l.Submit(2, func() {}), ErrFull)
	close(release)
	l.Close()
}

func TestLanes_PanicDoesNotKillLane(t *testing.T) {
	var buf bytes.Buffer
	prev := logger.L
	logger.L = slog.New(slog.NewJSONHandler(&buf, nil))
	t.Cleanup(func() { logger.L = prev })

	l := New(0)
	ran := false
	require.NoError(t, l.Submit(3, func() { panic("boom") }))
	require.NoError(t, l.Submit(3, func() { ran = true }))
	l.Close()
	assert.True(t, ran)

	out := buf.String()
	assert.Contains(t, out, `"event":"lane.panic"`)
	assert.Contains(t, out, `"key":3`)
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, `"stack":"goroutine`)
}
