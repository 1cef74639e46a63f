package netutil

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldRetry(t *testing.T) {
	dialErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	assert.False(t, ShouldRetry(nil))
	assert.False(t, ShouldRetry(errors.New("plain")))
	assert.True(t, ShouldRetry(dialErr))
	assert.True(t, ShouldRetry(&url.Error{Op: "Post", URL: "http://x", Err: dialErr}))
	assert.False(t, ShouldRetry(&net.OpError{Op: "read", Net: "tcp", Err: errors.New("reset")}))
	assert.False(t, ShouldRetry(context.DeadlineExceeded))
	assert.False(t, ShouldRetry(&url.Error{Op: "Get", URL: "http://x", Err: context.Canceled}))
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.True(t, IsTimeout(&url.Error{Op: "Post", URL: "http://x", Err: context.DeadlineExceeded}))
	assert.False(t, IsTimeout(errors.New("boom")))
	assert.False(t, IsTimeout(nil))
}

func TestNewHTTPClient_NoRetryLayerWhenZero(t *testing.T) {
	c := NewHTTPClient(HTTPClientOptions{Timeout: time.Second})
	_, isRetry := c.Transport.(*retryTransport)
	assert.False(t, isRetry)
	assert.Equal(t, time.Second, c.Timeout)

	c = NewHTTPClient(TelegramClientOptions())
	_, isRetry = c.Transport.(*retryTransport)
	assert.True(t, isRetry)
}

func TestNewHTTPClient_TimeoutApplies(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(HTTPClientOptions{Timeout: 50 * time.Millisecond})
	_, err := c.Get(srv.URL)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Equal(t, int32(1), hits.Load())
}

type flakyTransport struct {
	fails  int
	bodies []string
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var b strings.Builder
	if req.Body != nil {
		_, _ = io.Copy(&b, req.Body)
	}
	f.bodies = append(f.bodies, b.String())
	if len(f.bodies) <= f.fails {
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	}
	return &http.Response{StatusCode: http.StatusCreated, Body: http.NoBody, Request: req}, nil
}

func TestRetryTransport_ReplaysBody(t *testing.T) {
	ft := &flakyTransport{fails: 2}
	rt := &retryTransport{next: ft, retries: 3}

	req, err := http.NewRequest(http.MethodPost, "http://api.test/auth/register", strings.NewReader(`{"phone":"+7"}`))
	require.NoError(t, err)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, []string{`{"phone":"+7"}`, `{"phone":"+7"}`, `{"phone":"+7"}`}, ft.bodies)
}

func TestRetryTransport_GivesUp(t *testing.T) {
	ft := &flakyTransport{fails: 10}
	rt := &retryTransport{next: ft, retries: 2}

	req, err := http.NewRequest(http.MethodGet, "http://api.test/", nil)
	require.NoError(t, err)
	_, err = rt.RoundTrip(req)
	require.Error(t, err)
	assert.Len(t, ft.bodies, 3)
}

func TestRetryTransport_StopsOnCancel(t *testing.T) {
	ft := &flakyTransport{fails: 10}
	rt := &retryTransport{next: ft, retries: 5, backoff: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://api.test/", nil)
	require.NoError(t, err)
	_, err = rt.RoundTrip(req)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, ft.bodies, 1)
}
