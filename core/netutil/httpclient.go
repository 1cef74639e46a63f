package netutil

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/roskarniz/regbot/core/logger"
)

// HTTPClientOptions tunes NewHTTPClient.
type HTTPClientOptions struct {
	// Timeout bounds the whole exchange including reading the body.
	Timeout time.Duration
	// ResponseHeaderTimeout of 0 leaves the header wait to Timeout.
	ResponseHeaderTimeout time.Duration
	// MaxRetries of 0 performs exactly one attempt.
	MaxRetries int
	// Backoff grows linearly with the attempt number.
	Backoff time.Duration
}

// TelegramClientOptions suits the Bot API: a timeout above the long-poll
// window and retries on transient dial errors.
func TelegramClientOptions() HTTPClientOptions {
	return HTTPClientOptions{
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		Backoff:    2 * time.Second,
	}
}

// NewHTTPClient builds a client with its own transport. A retry layer is
// added only when opts.MaxRetries > 0.
func NewHTTPClient(opts HTTPClientOptions) *http.Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: opts.ResponseHeaderTimeout,
		ExpectContinueTimeout: time.Second,
	}
	c := &http.Client{Timeout: opts.Timeout, Transport: tr}
	if opts.MaxRetries > 0 {
		c.Transport = &retryTransport{next: tr, retries: opts.MaxRetries, backoff: opts.Backoff}
	}
	return c
}

var errBodyNotReplayable = errors.New("netutil: request body cannot be replayed")

// retryTransport repeats a round trip that failed with ShouldRetry.
type retryTransport struct {
	next    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	for attempt := 1; attempt <= t.retries && ShouldRetry(err); attempt++ {
		logger.Debug(req.Context(), "http", "http.retry",
			slog.String("host", req.URL.Host),
			slog.Int("attempt", attempt),
			slog.String("err", err.Error()),
		)
		if werr := sleepCtx(req.Context(), t.backoff*time.Duration(attempt)); werr != nil {
			return nil, werr
		}
		again, rerr := rewind(req)
		if rerr != nil {
			return nil, errors.Join(err, rerr)
		}
		resp, err = t.next.RoundTrip(again)
	}
	return resp, err
}

// rewind clones req with a fresh body.
func rewind(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, errBodyNotReplayable
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
