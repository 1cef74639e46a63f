// Package regapi talks to the site registration service.
package regapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	coreconfig "github.com/roskarniz/regbot/core/config"
	"github.com/roskarniz/regbot/core/logger"
	"github.com/roskarniz/regbot/core/netutil"
)

const (
	registerPath    = "/auth/register"
	maxResponseBody = 64 << 10
	logComponent    = "regapi"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient defaults to a single-attempt client bounded by Timeout.
	HTTPClient *http.Client
	// NewRequestID defaults to random UUIDs.
	NewRequestID func() string
}

// Client performs registration calls. It is safe for concurrent use.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	newID    func() string
}

// New builds a Client from options.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(coreconfig.DefaultTimeoutSeconds) * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = netutil.NewHTTPClient(netutil.HTTPClientOptions{Timeout: opts.Timeout})
	}
	if opts.NewRequestID == nil {
		opts.NewRequestID = uuid.NewString
	}
	return &Client{
		endpoint: strings.TrimRight(opts.BaseURL, "/") + registerPath,
		timeout:  opts.Timeout,
		http:     opts.HTTPClient,
		newID:    opts.NewRequestID,
	}
}

// NewFromConfig builds a Client for the configured service.
func NewFromConfig(cfg coreconfig.RegistrationConfig) *Client {
	return New(Options{BaseURL: cfg.BaseURL, Timeout: cfg.Timeout()})
}

// Endpoint returns the full registration URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Register performs one registration attempt. It never retries.
// The returned error is non-nil only for TransportFailure and is a *TransportError.
func (c *Client) Register(ctx context.Context, req Request) (Outcome, error) {
	rid := c.newID()
	out := Outcome{RequestID: rid}
	start := time.Now()

	body, err := json.Marshal(newPayload(req))
	if err != nil {
		out.Kind = TransportFailure
		return out, c.fail(ctx, req, out, &TransportError{Op: "encode", Err: err}, start)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		out.Kind = TransportFailure
		return out, c.fail(ctx, req, out, &TransportError{Op: "request", Err: err}, start)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", rid)

	logger.Debug(ctx, logComponent, "register.start",
		slog.String("request_id", rid),
		slog.Any("req", req),
	)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		out.Kind = TransportFailure
		return out, c.fail(ctx, req, out, &TransportError{Op: "post", Err: err}, start)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		out.Kind = TransportFailure
		return out, c.fail(ctx, req, out, &TransportError{Op: "read", Err: err}, start)
	}

	out.Status = resp.StatusCode
	out.Kind, out.Body = classify(resp.StatusCode, raw)
	c.done(ctx, req, out, start)
	return out, nil
}

func classify(status int, raw []byte) (Kind, string) {
	switch status {
	case http.StatusCreated:
		return Success, ""
	case http.StatusUnprocessableEntity:
		var parsed struct {
			Errors map[string]jsoniter.RawMessage `json:"errors"`
		}
		if err := json.Unmarshal(raw, &parsed); err == nil {
			if _, ok := parsed.Errors["phone"]; ok {
				return DuplicatePhone, ""
			}
			if _, ok := parsed.Errors["telegram_id"]; ok {
				return DuplicateIdentity, ""
			}
		}
		return ValidationOther, strings.TrimSpace(string(raw))
	default:
		return ServerError, ""
	}
}

func (c *Client) done(ctx context.Context, req Request, out Outcome, start time.Time) {
	attrs := []slog.Attr{
		slog.String("result", out.Kind.String()),
		slog.Int("http_code", out.Status),
		slog.String("request_id", out.RequestID),
		slog.Int64("telegram_id", req.TelegramID),
		slog.Duration("duration", logger.Took(start)),
	}
	level := slog.LevelInfo
	switch out.Kind {
	case ValidationOther:
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("body", logger.SanitizeLimit(out.Body, 512)))
	case ServerError:
		level = slog.LevelError
	}
	logger.Event(ctx, logComponent, level, "register.done", attrs...)
}

func (c *Client) fail(ctx context.Context, req Request, out Outcome, err *TransportError, start time.Time) error {
	logger.Error(ctx, logComponent, "register.failed",
		slog.String("status", "fail"),
		slog.String("result", out.Kind.String()),
		slog.String("request_id", out.RequestID),
		slog.Int64("telegram_id", req.TelegramID),
		slog.String("op", err.Op),
		slog.Bool("timeout", err.Timeout()),
		slog.String("err", logger.SanitizeLimit(err.Err.Error(), 256)),
		slog.Duration("duration", logger.Took(start)),
	)
	return err
}

// String identifies the client in logs.
func (c *Client) String() string {
	return fmt.Sprintf("regapi(%s)", c.endpoint)
}
