package sender

import (
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/roskarniz/regbot/core/netutil"

	tele "gopkg.in/telebot.v4"
)

var (
	tokenRe      = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
	trailingCode = regexp.MustCompile(`\((\d{3})\)\s*$`)
)

// retryDelay honours Telegram flood control and backs off linearly on
// transient network errors. Anything else is not retried.
func retryDelay(err error, backoff time.Duration, attempt int) (time.Duration, bool) {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second, true
	}
	if errors.As(err, &flood) || netutil.ShouldRetry(err) {
		return backoff * time.Duration(attempt), true
	}
	return 0, false
}

// classifyError buckets a failed call for the error_kind log column.
func classifyError(err error) string {
	var (
		dnsErr *net.DNSError
		opErr  *net.OpError
		tlsErr tls.AlertError
	)
	switch {
	case err == nil:
		return ""
	case netutil.IsTimeout(err):
		return "timeout"
	case errors.As(err, &dnsErr):
		return "dns"
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return "dial"
	case errors.As(err, &tlsErr):
		return "tls"
	}
	switch code := apiStatus(err); {
	case code == http.StatusTooManyRequests:
		return "flood"
	case code >= 500:
		return "http_5xx"
	case code >= 400:
		return "http_4xx"
	}
	return "unknown"
}

// apiStatus extracts the Bot API status code. telebot renders plain API
// errors as "telegram: <description> (<code>)".
func apiStatus(err error) int {
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return http.StatusTooManyRequests
	}
	if m := trailingCode.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		return code
	}
	return 0
}

// redactToken hides the bot token that net/http errors embed in request URLs.
func redactToken(msg string) string {
	return tokenRe.ReplaceAllString(msg, "bot<redacted>")
}
