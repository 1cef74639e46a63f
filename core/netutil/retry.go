// Package netutil holds the HTTP plumbing shared by the Telegram client and
// the registration API client.
package netutil

import (
	"context"
	"errors"
	"net"
)

// ShouldRetry reports whether err is a transient network failure: a dial
// error or an I/O timeout. Cancelled or expired contexts are final.
func ShouldRetry(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsTimeout reports whether err stems from an expired deadline anywhere in its chain.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
