package regapi

import (
	"errors"
	"fmt"

	"github.com/roskarniz/regbot/core/netutil"
)

// TransportError reports that the registration service could not be reached
// or did not answer in time.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("regapi %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the call ran out of time.
func (e *TransportError) Timeout() bool {
	return netutil.IsTimeout(e.Err)
}

// IsTransport reports whether err is a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
