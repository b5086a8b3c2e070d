// conn.go - Connection error classification.
package bridge

import (
	"errors"
	"net"
	"strings"
)

// ErrUnreachable wraps transport failures that mean the bridge is not
// listening, as opposed to a script that failed in the page.
var ErrUnreachable = errors.New("bridge unreachable")

// IsConnectionError reports whether err means the bridge could not be
// reached at all.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	// wrapped errors that lost their type
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host")
}
