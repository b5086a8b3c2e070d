// timeout.go - Per-call timeouts for bridge round trips.
package bridge

import "time"

// Timeout constants for bridge calls.
const (
	// ScriptTimeout bounds one execute_js round trip through the extension.
	ScriptTimeout = 10 * time.Second
	// DetectTimeout bounds the /health probe and grid detection polls.
	DetectTimeout = 2 * time.Second
	// httpSlack is added on top of the script timeout for the HTTP client.
	httpSlack = 5 * time.Second
)

// scriptTimeoutMS is the timeout forwarded to the extension, in milliseconds.
func scriptTimeoutMS(d time.Duration) int64 {
	if d <= 0 {
		d = ScriptTimeout
	}
	return d.Milliseconds()
}
