// safego.go - Panic-recovering goroutine launcher.
package util

import (
	"log/slog"
	"runtime/debug"
)

// SafeGo launches fn in a goroutine with deferred panic recovery.
// A panic is logged with its stack and swallowed so servers stay up.
// A nil logger uses slog.Default().
func SafeGo(logger *slog.Logger, name string, fn func()) {
	if logger == nil {
		logger = slog.Default()
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic in background goroutine",
					"goroutine", name, "panic", r, "stack", string(debug.Stack()))
			}
		}()
		fn()
	}()
}
