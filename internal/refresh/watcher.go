// watcher.go - Dataset refresh detection.
package refresh

import (
	"log/slog"
	"strings"
	"sync"
)

// DefaultPattern matches the request that reloads the solution component list.
const DefaultPattern = "api/data/v9.2/powerpagecomponents"

// Watcher calls OnRefresh for every successful request whose URL contains
// Pattern. It is safe for concurrent use.
type Watcher struct {
	Pattern   string
	OnRefresh func(NetworkEvent)
	Logger    *slog.Logger

	mu    sync.Mutex
	fired int
}

// NewWatcher returns a watcher on pattern ("" uses DefaultPattern).
func NewWatcher(pattern string, onRefresh func(NetworkEvent), logger *slog.Logger) *Watcher {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{Pattern: pattern, OnRefresh: onRefresh, Logger: logger}
}

// Observe inspects one event and reports whether it signalled a refresh.
func (w *Watcher) Observe(ev NetworkEvent) bool {
	if !ev.OK() || !strings.Contains(ev.URL, w.pattern()) {
		return false
	}
	w.mu.Lock()
	w.fired++
	w.mu.Unlock()

	if w.Logger != nil {
		w.Logger.Info("dataset refresh detected", "url", ev.URL, "status", ev.Status)
	}
	if w.OnRefresh != nil {
		w.OnRefresh(ev)
	}
	return true
}

// Fired returns how many refreshes have been observed.
func (w *Watcher) Fired() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fired
}

func (w *Watcher) pattern() string {
	if w.Pattern == "" {
		return DefaultPattern
	}
	return w.Pattern
}
