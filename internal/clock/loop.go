// loop.go - Real scheduler: timers and posted work drained on one goroutine.
package clock

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// defaultQueueSize bounds buffered work before Post blocks.
const defaultQueueSize = 256

// Loop is a Scheduler backed by wall-clock timers. Callbacks never run
// concurrently with each other: timers hand their callback to the queue
// instead of running it on the timer goroutine.
type Loop struct {
	queue  chan func()
	done   chan struct{}
	logger *slog.Logger

	stopOnce sync.Once
}

// NewLoop creates a Loop. Call Run to start draining it.
func NewLoop(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		queue:  make(chan func(), defaultQueueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Now returns the wall-clock time.
func (l *Loop) Now() time.Time { return time.Now() }

// AfterFunc schedules fn onto the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.fire() {
				fn()
			}
		})
	})
	return t
}

// Post enqueues fn. Safe to call from any goroutine. Work posted after Run
// returned is dropped, including posts blocked on a full queue.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.done:
		return
	default:
	}
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// Run drains the queue until ctx is done. A panicking callback is logged and
// the loop keeps going.
func (l *Loop) Run(ctx context.Context) {
	defer l.stopOnce.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.queue:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("panic in scheduled callback", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	fn()
}

type loopTimer struct {
	timer *time.Timer

	mu   sync.Mutex
	done bool
}

// fire marks the timer as run. Returns false when Stop won the race.
func (t *loopTimer) fire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

func (t *loopTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	t.timer.Stop()
	return true
}
