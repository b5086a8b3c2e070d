// loop_test.go - Tests for the real single-goroutine scheduler.
package clock

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopRunsPostedAndTimedWork(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLoop(nil)
	go l.Run(ctx)

	done := make(chan string, 2)
	l.Post(func() { done <- "posted" })
	l.AfterFunc(10*time.Millisecond, func() { done <- "timer" })

	assert.Equal(t, "posted", <-done)
	select {
	case got := <-done:
		assert.Equal(t, "timer", got)
	case <-time.After(2 * time.Second):
		t.Fatal("timer callback never ran")
	}
}

func TestLoopStoppedTimerDoesNotRun(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLoop(nil)
	go l.Run(ctx)

	var ran atomic.Bool
	tm := l.AfterFunc(50*time.Millisecond, func() { ran.Store(true) })
	require.True(t, tm.Stop())

	time.Sleep(100 * time.Millisecond)
	assert.False(t, ran.Load())
}

func TestLoopSurvivesPanickingCallback(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLoop(nil)
	go l.Run(ctx)

	done := make(chan struct{})
	l.Post(func() { panic("boom") })
	l.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop stopped after panic")
	}
}

func TestLoopPostReturnsAfterRunStops(t *testing.T) {
	t.Parallel()
	l := NewLoop(nil)
	for range defaultQueueSize {
		l.Post(func() {})
	}

	returned := make(chan struct{})
	go func() {
		l.Post(func() {})
		close(returned)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l.Run(ctx)

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("post blocked on a full queue after the loop stopped")
	}
	// later posts are dropped without blocking
	for range defaultQueueSize + 1 {
		l.Post(func() {})
	}
}
