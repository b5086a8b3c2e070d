// safego_test.go - Tests for SafeGo panic recovery.
package util

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSafeGoNormalExecution(t *testing.T) {
	t.Parallel()
	var wg sync.WaitGroup
	wg.Add(1)
	executed := false
	SafeGo(nil, "normal", func() {
		executed = true
		wg.Done()
	})
	wg.Wait()
	assert.True(t, executed)
}

func TestSafeGoPanicRecovery(t *testing.T) {
	t.Parallel()
	out := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(out, nil))
	recovered := make(chan struct{})

	SafeGo(logger, "metrics-server", func() {
		defer close(recovered)
		panic("boom")
	})

	select {
	case <-recovered:
	case <-time.After(2 * time.Second):
		t.Fatal("SafeGo goroutine did not recover from panic within timeout")
	}
	assert.Eventually(t, func() bool {
		s := out.String()
		return strings.Contains(s, "metrics-server") && strings.Contains(s, "boom")
	}, 2*time.Second, 10*time.Millisecond)
}
