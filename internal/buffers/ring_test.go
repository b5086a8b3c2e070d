// ring_test.go - Tests for Ring cursor reads and eviction.
package buffers

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingSinceBeforeWrap(t *testing.T) {
	t.Parallel()
	r := NewRing[int](4)
	assert.Equal(t, int64(0), r.Push(10))
	assert.Equal(t, int64(1), r.Push(11))
	r.Push(12)

	got, next := r.Since(0)
	assert.Equal(t, []int{10, 11, 12}, got)
	assert.Equal(t, int64(3), next)

	got, next = r.Since(1)
	assert.Equal(t, []int{11, 12}, got)
	assert.Equal(t, int64(3), next)

	got, next = r.Since(next)
	assert.Empty(t, got)
	assert.Equal(t, int64(3), next)
}

func TestRingEvictsOldest(t *testing.T) {
	t.Parallel()
	r := NewRing[int](3)
	for i := range 5 {
		r.Push(i)
	}
	assert.Equal(t, 3, r.Len())

	// positions 0 and 1 were evicted
	got, next := r.Since(0)
	assert.Equal(t, []int{2, 3, 4}, got)
	assert.Equal(t, int64(5), next)

	got, _ = r.Since(3)
	assert.Equal(t, []int{3, 4}, got)
}

func TestRingMinimumCapacity(t *testing.T) {
	t.Parallel()
	r := NewRing[int](0)
	r.Push(1)
	assert.Equal(t, int64(1), r.Push(2))
	got, next := r.Since(0)
	assert.Equal(t, []int{2}, got)
	assert.Equal(t, int64(2), next)
}

func TestRingConcurrentPush(t *testing.T) {
	t.Parallel()
	r := NewRing[int](64)
	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				r.Push(w*100 + i)
			}
		}()
	}
	wg.Wait()
	got, next := r.Since(0)
	require.Equal(t, int64(800), next)
	assert.Len(t, got, 64)
	assert.Equal(t, 64, r.Len())
}
