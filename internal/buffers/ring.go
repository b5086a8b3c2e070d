// ring.go - Bounded FIFO with monotonic positions for cursor reads.

// Package buffers provides a fixed-capacity ring used to keep recent session
// reports for watch-mode clients.
package buffers

import "sync"

// Ring keeps the most recent entries up to its capacity. Every entry gets a
// monotonic position, so readers can resume after eviction. Safe for
// concurrent use.
type Ring[T any] struct {
	mu       sync.RWMutex
	entries  []T
	capacity int
	head     int   // next write slot once full
	total    int64 // entries ever pushed
}

// NewRing creates a Ring. Capacity below one is raised to one.
func NewRing[T any](capacity int) *Ring[T] {
	capacity = max(capacity, 1)
	return &Ring[T]{entries: make([]T, 0, capacity), capacity: capacity}
}

// Push appends entry, evicting the oldest when full. Returns its position.
func (r *Ring[T]) Push(entry T) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) < r.capacity {
		r.entries = append(r.entries, entry)
	} else {
		r.entries[r.head] = entry
	}
	r.head = (r.head + 1) % r.capacity
	pos := r.total
	r.total++
	return pos
}

// Since returns entries at or after position pos, oldest first, and the
// position to pass on the next call. Evicted positions are skipped.
func (r *Ring[T]) Since(pos int64) ([]T, int64) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	oldest := r.total - int64(len(r.entries))
	pos = max(pos, oldest)
	n := r.total - pos
	if n <= 0 {
		return nil, r.total
	}
	out := make([]T, 0, n)
	for p := pos; p < r.total; p++ {
		out = append(out, r.entries[r.slot(p)])
	}
	return out, r.total
}

// Len returns how many entries are held.
func (r *Ring[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// slot maps a live position to its index. Caller holds the lock.
func (r *Ring[T]) slot(pos int64) int {
	if len(r.entries) < r.capacity {
		return int(pos)
	}
	oldest := r.total - int64(r.capacity)
	return (r.head + int(pos-oldest)) % r.capacity
}
