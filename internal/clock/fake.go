// fake.go - Deterministic manual clock for driver tests and simulations.
package clock

import (
	"sort"
	"time"
)

// Fake is a Scheduler whose time only moves when Advance is called.
// Not safe for concurrent use; it models the single UI queue directly.
type Fake struct {
	now    time.Time
	seq    uint64
	timers []*fakeTimer
}

// NewFake creates a Fake starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

type fakeTimer struct {
	f       *Fake
	due     time.Time
	seq     uint64
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	t.f.remove(t)
	return true
}

// Now returns the fake time.
func (f *Fake) Now() time.Time { return f.now }

// AfterFunc registers fn to fire once the fake time reaches now+d.
func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	f.seq++
	t := &fakeTimer{f: f, due: f.now.Add(d), seq: f.seq, fn: fn}
	f.timers = append(f.timers, t)
	return t
}

// Pending returns the number of timers waiting to fire.
func (f *Fake) Pending() int { return len(f.timers) }

// Advance moves time forward by d, firing due timers in due order. Timers
// scheduled by callbacks fire too if they fall inside the window.
func (f *Fake) Advance(d time.Duration) {
	target := f.now.Add(d)
	for {
		next := f.next()
		if next == nil || next.due.After(target) {
			break
		}
		f.remove(next)
		next.stopped = true
		if next.due.After(f.now) {
			f.now = next.due
		}
		next.fn()
	}
	f.now = target
}

// RunUntilIdle fires timers one at a time until none remain or limit of
// virtual time has passed. Returns the virtual time consumed.
func (f *Fake) RunUntilIdle(limit time.Duration) time.Duration {
	start := f.now
	deadline := start.Add(limit)
	for {
		next := f.next()
		if next == nil || next.due.After(deadline) {
			break
		}
		f.Advance(next.due.Sub(f.now))
	}
	return f.now.Sub(start)
}

func (f *Fake) next() *fakeTimer {
	if len(f.timers) == 0 {
		return nil
	}
	sort.SliceStable(f.timers, func(i, j int) bool {
		if f.timers[i].due.Equal(f.timers[j].due) {
			return f.timers[i].seq < f.timers[j].seq
		}
		return f.timers[i].due.Before(f.timers[j].due)
	})
	return f.timers[0]
}

func (f *Fake) remove(t *fakeTimer) {
	for i, ft := range f.timers {
		if ft == t {
			f.timers = append(f.timers[:i], f.timers[i+1:]...)
			return
		}
	}
}
