// fake_test.go - Tests for the deterministic manual clock.
package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeFiresInDueOrder(t *testing.T) {
	t.Parallel()
	f := NewFake(epoch)
	var got []string
	f.AfterFunc(300*time.Millisecond, func() { got = append(got, "c") })
	f.AfterFunc(100*time.Millisecond, func() { got = append(got, "a") })
	f.AfterFunc(100*time.Millisecond, func() { got = append(got, "b") })

	f.Advance(200 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 1, f.Pending())

	f.Advance(100 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, epoch.Add(300*time.Millisecond), f.Now())
}

func TestFakeNestedTimersInsideWindow(t *testing.T) {
	t.Parallel()
	f := NewFake(epoch)
	var at []time.Duration
	f.AfterFunc(time.Second, func() {
		at = append(at, f.Now().Sub(epoch))
		f.AfterFunc(500*time.Millisecond, func() {
			at = append(at, f.Now().Sub(epoch))
		})
	})

	f.Advance(2 * time.Second)
	assert.Equal(t, []time.Duration{time.Second, 1500 * time.Millisecond}, at)
}

func TestFakeStop(t *testing.T) {
	t.Parallel()
	f := NewFake(epoch)
	fired := false
	tm := f.AfterFunc(time.Second, func() { fired = true })

	require.True(t, tm.Stop())
	assert.False(t, tm.Stop())
	f.Advance(time.Minute)
	assert.False(t, fired)
}

func TestFakeRunUntilIdle(t *testing.T) {
	t.Parallel()
	f := NewFake(epoch)
	n := 0
	var tick func()
	tick = func() {
		n++
		if n < 5 {
			f.AfterFunc(time.Second, tick)
		}
	}
	f.AfterFunc(time.Second, tick)

	elapsed := f.RunUntilIdle(time.Hour)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5*time.Second, elapsed)
	assert.Zero(t, f.Pending())
}

func TestFakeRunUntilIdleRespectsLimit(t *testing.T) {
	t.Parallel()
	f := NewFake(epoch)
	var tick func()
	tick = func() { f.AfterFunc(time.Second, tick) }
	f.AfterFunc(time.Second, tick)

	elapsed := f.RunUntilIdle(10 * time.Second)
	assert.Equal(t, 10*time.Second, elapsed)
	assert.Equal(t, 1, f.Pending())
}
