// controller_test.go - Tests for session lifecycle, reset and restart queuing.
package materialize

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-console/gridmat/internal/clock"
	"github.com/dev-console/gridmat/internal/grid/synthetic"
)

func newController(g *synthetic.Grid) (*clock.Fake, *Controller, *[]Result) {
	clk := clock.NewFake(epoch)
	c := NewController(g, clk, Options{}, WithLogger(quietLogger()))
	var results []Result
	c.Subscribe(func(r Result) { results = append(results, r) })
	return clk, c, &results
}

func TestControllerObserveStartsOneSession(t *testing.T) {
	t.Parallel()
	g := &synthetic.Grid{Items: 200, Window: 20, RowHeight: 40}
	clk, c, results := newController(g)
	ctx := context.Background()

	c.Observe(ctx)
	require.Equal(t, StateSettling, c.State())
	clk.Advance(1500 * time.Millisecond)
	offsets := len(g.Offsets())

	// Further change signals while in flight must not start another driver.
	c.Observe(ctx)
	c.Observe(ctx)
	assert.Len(t, g.Offsets(), offsets)

	clk.RunUntilIdle(time.Hour)
	require.Len(t, *results, 1)
	assert.True(t, (*results)[0].Complete)
	assert.Equal(t, seq(200), (*results)[0].Indices())

	// Finalized sessions stay processed until a refresh.
	c.Observe(ctx)
	assert.Equal(t, StateFinalized, c.State())
	assert.Len(t, *results, 1)

	latest, ok := c.Latest()
	require.True(t, ok)
	assert.Len(t, latest.Entries, 200)
}

func TestControllerWaitsForDetection(t *testing.T) {
	t.Parallel()
	g := &synthetic.Grid{Items: 40, Window: 20, RowHeight: 40, MountDelay: 2}
	clk, c, results := newController(g)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.Poll(ctx, 250*time.Millisecond)
	assert.Equal(t, StateIdle, c.State())

	clk.Advance(10 * time.Second)
	require.Len(t, *results, 1)
	assert.True(t, (*results)[0].Complete)
}

func TestControllerRefreshResetsSession(t *testing.T) {
	t.Parallel()
	g := &synthetic.Grid{Items: 100, Window: 20, RowHeight: 40}
	clk, c, results := newController(g)
	ctx := context.Background()

	c.Observe(ctx)
	clk.RunUntilIdle(time.Hour)
	require.Len(t, *results, 1)
	require.Equal(t, 100, c.Registry().Len())

	require.True(t, g.Frozen())
	require.Positive(t, g.Offset())

	c.Refresh(ctx)
	assert.False(t, g.Frozen())
	assert.Zero(t, g.Offset(), "a thawed region scrolls back to the top")
	assert.Zero(t, c.Registry().Len())
	assert.Equal(t, NoIndex, c.Highest())
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, uint64(1), c.Generation())
	_, ok := c.Latest()
	assert.False(t, ok)

	// A fresh registry reports both rows as new.
	assert.Equal(t, []int{0, 1}, c.Registry().Absorb(rowsAt("x", 0, 1)))
	c.Registry().Reset()
}

func TestControllerRefreshAbortsInFlightSession(t *testing.T) {
	t.Parallel()
	g := &synthetic.Grid{Items: 300, Window: 20, RowHeight: 40}
	clk, c, results := newController(g)
	ctx := context.Background()

	c.Observe(ctx)
	clk.Advance(3500 * time.Millisecond)
	require.Positive(t, c.Registry().Len())

	c.Refresh(ctx)
	assert.InDelta(t, 0, g.Offset(), 0.001, "refresh scrolls back to the top")

	clk.RunUntilIdle(time.Hour)
	require.Len(t, *results, 1, "the aborted session must not report")
	res := (*results)[0]
	assert.Equal(t, uint64(1), res.Generation)
	assert.True(t, res.Complete)
	assert.Equal(t, seq(300), res.Indices())
}

func TestControllerRequestRestartQueuesUntilFinished(t *testing.T) {
	t.Parallel()
	g := &synthetic.Grid{Items: 100, Window: 20, RowHeight: 40}
	clk, c, results := newController(g)
	ctx := context.Background()

	c.Observe(ctx)
	clk.Advance(1500 * time.Millisecond)
	c.RequestRestart(ctx)
	assert.Equal(t, uint64(0), c.Generation(), "restart waits for the in-flight session")

	clk.RunUntilIdle(time.Hour)
	require.Len(t, *results, 2)
	assert.Equal(t, uint64(0), (*results)[0].Generation)

	// The restart must scroll a region the first session froze.
	second := (*results)[1]
	assert.Equal(t, uint64(1), second.Generation)
	assert.True(t, second.Complete)
	assert.Equal(t, seq(100), second.Indices())
	assert.Equal(t, uint64(1), c.Generation())
	assert.True(t, g.Frozen())
}

func TestControllerRequestRestartWhenIdleAppliesNow(t *testing.T) {
	t.Parallel()
	g := &synthetic.Grid{Items: 40, Window: 20, RowHeight: 40}
	_, c, _ := newController(g)

	c.RequestRestart(context.Background())
	assert.Equal(t, uint64(1), c.Generation())
}
