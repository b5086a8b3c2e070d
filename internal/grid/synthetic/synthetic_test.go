// synthetic_test.go - Tests for the synthetic virtualized host.
package synthetic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-console/gridmat/internal/grid"
)

func indices(t *testing.T, rows []grid.Row) []int {
	t.Helper()
	out := make([]int, 0, len(rows))
	for _, r := range rows {
		if i, ok := grid.ParseIndex(r.Index); ok {
			out = append(out, i)
		}
	}
	return out
}

func TestWindowFollowsOffset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g := &Grid{Items: 100, Window: 5, RowHeight: 10}

	rows, err := g.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, indices(t, rows))

	require.NoError(t, g.SetOffset(ctx, 235))
	rows, err = g.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{23, 24, 25, 26, 27}, indices(t, rows))

	m, err := g.Metrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, grid.Metrics{Offset: 235, ContentHeight: 1000, ViewportHeight: 50}, m)
}

func TestOffsetClamps(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g := &Grid{Items: 10, Window: 4, RowHeight: 10}

	require.NoError(t, g.SetOffset(ctx, 1e6))
	assert.InDelta(t, 60, g.Offset(), 1e-9)
	require.NoError(t, g.SetOffset(ctx, -5))
	assert.Zero(t, g.Offset())
	assert.Equal(t, []float64{60, 0}, g.Offsets())
}

func TestKeysChangeWhenWindowMoves(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g := &Grid{Items: 20, Window: 3, RowHeight: 10}

	first, _ := g.Rows(ctx)
	again, _ := g.Rows(ctx)
	assert.Equal(t, first[0].Key, again[0].Key)

	require.NoError(t, g.SetOffset(ctx, 10))
	moved, _ := g.Rows(ctx)
	assert.NotEqual(t, first[1].Key, moved[0].Key, "row 1 is remounted")
	assert.Equal(t, "1", moved[0].Index)
}

func TestLazyPagesLoadOnNudge(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g := &Grid{Items: 25, Window: 5, RowHeight: 10, PageSize: 10}

	m, _ := g.Metrics(ctx)
	assert.InDelta(t, 100, m.ContentHeight, 1e-9)

	require.NoError(t, g.Nudge(ctx))
	m, _ = g.Metrics(ctx)
	assert.InDelta(t, 100, m.ContentHeight, 1e-9, "window not at the end yet")

	require.NoError(t, g.SetOffset(ctx, 50))
	require.NoError(t, g.Nudge(ctx))
	m, _ = g.Metrics(ctx)
	assert.InDelta(t, 200, m.ContentHeight, 1e-9)
	assert.Equal(t, 2, g.Nudges())
}

func TestSkipAheadAndHeader(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g := &Grid{Items: 50, Window: 4, RowHeight: 10, SkipAhead: 3, SkipTimes: 1, SkipFrom: 10, Unindexed: true}

	rows, _ := g.Rows(ctx)
	assert.Equal(t, "", rows[0].Index)
	assert.Equal(t, []int{0, 1, 2, 3}, indices(t, rows), "skip does not apply before SkipFrom")

	require.NoError(t, g.SetOffset(ctx, 100))
	rows, _ = g.Rows(ctx)
	assert.Equal(t, []int{13, 14, 15, 16}, indices(t, rows))
	rows, _ = g.Rows(ctx)
	assert.Equal(t, []int{10, 11, 12, 13}, indices(t, rows), "skip is used up")
}

func TestMountDelayAndFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g := &Grid{Items: 5, Window: 5, RowHeight: 10, MountDelay: 1, Failures: 1}

	_, err := g.Detect(ctx)
	require.ErrorIs(t, err, ErrTransport)

	ok, err := g.Detect(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = g.Detect(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFreezeAndReload(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g := &Grid{Items: 30, Window: 5, RowHeight: 10, PageSize: 10}

	require.NoError(t, g.SetOffset(ctx, 50))
	require.NoError(t, g.FixHeight(ctx, 300))
	require.NoError(t, g.Unclip(ctx))
	assert.True(t, g.Frozen())
	assert.InDelta(t, 300, g.FixedHeight(), 1e-9)

	require.NoError(t, g.SetOffset(ctx, 0))
	assert.InDelta(t, 50, g.Offset(), 1e-9, "frozen region ignores scrolling")

	before, _ := g.Rows(ctx)
	g.Items = 12
	g.Reload()
	assert.False(t, g.Frozen())
	require.NoError(t, g.SetOffset(ctx, 0))
	assert.Zero(t, g.Offset())

	after, _ := g.Rows(ctx)
	assert.NotEqual(t, before[0].Key, after[0].Key)
	m, _ := g.Metrics(ctx)
	assert.InDelta(t, 100, m.ContentHeight, 1e-9)
}

func TestThawRestoresScrolling(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g := &Grid{Items: 30, Window: 5, RowHeight: 10}

	require.NoError(t, g.SetOffset(ctx, 120))
	require.NoError(t, g.FixHeight(ctx, 300))
	require.NoError(t, g.Unclip(ctx))
	require.True(t, g.Frozen())

	require.NoError(t, g.Thaw(ctx))
	assert.False(t, g.Frozen())
	assert.Zero(t, g.FixedHeight())
	assert.InDelta(t, 120, g.Offset(), 1e-9, "thaw keeps the offset")

	require.NoError(t, g.SetOffset(ctx, 0))
	assert.Zero(t, g.Offset())
	rows, err := g.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, indices(t, rows))
}
