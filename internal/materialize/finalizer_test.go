// finalizer_test.go - Tests for region freezing.
package materialize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-console/gridmat/internal/grid/synthetic"
)

func TestFinalizePinsContentHeight(t *testing.T) {
	t.Parallel()
	g := &synthetic.Grid{Items: 50, Window: 10, RowHeight: 30}

	height, err := Finalize(context.Background(), g)
	require.NoError(t, err)
	assert.InDelta(t, 1500, height, 0.001)
	assert.True(t, g.Frozen())
	assert.InDelta(t, 1500, g.FixedHeight(), 0.001)
}

func TestFinalizePropagatesAdapterFailure(t *testing.T) {
	t.Parallel()
	g := &synthetic.Grid{Items: 50, Window: 10, RowHeight: 30, Failures: 1}

	_, err := Finalize(context.Background(), g)
	require.ErrorIs(t, err, synthetic.ErrTransport)
	assert.False(t, g.Frozen())
}
