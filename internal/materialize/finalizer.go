// finalizer.go - Freezes the scrollable region once collection converged.
package materialize

import (
	"context"
	"fmt"

	"github.com/dev-console/gridmat/internal/grid"
)

// Finalize pins the region to its full content height and removes ancestor
// clipping, so every mounted row stays visible without scroll churn. Returns
// the height applied.
func Finalize(ctx context.Context, a grid.Adapter) (float64, error) {
	m, err := a.Metrics(ctx)
	if err != nil {
		return 0, fmt.Errorf("read metrics: %w", err)
	}
	if err := a.FixHeight(ctx, m.ContentHeight); err != nil {
		return 0, fmt.Errorf("fix height: %w", err)
	}
	if err := a.Unclip(ctx); err != nil {
		return m.ContentHeight, fmt.Errorf("unclip ancestors: %w", err)
	}
	return m.ContentHeight, nil
}
