// convergence.go - Scroll-geometry comparison across a step.
package materialize

import "github.com/dev-console/gridmat/internal/grid"

// Snapshot is the scroll geometry read around a step.
type Snapshot struct {
	Offset        float64
	ContentHeight float64
}

// SnapshotOf projects adapter metrics onto a Snapshot.
func SnapshotOf(m grid.Metrics) Snapshot {
	return Snapshot{Offset: m.Offset, ContentHeight: m.ContentHeight}
}

// Progressed reports whether the region is still productive: content grew
// or the offset moved past where the step started.
func Progressed(before, after Snapshot) bool {
	return after.ContentHeight > before.ContentHeight || after.Offset > before.Offset
}
