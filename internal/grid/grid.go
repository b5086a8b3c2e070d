// grid.go - Row, Metrics and Adapter contracts.
package grid

import (
	"context"
	"errors"
	"strconv"
)

// ErrNotDetected is returned by operations that need a mounted grid when the
// host page has none.
var ErrNotDetected = errors.New("grid not detected")

// Row is one currently-mounted row element as seen by the adapter.
type Row struct {
	// Index is the raw per-row index attribute. Empty for decorative rows.
	Index string `json:"index"`
	// Key is an opaque, non-owning handle to the row element.
	Key    string  `json:"key"`
	Height float64 `json:"height"`
	// Indent is the left padding of the row's primary content wrapper.
	Indent float64 `json:"indent"`
	// HasIcon reports whether the primary content wrapper contains an icon.
	HasIcon bool `json:"has_icon"`
	// Expandable reports a native expand/collapse control on the row.
	Expandable bool              `json:"expandable"`
	Cells      map[string]string `json:"cells,omitempty"`
}

// Metrics is the scroll geometry of the scrollable region.
type Metrics struct {
	Offset         float64 `json:"offset"`
	ContentHeight  float64 `json:"content_height"`
	ViewportHeight float64 `json:"viewport_height"`
}

// Adapter is the host collaborator driven by the materializer.
type Adapter interface {
	// Detect reports whether a grid matching the host fingerprint is mounted.
	Detect(ctx context.Context) (bool, error)
	// Rows lists the currently-mounted row elements in DOM order.
	Rows(ctx context.Context) ([]Row, error)
	Metrics(ctx context.Context) (Metrics, error)
	SetOffset(ctx context.Context, offset float64) error
	// Nudge dispatches synthetic scroll, wheel and resize signals so the
	// host re-renders its window.
	Nudge(ctx context.Context) error
	// FixHeight pins the scrollable region to the given height.
	FixHeight(ctx context.Context, height float64) error
	// Unclip removes overflow clipping and max-height constraints from the
	// region's ancestors.
	Unclip(ctx context.Context) error
	// Thaw reverses FixHeight and Unclip so the region scrolls again.
	Thaw(ctx context.Context) error
}

// ParseIndex parses a raw index attribute. Only non-negative base-10
// integers are accepted.
func ParseIndex(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// FirstIndexed returns the first row carrying a parseable index.
func FirstIndexed(rows []Row) (Row, bool) {
	for _, r := range rows {
		if _, ok := ParseIndex(r.Index); ok {
			return r, true
		}
	}
	return Row{}, false
}
