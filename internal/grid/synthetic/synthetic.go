// synthetic.go - In-memory virtualized host used for simulation and tests.
// Models a list that mounts a bounded window of rows around the scroll offset,
// optionally loads items page by page, and can be told to misbehave.

// Package synthetic implements grid.Adapter over an in-memory virtualized list.
package synthetic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/dev-console/gridmat/internal/grid"
)

// ErrTransport is returned while injected failures remain.
var ErrTransport = errors.New("synthetic transport failure")

// Grid is a synthetic host. Fields are configuration; set them before the
// first call. Not safe for concurrent use.
type Grid struct {
	Items     int
	Window    int
	RowHeight float64
	// ViewportHeight defaults to Window*RowHeight.
	ViewportHeight float64
	// PageSize > 0 loads items lazily: content height only covers loaded
	// items, and a Nudge with the window touching the end loads a page.
	PageSize int
	// SkipAhead shifts the next SkipTimes renders whose window starts at or
	// after SkipFrom forward by that many rows.
	SkipAhead int
	SkipTimes int
	SkipFrom  int
	// Unindexed mounts a decorative header row without an index.
	Unindexed bool
	// MountDelay makes Detect and Rows report nothing for that many calls.
	MountDelay int
	// Failures makes that many subsequent calls fail with ErrTransport.
	Failures int

	offset      float64
	loaded      int
	started     bool
	epoch       int
	lastFirst   int
	fixedHeight float64
	unclipped   bool
	nudges      int
	offsets     []float64
}

func (g *Grid) init() {
	if g.started {
		return
	}
	g.started = true
	if g.ViewportHeight == 0 {
		g.ViewportHeight = float64(g.Window) * g.RowHeight
	}
	g.loaded = g.Items
	if g.PageSize > 0 && g.PageSize < g.Items {
		g.loaded = g.PageSize
	}
	g.lastFirst = -1
}

func (g *Grid) fail() error {
	g.init()
	if g.Failures > 0 {
		g.Failures--
		return ErrTransport
	}
	return nil
}

func (g *Grid) contentHeight() float64 {
	return float64(g.loaded) * g.RowHeight
}

func (g *Grid) maxOffset() float64 {
	return math.Max(0, g.contentHeight()-g.ViewportHeight)
}

// window returns the first and last mounted index (last exclusive).
func (g *Grid) window() (int, int) {
	if g.RowHeight <= 0 || g.loaded == 0 {
		return 0, 0
	}
	first := int(g.offset / g.RowHeight)
	last := min(first+g.Window, g.loaded)
	return first, last
}

// Detect reports the grid as mounted once MountDelay has elapsed.
func (g *Grid) Detect(context.Context) (bool, error) {
	if err := g.fail(); err != nil {
		return false, err
	}
	if g.MountDelay > 0 {
		g.MountDelay--
		return false, nil
	}
	return true, nil
}

// Rows returns the mounted window.
func (g *Grid) Rows(context.Context) ([]grid.Row, error) {
	if err := g.fail(); err != nil {
		return nil, err
	}
	if g.MountDelay > 0 {
		g.MountDelay--
		return nil, nil
	}
	first, last := g.window()
	if g.SkipTimes > 0 && g.SkipAhead > 0 && first >= g.SkipFrom {
		g.SkipTimes--
		first = min(first+g.SkipAhead, g.loaded)
		last = min(last+g.SkipAhead, g.loaded)
	}
	if first != g.lastFirst {
		g.epoch++
		g.lastFirst = first
	}

	rows := make([]grid.Row, 0, last-first+1)
	if g.Unindexed {
		rows = append(rows, grid.Row{Key: "header", Height: g.RowHeight})
	}
	for i := first; i < last; i++ {
		rows = append(rows, g.row(i))
	}
	return rows, nil
}

func (g *Grid) row(i int) grid.Row {
	depth := i % 3
	return grid.Row{
		Index:      strconv.Itoa(i),
		Key:        fmt.Sprintf("row-%d@%d", i, g.epoch),
		Height:     g.RowHeight,
		Indent:     float64(depth) * 16,
		HasIcon:    true,
		Expandable: depth < 2,
		Cells: map[string]string{
			"name":  fmt.Sprintf("item-%04d", i),
			"depth": strconv.Itoa(depth),
		},
	}
}

// Metrics returns the current scroll geometry.
func (g *Grid) Metrics(context.Context) (grid.Metrics, error) {
	if err := g.fail(); err != nil {
		return grid.Metrics{}, err
	}
	content := g.contentHeight()
	if g.fixedHeight > 0 {
		content = g.fixedHeight
	}
	return grid.Metrics{Offset: g.offset, ContentHeight: content, ViewportHeight: g.ViewportHeight}, nil
}

// SetOffset scrolls, clamping to the scrollable range. Ignored once frozen.
func (g *Grid) SetOffset(_ context.Context, offset float64) error {
	if err := g.fail(); err != nil {
		return err
	}
	if g.fixedHeight > 0 {
		return nil
	}
	g.offset = math.Min(math.Max(0, offset), g.maxOffset())
	g.offsets = append(g.offsets, g.offset)
	return nil
}

// Nudge re-renders and, when lazily loading, loads the next page if the
// window reaches the end of the loaded items.
func (g *Grid) Nudge(context.Context) error {
	if err := g.fail(); err != nil {
		return err
	}
	g.nudges++
	if g.loaded < g.Items {
		if _, last := g.window(); last >= g.loaded {
			g.loaded = min(g.loaded+g.PageSize, g.Items)
		}
	}
	return nil
}

// FixHeight freezes the region at height.
func (g *Grid) FixHeight(_ context.Context, height float64) error {
	if err := g.fail(); err != nil {
		return err
	}
	g.fixedHeight = height
	return nil
}

// Unclip records ancestor unclipping.
func (g *Grid) Unclip(context.Context) error {
	if err := g.fail(); err != nil {
		return err
	}
	g.unclipped = true
	return nil
}

// Thaw releases the pinned height and ancestor unclipping.
func (g *Grid) Thaw(context.Context) error {
	if err := g.fail(); err != nil {
		return err
	}
	g.thaw()
	return nil
}

func (g *Grid) thaw() {
	g.fixedHeight = 0
	g.unclipped = false
}

// Reload simulates the host refetching its dataset: the region is unfrozen,
// lazily loaded pages are dropped and every row gets a fresh key. Items may
// be changed before calling it.
func (g *Grid) Reload() {
	g.init()
	g.thaw()
	g.loaded = g.Items
	if g.PageSize > 0 && g.PageSize < g.Items {
		g.loaded = g.PageSize
	}
	g.offset = math.Min(g.offset, g.maxOffset())
	g.epoch++
	g.lastFirst = -1
}

// Frozen reports whether FixHeight and Unclip both ran.
func (g *Grid) Frozen() bool { return g.fixedHeight > 0 && g.unclipped }

// FixedHeight returns the height passed to FixHeight.
func (g *Grid) FixedHeight() float64 { return g.fixedHeight }

// Offset returns the current scroll offset.
func (g *Grid) Offset() float64 { return g.offset }

// Nudges returns how many times Nudge was called.
func (g *Grid) Nudges() int { return g.nudges }

// Offsets returns every offset applied by SetOffset, after clamping.
func (g *Grid) Offsets() []float64 { return append([]float64(nil), g.offsets...) }

var _ grid.Adapter = (*Grid)(nil)
