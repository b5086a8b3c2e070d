// registry.go - Append-only store of observed rows keyed by item index.
package materialize

import (
	"sort"

	"github.com/dev-console/gridmat/internal/grid"
)

// Entry is one registry slot in index order.
type Entry struct {
	Index int      `json:"index"`
	Row   grid.Row `json:"row"`
}

// Registry maps item index to the row first observed at that index.
// Entries are never overwritten or evicted until Reset.
type Registry struct {
	rows map[int]grid.Row
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{rows: make(map[int]grid.Row)}
}

// Absorb inserts rows whose index is not yet present and returns the newly
// inserted indices in ascending order. Rows without a parseable index are
// skipped.
func (r *Registry) Absorb(rows []grid.Row) []int {
	var added []int
	for _, row := range rows {
		idx, ok := grid.ParseIndex(row.Index)
		if !ok {
			continue
		}
		if _, exists := r.rows[idx]; exists {
			continue
		}
		r.rows[idx] = row
		added = append(added, idx)
	}
	sort.Ints(added)
	return added
}

// Has reports whether idx was observed.
func (r *Registry) Has(idx int) bool {
	_, ok := r.rows[idx]
	return ok
}

// Get returns the row stored at idx.
func (r *Registry) Get(idx int) (grid.Row, bool) {
	row, ok := r.rows[idx]
	return row, ok
}

// Len returns the number of stored rows.
func (r *Registry) Len() int { return len(r.rows) }

// Indices returns every stored index ascending.
func (r *Registry) Indices() []int {
	out := make([]int, 0, len(r.rows))
	for idx := range r.rows {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// Ordered returns all entries sorted by index.
func (r *Registry) Ordered() []Entry {
	idxs := r.Indices()
	out := make([]Entry, len(idxs))
	for i, idx := range idxs {
		out[i] = Entry{Index: idx, Row: r.rows[idx]}
	}
	return out
}

// Missing returns the indices absent between the lowest and highest stored
// index.
func (r *Registry) Missing() []int {
	idxs := r.Indices()
	var out []int
	for i := 1; i < len(idxs); i++ {
		for m := idxs[i-1] + 1; m < idxs[i]; m++ {
			out = append(out, m)
		}
	}
	return out
}

// Extend returns the highest index reachable from h through indices already
// stored contiguously after it.
func (r *Registry) Extend(h int) int {
	if h == NoIndex {
		return h
	}
	for r.Has(h + 1) {
		h++
	}
	return h
}

// Reset drops every entry.
func (r *Registry) Reset() {
	r.rows = make(map[int]grid.Row)
}
