// types.go - Report model shared by all output formatters.
package output

import (
	"errors"
	"io"
	"sort"
	"time"

	"github.com/dev-console/gridmat/internal/grid"
	"github.com/dev-console/gridmat/internal/hierarchy"
	"github.com/dev-console/gridmat/internal/materialize"
)

// Report is one materialization outcome prepared for display.
type Report struct {
	Command    string        `json:"command" yaml:"command"`
	Complete   bool          `json:"complete" yaml:"complete"`
	Reason     string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
	Steps      int           `json:"steps" yaml:"steps"`
	GapRetries int           `json:"gap_retries" yaml:"gap_retries"`
	Deferrals  int           `json:"deferrals" yaml:"deferrals"`
	Elapsed    time.Duration `json:"elapsed_ns" yaml:"elapsed"`
	Height     float64       `json:"height" yaml:"height"`
	Generation uint64        `json:"generation" yaml:"generation"`
	Missing    []int         `json:"missing,omitempty" yaml:"missing,omitempty"`
	// Filtered counts rows dropped as managed solution components.
	Filtered int         `json:"filtered,omitempty" yaml:"filtered,omitempty"`
	Rows     []ReportRow `json:"rows" yaml:"rows"`
}

// ReportRow is a collected row with its inferred hierarchy.
type ReportRow struct {
	Index  int               `json:"index" yaml:"index"`
	Depth  int               `json:"depth" yaml:"depth"`
	Parent int               `json:"parent" yaml:"parent"`
	Toggle bool              `json:"toggle,omitempty" yaml:"toggle,omitempty"`
	Cells  map[string]string `json:"cells,omitempty" yaml:"cells,omitempty"`
}

// NewReport builds a Report from a finished session. rows overrides
// res.Rows() when non-nil (e.g. after filtering); Parent refers to the
// parent's Index, or -1.
func NewReport(command string, res materialize.Result, rows []grid.Row) *Report {
	if rows == nil {
		rows = res.Rows()
	}
	r := &Report{
		Command:    command,
		Complete:   res.Complete,
		Reason:     res.Reason,
		Steps:      res.Steps,
		GapRetries: res.GapRetries,
		Deferrals:  res.Deferrals,
		Elapsed:    res.Elapsed,
		Height:     res.Height,
		Generation: res.Generation,
		Missing:    res.Missing,
		Filtered:   len(res.Entries) - len(rows),
		Rows:       make([]ReportRow, len(rows)),
	}
	if res.Err != nil {
		r.Error = res.Err.Error()
	}

	nodes := hierarchy.Tree(rows)
	toggles := make(map[int]bool)
	for _, pos := range hierarchy.Toggles(rows) {
		toggles[pos] = true
	}
	for i, row := range rows {
		idx, _ := grid.ParseIndex(row.Index)
		parent := -1
		if p := nodes[i].Parent; p >= 0 {
			parent, _ = grid.ParseIndex(rows[p].Index)
		}
		r.Rows[i] = ReportRow{
			Index:  idx,
			Depth:  nodes[i].Depth,
			Parent: parent,
			Toggle: toggles[i],
			Cells:  row.Cells,
		}
	}
	return r
}

// Columns returns the sorted union of cell keys.
func (r *Report) Columns() []string {
	set := make(map[string]struct{})
	for _, row := range r.Rows {
		for k := range row.Cells {
			set[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(set))
	for k := range set {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Formatter renders a Report.
type Formatter interface {
	Format(w io.Writer, r *Report) error
}

// ErrUnknownFormat is returned by GetFormatter for unsupported names.
var ErrUnknownFormat = errors.New("unknown output format")

// GetFormatter returns the formatter for format.
func GetFormatter(format string) (Formatter, error) {
	switch format {
	case "human", "":
		return &HumanFormatter{}, nil
	case "json":
		return &JSONFormatter{Indent: true}, nil
	case "csv":
		return &CSVFormatter{}, nil
	case "yaml":
		return &YAMLFormatter{}, nil
	default:
		return nil, ErrUnknownFormat
	}
}
