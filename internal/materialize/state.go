// state.go - Driver states and the result handed back on completion.
package materialize

import (
	"errors"
	"time"

	"github.com/dev-console/gridmat/internal/grid"
)

// Sentinel errors carried in Result.Err.
var (
	ErrExhausted = errors.New("materialization retries exhausted")
	ErrAborted   = errors.New("materialization aborted")
)

// State is a Driver state.
type State int

const (
	StateIdle State = iota
	StateStepping
	StateSettling
	StateRetrying
	StateConverged
	StateFinalized
	StateAborted
)

var stateNames = [...]string{"idle", "stepping", "settling", "retrying", "converged", "finalized", "aborted"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transitions happen.
func (s State) Terminal() bool {
	return s == StateFinalized || s == StateAborted
}

// Result is the outcome of one materialization session.
type Result struct {
	Entries []Entry `json:"entries"`
	// Complete is false when a retry bound was hit or holes remain.
	Complete   bool          `json:"complete"`
	Reason     string        `json:"reason,omitempty"`
	Missing    []int         `json:"missing,omitempty"`
	Steps      int           `json:"steps"`
	GapRetries int           `json:"gap_retries"`
	Deferrals  int           `json:"deferrals"`
	Elapsed    time.Duration `json:"elapsed"`
	// Height is the content height the region was pinned to.
	Height     float64 `json:"height"`
	Generation uint64  `json:"generation"`
	Err        error   `json:"-"`
}

// Rows returns the collected rows in ascending index order.
func (r Result) Rows() []grid.Row {
	out := make([]grid.Row, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.Row
	}
	return out
}

// Indices returns the collected indices ascending.
func (r Result) Indices() []int {
	out := make([]int, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.Index
	}
	return out
}
