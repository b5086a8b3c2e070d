// recorder.go - Metrics sink for driver events.
package materialize

import (
	"context"
	"time"
)

// Outcome labels for Recorder.SessionFinished.
const (
	OutcomeComplete  = "complete"
	OutcomePartial   = "partial"
	OutcomeExhausted = "exhausted"
	OutcomeAborted   = "aborted"
)

// Recorder receives driver events. Implementations must be cheap; they run
// on the scheduler goroutine.
type Recorder interface {
	StepTaken(ctx context.Context)
	GapDetected(ctx context.Context)
	Deferred(ctx context.Context, reason string)
	RowsAbsorbed(ctx context.Context, n int)
	SessionFinished(ctx context.Context, outcome string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) StepTaken(context.Context) {}
func (nopRecorder) GapDetected(context.Context) {}
func (nopRecorder) Deferred(context.Context, string) {}
func (nopRecorder) RowsAbsorbed(context.Context, int) {}
func (nopRecorder) SessionFinished(context.Context, string, time.Duration) {}
