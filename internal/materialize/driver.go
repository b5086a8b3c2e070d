// driver.go - Scroll-driven collection state machine.
// Idle -> Stepping -> Settling -> {Stepping | Retrying | Converged} -> Finalized.
package materialize

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dev-console/gridmat/internal/clock"
	"github.com/dev-console/gridmat/internal/grid"
)

// Driver runs one materialization session against an Adapter. All methods
// and callbacks must run on the Driver's scheduler.
type Driver struct {
	adapter grid.Adapter
	sched   clock.Scheduler
	reg     *Registry
	opts    Options
	deps    deps

	ctx    context.Context
	span   trace.Span
	onDone func(Result)

	state   State
	token   uint64
	timer   clock.Timer
	highest int
	before  Snapshot
	started time.Time

	steps       int
	gapRetries  int
	gapStreak   int
	deferrals   int
	deferStreak int
}

// NewDriver creates an idle Driver that collects into reg.
func NewDriver(a grid.Adapter, s clock.Scheduler, reg *Registry, opts Options, extra ...Option) *Driver {
	return &Driver{
		adapter: a,
		sched:   s,
		reg:     reg,
		opts:    opts.withDefaults(),
		deps:    buildDeps(extra),
		highest: NoIndex,
	}
}

// State returns the current state.
func (d *Driver) State() State { return d.state }

// Highest returns the highest confirmed index, or NoIndex.
func (d *Driver) Highest() int { return d.highest }

// Start begins the session. onDone runs once, on the scheduler, when the
// session finalizes, exhausts, or its context is cancelled. It does not run
// after Abort.
func (d *Driver) Start(ctx context.Context, onDone func(Result)) {
	if d.state != StateIdle {
		return
	}
	d.ctx, d.span = d.deps.tracer.Start(ctx, "materialize.session")
	d.onDone = onDone
	d.started = d.sched.Now()
	d.deps.logger.InfoContext(d.ctx, "starting materialization", "known_rows", d.reg.Len())
	d.step()
}

// Abort stops the session at the next safe point: any pending callback
// becomes a no-op.
func (d *Driver) Abort() {
	if d.state.Terminal() {
		return
	}
	d.token++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	prev := d.state
	d.state = StateAborted
	if prev == StateIdle {
		return
	}
	d.deps.recorder.SessionFinished(d.ctx, OutcomeAborted, d.sched.Now().Sub(d.started))
	d.span.SetStatus(codes.Error, "aborted")
	d.span.End()
	d.deps.logger.InfoContext(d.ctx, "materialization aborted", "state", prev.String(), "rows", d.reg.Len())
}

func (d *Driver) schedule(delay time.Duration, fn func()) {
	tok := d.token
	d.timer = d.sched.AfterFunc(delay, func() {
		if tok != d.token || d.state.Terminal() {
			return
		}
		d.timer = nil
		fn()
	})
}

func (d *Driver) cancelled() bool {
	err := d.ctx.Err()
	if err == nil {
		return false
	}
	d.state = StateAborted
	res := d.result("context cancelled")
	res.Err = fmt.Errorf("%w: %w", ErrAborted, err)
	d.finish(res, OutcomeAborted)
	return true
}

func (d *Driver) step() {
	if d.cancelled() {
		return
	}
	if d.opts.MaxDuration > 0 && d.sched.Now().Sub(d.started) >= d.opts.MaxDuration {
		d.exhaust(fmt.Sprintf("max duration %s reached", d.opts.MaxDuration))
		return
	}
	d.state = StateStepping

	rows, err := d.adapter.Rows(d.ctx)
	if err != nil {
		d.deferStep("list rows", err)
		return
	}
	newly := d.reg.Absorb(rows)
	if len(newly) > 0 {
		d.deps.recorder.RowsAbsorbed(d.ctx, len(newly))
		if HasGap(newly, d.highest) {
			d.retry(newly[0])
			return
		}
		d.gapStreak = 0
		d.highest = d.reg.Extend(Advance(d.highest, newly))
	}

	first, ok := grid.FirstIndexed(rows)
	if !ok {
		d.deferStep("no data rows", nil)
		return
	}
	m, err := d.adapter.Metrics(d.ctx)
	if err != nil {
		d.deferStep("read metrics", err)
		return
	}
	d.deferStreak = 0

	rowHeight := first.Height
	if rowHeight <= 0 {
		rowHeight = d.opts.FallbackRowHeight
	}
	d.before = SnapshotOf(m)
	target := m.Offset + rowHeight*float64(d.opts.RowsPerStep)
	if err := d.adapter.SetOffset(d.ctx, target); err != nil {
		d.deferStep("scroll", err)
		return
	}
	if err := d.adapter.Nudge(d.ctx); err != nil {
		d.deferStep("nudge", err)
		return
	}
	d.steps++
	d.deps.recorder.StepTaken(d.ctx)
	d.deps.logger.DebugContext(d.ctx, "scrolled",
		"step", d.steps, "from", m.Offset, "to", target, "content_height", m.ContentHeight,
		"highest", d.highest, "rows", d.reg.Len())

	d.state = StateSettling
	d.schedule(d.opts.SettleDelay, d.settle)
}

func (d *Driver) settle() {
	if d.cancelled() {
		return
	}
	m, err := d.adapter.Metrics(d.ctx)
	if err != nil {
		d.deferStep("read metrics", err)
		return
	}
	if Progressed(d.before, SnapshotOf(m)) {
		d.step()
		return
	}
	d.deps.logger.InfoContext(d.ctx, "scroll geometry stable",
		"offset", m.Offset, "content_height", m.ContentHeight, "rows", d.reg.Len())
	d.converge("")
}

// retry scrolls back after the window skipped past highest+1.
func (d *Driver) retry(found int) {
	d.gapStreak++
	d.gapRetries++
	d.deps.recorder.GapDetected(d.ctx)
	d.deps.logger.WarnContext(d.ctx, "data gap detected, scrolling back to retry",
		"expected", d.highest+1, "found", found, "attempt", d.gapStreak)
	if d.opts.MaxGapRetries > 0 && d.gapStreak > d.opts.MaxGapRetries {
		d.exhaust(fmt.Sprintf("gap at index %d persisted after %d retries", d.highest+1, d.opts.MaxGapRetries))
		return
	}

	d.state = StateRetrying
	m, err := d.adapter.Metrics(d.ctx)
	if err != nil {
		d.deferStep("read metrics", err)
		return
	}
	if err := d.adapter.SetOffset(d.ctx, m.Offset-d.opts.GapScrollBack); err != nil {
		d.deferStep("scroll back", err)
		return
	}
	if err := d.adapter.Nudge(d.ctx); err != nil {
		d.deferStep("nudge", err)
		return
	}
	d.schedule(d.opts.RetryDelay, d.step)
}

// deferStep waits and re-enters Stepping. Absent rows and adapter failures
// both land here.
func (d *Driver) deferStep(reason string, err error) {
	d.deferStreak++
	d.deferrals++
	d.deps.recorder.Deferred(d.ctx, reason)
	if err != nil {
		d.deps.logger.WarnContext(d.ctx, "adapter call failed, deferring", "op", reason, "error", err, "attempt", d.deferStreak)
	} else {
		d.deps.logger.DebugContext(d.ctx, "nothing to collect yet, deferring", "reason", reason, "attempt", d.deferStreak)
	}
	if d.opts.MaxDeferrals > 0 && d.deferStreak > d.opts.MaxDeferrals {
		d.exhaust(fmt.Sprintf("%s: deferred %d times", reason, d.opts.MaxDeferrals))
		return
	}
	d.schedule(d.opts.DeferDelay, d.step)
}

func (d *Driver) exhaust(reason string) {
	d.deps.logger.WarnContext(d.ctx, "materialization bound exhausted",
		"reason", reason, "policy", string(d.opts.OnExhausted), "rows", d.reg.Len())
	if d.opts.OnExhausted == ExhaustFail {
		d.state = StateAborted
		res := d.result(reason)
		res.Err = fmt.Errorf("%w: %s", ErrExhausted, reason)
		d.finish(res, OutcomeExhausted)
		return
	}
	d.converge(reason)
}

// converge takes one last pass over the mounted rows and freezes the region.
func (d *Driver) converge(reason string) {
	d.state = StateConverged
	rows, err := d.adapter.Rows(d.ctx)
	if err != nil {
		d.deps.logger.WarnContext(d.ctx, "final row pass failed", "error", err)
	} else if newly := d.reg.Absorb(rows); len(newly) > 0 {
		d.deps.recorder.RowsAbsorbed(d.ctx, len(newly))
		if !HasGap(newly, d.highest) {
			d.highest = d.reg.Extend(Advance(d.highest, newly))
		}
	}

	height, err := Finalize(d.ctx, d.adapter)
	d.state = StateFinalized
	res := d.result(reason)
	res.Height = height
	if err != nil {
		res.Err = fmt.Errorf("finalize: %w", err)
		res.Complete = false
	}
	outcome := OutcomeComplete
	if !res.Complete {
		outcome = OutcomePartial
	}
	d.finish(res, outcome)
}

func (d *Driver) result(reason string) Result {
	missing := d.reg.Missing()
	complete := reason == "" && len(missing) == 0
	if reason == "" && len(missing) > 0 {
		reason = fmt.Sprintf("%d indices never rendered", len(missing))
	}
	return Result{
		Entries:    d.reg.Ordered(),
		Complete:   complete,
		Reason:     reason,
		Missing:    missing,
		Steps:      d.steps,
		GapRetries: d.gapRetries,
		Deferrals:  d.deferrals,
	}
}

func (d *Driver) finish(res Result, outcome string) {
	res.Elapsed = d.sched.Now().Sub(d.started)
	d.deps.recorder.SessionFinished(d.ctx, outcome, res.Elapsed)

	d.span.SetAttributes(
		attribute.Int("gridmat.rows", len(res.Entries)),
		attribute.Int("gridmat.steps", res.Steps),
		attribute.Int("gridmat.gap_retries", res.GapRetries),
		attribute.Bool("gridmat.complete", res.Complete),
	)
	if res.Err != nil {
		d.span.RecordError(res.Err)
		d.span.SetStatus(codes.Error, res.Err.Error())
	}
	d.span.End()

	d.deps.logger.InfoContext(d.ctx, "materialization finished",
		"outcome", outcome, "rows", len(res.Entries), "complete", res.Complete,
		"steps", res.Steps, "gap_retries", res.GapRetries, "height", res.Height, "elapsed", res.Elapsed)
	if res.Reason != "" && !res.Complete {
		d.deps.logger.WarnContext(d.ctx, "result incomplete", "reason", res.Reason, "missing", len(res.Missing))
	}
	if d.onDone != nil {
		d.onDone(res)
	}
}
