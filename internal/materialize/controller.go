// controller.go - Session ownership: one driver per page-state generation.
package materialize

import (
	"context"
	"time"

	"github.com/dev-console/gridmat/internal/clock"
	"github.com/dev-console/gridmat/internal/grid"
)

// Controller owns the session state shared across drivers: the registry,
// the generation counter and the one-shot processed flag. Every method must
// run on the scheduler.
type Controller struct {
	adapter grid.Adapter
	sched   clock.Scheduler
	opts    Options
	extra   []Option
	deps    deps

	ctx       context.Context
	reg       *Registry
	driver    *Driver
	gen       uint64
	processed bool
	pending   bool
	latest    *Result
	subs      []func(Result)
}

// NewController creates a Controller in the Idle state.
func NewController(a grid.Adapter, s clock.Scheduler, opts Options, extra ...Option) *Controller {
	return &Controller{
		adapter: a,
		sched:   s,
		opts:    opts.withDefaults(),
		extra:   extra,
		deps:    buildDeps(extra),
		ctx:     context.Background(),
		reg:     NewRegistry(),
	}
}

// Subscribe registers fn to receive every finished session's Result.
func (c *Controller) Subscribe(fn func(Result)) {
	c.subs = append(c.subs, fn)
}

// Latest returns the last finished Result of the current generation.
func (c *Controller) Latest() (Result, bool) {
	if c.latest == nil {
		return Result{}, false
	}
	return *c.latest, true
}

// Generation returns the page-state generation.
func (c *Controller) Generation() uint64 { return c.gen }

// Registry exposes the session registry.
func (c *Controller) Registry() *Registry { return c.reg }

// State returns the current driver's state, or Idle when none exists.
func (c *Controller) State() State {
	if c.driver == nil {
		return StateIdle
	}
	return c.driver.State()
}

// Highest returns the current session's highest confirmed index.
func (c *Controller) Highest() int {
	if c.driver == nil {
		return NoIndex
	}
	return c.driver.Highest()
}

// Observe handles a page-level change signal. It starts a session when the
// grid is detected and none has run in this generation; otherwise it does
// nothing, so broad DOM churn cannot start a second concurrent session.
func (c *Controller) Observe(ctx context.Context) {
	if c.processed {
		return
	}
	ok, err := c.adapter.Detect(ctx)
	if err != nil {
		c.deps.logger.WarnContext(ctx, "grid detection failed", "error", err)
		return
	}
	if !ok {
		return
	}
	c.deps.logger.InfoContext(ctx, "grid detected, starting session", "generation", c.gen)
	c.start(ctx)
}

// Poll calls Observe now and every interval until ctx is done.
func (c *Controller) Poll(ctx context.Context, interval time.Duration) {
	var tick func()
	tick = func() {
		if ctx.Err() != nil {
			return
		}
		c.Observe(ctx)
		c.sched.AfterFunc(interval, tick)
	}
	tick()
}

func (c *Controller) start(ctx context.Context) {
	c.processed = true
	c.ctx = ctx
	gen := c.gen
	c.driver = NewDriver(c.adapter, c.sched, c.reg, c.opts, c.extra...)
	c.driver.Start(ctx, func(res Result) { c.finished(gen, res) })
}

func (c *Controller) finished(gen uint64, res Result) {
	if gen != c.gen {
		return
	}
	res.Generation = gen
	c.latest = &res
	for _, fn := range c.subs {
		fn(res)
	}
	if c.pending {
		c.pending = false
		c.Refresh(c.ctx)
	}
}

// Refresh handles an upstream dataset change. The in-flight session is
// aborted and the session state is cleared. A finalized region is thawed
// and scrolled back to the top before a new session is attempted after the
// restart delay.
func (c *Controller) Refresh(ctx context.Context) {
	c.deps.logger.InfoContext(ctx, "data refreshed, resetting session",
		"generation", c.gen, "rows", c.reg.Len())
	c.gen++
	if c.driver != nil {
		c.driver.Abort()
		c.driver = nil
	}
	c.reg.Reset()
	c.processed = false
	c.pending = false
	c.latest = nil

	if err := c.adapter.Thaw(ctx); err != nil {
		c.deps.logger.WarnContext(ctx, "could not unfreeze region", "error", err)
	}
	if err := c.adapter.SetOffset(ctx, 0); err != nil {
		c.deps.logger.WarnContext(ctx, "could not reset scroll offset", "error", err)
	}
	gen := c.gen
	c.sched.AfterFunc(c.opts.RestartDelay, func() {
		if gen != c.gen || ctx.Err() != nil {
			return
		}
		c.Observe(ctx)
	})
}

// RequestRestart queues a reset-and-restart. It applies immediately when no
// session is in flight, otherwise once the in-flight session finishes.
func (c *Controller) RequestRestart(ctx context.Context) {
	if c.driver != nil && !c.driver.State().Terminal() && c.driver.State() != StateIdle {
		c.pending = true
		c.ctx = ctx
		return
	}
	c.Refresh(ctx)
}
