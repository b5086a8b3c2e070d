// simulate.go - simulate subcommand: materialize a synthetic grid on a
// virtual clock.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dev-console/gridmat/cmd/gridmat/output"
	"github.com/dev-console/gridmat/internal/clock"
	"github.com/dev-console/gridmat/internal/grid/synthetic"
	"github.com/dev-console/gridmat/internal/materialize"
)

// simulateOptions are the synthetic host parameters.
type simulateOptions struct {
	items      int
	window     int
	rowHeight  float64
	pageSize   int
	skipAhead  int
	skipTimes  int
	skipFrom   int
	mountDelay int
	failures   int
	unindexed  bool
	refreshAt  time.Duration
	limit      time.Duration
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand() *cobra.Command {
	so := &simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Materialize a synthetic virtualized grid on a virtual clock",
		Long: `Runs the materializer against an in-memory virtualized list. Time is
simulated, so sessions that would take minutes in a browser finish instantly;
the reported elapsed time is virtual.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd, "simulate")
			if err != nil {
				return err
			}
			defer e.close()

			rep, err := runSimulation(cmd.Context(), e, so)
			if err != nil {
				return err
			}
			if err := e.write(cmd.OutOrStdout(), rep); err != nil {
				return err
			}
			if rep.Error != "" {
				return fmt.Errorf("materialization failed: %s", rep.Error)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&so.items, "items", 1000, "number of items in the list")
	f.IntVar(&so.window, "window", 30, "rows mounted at a time")
	f.Float64Var(&so.rowHeight, "row-height", 40, "row height in pixels")
	f.IntVar(&so.pageSize, "page-size", 0, "load items lazily in pages of this size (0 loads all)")
	f.IntVar(&so.skipAhead, "skip-ahead", 0, "render this many rows past the offset to provoke gaps")
	f.IntVar(&so.skipTimes, "skip-times", 1, "how many renders skip ahead")
	f.IntVar(&so.skipFrom, "skip-from", 0, "first row index at which skipping may start")
	f.IntVar(&so.mountDelay, "mount-delay", 0, "calls before the grid appears")
	f.IntVar(&so.failures, "failures", 0, "inject this many transport failures")
	f.BoolVar(&so.unindexed, "unindexed-header", false, "mount a header row without an index")
	f.DurationVar(&so.refreshAt, "refresh-at", 0, "reload the dataset at this virtual time (0 disables)")
	f.DurationVar(&so.limit, "limit", time.Hour, "virtual time budget")
	f.Int("step-rows", materialize.DefaultRowsPerStep, "rows scrolled per step")
	f.Duration("settle-delay", materialize.DefaultSettleDelay, "wait after each scroll")
	f.Duration("max-duration", 0, "stop after this long (0 is unbounded)")
	f.String("on-exhausted", string(materialize.ExhaustPartial), "partial or fail when retries run out")
	return cmd
}

// runSimulation drives one session to completion on a fake clock. A refresh
// before completion restarts the session; the first finished result wins.
func runSimulation(ctx context.Context, e *env, so *simulateOptions) (*output.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fake := clock.NewFake(time.Unix(0, 0).UTC())
	g := &synthetic.Grid{
		Items:      so.items,
		Window:     so.window,
		RowHeight:  so.rowHeight,
		PageSize:   so.pageSize,
		SkipAhead:  so.skipAhead,
		SkipTimes:  so.skipTimes,
		SkipFrom:   so.skipFrom,
		Unindexed:  so.unindexed,
		MountDelay: so.mountDelay,
		Failures:   so.failures,
	}

	ctrl := materialize.NewController(g, fake, e.cfg.Options(), e.options()...)
	var got *materialize.Result
	ctrl.Subscribe(func(res materialize.Result) {
		if got == nil {
			got = &res
			cancel()
		}
	})

	if so.refreshAt > 0 {
		fake.AfterFunc(so.refreshAt, func() {
			if got != nil {
				return
			}
			g.Reload()
			ctrl.Refresh(ctx)
		})
	}
	ctrl.Poll(ctx, e.cfg.Materialize.DetectInterval)

	virtual := fake.RunUntilIdle(so.limit)
	if got == nil {
		return nil, fmt.Errorf("no session finished within %s of virtual time", so.limit)
	}
	e.logger.Info("simulation finished",
		"rows", len(got.Entries), "complete", got.Complete, "virtual_elapsed", virtual,
		"frozen", g.Frozen())
	return output.NewReport("simulate", *got, nil), nil
}
