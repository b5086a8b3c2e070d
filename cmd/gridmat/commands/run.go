// run.go - run subcommand: materialize the grid open in the browser.
package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dev-console/gridmat/cmd/gridmat/output"
	"github.com/dev-console/gridmat/internal/bridge"
	"github.com/dev-console/gridmat/internal/buffers"
	"github.com/dev-console/gridmat/internal/clock"
	"github.com/dev-console/gridmat/internal/dataverse"
	"github.com/dev-console/gridmat/internal/grid"
	"github.com/dev-console/gridmat/internal/grid/script"
	"github.com/dev-console/gridmat/internal/materialize"
	"github.com/dev-console/gridmat/internal/refresh"
	"github.com/dev-console/gridmat/internal/util"
)

// historySize bounds the reports kept for GET /history.
const historySize = 32

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Materialize the virtualized grid open in the browser",
		Long: `Connects to the browser extension bridge, waits for a DetailsList grid to
appear, scrolls it until every row has been rendered, then pins it at full
height and prints the collected rows.

With --watch the command keeps running: the extension pushes captured network
events to POST /network, a successful reload of the component listing restarts
the session, GET /rows returns the latest result and GET /history?since=N
returns the reports finished after cursor N.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd, "run")
			if err != nil {
				return err
			}
			defer e.close()
			return runLive(cmd, e, watch)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&watch, "watch", false, "keep running and restart on dataset refresh")
	f.String("bridge-url", "", "extension bridge base URL")
	f.Duration("script-timeout", bridge.ScriptTimeout, "timeout for one page script")
	f.String("listen", "", "watch-mode listen address for /network and /rows")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address")
	f.String("refresh-pattern", "", "URL substring that signals a dataset refresh")
	f.Bool("filter-managed", false, "drop rows that are managed components of the solution")
	f.String("solution-url", "", "solution page URL (defaults to the page URL)")
	f.String("instance-url", "", "Dataverse instance URL (defaults to captured credentials)")
	f.Int("step-rows", materialize.DefaultRowsPerStep, "rows scrolled per step")
	f.Duration("settle-delay", materialize.DefaultSettleDelay, "wait after each scroll")
	f.Duration("max-duration", 0, "stop after this long (0 is unbounded)")
	f.String("on-exhausted", string(materialize.ExhaustPartial), "partial or fail when retries run out")
	return cmd
}

// liveSession is the state shared between the scheduler loop and HTTP
// handlers.
type liveSession struct {
	e       *env
	adapter *script.Adapter
	creds   *refresh.CredentialStore
	history *buffers.Ring[*output.Report]

	mu     sync.RWMutex
	latest *output.Report
}

func runLive(cmd *cobra.Command, e *env, watch bool) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	client := bridge.NewClient(e.cfg.Bridge.URL, e.cfg.Bridge.ScriptTimeout)
	if !client.HealthCheck(ctx) {
		return fmt.Errorf("%w: no health response at %s", bridge.ErrUnreachable, e.cfg.Bridge.URL)
	}

	ls := &liveSession{
		e:       e,
		adapter: script.NewAdapter(client),
		creds:   refresh.NewCredentialStore(),
		history: buffers.NewRing[*output.Report](historySize),
	}
	loop := clock.NewLoop(e.logger)
	ctrl := materialize.NewController(ls.adapter, loop, e.cfg.Options(), e.options()...)

	results := make(chan materialize.Result, 4)
	ctrl.Subscribe(func(res materialize.Result) {
		select {
		case results <- res:
		default:
			e.logger.Warn("result dropped, consumer busy", "generation", res.Generation)
		}
	})

	util.SafeGo(e.logger, "scheduler", func() { loop.Run(ctx) })
	loop.Post(func() { ctrl.Poll(ctx, e.cfg.Materialize.DetectInterval) })

	if addr := e.cfg.Server.MetricsAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", e.providers.MetricsHandler)
		e.serve(ctx, "metrics", addr, mux)
	}
	if watch {
		watcher := refresh.NewWatcher(e.cfg.Refresh.Pattern, func(refresh.NetworkEvent) {
			loop.Post(func() { ctrl.Refresh(ctx) })
		}, e.logger)
		e.serve(ctx, "watch", e.cfg.Server.Listen, ls.routes(watcher))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case res := <-results:
			rep := ls.report(ctx, res)
			ls.mu.Lock()
			ls.latest = rep
			ls.mu.Unlock()
			ls.history.Push(rep)
			if err := e.write(cmd.OutOrStdout(), rep); err != nil {
				return err
			}
			if !watch {
				if res.Err != nil {
					return res.Err
				}
				return nil
			}
		}
	}
}

func (ls *liveSession) routes(w *refresh.Watcher) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/network", &refresh.Handler{Watcher: w, Credentials: ls.creds, Logger: ls.e.logger})
	mux.HandleFunc("/rows", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			util.JSONError(rw, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		ls.mu.RLock()
		rep := ls.latest
		ls.mu.RUnlock()
		if rep == nil {
			util.JSONError(rw, http.StatusNotFound, "no finished session yet")
			return
		}
		util.JSONResponse(rw, http.StatusOK, rep)
	})
	mux.HandleFunc("/history", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			util.JSONError(rw, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var since int64
		if raw := r.URL.Query().Get("since"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || n < 0 {
				util.JSONError(rw, http.StatusBadRequest, "since must be a non-negative integer")
				return
			}
			since = n
		}
		reports, next := ls.history.Since(since)
		if reports == nil {
			reports = []*output.Report{}
		}
		util.JSONResponse(rw, http.StatusOK, map[string]any{"reports": reports, "next": next})
	})
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		util.JSONResponse(rw, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

// report builds the output for res, dropping managed components when
// filtering is enabled. Filtering problems are logged and the unfiltered
// rows are reported.
func (ls *liveSession) report(ctx context.Context, res materialize.Result) *output.Report {
	rows := res.Rows()
	if ls.e.cfg.Dataverse.FilterManaged {
		filtered, err := ls.filterManaged(ctx, rows)
		if err != nil {
			ls.e.logger.Warn("managed filter skipped", "error", err)
		} else {
			rows = filtered
		}
	}
	return output.NewReport("run", res, rows)
}

func (ls *liveSession) filterManaged(ctx context.Context, rows []grid.Row) ([]grid.Row, error) {
	dc := ls.e.cfg.Dataverse
	instance, token := dc.InstanceURL, dc.Token
	if creds, ok := ls.creds.Credentials(); ok {
		if instance == "" {
			instance = creds.InstanceURL
		}
		if token == "" {
			token = creds.Token
		}
	}
	if instance == "" || token == "" {
		return nil, errors.New("no Dataverse credentials captured yet")
	}

	pageURL := dc.SolutionURL
	if pageURL == "" {
		href, err := ls.adapter.Location(ctx)
		if err != nil {
			return nil, err
		}
		pageURL = href
	}
	solutionID := dataverse.SolutionIDFromURL(pageURL)
	if solutionID == "" {
		return nil, fmt.Errorf("no solution id in %q", pageURL)
	}

	items, err := dataverse.NewClient(instance, token, ls.e.logger).SolutionComponents(ctx, solutionID)
	if err != nil {
		return nil, err
	}
	keys := dataverse.ManagedFilter(rows, items, dc.NameCell)
	ls.e.logger.Info("filtered managed components", "solution", solutionID, "dropped", len(keys))
	return dataverse.WithoutKeys(rows, keys), nil
}
