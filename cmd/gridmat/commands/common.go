// common.go - Shared setup for gridmat subcommands.

// Package commands implements the gridmat subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/dev-console/gridmat/cmd/gridmat/output"
	"github.com/dev-console/gridmat/internal/config"
	"github.com/dev-console/gridmat/internal/materialize"
	"github.com/dev-console/gridmat/internal/observability"
	"github.com/dev-console/gridmat/internal/util"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const serverShutdownTimeout = 5 * time.Second

// env bundles the resolved configuration and telemetry for one command.
type env struct {
	cfg       *config.Config
	providers observability.Providers
	logger    *slog.Logger
	metrics   *observability.MaterializeMetrics
	formatter output.Formatter
}

func setup(cmd *cobra.Command, mode string) (*env, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}

	oc := cfg.Observability(mode, Version)
	oc.LogOutput = cmd.ErrOrStderr()
	providers, err := observability.Init(oc)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}
	metrics, err := observability.NewMaterializeMetrics(providers.Meter)
	if err != nil {
		return nil, err
	}
	formatter, err := output.GetFormatter(cfg.Output.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, cfg.Output.Format)
	}
	slog.SetDefault(providers.Logger)

	return &env{
		cfg:       cfg,
		providers: providers,
		logger:    providers.Logger,
		metrics:   metrics,
		formatter: formatter,
	}, nil
}

func (e *env) options() []materialize.Option {
	return []materialize.Option{
		materialize.WithLogger(e.logger),
		materialize.WithRecorder(e.metrics),
		materialize.WithTracer(e.providers.Tracer),
	}
}

func (e *env) write(w io.Writer, r *output.Report) error {
	if err := e.formatter.Format(w, r); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func (e *env) close() {
	if err := e.providers.Shutdown(context.Background()); err != nil {
		e.logger.Warn("telemetry shutdown", "error", err)
	}
}

// serve runs an HTTP server on addr until ctx is done.
func (e *env) serve(ctx context.Context, name, addr string, h http.Handler) {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	util.SafeGo(e.logger, name, func() {
		e.logger.Info("listening", "server", name, "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("server stopped", "server", name, "error", err)
		}
	})
	util.SafeGo(e.logger, name+"-shutdown", func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(sctx)
	})
}
