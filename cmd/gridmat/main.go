// main.go - Entry point for the gridmat CLI binary.
//
// Usage: gridmat <command> [--flags]
//
// Commands: run, simulate, version
// Formats: --format human (default), json, yaml, csv
//
// Exit codes:
//
//	0 = success
//	1 = error (bridge unreachable, materialization failed, bad config)

// Package main provides the entry point for the gridmat CLI tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dev-console/gridmat/cmd/gridmat/commands"
	"github.com/dev-console/gridmat/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gridmat",
		Short: "Materialize every row of a virtualized grid",
		Long: `gridmat drives a virtualized DetailsList grid until every row has been
rendered once, then pins the grid at full height so the whole list is in the
page at the same time.

Commands:
  run       Materialize the grid open in the browser via the extension bridge
  simulate  Materialize a synthetic grid on a virtual clock
  version   Show version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default .gridmat.yaml in CWD or $HOME)")
	pf.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	pf.Bool("log-json", false, "emit JSON logs")
	pf.String("format", config.DefaultFormat, "output format: human, json, yaml, csv")

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewSimulateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())
	return rootCmd
}
