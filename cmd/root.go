// Package cmd provides the CLI commands for hiwar.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/guilhermegouw/hiwar/internal/debug"
	"github.com/guilhermegouw/hiwar/internal/telemetry"
	"github.com/guilhermegouw/hiwar/internal/tui"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hiwar",
		Short: "Streaming chat client",
		Long: `hiwar is a terminal client for a streaming chat server.

Replies arrive chunk by chunk over a text/event-stream connection and
every conversation is kept in a local session history. The interface
speaks Arabic and English.`,
		SilenceUsage: true,
		RunE:         runTUI,
	}

	flags := cmd.PersistentFlags()
	flags.Bool("debug", false, "Write a debug log to $XDG_STATE_HOME/hiwar/debug.log")
	flags.String("config", "", "Read configuration from this file instead of the standard locations")
	flags.String("store", "", "Session store backend: file, sqlite, redis or memory")
	flags.String("lang", "", "Interface language: ar or en")
	flags.Bool("ephemeral", false, "Keep sessions in memory only")

	cmd.Flags().String("metrics-addr", "", "Serve client metrics on this address while the TUI runs")

	cmd.AddCommand(
		newAskCmd(),
		newSessionsCmd(),
		newConfigCmd(),
		newStatusCmd(),
		newServeDevCmd(),
		newVersionCmd(),
	)

	return cmd
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer enableDebug(cmd, cfg)()

	metricsAddr, err := cmd.Flags().GetString("metrics-addr")
	if err != nil {
		return fmt.Errorf("getting metrics-addr flag: %w", err)
	}
	reg := prometheus.NewRegistry()
	var metrics *telemetry.Metrics
	if metricsAddr != "" {
		metrics = telemetry.New(reg)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, metrics)
	if err != nil {
		return err
	}
	defer a.Close()

	watch, err := a.watch(ctx)
	if err != nil {
		debug.Error("cmd", err, "watching session store")
	}

	g, gctx := errgroup.WithContext(ctx)
	gctx, cancel := context.WithCancel(gctx)
	if metricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, metricsAddr, reg)
		})
	}
	g.Go(func() error {
		defer cancel()
		return tui.Run(gctx, tui.Options{
			Controller: a.ctrl,
			Catalog:    a.cat,
			Watch:      watch,
			ExportDir:  cwd(),
		})
	})
	return g.Wait()
}

// serveMetrics serves /metrics from reg until ctx is done.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	debug.Log("serving metrics on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving metrics: %w", err)
	}
	return nil
}

func cwd() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}
