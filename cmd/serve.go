package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/guilhermegouw/hiwar/internal/devserver"
	"github.com/guilhermegouw/hiwar/internal/telemetry"
)

func newServeDevCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve-dev",
		Short: "Run a local stream server that echoes messages back",
		Long: `Run a development chat server on dev.addr.

It serves the same text/event-stream endpoint as the real server, but
answers by echoing the message one word at a time. Point server.base_url
at it to try the client without a model.`,
		Args: cobra.NoArgs,
		RunE: runServeDev,
	}
	cmd.Flags().String("addr", "", "Listen address (default dev.addr)")
	cmd.Flags().Duration("delay", 80*time.Millisecond, "Pause between chunks")
	cmd.Flags().String("fail-on", "", "Reply with an error after the echo when the message contains this text")
	return cmd
}

func runServeDev(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer enableDebug(cmd, cfg)()

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Dev.Addr
	}
	delay, _ := cmd.Flags().GetDuration("delay")
	failOn, _ := cmd.Flags().GetString("fail-on")

	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	gin.SetMode(gin.ReleaseMode)

	reg := prometheus.NewRegistry()
	srv := devserver.New(devserver.Options{
		Responder:  failingEcho(failOn),
		ChunkDelay: delay,
		Logger:     logger,
		Metrics:    telemetry.NewServer(reg),
		Gatherer:   reg,
	})

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return srv.Run(ctx, addr)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("stopping dev server")
		return nil
	})
	fmt.Fprintf(cmd.ErrOrStderr(), "Serving %s on http://%s\n", devserver.StreamPath, addr)
	return g.Wait()
}

// failingEcho echoes, then fails when the message contains trigger.
func failingEcho(trigger string) devserver.Responder {
	return func(ctx context.Context, message, sessionID string) ([]string, error) {
		chunks, err := devserver.Echo(ctx, message, sessionID)
		if err == nil && trigger != "" && strings.Contains(message, trigger) {
			err = fmt.Errorf("message contains %q", trigger)
		}
		return chunks, err
	}
}
