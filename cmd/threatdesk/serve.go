package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/threatdesk/internal/application"
	appfeed "github.com/bryanwahyu/threatdesk/internal/application/feed"
	"github.com/bryanwahyu/threatdesk/internal/infra/httpserver"
	"github.com/bryanwahyu/threatdesk/internal/middleware"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API on a local address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				root.cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), root)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func serve(parent context.Context, root *rootOptions) error {
	cfg, logger := root.cfg, root.logger
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	feed := appfeed.New(cfg.Scan.FeedInterval, application.SystemClock{})

	handler := httpserver.NewRouter(httpserver.Options{
		Console:  a.console,
		Feed:     feed,
		Metrics:  a.metrics,
		Logger:   logger,
		Checkers: map[string]middleware.HealthChecker{"records": middleware.PingChecker{Target: a.store}},

		APIKey:      cfg.Server.APIKey,
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimit:   cfg.Server.RateLimit,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AI.Timeout + cfg.Scan.ProgressDelay + cfg.Scan.SettleDelay + 15*time.Second,
		IdleTimeout:  60 * time.Second,
		// feed streams end with the server
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		feed.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("server listening", "addr", cfg.Server.Addr, "storage", cfg.Storage.Driver, "alerts", cfg.Alert.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown error", "error", err)
		}
		return nil
	})
	return g.Wait()
}
