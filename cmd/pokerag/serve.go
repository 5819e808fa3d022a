package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pokerag/internal/metrics"
	chiTransport "github.com/kailas-cloud/pokerag/internal/transport/chi"
	"github.com/kailas-cloud/pokerag/internal/version"
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), c)
		},
	}
}

func runServe(ctx context.Context, c *cli) error {
	cfg := c.cfg
	logger := c.logger

	logger.Info("Starting pokerag API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", c.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("store", cfg.Store.Path),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	a, err := buildApp(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	// The server starts even when the first build fails: health reports the
	// index as down and POST /v1/index/rebuild can retry.
	if _, err := a.rebuild(ctx, nil); err != nil {
		logger.Error("Initial index build failed", zap.Error(err))
	}

	metrics.RegisterHTTPMetrics()
	server := chiTransport.NewServer(chiTransport.Deps{
		Asker:     a.ask,
		Scorer:    a.scorer,
		Indexer:   a.index,
		Documents: a.docs,
		Health:    a.health,
	}, logger.Named("http"))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      server.Handler(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Info("Shutting down server", zap.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
