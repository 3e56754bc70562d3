package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/api"
	"github.com/spigell/cv-screener/internal/metrics"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the screening API over HTTP",
	RunE: func(_ *cobra.Command, _ []string) error {
		return serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "listen address (default :8080)")
	viper.BindPFlag("serve.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() error {
	ctx, stop := signalContext()
	defer stop()

	c := setup(ctx)
	defer c.Close()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	srv := api.NewServer(c.service, c.orchestrator, c.store, api.Options{
		RateLimitPerMin: c.config.Serve.RateLimitPerMin,
	}, c.logger)

	httpServer := &http.Server{
		Addr:              c.config.Serve.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.logger.Info("starting the api", zap.String("listen", httpServer.Addr), zap.String("version", version))
		errCh <- httpServer.ListenAndServe()
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("api server failed: %w", err)
		}
	case <-ctx.Done():
		c.logger.Info("shutting down", zap.String("reason", "signal received"))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		c.logger.Warn("graceful shutdown failed", zap.Error(err))
	}
	return serveErr
}
