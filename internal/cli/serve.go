package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/shiftcover/internal/metrics"
	"github.com/example/shiftcover/internal/wire"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the escalation sweeper as a long-lived process",
	Long: `Run periodic escalation sweeps until interrupted.

Exposes Prometheus metrics on the configured listen address and shuts
down cleanly on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")

		logger, err := newLogger(debug)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logger.Sync()

		cfg := wire.Config()
		interval, err := cfg.SweepIntervalDuration()
		if err != nil {
			return err
		}
		sweeper := wire.Sweeper(logger)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		go func() {
			errCh <- sweeper.Run(ctx, interval)
		}()

		select {
		case <-ctx.Done():
			logger.Info("shutting down")
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				stop()
				shutdownServer(srv, logger)
				return err
			}
		}

		shutdownServer(srv, logger)
		return nil
	},
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func shutdownServer(srv *http.Server, logger *zap.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics server shutdown", zap.Error(err))
	}
}

func init() {
	serveCmd.Flags().Bool("debug", false, "Enable debug logging")
}

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	return serveCmd
}
