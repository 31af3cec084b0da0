package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/sat-graph-features/pkg/api"
	"github.com/gilchrisn/sat-graph-features/pkg/features"
	"github.com/gilchrisn/sat-graph-features/pkg/metrics"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the feature API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := a.config.CreateLogger()
			registry := metrics.DefaultRegistry()
			server := api.NewServer(features.NewService(a.config, registry), registry)

			errCh := make(chan error, 1)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			stopSystem := make(chan struct{})
			go func() {
				ticker := time.NewTicker(15 * time.Second)
				defer ticker.Stop()
				for {
					registry.UpdateSystemMetrics()
					select {
					case <-ticker.C:
					case <-stopSystem:
						return
					}
				}
			}()
			defer close(stopSystem)

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case sig := <-quit:
				logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
			case err, ok := <-errCh:
				if ok {
					return err
				}
				return nil
			}

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				return err
			}
			logger.Info().Msg("Server shutdown complete")
			return nil
		},
	}

	cmd.Flags().String("address", ":8080", "Listen address")
	cmd.Flags().Int("max-jobs", 4, "Concurrent background jobs")
	_ = a.config.BindFlag("server.address", cmd.Flags().Lookup("address"))
	_ = a.config.BindFlag("server.max_jobs", cmd.Flags().Lookup("max-jobs"))
	return cmd
}
