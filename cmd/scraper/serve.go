package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/listing-scraper/internal/api"
)

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API: record receiver, crawl trigger, health and metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.close()

			var opts []api.Option
			if a.redis != nil {
				opts = append(opts, api.WithHealthCheck("redis", a.redis))
			}
			if a.postgres != nil {
				opts = append(opts, api.WithHealthCheck("postgres", a.postgres))
			}
			server := api.NewServer(a.cfg, a.pool, a.dispatcher, a.metrics, a.logger, opts...)

			// Graceful Shutdown
			serverErr := make(chan error, 1)
			go func() {
				if err := server.Start(); err != nil && err != http.ErrServerClosed {
					serverErr <- err
				}
			}()

			a.logger.Info("server started", zap.String("port", a.cfg.ServerPort))

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-quit:
			case err := <-serverErr:
				a.logger.Error("could not start server", zap.Error(err))
				return err
			}

			a.logger.Info("shutting down server...")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				a.logger.Error("server forced to shutdown", zap.Error(err))
				return err
			}

			a.logger.Info("server exiting")
			return nil
		},
	}

	cmd.Flags().String("port", "", "listen port (default 8080)")
	return cmd
}
