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

	"github.com/leengari/coltable/internal/network"
	"github.com/leengari/coltable/internal/storage/manager"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve table commands over TCP",
		Long: `Accept newline delimited JSON requests of the form {"command": "..."}
and answer each with a JSON result. Tables edited on disk by other
processes are reloaded while the server runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().String("listen", ":4444", "address for table commands")
	cmd.Flags().String("metrics-listen", "", "address for Prometheus metrics, disabled when empty")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	watcher := manager.NewWatcher(a.registry)
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Close()

	if a.cfg.MetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		srv := &http.Server{
			Addr:              a.cfg.MetricsListen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			a.logger.Info("Serving metrics", "addr", a.cfg.MetricsListen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	opts := []network.Option{
		network.WithLogger(a.logger),
		network.WithPageSize(a.cfg.PageSize),
	}
	if a.journal != nil {
		opts = append(opts, network.WithJournal(a.journal))
	}
	server := network.NewServer(a.registry, opts...)
	err := server.ListenAndServe(ctx, a.cfg.Listen)
	a.logger.Info("Shutting down - saving tables...")
	return err
}
