package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lifeexp/internal/adapters/dashboard"
	"lifeexp/internal/blob"
	"lifeexp/internal/config"
	"lifeexp/internal/observability"
)

func serveCmd(opts *globalOptions) *cobra.Command {
	var addr string

	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", cfg.Server.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
			}
			return runServe(ctx, cfg, logger, prometheus.NewRegistry(), ln)
		},
	}

	c.Flags().StringVar(&addr, "addr", "", "listen address (overrides config and LIFEEXP_ADDR)")
	return c
}

// runServe serves the dashboard on ln until ctx ends, then shuts the HTTP
// server and export worker down within the configured timeout.
func runServe(ctx context.Context, cfg *config.Config, logger *zap.Logger, reg *prometheus.Registry, ln net.Listener) error {
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewCollector(reg)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("metrics: %w", err)
	}

	ds, err := loadDataset(cfg, logger)
	if err != nil {
		_ = ln.Close()
		return err
	}
	metrics.SetDatasetRows(ds.Len())

	store, err := blob.Open(ctx, cfg.BlobOptions())
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("blob store: %w", err)
	}
	logger.Info("blob store ready", zap.String("driver", string(store.Driver())))

	worker := dashboard.NewWorker(ds, store, dashboard.WorkerOptions{
		QueueSize:   cfg.Exports.QueueSize,
		ScatterSize: cfg.ScatterSize(),
		Logger:      logger,
		Metrics:     metrics,
	})
	worker.Start()

	handler := &dashboard.Handler{
		Data:        ds,
		Exports:     worker,
		Store:       store,
		Metrics:     metrics,
		Logger:      logger,
		ScatterSize: cfg.ScatterSize(),
		MapSize:     cfg.MapSize(),
	}
	srv := &http.Server{
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving dashboard", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down dashboard")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if stopErr := worker.Stop(shutdownCtx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("export worker: %w", stopErr))
		}
		return err
	})
	return g.Wait()
}
