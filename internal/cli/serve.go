package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/miradorstack/cardio-intel/internal/api"
	"github.com/miradorstack/cardio-intel/internal/classifier"
	"github.com/miradorstack/cardio-intel/internal/metrics"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC service and the metrics endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts)
		},
	}
}

func serve(parent context.Context, opts *rootOptions) error {
	cfg, logger := opts.cfg, opts.logger
	logger.Info("starting cardio-intel", slog.String("address", cfg.Server.Address), slog.String("version", Version))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return err
	}

	var serverRef atomic.Pointer[api.Server]
	observer := func(state classifier.State) {
		metrics.SetClassifierState(int(state))
		if srv := serverRef.Load(); srv != nil {
			srv.SetServing(state == classifier.StateReady)
		}
		logger.Info("scoring artifact state changed", slog.String("state", state.String()))
	}

	application, err := buildApp(cfg, logger, observer)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close resources", slog.Any("error", err))
		}
	}()

	server, err := api.NewServer(cfg.Server, application.service)
	if err != nil {
		return err
	}
	serverRef.Store(server)
	server.SetServing(application.classifier.State() == classifier.StateReady)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Model.Eager {
		go warmUp(ctx, application.classifier, logger)
	}
	go reloadOnHangup(ctx, application.classifier, logger)

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		logger.Info("gRPC server listening", slog.String("address", server.Address()))
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("gRPC server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.GracefulTimeout())
	defer cancel()
	server.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	logger.Info("cardio-intel stopped")
	return nil
}

func warmUp(ctx context.Context, clf *classifier.Classifier, logger *slog.Logger) {
	info, err := clf.Info(ctx)
	if err != nil {
		logger.Error("scoring artifact failed to load", slog.Any("error", err))
		return
	}
	logger.Info("scoring artifact loaded",
		slog.String("name", info.Name),
		slog.String("version", info.Version),
		slog.String("feature_version", info.FeatureVersion))
}

// reloadOnHangup discards the artifact and loads it again on SIGHUP.
func reloadOnHangup(ctx context.Context, clf *classifier.Classifier, logger *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			logger.Info("reloading scoring artifact")
			if err := clf.Reload(ctx); err != nil {
				logger.Error("artifact reload failed", slog.Any("error", err))
				continue
			}
			warmUp(ctx, clf, logger)
		}
	}
}
