package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/miradorstack/cardio-intel/internal/anomaly"
	"github.com/miradorstack/cardio-intel/internal/baseline"
	"github.com/miradorstack/cardio-intel/internal/cache"
	"github.com/miradorstack/cardio-intel/internal/classifier"
	"github.com/miradorstack/cardio-intel/internal/coach"
	"github.com/miradorstack/cardio-intel/internal/config"
	"github.com/miradorstack/cardio-intel/internal/engine"
	"github.com/miradorstack/cardio-intel/internal/explain"
	"github.com/miradorstack/cardio-intel/internal/recommend"
	"github.com/miradorstack/cardio-intel/internal/repo"
	"github.com/miradorstack/cardio-intel/internal/services"
	"github.com/miradorstack/cardio-intel/internal/trend"
)

// analyzers are the stateless window components shared by serve and analyze.
type analyzers struct {
	detector   *anomaly.Detector
	forecaster *trend.Forecaster
	calibrator *baseline.Calibrator
}

func newAnalyzers(cfg *config.Config, logger *slog.Logger) analyzers {
	return analyzers{
		detector: anomaly.NewDetector(anomaly.Config{
			ZThreshold:    cfg.Anomaly.ZThreshold,
			JumpThreshold: cfg.Anomaly.JumpThreshold,
		}),
		forecaster: trend.NewForecaster(trend.Config{ForecastDays: cfg.Trend.ForecastDays}, logger),
		calibrator: baseline.NewCalibrator(baseline.Config{
			Smoothing:    cfg.Baseline.Smoothing,
			OutlierSigma: cfg.Baseline.OutlierSigma,
			MinHR:        cfg.Baseline.MinHR,
			MaxHR:        cfg.Baseline.MaxHR,
		}),
	}
}

// app holds the long-lived collaborators of the serve command.
type app struct {
	classifier *classifier.Classifier
	service    *services.CardioService
	cache      cache.Provider
	outcomes   repo.OutcomeSink
}

// buildApp wires every component from cfg. observer, when set, receives
// artifact state transitions.
func buildApp(cfg *config.Config, logger *slog.Logger, observer func(classifier.State)) (*app, error) {
	handleOpts := []classifier.HandleOption{classifier.WithLogger(logger)}
	if observer != nil {
		handleOpts = append(handleOpts, classifier.WithStateObserver(observer))
	}
	handle := classifier.NewHandle(classifier.FileLoader(cfg.Model.Path), cfg.Model.LoadTimeout, handleOpts...)
	clf := classifier.New(handle, classifier.Thresholds{
		Moderate: cfg.Model.ModerateThreshold,
		High:     cfg.Model.HighThreshold,
	})

	cacheProvider, err := cache.New(cache.Options{
		Enabled: cfg.Cache.Enabled,
		Backend: cfg.Cache.Backend,
		Size:    cfg.Cache.Size,
		TTL:     cfg.Cache.TTL,
		Redis: cache.RedisConfig{
			URL:          cfg.Cache.URL,
			Password:     cfg.Cache.Password,
			KeyPrefix:    cfg.Cache.KeyPrefix,
			DialTimeout:  cfg.Cache.DialTimeout,
			ReadTimeout:  cfg.Cache.ReadTimeout,
			WriteTimeout: cfg.Cache.WriteTimeout,
			MaxRetries:   cfg.Cache.MaxRetries,
		},
	}, logger)
	if err != nil {
		logger.Warn("assessment cache unavailable, continuing without it", slog.Any("error", err))
		cacheProvider = cache.NoopProvider{}
	}

	outcomes, err := openOutcomeSink(cfg.Outcomes, logger)
	if err != nil {
		cacheProvider.Close()
		return nil, err
	}

	catalog, err := recommend.LoadCatalog(cfg.Recommendations.CatalogPath, logger)
	if err != nil {
		cacheProvider.Close()
		outcomes.Close()
		return nil, err
	}
	ranker, err := recommend.NewRanker(catalog, cfg.Recommendations.ExperimentVersion, logger)
	if err != nil {
		cacheProvider.Close()
		outcomes.Close()
		return nil, err
	}

	coaching, err := coach.New(logger)
	if err != nil {
		cacheProvider.Close()
		outcomes.Close()
		return nil, err
	}

	an := newAnalyzers(cfg, logger)
	pipeline := engine.NewPipeline(
		logger,
		clf,
		nil,
		explain.NewExplainer(cfg.Explainer.TypicalValues, logger),
		cacheProvider,
		cfg.Cache.TTL,
	)

	svc, err := services.NewCardioService(services.Dependencies{
		Logger:     logger,
		Pipeline:   pipeline,
		Model:      clf,
		Detector:   an.detector,
		Forecaster: an.forecaster,
		Calibrator: an.calibrator,
		Ranker:     ranker,
		Coach:      coaching,
		Outcomes:   outcomes,
		BatchLimit: cfg.Server.BatchLimit,
		Workers:    cfg.Server.BatchWorkers,
	})
	if err != nil {
		cacheProvider.Close()
		outcomes.Close()
		return nil, err
	}

	return &app{classifier: clf, service: svc, cache: cacheProvider, outcomes: outcomes}, nil
}

func openOutcomeSink(cfg config.OutcomesConfig, logger *slog.Logger) (repo.OutcomeSink, error) {
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		sink, err := repo.NewSQLiteOutcomeLog(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open outcome log: %w", err)
		}
		logger.Info("outcome log opened", slog.String("driver", "sqlite"), slog.String("path", cfg.Path))
		return sink, nil
	default:
		return repo.NewMemoryOutcomeLog(), nil
	}
}

// Close releases the cache and the outcome sink.
func (a *app) Close() error {
	return errors.Join(a.cache.Close(), a.outcomes.Close())
}
