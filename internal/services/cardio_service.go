// Package services implements the cardio-intel gRPC facade over the analysis
// components.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/miradorstack/cardio-intel/internal/anomaly"
	"github.com/miradorstack/cardio-intel/internal/api"
	"github.com/miradorstack/cardio-intel/internal/baseline"
	"github.com/miradorstack/cardio-intel/internal/classifier"
	"github.com/miradorstack/cardio-intel/internal/coach"
	"github.com/miradorstack/cardio-intel/internal/engine"
	"github.com/miradorstack/cardio-intel/internal/explain"
	"github.com/miradorstack/cardio-intel/internal/metrics"
	"github.com/miradorstack/cardio-intel/internal/models"
	"github.com/miradorstack/cardio-intel/internal/recommend"
	"github.com/miradorstack/cardio-intel/internal/repo"
	"github.com/miradorstack/cardio-intel/internal/trend"
	"github.com/miradorstack/cardio-intel/internal/utils"
)

// ErrInvalidArgument marks a rejected call parameter.
var ErrInvalidArgument = errors.New("invalid argument")

const (
	MinZThreshold    = 1.0
	MaxZThreshold    = 4.0
	MinForecastDays  = 7
	MaxForecastDays  = 30
	DefaultBatchSize = 500
	DefaultWorkers   = 8

	latencyLogEvery = 20
)

// ModelStatus is the classifier view needed by Health.
type ModelStatus interface {
	State() classifier.State
	Info(ctx context.Context) (models.ModelInfo, error)
}

// Dependencies groups the collaborators of CardioService. Pipeline, Detector,
// Forecaster, Calibrator and Ranker are required; a nil Coach uses the built-in
// guidance.
type Dependencies struct {
	Logger     *slog.Logger
	Pipeline   *engine.Pipeline
	Model      ModelStatus
	Detector   *anomaly.Detector
	Forecaster *trend.Forecaster
	Calibrator *baseline.Calibrator
	Ranker     *recommend.Ranker
	Coach      *coach.Coach
	Outcomes   repo.OutcomeSink
	BatchLimit int
	Workers    int
}

// CardioService implements api.CardioIntelServer.
type CardioService struct {
	logger     *slog.Logger
	pipeline   *engine.Pipeline
	model      ModelStatus
	detector   *anomaly.Detector
	forecaster *trend.Forecaster
	calibrator *baseline.Calibrator
	ranker     *recommend.Ranker
	coach      *coach.Coach
	outcomes   repo.OutcomeSink
	batchLimit int
	workers    int
	latencies  *utils.LatencySet
}

var _ api.CardioIntelServer = (*CardioService)(nil)

// NewCardioService constructs the service facade.
func NewCardioService(deps Dependencies) (*CardioService, error) {
	switch {
	case deps.Pipeline == nil:
		return nil, errors.New("cardio service: pipeline is required")
	case deps.Detector == nil:
		return nil, errors.New("cardio service: anomaly detector is required")
	case deps.Forecaster == nil:
		return nil, errors.New("cardio service: trend forecaster is required")
	case deps.Calibrator == nil:
		return nil, errors.New("cardio service: baseline calibrator is required")
	case deps.Ranker == nil:
		return nil, errors.New("cardio service: recommendation ranker is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.BatchLimit <= 0 {
		deps.BatchLimit = DefaultBatchSize
	}
	if deps.Workers <= 0 {
		deps.Workers = DefaultWorkers
	}
	if deps.Coach == nil {
		c, err := coach.New(logger)
		if err != nil {
			return nil, fmt.Errorf("cardio service: %w", err)
		}
		deps.Coach = c
	}
	return &CardioService{
		logger:     logger,
		pipeline:   deps.Pipeline,
		model:      deps.Model,
		detector:   deps.Detector,
		forecaster: deps.Forecaster,
		calibrator: deps.Calibrator,
		ranker:     deps.Ranker,
		coach:      deps.Coach,
		outcomes:   deps.Outcomes,
		batchLimit: deps.BatchLimit,
		workers:    deps.Workers,
		latencies:  utils.NewLatencySet(1024),
	}, nil
}

// Classify scores one session.
func (s *CardioService) Classify(ctx context.Context, req *api.ClassifyRequest) (*models.RiskAssessment, error) {
	start := time.Now()
	result, err := s.assess(ctx, req)
	s.observe("Classify", start, err)
	if err != nil {
		return nil, toStatus(err)
	}
	metrics.ObserveRiskLevel(string(result.Assessment.RiskLevel))
	return &result.Assessment, nil
}

// ClassifyBatch scores many sessions with bounded parallelism. A failed entry
// is reported in place and does not fail the batch.
func (s *CardioService) ClassifyBatch(ctx context.Context, req *api.ClassifyBatchRequest) (*api.ClassifyBatchResponse, error) {
	start := time.Now()
	if req == nil {
		return nil, toStatus(invalid("ClassifyBatch", "request cannot be nil"))
	}
	if len(req.Items) > s.batchLimit {
		err := invalid("ClassifyBatch", fmt.Sprintf("batch of %d exceeds limit %d", len(req.Items), s.batchLimit))
		s.observe("ClassifyBatch", start, err)
		return nil, toStatus(err)
	}

	results := make([]api.BatchItem, len(req.Items))
	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range req.Items {
		item := &req.Items[i]
		g.Go(func() error {
			out := api.BatchItem{Index: i, PatientID: item.PatientID}
			result, err := s.assess(ctx, item)
			if err != nil {
				out.Code = status.Code(toStatus(err)).String()
				out.Error = err.Error()
			} else {
				metrics.ObserveRiskLevel(string(result.Assessment.RiskLevel))
				out.Assessment = &result.Assessment
			}
			results[i] = out
			return nil
		})
	}
	_ = g.Wait()

	resp := &api.ClassifyBatchResponse{Results: results}
	for _, r := range results {
		if r.Error != "" {
			resp.Failed++
		} else {
			resp.Succeeded++
		}
	}
	s.observe("ClassifyBatch", start, nil)
	s.logger.Debug("batch classified",
		slog.Int("items", len(results)),
		slog.Int("failed", resp.Failed))
	return resp, nil
}

// Explain returns the full per-feature explanation for one session.
func (s *CardioService) Explain(ctx context.Context, req *api.ClassifyRequest) (*models.Explanation, error) {
	start := time.Now()
	result, err := s.assess(ctx, req)
	s.observe("Explain", start, err)
	if err != nil {
		return nil, toStatus(err)
	}
	return &result.Explanation, nil
}

// DetectAnomalies flags outliers and abrupt heart-rate jumps in a window.
func (s *CardioService) DetectAnomalies(_ context.Context, req *api.AnomalyRequest) (*models.AnomalyReport, error) {
	start := time.Now()
	if req == nil {
		return nil, toStatus(invalid("DetectAnomalies", "request cannot be nil"))
	}
	if req.ZThreshold != 0 && (req.ZThreshold < MinZThreshold || req.ZThreshold > MaxZThreshold) {
		err := invalid("DetectAnomalies", fmt.Sprintf("z threshold %.2f outside [%.1f, %.1f]", req.ZThreshold, MinZThreshold, MaxZThreshold))
		s.observe("DetectAnomalies", start, err)
		return nil, toStatus(err)
	}
	report := s.detector.Detect(req.Samples, req.ZThreshold)
	for _, a := range report.Anomalies {
		metrics.ObserveAnomaly(string(a.Metric))
	}
	s.observe("DetectAnomalies", start, nil)
	return &report, nil
}

// ForecastTrends fits heart-rate and SpO2 trends over a multi-day window.
func (s *CardioService) ForecastTrends(_ context.Context, req *api.TrendRequest) (*models.TrendForecast, error) {
	start := time.Now()
	if req == nil {
		return nil, toStatus(invalid("ForecastTrends", "request cannot be nil"))
	}
	if req.ForecastDays != 0 && (req.ForecastDays < MinForecastDays || req.ForecastDays > MaxForecastDays) {
		err := invalid("ForecastTrends", fmt.Sprintf("forecast days %d outside [%d, %d]", req.ForecastDays, MinForecastDays, MaxForecastDays))
		s.observe("ForecastTrends", start, err)
		return nil, toStatus(err)
	}
	forecast := s.forecaster.Forecast(req.Samples, req.ForecastDays)
	s.observe("ForecastTrends", start, nil)
	return &forecast, nil
}

// CalibrateBaseline proposes a new resting heart-rate baseline.
func (s *CardioService) CalibrateBaseline(_ context.Context, req *api.BaselineRequest) (*models.BaselineCalibration, error) {
	start := time.Now()
	if req == nil {
		return nil, toStatus(invalid("CalibrateBaseline", "request cannot be nil"))
	}
	cal := s.calibrator.Calibrate(req.Readings, req.CurrentBaseline)
	s.observe("CalibrateBaseline", start, nil)
	return &cal, nil
}

// RankRecommendation assigns a recommendation variant to a patient.
func (s *CardioService) RankRecommendation(_ context.Context, req *api.RankRequest) (*models.RecommendationAssignment, error) {
	start := time.Now()
	if req == nil || strings.TrimSpace(req.PatientID) == "" {
		err := invalid("RankRecommendation", "patient_id is required")
		s.observe("RankRecommendation", start, err)
		return nil, toStatus(err)
	}
	assignment := s.ranker.Rank(req.PatientID, req.RiskLevel, req.VariantOverride)
	s.observe("RankRecommendation", start, nil)
	return &assignment, nil
}

// RecordOutcome records what happened after a recommendation was shown. Sink
// failures are logged and do not fail the call.
func (s *CardioService) RecordOutcome(ctx context.Context, req *recommend.OutcomeRequest) (*models.OutcomeRecord, error) {
	start := time.Now()
	if req == nil || strings.TrimSpace(req.Outcome) == "" {
		err := invalid("RecordOutcome", "outcome is required")
		s.observe("RecordOutcome", start, err)
		return nil, toStatus(err)
	}
	rec := s.ranker.RecordOutcome(*req)
	if s.outcomes != nil {
		if err := s.outcomes.AppendOutcome(ctx, rec); err != nil {
			s.logger.Warn("outcome not persisted",
				slog.String("id", rec.ID),
				slog.Any("error", err))
		}
	}
	s.observe("RecordOutcome", start, nil)
	return &rec, nil
}

// DescribeAlert rewrites a clinical alert in patient-friendly language.
func (s *CardioService) DescribeAlert(_ context.Context, req *explain.AlertInput) (*models.FriendlyAlert, error) {
	start := time.Now()
	if req == nil {
		return nil, toStatus(invalid("DescribeAlert", "request cannot be nil"))
	}
	alert := explain.AlertMessage(*req)
	s.observe("DescribeAlert", start, nil)
	return &alert, nil
}

// SummarizeRisk renders a plain-language risk summary.
func (s *CardioService) SummarizeRisk(_ context.Context, req *api.SummaryRequest) (*api.SummaryResponse, error) {
	start := time.Now()
	if req == nil {
		return nil, toStatus(invalid("SummarizeRisk", "request cannot be nil"))
	}
	summary := explain.RiskSummary(req.RiskScore, req.RiskLevel, req.Drivers, req.PatientName)
	s.observe("SummarizeRisk", start, nil)
	return &api.SummaryResponse{Summary: summary}, nil
}

// CoachingPlan builds an exercise plan and diet guidance for a risk tier.
func (s *CardioService) CoachingPlan(_ context.Context, req *coach.Input) (*models.CoachingPlan, error) {
	start := time.Now()
	if req == nil {
		return nil, toStatus(invalid("CoachingPlan", "request cannot be nil"))
	}
	plan, err := s.coach.Plan(*req)
	if err != nil {
		s.observe("CoachingPlan", start, err)
		return nil, toStatus(err)
	}
	s.observe("CoachingPlan", start, nil)
	return &plan, nil
}

// Health reports the scoring artifact state without triggering a load.
func (s *CardioService) Health(ctx context.Context, _ *api.HealthRequest) (*api.HealthResponse, error) {
	if s.model == nil {
		return &api.HealthResponse{Status: "NOT_SERVING", Classifier: classifier.StateNotLoaded.String()}, nil
	}
	state := s.model.State()
	resp := &api.HealthResponse{Status: "NOT_SERVING", Classifier: state.String()}
	if state != classifier.StateReady {
		return resp, nil
	}
	info, err := s.model.Info(ctx)
	if err != nil {
		s.logger.Warn("model info unavailable", slog.Any("error", err))
		return resp, nil
	}
	resp.Status = "SERVING"
	resp.Model = &info
	return resp, nil
}

// LatencyP95 returns the current p95 latency of op.
func (s *CardioService) LatencyP95(op string) time.Duration {
	return s.latencies.For(op).Percentile(95)
}

func (s *CardioService) assess(ctx context.Context, req *api.ClassifyRequest) (engine.Result, error) {
	switch {
	case req == nil:
		return engine.Result{}, invalid("Classify", "request cannot be nil")
	case req.Session != nil && req.Window != nil:
		return engine.Result{}, invalid("Classify", "set either session or window, not both")
	case req.Session != nil:
		return s.pipeline.Assess(ctx, req.Profile, *req.Session)
	case req.Window != nil:
		return s.pipeline.AssessWindow(ctx, req.Profile, *req.Window)
	default:
		return engine.Result{}, invalid("Classify", "session or window is required")
	}
}

func (s *CardioService) observe(op string, start time.Time, err error) {
	duration := time.Since(start)
	metrics.ObserveRequest(op, duration, outcomeOf(err))
	if err != nil {
		if status.Code(toStatus(err)) == codes.Internal {
			s.logger.Error("request failed", slog.String("operation", op), slog.Any("error", err))
		}
		return
	}
	tracker := s.latencies.For(op)
	tracker.Observe(duration)
	if count := tracker.Count(); count >= latencyLogEvery && count%latencyLogEvery == 0 {
		s.logger.Info("request latency",
			slog.String("operation", op),
			slog.Duration("p95", tracker.Percentile(95)),
			slog.Int("samples", count))
	}
}

func invalid(op, msg string) error {
	return fmt.Errorf("%w: %w", ErrInvalidArgument, utils.InvalidArgument(op, msg))
}

func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	switch status.Code(toStatus(err)) {
	case codes.InvalidArgument:
		return metrics.OutcomeInvalid
	case codes.Unavailable:
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeError
	}
}

// toStatus maps domain errors onto gRPC status codes.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrInvalidArgument) || utils.KindOf(err) == utils.KindInvalidArgument:
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, classifier.ErrUnavailable) || utils.KindOf(err) == utils.KindUnavailable:
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
