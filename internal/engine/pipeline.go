// Package engine composes the feature engineer, classifier and explainer into
// a single risk assessment flow.
package engine

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/miradorstack/cardio-intel/internal/cache"
	"github.com/miradorstack/cardio-intel/internal/classifier"
	"github.com/miradorstack/cardio-intel/internal/explain"
	"github.com/miradorstack/cardio-intel/internal/features"
	"github.com/miradorstack/cardio-intel/internal/models"
	"github.com/miradorstack/cardio-intel/internal/utils"
)

// Scorer is the classifier behaviour the pipeline depends on.
type Scorer interface {
	Info(ctx context.Context) (models.ModelInfo, error)
	Score(ctx context.Context, fv models.FeatureVector) (classifier.Prediction, error)
}

// Result bundles an assessment with its full explanation.
type Result struct {
	Assessment  models.RiskAssessment `json:"assessment"`
	Explanation models.Explanation    `json:"explanation"`
}

// Pipeline scores sessions. It is safe for concurrent use.
type Pipeline struct {
	logger    *slog.Logger
	engineer  *features.Engineer
	scorer    Scorer
	explainer *explain.Explainer
	cache     cache.Provider
	cacheTTL  time.Duration
	now       func() time.Time
}

// NewPipeline constructs an assessment pipeline. Nil collaborators other than
// scorer fall back to defaults.
func NewPipeline(
	logger *slog.Logger,
	scorer Scorer,
	engineer *features.Engineer,
	explainer *explain.Explainer,
	cacheProvider cache.Provider,
	cacheTTL time.Duration,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if engineer == nil {
		engineer = features.NewEngineer()
	}
	if explainer == nil {
		explainer = explain.NewExplainer(nil, logger)
	}
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	if cacheTTL < 0 {
		cacheTTL = 0
	}
	return &Pipeline{
		logger:    logger,
		engineer:  engineer,
		scorer:    scorer,
		explainer: explainer,
		cache:     cacheProvider,
		cacheTTL:  cacheTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AssessWindow summarises a raw observation window and assesses it.
func (p *Pipeline) AssessWindow(ctx context.Context, profile models.PatientProfile, window models.ObservationWindow) (Result, error) {
	return p.Assess(ctx, profile, models.SummarizeWindow(window))
}

// Assess runs features -> classifier -> explainer for one session. Classifier
// unavailability propagates as classifier.ErrUnavailable.
func (p *Pipeline) Assess(ctx context.Context, profile models.PatientProfile, session models.SessionMetrics) (Result, error) {
	if p.scorer == nil {
		return Result{}, assessError(classifier.ErrUnavailable)
	}
	fv := p.engineer.Build(profile, session)

	info, err := p.scorer.Info(ctx)
	if err != nil {
		return Result{}, assessError(err)
	}
	key := cacheKey(info, fv)
	if cached, ok := p.lookup(ctx, key); ok {
		cached.Assessment.AssessedAt = p.now()
		return cached, nil
	}

	pred, err := p.scorer.Score(ctx, fv)
	if err != nil {
		return Result{}, assessError(err)
	}
	exp := p.explainer.Explain(fv, pred.Importances, pred.RiskScore, pred.Level)

	result := Result{
		Assessment: models.RiskAssessment{
			RiskScore:      pred.RiskScore,
			RiskLevel:      pred.Level,
			HighRisk:       pred.HighRisk,
			Confidence:     pred.Confidence,
			Drivers:        exp.TopFeatures,
			Recommendation: classifier.RecommendationFor(pred.Level),
			Features:       fv.Map(),
			Model:          pred.Model,
			AssessedAt:     p.now(),
		},
		Explanation: exp,
	}
	p.store(ctx, key, result)

	p.logger.Debug("session assessed",
		slog.Float64("risk_score", result.Assessment.RiskScore),
		slog.String("risk_level", string(result.Assessment.RiskLevel)),
		slog.String("model_version", info.Version))
	return result, nil
}

func (p *Pipeline) lookup(ctx context.Context, key string) (Result, bool) {
	data, err := p.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			p.logger.Warn("assessment cache read failed", slog.Any("error", err))
		}
		return Result{}, false
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		p.logger.Warn("discarding undecodable cached assessment", slog.Any("error", err))
		_ = p.cache.Del(ctx, key)
		return Result{}, false
	}
	return result, true
}

func (p *Pipeline) store(ctx context.Context, key string, result Result) {
	data, err := json.Marshal(result)
	if err != nil {
		p.logger.Warn("assessment cache encode failed", slog.Any("error", err))
		return
	}
	if err := p.cache.Set(ctx, key, data, p.cacheTTL); err != nil {
		p.logger.Warn("assessment cache write failed", slog.Any("error", err))
	}
}

func assessError(err error) error {
	if errors.Is(err, classifier.ErrUnavailable) {
		return utils.Unavailable("assess", "scoring artifact unavailable", err)
	}
	return utils.NewAppError("assess", "score session", err)
}

// cacheKey identifies an assessment by the exact feature bits and the artifact
// load that scored them.
func cacheKey(info models.ModelInfo, fv models.FeatureVector) string {
	var buf [models.NumFeatures * 8]byte
	for i, v := range fv {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return "assess:" + info.Name + ":" + info.Version + ":" + info.FeatureVersion + ":" +
		strconv.FormatUint(info.Generation, 10) + ":" + strconv.FormatUint(xxhash.Sum64(buf[:]), 16)
}
