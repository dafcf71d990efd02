package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miradorstack/cardio-intel/internal/cache"
	"github.com/miradorstack/cardio-intel/internal/classifier"
	"github.com/miradorstack/cardio-intel/internal/models"
	"github.com/miradorstack/cardio-intel/internal/utils"
)

type fakeScorer struct {
	score      float64
	err        error
	version    string
	generation uint64
	calls      int
}

func (f *fakeScorer) Info(context.Context) (models.ModelInfo, error) {
	if f.err != nil {
		return models.ModelInfo{}, f.err
	}
	return models.ModelInfo{Name: "fake", Version: f.version, FeatureVersion: models.FeatureColumnsVersion, Generation: f.generation}, nil
}

func (f *fakeScorer) Score(_ context.Context, _ models.FeatureVector) (classifier.Prediction, error) {
	f.calls++
	if f.err != nil {
		return classifier.Prediction{}, f.err
	}
	th := classifier.DefaultThresholds()
	return classifier.Prediction{
		RiskScore:  f.score,
		Level:      th.Level(f.score),
		HighRisk:   f.score >= 0.5,
		Confidence: max(f.score, 1-f.score),
		Model:      models.ModelInfo{Name: "fake", Version: f.version},
	}, nil
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }
func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}
func (failingCache) Del(context.Context, string) error { return errors.New("down") }
func (failingCache) Close() error                      { return nil }

func profile() models.PatientProfile {
	return models.PatientProfile{Age: 64, BaselineHR: 70, MaxSafeHR: 150}
}

func session() models.SessionMetrics {
	return models.SessionMetrics{
		AvgHeartRate:        128,
		PeakHeartRate:       162,
		MinHeartRate:        88,
		AvgSpO2:             93,
		DurationMinutes:     30,
		RecoveryTimeMinutes: 9,
		ActivityType:        "jogging",
	}
}

func TestPipelineAssess(t *testing.T) {
	scorer := &fakeScorer{score: 0.86, version: "1"}
	p := NewPipeline(nil, scorer, nil, nil, nil, 0)

	res, err := p.Assess(context.Background(), profile(), session())
	require.NoError(t, err)

	a := res.Assessment
	assert.Equal(t, 0.86, a.RiskScore)
	assert.Equal(t, models.RiskHigh, a.RiskLevel)
	assert.Equal(t, classifier.RecommendationFor(models.RiskHigh), a.Recommendation)
	assert.Len(t, a.Drivers, 5)
	assert.Len(t, a.Features, models.NumFeatures)
	assert.InDelta(t, 162.0/150.0, a.Features["hr_pct_of_max"], 1e-12)
	assert.False(t, a.AssessedAt.IsZero())
	assert.Equal(t, res.Explanation.TopFeatures, a.Drivers)
	assert.Equal(t, models.NumFeatures, res.Explanation.FeatureCount)
}

func TestPipelineCachesByModelVersion(t *testing.T) {
	scorer := &fakeScorer{score: 0.3, version: "1"}
	p := NewPipeline(nil, scorer, nil, nil, cache.NewLRUProvider(16, time.Minute), time.Minute)
	ctx := context.Background()

	first, err := p.Assess(ctx, profile(), session())
	require.NoError(t, err)
	second, err := p.Assess(ctx, profile(), session())
	require.NoError(t, err)
	assert.Equal(t, 1, scorer.calls)
	assert.Equal(t, first.Assessment.RiskScore, second.Assessment.RiskScore)
	assert.Equal(t, first.Explanation, second.Explanation)

	scorer.version = "2"
	_, err = p.Assess(ctx, profile(), session())
	require.NoError(t, err)
	assert.Equal(t, 2, scorer.calls)

	other := session()
	other.PeakHeartRate++
	_, err = p.Assess(ctx, profile(), other)
	require.NoError(t, err)
	assert.Equal(t, 3, scorer.calls)
}

func TestPipelineCacheMissesAfterReloadOfSameVersion(t *testing.T) {
	scorer := &fakeScorer{score: 0.3, version: "1", generation: 1}
	p := NewPipeline(nil, scorer, nil, nil, cache.NewLRUProvider(16, time.Minute), time.Minute)
	ctx := context.Background()

	_, err := p.Assess(ctx, profile(), session())
	require.NoError(t, err)
	_, err = p.Assess(ctx, profile(), session())
	require.NoError(t, err)
	assert.Equal(t, 1, scorer.calls)

	scorer.generation = 2
	scorer.score = 0.9
	res, err := p.Assess(ctx, profile(), session())
	require.NoError(t, err)
	assert.Equal(t, 2, scorer.calls)
	assert.Equal(t, models.RiskHigh, res.Assessment.RiskLevel)
}

func TestPipelineCacheFailureDegrades(t *testing.T) {
	scorer := &fakeScorer{score: 0.55, version: "1"}
	p := NewPipeline(nil, scorer, nil, nil, failingCache{}, time.Minute)

	res, err := p.Assess(context.Background(), profile(), session())
	require.NoError(t, err)
	assert.Equal(t, models.RiskModerate, res.Assessment.RiskLevel)
}

func TestPipelineUnavailable(t *testing.T) {
	p := NewPipeline(nil, &fakeScorer{err: classifier.ErrUnavailable}, nil, nil, nil, 0)
	_, err := p.Assess(context.Background(), profile(), session())
	require.ErrorIs(t, err, classifier.ErrUnavailable)
	assert.Equal(t, utils.KindUnavailable, utils.KindOf(err))

	p = NewPipeline(nil, nil, nil, nil, nil, 0)
	_, err = p.Assess(context.Background(), profile(), session())
	require.ErrorIs(t, err, classifier.ErrUnavailable)

	broken := errors.New("artifact returned NaN")
	p = NewPipeline(nil, &fakeScorer{err: broken}, nil, nil, nil, 0)
	_, err = p.Assess(context.Background(), profile(), session())
	require.ErrorIs(t, err, broken)
	assert.Equal(t, utils.KindInternal, utils.KindOf(err))
}

func TestPipelineAssessWindow(t *testing.T) {
	scorer := &fakeScorer{score: 0.2, version: "1"}
	p := NewPipeline(nil, scorer, nil, nil, nil, 0)
	start := time.Date(2024, 2, 1, 7, 0, 0, 0, time.UTC)
	spo2 := 96.0
	window := models.ObservationWindow{
		Samples: []models.Observation{
			{Timestamp: start, HeartRate: 80, SpO2: &spo2},
			{Timestamp: start.Add(10 * time.Minute), HeartRate: 120},
			{Timestamp: start.Add(20 * time.Minute), HeartRate: 100},
		},
		Session: &models.SessionInfo{ActivityType: "walking"},
	}

	res, err := p.AssessWindow(context.Background(), profile(), window)
	require.NoError(t, err)
	assert.Equal(t, 120.0, res.Assessment.Features["peak_heart_rate"])
	assert.Equal(t, 20.0, res.Assessment.Features["duration_minutes"])
	assert.Equal(t, 96.0, res.Assessment.Features["avg_spo2"])
	assert.Equal(t, 1.0, res.Assessment.Features["activity_intensity"])
}
