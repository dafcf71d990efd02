// Package classifier wraps the opaque scoring artifact and turns its
// probabilities into calibrated risk tiers.
package classifier

import (
	"context"
	"fmt"
	"math"

	"github.com/miradorstack/cardio-intel/internal/models"
)

// Thresholds are the lower bounds of the moderate and high tiers.
type Thresholds struct {
	Moderate float64
	High     float64
}

// DefaultThresholds are the product-calibrated tier boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{Moderate: 0.50, High: 0.80}
}

// Level maps a probability onto a risk tier. Boundaries are inclusive.
func (t Thresholds) Level(score float64) models.RiskLevel {
	switch {
	case score >= t.High:
		return models.RiskHigh
	case score >= t.Moderate:
		return models.RiskModerate
	default:
		return models.RiskLow
	}
}

// Prediction is the classifier output before explanation.
type Prediction struct {
	RiskScore   float64
	Level       models.RiskLevel
	HighRisk    bool
	Confidence  float64
	Importances []float64
	Model       models.ModelInfo
}

// Classifier scores feature vectors against the artifact held by a Handle.
type Classifier struct {
	handle     *Handle
	thresholds Thresholds
}

// New constructs a Classifier. Zero thresholds fall back to the defaults.
func New(handle *Handle, thresholds Thresholds) *Classifier {
	if thresholds.High <= 0 || thresholds.Moderate <= 0 || thresholds.Moderate > thresholds.High {
		thresholds = DefaultThresholds()
	}
	return &Classifier{handle: handle, thresholds: thresholds}
}

// Thresholds returns the active tier boundaries.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Info acquires the artifact and returns its identity.
func (c *Classifier) Info(ctx context.Context) (models.ModelInfo, error) {
	if c == nil || c.handle == nil {
		return models.ModelInfo{}, ErrUnavailable
	}
	loaded, err := c.handle.AcquireLoaded(ctx)
	if err != nil {
		return models.ModelInfo{}, err
	}
	return loaded.info(), nil
}

// State reports the artifact handle state.
func (c *Classifier) State() State {
	if c == nil || c.handle == nil {
		return StateNotLoaded
	}
	return c.handle.State()
}

// Reload asks the handle to retry loading the artifact.
func (c *Classifier) Reload(ctx context.Context) error {
	if c == nil || c.handle == nil {
		return ErrUnavailable
	}
	return c.handle.Reload(ctx)
}

// Score classifies a feature vector. It returns ErrUnavailable when the artifact
// cannot be acquired and never substitutes a default score.
func (c *Classifier) Score(ctx context.Context, fv models.FeatureVector) (Prediction, error) {
	if c == nil || c.handle == nil {
		return Prediction{}, ErrUnavailable
	}
	loaded, err := c.handle.AcquireLoaded(ctx)
	if err != nil {
		return Prediction{}, err
	}
	model := loaded.Model

	proba, err := model.PredictProba(fv.Slice())
	if err != nil {
		return Prediction{}, fmt.Errorf("predict: %w", err)
	}
	if len(proba) != 2 {
		return Prediction{}, fmt.Errorf("predict: expected 2 class probabilities, got %d", len(proba))
	}
	for _, p := range proba {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
			return Prediction{}, fmt.Errorf("predict: probability %v outside [0,1]", p)
		}
	}

	pred := Prediction{
		RiskScore:  proba[1],
		Level:      c.thresholds.Level(proba[1]),
		HighRisk:   proba[1] >= proba[0],
		Confidence: math.Max(proba[0], proba[1]),
		Model:      loaded.info(),
	}
	if provider, ok := model.(ImportanceProvider); ok {
		pred.Importances = provider.FeatureImportances()
	}
	return pred, nil
}

func (l Loaded) info() models.ModelInfo {
	info := l.Model.Info()
	info.Generation = l.Generation
	return info
}

// RecommendationFor returns the immediate guidance shown with a risk tier.
func RecommendationFor(level models.RiskLevel) string {
	switch level {
	case models.RiskHigh:
		return "STOP activity immediately. Rest and monitor symptoms."
	case models.RiskModerate:
		return "Reduce intensity. Consider taking a break."
	default:
		return "Safe to continue at current intensity."
	}
}
