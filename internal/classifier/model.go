package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/miradorstack/cardio-intel/internal/models"
)

// Model is an opaque, pre-trained scoring artifact.
type Model interface {
	// PredictProba returns [p_low, p_high] for a feature row in models.FeatureColumns order.
	PredictProba(features []float64) ([]float64, error)
	Info() models.ModelInfo
}

// ImportanceProvider is implemented by artifacts that expose a global
// per-feature importance table in column order.
type ImportanceProvider interface {
	FeatureImportances() []float64
}

// Scaler standardises features before scoring.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// LogisticModel is a standard-scaled logistic regression artifact.
type LogisticModel struct {
	Name           string    `json:"name"`
	Version        string    `json:"version"`
	FeatureColumns []string  `json:"feature_columns"`
	Scaler         *Scaler   `json:"scaler,omitempty"`
	Coefficients   []float64 `json:"coefficients"`
	Intercept      float64   `json:"intercept"`
	Importances    []float64 `json:"feature_importances,omitempty"`
}

// LoadArtifact reads a JSON logistic artifact from disk and validates it against
// the feature column contract.
func LoadArtifact(path string) (*LogisticModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var model LogisticModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("parse artifact: %w", err)
	}
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}
	return &model, nil
}

// Validate checks dimensions and the column order the artifact was trained on.
func (m *LogisticModel) Validate() error {
	if len(m.FeatureColumns) != models.NumFeatures {
		return fmt.Errorf("expected %d feature columns, got %d", models.NumFeatures, len(m.FeatureColumns))
	}
	for i, col := range m.FeatureColumns {
		if col != models.FeatureColumns[i] {
			return fmt.Errorf("feature column %d is %q, expected %q", i, col, models.FeatureColumns[i])
		}
	}
	if len(m.Coefficients) != models.NumFeatures {
		return fmt.Errorf("expected %d coefficients, got %d", models.NumFeatures, len(m.Coefficients))
	}
	if m.Scaler != nil && (len(m.Scaler.Mean) != models.NumFeatures || len(m.Scaler.Scale) != models.NumFeatures) {
		return fmt.Errorf("scaler dimensions do not match %d features", models.NumFeatures)
	}
	if len(m.Importances) != 0 && len(m.Importances) != models.NumFeatures {
		return fmt.Errorf("expected %d feature importances, got %d", models.NumFeatures, len(m.Importances))
	}
	return nil
}

// PredictProba implements Model.
func (m *LogisticModel) PredictProba(features []float64) ([]float64, error) {
	if len(features) != len(m.Coefficients) {
		return nil, fmt.Errorf("expected %d features, got %d", len(m.Coefficients), len(features))
	}
	z := m.Intercept
	for i, x := range features {
		if m.Scaler != nil {
			scale := m.Scaler.Scale[i]
			if scale == 0 {
				scale = 1
			}
			x = (x - m.Scaler.Mean[i]) / scale
		}
		z += m.Coefficients[i] * x
	}
	high := 1 / (1 + math.Exp(-z))
	return []float64{1 - high, high}, nil
}

// Info implements Model.
func (m *LogisticModel) Info() models.ModelInfo {
	return models.ModelInfo{Name: m.Name, Version: m.Version, FeatureVersion: models.FeatureColumnsVersion}
}

// FeatureImportances implements ImportanceProvider.
func (m *LogisticModel) FeatureImportances() []float64 {
	if len(m.Importances) == 0 {
		return nil
	}
	return append([]float64(nil), m.Importances...)
}
