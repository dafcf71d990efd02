package models

import "time"

// RiskLevel is the discrete tier derived from a risk probability.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// ModelInfo describes the scoring artifact that produced a prediction.
type ModelInfo struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	FeatureVersion string `json:"feature_version"`
	// Generation is the in-process load count of the artifact; it changes on every reload.
	Generation uint64 `json:"generation,omitempty"`
}

// RiskAssessment is the scored, explained result of one classification call.
type RiskAssessment struct {
	RiskScore      float64               `json:"risk_score"`
	RiskLevel      RiskLevel             `json:"risk_level"`
	HighRisk       bool                  `json:"high_risk"`
	Confidence     float64               `json:"confidence"`
	Drivers        []FeatureContribution `json:"drivers"`
	Recommendation string                `json:"recommendation"`
	Features       map[string]float64    `json:"features_used"`
	Model          ModelInfo             `json:"model"`
	AssessedAt     time.Time             `json:"assessed_at"`
}

// FeatureContribution is one row of the per-prediction attribution table.
type FeatureContribution struct {
	Feature          string    `json:"feature"`
	Label            string    `json:"label"`
	Value            float64   `json:"value"`
	TypicalValue     float64   `json:"typical_value"`
	Deviation        float64   `json:"deviation"`
	Contribution     float64   `json:"contribution"`
	Direction        Direction `json:"direction"`
	Explanation      string    `json:"explanation"`
	GlobalImportance float64   `json:"global_importance"`
}

// Explanation ranks the drivers behind a prediction.
type Explanation struct {
	RiskScore         float64               `json:"risk_score"`
	RiskLevel         RiskLevel             `json:"risk_level"`
	TopFeatures       []FeatureContribution `json:"top_features"`
	Contributions     []FeatureContribution `json:"contributions"`
	GlobalImportances map[string]float64    `json:"global_importances"`
	FeatureCount      int                   `json:"feature_count"`
	Method            string                `json:"method"`
	PlainExplanation  string                `json:"plain_explanation"`
}
