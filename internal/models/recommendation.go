package models

import "time"

// Recommendation is one catalog entry shown to a patient.
type Recommendation struct {
	Title             string `json:"title" yaml:"title"`
	SuggestedActivity string `json:"suggested_activity" yaml:"suggested_activity"`
	IntensityLevel    string `json:"intensity_level" yaml:"intensity_level"`
	DurationMinutes   int    `json:"duration_minutes" yaml:"duration_minutes"`
	Description       string `json:"description" yaml:"description"`
}

// RecommendationAssignment records which experiment arm a patient landed in.
type RecommendationAssignment struct {
	PatientID      string         `json:"patient_id"`
	RiskBucket     RiskLevel      `json:"risk_bucket"`
	Variant        string         `json:"variant"`
	ExperimentID   string         `json:"experiment_id"`
	Recommendation Recommendation `json:"recommendation"`
}

// OutcomeRecord is a write-only A/B outcome tuple for offline analysis.
type OutcomeRecord struct {
	ID           string    `json:"id"`
	PatientID    string    `json:"patient_id,omitempty"`
	ExperimentID string    `json:"experiment_id"`
	Variant      string    `json:"variant"`
	Outcome      string    `json:"outcome"`
	OutcomeValue *float64  `json:"outcome_value"`
	Status       string    `json:"status"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// FriendlyAlert is a patient-facing rendering of a technical alert.
type FriendlyAlert struct {
	FriendlyMessage  string   `json:"friendly_message"`
	ActionSteps      []string `json:"action_steps"`
	UrgencyLevel     string   `json:"urgency_level"`
	RiskContext      string   `json:"risk_context,omitempty"`
	OriginalType     string   `json:"original_alert_type"`
	OriginalSeverity string   `json:"original_severity"`
}
