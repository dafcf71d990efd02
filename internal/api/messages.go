package api

import (
	"github.com/miradorstack/cardio-intel/internal/models"
)

// ClassifyRequest asks for a risk assessment of one session. Exactly one of
// Session and Window should be set; a Window is summarised server side.
type ClassifyRequest struct {
	PatientID string                    `json:"patient_id,omitempty"`
	Profile   models.PatientProfile     `json:"profile"`
	Session   *models.SessionMetrics    `json:"session,omitempty"`
	Window    *models.ObservationWindow `json:"window,omitempty"`
}

// ClassifyBatchRequest scores many sessions in one call.
type ClassifyBatchRequest struct {
	Items []ClassifyRequest `json:"items"`
}

// BatchItem is the per-entry result of a batch. Error and Code are set when
// that entry failed; other entries are unaffected.
type BatchItem struct {
	Index      int                    `json:"index"`
	PatientID  string                 `json:"patient_id,omitempty"`
	Assessment *models.RiskAssessment `json:"assessment,omitempty"`
	Code       string                 `json:"code,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// ClassifyBatchResponse preserves request order.
type ClassifyBatchResponse struct {
	Results   []BatchItem `json:"results"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// AnomalyRequest scans a window for outliers.
type AnomalyRequest struct {
	Samples    []models.Observation `json:"samples"`
	ZThreshold float64              `json:"z_threshold,omitempty"`
}

// TrendRequest fits trends over a multi-day window.
type TrendRequest struct {
	Samples      []models.Observation `json:"samples"`
	ForecastDays int                  `json:"forecast_days,omitempty"`
}

// BaselineRequest proposes a resting baseline from recent resting readings.
type BaselineRequest struct {
	Readings        []float64 `json:"readings"`
	CurrentBaseline *int      `json:"current_baseline,omitempty"`
}

// RankRequest asks for the recommendation shown to a patient.
type RankRequest struct {
	PatientID       string `json:"patient_id"`
	RiskLevel       string `json:"risk_level"`
	VariantOverride string `json:"variant_override,omitempty"`
}

// SummaryRequest renders an assessment for the patient.
type SummaryRequest struct {
	RiskScore   float64          `json:"risk_score"`
	RiskLevel   models.RiskLevel `json:"risk_level"`
	Drivers     []string         `json:"drivers,omitempty"`
	PatientName string           `json:"patient_name,omitempty"`
}

// SummaryResponse carries the plain-language summary.
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// HealthRequest is empty.
type HealthRequest struct{}

// HealthResponse reports serving status and the scoring artifact state.
type HealthResponse struct {
	Status     string            `json:"status"`
	Classifier string            `json:"classifier"`
	Model      *models.ModelInfo `json:"model,omitempty"`
}
