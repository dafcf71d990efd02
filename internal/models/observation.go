package models

import (
	"time"

	"github.com/miradorstack/cardio-intel/internal/utils"
)

// PatientProfile is the read-only patient record supplied by the user store.
type PatientProfile struct {
	Age        int `json:"age"`
	BaselineHR int `json:"baseline_hr"`
	MaxSafeHR  int `json:"max_safe_hr"`
}

// Observation is a single vital-sign sample. SpO2 is optional.
type Observation struct {
	Timestamp time.Time `json:"timestamp"`
	HeartRate float64   `json:"heart_rate"`
	SpO2      *float64  `json:"spo2,omitempty"`
}

// SessionInfo carries optional activity-session metadata for a window.
type SessionInfo struct {
	ActivityType        string  `json:"activity_type,omitempty"`
	DurationMinutes     float64 `json:"duration_minutes,omitempty"`
	RecoveryTimeMinutes float64 `json:"recovery_time_minutes,omitempty"`
}

// ObservationWindow is a time-ordered run of samples plus optional session metadata.
type ObservationWindow struct {
	Samples []Observation `json:"samples"`
	Session *SessionInfo  `json:"session,omitempty"`
}

// SessionMetrics summarises one activity session for feature engineering.
type SessionMetrics struct {
	AvgHeartRate        float64 `json:"avg_heart_rate"`
	PeakHeartRate       float64 `json:"peak_heart_rate"`
	MinHeartRate        float64 `json:"min_heart_rate"`
	AvgSpO2             float64 `json:"avg_spo2"`
	DurationMinutes     float64 `json:"duration_minutes"`
	RecoveryTimeMinutes float64 `json:"recovery_time_minutes"`
	ActivityType        string  `json:"activity_type"`
}

// NormalSpO2 is the reference saturation used when a window carries no SpO2 samples.
const NormalSpO2 = 98.0

// SummarizeWindow derives session metrics from a window. Duration falls back to the
// span between the first and last sample when the session metadata omits it.
func SummarizeWindow(window ObservationWindow) SessionMetrics {
	metrics := SessionMetrics{AvgSpO2: NormalSpO2}
	if window.Session != nil {
		metrics.ActivityType = window.Session.ActivityType
		metrics.DurationMinutes = window.Session.DurationMinutes
		metrics.RecoveryTimeMinutes = window.Session.RecoveryTimeMinutes
	}
	if len(window.Samples) == 0 {
		return metrics
	}

	sumHR := 0.0
	sumSpO2 := 0.0
	spo2Count := 0
	metrics.PeakHeartRate = window.Samples[0].HeartRate
	metrics.MinHeartRate = window.Samples[0].HeartRate
	for _, s := range window.Samples {
		sumHR += s.HeartRate
		if s.HeartRate > metrics.PeakHeartRate {
			metrics.PeakHeartRate = s.HeartRate
		}
		if s.HeartRate < metrics.MinHeartRate {
			metrics.MinHeartRate = s.HeartRate
		}
		if s.SpO2 != nil {
			sumSpO2 += *s.SpO2
			spo2Count++
		}
	}
	metrics.AvgHeartRate = sumHR / float64(len(window.Samples))
	if spo2Count > 0 {
		metrics.AvgSpO2 = sumSpO2 / float64(spo2Count)
	}

	if metrics.DurationMinutes <= 0 {
		first := window.Samples[0].Timestamp
		last := window.Samples[len(window.Samples)-1].Timestamp
		if !first.IsZero() && !last.IsZero() {
			metrics.DurationMinutes = utils.DurationMinutes(first, last)
		}
	}
	return metrics
}
