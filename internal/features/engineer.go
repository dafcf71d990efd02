// Package features turns a patient profile and session metrics into the
// classifier's fixed-order feature vector.
package features

import (
	"strings"

	"github.com/miradorstack/cardio-intel/internal/models"
)

const (
	referenceSpO2 = 98.0
	referenceAge  = 70.0

	defaultActivityIntensity = 2
)

var activityIntensity = map[string]float64{
	"walking":  1,
	"yoga":     1,
	"jogging":  2,
	"cycling":  2,
	"swimming": 3,
}

// Engineer builds feature vectors. It holds no state; the zero value is ready to use.
type Engineer struct{}

// NewEngineer constructs an Engineer.
func NewEngineer() *Engineer {
	return &Engineer{}
}

// Build maps a profile and session onto the feature vector in models.FeatureColumns order.
// All ratios guard their denominators, so Build never fails.
func (e *Engineer) Build(profile models.PatientProfile, session models.SessionMetrics) models.FeatureVector {
	age := float64(profile.Age)
	baseline := float64(profile.BaselineHR)
	maxSafe := float64(profile.MaxSafeHR)

	hrPctOfMax := 0.0
	if maxSafe > 0 {
		hrPctOfMax = session.PeakHeartRate / maxSafe
	}
	recoveryEfficiency := 0.0
	if session.DurationMinutes > 0 {
		recoveryEfficiency = session.RecoveryTimeMinutes / session.DurationMinutes
	}

	return models.FeatureVector{
		age,
		baseline,
		maxSafe,
		session.AvgHeartRate,
		session.PeakHeartRate,
		session.MinHeartRate,
		session.AvgSpO2,
		session.DurationMinutes,
		session.RecoveryTimeMinutes,
		hrPctOfMax,
		session.AvgHeartRate - baseline,
		session.PeakHeartRate - session.MinHeartRate,
		session.DurationMinutes * hrPctOfMax,
		recoveryEfficiency,
		referenceSpO2 - session.AvgSpO2,
		age / referenceAge,
		ActivityIntensity(session.ActivityType),
	}
}

// ActivityIntensity returns the ordinal intensity of an activity type. Unknown
// activities count as moderate.
func ActivityIntensity(activity string) float64 {
	if v, ok := activityIntensity[strings.ToLower(strings.TrimSpace(activity))]; ok {
		return v
	}
	return defaultActivityIntensity
}
