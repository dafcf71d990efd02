package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miradorstack/cardio-intel/internal/models"
)

func sampleSession() models.SessionMetrics {
	return models.SessionMetrics{
		AvgHeartRate:        110,
		PeakHeartRate:       150,
		MinHeartRate:        80,
		AvgSpO2:             96,
		DurationMinutes:     30,
		RecoveryTimeMinutes: 6,
		ActivityType:        "jogging",
	}
}

func TestBuildDerivedFeatures(t *testing.T) {
	profile := models.PatientProfile{Age: 56, BaselineHR: 70, MaxSafeHR: 160}
	fv := NewEngineer().Build(profile, sampleSession())

	expect := map[string]float64{
		"age":                   56,
		"baseline_hr":           70,
		"max_safe_hr":           160,
		"avg_heart_rate":        110,
		"peak_heart_rate":       150,
		"min_heart_rate":        80,
		"avg_spo2":              96,
		"duration_minutes":      30,
		"recovery_time_minutes": 6,
		"hr_pct_of_max":         0.9375,
		"hr_elevation":          40,
		"hr_range":              70,
		"duration_intensity":    28.125,
		"recovery_efficiency":   0.2,
		"spo2_deviation":        2,
		"age_risk_factor":       0.8,
		"activity_intensity":    2,
	}
	for name, want := range expect {
		got, ok := fv.Value(name)
		require.True(t, ok, name)
		assert.InDelta(t, want, got, 1e-9, name)
	}
}

func TestBuildGuardsDenominators(t *testing.T) {
	session := sampleSession()
	session.DurationMinutes = 0
	fv := NewEngineer().Build(models.PatientProfile{Age: 40, BaselineHR: 60, MaxSafeHR: 0}, session)

	pct, _ := fv.Value("hr_pct_of_max")
	eff, _ := fv.Value("recovery_efficiency")
	intensity, _ := fv.Value("duration_intensity")
	assert.Equal(t, 0.0, pct)
	assert.Equal(t, 0.0, eff)
	assert.Equal(t, 0.0, intensity)
}

func TestBuildIsDeterministic(t *testing.T) {
	profile := models.PatientProfile{Age: 63, BaselineHR: 75, MaxSafeHR: 150}
	engineer := NewEngineer()
	first := engineer.Build(profile, sampleSession())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, engineer.Build(profile, sampleSession()))
	}
}

func TestActivityIntensity(t *testing.T) {
	cases := map[string]float64{
		"walking":    1,
		"Yoga":       1,
		" cycling ":  2,
		"swimming":   3,
		"rock climb": 2,
		"":           2,
	}
	for activity, want := range cases {
		assert.Equal(t, want, ActivityIntensity(activity), activity)
	}
}
