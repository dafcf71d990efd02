package anomaly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miradorstack/cardio-intel/internal/models"
)

func window(start time.Time, hr []float64) []models.Observation {
	out := make([]models.Observation, len(hr))
	for i, v := range hr {
		out[i] = models.Observation{Timestamp: start.Add(time.Duration(i) * time.Minute), HeartRate: v}
	}
	return out
}

func TestDetectFlagsHeartRateOutlierAndJump(t *testing.T) {
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	samples := window(start, []float64{71, 72, 73, 74, 75, 71, 72, 73, 74, 180})

	report := NewDetector(Config{}).Detect(samples, 2.0)

	require.Equal(t, models.StatusAnomaliesDetected, report.Status)
	require.Len(t, report.Anomalies, 2)
	assert.Equal(t, 2, report.AnomalyCount)
	assert.Equal(t, 10, report.TotalReadings)

	z := report.Anomalies[0]
	assert.Equal(t, models.MetricHeartRate, z.Metric)
	assert.Equal(t, 9, z.Index)
	assert.Equal(t, models.DirectionHigh, z.Direction)
	require.NotNil(t, z.ZScore)
	assert.Greater(t, *z.ZScore, 2.0)
	assert.Equal(t, start.Add(9*time.Minute), z.Timestamp)

	jump := report.Anomalies[1]
	assert.Equal(t, models.MetricHRVariability, jump.Metric)
	assert.Equal(t, 9, jump.Index)
	assert.Equal(t, models.DirectionSpike, jump.Direction)
	assert.Equal(t, 106.0, jump.Value)
	assert.Nil(t, jump.ZScore)

	require.NotNil(t, report.Stats.HeartRate)
	assert.Equal(t, 83.5, report.Stats.HeartRate.Mean)
	assert.NotNil(t, report.Stats.HeartRate.Std)
	assert.Nil(t, report.Stats.SpO2)
}

func TestDetectInsufficientData(t *testing.T) {
	report := NewDetector(Config{}).Detect(window(time.Now(), []float64{70, 200}), 2.0)

	assert.Equal(t, models.StatusInsufficientData, report.Status)
	assert.Empty(t, report.Anomalies)
	assert.Equal(t, 2, report.TotalReadings)
	assert.NotEmpty(t, report.Message)
}

func TestDetectZeroVarianceSuppressesZScores(t *testing.T) {
	report := NewDetector(Config{}).Detect(window(time.Now(), []float64{70, 70, 70, 70, 70}), 1.0)

	assert.Equal(t, models.StatusNormal, report.Status)
	assert.Empty(t, report.Anomalies)
	require.NotNil(t, report.Stats.HeartRate.Std)
	assert.Equal(t, 0.0, *report.Stats.HeartRate.Std)
}

func TestDetectSpO2IndexIsWindowPosition(t *testing.T) {
	spo2 := []float64{98, 0, 97, 98, 97, 98, 85, 98}
	samples := window(time.Now(), []float64{70, 70, 70, 70, 70, 70, 70, 70})
	for i, v := range spo2 {
		if i == 1 {
			continue
		}
		v := v
		samples[i].SpO2 = &v
	}

	report := NewDetector(Config{}).Detect(samples, 2.0)

	require.Len(t, report.Anomalies, 1)
	ev := report.Anomalies[0]
	assert.Equal(t, models.MetricSpO2, ev.Metric)
	assert.Equal(t, 6, ev.Index)
	assert.Equal(t, 85.0, ev.Value)
	assert.Equal(t, models.DirectionLow, ev.Direction)
	require.NotNil(t, report.Stats.SpO2)
}

func TestDetectJumpDrop(t *testing.T) {
	samples := window(time.Now(), []float64{150, 148, 100, 101})
	report := NewDetector(Config{JumpThreshold: 40}).Detect(samples, 4.0)

	require.Len(t, report.Anomalies, 1)
	assert.Equal(t, models.DirectionDrop, report.Anomalies[0].Direction)
	assert.Equal(t, 2, report.Anomalies[0].Index)
	assert.Equal(t, 48.0, report.Anomalies[0].Value)
}

func TestDetectZeroThresholdUsesDefault(t *testing.T) {
	report := NewDetector(Config{ZThreshold: 2.5}).Detect(window(time.Now(), []float64{70, 71, 72}), 0)
	assert.Equal(t, 2.5, report.ZThreshold)
}
