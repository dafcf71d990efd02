package baseline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miradorstack/cardio-intel/internal/models"
)

func intPtr(v int) *int { return &v }

func TestCalibrateSteadyBaselineUnchanged(t *testing.T) {
	out := NewCalibrator(Config{}).Calibrate([]float64{70, 70, 70, 70, 70, 70}, intPtr(70))

	require.Equal(t, models.StatusOK, out.Status)
	require.NotNil(t, out.NewBaseline)
	assert.Equal(t, 70, *out.NewBaseline)
	assert.Equal(t, 0, out.Adjustment)
	assert.False(t, out.Adjusted)
	assert.Equal(t, 6, out.ReadingsUsed)
	assert.Equal(t, 0.3, out.Confidence)
	assert.Equal(t, 70.0, out.Stats.MeanHR)
	assert.Equal(t, 0.0, out.Stats.StdHR)
}

func TestCalibrateMovesTowardReadings(t *testing.T) {
	readings := []float64{68, 70, 71, 69, 72, 70, 70, 69}
	out := NewCalibrator(Config{}).Calibrate(readings, intPtr(80))

	require.Equal(t, models.StatusOK, out.Status)
	assert.Less(t, *out.NewBaseline, 80)
	assert.Equal(t, 77, *out.NewBaseline)
	assert.Equal(t, -3, out.Adjustment)
	assert.True(t, out.Adjusted)
	assert.Equal(t, 8, out.ReadingsTotal)
}

func TestCalibrateWithoutCurrentUsesFilteredMean(t *testing.T) {
	readings := []float64{60, 61, 62, 60, 61, 62, 61, 95}
	out := NewCalibrator(Config{}).Calibrate(readings, nil)

	require.Equal(t, models.StatusOK, out.Status)
	assert.Nil(t, out.CurrentBaseline)
	assert.Equal(t, 61, *out.NewBaseline)
	assert.Equal(t, 0, out.Adjustment)
	assert.False(t, out.Adjusted)
	assert.Equal(t, 7, out.ReadingsUsed, "95 bpm is more than 1.5 sigma out")
	assert.Equal(t, 62.0, out.Stats.MaxHR)
}

func TestCalibrateInsufficientData(t *testing.T) {
	out := NewCalibrator(Config{}).Calibrate([]float64{70, 71, 72}, intPtr(75))

	assert.Equal(t, models.StatusInsufficientData, out.Status)
	assert.Equal(t, 75, *out.NewBaseline)
	assert.Equal(t, 75, *out.CurrentBaseline)
	assert.False(t, out.Adjusted)
	assert.Nil(t, out.Stats)
}

func TestCalibrateInsufficientValidData(t *testing.T) {
	out := NewCalibrator(Config{}).Calibrate([]float64{30, 150, 70, 71, 200, 72, 35}, intPtr(72))

	assert.Equal(t, models.StatusInsufficientValidData, out.Status)
	assert.Equal(t, 3, out.ReadingsUsed)
	assert.Equal(t, 72, *out.NewBaseline)
}

func TestCalibrateClampsToRange(t *testing.T) {
	out := NewCalibrator(Config{}).Calibrate([]float64{119, 120, 120, 120, 119}, intPtr(150))
	assert.Equal(t, 120, *out.NewBaseline)
}
