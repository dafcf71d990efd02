// Package baseline proposes updates to a patient's resting heart-rate baseline
// from recent resting readings.
package baseline

import (
	"math"

	"github.com/miradorstack/cardio-intel/internal/models"
	"github.com/miradorstack/cardio-intel/internal/stats"
)

// Config tunes the calibrator. Zero fields take the defaults.
type Config struct {
	// Smoothing is the weight given to the new filtered mean.
	Smoothing float64
	// OutlierSigma drops valid readings further than this many standard deviations from the mean.
	OutlierSigma float64
	MinHR        float64
	MaxHR        float64
}

// DefaultConfig returns the product defaults.
func DefaultConfig() Config {
	return Config{Smoothing: 0.3, OutlierSigma: 1.5, MinHR: 40, MaxHR: 120}
}

const (
	minReadings      = 5
	minFiltered      = 3
	fullConfidenceAt = 20.0
)

// Calibrator computes smoothed baselines. It is stateless and safe for concurrent use.
type Calibrator struct {
	cfg Config
}

// NewCalibrator creates a Calibrator.
func NewCalibrator(cfg Config) *Calibrator {
	def := DefaultConfig()
	if cfg.Smoothing <= 0 || cfg.Smoothing > 1 {
		cfg.Smoothing = def.Smoothing
	}
	if cfg.OutlierSigma <= 0 {
		cfg.OutlierSigma = def.OutlierSigma
	}
	if cfg.MinHR <= 0 || cfg.MaxHR <= cfg.MinHR {
		cfg.MinHR, cfg.MaxHR = def.MinHR, def.MaxHR
	}
	return &Calibrator{cfg: cfg}
}

// Calibrate blends current with the outlier-filtered mean of readings. A nil
// current means the patient has no baseline yet.
func (c *Calibrator) Calibrate(readings []float64, current *int) models.BaselineCalibration {
	out := models.BaselineCalibration{
		CurrentBaseline: current,
		NewBaseline:     current,
		ReadingsTotal:   len(readings),
	}
	if len(readings) < minReadings {
		out.Status = models.StatusInsufficientData
		out.Message = "Need at least 5 resting readings to optimize baseline."
		out.ReadingsUsed = len(readings)
		return out
	}

	valid := make([]float64, 0, len(readings))
	for _, v := range readings {
		if v >= c.cfg.MinHR && v <= c.cfg.MaxHR {
			valid = append(valid, v)
		}
	}
	if len(valid) < minReadings {
		out.Status = models.StatusInsufficientValidData
		out.Message = "Not enough valid resting readings (40-120 BPM range)."
		out.ReadingsUsed = len(valid)
		return out
	}

	mean := stats.Mean(valid)
	std := stats.PopulationStd(valid)
	filtered := valid
	if std > 0 {
		filtered = make([]float64, 0, len(valid))
		for _, v := range valid {
			if math.Abs(v-mean) <= c.cfg.OutlierSigma*std {
				filtered = append(filtered, v)
			}
		}
		if len(filtered) < minFiltered {
			filtered = valid
		}
	}
	filteredMean := stats.Mean(filtered)

	target := filteredMean
	if current != nil {
		target = float64(*current)*(1-c.cfg.Smoothing) + filteredMean*c.cfg.Smoothing
	}
	next := int(stats.Clamp(math.Round(target), c.cfg.MinHR, c.cfg.MaxHR))

	adjustment := 0
	if current != nil {
		adjustment = next - *current
	}
	confidence := math.Min(1, float64(len(filtered))/fullConfidenceAt) * math.Max(0.3, 1-std/20)
	lo, hi := stats.MinMax(filtered)

	out.Status = models.StatusOK
	out.NewBaseline = &next
	out.Adjustment = adjustment
	out.Adjusted = adjustment >= 1 || adjustment <= -1
	out.Confidence = stats.Round(confidence, 3)
	out.ReadingsUsed = len(filtered)
	out.Stats = &models.BaselineStats{
		MeanHR: stats.Round(filteredMean, 1),
		StdHR:  stats.Round(std, 1),
		MinHR:  lo,
		MaxHR:  hi,
	}
	return out
}
