// Package anomaly flags unusual vital-sign samples within a single
// observation window using population z-scores and beat-to-beat jumps.
package anomaly

import (
	"math"

	"github.com/miradorstack/cardio-intel/internal/models"
	"github.com/miradorstack/cardio-intel/internal/stats"
)

const (
	// DefaultZThreshold is the |z| above which a sample is flagged.
	DefaultZThreshold = 2.0
	// DefaultJumpThreshold is the heart-rate change (bpm) between consecutive
	// samples treated as a variability anomaly.
	DefaultJumpThreshold = 40.0
	// MinSamples is the smallest window the detector will score.
	MinSamples = 3
)

// Config tunes the detector. Zero fields take the defaults.
type Config struct {
	ZThreshold    float64
	JumpThreshold float64
}

// Detector detects anomalies in an observation window. It is stateless and safe
// for concurrent use.
type Detector struct {
	zThreshold    float64
	jumpThreshold float64
}

// NewDetector creates an anomaly detector.
func NewDetector(cfg Config) *Detector {
	if cfg.ZThreshold <= 0 {
		cfg.ZThreshold = DefaultZThreshold
	}
	if cfg.JumpThreshold <= 0 {
		cfg.JumpThreshold = DefaultJumpThreshold
	}
	return &Detector{zThreshold: cfg.ZThreshold, jumpThreshold: cfg.JumpThreshold}
}

// DefaultZ returns the threshold used when callers pass zero.
func (d *Detector) DefaultZ() float64 {
	return d.zThreshold
}

type series struct {
	index  []int
	values []float64
}

// Detect scans samples for outliers. A zThreshold <= 0 uses the configured default.
// Event indices refer to positions in samples.
func (d *Detector) Detect(samples []models.Observation, zThreshold float64) models.AnomalyReport {
	if zThreshold <= 0 {
		zThreshold = d.zThreshold
	}
	report := models.AnomalyReport{
		Anomalies:     []models.AnomalyEvent{},
		TotalReadings: len(samples),
		ZThreshold:    zThreshold,
	}
	if len(samples) < MinSamples {
		report.Status = models.StatusInsufficientData
		report.Message = "Need at least 3 readings for anomaly detection."
		return report
	}

	var hr, spo2 series
	for i, s := range samples {
		hr.index = append(hr.index, i)
		hr.values = append(hr.values, s.HeartRate)
		if s.SpO2 != nil {
			spo2.index = append(spo2.index, i)
			spo2.values = append(spo2.values, *s.SpO2)
		}
	}

	report.Anomalies = append(report.Anomalies, d.zScoreEvents(samples, hr, models.MetricHeartRate, zThreshold)...)
	report.Anomalies = append(report.Anomalies, d.zScoreEvents(samples, spo2, models.MetricSpO2, zThreshold)...)
	report.Anomalies = append(report.Anomalies, d.jumpEvents(samples, hr)...)

	report.AnomalyCount = len(report.Anomalies)
	report.Status = models.StatusNormal
	if report.AnomalyCount > 0 {
		report.Status = models.StatusAnomaliesDetected
	}
	report.Stats = models.AnomalyStats{
		HeartRate: metricStats(hr.values),
		SpO2:      metricStats(spo2.values),
	}
	return report
}

func (d *Detector) zScoreEvents(samples []models.Observation, s series, metric models.Metric, threshold float64) []models.AnomalyEvent {
	if len(s.values) < MinSamples {
		return nil
	}
	mean := stats.Mean(s.values)
	std := stats.PopulationStd(s.values)
	if std == 0 {
		return nil
	}

	var events []models.AnomalyEvent
	for i, v := range s.values {
		z := (v - mean) / std
		if math.Abs(z) <= threshold {
			continue
		}
		direction := models.DirectionHigh
		if z < 0 {
			direction = models.DirectionLow
		}
		rounded := stats.Round(z, 2)
		idx := s.index[i]
		events = append(events, models.AnomalyEvent{
			Index:     idx,
			Metric:    metric,
			Value:     v,
			ZScore:    &rounded,
			Direction: direction,
			Timestamp: samples[idx].Timestamp,
		})
	}
	return events
}

func (d *Detector) jumpEvents(samples []models.Observation, hr series) []models.AnomalyEvent {
	var events []models.AnomalyEvent
	for i := 1; i < len(hr.values); i++ {
		delta := hr.values[i] - hr.values[i-1]
		if math.Abs(delta) < d.jumpThreshold {
			continue
		}
		direction := models.DirectionSpike
		if delta < 0 {
			direction = models.DirectionDrop
		}
		idx := hr.index[i]
		events = append(events, models.AnomalyEvent{
			Index:     idx,
			Metric:    models.MetricHRVariability,
			Value:     math.Abs(delta),
			Direction: direction,
			Timestamp: samples[idx].Timestamp,
		})
	}
	return events
}

func metricStats(values []float64) *models.MetricStats {
	if len(values) == 0 {
		return nil
	}
	out := &models.MetricStats{Mean: stats.Round(stats.Mean(values), 1)}
	if len(values) >= 2 {
		std := stats.Round(stats.PopulationStd(values), 1)
		out.Std = &std
	}
	return out
}
