// Package trend fits linear trends to vital signs across days and projects
// them forward.
package trend

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/sajari/regression"

	"github.com/miradorstack/cardio-intel/internal/models"
	"github.com/miradorstack/cardio-intel/internal/stats"
	"github.com/miradorstack/cardio-intel/internal/utils"
)

const (
	// DefaultForecastDays is the projection horizon used when callers pass zero.
	DefaultForecastDays = 14
	// MinSamples is the smallest window, and the smallest per-metric series, that is fitted.
	MinSamples = 7
	// StableSlope is the |slope| per day below which a trend counts as stable.
	StableSlope = 0.1
)

type point struct {
	day   float64
	value float64
}

type fit struct {
	slope     float64
	intercept float64
	rSquared  float64
}

// Config tunes the forecaster.
type Config struct {
	// ForecastDays is the horizon used when a caller passes zero.
	ForecastDays int
}

// Forecaster fits per-metric least-squares lines. It is safe for concurrent use.
type Forecaster struct {
	logger       *slog.Logger
	forecastDays int
}

// NewForecaster creates a Forecaster.
func NewForecaster(cfg Config, logger *slog.Logger) *Forecaster {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ForecastDays <= 0 {
		cfg.ForecastDays = DefaultForecastDays
	}
	return &Forecaster{logger: logger, forecastDays: cfg.ForecastDays}
}

// DefaultDays returns the horizon used when callers pass zero.
func (f *Forecaster) DefaultDays() int {
	return f.forecastDays
}

// Forecast fits heart rate and SpO2 against day offsets from the first sample and
// projects each forecastDays past the last sample. Zero uses the configured horizon.
func (f *Forecaster) Forecast(samples []models.Observation, forecastDays int) models.TrendForecast {
	if forecastDays <= 0 {
		forecastDays = f.forecastDays
	}
	out := models.TrendForecast{
		TotalReadings: len(samples),
		ForecastDays:  forecastDays,
	}
	if len(samples) < MinSamples {
		out.Status = models.StatusInsufficientData
		out.Message = "Need at least 7 readings for trend forecasting."
		return out
	}

	base := samples[0].Timestamp
	hr := make([]point, 0, len(samples))
	var spo2 []point
	for _, s := range samples {
		day := utils.DayOffset(base, s.Timestamp)
		hr = append(hr, point{day: day, value: s.HeartRate})
		if s.SpO2 != nil {
			spo2 = append(spo2, point{day: day, value: *s.SpO2})
		}
	}

	out.Status = models.StatusOK
	if len(hr) >= MinSamples {
		out.HeartRate = f.metricTrend(models.MetricHeartRate, hr, forecastDays)
	}
	if len(spo2) >= MinSamples {
		out.SpO2 = f.metricTrend(models.MetricSpO2, spo2, forecastDays)
	}
	out.RiskProjection = project(out.HeartRate, out.SpO2)
	return out
}

func (f *Forecaster) metricTrend(metric models.Metric, series []point, forecastDays int) *models.MetricTrend {
	ff, err := fitLine(series)
	if err != nil {
		f.logger.Warn("regression failed; falling back to flat trend",
			slog.String("metric", string(metric)), slog.Any("error", err))
		ff = flat(series)
	}

	last := series[len(series)-1].day
	direction := models.DirectionStable
	switch {
	case math.Abs(ff.slope) < StableSlope:
	case ff.slope > 0:
		direction = models.DirectionIncreasing
	default:
		direction = models.DirectionDecreasing
	}

	return &models.MetricTrend{
		SlopePerDay:     stats.Round(ff.slope, 4),
		Intercept:       stats.Round(ff.intercept, 4),
		Direction:       direction,
		CurrentFitted:   stats.Round(ff.slope*last+ff.intercept, 1),
		ForecastedValue: stats.Round(ff.slope*(last+float64(forecastDays))+ff.intercept, 1),
		ForecastDay:     forecastDays,
		RSquared:        stats.Round(ff.rSquared, 4),
		DataPoints:      len(series),
	}
}

// fitLine runs ordinary least squares of value on day. A series whose days are
// all equal has no slope and is fitted by its mean.
func fitLine(series []point) (fit, error) {
	days := make([]float64, len(series))
	for i, p := range series {
		days[i] = p.day
	}
	if stats.PopulationStd(days) == 0 {
		return flat(series), nil
	}

	var r regression.Regression
	r.SetObserved("value")
	r.SetVar(0, "day")
	for _, p := range series {
		r.Train(regression.DataPoint(p.value, []float64{p.day}))
	}
	if err := r.Run(); err != nil {
		return fit{}, fmt.Errorf("run regression: %w", err)
	}
	out := fit{intercept: r.Coeff(0), slope: r.Coeff(1)}
	if math.IsNaN(out.slope) || math.IsNaN(out.intercept) {
		return fit{}, fmt.Errorf("regression produced non-finite coefficients")
	}
	out.rSquared = rSquared(series, out)
	return out, nil
}

func flat(series []point) fit {
	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.value
	}
	return fit{intercept: stats.Mean(values)}
}

func rSquared(series []point, ff fit) float64 {
	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.value
	}
	mean := stats.Mean(values)
	var ssRes, ssTot float64
	for _, p := range series {
		predicted := ff.slope*p.day + ff.intercept
		ssRes += (p.value - predicted) * (p.value - predicted)
		ssTot += (p.value - mean) * (p.value - mean)
	}
	if ssTot <= 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// project turns metric trends into a coarse directional risk signal.
func project(hr, spo2 *models.MetricTrend) *models.RiskProjection {
	var factors []string
	delta := 0.0

	if hr != nil {
		switch {
		case hr.Direction == models.DirectionIncreasing && hr.SlopePerDay > 0.5:
			factors = append(factors, "Heart rate trending upward")
			delta += 0.10
		case hr.Direction == models.DirectionDecreasing && hr.SlopePerDay < -0.5:
			factors = append(factors, "Heart rate trending downward (improving)")
			delta -= 0.05
		}
	}
	if spo2 != nil {
		switch {
		case spo2.Direction == models.DirectionDecreasing && spo2.SlopePerDay < -0.1:
			factors = append(factors, "SpO2 trending downward (concerning)")
			delta += 0.15
		case spo2.Direction == models.DirectionIncreasing:
			factors = append(factors, "SpO2 trending upward (improving)")
			delta -= 0.05
		}
	}
	if len(factors) == 0 {
		factors = append(factors, "All trends appear stable")
	}

	direction := models.DirectionStable
	switch {
	case delta > 0.05:
		direction = models.DirectionIncreasing
	case delta < -0.03:
		direction = models.DirectionDecreasing
	}
	return &models.RiskProjection{
		RiskDirection:  direction,
		RiskScoreDelta: stats.Round(delta, 3),
		Factors:        factors,
	}
}
