package models

import "time"

// AnomalyEvent is a single flagged sample. ZScore is nil for beat-to-beat jumps,
// whose Value carries the jump magnitude instead.
type AnomalyEvent struct {
	Index     int       `json:"index"`
	Metric    Metric    `json:"metric"`
	Value     float64   `json:"value"`
	ZScore    *float64  `json:"z_score"`
	Direction Direction `json:"direction"`
	Timestamp time.Time `json:"timestamp"`
}

// MetricStats holds audit statistics for one metric.
type MetricStats struct {
	Mean float64  `json:"mean"`
	Std  *float64 `json:"std"`
}

// AnomalyStats groups per-metric statistics. Absent metrics are nil.
type AnomalyStats struct {
	HeartRate *MetricStats `json:"heart_rate,omitempty"`
	SpO2      *MetricStats `json:"spo2,omitempty"`
}

// AnomalyReport is the result of an anomaly scan over a window.
type AnomalyReport struct {
	Status        Status         `json:"status"`
	Message       string         `json:"message,omitempty"`
	Anomalies     []AnomalyEvent `json:"anomalies"`
	TotalReadings int            `json:"total_readings"`
	AnomalyCount  int            `json:"anomaly_count"`
	Stats         AnomalyStats   `json:"stats"`
	ZThreshold    float64        `json:"z_threshold"`
}

// MetricTrend is the fitted linear trend of one metric.
type MetricTrend struct {
	SlopePerDay     float64   `json:"slope_per_day"`
	Intercept       float64   `json:"intercept"`
	Direction       Direction `json:"direction"`
	CurrentFitted   float64   `json:"current_fitted"`
	ForecastedValue float64   `json:"forecasted_value"`
	ForecastDay     int       `json:"forecast_day"`
	RSquared        float64   `json:"r_squared"`
	DataPoints      int       `json:"data_points"`
}

// RiskProjection aggregates metric trends into a directional risk signal.
type RiskProjection struct {
	RiskDirection  Direction `json:"risk_direction"`
	RiskScoreDelta float64   `json:"risk_score_delta"`
	Factors        []string  `json:"factors"`
}

// TrendForecast is the result of a trend fit over a window.
type TrendForecast struct {
	Status         Status          `json:"status"`
	Message        string          `json:"message,omitempty"`
	TotalReadings  int             `json:"total_readings"`
	ForecastDays   int             `json:"forecast_days"`
	HeartRate      *MetricTrend    `json:"heart_rate,omitempty"`
	SpO2           *MetricTrend    `json:"spo2,omitempty"`
	RiskProjection *RiskProjection `json:"risk_projection,omitempty"`
}

// BaselineStats summarises the filtered resting readings.
type BaselineStats struct {
	MeanHR float64 `json:"mean_hr"`
	StdHR  float64 `json:"std_hr"`
	MinHR  float64 `json:"min_hr"`
	MaxHR  float64 `json:"max_hr"`
}

// BaselineCalibration is a proposed resting heart-rate baseline update.
type BaselineCalibration struct {
	Status          Status         `json:"status"`
	Message         string         `json:"message,omitempty"`
	CurrentBaseline *int           `json:"current_baseline"`
	NewBaseline     *int           `json:"new_baseline"`
	Adjustment      int            `json:"adjustment"`
	Adjusted        bool           `json:"adjusted"`
	Confidence      float64        `json:"confidence"`
	ReadingsUsed    int            `json:"readings_used"`
	ReadingsTotal   int            `json:"readings_total"`
	Stats           *BaselineStats `json:"stats,omitempty"`
}
