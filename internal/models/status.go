package models

// Status tags the outcome of an analysis so callers branch before reading fields.
type Status string

const (
	StatusOK                    Status = "ok"
	StatusInsufficientData      Status = "insufficient_data"
	StatusInsufficientValidData Status = "insufficient_valid_data"
	StatusNormal                Status = "normal"
	StatusAnomaliesDetected     Status = "anomalies_detected"
)

// Metric names a physiological signal.
type Metric string

const (
	MetricHeartRate     Metric = "heart_rate"
	MetricSpO2          Metric = "spo2"
	MetricHRVariability Metric = "hr_variability"
)

// Direction describes the sign of a deviation or trend.
type Direction string

const (
	DirectionHigh       Direction = "high"
	DirectionLow        Direction = "low"
	DirectionSpike      Direction = "spike"
	DirectionDrop       Direction = "drop"
	DirectionIncreasing Direction = "increasing"
	DirectionDecreasing Direction = "decreasing"
	DirectionStable     Direction = "stable"
	DirectionNeutral    Direction = "neutral"
)
