// Package metrics owns the Prometheus collectors of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels handled requests.
	OutcomeSuccess = "success"
	// OutcomeInvalid labels rejected caller input.
	OutcomeInvalid = "invalid"
	// OutcomeUnavailable labels requests refused because the scoring artifact is not ready.
	OutcomeUnavailable = "unavailable"
	// OutcomeError labels internal failures.
	OutcomeError = "error"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardio_intel",
			Name:      "requests_total",
			Help:      "Requests handled, partitioned by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	requestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cardio_intel",
			Name:      "request_seconds",
			Help:      "Request latency in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"operation"},
	)

	riskLevelsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardio_intel",
			Name:      "risk_levels_total",
			Help:      "Assessments produced, partitioned by risk level.",
		},
		[]string{"level"},
	)

	anomaliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardio_intel",
			Name:      "anomalies_total",
			Help:      "Anomalies flagged, partitioned by metric.",
		},
		[]string{"metric"},
	)

	classifierState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cardio_intel",
			Name:      "classifier_state",
			Help:      "Scoring artifact state: 0 not loaded, 1 loading, 2 ready, 3 failed.",
		},
	)
)

// Register attaches cardio-intel collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		requestsTotal,
		requestSeconds,
		riskLevelsTotal,
		anomaliesTotal,
		classifierState,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveRequest records a request duration and outcome.
func ObserveRequest(operation string, duration time.Duration, outcome string) {
	requestsTotal.WithLabelValues(operation, outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	requestSeconds.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveRiskLevel counts an assessment at level.
func ObserveRiskLevel(level string) {
	riskLevelsTotal.WithLabelValues(level).Inc()
}

// ObserveAnomaly counts a flagged anomaly on metric.
func ObserveAnomaly(metric string) {
	anomaliesTotal.WithLabelValues(metric).Inc()
}

// SetClassifierState publishes the artifact state.
func SetClassifierState(state int) {
	classifierState.Set(float64(state))
}
