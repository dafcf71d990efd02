package recommend

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/miradorstack/cardio-intel/internal/models"
)

// DefaultExperimentVersion suffixes experiment identifiers.
const DefaultExperimentVersion = "v1"

// StatusRecorded marks an accepted outcome.
const StatusRecorded = "recorded"

// NormalizeTier maps a free-form risk label onto a catalog tier. Critical folds
// into high; anything unrecognised is treated as low.
func NormalizeTier(level string) models.RiskLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "high", "critical":
		return models.RiskHigh
	case "moderate":
		return models.RiskModerate
	default:
		return models.RiskLow
	}
}

// AssignVariant buckets a patient into an experiment arm. The assignment is a
// pure function of the identifier, so it is stable across calls and processes.
func AssignVariant(patientID string) string {
	if xxhash.Sum64String(patientID)%2 == 0 {
		return VariantA
	}
	return VariantB
}

// ExperimentID names the experiment for a tier.
func ExperimentID(tier models.RiskLevel, version string) string {
	if version == "" {
		version = DefaultExperimentVersion
	}
	return fmt.Sprintf("rec_ranking_%s_%s", tier, version)
}

// OutcomeRequest is a patient's reaction to a recommendation.
type OutcomeRequest struct {
	PatientID    string   `json:"patient_id"`
	ExperimentID string   `json:"experiment_id"`
	Variant      string   `json:"variant"`
	Outcome      string   `json:"outcome"`
	OutcomeValue *float64 `json:"outcome_value,omitempty"`
}

// Option customises a Ranker.
type Option func(*Ranker)

// WithClock overrides the outcome timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Ranker) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator overrides outcome identifier generation.
func WithIDGenerator(gen func() string) Option {
	return func(r *Ranker) {
		if gen != nil {
			r.newID = gen
		}
	}
}

// Ranker serves catalog variants to patients.
type Ranker struct {
	catalog *Catalog
	version string
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// NewRanker builds a Ranker over catalog. A nil catalog uses the built-in one.
func NewRanker(catalog *Catalog, version string, logger *slog.Logger, opts ...Option) (*Ranker, error) {
	if catalog == nil {
		var err error
		if catalog, err = DefaultCatalog(); err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if version == "" {
		version = DefaultExperimentVersion
	}
	r := &Ranker{
		catalog: catalog,
		version: version,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Rank picks the recommendation for a patient at the given risk label. An
// override naming a catalog variant wins over hash bucketing.
func (r *Ranker) Rank(patientID, level, override string) models.RecommendationAssignment {
	tier := NormalizeTier(level)
	variants := r.catalog.Tiers[tier]

	variant := strings.ToUpper(strings.TrimSpace(override))
	if _, ok := variants[variant]; !ok {
		variant = AssignVariant(patientID)
	}

	return models.RecommendationAssignment{
		PatientID:      patientID,
		RiskBucket:     tier,
		Variant:        variant,
		ExperimentID:   ExperimentID(tier, r.version),
		Recommendation: variants[variant],
	}
}

// RecordOutcome turns an outcome request into an immutable record. It performs
// no business validation; persistence is the caller's concern.
func (r *Ranker) RecordOutcome(req OutcomeRequest) models.OutcomeRecord {
	rec := models.OutcomeRecord{
		ID:           r.newID(),
		PatientID:    req.PatientID,
		ExperimentID: req.ExperimentID,
		Variant:      req.Variant,
		Outcome:      req.Outcome,
		OutcomeValue: req.OutcomeValue,
		Status:       StatusRecorded,
		RecordedAt:   r.now(),
	}
	r.logger.Info("recommendation outcome recorded",
		slog.String("experiment", rec.ExperimentID),
		slog.String("variant", rec.Variant),
		slog.String("outcome", rec.Outcome))
	return rec
}
