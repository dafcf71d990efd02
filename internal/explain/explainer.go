// Package explain attributes a risk prediction to its input features and
// renders results as plain language for patients.
package explain

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/miradorstack/cardio-intel/internal/models"
	"github.com/miradorstack/cardio-intel/internal/stats"
)

// Method names the attribution technique reported in every Explanation.
const Method = "importance_weighted_deviation"

const (
	topFeatureCount   = 5
	plainFactorCount  = 3
	roundingPrecision = 4
)

// DefaultTypicalValues is the reference population profile deviations are measured against.
var DefaultTypicalValues = map[string]float64{
	"age":                   55,
	"baseline_hr":           72,
	"max_safe_hr":           165,
	"avg_heart_rate":        90,
	"peak_heart_rate":       120,
	"min_heart_rate":        65,
	"avg_spo2":              97,
	"duration_minutes":      20,
	"recovery_time_minutes": 5,
	"hr_pct_of_max":         0.72,
	"hr_elevation":          18,
	"hr_range":              55,
	"duration_intensity":    14.4,
	"recovery_efficiency":   0.25,
	"spo2_deviation":        1,
	"age_risk_factor":       0.79,
	"activity_intensity":    2,
}

var featureLabels = map[string]string{
	"age":                   "Age",
	"baseline_hr":           "Resting heart rate",
	"max_safe_hr":           "Maximum safe heart rate",
	"avg_heart_rate":        "Average heart rate",
	"peak_heart_rate":       "Peak heart rate",
	"min_heart_rate":        "Minimum heart rate",
	"avg_spo2":              "Blood oxygen (SpO2)",
	"duration_minutes":      "Session duration",
	"recovery_time_minutes": "Recovery time",
	"hr_pct_of_max":         "Heart rate percent of maximum",
	"hr_elevation":          "Heart rate elevation from baseline",
	"hr_range":              "Heart rate range",
	"duration_intensity":    "Duration intensity",
	"recovery_efficiency":   "Recovery efficiency",
	"spo2_deviation":        "SpO2 deviation from normal",
	"age_risk_factor":       "Age-based risk factor",
	"activity_intensity":    "Activity intensity level",
}

// Label returns the human-readable name of a feature column.
func Label(feature string) string {
	if label, ok := featureLabels[feature]; ok {
		return label
	}
	words := strings.Fields(strings.ReplaceAll(feature, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Explainer produces importance-weighted deviation attributions. The result is a
// heuristic ranking of drivers, not an exact additive decomposition of the score.
type Explainer struct {
	typical map[string]float64
	logger  *slog.Logger
}

// NewExplainer constructs an Explainer. Entries in overrides replace the default
// typical value of the named feature; unknown names are ignored.
func NewExplainer(overrides map[string]float64, logger *slog.Logger) *Explainer {
	if logger == nil {
		logger = slog.Default()
	}
	typical := make(map[string]float64, len(DefaultTypicalValues))
	for k, v := range DefaultTypicalValues {
		typical[k] = v
	}
	for k, v := range overrides {
		if models.FeatureIndex(k) < 0 {
			logger.Warn("ignoring typical value for unknown feature", slog.String("feature", k))
			continue
		}
		typical[k] = v
	}
	return &Explainer{typical: typical, logger: logger}
}

// Explain ranks the features of fv by their estimated push on the score.
// importances is the artifact's global importance table in column order; columns
// past its end weigh 1/n.
func (e *Explainer) Explain(fv models.FeatureVector, importances []float64, score float64, level models.RiskLevel) models.Explanation {
	n := models.NumFeatures
	if len(importances) > 0 && len(importances) < n {
		e.logger.Debug("importance table shorter than feature columns; missing columns weigh 1/n",
			slog.Int("importances", len(importances)))
	}

	global := make(map[string]float64, n)
	rows := make([]models.FeatureContribution, 0, n)
	for i, name := range models.FeatureColumns {
		weight := 1.0 / float64(n)
		if i < len(importances) {
			weight = importances[i]
			global[name] = stats.Round(weight, roundingPrecision)
		}

		value := fv[i]
		typical, ok := e.typical[name]
		if !ok {
			typical = value
		}
		deviation := 0.0
		if typical != 0 {
			deviation = (value - typical) / math.Abs(typical)
		}
		contribution := stats.Round(weight*deviation, roundingPrecision)

		direction := models.DirectionNeutral
		switch {
		case contribution > 0:
			direction = models.DirectionIncreasing
		case contribution < 0:
			direction = models.DirectionDecreasing
		}

		rows = append(rows, models.FeatureContribution{
			Feature:          name,
			Label:            Label(name),
			Value:            stats.Round(value, roundingPrecision),
			TypicalValue:     typical,
			Deviation:        stats.Round(deviation, roundingPrecision),
			Contribution:     contribution,
			Direction:        direction,
			Explanation:      featureSentence(name, direction),
			GlobalImportance: global[name],
		})
	}

	ranked := append([]models.FeatureContribution(nil), rows...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return math.Abs(ranked[i].Contribution) > math.Abs(ranked[j].Contribution)
	})
	top := ranked[:min(topFeatureCount, len(ranked))]

	return models.Explanation{
		RiskScore:         score,
		RiskLevel:         level,
		TopFeatures:       top,
		Contributions:     rows,
		GlobalImportances: global,
		FeatureCount:      n,
		Method:            Method,
		PlainExplanation:  plainExplanation(score, level, top),
	}
}

func featureSentence(feature string, direction models.Direction) string {
	name := Label(feature)
	switch direction {
	case models.DirectionIncreasing:
		return name + " is higher than typical."
	case models.DirectionDecreasing:
		return name + " is lower than typical."
	default:
		return name + " is within a typical range."
	}
}

func plainExplanation(score float64, level models.RiskLevel, top []models.FeatureContribution) string {
	head := fmt.Sprintf("Your risk score is %.2f (%s).", score, level)
	parts := make([]string, 0, plainFactorCount)
	for _, f := range top[:min(plainFactorCount, len(top))] {
		effect := "kept risk lower"
		if f.Direction == models.DirectionIncreasing {
			effect = "pushed risk up"
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", f.Label, effect))
	}
	if len(parts) == 0 {
		return head
	}
	return head + " The main factors: " + strings.Join(parts, "; ") + "."
}
