package explain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miradorstack/cardio-intel/internal/models"
)

func typicalVector() models.FeatureVector {
	var fv models.FeatureVector
	for i, name := range models.FeatureColumns {
		fv[i] = DefaultTypicalValues[name]
	}
	return fv
}

func TestExplainTopFeaturesOrderedAndBounded(t *testing.T) {
	fv := typicalVector()
	fv[models.FeatureIndex("peak_heart_rate")] = 180
	fv[models.FeatureIndex("avg_spo2")] = 90
	fv[models.FeatureIndex("hr_elevation")] = 40
	fv[models.FeatureIndex("recovery_time_minutes")] = 2
	fv[models.FeatureIndex("age")] = 75
	fv[models.FeatureIndex("hr_range")] = 70

	exp := NewExplainer(nil, nil).Explain(fv, nil, 0.83, models.RiskHigh)

	require.Len(t, exp.TopFeatures, 5)
	assert.Len(t, exp.Contributions, models.NumFeatures)
	assert.Equal(t, models.NumFeatures, exp.FeatureCount)
	assert.Equal(t, Method, exp.Method)
	for i := 1; i < len(exp.TopFeatures); i++ {
		assert.GreaterOrEqual(t,
			math.Abs(exp.TopFeatures[i-1].Contribution),
			math.Abs(exp.TopFeatures[i].Contribution))
	}
	assert.Equal(t, "hr_elevation", exp.TopFeatures[0].Feature)
}

func TestExplainContributionSigns(t *testing.T) {
	fv := typicalVector()
	fv[models.FeatureIndex("peak_heart_rate")] = 160
	fv[models.FeatureIndex("avg_spo2")] = 92

	exp := NewExplainer(nil, nil).Explain(fv, nil, 0.6, models.RiskModerate)

	byName := map[string]models.FeatureContribution{}
	for _, c := range exp.Contributions {
		byName[c.Feature] = c
	}
	peak := byName["peak_heart_rate"]
	assert.Greater(t, peak.Contribution, 0.0)
	assert.Equal(t, models.DirectionIncreasing, peak.Direction)
	assert.Equal(t, "Peak heart rate is higher than typical.", peak.Explanation)

	spo2 := byName["avg_spo2"]
	assert.Less(t, spo2.Contribution, 0.0)
	assert.Equal(t, models.DirectionDecreasing, spo2.Direction)

	age := byName["age"]
	assert.Equal(t, 0.0, age.Contribution)
	assert.Equal(t, models.DirectionNeutral, age.Direction)
	assert.Equal(t, "Age is within a typical range.", age.Explanation)
}

func TestExplainUsesImportanceTable(t *testing.T) {
	fv := typicalVector()
	fv[models.FeatureIndex("age")] = 110
	fv[models.FeatureIndex("peak_heart_rate")] = 132

	imp := make([]float64, models.NumFeatures)
	imp[models.FeatureIndex("peak_heart_rate")] = 0.5
	imp[models.FeatureIndex("age")] = 0.01

	exp := NewExplainer(nil, nil).Explain(fv, imp, 0.4, models.RiskLow)

	// peak deviates 10% with weight 0.5, age 100% with weight 0.01.
	assert.Equal(t, "peak_heart_rate", exp.TopFeatures[0].Feature)
	assert.InDelta(t, 0.05, exp.TopFeatures[0].Contribution, 1e-9)
	assert.InDelta(t, 0.5, exp.GlobalImportances["peak_heart_rate"], 1e-9)
	assert.Len(t, exp.GlobalImportances, models.NumFeatures)
}

func TestExplainShortImportanceTableKeepsProvidedWeights(t *testing.T) {
	fv := typicalVector()
	fv[models.FeatureIndex("baseline_hr")] = 144
	fv[models.FeatureIndex("peak_heart_rate")] = 240

	exp := NewExplainer(nil, nil).Explain(fv, []float64{0.3, 0.2}, 0.2, models.RiskLow)

	assert.Len(t, exp.GlobalImportances, 2)
	assert.InDelta(t, 0.3, exp.GlobalImportances["age"], 1e-9)
	assert.InDelta(t, 0.2, exp.GlobalImportances["baseline_hr"], 1e-9)

	byName := map[string]models.FeatureContribution{}
	for _, c := range exp.Contributions {
		byName[c.Feature] = c
	}
	// both deviate 100%; baseline_hr keeps its table weight, peak falls back to 1/n.
	assert.InDelta(t, 0.2, byName["baseline_hr"].Contribution, 1e-9)
	assert.InDelta(t, 0.2, byName["baseline_hr"].GlobalImportance, 1e-9)
	assert.InDelta(t, 1.0/float64(models.NumFeatures), byName["peak_heart_rate"].Contribution, 1e-4)
	assert.Zero(t, byName["peak_heart_rate"].GlobalImportance)
	assert.Equal(t, "baseline_hr", exp.TopFeatures[0].Feature)
}

func TestExplainWithoutImportanceTableWeighsUniformly(t *testing.T) {
	fv := typicalVector()
	fv[models.FeatureIndex("baseline_hr")] = 144

	exp := NewExplainer(nil, nil).Explain(fv, nil, 0.2, models.RiskLow)

	assert.Empty(t, exp.GlobalImportances)
	assert.Equal(t, "baseline_hr", exp.TopFeatures[0].Feature)
	assert.InDelta(t, 1.0/float64(models.NumFeatures), exp.TopFeatures[0].Contribution, 1e-4)
}

func TestExplainZeroTypicalMeansNoDeviation(t *testing.T) {
	fv := typicalVector()
	fv[models.FeatureIndex("spo2_deviation")] = 6

	exp := NewExplainer(map[string]float64{"spo2_deviation": 0, "bogus": 3}, nil).
		Explain(fv, nil, 0.1, models.RiskLow)

	for _, c := range exp.Contributions {
		if c.Feature == "spo2_deviation" {
			assert.Equal(t, 0.0, c.Deviation)
			assert.Equal(t, 0.0, c.Contribution)
		}
	}
}

func TestExplainTiesKeepColumnOrder(t *testing.T) {
	exp := NewExplainer(nil, nil).Explain(typicalVector(), nil, 0.1, models.RiskLow)
	for i, f := range exp.TopFeatures {
		assert.Equal(t, models.FeatureColumns[i], f.Feature)
	}
	assert.Equal(t,
		"Your risk score is 0.10 (low). The main factors: Age (kept risk lower); Resting heart rate (kept risk lower); Maximum safe heart rate (kept risk lower).",
		exp.PlainExplanation)
}

func TestPlainExplanationMentionsPushedRisk(t *testing.T) {
	fv := typicalVector()
	fv[models.FeatureIndex("peak_heart_rate")] = 200

	exp := NewExplainer(nil, nil).Explain(fv, nil, 0.9, models.RiskHigh)
	assert.Contains(t, exp.PlainExplanation, "Your risk score is 0.90 (high).")
	assert.Contains(t, exp.PlainExplanation, "Peak heart rate (pushed risk up)")
}

func TestLabelFallback(t *testing.T) {
	assert.Equal(t, "Blood oxygen (SpO2)", Label("avg_spo2"))
	assert.Equal(t, "Cool Down Minutes", Label("cool_down_minutes"))
}
