package models

// FeatureColumnsVersion identifies the column order below. Scoring artifacts are
// trained against a specific version and must declare the same columns.
const FeatureColumnsVersion = "v1"

// NumFeatures is the width of a FeatureVector.
const NumFeatures = 17

// FeatureColumns lists feature names in classifier training order.
var FeatureColumns = [NumFeatures]string{
	"age",
	"baseline_hr",
	"max_safe_hr",
	"avg_heart_rate",
	"peak_heart_rate",
	"min_heart_rate",
	"avg_spo2",
	"duration_minutes",
	"recovery_time_minutes",
	"hr_pct_of_max",
	"hr_elevation",
	"hr_range",
	"duration_intensity",
	"recovery_efficiency",
	"spo2_deviation",
	"age_risk_factor",
	"activity_intensity",
}

// FeatureVector is a fixed-order numeric encoding of a patient session. It is an
// array, so copies never alias the original.
type FeatureVector [NumFeatures]float64

// Slice returns a fresh slice of the vector values in column order.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, NumFeatures)
	copy(out, v[:])
	return out
}

// Value looks up a feature by column name.
func (v FeatureVector) Value(name string) (float64, bool) {
	idx := FeatureIndex(name)
	if idx < 0 {
		return 0, false
	}
	return v[idx], true
}

// Map returns the vector keyed by column name.
func (v FeatureVector) Map() map[string]float64 {
	out := make(map[string]float64, NumFeatures)
	for i, name := range FeatureColumns {
		out[name] = v[i]
	}
	return out
}

// FeatureIndex returns the column position of name, or -1.
func FeatureIndex(name string) int {
	for i, col := range FeatureColumns {
		if col == name {
			return i
		}
	}
	return -1
}
