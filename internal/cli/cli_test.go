package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miradorstack/cardio-intel/internal/api"
	"github.com/miradorstack/cardio-intel/internal/cache"
	"github.com/miradorstack/cardio-intel/internal/classifier"
	"github.com/miradorstack/cardio-intel/internal/config"
	"github.com/miradorstack/cardio-intel/internal/models"
	"github.com/miradorstack/cardio-intel/internal/repo"
	"github.com/miradorstack/cardio-intel/internal/utils"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CARDIO_INTEL_CONFIG", "")
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", "", "--log-level", "error"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeWindow(t *testing.T, hr []float64) string {
	t.Helper()
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	window := models.ObservationWindow{}
	for i, v := range hr {
		window.Samples = append(window.Samples, models.Observation{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			HeartRate: v,
		})
	}
	data, err := json.Marshal(window)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "window.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := runRoot(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "version: dev")
	assert.Contains(t, out, "commit: none")
}

func TestAnalyzeCommand(t *testing.T) {
	path := writeWindow(t, []float64{71, 72, 73, 74, 75, 71, 72, 73, 74, 180})

	out, err := runRoot(t, "analyze", "--window", path, "--current-baseline", "72")
	require.NoError(t, err)

	var report AnalysisReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, models.StatusAnomaliesDetected, report.Anomalies.Status)
	assert.Equal(t, 2, report.Anomalies.AnomalyCount)
	assert.Equal(t, 10, report.Trends.TotalReadings)
	assert.Equal(t, 14, report.Trends.ForecastDays)
	assert.Equal(t, models.StatusOK, report.Baseline.Status)
	assert.Equal(t, 10, report.Baseline.ReadingsTotal)
	assert.LessOrEqual(t, report.Baseline.ReadingsUsed, 9)
	require.NotNil(t, report.Baseline.CurrentBaseline)
	assert.Equal(t, 72, *report.Baseline.CurrentBaseline)
}

func TestAnalyzeWithoutBaseline(t *testing.T) {
	path := writeWindow(t, []float64{70, 71, 72})

	out, err := runRoot(t, "analyze", "--window", path)
	require.NoError(t, err)

	var report AnalysisReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Nil(t, report.Baseline.CurrentBaseline)
	assert.Equal(t, models.StatusInsufficientData, report.Baseline.Status)
	assert.Equal(t, models.StatusInsufficientData, report.Trends.Status)
}

func TestAnalyzeRejectsOutOfRangeFlags(t *testing.T) {
	path := writeWindow(t, []float64{70, 71, 72})

	_, err := runRoot(t, "analyze", "--window", path, "--z", "9")
	require.Error(t, err)

	_, err = runRoot(t, "analyze", "--window", path, "--forecast-days", "60")
	require.Error(t, err)

	_, err = runRoot(t, "analyze", "--window", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestEnvFileFeedsConfig(t *testing.T) {
	t.Setenv("CARDIO_INTEL_CONFIG", "")
	envPath := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("CARDIO_INTEL_EXPERIMENT_VERSION=v7\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("CARDIO_INTEL_EXPERIMENT_VERSION") })

	opts := &rootOptions{envFile: envPath}
	require.NoError(t, opts.init())
	assert.Equal(t, "v7", opts.cfg.Recommendations.ExperimentVersion)
	require.NotNil(t, opts.logger)

	missing := &rootOptions{envFile: filepath.Join(t.TempDir(), "absent.env")}
	require.NoError(t, missing.init())
}

func TestBuildAppWithSQLiteOutcomes(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Path = filepath.Join(t.TempDir(), "missing-model.json")
	cfg.Outcomes.Driver = "sqlite"
	cfg.Outcomes.Path = filepath.Join(t.TempDir(), "outcomes.db")
	cfg.Cache.Enabled = true

	var states []classifier.State
	application, err := buildApp(&cfg, utils.NewLogger("error", false), func(s classifier.State) {
		states = append(states, s)
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, application.Close()) })

	_, ok := application.cache.(*cache.LRUProvider)
	assert.True(t, ok)

	health, err := application.service.Health(context.Background(), &api.HealthRequest{})
	require.NoError(t, err)
	assert.Equal(t, "NOT_SERVING", health.Status)

	_, err = application.classifier.Info(context.Background())
	require.ErrorIs(t, err, classifier.ErrUnavailable)
	assert.Equal(t, classifier.StateFailed, application.classifier.State())
	assert.Equal(t, []classifier.State{classifier.StateLoading, classifier.StateFailed}, states)
}

func TestBuildAppFallsBackWhenRedisIsDown(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Enabled = true
	cfg.Cache.Backend = cache.BackendRedis
	cfg.Cache.URL = "redis://127.0.0.1:1/0"
	cfg.Cache.DialTimeout = 200 * time.Millisecond
	cfg.Cache.MaxRetries = 0

	application, err := buildApp(&cfg, utils.NewLogger("error", false), nil)
	require.NoError(t, err)
	t.Cleanup(func() { application.Close() })

	_, ok := application.cache.(cache.NoopProvider)
	assert.True(t, ok)
}

func TestOutcomesCommandListsSQLiteLog(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "outcomes.db")
	sink, err := repo.NewSQLiteOutcomeLog(dbPath)
	require.NoError(t, err)
	recorded := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, exp := range []string{"rec_ranking_low_v1", "rec_ranking_high_v1", "rec_ranking_low_v1"} {
		require.NoError(t, sink.AppendOutcome(context.Background(), models.OutcomeRecord{
			ID:           string(rune('a' + i)),
			ExperimentID: exp,
			Variant:      "A",
			Outcome:      "completed",
			Status:       "recorded",
			RecordedAt:   recorded.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, sink.Close())

	t.Setenv("CARDIO_INTEL_OUTCOMES_DRIVER", "sqlite")
	t.Setenv("CARDIO_INTEL_OUTCOMES_PATH", dbPath)
	out, err := runRoot(t, "outcomes", "--experiment", "rec_ranking_low_v1")
	require.NoError(t, err)

	var records []models.OutcomeRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "c", records[0].ID)
	assert.Equal(t, "a", records[1].ID)
}

func TestOutcomesCommandNeedsDurableDriver(t *testing.T) {
	t.Setenv("CARDIO_INTEL_OUTCOMES_DRIVER", "memory")
	_, err := runRoot(t, "outcomes")
	require.Error(t, err)
}

func TestBuildAppAppliesConfiguredForecastHorizon(t *testing.T) {
	cfg := config.Default()
	cfg.Trend.ForecastDays = 21

	application, err := buildApp(&cfg, utils.NewLogger("error", false), nil)
	require.NoError(t, err)
	t.Cleanup(func() { application.Close() })

	start := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	samples := make([]models.Observation, 10)
	for i := range samples {
		samples[i] = models.Observation{Timestamp: start.AddDate(0, 0, i), HeartRate: 70 + float64(i)}
	}

	forecast, err := application.service.ForecastTrends(context.Background(), &api.TrendRequest{Samples: samples})
	require.NoError(t, err)
	assert.Equal(t, 21, forecast.ForecastDays)
	require.NotNil(t, forecast.HeartRate)
	assert.Equal(t, 21, forecast.HeartRate.ForecastDay)
}

func TestCoachCommandPrintsPlan(t *testing.T) {
	out, err := runRoot(t, "coach", "--level", "moderate", "--score", "0.55", "--age", "55", "--avg-spo2", "92")
	require.NoError(t, err)

	var plan models.CoachingPlan
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.Equal(t, "guided_improvement", plan.Exercise.PlanType)
	assert.Len(t, plan.Exercise.WeeklySessions, 3)
	assert.Equal(t, 72, plan.Exercise.Profile.BaselineHR)
	assert.Equal(t, 165, plan.Exercise.Profile.MaxSafeHR)
	assert.NotEmpty(t, plan.Diet.OxygenSupportFoods)
}

func TestCoachCommandRejectsUnknownTier(t *testing.T) {
	_, err := runRoot(t, "coach", "--level", "severe", "--age", "50")
	require.Error(t, err)
	assert.Equal(t, utils.KindInvalidArgument, utils.KindOf(err))
}
