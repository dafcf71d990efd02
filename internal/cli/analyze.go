package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/miradorstack/cardio-intel/internal/models"
	"github.com/miradorstack/cardio-intel/internal/services"
)

type analyzeFlags struct {
	window          string
	currentBaseline int
	zThreshold      float64
	forecastDays    int
}

// AnalysisReport is the output of the analyze command.
type AnalysisReport struct {
	Anomalies models.AnomalyReport       `json:"anomalies"`
	Trends    models.TrendForecast       `json:"trends"`
	Baseline  models.BaselineCalibration `json:"baseline"`
}

func newAnalyzeCommand(opts *rootOptions) *cobra.Command {
	flags := &analyzeFlags{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run anomaly, trend and baseline analysis over an observation window file",
		Example: "  cardio-intel analyze --window week.json --current-baseline 72\n" +
			"  cat week.json | cardio-intel analyze --window - --z 2.5",
		RunE: func(cmd *cobra.Command, args []string) error {
			var current *int
			if cmd.Flags().Changed("current-baseline") {
				current = &flags.currentBaseline
			}
			return analyze(cmd, opts, flags, current)
		},
	}
	cmd.Flags().StringVar(&flags.window, "window", "", "Observation window JSON file, or - for stdin")
	cmd.Flags().IntVar(&flags.currentBaseline, "current-baseline", 0, "Current resting heart-rate baseline in BPM")
	cmd.Flags().Float64Var(&flags.zThreshold, "z", 0, "Z-score threshold (1.0-4.0, default from config)")
	cmd.Flags().IntVar(&flags.forecastDays, "forecast-days", 0, "Forecast horizon in days (7-30, default from config)")
	_ = cmd.MarkFlagRequired("window")
	return cmd
}

func analyze(cmd *cobra.Command, opts *rootOptions, flags *analyzeFlags, current *int) error {
	if flags.zThreshold != 0 && (flags.zThreshold < services.MinZThreshold || flags.zThreshold > services.MaxZThreshold) {
		return fmt.Errorf("--z must be within [%.1f, %.1f]", services.MinZThreshold, services.MaxZThreshold)
	}
	days := flags.forecastDays
	if days == 0 {
		days = opts.cfg.Trend.ForecastDays
	}
	if days < services.MinForecastDays || days > services.MaxForecastDays {
		return fmt.Errorf("--forecast-days must be within [%d, %d]", services.MinForecastDays, services.MaxForecastDays)
	}

	window, err := readWindow(cmd.InOrStdin(), flags.window)
	if err != nil {
		return err
	}

	readings := make([]float64, 0, len(window.Samples))
	for _, s := range window.Samples {
		readings = append(readings, s.HeartRate)
	}

	an := newAnalyzers(opts.cfg, opts.logger)
	report := AnalysisReport{
		Anomalies: an.detector.Detect(window.Samples, flags.zThreshold),
		Trends:    an.forecaster.Forecast(window.Samples, days),
		Baseline:  an.calibrator.Calibrate(readings, current),
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func readWindow(stdin io.Reader, path string) (models.ObservationWindow, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return models.ObservationWindow{}, fmt.Errorf("read window: %w", err)
	}
	var window models.ObservationWindow
	if err := json.Unmarshal(data, &window); err != nil {
		return models.ObservationWindow{}, fmt.Errorf("parse window %s: %w", path, err)
	}
	return window, nil
}
