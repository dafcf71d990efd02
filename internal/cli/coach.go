package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/miradorstack/cardio-intel/internal/coach"
	"github.com/miradorstack/cardio-intel/internal/models"
)

func newCoachCommand(opts *rootOptions) *cobra.Command {
	var (
		in    coach.Input
		level string
		vital = map[string]*int{
			"baseline-hr":  new(int),
			"max-safe-hr":  new(int),
			"avg-spo2":     new(int),
			"recovery-min": new(int),
		}
	)
	cmd := &cobra.Command{
		Use:   "coach",
		Short: "Print an exercise plan and diet guidance for a risk tier",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.RiskLevel = models.RiskLevel(level)
			// unset vitals stay nil so the plan falls back to population defaults
			set := func(name string) *int {
				if cmd.Flags().Changed(name) {
					return vital[name]
				}
				return nil
			}
			in.BaselineHR = set("baseline-hr")
			in.MaxSafeHR = set("max-safe-hr")
			in.AvgSpO2 = set("avg-spo2")
			in.RecoveryMinutes = set("recovery-min")

			c, err := coach.New(opts.logger)
			if err != nil {
				return err
			}
			plan, err := c.Plan(in)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		},
	}
	cmd.Flags().StringVar(&level, "level", "", "Risk tier: low, moderate, high or critical")
	cmd.Flags().Float64Var(&in.RiskScore, "score", 0, "Risk score in [0, 1]")
	cmd.Flags().IntVar(&in.Age, "age", 0, "Patient age in years")
	cmd.Flags().IntVar(vital["baseline-hr"], "baseline-hr", 0, "Resting heart rate (default 72)")
	cmd.Flags().IntVar(vital["max-safe-hr"], "max-safe-hr", 0, "Maximum safe heart rate (default 220 - age)")
	cmd.Flags().IntVar(vital["avg-spo2"], "avg-spo2", 0, "Average SpO2 percent")
	cmd.Flags().IntVar(vital["recovery-min"], "recovery-min", 0, "Post-session recovery time in minutes")
	_ = cmd.MarkFlagRequired("level")
	_ = cmd.MarkFlagRequired("age")
	return cmd
}
