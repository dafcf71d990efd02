package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

func newOutcomesCommand(opts *rootOptions) *cobra.Command {
	var (
		experiment string
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "outcomes",
		Short: "List recorded recommendation outcomes, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			if !strings.EqualFold(opts.cfg.Outcomes.Driver, "sqlite") {
				return fmt.Errorf("outcomes driver %q keeps nothing between runs; configure sqlite", opts.cfg.Outcomes.Driver)
			}
			sink, err := openOutcomeSink(opts.cfg.Outcomes, opts.logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := sink.Close(); err != nil {
					opts.logger.Warn("close outcome log", slog.Any("error", err))
				}
			}()

			records, err := sink.ListOutcomes(cmd.Context(), experiment, limit)
			if err != nil {
				return fmt.Errorf("list outcomes: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	}
	cmd.Flags().StringVar(&experiment, "experiment", "", "Only list outcomes of this experiment id")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of records")
	return cmd
}
