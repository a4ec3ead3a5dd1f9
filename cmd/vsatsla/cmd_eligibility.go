package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tigerroll/vsatsla/internal/app"
	"github.com/tigerroll/vsatsla/internal/engine"
)

var eligibilityFlags struct {
	source    sourceFlags
	validOnly bool
}

var eligibilityCmd = &cobra.Command{
	Use:   "eligibility",
	Short: "Print the per-site eligibility table as YAML",
	RunE:  runEligibility,
}

func init() {
	addSourceFlags(eligibilityCmd, &eligibilityFlags.source)
	eligibilityCmd.Flags().BoolVar(&eligibilityFlags.validOnly, "valid-only", false, "list only sites with a valid sample")
}

func runEligibility(cmd *cobra.Command, _ []string) error {
	return withRunner(cmd, app.Overrides{}, func(ctx context.Context, runner *app.Runner) error {
		res, err := runner.Run(ctx, eligibilityFlags.source.request())
		if err != nil {
			return err
		}
		rows := res.Report.Eligibility
		if eligibilityFlags.validOnly {
			rows = rows[:0:0]
			for _, s := range res.Report.Eligibility {
				if s.Valid() {
					rows = append(rows, s)
				}
			}
		}
		return writeYAML(cmd.OutOrStdout(), rows)
	})
}

func countValid(res *engine.Result) int {
	n := 0
	for _, s := range res.Report.Eligibility {
		if s.Valid() {
			n++
		}
	}
	return n
}
