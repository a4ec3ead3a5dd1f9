package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tigerroll/vsatsla/internal/app"
)

var reportFlags struct {
	source     sourceFlags
	sinks      []string
	properties []string
	dryRun     bool
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute eligibility and hourly compliance and publish the report",
	RunE:  runReport,
}

func init() {
	addSourceFlags(reportCmd, &reportFlags.source)
	f := reportCmd.Flags()
	f.StringArrayVar(&reportFlags.sinks, "sink", nil, "xlsx, parquet or database; repeatable (default: vsat.report.sinks)")
	f.StringArrayVar(&reportFlags.properties, "set", nil, "report setting as key=value, e.g. compression=GZIP; repeatable")
	f.BoolVar(&reportFlags.dryRun, "dry-run", false, "print the profile summaries without publishing")
}

func runReport(cmd *cobra.Command, _ []string) error {
	props, err := parsePairs("set", reportFlags.properties)
	if err != nil {
		return err
	}
	overrides := app.Overrides{Sinks: reportFlags.sinks, ReportProperties: props}

	return withRunner(cmd, overrides, func(ctx context.Context, runner *app.Runner) error {
		res, err := runner.Run(ctx, reportFlags.source.request())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run:      %s\n", res.Report.RunID)
		fmt.Fprintf(out, "Sites:    %d (%d valid)\n", len(res.Report.Eligibility), countValid(res))
		for _, s := range res.Report.Summaries {
			fmt.Fprintf(out, "Profile:  %s passed %d, failed %d hour(s)\n", s.Profile, s.PassedHours, s.FailedHours)
		}
		if reportFlags.dryRun {
			return nil
		}
		if err := runner.Publish(ctx, res); err != nil {
			return err
		}
		fmt.Fprintf(out, "Published to %v\n", runner.Sinks())
		return nil
	})
}
