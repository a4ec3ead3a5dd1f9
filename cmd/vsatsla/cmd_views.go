package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tigerroll/vsatsla/internal/app"
	"github.com/tigerroll/vsatsla/internal/engine"
	"github.com/tigerroll/vsatsla/internal/views"
)

var viewsFlags struct {
	source     sourceFlags
	filters    []string
	throughput string
}

var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "Print the test summary, failure breakdown and progress views as YAML",
	RunE:  runViews,
}

func init() {
	addSourceFlags(viewsCmd, &viewsFlags.source)
	viewsCmd.Flags().StringArrayVar(&viewsFlags.filters, "filter", nil,
		"column=value narrowing the views (site_id, location_code, profile, profile_id, test_type, result, date); repeatable")
	viewsCmd.Flags().StringVar(&viewsFlags.throughput, "throughput", "", "also print the per-test rate points of a direction (down or up)")
}

func runViews(cmd *cobra.Command, _ []string) error {
	filters, err := parsePairs("filter", viewsFlags.filters)
	if err != nil {
		return err
	}
	req := viewsFlags.source.request()
	req.Filters = filters

	return withRunner(cmd, app.Overrides{}, func(ctx context.Context, runner *app.Runner) error {
		res, err := runner.Run(ctx, req)
		if err != nil {
			return err
		}
		if viewsFlags.throughput == "" {
			return writeYAML(cmd.OutOrStdout(), res.Views)
		}
		points, err := runner.Throughput(res, filters, viewsFlags.throughput)
		if err != nil {
			return err
		}
		return writeYAML(cmd.OutOrStdout(), struct {
			Views      engine.ViewSet `yaml:"views"`
			Throughput []views.Point  `yaml:"throughput"`
		}{res.Views, points})
	})
}
