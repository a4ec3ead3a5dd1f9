package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tigerroll/vsatsla/internal/app"
	"github.com/tigerroll/vsatsla/pkg/batch/core/metrics"
	inframetrics "github.com/tigerroll/vsatsla/pkg/batch/infrastructure/metrics"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/logger"
)

const stopTimeout = 15 * time.Second

// sourceFlags are the input and selection flags shared by every subcommand.
type sourceFlags struct {
	tests     []string
	tickets   string
	locations string
	profiles  []string
	types     []string
	excluded  []string
}

func addSourceFlags(cmd *cobra.Command, s *sourceFlags) {
	f := cmd.Flags()
	f.StringArrayVar(&s.tests, "tests", nil, "test export (.xlsx or .csv), or a prefix ending in / for every export under it; repeatable")
	f.StringVar(&s.tickets, "tickets", "", "outage ticket file (default: ticket table when configured)")
	f.StringVar(&s.locations, "locations", "", "contracted location list (.xlsx or .csv)")
	f.StringArrayVar(&s.profiles, "profile", nil, "speed profile to evaluate; repeatable (default: all)")
	f.StringArrayVar(&s.types, "type", nil, "test type to keep; repeatable (default: all)")
	f.StringArrayVar(&s.excluded, "exclude", nil, "site identifier to drop; repeatable")
	_ = cmd.MarkFlagRequired("tests")
}

func (s *sourceFlags) request() app.Request {
	return app.Request{
		Tests:         s.tests,
		Tickets:       s.tickets,
		Locations:     s.locations,
		Profiles:      s.profiles,
		TestTypes:     s.types,
		ExcludedSites: s.excluded,
	}
}

// parsePairs splits "key=value" arguments.
func parsePairs(flag string, pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("--%s %q: expected key=value", flag, p)
		}
		out[k] = v
	}
	return out, nil
}

func loadEmbeddedConfig() ([]byte, error) {
	if globalFlags.configPath == "" {
		return embeddedConfig, nil
	}
	data, err := os.ReadFile(globalFlags.configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return data, nil
}

// withRunner starts the application for the duration of fn.
func withRunner(cmd *cobra.Command, overrides app.Overrides, fn func(ctx context.Context, runner *app.Runner) error) error {
	embedded, err := loadEmbeddedConfig()
	if err != nil {
		return err
	}
	overrides.LogLevel = globalFlags.logLevel
	overrides.EnableMetrics = globalFlags.metricsDump

	var (
		runner   *app.Runner
		recorder metrics.MetricRecorder
	)
	a := app.New(app.Params{
		EnvFilePath:    globalFlags.envFile,
		EmbeddedConfig: embedded,
		Overrides:      overrides,
		DBProviders:    app.DBProviderOptions(globalFlags.dbAdaptors),
	}, &runner, &recorder)
	if err := a.Err(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := a.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := a.Stop(stopCtx); err != nil {
			logger.Warnf("Application stop failed: %v", err)
		}
	}()

	runErr := fn(ctx, runner)
	if globalFlags.metricsDump {
		if err := dumpMetrics(cmd.ErrOrStderr(), recorder); err != nil {
			logger.Warnf("Metrics dump failed: %v", err)
		}
	}
	return runErr
}

func dumpMetrics(w io.Writer, recorder metrics.MetricRecorder) error {
	prom, ok := recorder.(*inframetrics.PrometheusRecorder)
	if !ok {
		return fmt.Errorf("metrics recorder %T has no text exposition", recorder)
	}
	return prom.WriteText(w)
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
