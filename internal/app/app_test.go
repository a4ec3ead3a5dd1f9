package app_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/tigerroll/vsatsla/internal/app"
	"github.com/tigerroll/vsatsla/internal/domain/model"
	config "github.com/tigerroll/vsatsla/pkg/batch/core/config"
	"github.com/tigerroll/vsatsla/pkg/batch/core/metrics"
	inframetrics "github.com/tigerroll/vsatsla/pkg/batch/infrastructure/metrics"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/exception"
	"github.com/tigerroll/vsatsla/pkg/batch/test"
)

const fast = "Down:12 / Up:3"

var day = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

func writeCSV(t *testing.T, path string, rows [][]string) {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.WriteAll(rows))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// workspace writes a test export, a location list and a ticket file to a temp dir.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	rows := [][]string{test.ExportHeader}
	for i := 0; i < 30; i++ {
		rows = append(rows, test.ExportRow(test.NewSucceeded("1-A", fast, test.At(day, 9, i), 15, 4)))
	}
	for i := 0; i < 20; i++ {
		rows = append(rows, test.ExportRow(test.NewSucceeded("2-A", fast, test.At(day, 10, i), 13, 4)))
	}
	for i := 0; i < 5; i++ {
		rows = append(rows, test.ExportRow(test.NewFailed("3-A", fast, test.At(day, 11, i), "timeout")))
	}
	writeCSV(t, filepath.Join(dir, "tests.csv"), rows)
	writeCSV(t, filepath.Join(dir, "locations.csv"), [][]string{{"location"}, {"1"}, {"2"}})
	writeCSV(t, filepath.Join(dir, "tickets.csv"), [][]string{
		{"site", "opened_at", "resolved_at"},
		{"2", "2024-03-01 00:00:00", "2024-03-04 00:00:00"},
	})
	return dir
}

func embedded(dir string) config.EmbeddedConfig {
	return config.EmbeddedConfig(fmt.Sprintf(`
vsat:
  system:
    logging:
      level: ERROR
  report:
    sinks: [xlsx]
storage:
  local:
    type: local
    base_dir: %s
`, dir))
}

func start(t *testing.T, p app.Params, targets ...interface{}) {
	t.Helper()
	if p.DBProviders == nil {
		p.DBProviders = []fx.Option{}
	}
	a := app.New(p, targets...)
	require.NoError(t, a.Err())
	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(func() { _ = a.Stop(context.Background()) })
}

func TestRunner_RunAndPublish(t *testing.T) {
	dir := workspace(t)
	var runner *app.Runner
	start(t, app.Params{EmbeddedConfig: embedded(dir)}, &runner)

	res, err := runner.Run(context.Background(), app.Request{
		Tests:     []string{"tests.csv"},
		Tickets:   "tickets.csv",
		Locations: "locations.csv",
	})
	require.NoError(t, err)

	r := res.Report
	require.Len(t, r.Eligibility, 2)
	assert.Equal(t, model.StatusValid, r.Eligibility[0].Status)
	assert.Equal(t, model.StatusValid, r.Eligibility[1].Status)
	assert.Equal(t, 3, r.Eligibility[1].DowntimeDays)
	require.Len(t, r.Profiles, 1)
	assert.Equal(t, "12X3", r.Profiles[0].SheetPrefix)
	assert.Equal(t, 50, res.Views.Summary.Total)

	points, err := runner.Throughput(res, map[string]string{"site_id": "1-A"}, "Down")
	require.NoError(t, err)
	require.Len(t, points, 30)
	assert.Equal(t, 15.0, points[0].Rate)
	assert.True(t, points[0].Pass)
	_, err = runner.Throughput(res, nil, "sideways")
	assert.ErrorIs(t, err, exception.ErrConfig)

	assert.Equal(t, []string{"xlsx"}, runner.Sinks())
	require.NoError(t, runner.Publish(context.Background(), res))
	_, err = os.Stat(filepath.Join(dir, "reports", r.RunID, "report.xlsx"))
	assert.NoError(t, err)
}

func TestRunner_InvalidRequest(t *testing.T) {
	dir := workspace(t)
	var runner *app.Runner
	start(t, app.Params{EmbeddedConfig: embedded(dir)}, &runner)

	_, err := runner.Run(context.Background(), app.Request{Tests: []string{"tests.csv"}, Filters: map[string]string{"colour": "red"}})
	assert.ErrorIs(t, err, exception.ErrConfig)

	_, err = runner.Run(context.Background(), app.Request{Tests: []string{"tests.csv"}, TestTypes: []string{"bogus"}})
	assert.ErrorIs(t, err, exception.ErrConfig)

	_, err = runner.Run(context.Background(), app.Request{})
	assert.Error(t, err)
}

func TestOverrides(t *testing.T) {
	dir := workspace(t)
	var (
		cfg      *config.Config
		recorder metrics.MetricRecorder
		runner   *app.Runner
	)
	start(t, app.Params{
		EmbeddedConfig: embedded(dir),
		Overrides: app.Overrides{
			Sinks:            []string{"parquet"},
			ReportProperties: map[string]string{"compression": "GZIP", "output_base_dir": "out"},
			EnableMetrics:    true,
		},
	}, &cfg, &recorder, &runner)

	assert.Equal(t, []string{"parquet"}, cfg.Vsat.Report.Sinks)
	assert.Equal(t, "GZIP", cfg.Vsat.Report.Compression)
	assert.Equal(t, "out", cfg.Vsat.Report.OutputBaseDir)
	assert.Equal(t, []string{"parquet"}, runner.Sinks())

	prom, ok := recorder.(*inframetrics.PrometheusRecorder)
	require.True(t, ok)
	_, err := runner.Run(context.Background(), app.Request{Tests: []string{"tests.csv"}})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, prom.WriteText(&buf))
	assert.Contains(t, buf.String(), "vsat_stage_duration_seconds")
}

func TestNew_UnknownSink(t *testing.T) {
	dir := workspace(t)
	a := app.New(app.Params{
		EmbeddedConfig: embedded(dir),
		Overrides:      app.Overrides{Sinks: []string{"carrier-pigeon"}},
		DBProviders:    []fx.Option{},
	}, new(*app.Runner))
	assert.Error(t, a.Err())
}

func TestDBProviderOptions(t *testing.T) {
	assert.Len(t, app.DBProviderOptions(""), 3)
	assert.Len(t, app.DBProviderOptions("sqlite, nope"), 1)
}
