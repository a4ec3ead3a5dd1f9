package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tigerroll/vsatsla/internal/domain/model"
	"github.com/tigerroll/vsatsla/pkg/batch/test"
)

func TestParsePairs(t *testing.T) {
	got, err := parsePairs("filter", []string{"profile=Down:12 / Up:3", " result =failed"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"profile": "Down:12 / Up:3", "result": "failed"}, got)

	_, err = parsePairs("filter", []string{"profile"})
	assert.ErrorContains(t, err, "--filter")
	_, err = parsePairs("set", []string{"=GZIP"})
	assert.Error(t, err)
}

func TestEligibilityCommand(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	rows := [][]string{test.ExportHeader}
	for i := 0; i < 30; i++ {
		rows = append(rows, test.ExportRow(test.NewSucceeded("7-A", "Down:12 / Up:3", test.At(day, 9, i), 15, 4)))
	}
	rows = append(rows, test.ExportRow(test.NewSucceeded("8-A", "Down:12 / Up:3", test.At(day, 9, 0), 15, 4)))
	var buf bytes.Buffer
	require.NoError(t, csv.NewWriter(&buf).WriteAll(rows))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tests.csv"), buf.Bytes(), 0o644))

	cfgPath := filepath.Join(dir, "application.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
vsat:
  system:
    logging:
      level: ERROR
  source:
    storage_ref: input
storage:
  input:
    type: local
    base_dir: %s
`, dir)), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"eligibility", "--config", cfgPath, "--db-adaptors", "sqlite", "--tests", "tests.csv"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.Execute())

	var sites []model.SiteEligibility
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &sites))
	require.Len(t, sites, 2)
	assert.Equal(t, 7, sites[0].LocationCode)
	assert.Equal(t, model.StatusValid, sites[0].Status)
	assert.Equal(t, model.StatusInsufficientSample, sites[1].Status)
}
