// Package normalize maps raw test exports onto canonical TestRecords.
package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/tigerroll/vsatsla/internal/domain/model"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/exception"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/logger"
)

const moduleName = "normalize"

// DefaultTimestampLayout matches the measurement system export. Fractional seconds are accepted.
const DefaultTimestampLayout = "2006-01-02 15:04:05"

// Options controls normalization.
type Options struct {
	TimestampLayout string
	// Location the export timestamps are expressed in. Defaults to UTC.
	Location *time.Location
	// Dedupe drops repeated (site, down, up, timestamp, hour) records, keeping the first.
	Dedupe bool
}

// Normalizer converts RawTables into TestRecords.
type Normalizer struct {
	opts Options
	log  *logger.Logger
}

// New creates a Normalizer, filling unset options with defaults.
func New(opts Options) *Normalizer {
	if opts.TimestampLayout == "" {
		opts.TimestampLayout = DefaultTimestampLayout
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Normalizer{opts: opts, log: logger.With(moduleName)}
}

// Normalize converts one export. A missing required column fails with a SchemaError;
// the first malformed value fails with a ParseError locating the row.
func (n *Normalizer) Normalize(table model.RawTable) ([]model.TestRecord, error) {
	records, err := n.normalize(table)
	if err != nil {
		return nil, err
	}
	if n.opts.Dedupe {
		records = n.dedupe(records)
	}
	return records, nil
}

// NormalizeAll converts several exports and concatenates them in order.
// A SchemaError aborts immediately. ParseErrors are collected so every bad file is reported.
func (n *Normalizer) NormalizeAll(tables ...model.RawTable) ([]model.TestRecord, error) {
	var (
		all  []model.TestRecord
		errs *multierror.Error
	)
	for _, t := range tables {
		records, err := n.normalize(t)
		if err != nil {
			if errors.Is(err, exception.ErrSchema) {
				return nil, err
			}
			errs = multierror.Append(errs, err)
			continue
		}
		n.log.Debugf("%s: %d records", t.Source, len(records))
		all = append(all, records...)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	if n.opts.Dedupe {
		all = n.dedupe(all)
	}
	return all, nil
}

func (n *Normalizer) normalize(table model.RawTable) ([]model.TestRecord, error) {
	idx := columnIndex(table.Columns)
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, exception.NewSchemaError(moduleName, table.Source, sourceHeader(col))
		}
	}

	records := make([]model.TestRecord, 0, len(table.Rows))
	for i, row := range table.Rows {
		if blankRow(row) {
			continue
		}
		rec, err := n.parseRow(table.Source, table.FileRow(i), row, idx)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (n *Normalizer) parseRow(source string, rowNum int, row []string, idx map[string]int) (model.TestRecord, error) {
	cell := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	parseErr := func(col, value string, err error) error {
		return exception.NewParseError(moduleName, source, rowNum, sourceHeader(col), value, err)
	}

	rec := model.TestRecord{
		SiteID:       cell(colSiteID),
		Hour:         cell(colHour),
		Profile:      cell(colProfile),
		ErrorMessage: cell(colErrorMessage),
	}

	loc, err := LocationCode(rec.SiteID)
	if err != nil {
		return rec, parseErr(colSiteID, rec.SiteID, err)
	}
	rec.LocationCode = loc

	raw := cell(colTimestamp)
	ts, err := time.ParseInLocation(n.opts.TimestampLayout, raw, n.opts.Location)
	if err != nil {
		return rec, parseErr(colTimestamp, raw, err)
	}
	rec.Timestamp = ts

	pid, err := ProfileID(rec.Profile)
	if err != nil {
		return rec, parseErr(colProfile, rec.Profile, err)
	}
	rec.ProfileID = pid

	if rec.Result, err = ParseResult(cell(colResult)); err != nil {
		return rec, parseErr(colResult, cell(colResult), err)
	}
	if rec.TestType, err = ParseTestType(cell(colTestType)); err != nil {
		return rec, parseErr(colTestType, cell(colTestType), err)
	}

	rates := []struct {
		col string
		dst *float64
	}{
		{colExpectedDownRate, &rec.ExpectedDownRate},
		{colActualDownRate, &rec.ActualDownRate},
		{colExpectedUpRate, &rec.ExpectedUpRate},
		{colActualUpRate, &rec.ActualUpRate},
	}
	for _, r := range rates {
		v, err := parseRate(cell(r.col))
		if err != nil {
			// Rates are only meaningful on succeeded tests.
			if rec.Result == model.ResultSucceeded {
				return rec, parseErr(r.col, cell(r.col), err)
			}
			v = 0
		}
		*r.dst = v
	}
	return rec, nil
}

func (n *Normalizer) dedupe(records []model.TestRecord) []model.TestRecord {
	type key struct {
		site   string
		dn, up float64
		ts     int64
		hour   string
	}
	seen := make(map[key]struct{}, len(records))
	out := records[:0:0]
	for _, r := range records {
		k := key{r.SiteID, r.ActualDownRate, r.ActualUpRate, r.Timestamp.UnixNano(), r.Hour}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	if dropped := len(records) - len(out); dropped > 0 {
		n.log.Infof("dropped %d duplicate records", dropped)
	}
	return out
}

// LocationCode extracts the numeric location prefix of a site identifier ("1234-A" gives 1234).
func LocationCode(siteID string) (int, error) {
	prefix, _, _ := strings.Cut(siteID, "-")
	code, err := strconv.Atoi(strings.TrimSpace(prefix))
	if err != nil {
		return 0, fmt.Errorf("site identifier %q has no numeric location prefix", siteID)
	}
	return code, nil
}

// ProfileID extracts the integer token following "Down:" in a profile descriptor.
func ProfileID(profile string) (int, error) {
	token, ok := model.ProfileRateToken(profile, "Down:")
	if !ok {
		return 0, fmt.Errorf("profile %q has no Down: rate", profile)
	}
	whole, _, _ := strings.Cut(token, ".")
	id, err := strconv.Atoi(whole)
	if err != nil {
		return 0, fmt.Errorf("profile %q: %w", profile, err)
	}
	return id, nil
}

// ParseResult maps an export result value onto a Result, ignoring case.
func ParseResult(s string) (model.Result, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "succeeded":
		return model.ResultSucceeded, nil
	case "failed":
		return model.ResultFailed, nil
	case "error":
		return model.ResultError, nil
	}
	return "", fmt.Errorf("unknown result %q", s)
}

// ParseTestType maps an export test type onto a TestType, ignoring case. Spanish labels are accepted.
func ParseTestType(s string) (model.TestType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scheduled", "programada", "programado":
		return model.TestTypeScheduled, nil
	case "ondemand", "on demand", "on-demand", "bajo demanda":
		return model.TestTypeOnDemand, nil
	case "monitoring", "monitoreo":
		return model.TestTypeMonitoring, nil
	}
	return "", fmt.Errorf("unknown test type %q", s)
}

// parseRate accepts "12.5", "12,5" and "1,234.5".
func parseRate(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("empty rate")
	}
	if strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}
	return strconv.ParseFloat(s, 64)
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
