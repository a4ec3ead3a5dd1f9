package writer

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tigerroll/vsatsla/internal/domain/model"
	"github.com/tigerroll/vsatsla/pkg/batch/adapter/storage"
	config "github.com/tigerroll/vsatsla/pkg/batch/core/config"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/exception"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/logger"
)

// XLSXFileName is the workbook written for each run.
const XLSXFileName = "report.xlsx"

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Worksheet names of the report workbook. Each profile adds "<prefix>_hourly".
const (
	SheetEligibility = "eligibility"
	SheetSummary     = "summary"
	hourlySuffix     = "_hourly"
	maxSheetName     = 31
)

var (
	eligibilityHeader = []interface{}{"location_code", "site_id", "site_ids", "test_count", "downtime_days", "profile", "profiles", "profile_conflict", "status", "status_label"}
	summaryHeader     = []interface{}{"profile", "sheet_prefix", "passed_hours", "failed_hours"}
	hourlyHeader      = []interface{}{"hour", "sample_count", "expected_down_rate", "expected_up_rate", "p5_down_rate", "p5_up_rate", "dn_pass", "up_pass", "pass", "dn_pass_count", "up_pass_count", "dn_pass_pct", "up_pass_pct"}
)

// XLSXSink writes the report as one workbook.
type XLSXSink struct {
	target storageTarget
}

// NewXLSXSink creates a workbook sink uploading through the report's storage connection.
func NewXLSXSink(resolver storage.StorageConnectionResolver, cfg config.ReportConfig) *XLSXSink {
	return &XLSXSink{target: storageTarget{resolver: resolver, storageRef: cfg.StorageRef, bucket: cfg.Bucket, baseDir: cfg.OutputBaseDir}}
}

func (s *XLSXSink) Name() string { return SinkXLSX }

// Write implements report.Sink.
func (s *XLSXSink) Write(ctx context.Context, r *model.Report) error {
	data, err := Workbook(r)
	if err != nil {
		return err
	}
	conn, err := s.target.connection(ctx)
	if err != nil {
		return err
	}
	if err := s.target.upload(ctx, conn, r.RunID, XLSXFileName, data, xlsxContentType); err != nil {
		return err
	}
	logger.Infof("XLSX report '%s' uploaded (%d bytes, %d profiles).", r.RunID, len(data), len(r.Profiles))
	return nil
}

// Workbook renders the report: the eligibility and summary sheets followed by one hourly sheet per profile.
func Workbook(r *model.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetEligibility); err != nil {
		return nil, workbookError(err)
	}
	rows := make([][]interface{}, 0, len(r.Eligibility))
	for _, e := range r.Eligibility {
		rows = append(rows, []interface{}{
			e.LocationCode, e.SiteID, strings.Join(e.SiteIDs, ","), e.TestCount, e.DowntimeDays,
			e.Profile, strings.Join(e.Profiles, ","), e.ProfileConflict, string(e.Status), e.StatusLabel,
		})
	}
	if err := writeSheet(f, SheetEligibility, eligibilityHeader, rows); err != nil {
		return nil, workbookError(err)
	}

	used := map[string]bool{SheetEligibility: true, SheetSummary: true}
	summary := make([][]interface{}, 0, len(r.Profiles))
	for _, p := range r.Profiles {
		summary = append(summary, []interface{}{p.Profile, p.SheetPrefix, p.Summary.PassedHours, p.Summary.FailedHours})
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return nil, workbookError(err)
	}
	if err := writeSheet(f, SheetSummary, summaryHeader, summary); err != nil {
		return nil, workbookError(err)
	}

	for _, p := range r.Profiles {
		name := HourlySheetName(p.SheetPrefix, used)
		used[name] = true
		hourly := make([][]interface{}, 0, len(p.Rows))
		for _, h := range p.Rows {
			hourly = append(hourly, []interface{}{
				h.Hour, h.SampleCount, h.ExpectedDownRate, h.ExpectedUpRate, h.P5DownRate, h.P5UpRate,
				h.DnPass, h.UpPass, h.Pass, h.DnPassCount, h.UpPassCount, h.DnPassPct, h.UpPassPct,
			})
		}
		if _, err := f.NewSheet(name); err != nil {
			return nil, workbookError(err)
		}
		if err := writeSheet(f, name, hourlyHeader, hourly); err != nil {
			return nil, workbookError(err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, workbookError(err)
	}
	return buf.Bytes(), nil
}

// HourlySheetName returns "<prefix>_hourly" made a valid, unused worksheet name.
func HourlySheetName(prefix string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, prefix)
	if clean == "" {
		clean = "profile"
	}
	base := truncateRunes(clean, maxSheetName-len(hourlySuffix)) + hourlySuffix
	name := base
	for i := 2; used[name]; i++ {
		suffix := fmt.Sprintf("_%d", i)
		name = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
	return name
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func workbookError(err error) error {
	return exception.NewEngineError(moduleName, exception.KindIO, "failed to build report workbook", err)
}
