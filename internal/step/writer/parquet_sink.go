package writer

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/xitongsys/parquet-go/parquet"
	pqwriter "github.com/xitongsys/parquet-go/writer"

	"github.com/tigerroll/vsatsla/internal/domain/model"
	"github.com/tigerroll/vsatsla/pkg/batch/adapter/storage"
	config "github.com/tigerroll/vsatsla/pkg/batch/core/config"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/exception"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/logger"
)

// EligibilityRow is the Parquet schema of eligibility.parquet.
type EligibilityRow struct {
	RunID           string `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	LocationCode    int64  `parquet:"name=location_code, type=INT64"`
	SiteID          string `parquet:"name=site_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	SiteIDs         string `parquet:"name=site_ids, type=BYTE_ARRAY, convertedtype=UTF8"`
	TestCount       int64  `parquet:"name=test_count, type=INT64"`
	DowntimeDays    int64  `parquet:"name=downtime_days, type=INT64"`
	Profile         string `parquet:"name=profile, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Profiles        string `parquet:"name=profiles, type=BYTE_ARRAY, convertedtype=UTF8"`
	ProfileConflict bool   `parquet:"name=profile_conflict, type=BOOLEAN"`
	Status          string `parquet:"name=status, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

// HourlyRow is the Parquet schema of the per-profile hourly tables.
type HourlyRow struct {
	RunID            string  `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Profile          string  `parquet:"name=profile, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Hour             int32   `parquet:"name=hour, type=INT32"`
	SampleCount      int64   `parquet:"name=sample_count, type=INT64"`
	ExpectedDownRate float64 `parquet:"name=expected_down_rate, type=DOUBLE"`
	ExpectedUpRate   float64 `parquet:"name=expected_up_rate, type=DOUBLE"`
	P5DownRate       float64 `parquet:"name=p5_down_rate, type=DOUBLE"`
	P5UpRate         float64 `parquet:"name=p5_up_rate, type=DOUBLE"`
	DnPass           bool    `parquet:"name=dn_pass, type=BOOLEAN"`
	UpPass           bool    `parquet:"name=up_pass, type=BOOLEAN"`
	Pass             bool    `parquet:"name=pass, type=BOOLEAN"`
	DnPassCount      int64   `parquet:"name=dn_pass_count, type=INT64"`
	UpPassCount      int64   `parquet:"name=up_pass_count, type=INT64"`
	DnPassPct        float64 `parquet:"name=dn_pass_pct, type=DOUBLE"`
	UpPassPct        float64 `parquet:"name=up_pass_pct, type=DOUBLE"`
}

// SummaryRow is the Parquet schema of summary.parquet.
type SummaryRow struct {
	RunID       string `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Profile     string `parquet:"name=profile, type=BYTE_ARRAY, convertedtype=UTF8"`
	SheetPrefix string `parquet:"name=sheet_prefix, type=BYTE_ARRAY, convertedtype=UTF8"`
	PassedHours int64  `parquet:"name=passed_hours, type=INT64"`
	FailedHours int64  `parquet:"name=failed_hours, type=INT64"`
}

// ParquetSink writes every report table as its own Parquet file.
type ParquetSink struct {
	target      storageTarget
	compression string
}

// NewParquetSink creates a Parquet sink. The compression name is checked on write.
func NewParquetSink(resolver storage.StorageConnectionResolver, cfg config.ReportConfig) *ParquetSink {
	return &ParquetSink{
		target:      storageTarget{resolver: resolver, storageRef: cfg.StorageRef, bucket: cfg.Bucket, baseDir: cfg.OutputBaseDir},
		compression: cfg.Compression,
	}
}

func (s *ParquetSink) Name() string { return SinkParquet }

// Write implements report.Sink. Every table is attempted; failures are returned together.
func (s *ParquetSink) Write(ctx context.Context, r *model.Report) error {
	codec, err := compressionCodec(s.compression)
	if err != nil {
		return exception.NewEngineError(moduleName, exception.KindConfig, fmt.Sprintf("invalid parquet compression '%s'", s.compression), err)
	}
	conn, err := s.target.connection(ctx)
	if err != nil {
		return err
	}

	files := make(map[string]func() ([]byte, error))
	order := []string{"eligibility.parquet", "summary.parquet"}
	files["eligibility.parquet"] = func() ([]byte, error) { return encode(new(EligibilityRow), eligibilityRows(r), codec) }
	files["summary.parquet"] = func() ([]byte, error) { return encode(new(SummaryRow), summaryRows(r), codec) }
	used := map[string]bool{}
	for _, p := range r.Profiles {
		name := HourlySheetName(p.SheetPrefix, used)
		used[name] = true
		file := name + ".parquet"
		order = append(order, file)
		files[file] = func() ([]byte, error) { return encode(new(HourlyRow), hourlyRows(r.RunID, p), codec) }
	}

	var errs *multierror.Error
	for _, file := range order {
		data, err := files[file]()
		if err != nil {
			errs = multierror.Append(errs, exception.NewEngineError(moduleName, exception.KindIO, fmt.Sprintf("failed to encode %s", file), err))
			continue
		}
		if err := s.target.upload(ctx, conn, r.RunID, file, data, "application/octet-stream"); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		logger.Debugf("Parquet table %s of report '%s' uploaded (%d bytes).", file, r.RunID, len(data))
	}
	if err := errs.ErrorOrNil(); err != nil {
		return err
	}
	logger.Infof("Parquet report '%s' uploaded (%d tables).", r.RunID, len(order))
	return nil
}

// encode writes rows into an in-memory Parquet file with one row group.
func encode[T any](prototype *T, rows []T, codec parquet.CompressionCodec) (data []byte, err error) {
	buf := new(bytes.Buffer)
	groupSize := int64(len(rows))
	if groupSize == 0 {
		groupSize = 1
	}
	pw, err := pqwriter.NewParquetWriterFromWriter(buf, prototype, groupSize)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = codec
	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			return nil, err
		}
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parquet writer panicked during WriteStop: %v", rec)
		}
	}()
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func compressionCodec(name string) (parquet.CompressionCodec, error) {
	switch strings.ToUpper(name) {
	case "SNAPPY":
		return parquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return parquet.CompressionCodec_GZIP, nil
	case "NONE", "":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	}
	return 0, fmt.Errorf("unsupported compression type: %s", name)
}

func eligibilityRows(r *model.Report) []EligibilityRow {
	rows := make([]EligibilityRow, 0, len(r.Eligibility))
	for _, e := range r.Eligibility {
		rows = append(rows, EligibilityRow{
			RunID:           r.RunID,
			LocationCode:    int64(e.LocationCode),
			SiteID:          e.SiteID,
			SiteIDs:         strings.Join(e.SiteIDs, ","),
			TestCount:       int64(e.TestCount),
			DowntimeDays:    int64(e.DowntimeDays),
			Profile:         e.Profile,
			Profiles:        strings.Join(e.Profiles, ","),
			ProfileConflict: e.ProfileConflict,
			Status:          string(e.Status),
		})
	}
	return rows
}

func summaryRows(r *model.Report) []SummaryRow {
	rows := make([]SummaryRow, 0, len(r.Profiles))
	for _, p := range r.Profiles {
		rows = append(rows, SummaryRow{
			RunID:       r.RunID,
			Profile:     p.Profile,
			SheetPrefix: p.SheetPrefix,
			PassedHours: int64(p.Summary.PassedHours),
			FailedHours: int64(p.Summary.FailedHours),
		})
	}
	return rows
}

func hourlyRows(runID string, p model.ProfileResult) []HourlyRow {
	rows := make([]HourlyRow, 0, len(p.Rows))
	for _, h := range p.Rows {
		rows = append(rows, HourlyRow{
			RunID:            runID,
			Profile:          p.Profile,
			Hour:             int32(h.Hour),
			SampleCount:      int64(h.SampleCount),
			ExpectedDownRate: h.ExpectedDownRate,
			ExpectedUpRate:   h.ExpectedUpRate,
			P5DownRate:       h.P5DownRate,
			P5UpRate:         h.P5UpRate,
			DnPass:           h.DnPass,
			UpPass:           h.UpPass,
			Pass:             h.Pass,
			DnPassCount:      int64(h.DnPassCount),
			UpPassCount:      int64(h.UpPassCount),
			DnPassPct:        h.DnPassPct,
			UpPassPct:        h.UpPassPct,
		})
	}
	return rows
}
