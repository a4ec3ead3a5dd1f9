package reader_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tigerroll/vsatsla/internal/domain/model"
	"github.com/tigerroll/vsatsla/internal/normalize"
	"github.com/tigerroll/vsatsla/internal/step/reader"
	"github.com/tigerroll/vsatsla/pkg/batch/adapter/storage"
	"github.com/tigerroll/vsatsla/pkg/batch/adapter/storage/local"
	config "github.com/tigerroll/vsatsla/pkg/batch/core/config"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/exception"
	"github.com/tigerroll/vsatsla/pkg/batch/test"
)

// workbook writes rows to sheet starting at A1 and returns the file bytes.
func workbook(t *testing.T, sheet string, rows ...[]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for i, r := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := make([]interface{}, len(r))
		for j, v := range r {
			values[j] = v
		}
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &values))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func exportWorkbook(t *testing.T) []byte {
	rec := test.NewSucceeded("12-A", "Down:12 / Up:3", time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC), 13, 3)
	return workbook(t, "ReportSheet",
		[]string{"Reporte de pruebas"},
		test.ExportHeader,
		test.ExportRow(rec),
	)
}

func newLoader(t *testing.T, files map[string][]byte, tickets reader.TicketFinder) *reader.Loader {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, data, 0o644))
	}
	cfg := config.NewConfig()
	cfg.Storage = map[string]interface{}{"local": map[string]interface{}{"type": "local", "base_dir": dir}}
	cfg.Vsat.Source.Locations = []int{99}
	cfg.Vsat.Source.Tickets.DatabaseRef = "ops"
	resolver := storage.NewConnectionResolver(storage.ConnectionResolverParams{
		Providers: []storage.StorageProvider{local.NewLocalProvider(cfg)},
		Cfg:       cfg,
	})
	return reader.NewLoader(resolver, cfg.Vsat.Source, time.UTC, tickets)
}

func TestReadXLSX_HeaderRowTwo(t *testing.T) {
	table, err := reader.ReadXLSX(bytes.NewReader(exportWorkbook(t)), "op.xlsx", reader.XLSXOptions{Sheet: "ReportSheet", HeaderRow: 2})
	require.NoError(t, err)
	assert.Equal(t, test.ExportHeader, table.Columns)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "12-A", table.Rows[0][0])
	assert.Equal(t, "2024-03-05 09:30:00", table.Rows[0][6])
}

func TestReadXLSX_DateTypedCells(t *testing.T) {
	rec := test.NewSucceeded("12-A", "Down:12 / Up:3", time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC), 13, 3)
	row := test.ExportRow(rec)
	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v
	}
	values[6] = rec.Timestamp
	values[7] = rec.Timestamp

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "ReportSheet"))
	require.NoError(t, f.SetSheetRow("ReportSheet", "A1", &[]interface{}{"Reporte de pruebas"}))
	header := make([]interface{}, len(test.ExportHeader))
	for i, h := range test.ExportHeader {
		header[i] = h
	}
	require.NoError(t, f.SetSheetRow("ReportSheet", "A2", &header))
	require.NoError(t, f.SetSheetRow("ReportSheet", "A3", &values))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	table, err := reader.ReadXLSX(bytes.NewReader(buf.Bytes()), "op.xlsx", reader.XLSXOptions{
		Sheet:       "ReportSheet",
		HeaderRow:   2,
		DateColumns: normalize.DateHeaders(""),
	})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "2024-03-05 09:30:00", table.Rows[0][6])
	assert.Equal(t, "09:30:00", table.Rows[0][7])
	assert.Equal(t, 3, table.FirstRow)

	recs, err := normalize.New(normalize.Options{}).Normalize(table)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, rec.Timestamp.Equal(recs[0].Timestamp))
}

func TestReadXLSX_ParseErrorRowIsSheetRow(t *testing.T) {
	bad := test.ExportRow(test.NewSucceeded("12-A", "Down:12 / Up:3", time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC), 13, 3))
	bad[6] = "yesterday"
	data := workbook(t, "ReportSheet", []string{"Reporte de pruebas"}, test.ExportHeader, bad)

	table, err := reader.ReadXLSX(bytes.NewReader(data), "op.xlsx", reader.XLSXOptions{Sheet: "ReportSheet", HeaderRow: 2})
	require.NoError(t, err)
	_, err = normalize.New(normalize.Options{}).Normalize(table)
	var pe *exception.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.Row)
	assert.Equal(t, "Fecha de la Prueba", pe.Column)
}

func TestReadXLSX_MissingSheet(t *testing.T) {
	_, err := reader.ReadXLSX(bytes.NewReader(exportWorkbook(t)), "op.xlsx", reader.XLSXOptions{Sheet: "Hoja1", HeaderRow: 2})
	assert.ErrorIs(t, err, exception.ErrSchema)
}

func TestReadCSV(t *testing.T) {
	data := "\ufeffsite,opened_at,resolved_at\n12-A,2024-03-01 08:00:00,\n"
	table, err := reader.ReadCSV(strings.NewReader(data), "tickets.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"site", "opened_at", "resolved_at"}, table.Columns)
	assert.Equal(t, [][]string{{"12-A", "2024-03-01 08:00:00", ""}}, table.Rows)
}

func TestFormatOf(t *testing.T) {
	f, err := reader.FormatOf("dir/Report.XLSX")
	require.NoError(t, err)
	assert.Equal(t, reader.FormatXLSX, f)
	_, err = reader.FormatOf("report.pdf")
	assert.ErrorIs(t, err, exception.ErrConfig)
}

func TestLoader_LoadTests(t *testing.T) {
	l := newLoader(t, map[string][]byte{
		"op.xlsx":    exportWorkbook(t),
		"nonop.xlsx": exportWorkbook(t),
	}, nil)

	tables, err := l.LoadTests(context.Background(), []string{"op.xlsx", "nonop.xlsx"})
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "nonop.xlsx", tables[1].Source)

	_, err = l.LoadTests(context.Background(), []string{"op.xlsx", "missing.xlsx", "also-missing.csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.xlsx")
	assert.Contains(t, err.Error(), "also-missing.csv")

	_, err = l.LoadTests(context.Background(), nil)
	assert.ErrorIs(t, err, exception.ErrEmptyInput)
}

func TestLoader_LoadTests_Prefix(t *testing.T) {
	l := newLoader(t, map[string][]byte{
		"march/b.xlsx":     exportWorkbook(t),
		"march/a.xlsx":     exportWorkbook(t),
		"march/notes.md":   []byte("not an export"),
		"april/other.xlsx": exportWorkbook(t),
	}, nil)

	tables, err := l.LoadTests(context.Background(), []string{"march/"})
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "march/a.xlsx", tables[0].Source)
	assert.Equal(t, "march/b.xlsx", tables[1].Source)

	_, err = l.LoadTests(context.Background(), []string{"may/"})
	assert.ErrorIs(t, err, exception.ErrEmptyInput)
}

func TestLoader_LoadLocations(t *testing.T) {
	l := newLoader(t, map[string][]byte{
		"locations.csv": []byte("Location\n12\n7-B\n\n12\n"),
		"bare.csv":      []byte("40\n41\n"),
		"bad.csv":       []byte("location\nabc\n"),
	}, nil)
	ctx := context.Background()

	got, err := l.LoadLocations(ctx, "locations.csv")
	require.NoError(t, err)
	assert.Equal(t, []int{7, 12, 99}, got)

	got, err = l.LoadLocations(ctx, "bare.csv")
	require.NoError(t, err)
	assert.Equal(t, []int{40, 41, 99}, got)

	got, err = l.LoadLocations(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []int{99}, got)

	_, err = l.LoadLocations(ctx, "bad.csv")
	assert.ErrorIs(t, err, exception.ErrParse)
}

type mockTicketFinder struct {
	mock.Mock
}

func (m *mockTicketFinder) FindTickets(ctx context.Context) ([]model.OutageTicket, error) {
	args := m.Called(ctx)
	tickets, _ := args.Get(0).([]model.OutageTicket)
	return tickets, args.Error(1)
}

func TestLoader_LoadTickets(t *testing.T) {
	ticketsXLSX := workbook(t, "Tickets",
		[]string{"Site", "Opened_At", "Resolved_At"},
		[]string{"12-A", "2024-03-01 08:00:00", "2024-03-03 09:00:00"},
		[]string{"7", "2024-03-02 08:00:00"},
	)
	finder := &mockTicketFinder{}
	stored := []model.OutageTicket{{SiteID: "1-A", OpenedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}}
	finder.On("FindTickets", mock.Anything).Return(stored, nil).Once()

	l := newLoader(t, map[string][]byte{
		"tickets.xlsx": ticketsXLSX,
		"bad.csv":      []byte("site,opened_at,resolved_at\n12-A,yesterday,\n"),
	}, finder)
	ctx := context.Background()

	got, err := l.LoadTickets(ctx, "tickets.xlsx")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].DowntimeDays(time.Now()))
	assert.Nil(t, got[1].ResolvedAt)

	fromDB, err := l.LoadTickets(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, stored, fromDB)
	finder.AssertExpectations(t)

	_, err = l.LoadTickets(ctx, "bad.csv")
	require.ErrorIs(t, err, exception.ErrParse)
	var pe *exception.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Row)
	assert.Equal(t, "opened_at", pe.Column)
}

func TestParseTickets_MissingColumn(t *testing.T) {
	table := model.RawTable{Source: "t.csv", Columns: []string{"site", "opened_at"}}
	_, err := reader.ParseTickets(table, config.NewConfig().Vsat.Source.Tickets, time.UTC)
	assert.ErrorIs(t, err, exception.ErrSchema)
}
