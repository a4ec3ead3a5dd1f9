// Package reader loads test exports, location lists and outage tickets into engine inputs.
package reader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tigerroll/vsatsla/internal/domain/model"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/exception"
)

const moduleName = "reader"

// Format of a tabular source file.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// FormatOf picks the format from the file extension.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	}
	return "", exception.NewEngineErrorf(moduleName, exception.KindConfig, "unsupported source file '%s' (expected .xlsx or .csv)", name)
}

// XLSXOptions selects the part of a workbook holding the table.
type XLSXOptions struct {
	// Sheet is the worksheet name. Empty selects the first sheet.
	Sheet string
	// HeaderRow is the 1-based row carrying the headers. Rows above it are ignored.
	HeaderRow int
	// DateColumns maps headers whose cells may be spreadsheet dates to the layout they are
	// rendered in. Numeric cells under these headers are read as date serials.
	DateColumns map[string]string
}

// ReadXLSX reads one worksheet into a RawTable.
func ReadXLSX(r io.Reader, source string, opts XLSXOptions) (model.RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return model.RawTable{}, exception.NewEngineError(moduleName, exception.KindIO, fmt.Sprintf("failed to open workbook %s", source), err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return model.RawTable{}, exception.NewEngineErrorf(moduleName, exception.KindSchema, "workbook %s has no sheets", source)
		}
		sheet = sheets[0]
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return model.RawTable{}, exception.NewEngineErrorf(moduleName, exception.KindSchema, "sheet %q not found in %s", sheet, source)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return model.RawTable{}, exception.NewEngineError(moduleName, exception.KindIO, fmt.Sprintf("failed to read sheet %q of %s", sheet, source), err)
	}
	t, err := rawTable(source, rows, opts.HeaderRow)
	if err != nil || len(opts.DateColumns) == 0 {
		return t, err
	}
	props, err := f.GetWorkbookProps()
	if err != nil {
		return model.RawTable{}, exception.NewEngineError(moduleName, exception.KindIO, fmt.Sprintf("failed to read workbook properties of %s", source), err)
	}
	date1904 := props.Date1904 != nil && *props.Date1904
	for header, layout := range opts.DateColumns {
		if header == "" {
			continue
		}
		if i, ok := column(t, header); ok {
			renderDates(t, i, layout, date1904)
		}
	}
	return t, nil
}

// renderDates rewrites the date serials of column i in layout. Text cells are left as they are.
func renderDates(t model.RawTable, i int, layout string, date1904 bool) {
	for _, row := range t.Rows {
		if i >= len(row) {
			continue
		}
		serial, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
		if err != nil {
			continue
		}
		ts, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			continue
		}
		row[i] = ts.Format(layout)
	}
}

// ReadCSV reads a comma separated file whose first row is the header.
func ReadCSV(r io.Reader, source string) (model.RawTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return model.RawTable{}, exception.NewParseError(moduleName, source, perr.Line, "", "", err)
		}
		return model.RawTable{}, exception.NewEngineError(moduleName, exception.KindIO, fmt.Sprintf("failed to read %s", source), err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rawTable(source, rows, 1)
}

// ReadTable reads name in the format its extension names.
func ReadTable(r io.Reader, name string, opts XLSXOptions) (model.RawTable, error) {
	format, err := FormatOf(name)
	if err != nil {
		return model.RawTable{}, err
	}
	if format == FormatCSV {
		return ReadCSV(r, name)
	}
	return ReadXLSX(r, name, opts)
}

func rawTable(source string, rows [][]string, headerRow int) (model.RawTable, error) {
	if headerRow < 1 {
		headerRow = 1
	}
	if len(rows) < headerRow {
		return model.RawTable{}, exception.NewEngineErrorf(moduleName, exception.KindSchema, "%s has no header at row %d", source, headerRow)
	}
	header := make([]string, len(rows[headerRow-1]))
	for i, h := range rows[headerRow-1] {
		header[i] = strings.TrimSpace(h)
	}
	return model.RawTable{Source: source, Columns: header, Rows: rows[headerRow:], FirstRow: headerRow + 1}, nil
}

// column finds a header, ignoring case and surrounding blanks.
func column(t model.RawTable, name string) (int, bool) {
	for i, h := range t.Columns {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i, true
		}
	}
	return 0, false
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
