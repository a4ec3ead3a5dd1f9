package test

import (
	"strconv"
	"strings"

	"github.com/tigerroll/vsatsla/internal/domain/model"
)

// ExportHeader is the header row of the measurement system export.
var ExportHeader = []string{
	"Ubicación", "BW Bajada Esperado", "BW Bajada Encontrado", "BW Subida Esperado", "BW Subida Encontrado",
	"Resultado", "Fecha de la Prueba", "Hora de la Prueba", "Perfil de Velocidad", "Tipo de prueba", "Error",
}

// ExportRow renders r the way the export spells it.
func ExportRow(r model.TestRecord) []string {
	rate := func(v float64) string {
		if r.Result != model.ResultSucceeded {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return []string{
		r.SiteID,
		rate(r.ExpectedDownRate), rate(r.ActualDownRate),
		rate(r.ExpectedUpRate), rate(r.ActualUpRate),
		strings.ToLower(string(r.Result)),
		r.Timestamp.Format("2006-01-02 15:04:05"),
		r.Hour,
		r.Profile,
		string(r.TestType),
		r.ErrorMessage,
	}
}

// RawExport builds the raw table an export of records would produce.
func RawExport(source string, records ...model.TestRecord) model.RawTable {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, ExportRow(r))
	}
	return model.RawTable{Source: source, Columns: append([]string(nil), ExportHeader...), Rows: rows}
}
