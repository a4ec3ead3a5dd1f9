package normalize

import "strings"

// Canonical column names.
const (
	colSiteID           = "site_id"
	colExpectedDownRate = "expected_down_rate"
	colActualDownRate   = "actual_down_rate"
	colExpectedUpRate   = "expected_up_rate"
	colActualUpRate     = "actual_up_rate"
	colResult           = "result"
	colTimestamp        = "timestamp"
	colHour             = "hour"
	colProfile          = "profile"
	colTestType         = "test_type"
	colErrorMessage     = "error_message"
)

// headerMapping maps the export headers, in both known spellings, to canonical columns.
var headerMapping = map[string]string{
	"Ubicación":            colSiteID,
	"BW Bajada Esperado":   colExpectedDownRate,
	"BW Bajada Encontrado": colActualDownRate,
	"BW Subida Esperado":   colExpectedUpRate,
	"BW Subida Encontrado": colActualUpRate,
	"Resultado":            colResult,
	"Fecha de la Prueba":   colTimestamp,
	"Hora de la Prueba":    colHour,
	"Perfil de Velocidad":  colProfile,
	"Tipo de prueba":       colTestType,
	"Tipo de Prueba":       colTestType,
	"Error":                colErrorMessage,
}

// HourLayout renders the legacy hour column when it is read from a time-typed cell.
const HourLayout = "15:04:05"

// DateHeaders maps the export headers that may hold spreadsheet dates to the layout their
// cells are rendered in before parsing. An empty layout means DefaultTimestampLayout.
func DateHeaders(timestampLayout string) map[string]string {
	if timestampLayout == "" {
		timestampLayout = DefaultTimestampLayout
	}
	out := make(map[string]string)
	for h, c := range headerMapping {
		switch c {
		case colTimestamp:
			out[h] = timestampLayout
		case colHour:
			out[h] = HourLayout
		}
	}
	return out
}

// requiredColumns is checked in this order so the reported missing column is stable.
var requiredColumns = []string{
	colSiteID,
	colExpectedDownRate,
	colActualDownRate,
	colExpectedUpRate,
	colActualUpRate,
	colResult,
	colTimestamp,
	colProfile,
	colTestType,
}

// sourceHeader returns the first export header for a canonical column, for error messages.
func sourceHeader(canonical string) string {
	for _, h := range []string{
		"Ubicación", "BW Bajada Esperado", "BW Bajada Encontrado", "BW Subida Esperado",
		"BW Subida Encontrado", "Resultado", "Fecha de la Prueba", "Hora de la Prueba",
		"Perfil de Velocidad", "Tipo de prueba", "Error",
	} {
		if headerMapping[h] == canonical {
			return h
		}
	}
	return canonical
}

// columnIndex resolves canonical columns to their position in the header row.
// The first occurrence wins when both spellings of a header are present.
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		canonical, ok := headerMapping[strings.TrimSpace(h)]
		if !ok {
			continue
		}
		if _, seen := idx[canonical]; !seen {
			idx[canonical] = i
		}
	}
	return idx
}
