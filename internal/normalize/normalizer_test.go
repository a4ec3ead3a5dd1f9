package normalize_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/vsatsla/internal/domain/model"
	"github.com/tigerroll/vsatsla/internal/normalize"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/exception"
)

var header = []string{
	"Ubicación", "BW Bajada Esperado", "BW Bajada Encontrado", "BW Subida Esperado", "BW Subida Encontrado",
	"Resultado", "Fecha de la Prueba", "Hora de la Prueba", "Perfil de Velocidad", "Tipo de prueba", "Error",
}

func row(site, expDn, dn, expUp, up, res, ts, hour, profile, typ, errMsg string) []string {
	return []string{site, expDn, dn, expUp, up, res, ts, hour, profile, typ, errMsg}
}

func TestNormalize(t *testing.T) {
	table := model.RawTable{
		Source:  "op.xlsx",
		Columns: header,
		Rows: [][]string{
			row("1234-A", "12", "13,5", "3", "3.2", "succeeded", "2024-03-05 09:30:00.250", "09", "Down:12 / Up:3", "Programada", ""),
			row("5678-B", "", "", "", "", "Failed", "2024-03-05 10:00:00", "10", "Down: 8 / Up:2", "On Demand", "timeout"),
			{"", "", ""},
		},
	}

	got, err := normalize.New(normalize.Options{}).Normalize(table)
	require.NoError(t, err)

	want := []model.TestRecord{
		{
			SiteID: "1234-A", LocationCode: 1234,
			Timestamp: time.Date(2024, 3, 5, 9, 30, 0, 250000000, time.UTC), Hour: "09",
			Profile: "Down:12 / Up:3", ProfileID: 12,
			ExpectedDownRate: 12, ActualDownRate: 13.5, ExpectedUpRate: 3, ActualUpRate: 3.2,
			Result: model.ResultSucceeded, TestType: model.TestTypeScheduled,
		},
		{
			SiteID: "5678-B", LocationCode: 5678,
			Timestamp: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC), Hour: "10",
			Profile: "Down: 8 / Up:2", ProfileID: 8,
			Result: model.ResultFailed, TestType: model.TestTypeOnDemand, ErrorMessage: "timeout",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_HeaderVariant(t *testing.T) {
	variant := append([]string(nil), header...)
	variant[9] = " Tipo de Prueba "
	table := model.RawTable{Source: "non_op.xlsx", Columns: variant, Rows: [][]string{
		row("1-A", "1", "1", "1", "1", "Succeeded", "2024-03-05 09:00:00", "", "Down:1 Up:1", "Monitoring", ""),
	}}

	got, err := normalize.New(normalize.Options{}).Normalize(table)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.TestTypeMonitoring, got[0].TestType)
}

func TestNormalize_OptionalColumns(t *testing.T) {
	cols := header[:7]
	cols = append(append([]string(nil), cols...), "Perfil de Velocidad", "Tipo de prueba")
	table := model.RawTable{Source: "x.csv", Columns: cols, Rows: [][]string{
		{"1-A", "1", "1", "1", "1", "Error", "2024-03-05 09:00:00", "Down:1 Up:1", "Scheduled"},
	}}
	got, err := normalize.New(normalize.Options{}).Normalize(table)
	require.NoError(t, err)
	assert.Empty(t, got[0].Hour)
	assert.Empty(t, got[0].ErrorMessage)
}

func TestNormalize_SchemaError(t *testing.T) {
	cols := append([]string(nil), header...)
	cols[5] = "Result"
	_, err := normalize.New(normalize.Options{}).Normalize(model.RawTable{Source: "op.xlsx", Columns: cols})

	require.ErrorIs(t, err, exception.ErrSchema)
	var se *exception.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Resultado", se.Column)
}

func TestNormalize_ParseErrors(t *testing.T) {
	good := func() []string {
		return row("1-A", "12", "12", "3", "3", "Succeeded", "2024-03-05 09:00:00", "", "Down:12 Up:3", "Scheduled", "")
	}
	tests := []struct {
		name   string
		mutate func(r []string)
		column string
	}{
		{"timestamp", func(r []string) { r[6] = "05/03/2024 09:00" }, "Fecha de la Prueba"},
		{"profile marker", func(r []string) { r[8] = "12 Mbps" }, "Perfil de Velocidad"},
		{"profile digits", func(r []string) { r[8] = "Down: fast" }, "Perfil de Velocidad"},
		{"location", func(r []string) { r[0] = "HQ-A" }, "Ubicación"},
		{"result", func(r []string) { r[5] = "maybe" }, "Resultado"},
		{"test type", func(r []string) { r[9] = "manual" }, "Tipo de prueba"},
		{"succeeded rate", func(r []string) { r[2] = "" }, "BW Bajada Encontrado"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := good()
			tt.mutate(bad)
			_, err := normalize.New(normalize.Options{}).Normalize(model.RawTable{
				Source: "op.xlsx", Columns: header, Rows: [][]string{good(), bad},
			})
			require.ErrorIs(t, err, exception.ErrParse)
			var pe *exception.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, 3, pe.Row)
			assert.Equal(t, tt.column, pe.Column)
			assert.Equal(t, "op.xlsx", pe.Source)
		})
	}
}

func TestNormalize_Timezone(t *testing.T) {
	bogota, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)
	table := model.RawTable{Source: "op.xlsx", Columns: header, Rows: [][]string{
		row("1-A", "1", "1", "1", "1", "Succeeded", "2024-03-05 09:00:00", "", "Down:1 Up:1", "Scheduled", ""),
	}}
	got, err := normalize.New(normalize.Options{Location: bogota}).Normalize(table)
	require.NoError(t, err)
	assert.Equal(t, 9, got[0].Timestamp.Hour())
	assert.Equal(t, 14, got[0].Timestamp.UTC().Hour())
}

func TestNormalizeAll_DedupeAndAggregation(t *testing.T) {
	r := row("1-A", "1", "5", "1", "2", "Succeeded", "2024-03-05 09:00:00", "09", "Down:1 Up:1", "Scheduled", "")
	op := model.RawTable{Source: "op.xlsx", Columns: header, Rows: [][]string{r}}
	nonOp := model.RawTable{Source: "non_op.xlsx", Columns: header, Rows: [][]string{r}}

	got, err := normalize.New(normalize.Options{Dedupe: true}).NormalizeAll(op, nonOp)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = normalize.New(normalize.Options{Dedupe: false}).NormalizeAll(op, nonOp)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	bad1 := model.RawTable{Source: "bad1.xlsx", Columns: header, Rows: [][]string{
		row("1-A", "1", "1", "1", "1", "Succeeded", "nope", "", "Down:1 Up:1", "Scheduled", ""),
	}}
	bad2 := model.RawTable{Source: "bad2.xlsx", Columns: header, Rows: [][]string{
		row("1-A", "1", "1", "1", "1", "Succeeded", "2024-03-05 09:00:00", "", "Up:1", "Scheduled", ""),
	}}
	_, err = normalize.New(normalize.Options{}).NormalizeAll(op, bad1, bad2)
	require.ErrorIs(t, err, exception.ErrParse)
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
}

func TestNormalizeAll_SchemaErrorAborts(t *testing.T) {
	bad := model.RawTable{Source: "bad.xlsx", Columns: []string{"Ubicación"}}
	_, err := normalize.New(normalize.Options{}).NormalizeAll(bad)
	assert.ErrorIs(t, err, exception.ErrSchema)
}

func TestProfileIDAndLocationCode(t *testing.T) {
	id, err := normalize.ProfileID("Perfil Down:  20.5 Mbps / Up: 4")
	require.NoError(t, err)
	assert.Equal(t, 20, id)

	code, err := normalize.LocationCode("00042-XZ-1")
	require.NoError(t, err)
	assert.Equal(t, 42, code)
}
