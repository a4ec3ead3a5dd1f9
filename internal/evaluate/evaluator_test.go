package evaluate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/vsatsla/internal/domain/model"
	"github.com/tigerroll/vsatsla/internal/evaluate"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name           string
		expDn, dn      float64
		expUp, up      float64
		dnOK, upOK, ok bool
	}{
		{"both pass", 12, 12, 3, 3.1, true, true, true},
		{"down short", 12, 11.9, 3, 3, false, true, false},
		{"up short", 12, 20, 3, 2, true, false, false},
		{"both short", 12, 0, 3, 0, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evaluate.Evaluate(model.TestRecord{
				ExpectedDownRate: tt.expDn, ActualDownRate: tt.dn,
				ExpectedUpRate: tt.expUp, ActualUpRate: tt.up,
				Result: model.ResultSucceeded,
			})
			assert.Equal(t, tt.dnOK, got.DnPass)
			assert.Equal(t, tt.upOK, got.UpPass)
			assert.Equal(t, tt.ok, got.Pass)
		})
	}
}

func TestEvaluate_PassIsConjunction(t *testing.T) {
	for dn := 0.0; dn <= 4; dn++ {
		for up := 0.0; up <= 4; up++ {
			r := evaluate.Evaluate(model.TestRecord{ExpectedDownRate: 2, ActualDownRate: dn, ExpectedUpRate: 2, ActualUpRate: up})
			assert.Equal(t, r.DnPass && r.UpPass, r.Pass)
		}
	}
}

func TestEvaluateAll_KeepsSucceededInOrder(t *testing.T) {
	in := []model.TestRecord{
		{SiteID: "1-A", Result: model.ResultSucceeded},
		{SiteID: "2-A", Result: model.ResultFailed},
		{SiteID: "3-A", Result: model.ResultError},
		{SiteID: "4-A", Result: model.ResultSucceeded},
	}
	got := evaluate.EvaluateAll(in)
	require.Len(t, got, 2)
	assert.Equal(t, "1-A", got[0].SiteID)
	assert.Equal(t, "4-A", got[1].SiteID)
}
