// Package evaluate decides per-test pass/fail for the download and upload directions.
package evaluate

import "github.com/tigerroll/vsatsla/internal/domain/model"

// Evaluate derives the verdicts of one record. A direction passes when the measured rate
// reaches the expected rate.
func Evaluate(r model.TestRecord) model.EvaluatedRecord {
	dn := r.ExpectedDownRate <= r.ActualDownRate
	up := r.ExpectedUpRate <= r.ActualUpRate
	return model.EvaluatedRecord{TestRecord: r, DnPass: dn, UpPass: up, Pass: dn && up}
}

// EvaluateAll evaluates the Succeeded records, preserving order. Other results are skipped.
func EvaluateAll(records []model.TestRecord) []model.EvaluatedRecord {
	out := make([]model.EvaluatedRecord, 0, len(records))
	for _, r := range records {
		if r.Result != model.ResultSucceeded {
			continue
		}
		out = append(out, Evaluate(r))
	}
	return out
}
