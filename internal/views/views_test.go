package views_test

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/vsatsla/internal/domain/model"
	"github.com/tigerroll/vsatsla/internal/evaluate"
	"github.com/tigerroll/vsatsla/internal/views"
)

var base = time.Date(2024, 3, 5, 9, 15, 0, 0, time.UTC)

func failed(site, msg string, at time.Time) model.TestRecord {
	return model.TestRecord{SiteID: site, Result: model.ResultFailed, ErrorMessage: msg, Timestamp: at, Profile: "P1"}
}

func succeeded(site, profile string, at time.Time, dn, up float64) model.TestRecord {
	return model.TestRecord{
		SiteID: site, Profile: profile, Timestamp: at, Result: model.ResultSucceeded,
		ExpectedDownRate: 10, ExpectedUpRate: 2, ActualDownRate: dn, ActualUpRate: up,
	}
}

func dataset(records ...model.TestRecord) views.Dataset {
	return views.Dataset{Records: records, Evaluated: evaluate.EvaluateAll(records)}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", views.Truncate("short", 75, 40))

	seventyFive := strings.Repeat("x", 75)
	assert.Equal(t, seventyFive, views.Truncate(seventyFive, 75, 40), "exactly at the threshold is kept")

	long := strings.Repeat("é", 76)
	got := views.Truncate(long, 75, 40)
	assert.Equal(t, strings.Repeat("é", 40)+"..", got)
}

func TestSummary(t *testing.T) {
	d := dataset(
		succeeded("1-A", "P1", base, 11, 3),
		succeeded("1-A", "P1", base.AddDate(0, 0, 2), 9, 3),
		failed("1-A", "timeout", base.AddDate(0, 0, -1)),
		model.TestRecord{SiteID: "2-A", Result: model.ResultError, Timestamp: base},
	)
	got := views.New(views.DefaultOptions()).Summary(d, model.FilterSet{})
	want := views.Summary{
		Total: 4, Evaluated: 2, Succeeded: 2, Failed: 1, Errored: 1,
		Start: "2024-03-04", End: "2024-03-07", Passed: 1, NotPassed: 1,
	}
	assert.Equal(t, want, got)

	empty := views.New(views.DefaultOptions()).Summary(views.Dataset{}, model.FilterSet{})
	assert.Equal(t, views.Summary{}, empty)
}

func TestSummary_FiltersInLockstep(t *testing.T) {
	d := dataset(
		succeeded("1-A", "P1", base, 11, 3),
		succeeded("2-A", "P2", base, 9, 3),
		failed("2-A", "timeout", base),
	)
	fs, err := model.NewFilterSet(map[string]string{"site_id": "2-A"})
	require.NoError(t, err)

	got := views.New(views.DefaultOptions()).Summary(d, fs)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Evaluated)
	assert.Equal(t, 0, got.Passed)
}

func TestFailureBreakdown(t *testing.T) {
	var recs []model.TestRecord
	for msg, n := range map[string]int{"a": 9, "b": 7, "c": 7, "d": 5, "e": 4, "f": 3, "g": 2, "h": 1} {
		for i := 0; i < n; i++ {
			recs = append(recs, failed("1-A", msg, base))
		}
	}
	recs = append(recs, succeeded("1-A", "P1", base, 1, 1))

	got := views.New(views.DefaultOptions()).FailureBreakdown(dataset(recs...), model.FilterSet{})
	want := []views.FailureCount{
		{"a", 9}, {"b", 7}, {"c", 7}, {"d", 5}, {"e", 4}, {views.OthersBucket, 6},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FailureBreakdown() mismatch (-want +got):\n%s", diff)
	}
}

func TestFailureBreakdown_OthersIsRemainder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	v := views.New(views.DefaultOptions())
	for trial := 0; trial < 50; trial++ {
		var recs []model.TestRecord
		distinct := rng.Intn(12)
		for m := 0; m < distinct; m++ {
			for n := rng.Intn(6) + 1; n > 0; n-- {
				recs = append(recs, failed("1-A", fmt.Sprintf("err-%d", m), base))
			}
		}
		got := v.FailureBreakdown(dataset(recs...), model.FilterSet{})
		require.NotEmpty(t, got)
		last := got[len(got)-1]
		require.Equal(t, views.OthersBucket, last.Message)
		top := 0
		for _, fc := range got[:len(got)-1] {
			top += fc.Count
		}
		assert.Equal(t, len(recs)-top, last.Count)
		assert.LessOrEqual(t, len(got)-1, 5)
	}
}

func TestFailureBreakdown_TruncatedMessagesMerge(t *testing.T) {
	prefix := strings.Repeat("m", 40)
	a := prefix + strings.Repeat("a", 40)
	b := prefix + strings.Repeat("b", 40)
	got := views.New(views.DefaultOptions()).FailureBreakdown(dataset(failed("1-A", a, base), failed("1-A", b, base)), model.FilterSet{})
	require.Len(t, got, 2)
	assert.Equal(t, views.FailureCount{Message: prefix + "..", Count: 2}, got[0])
}

func TestFailureBreakdown_LiteralOthersMessage(t *testing.T) {
	var recs []model.TestRecord
	for i := 0; i < 10; i++ {
		recs = append(recs, failed("1-A", views.OthersBucket, base))
	}
	for msg, n := range map[string]int{"a": 4, "b": 3, "c": 3, "d": 2, "e": 2, "f": 1} {
		for i := 0; i < n; i++ {
			recs = append(recs, failed("1-A", msg, base))
		}
	}

	got := views.New(views.DefaultOptions()).FailureBreakdown(dataset(recs...), model.FilterSet{})
	want := []views.FailureCount{
		{"a", 4}, {"b", 3}, {"c", 3}, {"d", 2}, {"e", 2}, {views.OthersBucket, 11},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FailureBreakdown() mismatch (-want +got):\n%s", diff)
	}
}

func TestFailureTimeSeries(t *testing.T) {
	d := dataset(
		failed("1-A", "timeout", base),
		failed("1-A", "timeout", base.Add(10*time.Minute)),
		failed("2-A", "refused", base.Add(3*time.Hour)),
		succeeded("1-A", "P1", base.Add(time.Hour), 1, 1),
	)
	got := views.New(views.DefaultOptions()).FailureTimeSeries(d, model.FilterSet{})

	assert.Equal(t, []string{"refused", "timeout"}, got.Messages)
	require.Len(t, got.Buckets, 2, "hours without failures are omitted")
	assert.True(t, got.Buckets[0].Hour.Equal(time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, []int{0, 2}, got.Buckets[0].Counts)
	assert.True(t, got.Buckets[1].Hour.Equal(time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, []int{1, 0}, got.Buckets[1].Counts)
}

func TestProgress(t *testing.T) {
	d := dataset(
		succeeded("1-A", "P1", base, 11, 3),
		succeeded("1-A", "P1", base.Add(time.Hour), 9, 3),
		succeeded("1-A", "P1", base.AddDate(0, 0, 2), 9, 1),
	)
	got := views.New(views.DefaultOptions()).Progress(d, model.FilterSet{})
	want := []views.DayProgress{
		{Date: "2024-03-05", Count: 2, DnFailPct: 50, UpFailPct: 0},
		{Date: "2024-03-07", Count: 1, DnFailPct: 100, UpFailPct: 100},
	}
	assert.Equal(t, want, got)
}

func TestSites(t *testing.T) {
	d := dataset(
		succeeded("3-A", "P1", base, 11, 1),
		succeeded("1-A", "P2", base, 11, 3),
		succeeded("1-A", "P3", base, 9, 3),
		succeeded("2-A", "P1", base, 11, 3),
	)
	got := views.New(views.DefaultOptions()).Sites(d, model.FilterSet{})
	want := []views.SiteProgress{
		{SiteID: "3-A", Profile: "P1", Count: 1, DnFailPct: 0, UpFailPct: 100},
		{SiteID: "1-A", Profile: "P2", Count: 2, DnFailPct: 50, UpFailPct: 0},
		{SiteID: "2-A", Profile: "P1", Count: 1, DnFailPct: 0, UpFailPct: 0},
	}
	assert.Equal(t, want, got)
}

func TestThroughput_DayDrillDown(t *testing.T) {
	d := dataset(
		succeeded("1-A", "P1", base.Add(time.Hour), 11, 1),
		succeeded("1-A", "P1", base, 9, 3),
		succeeded("1-A", "P1", base.AddDate(0, 0, 1), 12, 3),
	)
	fs, err := model.NewFilterSet(map[string]string{"date": "2024-03-05"})
	require.NoError(t, err)

	v := views.New(views.DefaultOptions())
	down := v.Throughput(d, fs, views.Down)
	require.Len(t, down, 2)
	assert.Equal(t, 9.0, down[0].Rate)
	assert.False(t, down[0].Pass)
	assert.Equal(t, 11.0, down[1].Rate)

	up := v.Throughput(d, fs, views.Up)
	assert.Equal(t, 3.0, up[0].Rate)
	assert.False(t, up[1].Pass)
}
