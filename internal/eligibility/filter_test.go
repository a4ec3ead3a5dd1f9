package eligibility_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/vsatsla/internal/domain/model"
	"github.com/tigerroll/vsatsla/internal/eligibility"
)

var now = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

func records(site string, loc, n int, profile string) []model.TestRecord {
	out := make([]model.TestRecord, n)
	for i := range out {
		out[i] = model.TestRecord{
			SiteID: site, LocationCode: loc, Profile: profile,
			Timestamp: now.Add(-time.Duration(i) * time.Hour),
			Result:    model.ResultSucceeded, TestType: model.TestTypeScheduled,
		}
	}
	return out
}

func ticket(site string, days int) model.OutageTicket {
	opened := now.AddDate(0, 0, -10)
	resolved := opened.Add(time.Duration(days)*24*time.Hour + time.Hour)
	return model.OutageTicket{SiteID: site, OpenedAt: opened, ResolvedAt: &resolved}
}

func TestClassify_RuleTable(t *testing.T) {
	th := eligibility.DefaultThresholds()
	tests := []struct {
		count, downtime int
		want            model.EligibilityStatus
		label           string
	}{
		{29, 0, model.StatusInsufficientSample, "<30 tests"},
		{29, 2, model.StatusValid, "valid"},
		{10, 2, model.StatusInsufficientSampleDespiteOutage, "> 24 hr & < 15 tests"},
		{30, 0, model.StatusValid, "valid"},
		{15, 1, model.StatusValid, "valid"},
		{14, 1, model.StatusInsufficientSampleDespiteOutage, "> 24 hr & < 15 tests"},
		{0, 0, model.StatusInsufficientSample, "<30 tests"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("count=%d/downtime=%d", tt.count, tt.downtime), func(t *testing.T) {
			got := th.Classify(tt.count, tt.downtime)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.label, th.Label(got))
		})
	}
}

func TestClassify_MonotonicInTestCount(t *testing.T) {
	th := eligibility.DefaultThresholds()
	for downtime := 0; downtime <= 3; downtime++ {
		wasValid := false
		for count := 0; count <= 60; count++ {
			valid := th.Classify(count, downtime) == model.StatusValid
			if wasValid {
				require.True(t, valid, "count=%d downtime=%d regressed to ineligible", count, downtime)
			}
			wasValid = valid
		}
	}
}

func TestFilter_Apply(t *testing.T) {
	var recs []model.TestRecord
	recs = append(recs, records("1000-A", 1000, 30, "P1")...)
	recs = append(recs, records("2000-A", 2000, 20, "P1")...) // relaxed by outage
	recs = append(recs, records("3000-A", 3000, 10, "P2")...) // outage but too few
	recs = append(recs, records("4000-A", 4000, 29, "P2")...) // no outage

	tickets := []model.OutageTicket{
		ticket("2000", 1),
		ticket("3000-A", 2),
		ticket("not-a-site", 5),
	}

	res := eligibility.New(eligibility.DefaultThresholds(), eligibility.WithClock(func() time.Time { return now })).Apply(recs, tickets)

	require.Len(t, res.Table, 4)
	byLoc := map[int]model.SiteEligibility{}
	for _, row := range res.Table {
		byLoc[row.LocationCode] = row
	}
	assert.Equal(t, model.StatusValid, byLoc[1000].Status)
	assert.Equal(t, model.StatusValid, byLoc[2000].Status)
	assert.Equal(t, 1, byLoc[2000].DowntimeDays)
	assert.Equal(t, model.StatusInsufficientSampleDespiteOutage, byLoc[3000].Status)
	assert.Equal(t, model.StatusInsufficientSample, byLoc[4000].Status)
	assert.Equal(t, 0, byLoc[4000].DowntimeDays)

	assert.Len(t, res.Records, 50)
	for _, r := range res.Records {
		assert.Contains(t, []int{1000, 2000}, r.LocationCode)
	}
	assert.Equal(t, []int{1000, 2000, 3000, 4000}, []int{
		res.Table[0].LocationCode, res.Table[1].LocationCode, res.Table[2].LocationCode, res.Table[3].LocationCode,
	})
}

func TestFilter_DowntimeSumsAndOpenTickets(t *testing.T) {
	open := model.OutageTicket{SiteID: "5000-A", OpenedAt: now.Add(-36 * time.Hour)}
	res := eligibility.New(eligibility.DefaultThresholds(), eligibility.WithClock(func() time.Time { return now })).
		Apply(records("5000-A", 5000, 16, "P1"), []model.OutageTicket{open, ticket("5000-B", 2)})

	require.Len(t, res.Table, 1)
	assert.Equal(t, 3, res.Table[0].DowntimeDays)
	assert.True(t, res.Table[0].Valid())
}

func TestFilter_MultiProfileSite(t *testing.T) {
	recs := append(records("6000-A", 6000, 20, "P2"), records("6000-A", 6000, 20, "P1")...)
	res := eligibility.New(eligibility.DefaultThresholds()).Apply(recs, nil)

	require.Len(t, res.Table, 1, "one row per site, tests are not double counted")
	row := res.Table[0]
	assert.Equal(t, 40, row.TestCount)
	assert.True(t, row.ProfileConflict)
	assert.Equal(t, []string{"P1", "P2"}, row.Profiles)
	assert.Equal(t, "P1", row.Profile, "ties go to the smallest profile")
}

func TestSelection_Apply(t *testing.T) {
	recs := []model.TestRecord{
		{SiteID: "1-A", LocationCode: 1, TestType: model.TestTypeScheduled},
		{SiteID: "2-A", LocationCode: 2, TestType: model.TestTypeOnDemand},
		{SiteID: "3-A", LocationCode: 3, TestType: model.TestTypeScheduled},
		{SiteID: "9-A", LocationCode: 9, TestType: model.TestTypeScheduled},
	}
	sel := eligibility.Selection{
		Locations:     []int{1, 2, 3},
		TestTypes:     []model.TestType{model.TestTypeScheduled},
		ExcludedSites: []string{"3-A"},
	}
	got := sel.Apply(recs)
	require.Len(t, got, 1)
	assert.Equal(t, "1-A", got[0].SiteID)

	assert.Len(t, eligibility.Selection{}.Apply(recs), 4)
}
