// Package eligibility decides which sites carry a statistically valid test sample.
package eligibility

import (
	"fmt"
	"sort"
	"time"

	"github.com/tigerroll/vsatsla/internal/domain/model"
	"github.com/tigerroll/vsatsla/internal/normalize"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/logger"
)

// Thresholds are the sample floors of the SLA contract.
type Thresholds struct {
	MinTests       int
	OutageMinTests int
	OutageMinDays  int
}

// DefaultThresholds returns the contractual defaults: 30 tests, or 15 after at least one day of outage.
func DefaultThresholds() Thresholds {
	return Thresholds{MinTests: 30, OutageMinTests: 15, OutageMinDays: 1}
}

// Classify applies the sampling rule to one site.
func (th Thresholds) Classify(testCount, downtimeDays int) model.EligibilityStatus {
	if testCount >= th.MinTests {
		return model.StatusValid
	}
	if downtimeDays >= th.OutageMinDays {
		if testCount >= th.OutageMinTests {
			return model.StatusValid
		}
		return model.StatusInsufficientSampleDespiteOutage
	}
	return model.StatusInsufficientSample
}

// Label renders a status the way the audit sheet shows it.
func (th Thresholds) Label(status model.EligibilityStatus) string {
	switch status {
	case model.StatusValid:
		return "valid"
	case model.StatusInsufficientSample:
		return fmt.Sprintf("<%d tests", th.MinTests)
	case model.StatusInsufficientSampleDespiteOutage:
		return fmt.Sprintf("> %d hr & < %d tests", 24*th.OutageMinDays, th.OutageMinTests)
	}
	return string(status)
}

// Result holds the records of valid sites, in input order, and the full audit table.
type Result struct {
	Records []model.TestRecord
	Table   []model.SiteEligibility
}

// Filter computes site eligibility.
type Filter struct {
	th  Thresholds
	now func() time.Time
	log *logger.Logger
}

// Option configures a Filter.
type Option func(*Filter)

// WithClock sets the time open tickets are measured up to.
func WithClock(now func() time.Time) Option {
	return func(f *Filter) { f.now = now }
}

// New creates a Filter.
func New(th Thresholds, opts ...Option) *Filter {
	f := &Filter{th: th, now: time.Now, log: logger.With("eligibility")}
	for _, o := range opts {
		o(f)
	}
	return f
}

type siteStats struct {
	count    int
	sites    map[string]struct{}
	profiles map[string]int
}

// Apply classifies every location present in records and keeps the records of valid ones.
// Tickets are matched to records by location code. Tickets whose site has no numeric
// location prefix are ignored.
func (f *Filter) Apply(records []model.TestRecord, tickets []model.OutageTicket) Result {
	downtime := f.downtimeByLocation(tickets)

	stats := make(map[int]*siteStats)
	for _, r := range records {
		s, ok := stats[r.LocationCode]
		if !ok {
			s = &siteStats{sites: map[string]struct{}{}, profiles: map[string]int{}}
			stats[r.LocationCode] = s
		}
		s.count++
		s.sites[r.SiteID] = struct{}{}
		s.profiles[r.Profile]++
	}

	locations := make([]int, 0, len(stats))
	for loc := range stats {
		locations = append(locations, loc)
	}
	sort.Ints(locations)

	table := make([]model.SiteEligibility, 0, len(locations))
	valid := make(map[int]bool, len(locations))
	for _, loc := range locations {
		s := stats[loc]
		row := model.SiteEligibility{
			LocationCode: loc,
			SiteIDs:      sortedKeys(s.sites),
			TestCount:    s.count,
			DowntimeDays: downtime[loc],
			Profiles:     sortedKeys(s.profiles),
		}
		row.SiteID = row.SiteIDs[0]
		row.Profile = dominantProfile(s.profiles)
		row.ProfileConflict = len(row.Profiles) > 1
		if row.ProfileConflict {
			f.log.Warnf("location %d reports %d profiles %v; using %q", loc, len(row.Profiles), row.Profiles, row.Profile)
		}
		row.Status = f.th.Classify(row.TestCount, row.DowntimeDays)
		row.StatusLabel = f.th.Label(row.Status)
		valid[loc] = row.Valid()
		table = append(table, row)
	}

	kept := make([]model.TestRecord, 0, len(records))
	for _, r := range records {
		if valid[r.LocationCode] {
			kept = append(kept, r)
		}
	}
	f.log.Debugf("%d of %d locations valid, %d of %d records kept", countTrue(valid), len(valid), len(kept), len(records))
	return Result{Records: kept, Table: table}
}

func (f *Filter) downtimeByLocation(tickets []model.OutageTicket) map[int]int {
	now := f.now()
	days := make(map[int]int)
	for _, t := range tickets {
		loc, err := normalize.LocationCode(t.SiteID)
		if err != nil {
			f.log.Warnf("ignoring outage ticket: %v", err)
			continue
		}
		days[loc] += t.DowntimeDays(now)
	}
	return days
}

// dominantProfile returns the most frequent profile, ties going to the lexicographically smallest.
func dominantProfile(counts map[string]int) string {
	best, bestN := "", -1
	for p, n := range counts {
		if n > bestN || (n == bestN && p < best) {
			best, bestN = p, n
		}
	}
	return best
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func countTrue(m map[int]bool) int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}
