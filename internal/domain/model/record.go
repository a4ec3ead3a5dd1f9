// Package model defines the records and tables that flow through the VSAT compliance engine.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Result is the outcome reported by the measurement system for one test.
type Result string

const (
	ResultSucceeded Result = "Succeeded"
	ResultFailed    Result = "Failed"
	ResultError     Result = "Error"
)

// TestType is the trigger of a bandwidth test.
type TestType string

const (
	TestTypeScheduled  TestType = "Scheduled"
	TestTypeOnDemand   TestType = "OnDemand"
	TestTypeMonitoring TestType = "Monitoring"
)

// TestRecord is one bandwidth test observation.
// Expected and actual rates are only meaningful when Result is ResultSucceeded.
type TestRecord struct {
	SiteID           string
	LocationCode     int
	Timestamp        time.Time
	Hour             string // legacy text column, never used for bucketing
	Profile          string
	ProfileID        int
	ExpectedDownRate float64
	ExpectedUpRate   float64
	ActualDownRate   float64
	ActualUpRate     float64
	Result           Result
	TestType         TestType
	ErrorMessage     string
}

// Date returns the calendar day of the record in the timestamp's location.
func (r TestRecord) Date() string {
	return r.Timestamp.Format("2006-01-02")
}

// OutageTicket is one reported interruption for a site.
// A nil ResolvedAt means the ticket is still open.
type OutageTicket struct {
	SiteID     string
	OpenedAt   time.Time
	ResolvedAt *time.Time
}

// DowntimeDays returns the whole days between opening and resolution.
// Open tickets are measured up to now. Negative spans count as zero.
func (t OutageTicket) DowntimeDays(now time.Time) int {
	end := now
	if t.ResolvedAt != nil {
		end = *t.ResolvedAt
	}
	d := end.Sub(t.OpenedAt)
	if d <= 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// EvaluatedRecord is a Succeeded TestRecord with its per-direction verdicts.
type EvaluatedRecord struct {
	TestRecord
	DnPass bool
	UpPass bool
	Pass   bool
}

// RawTable is a header row plus string cells, as read from one export file.
type RawTable struct {
	Source  string
	Columns []string
	Rows    [][]string
	// FirstRow is the 1-based file row of Rows[0]. Zero means 2, a header on the first row.
	FirstRow int
}

// FileRow returns the 1-based file row of Rows[i], the row a user opens to find it.
func (t RawTable) FileRow(i int) int {
	first := t.FirstRow
	if first < 1 {
		first = 2
	}
	return first + i
}

// SheetPrefix derives the report sheet prefix from a profile descriptor,
// e.g. "Down:12 Mbps / Up:3 Mbps" gives "12X3". The second value is false when
// the descriptor carries no Down: rate.
func SheetPrefix(profile string) (string, bool) {
	down, ok := numberAfter(profile, "Down:")
	if !ok {
		return "", false
	}
	up, ok := numberAfter(profile, "Up:")
	if !ok {
		return down, true
	}
	return fmt.Sprintf("%sX%s", down, up), true
}

// ProfileRateToken returns the numeric token following marker in profile, whitespace trimmed.
func ProfileRateToken(profile, marker string) (string, bool) {
	return numberAfter(profile, marker)
}

func numberAfter(s, marker string) (string, bool) {
	idx := strings.Index(s, marker)
	if idx < 0 {
		return "", false
	}
	rest := strings.TrimLeft(s[idx+len(marker):], " \t")
	end := 0
	for end < len(rest) && ((rest[end] >= '0' && rest[end] <= '9') || rest[end] == '.') {
		end++
	}
	token := strings.TrimRight(rest[:end], ".")
	if token == "" || token[0] == '.' {
		return "", false
	}
	return token, true
}
