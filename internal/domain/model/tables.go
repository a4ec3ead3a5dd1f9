package model

import "time"

// EligibilityStatus classifies a site's sample.
type EligibilityStatus string

const (
	StatusValid EligibilityStatus = "Valid"
	// StatusInsufficientSample: below the regular floor and no qualifying outage.
	StatusInsufficientSample EligibilityStatus = "InsufficientSample"
	// StatusInsufficientSampleDespiteOutage: had a qualifying outage but is still below the relaxed floor.
	StatusInsufficientSampleDespiteOutage EligibilityStatus = "InsufficientSampleDespiteOutage"
)

// SiteEligibility is one row of the eligibility audit table, keyed by location code.
type SiteEligibility struct {
	LocationCode int `yaml:"location_code"`
	// SiteID is the smallest site identifier seen at the location; SiteIDs lists all of them.
	SiteID       string   `yaml:"site_id"`
	SiteIDs      []string `yaml:"site_ids"`
	TestCount    int      `yaml:"test_count"`
	DowntimeDays int      `yaml:"downtime_days"`
	// Profile is the most frequent profile at the site.
	Profile string `yaml:"profile"`
	// Profiles lists every distinct profile seen; more than one sets ProfileConflict.
	Profiles        []string          `yaml:"profiles"`
	ProfileConflict bool              `yaml:"profile_conflict"`
	Status          EligibilityStatus `yaml:"status"`
	// StatusLabel is the human readable status, e.g. "<30 tests".
	StatusLabel string `yaml:"status_label"`
}

// Valid reports whether the site may enter compliance computation.
func (s SiteEligibility) Valid() bool { return s.Status == StatusValid }

// HourlyComplianceRow is the verdict for one clock hour of one profile.
type HourlyComplianceRow struct {
	Hour             int     `yaml:"hour"`
	SampleCount      int     `yaml:"sample_count"`
	ExpectedDownRate float64 `yaml:"expected_down_rate"`
	ExpectedUpRate   float64 `yaml:"expected_up_rate"`
	P5DownRate       float64 `yaml:"p5_down_rate"`
	P5UpRate         float64 `yaml:"p5_up_rate"`
	DnPass           bool    `yaml:"dn_pass"`
	UpPass           bool    `yaml:"up_pass"`
	Pass             bool    `yaml:"pass"`
	DnPassCount      int     `yaml:"dn_pass_count"`
	UpPassCount      int     `yaml:"up_pass_count"`
	DnPassPct        float64 `yaml:"dn_pass_pct"`
	UpPassPct        float64 `yaml:"up_pass_pct"`
}

// ProfileSummary counts the hours a profile passed. Only hours with data count.
type ProfileSummary struct {
	Profile     string `yaml:"profile"`
	PassedHours int    `yaml:"passed_hours"`
	FailedHours int    `yaml:"failed_hours"`
}

// ProfileResult is the compliance outcome for one profile.
type ProfileResult struct {
	Profile     string
	SheetPrefix string
	Rows        []HourlyComplianceRow
	Summary     ProfileSummary
}

// Report is the assembled multi-table output of one run.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	Eligibility []SiteEligibility
	// Profiles is ordered by profile; use Profile to look one up.
	Profiles  []ProfileResult
	Summaries []ProfileSummary
}

// Profile returns the result for the given profile.
func (r *Report) Profile(profile string) (ProfileResult, bool) {
	for _, p := range r.Profiles {
		if p.Profile == profile {
			return p, true
		}
	}
	return ProfileResult{}, false
}
