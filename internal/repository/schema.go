package repository

import "time"

// ReportRunEntity is one persisted report run.
type ReportRunEntity struct {
	RunID        string    `gorm:"column:run_id;primaryKey"`
	GeneratedAt  time.Time `gorm:"column:generated_at"`
	SiteCount    int       `gorm:"column:site_count"`
	ProfileCount int       `gorm:"column:profile_count"`
}

func (ReportRunEntity) TableName() string {
	return "report_runs"
}

// SiteEligibilityEntity is one row of the eligibility table of a run.
// SiteIDs and Profiles are stored comma separated.
type SiteEligibilityEntity struct {
	RunID           string `gorm:"column:run_id;primaryKey"`
	LocationCode    int    `gorm:"column:location_code;primaryKey"`
	SiteID          string `gorm:"column:site_id"`
	SiteIDs         string `gorm:"column:site_ids"`
	TestCount       int    `gorm:"column:test_count"`
	DowntimeDays    int    `gorm:"column:downtime_days"`
	Profile         string `gorm:"column:profile"`
	Profiles        string `gorm:"column:profiles"`
	ProfileConflict bool   `gorm:"column:profile_conflict"`
	Status          string `gorm:"column:status"`
	StatusLabel     string `gorm:"column:status_label"`
}

func (SiteEligibilityEntity) TableName() string {
	return "site_eligibility"
}

// HourlyComplianceEntity is one hourly verdict of a profile.
type HourlyComplianceEntity struct {
	RunID            string  `gorm:"column:run_id;primaryKey"`
	Profile          string  `gorm:"column:profile;primaryKey"`
	Hour             int     `gorm:"column:hour;primaryKey"`
	SampleCount      int     `gorm:"column:sample_count"`
	ExpectedDownRate float64 `gorm:"column:expected_down_rate"`
	ExpectedUpRate   float64 `gorm:"column:expected_up_rate"`
	P5DownRate       float64 `gorm:"column:p5_down_rate"`
	P5UpRate         float64 `gorm:"column:p5_up_rate"`
	DnPass           bool    `gorm:"column:dn_pass"`
	UpPass           bool    `gorm:"column:up_pass"`
	Pass             bool    `gorm:"column:pass"`
	DnPassCount      int     `gorm:"column:dn_pass_count"`
	UpPassCount      int     `gorm:"column:up_pass_count"`
	DnPassPct        float64 `gorm:"column:dn_pass_pct"`
	UpPassPct        float64 `gorm:"column:up_pass_pct"`
}

func (HourlyComplianceEntity) TableName() string {
	return "hourly_compliance"
}

// ProfileSummaryEntity is the pass/fail hour count of a profile.
type ProfileSummaryEntity struct {
	RunID       string `gorm:"column:run_id;primaryKey"`
	Profile     string `gorm:"column:profile;primaryKey"`
	SheetPrefix string `gorm:"column:sheet_prefix"`
	PassedHours int    `gorm:"column:passed_hours"`
	FailedHours int    `gorm:"column:failed_hours"`
}

func (ProfileSummaryEntity) TableName() string {
	return "profile_summary"
}

// OutageTicketEntity is a stored outage ticket.
type OutageTicketEntity struct {
	ID         int64      `gorm:"column:id;primaryKey;autoIncrement"`
	SiteID     string     `gorm:"column:site_id"`
	OpenedAt   time.Time  `gorm:"column:opened_at"`
	ResolvedAt *time.Time `gorm:"column:resolved_at"`
}

func (OutageTicketEntity) TableName() string {
	return "outage_tickets"
}
