package repository

import (
	"strings"

	"github.com/tigerroll/vsatsla/internal/domain/model"
)

const listSeparator = ","

func joinList(items []string) string {
	return strings.Join(items, listSeparator)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, listSeparator)
}

func fromDomainReport(r *model.Report) ReportRunEntity {
	return ReportRunEntity{
		RunID:        r.RunID,
		GeneratedAt:  r.GeneratedAt.UTC(),
		SiteCount:    len(r.Eligibility),
		ProfileCount: len(r.Profiles),
	}
}

func fromDomainEligibility(runID string, s model.SiteEligibility) SiteEligibilityEntity {
	return SiteEligibilityEntity{
		RunID:           runID,
		LocationCode:    s.LocationCode,
		SiteID:          s.SiteID,
		SiteIDs:         joinList(s.SiteIDs),
		TestCount:       s.TestCount,
		DowntimeDays:    s.DowntimeDays,
		Profile:         s.Profile,
		Profiles:        joinList(s.Profiles),
		ProfileConflict: s.ProfileConflict,
		Status:          string(s.Status),
		StatusLabel:     s.StatusLabel,
	}
}

func toDomainEligibility(e SiteEligibilityEntity) model.SiteEligibility {
	return model.SiteEligibility{
		LocationCode:    e.LocationCode,
		SiteID:          e.SiteID,
		SiteIDs:         splitList(e.SiteIDs),
		TestCount:       e.TestCount,
		DowntimeDays:    e.DowntimeDays,
		Profile:         e.Profile,
		Profiles:        splitList(e.Profiles),
		ProfileConflict: e.ProfileConflict,
		Status:          model.EligibilityStatus(e.Status),
		StatusLabel:     e.StatusLabel,
	}
}

func fromDomainHourly(runID, profile string, r model.HourlyComplianceRow) HourlyComplianceEntity {
	return HourlyComplianceEntity{
		RunID:            runID,
		Profile:          profile,
		Hour:             r.Hour,
		SampleCount:      r.SampleCount,
		ExpectedDownRate: r.ExpectedDownRate,
		ExpectedUpRate:   r.ExpectedUpRate,
		P5DownRate:       r.P5DownRate,
		P5UpRate:         r.P5UpRate,
		DnPass:           r.DnPass,
		UpPass:           r.UpPass,
		Pass:             r.Pass,
		DnPassCount:      r.DnPassCount,
		UpPassCount:      r.UpPassCount,
		DnPassPct:        r.DnPassPct,
		UpPassPct:        r.UpPassPct,
	}
}

func toDomainHourly(e HourlyComplianceEntity) model.HourlyComplianceRow {
	return model.HourlyComplianceRow{
		Hour:             e.Hour,
		SampleCount:      e.SampleCount,
		ExpectedDownRate: e.ExpectedDownRate,
		ExpectedUpRate:   e.ExpectedUpRate,
		P5DownRate:       e.P5DownRate,
		P5UpRate:         e.P5UpRate,
		DnPass:           e.DnPass,
		UpPass:           e.UpPass,
		Pass:             e.Pass,
		DnPassCount:      e.DnPassCount,
		UpPassCount:      e.UpPassCount,
		DnPassPct:        e.DnPassPct,
		UpPassPct:        e.UpPassPct,
	}
}

func fromDomainSummary(runID, sheetPrefix string, s model.ProfileSummary) ProfileSummaryEntity {
	return ProfileSummaryEntity{
		RunID:       runID,
		Profile:     s.Profile,
		SheetPrefix: sheetPrefix,
		PassedHours: s.PassedHours,
		FailedHours: s.FailedHours,
	}
}

func toDomainSummary(e ProfileSummaryEntity) model.ProfileSummary {
	return model.ProfileSummary{Profile: e.Profile, PassedHours: e.PassedHours, FailedHours: e.FailedHours}
}

func fromDomainTicket(t model.OutageTicket) OutageTicketEntity {
	e := OutageTicketEntity{SiteID: t.SiteID, OpenedAt: t.OpenedAt.UTC()}
	if t.ResolvedAt != nil {
		resolved := t.ResolvedAt.UTC()
		e.ResolvedAt = &resolved
	}
	return e
}

func toDomainTicket(e OutageTicketEntity) model.OutageTicket {
	return model.OutageTicket{SiteID: e.SiteID, OpenedAt: e.OpenedAt, ResolvedAt: e.ResolvedAt}
}
