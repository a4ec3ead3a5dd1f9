package repository

import (
	"context"
	"fmt"

	"github.com/tigerroll/vsatsla/internal/domain/model"
	"github.com/tigerroll/vsatsla/pkg/batch/adapter/database"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/exception"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/logger"
)

const moduleName = "repository"

// ReportRepository stores and reads assembled reports.
type ReportRepository struct {
	dbResolver database.DBConnectionResolver
	// dbName is the database connection the reports live in.
	dbName string
}

// NewReportRepository creates a repository over the connection named dbName.
func NewReportRepository(dbResolver database.DBConnectionResolver, dbName string) *ReportRepository {
	return &ReportRepository{dbResolver: dbResolver, dbName: dbName}
}

func (r *ReportRepository) conn(ctx context.Context) (database.DBConnection, error) {
	return resolve(ctx, r.dbResolver, r.dbName)
}

func resolve(ctx context.Context, resolver database.DBConnectionResolver, name string) (database.DBConnection, error) {
	conn, err := resolver.ResolveDBConnection(ctx, name)
	if err != nil {
		return nil, exception.NewEngineError(moduleName, exception.KindIO, fmt.Sprintf("failed to resolve DB connection '%s'", name), err)
	}
	return conn, nil
}

// SaveReport replaces every row of report.RunID in one transaction.
func (r *ReportRepository) SaveReport(ctx context.Context, report *model.Report) error {
	conn, err := r.conn(ctx)
	if err != nil {
		return err
	}

	run := fromDomainReport(report)
	eligibility := make([]SiteEligibilityEntity, 0, len(report.Eligibility))
	for _, s := range report.Eligibility {
		eligibility = append(eligibility, fromDomainEligibility(report.RunID, s))
	}
	var hourly []HourlyComplianceEntity
	summaries := make([]ProfileSummaryEntity, 0, len(report.Profiles))
	for _, p := range report.Profiles {
		for _, row := range p.Rows {
			hourly = append(hourly, fromDomainHourly(report.RunID, p.Profile, row))
		}
		summaries = append(summaries, fromDomainSummary(report.RunID, p.SheetPrefix, p.Summary))
	}

	err = conn.Transaction(ctx, func(tx database.DBExecutor) error {
		byRun := map[string]interface{}{"run_id": report.RunID}
		// Children first; not every dialect cascades.
		for _, m := range []tableNamer{&ProfileSummaryEntity{}, &HourlyComplianceEntity{}, &SiteEligibilityEntity{}, &ReportRunEntity{}} {
			if _, err := tx.ExecuteUpdate(ctx, m, database.OpDelete, m.TableName(), byRun); err != nil {
				return fmt.Errorf("clear %s: %w", m.TableName(), err)
			}
		}
		if _, err := tx.ExecuteUpdate(ctx, &run, database.OpCreate, run.TableName(), nil); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		if len(eligibility) > 0 {
			if _, err := tx.ExecuteUpdate(ctx, &eligibility, database.OpCreate, SiteEligibilityEntity{}.TableName(), nil); err != nil {
				return fmt.Errorf("insert eligibility: %w", err)
			}
		}
		if len(hourly) > 0 {
			if _, err := tx.ExecuteUpdate(ctx, &hourly, database.OpCreate, HourlyComplianceEntity{}.TableName(), nil); err != nil {
				return fmt.Errorf("insert hourly compliance: %w", err)
			}
		}
		if len(summaries) > 0 {
			if _, err := tx.ExecuteUpdate(ctx, &summaries, database.OpCreate, ProfileSummaryEntity{}.TableName(), nil); err != nil {
				return fmt.Errorf("insert profile summaries: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return exception.NewEngineError(moduleName, exception.KindIO, fmt.Sprintf("failed to save report '%s'", report.RunID), err)
	}
	logger.Infof("Report '%s' saved: %d sites, %d hourly rows, %d profiles.", report.RunID, len(eligibility), len(hourly), len(summaries))
	return nil
}

// tableNamer is an entity pointer naming its own table.
type tableNamer interface {
	TableName() string
}

// LatestRunID returns the most recently generated run. ok is false when nothing has been saved.
func (r *ReportRepository) LatestRunID(ctx context.Context) (runID string, ok bool, err error) {
	conn, err := r.conn(ctx)
	if err != nil {
		return "", false, err
	}
	var runs []ReportRunEntity
	if err := conn.ExecuteQueryAdvanced(ctx, &runs, nil, "generated_at DESC", 1); err != nil {
		return "", false, exception.NewEngineError(moduleName, exception.KindIO, "failed to query report runs", err)
	}
	if len(runs) == 0 {
		return "", false, nil
	}
	return runs[0].RunID, true, nil
}

// FindEligibility returns the eligibility table of a run ordered by location code.
func (r *ReportRepository) FindEligibility(ctx context.Context, runID string) ([]model.SiteEligibility, error) {
	conn, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var rows []SiteEligibilityEntity
	if err := conn.ExecuteQueryAdvanced(ctx, &rows, map[string]interface{}{"run_id": runID}, "location_code", 0); err != nil {
		return nil, exception.NewEngineError(moduleName, exception.KindIO, "failed to query site eligibility", err)
	}
	out := make([]model.SiteEligibility, 0, len(rows))
	for _, e := range rows {
		out = append(out, toDomainEligibility(e))
	}
	return out, nil
}

// FindSummaries returns the profile summaries of a run ordered by profile.
func (r *ReportRepository) FindSummaries(ctx context.Context, runID string) ([]model.ProfileSummary, error) {
	conn, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var rows []ProfileSummaryEntity
	if err := conn.ExecuteQueryAdvanced(ctx, &rows, map[string]interface{}{"run_id": runID}, "profile", 0); err != nil {
		return nil, exception.NewEngineError(moduleName, exception.KindIO, "failed to query profile summaries", err)
	}
	out := make([]model.ProfileSummary, 0, len(rows))
	for _, e := range rows {
		out = append(out, toDomainSummary(e))
	}
	return out, nil
}

// FindHourly returns the hourly verdicts of one profile of a run ordered by hour.
func (r *ReportRepository) FindHourly(ctx context.Context, runID, profile string) ([]model.HourlyComplianceRow, error) {
	conn, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var rows []HourlyComplianceEntity
	query := map[string]interface{}{"run_id": runID, "profile": profile}
	if err := conn.ExecuteQueryAdvanced(ctx, &rows, query, "hour", 0); err != nil {
		return nil, exception.NewEngineError(moduleName, exception.KindIO, "failed to query hourly compliance", err)
	}
	out := make([]model.HourlyComplianceRow, 0, len(rows))
	for _, e := range rows {
		out = append(out, toDomainHourly(e))
	}
	return out, nil
}
