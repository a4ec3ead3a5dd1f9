package gorm

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tigerroll/vsatsla/pkg/batch/adapter/database"
	dbconfig "github.com/tigerroll/vsatsla/pkg/batch/adapter/database/config"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/logger"
)

// TableNamer is implemented by models that name their own table.
type TableNamer interface {
	TableName() string
}

// executor implements database.DBExecutor over a *gorm.DB, which may be a transaction.
type executor struct {
	db *gorm.DB
}

func (e executor) session(ctx context.Context, tableName string) *gorm.DB {
	db := e.db.WithContext(ctx)
	if tableName != "" {
		db = db.Table(tableName)
	}
	return db
}

// ExecuteUpdate implements database.DBExecutor.
func (e executor) ExecuteUpdate(ctx context.Context, model interface{}, operation string, tableName string, query map[string]interface{}) (int64, error) {
	db := e.session(ctx, tableName)
	var result *gorm.DB
	switch operation {
	case database.OpCreate:
		result = db.Create(model)
	case database.OpDelete:
		if len(query) == 0 {
			return 0, fmt.Errorf("refusing unrestricted DELETE on %s", tableName)
		}
		result = db.Where(query).Delete(model)
	default:
		return 0, fmt.Errorf("unsupported update operation: %s", operation)
	}
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ExecuteUpsert implements database.DBExecutor.
func (e executor) ExecuteUpsert(ctx context.Context, model interface{}, tableName string, conflictColumns []string, updateColumns []string) (int64, error) {
	db := e.session(ctx, tableName)
	onConflict := clause.OnConflict{}
	for _, col := range conflictColumns {
		onConflict.Columns = append(onConflict.Columns, clause.Column{Name: col})
	}
	if len(updateColumns) > 0 {
		onConflict.DoUpdates = clause.AssignmentColumns(updateColumns)
	} else {
		onConflict.DoNothing = true
	}
	result := db.Clauses(onConflict).Create(model)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ExecuteQuery implements database.DBExecutor.
func (e executor) ExecuteQuery(ctx context.Context, target interface{}, query map[string]interface{}) error {
	return e.ExecuteQueryAdvanced(ctx, target, query, "", 0)
}

// ExecuteQueryAdvanced implements database.DBExecutor.
func (e executor) ExecuteQueryAdvanced(ctx context.Context, target interface{}, query map[string]interface{}, orderBy string, limit int) error {
	db := e.db.WithContext(ctx)
	if len(query) > 0 {
		db = db.Where(query)
	}
	if orderBy != "" {
		db = db.Order(orderBy)
	}
	if limit > 0 {
		db = db.Limit(limit)
	}
	return db.Find(target).Error
}

// Count implements database.DBExecutor.
func (e executor) Count(ctx context.Context, model interface{}, query map[string]interface{}) (int64, error) {
	db := e.db.WithContext(ctx).Model(model)
	if namer, ok := model.(TableNamer); ok {
		db = db.Table(namer.TableName())
	}
	if len(query) > 0 {
		db = db.Where(query)
	}
	var count int64
	if err := db.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GormDBAdapter implements database.DBConnection.
type GormDBAdapter struct {
	executor
	sqlDB *sql.DB
	cfg   dbconfig.DatabaseConfig
	name  string
}

// NewGormDBAdapter wraps an open gorm connection.
func NewGormDBAdapter(db *gorm.DB, cfg dbconfig.DatabaseConfig, name string) (*GormDBAdapter, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying *sql.DB: %w", err)
	}
	return &GormDBAdapter{executor: executor{db: db}, sqlDB: sqlDB, cfg: cfg, name: name}, nil
}

// Close closes the connection pool.
func (a *GormDBAdapter) Close() error {
	logger.Infof("Closing database connection '%s'...", a.name)
	return a.sqlDB.Close()
}

func (a *GormDBAdapter) Type() string { return a.cfg.Type }

func (a *GormDBAdapter) Name() string { return a.name }

// Transaction implements database.DBConnection.
func (a *GormDBAdapter) Transaction(ctx context.Context, fn func(tx database.DBExecutor) error) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(executor{db: tx})
	})
}

// RefreshConnection implements database.DBConnection.
func (a *GormDBAdapter) RefreshConnection(ctx context.Context) error {
	return a.sqlDB.PingContext(ctx)
}

// Config implements database.DBConnection.
func (a *GormDBAdapter) Config() dbconfig.DatabaseConfig {
	return a.cfg
}

// GetSQLDB implements database.DBConnection.
func (a *GormDBAdapter) GetSQLDB() (*sql.DB, error) {
	return a.sqlDB, nil
}

var _ database.DBConnection = (*GormDBAdapter)(nil)
