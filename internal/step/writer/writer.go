// Package writer publishes assembled reports: an XLSX workbook, Parquet tables and database rows.
package writer

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/tigerroll/vsatsla/internal/report"
	"github.com/tigerroll/vsatsla/pkg/batch/adapter/database"
	"github.com/tigerroll/vsatsla/pkg/batch/adapter/storage"
	"github.com/tigerroll/vsatsla/pkg/batch/component/tasklet/migration"
	config "github.com/tigerroll/vsatsla/pkg/batch/core/config"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/exception"
)

const moduleName = "writer"

// Sink names accepted in the report configuration.
const (
	SinkXLSX     = "xlsx"
	SinkParquet  = "parquet"
	SinkDatabase = "database"
)

// objectName is the storage key of a report file: <baseDir>/<runID>/<file>.
func objectName(baseDir, runID, file string) string {
	return path.Join(baseDir, runID, file)
}

// storageTarget uploads files of one report through a named storage connection.
type storageTarget struct {
	resolver   storage.StorageConnectionResolver
	storageRef string
	bucket     string
	baseDir    string
}

func (t storageTarget) upload(ctx context.Context, conn storage.StorageConnection, runID, file string, data []byte, contentType string) error {
	name := objectName(t.baseDir, runID, file)
	if err := conn.Upload(ctx, t.bucket, name, bytes.NewReader(data), contentType); err != nil {
		return exception.NewEngineError(moduleName, exception.KindIO, fmt.Sprintf("failed to upload %s to '%s'", name, t.storageRef), err)
	}
	return nil
}

func (t storageTarget) connection(ctx context.Context) (storage.StorageConnection, error) {
	conn, err := t.resolver.ResolveStorageConnection(ctx, t.storageRef)
	if err != nil {
		return nil, exception.NewEngineError(moduleName, exception.KindIO, fmt.Sprintf("failed to resolve storage connection '%s'", t.storageRef), err)
	}
	return conn, nil
}

// Deps are the connections the sinks publish through.
type Deps struct {
	Storage  storage.StorageConnectionResolver
	Database database.DBConnectionResolver
	Migrator migration.Migrator
}

// NewSinks creates the sinks named in cfg.Sinks, in order.
func NewSinks(cfg config.ReportConfig, deps Deps) ([]report.Sink, error) {
	sinks := make([]report.Sink, 0, len(cfg.Sinks))
	for _, name := range cfg.Sinks {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case SinkXLSX:
			sinks = append(sinks, NewXLSXSink(deps.Storage, cfg))
		case SinkParquet:
			sinks = append(sinks, NewParquetSink(deps.Storage, cfg))
		case SinkDatabase:
			if cfg.DatabaseRef == "" || deps.Database == nil {
				return nil, exception.NewEngineErrorf(moduleName, exception.KindConfig, "sink 'database' requires vsat.report.database_ref")
			}
			migrator := deps.Migrator
			if migrator == nil {
				migrator = migration.NewMigrator()
			}
			sinks = append(sinks, NewDatabaseSink(deps.Database, migrator, cfg.DatabaseRef))
		default:
			return nil, exception.NewEngineErrorf(moduleName, exception.KindConfig, "unknown report sink '%s'", name)
		}
	}
	return sinks, nil
}
