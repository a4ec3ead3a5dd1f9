package repository

import (
	"context"
	"fmt"

	"github.com/tigerroll/vsatsla/internal/domain/model"
	"github.com/tigerroll/vsatsla/pkg/batch/adapter/database"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/exception"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/logger"
)

// TicketRepository reads outage tickets kept by the operations database.
type TicketRepository struct {
	dbResolver database.DBConnectionResolver
	dbName     string
}

// NewTicketRepository creates a repository over the connection named dbName.
func NewTicketRepository(dbResolver database.DBConnectionResolver, dbName string) *TicketRepository {
	return &TicketRepository{dbResolver: dbResolver, dbName: dbName}
}

// FindTickets returns every ticket ordered by site and opening time.
func (r *TicketRepository) FindTickets(ctx context.Context) ([]model.OutageTicket, error) {
	conn, err := resolve(ctx, r.dbResolver, r.dbName)
	if err != nil {
		return nil, err
	}
	var rows []OutageTicketEntity
	if err := conn.ExecuteQueryAdvanced(ctx, &rows, nil, "site_id, opened_at", 0); err != nil {
		return nil, exception.NewEngineError(moduleName, exception.KindIO, "failed to query outage tickets", err)
	}
	out := make([]model.OutageTicket, 0, len(rows))
	for _, e := range rows {
		out = append(out, toDomainTicket(e))
	}
	logger.Debugf("Loaded %d outage tickets from '%s'.", len(out), r.dbName)
	return out, nil
}

// SaveTickets appends tickets.
func (r *TicketRepository) SaveTickets(ctx context.Context, tickets []model.OutageTicket) error {
	if len(tickets) == 0 {
		return nil
	}
	conn, err := resolve(ctx, r.dbResolver, r.dbName)
	if err != nil {
		return err
	}
	rows := make([]OutageTicketEntity, 0, len(tickets))
	for _, t := range tickets {
		rows = append(rows, fromDomainTicket(t))
	}
	if _, err := conn.ExecuteUpdate(ctx, &rows, database.OpCreate, OutageTicketEntity{}.TableName(), nil); err != nil {
		return exception.NewEngineError(moduleName, exception.KindIO, fmt.Sprintf("failed to save %d outage tickets", len(rows)), err)
	}
	return nil
}
