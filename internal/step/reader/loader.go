package reader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/tigerroll/vsatsla/internal/domain/model"
	"github.com/tigerroll/vsatsla/internal/normalize"
	"github.com/tigerroll/vsatsla/pkg/batch/adapter/storage"
	config "github.com/tigerroll/vsatsla/pkg/batch/core/config"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/exception"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/logger"
)

// TicketFinder reads tickets from a database.
type TicketFinder interface {
	FindTickets(ctx context.Context) ([]model.OutageTicket, error)
}

// Loader opens source files through a storage connection.
type Loader struct {
	storageResolver storage.StorageConnectionResolver
	cfg             config.SourceConfig
	location        *time.Location
	tickets         TicketFinder
	timestampLayout string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithTimestampLayout sets the layout date-typed cells of test exports are rendered in,
// matching the layout the normalizer parses. The default is normalize.DefaultTimestampLayout.
func WithTimestampLayout(layout string) LoaderOption {
	return func(l *Loader) {
		if layout != "" {
			l.timestampLayout = layout
		}
	}
}

// NewLoader creates a Loader. tickets may be nil when tickets only come from files.
func NewLoader(storageResolver storage.StorageConnectionResolver, cfg config.SourceConfig, location *time.Location, tickets TicketFinder, opts ...LoaderOption) *Loader {
	if location == nil {
		location = time.UTC
	}
	l := &Loader{
		storageResolver: storageResolver,
		cfg:             cfg,
		location:        location,
		tickets:         tickets,
		timestampLayout: normalize.DefaultTimestampLayout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) download(ctx context.Context, name string) ([]byte, error) {
	conn, err := l.storageResolver.ResolveStorageConnection(ctx, l.cfg.StorageRef)
	if err != nil {
		return nil, exception.NewEngineError(moduleName, exception.KindIO, fmt.Sprintf("failed to resolve storage connection '%s'", l.cfg.StorageRef), err)
	}
	rc, err := conn.Download(ctx, l.cfg.Bucket, name)
	if err != nil {
		return nil, exception.NewEngineError(moduleName, exception.KindIO, fmt.Sprintf("failed to open %s", name), err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, exception.NewEngineError(moduleName, exception.KindIO, fmt.Sprintf("failed to read %s", name), err)
	}
	logger.Debugf("Read %d bytes from %s/%s.", len(data), l.cfg.StorageRef, name)
	return data, nil
}

func (l *Loader) readTable(ctx context.Context, name string, opts XLSXOptions) (model.RawTable, error) {
	data, err := l.download(ctx, name)
	if err != nil {
		return model.RawTable{}, err
	}
	return ReadTable(bytes.NewReader(data), name, opts)
}

// expand replaces every name ending in "/" with the exports stored under that prefix, in name order.
func (l *Loader) expand(ctx context.Context, names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if !strings.HasSuffix(name, "/") {
			out = append(out, name)
			continue
		}
		conn, err := l.storageResolver.ResolveStorageConnection(ctx, l.cfg.StorageRef)
		if err != nil {
			return nil, exception.NewEngineError(moduleName, exception.KindIO, fmt.Sprintf("failed to resolve storage connection '%s'", l.cfg.StorageRef), err)
		}
		var found []string
		err = conn.ListObjects(ctx, l.cfg.Bucket, name, func(obj string) error {
			if _, err := FormatOf(obj); err == nil {
				found = append(found, obj)
			}
			return nil
		})
		if err != nil {
			return nil, exception.NewEngineError(moduleName, exception.KindIO, fmt.Sprintf("failed to list %s", name), err)
		}
		if len(found) == 0 {
			return nil, exception.NewEngineError(moduleName, exception.KindConfig, fmt.Sprintf("no test export under %s", name), exception.ErrEmptyInput)
		}
		sort.Strings(found)
		logger.Debugf("Expanded %s to %d export(s).", name, len(found))
		out = append(out, found...)
	}
	return out, nil
}

// LoadTests reads every export. A name ending in "/" stands for every export under that prefix.
// Each file is attempted; the failures are returned together.
func (l *Loader) LoadTests(ctx context.Context, names []string) ([]model.RawTable, error) {
	if len(names) == 0 {
		return nil, exception.NewEngineError(moduleName, exception.KindConfig, "no test export given", exception.ErrEmptyInput)
	}
	var (
		tables []model.RawTable
		errs   *multierror.Error
	)
	expanded, err := l.expand(ctx, names)
	if err != nil {
		return nil, err
	}
	opts := XLSXOptions{Sheet: l.cfg.Sheet, HeaderRow: l.cfg.HeaderRow, DateColumns: normalize.DateHeaders(l.timestampLayout)}
	for _, name := range expanded {
		t, err := l.readTable(ctx, name, opts)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		logger.Infof("Loaded %d rows from %s.", len(t.Rows), name)
		tables = append(tables, t)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return tables, nil
}

// LoadLocations returns the contracted location codes: the configured list plus the codes in the
// file name, if given. The file holds one code (or site identifier) per row under the configured
// location column; a single column file needs no matching header.
func (l *Loader) LoadLocations(ctx context.Context, name string) ([]int, error) {
	set := make(map[int]struct{}, len(l.cfg.Locations))
	for _, c := range l.cfg.Locations {
		set[c] = struct{}{}
	}
	if name != "" {
		t, err := l.readTable(ctx, name, XLSXOptions{HeaderRow: 1})
		if err != nil {
			return nil, err
		}
		codes, err := locationCodes(t, l.cfg.LocationColumn)
		if err != nil {
			return nil, err
		}
		for _, c := range codes {
			set[c] = struct{}{}
		}
	}
	out := make([]int, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Ints(out)
	return out, nil
}

func locationCodes(t model.RawTable, col string) ([]int, error) {
	idx, ok := column(t, col)
	if !ok {
		if len(t.Columns) != 1 {
			return nil, exception.NewSchemaError(moduleName, t.Source, col)
		}
		// A bare list: the first row is data when it parses.
		if code, err := normalize.LocationCode(t.Columns[0]); err == nil {
			t.Rows = append([][]string{{strconv.Itoa(code)}}, t.Rows...)
			t.FirstRow = t.FileRow(0) - 1
		}
		idx = 0
	}
	var codes []int
	for i, row := range t.Rows {
		v := cell(row, idx)
		if v == "" {
			continue
		}
		code, err := normalize.LocationCode(v)
		if err != nil {
			return nil, exception.NewParseError(moduleName, t.Source, t.FileRow(i), col, v, err)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// LoadTickets reads outage tickets from name, or from the ticket database when name is empty and a
// database is configured. No source yields no tickets.
func (l *Loader) LoadTickets(ctx context.Context, name string) ([]model.OutageTicket, error) {
	if name == "" {
		if l.tickets != nil && l.cfg.Tickets.DatabaseRef != "" {
			return l.tickets.FindTickets(ctx)
		}
		logger.Warnf("No outage ticket source; every site is held to the regular sample floor.")
		return nil, nil
	}
	layout := ticketLayout(l.cfg.Tickets)
	t, err := l.readTable(ctx, name, XLSXOptions{HeaderRow: 1, DateColumns: map[string]string{
		l.cfg.Tickets.OpenedColumn:   layout,
		l.cfg.Tickets.ResolvedColumn: layout,
	}})
	if err != nil {
		return nil, err
	}
	return ParseTickets(t, l.cfg.Tickets, l.location)
}

func ticketLayout(cfg config.TicketSourceConfig) string {
	if cfg.TimestampLayout == "" {
		return normalize.DefaultTimestampLayout
	}
	return cfg.TimestampLayout
}

// ParseTickets maps a ticket table using the configured column names. A blank resolution time
// leaves the ticket open.
func ParseTickets(t model.RawTable, cfg config.TicketSourceConfig, location *time.Location) ([]model.OutageTicket, error) {
	idx := make(map[string]int, 3)
	for _, col := range []string{cfg.SiteColumn, cfg.OpenedColumn, cfg.ResolvedColumn} {
		i, ok := column(t, col)
		if !ok {
			return nil, exception.NewSchemaError(moduleName, t.Source, col)
		}
		idx[col] = i
	}
	layout := ticketLayout(cfg)

	tickets := make([]model.OutageTicket, 0, len(t.Rows))
	for i, row := range t.Rows {
		site := cell(row, idx[cfg.SiteColumn])
		if site == "" {
			continue
		}
		opened, err := time.ParseInLocation(layout, cell(row, idx[cfg.OpenedColumn]), location)
		if err != nil {
			return nil, exception.NewParseError(moduleName, t.Source, t.FileRow(i), cfg.OpenedColumn, cell(row, idx[cfg.OpenedColumn]), err)
		}
		ticket := model.OutageTicket{SiteID: site, OpenedAt: opened}
		if raw := cell(row, idx[cfg.ResolvedColumn]); raw != "" {
			resolved, err := time.ParseInLocation(layout, raw, location)
			if err != nil {
				return nil, exception.NewParseError(moduleName, t.Source, t.FileRow(i), cfg.ResolvedColumn, raw, err)
			}
			ticket.ResolvedAt = &resolved
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}
