package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Filterable columns.
const (
	ColumnSiteID       = "site_id"
	ColumnLocationCode = "location_code"
	ColumnProfile      = "profile"
	ColumnProfileID    = "profile_id"
	ColumnTestType     = "test_type"
	ColumnResult       = "result"
	ColumnDate         = "date"
)

var filterColumns = map[string]bool{
	ColumnSiteID:       true,
	ColumnLocationCode: true,
	ColumnProfile:      true,
	ColumnProfileID:    true,
	ColumnTestType:     true,
	ColumnResult:       true,
	ColumnDate:         true,
}

// FilterColumns returns the filterable column names, sorted.
func FilterColumns() []string {
	cols := make([]string, 0, len(filterColumns))
	for c := range filterColumns {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Filter is one equality predicate.
type Filter struct {
	Column string
	Value  string
}

// FilterSet is an immutable conjunction of equality predicates. The zero value matches everything.
type FilterSet struct {
	filters []Filter
}

// NewFilterSet builds a FilterSet from column/value pairs. Unknown columns are rejected.
func NewFilterSet(values map[string]string) (FilterSet, error) {
	var fs FilterSet
	for col, val := range values {
		if !filterColumns[col] {
			return FilterSet{}, fmt.Errorf("unknown filter column %q (expected one of %s)", col, strings.Join(FilterColumns(), ", "))
		}
		fs.filters = append(fs.filters, Filter{Column: col, Value: strings.TrimSpace(val)})
	}
	sort.Slice(fs.filters, func(i, j int) bool { return fs.filters[i].Column < fs.filters[j].Column })
	return fs, nil
}

// With returns a copy of the set with one more predicate. An existing predicate on the column is replaced.
func (fs FilterSet) With(column, value string) (FilterSet, error) {
	m := fs.Map()
	m[column] = value
	return NewFilterSet(m)
}

// Map returns the predicates as a fresh map.
func (fs FilterSet) Map() map[string]string {
	m := make(map[string]string, len(fs.filters))
	for _, f := range fs.filters {
		m[f.Column] = f.Value
	}
	return m
}

// Filters returns the predicates ordered by column.
func (fs FilterSet) Filters() []Filter {
	return append([]Filter(nil), fs.filters...)
}

// Empty reports whether the set has no predicates.
func (fs FilterSet) Empty() bool { return len(fs.filters) == 0 }

// Match reports whether r satisfies every predicate.
func (fs FilterSet) Match(r TestRecord) bool {
	for _, f := range fs.filters {
		if !matchColumn(r, f) {
			return false
		}
	}
	return true
}

func matchColumn(r TestRecord, f Filter) bool {
	switch f.Column {
	case ColumnSiteID:
		return r.SiteID == f.Value
	case ColumnLocationCode:
		return strconv.Itoa(r.LocationCode) == f.Value
	case ColumnProfile:
		return r.Profile == f.Value
	case ColumnProfileID:
		return strconv.Itoa(r.ProfileID) == f.Value
	case ColumnTestType:
		return strings.EqualFold(string(r.TestType), f.Value)
	case ColumnResult:
		return strings.EqualFold(string(r.Result), f.Value)
	case ColumnDate:
		return r.Date() == f.Value
	}
	return false
}

// Apply returns the records matching the set, in input order.
func (fs FilterSet) Apply(records []TestRecord) []TestRecord {
	if fs.Empty() {
		return records
	}
	out := make([]TestRecord, 0, len(records))
	for _, r := range records {
		if fs.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// ApplyEvaluated is Apply for evaluated records.
func (fs FilterSet) ApplyEvaluated(records []EvaluatedRecord) []EvaluatedRecord {
	if fs.Empty() {
		return records
	}
	out := make([]EvaluatedRecord, 0, len(records))
	for _, r := range records {
		if fs.Match(r.TestRecord) {
			out = append(out, r)
		}
	}
	return out
}
