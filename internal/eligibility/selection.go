package eligibility

import "github.com/tigerroll/vsatsla/internal/domain/model"

// Selection scopes the record set before eligibility is computed.
// Empty fields select everything.
type Selection struct {
	// Locations is the reference set of contracted location codes.
	Locations []int
	// TestTypes restricts the test types that count.
	TestTypes []model.TestType
	// ExcludedSites lists site identifiers removed outright.
	ExcludedSites []string
}

// Apply returns the selected records in input order.
func (s Selection) Apply(records []model.TestRecord) []model.TestRecord {
	if len(s.Locations) == 0 && len(s.TestTypes) == 0 && len(s.ExcludedSites) == 0 {
		return records
	}
	locations := toSet(s.Locations)
	types := toSet(s.TestTypes)
	excluded := toSet(s.ExcludedSites)

	out := make([]model.TestRecord, 0, len(records))
	for _, r := range records {
		if len(locations) > 0 {
			if _, ok := locations[r.LocationCode]; !ok {
				continue
			}
		}
		if len(types) > 0 {
			if _, ok := types[r.TestType]; !ok {
				continue
			}
		}
		if _, ok := excluded[r.SiteID]; ok {
			continue
		}
		out = append(out, r)
	}
	return out
}

func toSet[T comparable](items []T) map[T]struct{} {
	set := make(map[T]struct{}, len(items))
	for _, i := range items {
		set[i] = struct{}{}
	}
	return set
}
