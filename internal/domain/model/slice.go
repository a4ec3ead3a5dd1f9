package model

import (
	"fmt"
	"sort"

	"github.com/tigerroll/vsatsla/pkg/batch/support/util/exception"
)

// ProfileSlice is a record set guaranteed to hold a single profile.
// Compliance is only defined over such a slice.
type ProfileSlice struct {
	profile string
	records []TestRecord
}

// NewProfileSlice wraps records of one profile. A record of any other profile yields ErrMixedProfiles.
// An empty record set is a valid slice.
func NewProfileSlice(profile string, records []TestRecord) (ProfileSlice, error) {
	for i, r := range records {
		if r.Profile != profile {
			return ProfileSlice{}, fmt.Errorf("%w: record %d of site %s has profile %q, slice is %q",
				exception.ErrMixedProfiles, i, r.SiteID, r.Profile, profile)
		}
	}
	return ProfileSlice{profile: profile, records: append([]TestRecord(nil), records...)}, nil
}

// Profile returns the slice's profile.
func (s ProfileSlice) Profile() string { return s.profile }

// Records returns a copy of the slice's records.
func (s ProfileSlice) Records() []TestRecord { return append([]TestRecord(nil), s.records...) }

// Len returns the number of records.
func (s ProfileSlice) Len() int { return len(s.records) }

// SplitByProfile groups records into one slice per profile, ordered by profile.
func SplitByProfile(records []TestRecord) []ProfileSlice {
	groups := make(map[string][]TestRecord)
	for _, r := range records {
		groups[r.Profile] = append(groups[r.Profile], r)
	}
	profiles := make([]string, 0, len(groups))
	for p := range groups {
		profiles = append(profiles, p)
	}
	sort.Strings(profiles)

	slices := make([]ProfileSlice, 0, len(profiles))
	for _, p := range profiles {
		slices = append(slices, ProfileSlice{profile: p, records: groups[p]})
	}
	return slices
}
