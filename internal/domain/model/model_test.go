package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/vsatsla/internal/domain/model"
	"github.com/tigerroll/vsatsla/pkg/batch/support/util/exception"
)

func TestSheetPrefix(t *testing.T) {
	tests := []struct {
		profile string
		want    string
		ok      bool
	}{
		{"Down:12 Mbps / Up:3 Mbps", "12X3", true},
		{"Down: 12 / Up: 3", "12X3", true},
		{"Perfil Down:4.5 Up:1", "4.5X1", true},
		{"Down:8", "8", true},
		{"Up:3", "", false},
		{"Down:abc Up:3", "", false},
	}
	for _, tt := range tests {
		got, ok := model.SheetPrefix(tt.profile)
		assert.Equal(t, tt.ok, ok, tt.profile)
		assert.Equal(t, tt.want, got, tt.profile)
	}
}

func TestOutageTicket_DowntimeDays(t *testing.T) {
	opened := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	resolved := opened.Add(47 * time.Hour)
	now := opened.Add(73 * time.Hour)

	assert.Equal(t, 1, model.OutageTicket{OpenedAt: opened, ResolvedAt: &resolved}.DowntimeDays(now))
	assert.Equal(t, 3, model.OutageTicket{OpenedAt: opened}.DowntimeDays(now), "open tickets run until now")

	before := opened.Add(-time.Hour)
	assert.Equal(t, 0, model.OutageTicket{OpenedAt: opened, ResolvedAt: &before}.DowntimeDays(now))
}

func TestFilterSet(t *testing.T) {
	r := model.TestRecord{
		SiteID:       "1234-A",
		LocationCode: 1234,
		Timestamp:    time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC),
		Profile:      "Down:12 / Up:3",
		ProfileID:    12,
		Result:       model.ResultSucceeded,
		TestType:     model.TestTypeScheduled,
	}

	var empty model.FilterSet
	assert.True(t, empty.Match(r))

	fs, err := model.NewFilterSet(map[string]string{"profile_id": "12", "test_type": "scheduled", "date": "2024-03-05"})
	require.NoError(t, err)
	assert.True(t, fs.Match(r))

	narrowed, err := fs.With("location_code", "9999")
	require.NoError(t, err)
	assert.False(t, narrowed.Match(r))
	assert.True(t, fs.Match(r), "With must not modify the receiver")

	_, err = model.NewFilterSet(map[string]string{"colour": "blue"})
	assert.Error(t, err)

	cols := fs.Filters()
	require.Len(t, cols, 3)
	assert.Equal(t, "date", cols[0].Column)
}

func TestNewProfileSlice(t *testing.T) {
	recs := []model.TestRecord{{SiteID: "1-A", Profile: "P1"}, {SiteID: "2-A", Profile: "P1"}}
	s, err := model.NewProfileSlice("P1", recs)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "P1", s.Profile())

	_, err = model.NewProfileSlice("P1", append(recs, model.TestRecord{SiteID: "3-A", Profile: "P2"}))
	assert.ErrorIs(t, err, exception.ErrMixedProfiles)

	empty, err := model.NewProfileSlice("P9", nil)
	require.NoError(t, err)
	assert.Zero(t, empty.Len())
}

func TestSplitByProfile(t *testing.T) {
	recs := []model.TestRecord{
		{SiteID: "1-A", Profile: "P2"},
		{SiteID: "2-A", Profile: "P1"},
		{SiteID: "3-A", Profile: "P2"},
	}
	slices := model.SplitByProfile(recs)
	require.Len(t, slices, 2)
	assert.Equal(t, "P1", slices[0].Profile())
	assert.Equal(t, "P2", slices[1].Profile())
	assert.Equal(t, "1-A", slices[1].Records()[0].SiteID)
	assert.Equal(t, "3-A", slices[1].Records()[1].SiteID)
}
