package test

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tigerroll/vsatsla/internal/domain/model"
)

// NewSucceeded creates a Succeeded record whose expected rates are parsed from the profile
// ("Down:12 / Up:3" expects 12 down and 3 up).
func NewSucceeded(site, profile string, ts time.Time, dn, up float64) model.TestRecord {
	r := newRecord(site, profile, ts, model.ResultSucceeded)
	r.ActualDownRate, r.ActualUpRate = dn, up
	return r
}

// NewFailed creates a Failed record carrying msg.
func NewFailed(site, profile string, ts time.Time, msg string) model.TestRecord {
	r := newRecord(site, profile, ts, model.ResultFailed)
	r.ErrorMessage = msg
	return r
}

func newRecord(site, profile string, ts time.Time, result model.Result) model.TestRecord {
	loc, _ := strconv.Atoi(strings.SplitN(site, "-", 2)[0])
	r := model.TestRecord{
		SiteID:       site,
		LocationCode: loc,
		Timestamp:    ts,
		Hour:         ts.Format("15:04:05"),
		Profile:      profile,
		Result:       result,
		TestType:     model.TestTypeScheduled,
	}
	if dn, ok := model.ProfileRateToken(profile, "Down:"); ok {
		r.ExpectedDownRate, _ = strconv.ParseFloat(dn, 64)
		r.ProfileID = int(r.ExpectedDownRate)
	}
	if up, ok := model.ProfileRateToken(profile, "Up:"); ok {
		r.ExpectedUpRate, _ = strconv.ParseFloat(up, 64)
	}
	return r
}

// At returns the day of base at hour:minute.
func At(base time.Time, hour, minute int) time.Time {
	return time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, base.Location())
}

// Sites returns n site identifiers "<first+i>-A".
func Sites(first, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%d-A", first+i)
	}
	return out
}
