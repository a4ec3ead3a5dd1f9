// Package views provides the read-only aggregation views over a selected and evaluated record set.
package views

import (
	"sort"
	"time"

	"github.com/tigerroll/vsatsla/internal/domain/model"
)

// OthersBucket names the synthetic bucket collecting every message outside the top N.
const OthersBucket = "others"

// Options controls the failure views.
type Options struct {
	// TruncateThreshold is the rune length above which a message is shortened.
	TruncateThreshold int
	// TruncateLength is the number of runes kept, followed by "..".
	TruncateLength int
	TopN           int
}

// DefaultOptions keeps 40 runes of messages longer than 75 and shows the top 5.
func DefaultOptions() Options {
	return Options{TruncateThreshold: 75, TruncateLength: 40, TopN: 5}
}

// Dataset is the input of every view: the selected records (all results) and their evaluated subset.
type Dataset struct {
	Records   []model.TestRecord
	Evaluated []model.EvaluatedRecord
}

// Filter applies the same predicates to both sets.
func (d Dataset) Filter(fs model.FilterSet) Dataset {
	return Dataset{Records: fs.Apply(d.Records), Evaluated: fs.ApplyEvaluated(d.Evaluated)}
}

// Views computes the aggregation views.
type Views struct {
	opts Options
}

// New creates Views.
func New(opts Options) *Views {
	return &Views{opts: opts}
}

// Summary is the overall view.
type Summary struct {
	Total     int    `yaml:"total"`
	Evaluated int    `yaml:"evaluated"`
	Succeeded int    `yaml:"succeeded"`
	Failed    int    `yaml:"failed"`
	Errored   int    `yaml:"errored"`
	Start     string `yaml:"start"`
	End       string `yaml:"end"`
	Passed    int    `yaml:"passed"`
	NotPassed int    `yaml:"not_passed"`
}

// Summary counts records per result, the evaluated pass split and the date range.
func (v *Views) Summary(d Dataset, fs model.FilterSet) Summary {
	d = d.Filter(fs)
	var s Summary
	var first, last time.Time
	for i, r := range d.Records {
		s.Total++
		switch r.Result {
		case model.ResultSucceeded:
			s.Succeeded++
		case model.ResultFailed:
			s.Failed++
		case model.ResultError:
			s.Errored++
		}
		if i == 0 || r.Timestamp.Before(first) {
			first = r.Timestamp
		}
		if i == 0 || r.Timestamp.After(last) {
			last = r.Timestamp
		}
	}
	if s.Total > 0 {
		s.Start = first.Format(time.DateOnly)
		s.End = last.Format(time.DateOnly)
	}
	for _, e := range d.Evaluated {
		s.Evaluated++
		if e.Pass {
			s.Passed++
		} else {
			s.NotPassed++
		}
	}
	return s
}

// DayProgress is one row of the Progress view.
type DayProgress struct {
	Date      string  `yaml:"date"`
	Count     int     `yaml:"count"`
	DnFailPct float64 `yaml:"dn_fail_pct"`
	UpFailPct float64 `yaml:"up_fail_pct"`
}

// Progress rolls evaluated records up per calendar day. Days without data are omitted.
func (v *Views) Progress(d Dataset, fs model.FilterSet) []DayProgress {
	d = d.Filter(fs)
	groups := make(map[string]*failCounter)
	for _, e := range d.Evaluated {
		key := e.Date()
		if groups[key] == nil {
			groups[key] = &failCounter{}
		}
		groups[key].add(e)
	}
	out := make([]DayProgress, 0, len(groups))
	for day, c := range groups {
		out = append(out, DayProgress{Date: day, Count: c.count, DnFailPct: c.dnPct(), UpFailPct: c.upPct()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// SiteProgress is one row of the per-site (VSAT) view.
type SiteProgress struct {
	SiteID    string  `yaml:"site_id"`
	Profile   string  `yaml:"profile"`
	Count     int     `yaml:"count"`
	DnFailPct float64 `yaml:"dn_fail_pct"`
	UpFailPct float64 `yaml:"up_fail_pct"`
}

// Sites rolls evaluated records up per site, carrying the site's first profile.
// Rows are ordered by upload failure percentage descending, then site.
func (v *Views) Sites(d Dataset, fs model.FilterSet) []SiteProgress {
	d = d.Filter(fs)
	groups := make(map[string]*failCounter)
	profiles := make(map[string]string)
	for _, e := range d.Evaluated {
		if groups[e.SiteID] == nil {
			groups[e.SiteID] = &failCounter{}
			profiles[e.SiteID] = e.Profile
		}
		groups[e.SiteID].add(e)
	}
	out := make([]SiteProgress, 0, len(groups))
	for site, c := range groups {
		out = append(out, SiteProgress{
			SiteID: site, Profile: profiles[site], Count: c.count, DnFailPct: c.dnPct(), UpFailPct: c.upPct(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpFailPct != out[j].UpFailPct {
			return out[i].UpFailPct > out[j].UpFailPct
		}
		return out[i].SiteID < out[j].SiteID
	})
	return out
}

type failCounter struct {
	count, dnFail, upFail int
}

func (c *failCounter) add(e model.EvaluatedRecord) {
	c.count++
	if !e.DnPass {
		c.dnFail++
	}
	if !e.UpPass {
		c.upFail++
	}
}

func (c *failCounter) dnPct() float64 { return 100 * float64(c.dnFail) / float64(c.count) }
func (c *failCounter) upPct() float64 { return 100 * float64(c.upFail) / float64(c.count) }

// Direction selects a link direction.
type Direction string

const (
	Down Direction = "down"
	Up   Direction = "up"
)

// Point is one evaluated test plotted against time.
type Point struct {
	Timestamp time.Time `yaml:"timestamp"`
	Rate      float64   `yaml:"rate"`
	Pass      bool      `yaml:"pass"`
}

// Throughput returns the measured rate and direction verdict of every evaluated test, in time order.
// Day and site drill-downs are this view with a date or site_id filter.
func (v *Views) Throughput(d Dataset, fs model.FilterSet, dir Direction) []Point {
	d = d.Filter(fs)
	out := make([]Point, 0, len(d.Evaluated))
	for _, e := range d.Evaluated {
		p := Point{Timestamp: e.Timestamp, Rate: e.ActualDownRate, Pass: e.DnPass}
		if dir == Up {
			p.Rate, p.Pass = e.ActualUpRate, e.UpPass
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}
