package views

import (
	"sort"
	"time"

	"github.com/tigerroll/vsatsla/internal/domain/model"
)

// Truncate shortens a message longer than threshold runes to its first length runes plus "..".
// The two limits differ on purpose; messages between them are kept whole.
func Truncate(msg string, threshold, length int) string {
	runes := []rune(msg)
	if len(runes) <= threshold {
		return msg
	}
	if length > len(runes) {
		length = len(runes)
	}
	return string(runes[:length]) + ".."
}

func (v *Views) truncate(msg string) string {
	return Truncate(msg, v.opts.TruncateThreshold, v.opts.TruncateLength)
}

// FailureCount is one bucket of the failure breakdown.
type FailureCount struct {
	Message string `yaml:"message"`
	Count   int    `yaml:"count"`
}

// FailureBreakdown counts Failed records per (truncated) message. The top N messages by count
// (ties by message) are followed by an "others" bucket holding the rest, which is always present.
func (v *Views) FailureBreakdown(d Dataset, fs model.FilterSet) []FailureCount {
	d = d.Filter(fs)
	counts := make(map[string]int)
	for _, r := range d.Records {
		if r.Result == model.ResultFailed {
			counts[v.truncate(r.ErrorMessage)]++
		}
	}
	// A message spelled like the synthetic bucket is counted in it rather than ranked.
	others := counts[OthersBucket]
	delete(counts, OthersBucket)
	all := make([]FailureCount, 0, len(counts))
	for msg, n := range counts {
		all = append(all, FailureCount{Message: msg, Count: n})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		return all[i].Message < all[j].Message
	})

	top := v.opts.TopN
	if top > len(all) {
		top = len(all)
	}
	out := append([]FailureCount(nil), all[:top]...)
	for _, fc := range all[top:] {
		others += fc.Count
	}
	return append(out, FailureCount{Message: OthersBucket, Count: others})
}

// HourBucket is one row of the failure time series. Counts aligns with FailureSeries.Messages.
type HourBucket struct {
	Hour   time.Time `yaml:"hour"`
	Counts []int     `yaml:"counts"`
}

// FailureSeries is a sparse hour by message table of failure counts.
type FailureSeries struct {
	Messages []string     `yaml:"messages"`
	Buckets  []HourBucket `yaml:"buckets"`
}

// FailureTimeSeries counts Failed records per truncated message per clock hour.
// Only hours with at least one failure appear; messages are sorted.
func (v *Views) FailureTimeSeries(d Dataset, fs model.FilterSet) FailureSeries {
	d = d.Filter(fs)
	type cell struct {
		hour int64
		msg  string
	}
	counts := make(map[cell]int)
	hours := make(map[int64]time.Time)
	messages := make(map[string]struct{})
	for _, r := range d.Records {
		if r.Result != model.ResultFailed {
			continue
		}
		ts := r.Timestamp
		h := time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), 0, 0, 0, ts.Location())
		msg := v.truncate(r.ErrorMessage)
		counts[cell{h.Unix(), msg}]++
		hours[h.Unix()] = h
		messages[msg] = struct{}{}
	}

	var series FailureSeries
	for m := range messages {
		series.Messages = append(series.Messages, m)
	}
	sort.Strings(series.Messages)

	keys := make([]int64, 0, len(hours))
	for k := range hours {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		b := HourBucket{Hour: hours[k], Counts: make([]int, len(series.Messages))}
		for i, m := range series.Messages {
			b.Counts[i] = counts[cell{k, m}]
		}
		series.Buckets = append(series.Buckets, b)
	}
	return series
}
