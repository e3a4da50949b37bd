// Package logtime implements the session-interval aggregation used to compute
// a student's logtime: splitting sessions at local midnights, merging
// overlapping intervals and summing coverage per day or per window.
//
// All arithmetic is performed on UTC instants. The reference location is only
// consulted to find local midnights and to build day keys.
package logtime

import (
	"slices"
	"time"
)

const (
	// DefaultZone is the school's reference time zone used for day keying.
	DefaultZone = "Europe/Brussels"
	// DayKeyLayout is the layout of a day key (local calendar date).
	DayKeyLayout = "2006-01-02"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Empty reports whether the interval covers no time (Start >= End).
func (i Interval) Empty() bool {
	return !i.Start.Before(i.End)
}

// Duration returns the length of the interval, or zero for an empty one.
func (i Interval) Duration() time.Duration {
	if i.Empty() {
		return 0
	}
	return i.End.Sub(i.Start)
}

// Clip returns the part of i that lies inside w. The result may be empty.
func (i Interval) Clip(w Interval) Interval {
	out := i
	if w.Start.After(out.Start) {
		out.Start = w.Start
	}
	if w.End.Before(out.End) {
		out.End = w.End
	}
	return out
}

// DayKey returns the local calendar date of t in loc, formatted YYYY-MM-DD.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayKeyLayout)
}

// nextMidnight returns the first instant strictly after t at which the local
// clock in loc reads 00:00:00.
func nextMidnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	if !next.After(t) {
		// Ambiguous midnight in zones whose DST shift happens at 00:00.
		return nextMidnight(t.Add(time.Hour), loc)
	}
	return next
}

// SplitByDay cuts iv at each local midnight in loc.
//
// The returned pieces are non-empty, ordered by start, and their union is
// exactly iv. Each piece lies within a single local calendar day, so a day
// spanning a DST transition yields a 23 or 25 hour piece at most. An empty
// or reversed interval yields nil.
func SplitByDay(iv Interval, loc *time.Location) []Interval {
	if iv.Empty() {
		return nil
	}

	var pieces []Interval
	start := iv.Start
	for start.Before(iv.End) {
		end := nextMidnight(start, loc)
		if end.After(iv.End) {
			end = iv.End
		}
		pieces = append(pieces, Interval{Start: start, End: end})
		start = end
	}
	return pieces
}

// Merge sorts intervals by start and coalesces any that overlap or touch.
// Empty intervals are discarded. The input slice is left untouched.
func Merge(intervals []Interval) []Interval {
	sorted := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if !iv.Empty() {
			sorted = append(sorted, iv)
		}
	}
	if len(sorted) == 0 {
		return nil
	}

	slices.SortFunc(sorted, func(a, b Interval) int {
		return a.Start.Compare(b.Start)
	})

	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// Total returns the summed length of intervals. Callers pass merged
// intervals; overlapping input is counted twice.
func Total(intervals []Interval) time.Duration {
	var total time.Duration
	for _, iv := range intervals {
		total += iv.Duration()
	}
	return total
}

// SumHours returns Total expressed in hours. The sum is kept in integer
// nanoseconds and only converted to a float here.
func SumHours(intervals []Interval) float64 {
	return Total(intervals).Hours()
}
