package logtime

import (
	"cmp"
	"slices"
	"time"
)

// Session is a normalized login session as seen by the engine. Open sessions
// have End set to the capture time of the request that produced them.
type Session struct {
	Begin time.Time `json:"begin"`
	End   time.Time `json:"end"`
	Host  string    `json:"host"`
	Open  bool      `json:"open"`
}

// Interval returns the time covered by the session, closing open sessions at
// captureTime.
func (s Session) Interval(captureTime time.Time) Interval {
	end := s.End
	if s.Open {
		end = captureTime
	}
	return Interval{Start: s.Begin, End: end}
}

// DayBucket groups the intervals attributed to one local calendar day.
type DayBucket struct {
	DayKey    string     `json:"day_key"`
	Intervals []Interval `json:"intervals"`
}

// DayHours is the merged coverage of one local day.
type DayHours struct {
	DayKey string  `json:"day_key"`
	Hours  float64 `json:"hours"`
}

// WindowTotal is the merged coverage of sessions clipped to a window.
type WindowTotal struct {
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Hours       float64   `json:"hours"`
}

// Bucket splits every interval at local midnights and groups the pieces by
// day key. Buckets are returned ordered by day key; intervals inside a bucket
// keep their input order and are not merged.
func Bucket(intervals []Interval, loc *time.Location) []DayBucket {
	index := make(map[string]int)
	var buckets []DayBucket

	for _, iv := range intervals {
		for _, piece := range SplitByDay(iv, loc) {
			key := DayKey(piece.Start, loc)
			i, ok := index[key]
			if !ok {
				i = len(buckets)
				index[key] = i
				buckets = append(buckets, DayBucket{DayKey: key})
			}
			buckets[i].Intervals = append(buckets[i].Intervals, piece)
		}
	}

	slices.SortFunc(buckets, func(a, b DayBucket) int {
		return cmp.Compare(a.DayKey, b.DayKey)
	})
	return buckets
}

// DayDurations returns the merged coverage per local day.
func DayDurations(sessions []Session, loc *time.Location, captureTime time.Time) map[string]time.Duration {
	intervals := make([]Interval, 0, len(sessions))
	for _, s := range sessions {
		intervals = append(intervals, s.Interval(captureTime))
	}
	return mergeBuckets(Bucket(intervals, loc))
}

// HoursPerDay returns the hours logged per local day key. Days without any
// coverage are absent from the map.
func HoursPerDay(sessions []Session, loc *time.Location, captureTime time.Time) map[string]float64 {
	durations := DayDurations(sessions, loc, captureTime)
	hours := make(map[string]float64, len(durations))
	for key, d := range durations {
		hours[key] = d.Hours()
	}
	return hours
}

// TotalInWindow returns the hours covered by sessions inside window. Sessions
// are clipped to the window before being split, and merging happens per day
// so overlaps are only ever resolved within a single local day.
func TotalInWindow(sessions []Session, window Interval, loc *time.Location, captureTime time.Time) WindowTotal {
	intervals := make([]Interval, 0, len(sessions))
	for _, s := range sessions {
		clipped := s.Interval(captureTime).Clip(window)
		if !clipped.Empty() {
			intervals = append(intervals, clipped)
		}
	}

	var total time.Duration
	for _, d := range mergeBuckets(Bucket(intervals, loc)) {
		total += d
	}

	return WindowTotal{
		WindowStart: window.Start,
		WindowEnd:   window.End,
		Hours:       total.Hours(),
	}
}

// SortedDays flattens a day map into DayHours ordered by day key.
func SortedDays(hours map[string]float64) []DayHours {
	days := make([]DayHours, 0, len(hours))
	for key, h := range hours {
		days = append(days, DayHours{DayKey: key, Hours: h})
	}
	slices.SortFunc(days, func(a, b DayHours) int {
		return cmp.Compare(a.DayKey, b.DayKey)
	})
	return days
}

func mergeBuckets(buckets []DayBucket) map[string]time.Duration {
	out := make(map[string]time.Duration, len(buckets))
	for _, b := range buckets {
		if d := Total(Merge(b.Intervals)); d > 0 {
			out[b.DayKey] = d
		}
	}
	return out
}
