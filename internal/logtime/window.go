package logtime

import "time"

// DefaultWeekStart is the first day of a reporting week.
const DefaultWeekStart = time.Sunday

// MonthWindow returns the local calendar month of t in loc as a half-open
// interval from the first day at 00:00 to the first day of the next month.
func MonthWindow(t time.Time, loc *time.Location) Interval {
	y, m, _ := t.In(loc).Date()
	return Interval{
		Start: time.Date(y, m, 1, 0, 0, 0, 0, loc),
		End:   time.Date(y, m+1, 1, 0, 0, 0, 0, loc),
	}
}

// WeekWindow returns the seven local days containing t, starting at local
// midnight of the most recent weekStart.
func WeekWindow(t time.Time, loc *time.Location, weekStart time.Weekday) Interval {
	local := t.In(loc)
	offset := (int(local.Weekday()) - int(weekStart) + 7) % 7
	y, m, d := local.Date()
	return Interval{
		Start: time.Date(y, m, d-offset, 0, 0, 0, 0, loc),
		End:   time.Date(y, m, d-offset+7, 0, 0, 0, 0, loc),
	}
}

// FetchRange returns the UTC month containing t as the closed range used to
// query upstream sessions: the first day at 00:00:00Z through the last day
// at 23:59:59Z.
func FetchRange(t time.Time) (begin, end time.Time) {
	y, m, _ := t.UTC().Date()
	begin = time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(y, m+1, 0, 23, 59, 59, 0, time.UTC)
	return begin, end
}
