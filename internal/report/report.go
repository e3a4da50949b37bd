// Package report turns sessions into the monthly calendar view: per-day
// hours with a heat level, the month total and the current week total.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/arnaudderison/logtime19/internal/logtime"
)

// HeatLevel buckets a day's hours for the calendar heatmap.
type HeatLevel string

const (
	LevelNone   HeatLevel = "none"
	LevelLow    HeatLevel = "low"
	LevelMedium HeatLevel = "medium"
	LevelHigh   HeatLevel = "high"
)

// Heat thresholds, in hours.
const (
	mediumThreshold = 3.0
	highThreshold   = 6.0
)

// Day is one calendar cell.
type Day struct {
	DayKey    string       `json:"day_key"`
	Day       int          `json:"day"`
	Weekday   time.Weekday `json:"weekday"`
	Hours     float64      `json:"hours"`
	Level     HeatLevel    `json:"level"`
	Formatted string       `json:"formatted"`
}

// Month is the calendar of the month containing the capture time.
type Month struct {
	Title      string              `json:"title"`
	Days       []Day               `json:"days"`
	MonthTotal logtime.WindowTotal `json:"month_total"`
	WeekTotal  logtime.WindowTotal `json:"week_total"`
}

// FormatHours renders hours as "4h30". Minutes are rounded; negative input
// renders as 0h00.
func FormatHours(hours float64) string {
	if hours <= 0 || math.IsNaN(hours) {
		return "0h00"
	}
	minutes := int64(math.Round(hours * 60))
	return fmt.Sprintf("%dh%02d", minutes/60, minutes%60)
}

// Level returns the heat level of a day.
func Level(hours float64) HeatLevel {
	switch {
	case hours >= highThreshold:
		return LevelHigh
	case hours >= mediumThreshold:
		return LevelMedium
	case hours > 0:
		return LevelLow
	default:
		return LevelNone
	}
}

// BuildMonth lays out every day of the local month containing captureTime,
// including days without any session.
func BuildMonth(sessions []logtime.Session, loc *time.Location, captureTime time.Time) Month {
	month := logtime.MonthWindow(captureTime, loc)
	week := logtime.WeekWindow(captureTime, loc, logtime.DefaultWeekStart)
	hours := logtime.HoursPerDay(sessions, loc, captureTime)

	var days []Day
	for d := month.Start; d.Before(month.End); d = d.AddDate(0, 0, 1) {
		key := logtime.DayKey(d, loc)
		h := hours[key]
		days = append(days, Day{
			DayKey:    key,
			Day:       d.Day(),
			Weekday:   d.Weekday(),
			Hours:     h,
			Level:     Level(h),
			Formatted: FormatHours(h),
		})
	}

	return Month{
		Title:      month.Start.Format("January 2006"),
		Days:       days,
		MonthTotal: logtime.TotalInWindow(sessions, month, loc, captureTime),
		WeekTotal:  logtime.TotalInWindow(sessions, week, loc, captureTime),
	}
}

var levelMarks = map[HeatLevel]string{
	LevelNone:   " ",
	LevelLow:    ".",
	LevelMedium: "+",
	LevelHigh:   "#",
}

const cellWidth = 10

// Render writes the month as a 7-column text grid, weeks starting on
// Sunday, followed by the totals.
func Render(w io.Writer, m Month) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", m.Title)
	for i := 0; i < 7; i++ {
		wd := time.Weekday((int(logtime.DefaultWeekStart) + i) % 7)
		fmt.Fprintf(&b, "%-*s", cellWidth, wd.String()[:3])
	}
	b.WriteString("\n")

	if len(m.Days) > 0 {
		col := (int(m.Days[0].Weekday) - int(logtime.DefaultWeekStart) + 7) % 7
		b.WriteString(strings.Repeat(" ", col*cellWidth))
		for _, d := range m.Days {
			formatted := ""
			if d.Hours > 0 {
				formatted = d.Formatted
			}
			fmt.Fprintf(&b, "%-*s", cellWidth, fmt.Sprintf("%2d %s%s", d.Day, levelMarks[d.Level], formatted))
			col++
			if col == 7 {
				b.WriteString("\n")
				col = 0
			}
		}
		if col != 0 {
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\nMonth: %s\nWeek:  %s\n", FormatHours(m.MonthTotal.Hours), FormatHours(m.WeekTotal.Hours))

	_, err := io.WriteString(w, b.String())
	return err
}
