package logtime_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/arnaudderison/logtime19/internal/logtime"
)

func TestMonthWindow(t *testing.T) {
	loc := brussels(t)

	window := logtime.MonthWindow(utc(t, "2024-02-20T12:00:00Z"), loc)
	assert.True(t, window.Start.Equal(utc(t, "2024-01-31T23:00:00Z")))
	assert.True(t, window.End.Equal(utc(t, "2024-02-29T23:00:00Z")))

	// Local March begins while UTC still reads February.
	window = logtime.MonthWindow(utc(t, "2024-02-29T23:30:00Z"), loc)
	assert.True(t, window.Start.Equal(utc(t, "2024-02-29T23:00:00Z")))
	assert.True(t, window.End.Equal(utc(t, "2024-03-31T22:00:00Z")))
}

func TestWeekWindow(t *testing.T) {
	loc := brussels(t)

	tests := []struct {
		name      string
		at        string
		weekStart time.Weekday
		start     string
		end       string
	}{
		{
			name:      "sunday_start_midweek",
			at:        "2024-02-07T12:00:00Z",
			weekStart: time.Sunday,
			start:     "2024-02-03T23:00:00Z",
			end:       "2024-02-10T23:00:00Z",
		},
		{
			name:      "sunday_start_on_sunday",
			at:        "2024-02-04T08:00:00Z",
			weekStart: time.Sunday,
			start:     "2024-02-03T23:00:00Z",
			end:       "2024-02-10T23:00:00Z",
		},
		{
			name:      "monday_start_on_sunday",
			at:        "2024-02-04T08:00:00Z",
			weekStart: time.Monday,
			start:     "2024-01-28T23:00:00Z",
			end:       "2024-02-04T23:00:00Z",
		},
		{
			name:      "week_spanning_spring_forward",
			at:        "2024-03-28T12:00:00Z",
			weekStart: time.Monday,
			start:     "2024-03-24T23:00:00Z",
			end:       "2024-03-31T22:00:00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window := logtime.WeekWindow(utc(t, tt.at), loc, tt.weekStart)
			assert.True(t, window.Start.Equal(utc(t, tt.start)), "start %s", window.Start.UTC())
			assert.True(t, window.End.Equal(utc(t, tt.end)), "end %s", window.End.UTC())
		})
	}
}

func TestFetchRange(t *testing.T) {
	begin, end := logtime.FetchRange(utc(t, "2024-02-20T12:00:00Z"))
	assert.Equal(t, "2024-02-01T00:00:00Z", begin.Format(time.RFC3339))
	assert.Equal(t, "2024-02-29T23:59:59Z", end.Format(time.RFC3339))

	begin, end = logtime.FetchRange(utc(t, "2024-12-31T23:59:59Z"))
	assert.Equal(t, "2024-12-01T00:00:00Z", begin.Format(time.RFC3339))
	assert.Equal(t, "2024-12-31T23:59:59Z", end.Format(time.RFC3339))
}
