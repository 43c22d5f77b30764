package domain

import (
	"fmt"
	"time"
)

// WindowDays is the length of the rolling calendar window: seven days back plus
// the processing date itself.
const WindowDays = 8

// CalendarEntry is one row of the date dimension.
type CalendarEntry struct {
	DateID       int
	CalendarDate time.Time
	DayOfWeek    string
	DayOfMonth   int
	MonthNumber  int
	MonthName    string
	Quarter      int
	Year         int
	IsWeekend    bool
}

// BuildCalendar returns the gapless calendar for [today-7d, today] in ascending
// date order. Only the calendar day of today is used; its time of day and
// location are ignored.
func BuildCalendar(today time.Time) ([]CalendarEntry, error) {
	end := dateOf(today)
	start := end.AddDate(0, 0, -(WindowDays - 1))

	entries := make([]CalendarEntry, 0, WindowDays)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		entries = append(entries, newCalendarEntry(len(entries)+1, d))
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: calendar window ending %s is empty", ErrInput, end.Format(time.DateOnly))
	}
	return entries, nil
}

func newCalendarEntry(id int, d time.Time) CalendarEntry {
	return CalendarEntry{
		DateID:       id,
		CalendarDate: d,
		DayOfWeek:    d.Weekday().String(),
		DayOfMonth:   d.Day(),
		MonthNumber:  int(d.Month()),
		MonthName:    d.Month().String(),
		Quarter:      quarterOf(d.Month()),
		Year:         d.Year(),
		IsWeekend:    isWeekend(d.Weekday()),
	}
}

func quarterOf(m time.Month) int {
	return (int(m)-1)/3 + 1
}

func isWeekend(wd time.Weekday) bool {
	return wd == time.Saturday || wd == time.Sunday
}
