// Package timeutil provides utility functions and types for working with
// time-related operations.
package timeutil

import (
	"fmt"
	"math"
	"time"

	dps "github.com/markusmobius/go-dateparser"
)

// DateLayout is the ISO date layout used for week keys and CSV dates.
const DateLayout = "2006-01-02"

// ClockLayout is the hour and minute layout used for login and logout times.
const ClockLayout = "15:04"

const daysInAWeek = 7

// Round rounds a time value in seconds, minutes, or hours to the nearest integer.
func Round(t float64) int {
	return int(math.Round(t))
}

// RoundToStart resets the given time to the start of the day.
func RoundToStart(t time.Time) time.Time {
	return time.Date(
		t.Year(),
		t.Month(),
		t.Day(),
		0,
		0,
		0,
		0,
		t.Location(),
	)
}

// MondayOf returns the start of the Monday of the week containing t. Sunday is
// treated as the last day of the week.
func MondayOf(t time.Time) time.Time {
	daysFromMonday := int(t.Weekday()) - 1
	if t.Weekday() == time.Sunday {
		daysFromMonday = 6
	}

	return RoundToStart(t).AddDate(0, 0, -daysFromMonday)
}

// WeekKey returns the ISO date of the Monday of the week containing t.
func WeekKey(t time.Time) string {
	return MondayOf(t).Format(DateLayout)
}

// WeekRange returns the ISO dates of the Monday and Sunday of the week that
// starts on monday.
func WeekRange(monday time.Time) (start, end string) {
	return monday.Format(DateLayout),
		monday.AddDate(0, 0, daysInAWeek-1).Format(DateLayout)
}

// ParseDate parses an ISO date in the given location.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}

// DaysUntilReset reports how many days remain until the next Monday. On a
// Monday the full week remains.
func DaysUntilReset(t time.Time) int {
	switch t.Weekday() {
	case time.Monday:
		return daysInAWeek
	case time.Sunday:
		return 1
	default:
		return daysInAWeek + 1 - int(t.Weekday())
	}
}

// FormatHMS formats a duration as HH:MM:SS. Hours are padded to two digits and
// are not wrapped at 24.
func FormatHMS(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total / 60) % 60
	seconds := total % 60

	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// MinsToHoursAndMins expresses a minutes value in hours and mins.
func MinsToHoursAndMins(val int) (hrs, mins int) {
	return val / 60, val % 60
}

// FromStr parses an absolute or relative date such as "2024-01-08" or
// "3 weeks ago" relative to now.
func FromStr(s string, now time.Time) (time.Time, error) {
	cfg := &dps.Configuration{
		CurrentTime: now,
	}

	dt, err := dps.Parse(cfg, s)
	if err != nil {
		return time.Time{}, err
	}

	return dt.Time, nil
}
