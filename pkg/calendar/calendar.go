// Package calendar provides civil-date and wall-clock helpers used by the
// schedule engine. Dates are exchanged as YYYY-MM-DD strings and times of day
// as 24h HH:MM strings; no timezone conversion is ever applied.
package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical calendar date format.
const DateLayout = "2006-01-02"

// Validation errors.
var (
	ErrInvalidDate  = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidClock = errors.New("time must be in HH:MM format")
)

// Weekday is the lowercase English name of a day of the week.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

var weekdayNames = map[time.Weekday]Weekday{
	time.Sunday:    Sunday,
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
}

// IsWeekend reports whether the weekday is Saturday or Sunday.
func (w Weekday) IsWeekend() bool {
	return w == Saturday || w == Sunday
}

// FormatDate renders the wall-clock year, month and day of t.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string into midnight UTC of that civil day.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrInvalidDate
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// MustParseDate is ParseDate for literals known to be valid.
func MustParseDate(value string) time.Time {
	t, err := ParseDate(value)
	if err != nil {
		panic(fmt.Sprintf("calendar: %q: %v", value, err))
	}
	return t
}

// IsDate reports whether value is a valid YYYY-MM-DD date.
func IsDate(value string) bool {
	_, err := ParseDate(value)
	return err == nil
}

// ParseClock converts an HH:MM string into minutes since midnight.
func ParseClock(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return 0, ErrInvalidClock
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, ErrInvalidClock
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, ErrInvalidClock
	}
	return hours*60 + minutes, nil
}

// ClockMinutes is ParseClock that maps malformed input to zero.
func ClockMinutes(value string) int {
	minutes, _ := ParseClock(value)
	return minutes
}

// IsClock reports whether value is a valid HH:MM time.
func IsClock(value string) bool {
	_, err := ParseClock(value)
	return err == nil
}

// NowMinutes returns the minutes elapsed since midnight on now's wall clock.
func NowMinutes(now time.Time) int {
	return now.Hour()*60 + now.Minute()
}

// Today is FormatDate(now).
func Today(now time.Time) string {
	return FormatDate(now)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AddDays moves t by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// WeekStart returns the Monday of the week containing t. Sunday is the last
// day of its week, so it maps to the Monday six days earlier.
func WeekStart(t time.Time) time.Time {
	day := StartOfDay(t)
	offset := int(day.Weekday()) - 1
	if day.Weekday() == time.Sunday {
		offset = 6
	}
	return AddDays(day, -offset)
}

// WeekDates returns the seven dates Monday..Sunday of the week containing t.
func WeekDates(t time.Time) []string {
	monday := WeekStart(t)
	dates := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		dates = append(dates, FormatDate(AddDays(monday, i)))
	}
	return dates
}

// WeekdayOf names the day of the week of t.
func WeekdayOf(t time.Time) Weekday {
	return WeekdayName(t.Weekday())
}

// WeekdayName names a time.Weekday.
func WeekdayName(d time.Weekday) Weekday {
	return weekdayNames[d]
}

// WeekNumber returns the ISO-8601 week number of t's calendar day.
func WeekNumber(t time.Time) int {
	_, week := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).ISOWeek()
	return week
}

// MonthBounds returns the first and last civil days of a month.
func MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

// DurationMinutes is end minus start in minutes. The result is negative when
// end precedes start; callers decide what that means.
func DurationMinutes(start, end string) int {
	return ClockMinutes(end) - ClockMinutes(start)
}

// FormatDuration renders minutes as "2h", "45min" or "1h30".
func FormatDuration(minutes int) string {
	hours := minutes / 60
	rest := minutes % 60
	switch {
	case hours == 0:
		return fmt.Sprintf("%dmin", rest)
	case rest == 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dh%02d", hours, rest)
	}
}

// IsHappeningNow reports whether a slot on date between start and end
// contains now. The end minute is exclusive.
func IsHappeningNow(date, start, end string, now time.Time) bool {
	if date != FormatDate(now) {
		return false
	}
	current := NowMinutes(now)
	return current >= ClockMinutes(start) && current < ClockMinutes(end)
}

// IsPast reports whether a slot on date ending at end is over at now.
func IsPast(date, end string, now time.Time) bool {
	day, err := ParseDate(date)
	if err != nil {
		return false
	}
	today := MustParseDate(FormatDate(now))
	if day.Before(today) {
		return true
	}
	if day.Equal(today) {
		return NowMinutes(now) >= ClockMinutes(end)
	}
	return false
}
