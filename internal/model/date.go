package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Date is a calendar day without a time component. All day comparisons and
// marking keys in the aggregation engine use Date, never a timestamp, so
// that repeated 7-day stepping can never drift across a DST transition.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf extracts the wall-clock calendar day of t, in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a date in 2006-01-02 form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns the date at midnight UTC. This is the single reference
// clock used for all derived instants.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// At returns the date at the given wall-clock time, UTC.
func (d Date) At(hour, minute int) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, time.UTC)
}

func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// AddDays returns the date n days after d (n may be negative). The
// arithmetic goes through time.Date in UTC, which normalizes month and
// year rollover.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) Before(o Date) bool {
	return d.Time().Before(o.Time())
}

func (d Date) After(o Date) bool {
	return d.Time().After(o.Time())
}

// DaysUntil returns the number of days from d to o (negative if o is
// earlier).
func (d Date) DaysUntil(o Date) int {
	return int(o.Time().Sub(d.Time()) / (24 * time.Hour))
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return d.Time().Format("2006-01-02")
}

// ParseWeekday resolves a weekday name, case-insensitively. Both the full
// name ("wednesday") and the three-letter abbreviation ("wed") are
// accepted.
func ParseWeekday(name string) (time.Weekday, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return 0, errors.New("empty weekday name")
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		full := strings.ToLower(wd.String())
		if s == full || s == full[:3] {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("unrecognized weekday %q", name)
}

// ParseClockTime parses a wall-clock time of day. "15:04" and "3:04 PM"
// forms are both accepted.
func ParseClockTime(s string) (hour, minute int, err error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "3:04 PM", "3:04PM", "3 PM"} {
		if t, perr := time.Parse(layout, s); perr == nil {
			return t.Hour(), t.Minute(), nil
		}
	}
	return 0, 0, fmt.Errorf("unrecognized time of day %q", s)
}
