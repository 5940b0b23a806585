// Package timezone converts between wall-clock instants and the calendar
// dates study plans are expressed in.
//
// Plans carry dates without a time of day. "Today" depends on where the
// learner is, so every conversion takes an explicit location.
package timezone

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// UTC is the fallback location.
var UTC = time.UTC

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// ParseTimezone parses an IANA timezone identifier (e.g., "America/Sao_Paulo").
// If the timezone is invalid, returns UTC and an error.
func ParseTimezone(tz string) (*time.Location, error) {
	if tz == "" || tz == "UTC" {
		return UTC, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return UTC, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	return loc, nil
}

// IsValidTimezone checks if a timezone identifier is valid.
func IsValidTimezone(tz string) bool {
	_, err := ParseTimezone(tz)
	return err == nil
}

// DateOf returns the calendar date of t in tz.
func DateOf(t time.Time, tz *time.Location) civil.Date {
	if tz == nil {
		tz = UTC
	}
	return civil.DateOf(t.In(tz))
}

// Today returns the current calendar date in tz.
func Today(tz *time.Location) civil.Date {
	return DateOf(time.Now(), tz)
}

// StartOfDate returns midnight of d in tz.
func StartOfDate(d civil.Date, tz *time.Location) time.Time {
	if tz == nil {
		tz = UTC
	}
	return d.In(tz)
}

// ParseDate parses a YYYY-MM-DD date. The empty string yields today in tz.
func ParseDate(s string, tz *time.Location) (civil.Date, error) {
	if s == "" {
		return Today(tz), nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid date %q, expected %s: %w", s, DateLayout, err)
	}
	return d, nil
}

// DaysBetween returns the number of days from a to b, negative when b is earlier.
func DaysBetween(a, b civil.Date) int {
	return b.DaysSince(a)
}

// FormatDate formats d for display, e.g. "Mon, Jun 2 2025".
func FormatDate(d civil.Date) string {
	return d.In(UTC).Format("Mon, Jan 2 2006")
}

// Clock yields the current instant. Services take one so tests can pin "today".
type Clock func() time.Time

// SystemClock reads the wall clock.
func SystemClock() time.Time {
	return time.Now()
}

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// Today returns the clock's current date in tz.
func (c Clock) Today(tz *time.Location) civil.Date {
	if c == nil {
		return Today(tz)
	}
	return DateOf(c(), tz)
}
