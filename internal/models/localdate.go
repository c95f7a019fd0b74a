package models

import (
	"fmt"
	"strings"
	"time"
)

// LocalDateLayout is the wire format for calendar days.
const LocalDateLayout = "2006-01-02"

// LocalDate is a calendar day as seen in the viewer's timezone. It carries no
// instant and no location, so it can never drift across a UTC day boundary.
type LocalDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewLocalDate builds a normalised date; out-of-range days roll over like time.Date.
func NewLocalDate(year int, month time.Month, day int) LocalDate {
	t := time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	y, m, d := t.Date()
	return LocalDate{Year: y, Month: m, Day: d}
}

// LocalDateOf extracts the local calendar day of t in loc. Every instant that
// enters the engine goes through here; nothing else derives a day from a time.Time.
func LocalDateOf(t time.Time, loc *time.Location) LocalDate {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return LocalDate{Year: y, Month: m, Day: d}
}

// ClockOf extracts the local time-of-day of t in loc.
func ClockOf(t time.Time, loc *time.Location) ClockTime {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	return ClockTime{Hour: local.Hour(), Minute: local.Minute()}
}

// ParseLocalDate parses a YYYY-MM-DD literal.
func ParseLocalDate(raw string) (LocalDate, error) {
	parsed, err := time.Parse(LocalDateLayout, strings.TrimSpace(raw))
	if err != nil {
		return LocalDate{}, fmt.Errorf("parse local date %q: %w", raw, err)
	}
	y, m, d := parsed.Date()
	return LocalDate{Year: y, Month: m, Day: d}, nil
}

// IsZero reports whether the date is unset.
func (d LocalDate) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String formats the date as YYYY-MM-DD.
func (d LocalDate) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// AddDays returns the date n days later (or earlier for negative n).
func (d LocalDate) AddDays(n int) LocalDate {
	return NewLocalDate(d.Year, d.Month, d.Day+n)
}

// Weekday returns the day of the week.
func (d LocalDate) Weekday() time.Weekday {
	return d.noon().Weekday()
}

// Compare returns -1, 0 or 1.
func (d LocalDate) Compare(other LocalDate) int {
	switch {
	case d.Year != other.Year:
		return sign(d.Year - other.Year)
	case d.Month != other.Month:
		return sign(int(d.Month) - int(other.Month))
	default:
		return sign(d.Day - other.Day)
	}
}

// Before reports whether d is strictly before other.
func (d LocalDate) Before(other LocalDate) bool { return d.Compare(other) < 0 }

// After reports whether d is strictly after other.
func (d LocalDate) After(other LocalDate) bool { return d.Compare(other) > 0 }

// FirstOfMonth returns the 1st of d's month.
func (d LocalDate) FirstOfMonth() LocalDate {
	return LocalDate{Year: d.Year, Month: d.Month, Day: 1}
}

// DaysInMonth returns the number of days in d's month.
func (d LocalDate) DaysInMonth() int {
	return time.Date(d.Year, d.Month+1, 0, 12, 0, 0, 0, time.UTC).Day()
}

// At returns the instant of clock c on day d in loc.
func (d LocalDate) At(c ClockTime, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, 0, 0, loc)
}

// MarshalText implements encoding.TextMarshaler.
func (d LocalDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *LocalDate) UnmarshalText(raw []byte) error {
	if len(raw) == 0 {
		*d = LocalDate{}
		return nil
	}
	parsed, err := ParseLocalDate(string(raw))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d LocalDate) noon() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC)
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

// ClockTime is a local time-of-day with minute precision.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses a 24-hour HH:MM value.
func ParseClockTime(raw string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return ClockTime{}, fmt.Errorf("invalid clock time %q, expected HH:MM", raw)
	}
	hour, ok := parseDigits(parts[0])
	if !ok {
		return ClockTime{}, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, ok := parseDigits(parts[1])
	if !ok {
		return ClockTime{}, fmt.Errorf("invalid minute in %q", raw)
	}
	c := ClockTime{Hour: hour, Minute: minute}
	if !c.Valid() {
		return ClockTime{}, fmt.Errorf("clock time %q out of range", raw)
	}
	return c, nil
}

// parseDigits accepts ASCII digits only, so signs and spaces are rejected.
func parseDigits(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}

// Valid reports whether the value is a real 24-hour clock reading.
func (c ClockTime) Valid() bool {
	return c.Hour >= 0 && c.Hour <= 23 && c.Minute >= 0 && c.Minute <= 59
}

// String formats as HH:MM.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// MarshalText implements encoding.TextMarshaler.
func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ClockTime) UnmarshalText(raw []byte) error {
	parsed, err := ParseClockTime(string(raw))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
