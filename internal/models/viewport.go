package models

import (
	"fmt"
	"strings"
	"time"
)

// Granularity selects how many days a viewport spans.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// ParseGranularity accepts day, week or month in any case.
func ParseGranularity(raw string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(raw))); g {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return g, nil
	default:
		return "", fmt.Errorf("unsupported granularity %q", raw)
	}
}

// Viewport is the (anchor, granularity) pair being rendered.
type Viewport struct {
	Anchor      LocalDate   `json:"anchorDate"`
	Granularity Granularity `json:"granularity"`
}

// WeekStart returns the Monday on or before d.
func WeekStart(d LocalDate) LocalDate {
	dow := int(d.Weekday())
	diff := 1 - dow
	if d.Weekday() == time.Sunday {
		diff = -6
	}
	return d.AddDays(diff)
}

// MondayIndex maps a weekday onto a Monday-first column index (Monday = 0).
func MondayIndex(w time.Weekday) int {
	return (int(w) + 6) % 7
}

// Range returns the first and last real day covered.
func (v Viewport) Range() (LocalDate, LocalDate) {
	switch v.Granularity {
	case GranularityWeek:
		start := WeekStart(v.Anchor)
		return start, start.AddDays(6)
	case GranularityMonth:
		first := v.Anchor.FirstOfMonth()
		return first, first.AddDays(first.DaysInMonth() - 1)
	default:
		return v.Anchor, v.Anchor
	}
}

// Years lists every calendar year the viewport touches plus the year after,
// so that boundary-spanning views always have their holiday data.
func (v Viewport) Years() []int {
	start, end := v.Range()
	years := make([]int, 0, 3)
	for y := start.Year; y <= end.Year+1; y++ {
		years = append(years, y)
	}
	return years
}

// Months lists the (year, month) pairs touched by the viewport.
func (v Viewport) Months() []LocalDate {
	start, end := v.Range()
	months := []LocalDate{start.FirstOfMonth()}
	if end.Year != start.Year || end.Month != start.Month {
		months = append(months, end.FirstOfMonth())
	}
	return months
}

// Next moves one granularity step forward.
func (v Viewport) Next() Viewport {
	return v.step(1)
}

// Prev moves one granularity step back.
func (v Viewport) Prev() Viewport {
	return v.step(-1)
}

// Today re-anchors on the local day of now.
func (v Viewport) Today(now time.Time, loc *time.Location) Viewport {
	v.Anchor = LocalDateOf(now, loc)
	return v
}

func (v Viewport) step(dir int) Viewport {
	switch v.Granularity {
	case GranularityWeek:
		v.Anchor = v.Anchor.AddDays(7 * dir)
	case GranularityMonth:
		v.Anchor = NewLocalDate(v.Anchor.Year, v.Anchor.Month+time.Month(dir), 1)
	default:
		v.Anchor = v.Anchor.AddDays(dir)
	}
	return v
}

// String is used for logging and cache keys.
func (v Viewport) String() string {
	return fmt.Sprintf("%s@%s", v.Granularity, v.Anchor)
}
