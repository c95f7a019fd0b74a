package service

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/marketing-calendar-api/internal/models"
)

//go:embed catalog/holidays.yaml
var defaultHolidayTemplates []byte

type holidayTemplate struct {
	Month       int                `yaml:"month"`
	Day         int                `yaml:"day"`
	Name        string             `yaml:"name"`
	Kind        models.HolidayKind `yaml:"kind"`
	Description string             `yaml:"description"`
	Tip         string             `yaml:"tip"`
}

// HolidayCatalog expands a fixed set of yearly templates into dated entries.
// It performs no I/O after construction and is safe for concurrent use.
type HolidayCatalog struct {
	templates []holidayTemplate
}

// NewHolidayCatalog parses a YAML template list.
func NewHolidayCatalog(raw []byte) (*HolidayCatalog, error) {
	var templates []holidayTemplate
	if err := yaml.Unmarshal(raw, &templates); err != nil {
		return nil, fmt.Errorf("parse holiday catalog: %w", err)
	}
	for i, t := range templates {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("holiday template %d: name is required", i)
		}
		if t.Month < 1 || t.Month > 12 {
			return nil, fmt.Errorf("holiday template %q: invalid month %d", t.Name, t.Month)
		}
		// 2000 is a leap year so Feb 29 templates pass.
		if t.Day < 1 || t.Day > models.NewLocalDate(2000, time.Month(t.Month), 1).DaysInMonth() {
			return nil, fmt.Errorf("holiday template %q: invalid day %d", t.Name, t.Day)
		}
		switch t.Kind {
		case models.HolidayKindNational, models.HolidayKindFestival, models.HolidayKindMarketing:
		default:
			return nil, fmt.Errorf("holiday template %q: unknown kind %q", t.Name, t.Kind)
		}
	}
	return &HolidayCatalog{templates: templates}, nil
}

// DefaultHolidayCatalog returns the embedded catalog.
func DefaultHolidayCatalog() *HolidayCatalog {
	catalog, err := NewHolidayCatalog(defaultHolidayTemplates)
	if err != nil {
		panic(err)
	}
	return catalog
}

// Len returns the number of templates.
func (c *HolidayCatalog) Len() int {
	return len(c.templates)
}

// EntriesForYear returns the catalog occurrences in year ordered by date, then
// template order. Templates that do not occur in year (Feb 29) are skipped.
func (c *HolidayCatalog) EntriesForYear(year int) []models.HolidayEntry {
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)

	entries := make([]models.HolidayEntry, 0, len(c.templates))
	for _, t := range c.templates {
		rule, err := rrule.NewRRule(rrule.ROption{
			Freq:       rrule.YEARLY,
			Dtstart:    yearStart,
			Bymonth:    []int{t.Month},
			Bymonthday: []int{t.Day},
		})
		if err != nil {
			continue
		}
		for _, occurrence := range rule.Between(yearStart, yearEnd, true) {
			date := models.NewLocalDate(occurrence.Year(), occurrence.Month(), occurrence.Day())
			entries = append(entries, models.HolidayEntry{
				ID:          holidayID(date, t.Name),
				Date:        date,
				Name:        t.Name,
				Kind:        t.Kind,
				Description: t.Description,
				Tip:         t.Tip,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
	return entries
}

// EntriesForYears concatenates EntriesForYear over years, skipping duplicates.
func (c *HolidayCatalog) EntriesForYears(years []int) []models.HolidayEntry {
	seen := make(map[int]struct{}, len(years))
	var out []models.HolidayEntry
	for _, y := range years {
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		out = append(out, c.EntriesForYear(y)...)
	}
	return out
}

func holidayID(date models.LocalDate, name string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ' || r == '-':
			return '-'
		default:
			return -1
		}
	}, name)
	return date.String() + "-" + slug
}
