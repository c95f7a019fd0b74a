package service

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/marketing-calendar-api/internal/models"
)

var (
	localDateLiteral = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	// Layouts that carry an offset are converted into the viewer's zone; the
	// rest are read as wall-clock values already in that zone.
	zonedLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05Z0700"}
	localLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04"}

	defaultCampaignStart = models.ClockTime{Hour: 9}
	defaultHolidayStart  = models.ClockTime{}
)

// EventNormalizer converts campaigns, reminders and holidays into ScheduledEvents
// on the viewer's local calendar.
type EventNormalizer struct {
	loc *time.Location
}

// NewEventNormalizer builds a normalizer for the given viewer location.
func NewEventNormalizer(loc *time.Location) *EventNormalizer {
	if loc == nil {
		loc = time.Local
	}
	return &EventNormalizer{loc: loc}
}

// Location returns the viewer location.
func (n *EventNormalizer) Location() *time.Location {
	return n.loc
}

// Normalize merges the three sources. The result is ordered by date, then
// holidays, campaigns and reminders, keeping source order inside each group.
// Records without a usable date are dropped.
func (n *EventNormalizer) Normalize(campaigns []models.Campaign, reminders []models.Reminder, holidays []models.HolidayEntry) []models.ScheduledEvent {
	events := make([]models.ScheduledEvent, 0, len(campaigns)+len(reminders)+len(holidays))

	for _, h := range holidays {
		if ev, ok := n.Holiday(h); ok {
			events = append(events, ev)
		}
	}
	for _, c := range campaigns {
		if ev, ok := n.Campaign(c); ok {
			events = append(events, ev)
		}
	}
	for _, r := range reminders {
		if ev, ok := n.Reminder(r); ok {
			events = append(events, ev)
		}
	}

	SortScheduledEvents(events)
	return events
}

// Campaign normalizes a single campaign.
func (n *EventNormalizer) Campaign(c models.Campaign) (models.ScheduledEvent, bool) {
	date, ok := n.CampaignDate(c.Scheduling.StartDate)
	if !ok {
		return models.ScheduledEvent{}, false
	}
	start := defaultCampaignStart
	if raw := strings.TrimSpace(c.Scheduling.PostTime); raw != "" {
		if parsed, err := models.ParseClockTime(raw); err == nil {
			start = parsed
		}
	}
	return models.ScheduledEvent{
		ID:        c.ID,
		Title:     c.Name,
		LocalDate: date,
		StartTime: start,
		Detail: models.CampaignDetail{
			Platforms: append([]string(nil), c.Platforms...),
			Objective: c.Objective,
			Status:    c.Status,
		},
	}, true
}

// CampaignDate resolves a stored start date. A YYYY-MM-DD literal is taken
// verbatim; anything else is parsed as a timestamp and projected onto the
// viewer's calendar day.
func (n *EventNormalizer) CampaignDate(raw string) (models.LocalDate, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.LocalDate{}, false
	}
	if localDateLiteral.MatchString(raw) {
		date, err := models.ParseLocalDate(raw)
		return date, err == nil
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return models.LocalDateOf(t, n.loc), true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, n.loc); err == nil {
			return models.LocalDateOf(t, n.loc), true
		}
	}
	return models.LocalDate{}, false
}

// Reminder normalizes a single reminder from its scheduledFor instant.
func (n *EventNormalizer) Reminder(r models.Reminder) (models.ScheduledEvent, bool) {
	if r.ScheduledFor.IsZero() {
		return models.ScheduledEvent{}, false
	}
	return models.ScheduledEvent{
		ID:        r.ID,
		Title:     r.Title,
		LocalDate: models.LocalDateOf(r.ScheduledFor, n.loc),
		StartTime: models.ClockOf(r.ScheduledFor, n.loc),
		Detail: models.ReminderDetail{
			OffsetMinutes: r.OffsetMinutes,
			Description:   r.Description,
			ScheduledFor:  r.ScheduledFor,
			Status:        r.Status,
		},
	}, true
}

// Holiday normalizes a catalog entry; holidays start at midnight.
func (n *EventNormalizer) Holiday(h models.HolidayEntry) (models.ScheduledEvent, bool) {
	if h.Date.IsZero() {
		return models.ScheduledEvent{}, false
	}
	return models.ScheduledEvent{
		ID:        h.ID,
		Title:     h.Name,
		LocalDate: h.Date,
		StartTime: defaultHolidayStart,
		Detail: models.HolidayDetail{
			Kind:        h.Kind,
			Description: h.Description,
			Tip:         h.Tip,
		},
	}, true
}

// SortScheduledEvents orders events by date then category, stable within a group.
func SortScheduledEvents(events []models.ScheduledEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if c := events[i].LocalDate.Compare(events[j].LocalDate); c != 0 {
			return c < 0
		}
		return events[i].Category().Rank() < events[j].Category().Rank()
	})
}
