package models

import (
	"encoding/json"
	"time"
)

// CalendarEvent is the server-side projection of a reminder for a given month.
type CalendarEvent struct {
	ID            string         `db:"id" json:"id"`
	Title         string         `db:"title" json:"title"`
	Description   string         `db:"description" json:"description"`
	EventType     string         `db:"event_type" json:"eventType"`
	ScheduledFor  time.Time      `db:"scheduled_for" json:"scheduledFor"`
	OffsetMinutes int            `db:"offset_minutes" json:"reminderOffsetMinutes"`
	Status        ReminderStatus `db:"status" json:"status"`
	SnoozedUntil  *time.Time     `db:"snoozed_until" json:"snoozedUntil,omitempty"`
}

// CalendarEventTypeReminder tags reminder projections.
const CalendarEventTypeReminder = "reminder"

// Reminder converts the projection back into a reminder record.
func (e CalendarEvent) Reminder() Reminder {
	return Reminder{
		ID:            e.ID,
		Title:         e.Title,
		Description:   e.Description,
		ScheduledFor:  e.ScheduledFor,
		OffsetMinutes: e.OffsetMinutes,
		Status:        e.Status,
		SnoozedUntil:  e.SnoozedUntil,
	}
}

// HolidayKind groups catalog entries.
type HolidayKind string

const (
	HolidayKindNational  HolidayKind = "national"
	HolidayKindFestival  HolidayKind = "festival"
	HolidayKindMarketing HolidayKind = "marketing"
)

// HolidayEntry is one dated occurrence of a catalog template. Identity is date + name.
type HolidayEntry struct {
	ID          string      `json:"id"`
	Date        LocalDate   `json:"date"`
	Name        string      `json:"name"`
	Kind        HolidayKind `json:"kind"`
	Description string      `json:"description"`
	Tip         string      `json:"tip,omitempty"`
}

// EventCategory is the tag of a ScheduledEvent.
type EventCategory string

const (
	CategoryHoliday  EventCategory = "holiday"
	CategoryCampaign EventCategory = "campaign"
	CategoryReminder EventCategory = "reminder"
)

// Rank orders categories within a day: holidays, campaigns, reminders.
func (c EventCategory) Rank() int {
	switch c {
	case CategoryHoliday:
		return 0
	case CategoryCampaign:
		return 1
	case CategoryReminder:
		return 2
	default:
		return 3
	}
}

// EventDetail is the category-specific payload of a ScheduledEvent.
// The set of implementations is closed to this package.
type EventDetail interface {
	Category() EventCategory
	StatusLabel() string
	isEventDetail()
}

// CampaignDetail carries campaign metadata.
type CampaignDetail struct {
	Platforms []string       `json:"platforms"`
	Objective string         `json:"objective,omitempty"`
	Status    CampaignStatus `json:"-"`
}

// Category implements EventDetail.
func (CampaignDetail) Category() EventCategory { return CategoryCampaign }

// StatusLabel implements EventDetail.
func (d CampaignDetail) StatusLabel() string { return string(d.Status) }

func (CampaignDetail) isEventDetail() {}

// ReminderDetail carries reminder metadata.
type ReminderDetail struct {
	OffsetMinutes int            `json:"offsetMinutes"`
	Description   string         `json:"description,omitempty"`
	ScheduledFor  time.Time      `json:"scheduledFor"`
	Status        ReminderStatus `json:"-"`
}

// Category implements EventDetail.
func (ReminderDetail) Category() EventCategory { return CategoryReminder }

// StatusLabel implements EventDetail.
func (d ReminderDetail) StatusLabel() string { return string(d.Status) }

func (ReminderDetail) isEventDetail() {}

// HolidayDetail carries catalog metadata.
type HolidayDetail struct {
	Kind        HolidayKind `json:"kind"`
	Description string      `json:"description"`
	Tip         string      `json:"tip,omitempty"`
}

// Category implements EventDetail.
func (HolidayDetail) Category() EventCategory { return CategoryHoliday }

// StatusLabel implements EventDetail. Holidays have no status.
func (HolidayDetail) StatusLabel() string { return "" }

func (HolidayDetail) isEventDetail() {}

// ScheduledEvent is the normalised, renderable shape shared by all sources.
type ScheduledEvent struct {
	ID        string
	Title     string
	LocalDate LocalDate
	StartTime ClockTime
	Detail    EventDetail
}

// Category returns the variant tag.
func (e ScheduledEvent) Category() EventCategory {
	if e.Detail == nil {
		return ""
	}
	return e.Detail.Category()
}

// Status returns the category-specific status label.
func (e ScheduledEvent) Status() string {
	if e.Detail == nil {
		return ""
	}
	return e.Detail.StatusLabel()
}

// Key is unique across categories.
func (e ScheduledEvent) Key() string {
	return string(e.Category()) + ":" + e.ID
}

// MarshalJSON flattens the variant for the rendering layer.
func (e ScheduledEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        string        `json:"id"`
		Category  EventCategory `json:"category"`
		Title     string        `json:"title"`
		LocalDate LocalDate     `json:"localDate"`
		StartTime ClockTime     `json:"startTime"`
		Status    string        `json:"status,omitempty"`
		Metadata  EventDetail   `json:"metadata"`
	}{
		ID:        e.ID,
		Category:  e.Category(),
		Title:     e.Title,
		LocalDate: e.LocalDate,
		StartTime: e.StartTime,
		Status:    e.Status(),
		Metadata:  e.Detail,
	})
}
