package models

import "time"

// ReminderStatus is the persisted reminder status.
type ReminderStatus string

const (
	ReminderStatusPending   ReminderStatus = "pending"
	ReminderStatusDismissed ReminderStatus = "dismissed"
	ReminderStatusSnoozed   ReminderStatus = "snoozed"
)

// ReminderState is the derived lifecycle state at a given instant.
type ReminderState string

const (
	ReminderStateScheduled ReminderState = "scheduled"
	ReminderStateDue       ReminderState = "due"
	ReminderStateDismissed ReminderState = "dismissed"
	ReminderStateSnoozed   ReminderState = "snoozed"
)

// DefaultSnoozeMinutes is used when a snooze request carries no duration.
const DefaultSnoozeMinutes = 15

// Reminder is a user-created time-based notification.
type Reminder struct {
	ID            string         `db:"id" json:"id"`
	Title         string         `db:"title" json:"title"`
	Description   string         `db:"description" json:"description"`
	ScheduledFor  time.Time      `db:"scheduled_for" json:"scheduledFor"`
	OffsetMinutes int            `db:"offset_minutes" json:"reminderOffsetMinutes"`
	Status        ReminderStatus `db:"status" json:"status"`
	SnoozedUntil  *time.Time     `db:"snoozed_until" json:"snoozedUntil,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
}

// DueAt is the instant the reminder surfaces. A snooze re-arms it at SnoozedUntil.
func (r Reminder) DueAt() time.Time {
	if r.Status == ReminderStatusSnoozed && r.SnoozedUntil != nil {
		return *r.SnoozedUntil
	}
	return r.ScheduledFor.Add(-time.Duration(r.OffsetMinutes) * time.Minute)
}

// State derives the lifecycle state at now.
func (r Reminder) State(now time.Time) ReminderState {
	switch {
	case r.Status == ReminderStatusDismissed:
		return ReminderStateDismissed
	case r.Status == ReminderStatusSnoozed && r.SnoozedUntil != nil && now.Before(*r.SnoozedUntil):
		return ReminderStateSnoozed
	case !now.Before(r.DueAt()):
		return ReminderStateDue
	default:
		return ReminderStateScheduled
	}
}

// IsDue reports whether the reminder should be shown at now.
func (r Reminder) IsDue(now time.Time) bool {
	return r.State(now) == ReminderStateDue
}

// Snoozed returns a copy re-armed at now + minutes.
func (r Reminder) Snoozed(now time.Time, minutes int) Reminder {
	if minutes <= 0 {
		minutes = DefaultSnoozeMinutes
	}
	until := now.Add(time.Duration(minutes) * time.Minute)
	r.Status = ReminderStatusSnoozed
	r.SnoozedUntil = &until
	return r
}

// ReminderFields is the payload sent to the reminder store on create.
type ReminderFields struct {
	Title         string
	Description   string
	ScheduledFor  time.Time
	OffsetMinutes int
}
