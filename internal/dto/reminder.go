package dto

import "time"

// ReminderRequest is the create payload.
type ReminderRequest struct {
	Title         string    `json:"title" validate:"required,max=200"`
	Description   string    `json:"description" validate:"omitempty,max=1000"`
	ScheduledFor  time.Time `json:"scheduledFor" validate:"required"`
	OffsetMinutes int       `json:"reminderOffsetMinutes" validate:"min=0,max=10080"`
}

// SnoozeRequest carries an optional snooze duration; zero means the default.
type SnoozeRequest struct {
	Minutes int `json:"minutes" binding:"min=0,max=1440"`
}
