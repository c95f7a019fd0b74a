package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/marketing-calendar-api/internal/models"
)

const reminderColumns = `id, title, description, scheduled_for, offset_minutes, status, snoozed_until, created_at, updated_at`

// ReminderRepository persists reminders.
type ReminderRepository struct {
	db *sqlx.DB
}

// NewReminderRepository constructs a reminder repository.
func NewReminderRepository(db *sqlx.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// ListDue returns reminders whose trigger time has passed at now. Snoozed
// reminders trigger at snoozed_until; dismissed reminders never do.
func (r *ReminderRepository) ListDue(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	query := fmt.Sprintf(`SELECT %s FROM reminders
WHERE status <> 'dismissed'
AND CASE WHEN status = 'snoozed' AND snoozed_until IS NOT NULL
	THEN snoozed_until <= $1
	ELSE scheduled_for - make_interval(mins => offset_minutes) <= $1
END
ORDER BY scheduled_for ASC`, reminderColumns)
	var reminders []models.Reminder
	if err := r.db.SelectContext(ctx, &reminders, query, now.UTC()); err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	return reminders, nil
}

// Create inserts a pending reminder.
func (r *ReminderRepository) Create(ctx context.Context, fields models.ReminderFields) (*models.Reminder, error) {
	now := time.Now().UTC()
	reminder := models.Reminder{
		ID:            uuid.NewString(),
		Title:         fields.Title,
		Description:   fields.Description,
		ScheduledFor:  fields.ScheduledFor.UTC(),
		OffsetMinutes: fields.OffsetMinutes,
		Status:        models.ReminderStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	query := `INSERT INTO reminders (id, title, description, scheduled_for, offset_minutes, status, snoozed_until, created_at, updated_at)
VALUES (:id, :title, :description, :scheduled_for, :offset_minutes, :status, :snoozed_until, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, &reminder); err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	return &reminder, nil
}

// Dismiss marks a reminder as dismissed. Dismissal is terminal.
func (r *ReminderRepository) Dismiss(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reminders SET status = 'dismissed', snoozed_until = NULL, updated_at = $1 WHERE id = $2`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("dismiss reminder: %w", err)
	}
	return requireAffected(res)
}

// Snooze re-arms a reminder at until, or at its own trigger time when that is
// later. Dismissed reminders are left untouched and reported as missing.
func (r *ReminderRepository) Snooze(ctx context.Context, id string, until time.Time) (time.Time, error) {
	query := `UPDATE reminders
SET status = 'snoozed',
	snoozed_until = GREATEST($1, scheduled_for - make_interval(mins => offset_minutes)),
	updated_at = $2
WHERE id = $3 AND status <> 'dismissed'
RETURNING snoozed_until`
	var stored time.Time
	if err := r.db.GetContext(ctx, &stored, query, until.UTC(), time.Now().UTC(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, err
		}
		return time.Time{}, fmt.Errorf("snooze reminder: %w", err)
	}
	return stored, nil
}

// Delete removes a reminder.
func (r *ReminderRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM reminders WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return requireAffected(res)
}
