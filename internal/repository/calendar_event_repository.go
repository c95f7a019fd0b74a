package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/marketing-calendar-api/internal/models"
)

// CalendarEventRepository reads the month projection of reminders.
type CalendarEventRepository struct {
	db *sqlx.DB
}

// NewCalendarEventRepository constructs the projection repository.
func NewCalendarEventRepository(db *sqlx.DB) *CalendarEventRepository {
	return &CalendarEventRepository{db: db}
}

// ListByMonth returns reminders scheduled within the UTC month, widened by a
// day on each side so viewers east or west of UTC still see edge-of-month
// entries. The caller buckets by local date.
func (r *CalendarEventRepository) ListByMonth(ctx context.Context, year int, month time.Month) ([]models.CalendarEvent, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	end := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)

	const query = `SELECT id, title, description, 'reminder' AS event_type, scheduled_for, offset_minutes, status, snoozed_until
FROM reminders
WHERE scheduled_for >= $1 AND scheduled_for < $2
ORDER BY scheduled_for ASC`
	var events []models.CalendarEvent
	if err := r.db.SelectContext(ctx, &events, query, start, end); err != nil {
		return nil, fmt.Errorf("list calendar events for %04d-%02d: %w", year, int(month), err)
	}
	return events, nil
}
