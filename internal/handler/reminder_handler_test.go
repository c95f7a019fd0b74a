package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/marketing-calendar-api/internal/dto"
	"github.com/noah-isme/marketing-calendar-api/internal/models"
	appErrors "github.com/noah-isme/marketing-calendar-api/pkg/errors"
)

type reminderLifecycleStub struct {
	due         []models.Reminder
	polledAt    time.Time
	pollErr     error
	actionErr   error
	snoozedID   string
	snoozeMins  int
	dismissedID string
}

func (s *reminderLifecycleStub) DueReminders() []models.Reminder { return s.due }

func (s *reminderLifecycleStub) LastPoll() (time.Time, error) { return s.polledAt, s.pollErr }

func (s *reminderLifecycleStub) Dismiss(ctx context.Context, id string) error {
	s.dismissedID = id
	return s.actionErr
}

func (s *reminderLifecycleStub) Snooze(ctx context.Context, id string, minutes int) (time.Time, error) {
	s.snoozedID, s.snoozeMins = id, minutes
	if s.actionErr != nil {
		return time.Time{}, s.actionErr
	}
	return time.Date(2025, time.November, 1, 9, 15, 0, 0, time.UTC), nil
}

type reminderSchedulerStub struct {
	created dto.ReminderRequest
	deleted string
	err     error
}

func (s *reminderSchedulerStub) CreateReminder(ctx context.Context, req dto.ReminderRequest) (*models.Reminder, error) {
	s.created = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.Reminder{ID: "rem-9", Title: req.Title, ScheduledFor: req.ScheduledFor, OffsetMinutes: req.OffsetMinutes}, nil
}

func (s *reminderSchedulerStub) DeleteReminder(ctx context.Context, id string) error {
	s.deleted = id
	return s.err
}

func TestReminderHandlerDueReportsStalePoll(t *testing.T) {
	lifecycle := &reminderLifecycleStub{
		due:      []models.Reminder{{ID: "rem-1", Title: "Approve creative"}},
		polledAt: time.Date(2025, time.November, 1, 8, 30, 0, 0, time.UTC),
		pollErr:  errors.New("connection refused"),
	}
	h := NewReminderHandler(lifecycle, &reminderSchedulerStub{})
	c, w := newTestContext(http.MethodGet, "/reminders/due", "")

	h.Due(c)

	requireStatus(t, w, http.StatusOK)
	env := decodeEnvelope(t, w)
	assert.EqualValues(t, 1, env.Meta["count"])
	assert.Equal(t, true, env.Meta["stale"])
	assert.Equal(t, "2025-11-01T08:30:00Z", env.Meta["polledAt"])
	assert.Contains(t, string(env.Data), `"id":"rem-1"`)
}

func TestReminderHandlerSnoozeDefaultsWithoutBody(t *testing.T) {
	lifecycle := &reminderLifecycleStub{}
	h := NewReminderHandler(lifecycle, &reminderSchedulerStub{})
	c, w := newTestContext(http.MethodPost, "/reminders/rem-1/snooze", "")
	c.Params = gin.Params{{Key: "id", Value: "rem-1"}}

	h.Snooze(c)

	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "rem-1", lifecycle.snoozedID)
	assert.Equal(t, 0, lifecycle.snoozeMins)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"snoozedUntil":"2025-11-01T09:15:00Z"`)
}

func TestReminderHandlerSnoozeRejectsNegative(t *testing.T) {
	lifecycle := &reminderLifecycleStub{}
	h := NewReminderHandler(lifecycle, &reminderSchedulerStub{})
	c, w := newTestContext(http.MethodPost, "/reminders/rem-1/snooze", `{"minutes":-5}`)
	c.Params = gin.Params{{Key: "id", Value: "rem-1"}}

	h.Snooze(c)

	requireStatus(t, w, http.StatusBadRequest)
	assert.Empty(t, lifecycle.snoozedID)
}

func TestReminderHandlerDismissFailure(t *testing.T) {
	lifecycle := &reminderLifecycleStub{actionErr: appErrors.Clone(appErrors.ErrStoreUnavailable, "reminder store unavailable")}
	h := NewReminderHandler(lifecycle, &reminderSchedulerStub{})
	c, w := newTestContext(http.MethodPost, "/reminders/rem-1/dismiss", "")
	c.Params = gin.Params{{Key: "id", Value: "rem-1"}}

	h.Dismiss(c)

	requireStatus(t, w, http.StatusServiceUnavailable)
	assert.Equal(t, "rem-1", lifecycle.dismissedID)
}

func TestReminderHandlerCreateAndDelete(t *testing.T) {
	scheduler := &reminderSchedulerStub{}
	h := NewReminderHandler(&reminderLifecycleStub{}, scheduler)

	c, w := newTestContext(http.MethodPost, "/reminders", `{"title":"Approve creative","scheduledFor":"2025-11-01T09:00:00+07:00","reminderOffsetMinutes":30}`)
	h.Create(c)
	requireStatus(t, w, http.StatusCreated)
	assert.Equal(t, 30, scheduler.created.OffsetMinutes)
	assert.True(t, scheduler.created.ScheduledFor.Equal(time.Date(2025, time.November, 1, 2, 0, 0, 0, time.UTC)))

	c, w = newTestContext(http.MethodDelete, "/reminders/rem-9", "")
	c.Params = gin.Params{{Key: "id", Value: "rem-9"}}
	h.Delete(c)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "rem-9", scheduler.deleted)
}
