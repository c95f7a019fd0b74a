package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/marketing-calendar-api/internal/dto"
	"github.com/noah-isme/marketing-calendar-api/internal/models"
	appErrors "github.com/noah-isme/marketing-calendar-api/pkg/errors"
	"github.com/noah-isme/marketing-calendar-api/pkg/response"
)

type reminderLifecycle interface {
	DueReminders() []models.Reminder
	LastPoll() (time.Time, error)
	Dismiss(ctx context.Context, id string) error
	Snooze(ctx context.Context, id string, minutes int) (time.Time, error)
}

type reminderScheduler interface {
	CreateReminder(ctx context.Context, req dto.ReminderRequest) (*models.Reminder, error)
	DeleteReminder(ctx context.Context, id string) error
}

// ReminderHandler exposes the due set and reminder actions.
type ReminderHandler struct {
	lifecycle reminderLifecycle
	scheduler reminderScheduler
}

// NewReminderHandler constructs the handler.
func NewReminderHandler(lifecycle reminderLifecycle, scheduler reminderScheduler) *ReminderHandler {
	return &ReminderHandler{lifecycle: lifecycle, scheduler: scheduler}
}

// Due godoc
// @Summary Reminders currently due
// @Description Returns the last known due set. A failed poll keeps the previous set and is reported in meta.
// @Tags Reminders
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reminders/due [get]
func (h *ReminderHandler) Due(c *gin.Context) {
	due := h.lifecycle.DueReminders()
	meta := map[string]interface{}{"count": len(due)}
	lastPoll, pollErr := h.lifecycle.LastPoll()
	if !lastPoll.IsZero() {
		meta["polledAt"] = lastPoll
	}
	if pollErr != nil {
		meta["stale"] = true
	}
	response.JSON(c, http.StatusOK, due, meta)
}

// Create godoc
// @Summary Create reminder
// @Tags Reminders
// @Accept json
// @Produce json
// @Param payload body dto.ReminderRequest true "Reminder payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reminders [post]
func (h *ReminderHandler) Create(c *gin.Context) {
	var req dto.ReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	reminder, err := h.scheduler.CreateReminder(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reminder)
}

// Dismiss godoc
// @Summary Dismiss reminder
// @Tags Reminders
// @Param id path string true "Reminder ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /reminders/{id}/dismiss [post]
func (h *ReminderHandler) Dismiss(c *gin.Context) {
	if err := h.lifecycle.Dismiss(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Snooze godoc
// @Summary Snooze reminder
// @Tags Reminders
// @Accept json
// @Produce json
// @Param id path string true "Reminder ID"
// @Param payload body dto.SnoozeRequest false "Snooze duration, defaults to the configured minutes"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reminders/{id}/snooze [post]
func (h *ReminderHandler) Snooze(c *gin.Context) {
	var req dto.SnoozeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	until, err := h.lifecycle.Snooze(c.Request.Context(), c.Param("id"), req.Minutes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"id": c.Param("id"), "snoozedUntil": until})
}

// Delete godoc
// @Summary Delete reminder
// @Tags Reminders
// @Param id path string true "Reminder ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /reminders/{id} [delete]
func (h *ReminderHandler) Delete(c *gin.Context) {
	if err := h.scheduler.DeleteReminder(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
