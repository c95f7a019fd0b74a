package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/marketing-calendar-api/internal/dto"
	"github.com/noah-isme/marketing-calendar-api/internal/models"
	appErrors "github.com/noah-isme/marketing-calendar-api/pkg/errors"
	"github.com/noah-isme/marketing-calendar-api/pkg/response"
)

// SessionHeader scopes viewport supersession to one client view.
const SessionHeader = "X-Calendar-Session"

type timelineLoader interface {
	Resolve(anchor, granularity, nav string) (models.Viewport, error)
	Load(ctx context.Context, session string, viewport models.Viewport) (*models.TimelineView, error)
}

type calendarEventLister interface {
	ListCalendarEvents(ctx context.Context, year int, month time.Month) ([]models.CalendarEvent, error)
}

type timelineExporter interface {
	ICS(view *models.TimelineView) ([]byte, error)
	CSV(view *models.TimelineView) ([]byte, error)
	PDF(view *models.TimelineView) ([]byte, error)
}

// CalendarHandler serves composed timelines, month projections and exports.
type CalendarHandler struct {
	timeline timelineLoader
	events   calendarEventLister
	exporter timelineExporter
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(timeline timelineLoader, events calendarEventLister, exporter timelineExporter) *CalendarHandler {
	return &CalendarHandler{timeline: timeline, events: events, exporter: exporter}
}

// Timeline godoc
// @Summary Compose the calendar timeline for a viewport
// @Tags Calendar
// @Produce json
// @Param anchor query string false "Anchor date (YYYY-MM-DD), defaults to today"
// @Param granularity query string false "day, week or month" default(week)
// @Param nav query string false "prev, next or today"
// @Param X-Calendar-Session header string false "Client view session"
// @Success 200 {object} response.Envelope
// @Success 204 "Superseded by a newer request in the same session"
// @Failure 400 {object} response.Envelope
// @Router /calendar/timeline [get]
func (h *CalendarHandler) Timeline(c *gin.Context) {
	viewport, ok := h.resolve(c)
	if !ok {
		return
	}
	view, err := h.timeline.Load(c.Request.Context(), c.GetHeader(SessionHeader), viewport)
	if err != nil {
		if appErrors.IsCode(err, appErrors.ErrStaleViewport.Code) || errors.Is(err, context.Canceled) {
			response.NoContent(c)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, map[string]interface{}{"viewport": viewport.String()})
}

// Events godoc
// @Summary List the reminder projection for a month
// @Tags Calendar
// @Produce json
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /calendar/events [get]
func (h *CalendarHandler) Events(c *gin.Context) {
	var query dto.CalendarEventsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "year and month are required"))
		return
	}
	events, err := h.events.ListCalendarEvents(c.Request.Context(), query.Year, time.Month(query.Month))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, map[string]interface{}{"count": len(events)})
}

// ExportICS godoc
// @Summary Export a viewport as iCalendar
// @Tags Calendar
// @Produce text/calendar
// @Param anchor query string false "Anchor date (YYYY-MM-DD)"
// @Param granularity query string false "day, week or month"
// @Success 200 {file} file
// @Router /calendar/export.ics [get]
func (h *CalendarHandler) ExportICS(c *gin.Context) {
	h.export(c, "text/calendar; charset=utf-8", "ics", h.exporter.ICS)
}

// ExportCSV godoc
// @Summary Export a viewport as CSV
// @Tags Calendar
// @Produce text/csv
// @Param anchor query string false "Anchor date (YYYY-MM-DD)"
// @Param granularity query string false "day, week or month"
// @Success 200 {file} file
// @Router /calendar/export.csv [get]
func (h *CalendarHandler) ExportCSV(c *gin.Context) {
	h.export(c, "text/csv", "csv", h.exporter.CSV)
}

// ExportPDF godoc
// @Summary Export a viewport as a PDF agenda
// @Tags Calendar
// @Produce application/pdf
// @Param anchor query string false "Anchor date (YYYY-MM-DD)"
// @Param granularity query string false "day, week or month"
// @Success 200 {file} file
// @Router /calendar/export.pdf [get]
func (h *CalendarHandler) ExportPDF(c *gin.Context) {
	h.export(c, "application/pdf", "pdf", h.exporter.PDF)
}

func (h *CalendarHandler) export(c *gin.Context, contentType, ext string, render func(*models.TimelineView) ([]byte, error)) {
	viewport, ok := h.resolve(c)
	if !ok {
		return
	}
	view, err := h.timeline.Load(c.Request.Context(), "", viewport)
	if err != nil {
		response.Error(c, err)
		return
	}
	body, err := render(view)
	if err != nil {
		response.Error(c, err)
		return
	}
	start, _ := viewport.Range()
	response.Attachment(c, contentType, fmt.Sprintf("calendar-%s-%s.%s", viewport.Granularity, start, ext), body)
}

func (h *CalendarHandler) resolve(c *gin.Context) (models.Viewport, bool) {
	var query dto.TimelineQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return models.Viewport{}, false
	}
	viewport, err := h.timeline.Resolve(query.Anchor, query.Granularity, query.Nav)
	if err != nil {
		response.Error(c, err)
		return models.Viewport{}, false
	}
	return viewport, true
}
