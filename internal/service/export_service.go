package service

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/noah-isme/marketing-calendar-api/internal/models"
	"github.com/noah-isme/marketing-calendar-api/pkg/export"
)

const (
	icsProductID       = "-//marketing-calendar-api//timeline//EN"
	timedEventDuration = time.Hour
)

var exportColumns = []export.Column{
	{Key: "date", Label: "Date", Weight: 1},
	{Key: "time", Label: "Time", Weight: 0.7},
	{Key: "category", Label: "Category", Weight: 1},
	{Key: "title", Label: "Title", Weight: 2},
	{Key: "status", Label: "Status", Weight: 0.8},
	{Key: "details", Label: "Details", Weight: 3},
}

// ExportService renders a composed timeline into downloadable formats.
type ExportService struct {
	loc *time.Location
	csv *export.CSVExporter
	pdf *export.PDFExporter
	now func() time.Time
}

// NewExportService constructs the exporter. loc is the viewer timezone timed
// events are anchored in.
func NewExportService(loc *time.Location, now func() time.Time) *ExportService {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &ExportService{loc: loc, csv: export.NewCSVExporter(), pdf: export.NewPDFExporter(), now: now}
}

// ICS renders every event of view as a VEVENT. Holidays become all-day
// entries; campaigns and reminders last one hour from their start time.
func (s *ExportService) ICS(view *models.TimelineView) ([]byte, error) {
	if view == nil {
		return nil, fmt.Errorf("export ics: nil view")
	}
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)

	stamp := s.now().UTC()
	for _, bucket := range view.Days() {
		for _, ev := range bucket.Events {
			vevent := cal.AddEvent(ev.Key() + "@" + ev.LocalDate.String())
			vevent.SetDtStampTime(stamp)
			vevent.SetSummary(ev.Title)
			if desc := eventDetails(ev); desc != "" {
				vevent.SetDescription(desc)
			}
			vevent.SetProperty(ics.ComponentPropertyCategories, strings.ToUpper(string(ev.Category())))

			if ev.Category() == models.CategoryHoliday {
				day := ev.LocalDate.At(models.ClockTime{}, time.UTC)
				vevent.SetAllDayStartAt(day)
				vevent.SetAllDayEndAt(day.AddDate(0, 0, 1))
				continue
			}
			start := ev.LocalDate.At(ev.StartTime, s.loc)
			vevent.SetStartAt(start)
			vevent.SetEndAt(start.Add(timedEventDuration))
		}
	}
	return []byte(cal.Serialize()), nil
}

// CSV renders one row per event in timeline order.
func (s *ExportService) CSV(view *models.TimelineView) ([]byte, error) {
	if view == nil {
		return nil, fmt.Errorf("export csv: nil view")
	}
	data := export.Table{Columns: exportColumns}
	for _, bucket := range view.Days() {
		for _, ev := range bucket.Events {
			data.Rows = append(data.Rows, exportRow(ev))
		}
	}
	return s.csv.Render(data)
}

// PDF renders an agenda with one section per day.
func (s *ExportService) PDF(view *models.TimelineView) ([]byte, error) {
	if view == nil {
		return nil, fmt.Errorf("export pdf: nil view")
	}
	days := view.Days()
	sections := make([]export.Section, 0, len(days))
	for _, bucket := range days {
		rows := make([]map[string]string, 0, len(bucket.Events))
		for _, ev := range bucket.Events {
			rows = append(rows, exportRow(ev))
		}
		sections = append(sections, export.Section{
			Title: fmt.Sprintf("%s %s", bucket.Date.Weekday(), bucket.Date),
			Rows:  rows,
		})
	}
	title := fmt.Sprintf("Marketing calendar: %s view from %s", view.Viewport.Granularity, viewportStart(view))
	return s.pdf.Render(exportColumns, sections, title)
}

func exportRow(ev models.ScheduledEvent) map[string]string {
	clock := ev.StartTime.String()
	if ev.Category() == models.CategoryHoliday {
		clock = "all day"
	}
	return map[string]string{
		"date":     ev.LocalDate.String(),
		"time":     clock,
		"category": string(ev.Category()),
		"title":    ev.Title,
		"status":   ev.Status(),
		"details":  eventDetails(ev),
	}
}

func eventDetails(ev models.ScheduledEvent) string {
	switch d := ev.Detail.(type) {
	case models.CampaignDetail:
		parts := []string{}
		if len(d.Platforms) > 0 {
			parts = append(parts, "Platforms: "+strings.Join(d.Platforms, ", "))
		}
		if d.Objective != "" {
			parts = append(parts, "Objective: "+d.Objective)
		}
		return strings.Join(parts, "; ")
	case models.ReminderDetail:
		if d.OffsetMinutes > 0 {
			return strings.TrimSpace(fmt.Sprintf("%s (alert %d min before)", d.Description, d.OffsetMinutes))
		}
		return d.Description
	case models.HolidayDetail:
		if d.Tip != "" {
			return strings.TrimSpace(d.Description + " Tip: " + d.Tip)
		}
		return d.Description
	default:
		return ""
	}
}

func viewportStart(view *models.TimelineView) string {
	start, _ := view.Viewport.Range()
	return start.String()
}
