package service

import (
	"sort"
	"time"

	"github.com/noah-isme/marketing-calendar-api/internal/models"
)

const (
	// The hour axis of day and week views covers 06:00 through the 23:00 slot.
	axisStartHour = 6
	axisEndHour   = 23

	defaultSlotHeight   = 60
	defaultRowHeight    = 24
	defaultMonthVisible = 3
)

// ComposerConfig holds layout constants for the rendering layer.
type ComposerConfig struct {
	SlotHeight   float64
	RowHeight    float64
	MonthVisible int
	Location     *time.Location
}

// TimelineComposer lays normalized events out over a viewport. Compose holds
// no state between calls.
type TimelineComposer struct {
	cfg ComposerConfig
}

// NewTimelineComposer applies defaults to cfg.
func NewTimelineComposer(cfg ComposerConfig) *TimelineComposer {
	if cfg.SlotHeight <= 0 {
		cfg.SlotHeight = defaultSlotHeight
	}
	if cfg.RowHeight <= 0 {
		cfg.RowHeight = defaultRowHeight
	}
	if cfg.MonthVisible <= 0 {
		cfg.MonthVisible = defaultMonthVisible
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &TimelineComposer{cfg: cfg}
}

// Compose buckets events by local date over viewport. now only drives the
// today flag and the now marker; a zero now disables both.
func (c *TimelineComposer) Compose(events []models.ScheduledEvent, viewport models.Viewport, now time.Time) models.TimelineView {
	byDate := make(map[models.LocalDate][]models.ScheduledEvent)
	for _, ev := range events {
		byDate[ev.LocalDate] = append(byDate[ev.LocalDate], ev)
	}

	var (
		today    models.LocalDate
		nowClock models.ClockTime
	)
	if !now.IsZero() {
		today = models.LocalDateOf(now, c.cfg.Location)
		nowClock = models.ClockOf(now, c.cfg.Location)
	}

	start, end := viewport.Range()
	view := models.TimelineView{Viewport: viewport}
	if viewport.Granularity == models.GranularityMonth {
		view.Padding = models.MondayIndex(start.Weekday())
	}
	view.Buckets = make([]models.Bucket, 0, view.Padding+start.DaysInMonth())
	for i := 0; i < view.Padding; i++ {
		view.Buckets = append(view.Buckets, models.Bucket{Placeholder: true, Events: []models.ScheduledEvent{}})
	}

	for d := start; !d.After(end); d = d.AddDays(1) {
		dayEvents := append([]models.ScheduledEvent{}, byDate[d]...)
		sort.SliceStable(dayEvents, func(i, j int) bool {
			return dayEvents[i].Category().Rank() < dayEvents[j].Category().Rank()
		})

		bucket := models.Bucket{Date: d, Today: !today.IsZero() && d == today, Events: dayEvents}
		if viewport.Granularity == models.GranularityMonth {
			c.capMonthCell(&bucket)
		} else {
			c.placeOnAxis(&bucket)
			if bucket.Today {
				if offset, ok := c.offset(nowClock); ok {
					bucket.NowOffset = &offset
				}
			}
		}
		view.Buckets = append(view.Buckets, bucket)
	}
	return view
}

func (c *TimelineComposer) capMonthCell(b *models.Bucket) {
	visible := len(b.Events)
	if visible > c.cfg.MonthVisible {
		visible = c.cfg.MonthVisible
	}
	b.Visible = b.Events[:visible:visible]
	b.Overflow = len(b.Events) - visible
}

func (c *TimelineComposer) placeOnAxis(b *models.Bucket) {
	stacks := make(map[int]int)
	for _, ev := range b.Events {
		if ev.Category() == models.CategoryHoliday {
			b.AllDay = append(b.AllDay, ev)
			continue
		}
		offset, ok := c.offset(ev.StartTime)
		if !ok {
			b.Hidden++
			continue
		}
		stack := stacks[ev.StartTime.Hour]
		stacks[ev.StartTime.Hour] = stack + 1
		b.Placed = append(b.Placed, models.PlacedEvent{
			Event:  ev,
			Offset: offset + float64(stack)*c.cfg.RowHeight,
			Stack:  stack,
		})
	}
}

// offset maps a clock reading onto the hour axis. Readings before the axis
// start are not visible.
func (c *TimelineComposer) offset(t models.ClockTime) (float64, bool) {
	if t.Hour < axisStartHour || t.Hour > axisEndHour {
		return 0, false
	}
	return float64(t.Hour-axisStartHour)*c.cfg.SlotHeight + float64(t.Minute)*(c.cfg.SlotHeight/60), true
}
