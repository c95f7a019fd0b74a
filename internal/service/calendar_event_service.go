package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/marketing-calendar-api/internal/models"
	"github.com/noah-isme/marketing-calendar-api/pkg/cache"
	appErrors "github.com/noah-isme/marketing-calendar-api/pkg/errors"
)

const calendarEventsNamespace = "calendar:events"

// CalendarEventStore lists the server-side reminder projection for a month.
type CalendarEventStore interface {
	ListByMonth(ctx context.Context, year int, month time.Month) ([]models.CalendarEvent, error)
}

// CalendarEventService serves month projections through the cache.
type CalendarEventService struct {
	store  CalendarEventStore
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewCalendarEventService constructs the projection service. cache may be nil.
func NewCalendarEventService(store CalendarEventStore, cache *CacheService, ttl time.Duration, logger *zap.Logger) *CalendarEventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarEventService{store: store, cache: cache, ttl: ttl, logger: logger}
}

// ListCalendarEvents returns the projection for year/month.
func (s *CalendarEventService) ListCalendarEvents(ctx context.Context, year int, month time.Month) ([]models.CalendarEvent, error) {
	if month < time.January || month > time.December {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	// The generation is read before the store so a result fetched across an
	// invalidation lands under a key no later read will use.
	gen, cacheable := s.cache.Generation(ctx, calendarEventsNamespace)
	key := cache.ProjectionKey(calendarEventsNamespace, gen, monthLabel(year, month))

	if cacheable {
		var cached []models.CalendarEvent
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	events, err := s.store.ListByMonth(ctx, year, month)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list calendar events")
	}
	if events == nil {
		events = []models.CalendarEvent{}
	}
	if cacheable {
		_ = s.cache.Set(ctx, key, events, s.ttl)
	}
	return events, nil
}

// Reminders returns the reminders projected into the months of viewport.
// Month projections may overlap at their edges; each reminder is returned once.
func (s *CalendarEventService) Reminders(ctx context.Context, viewport models.Viewport) ([]models.Reminder, error) {
	var out []models.Reminder
	seen := make(map[string]struct{})
	for _, month := range viewport.Months() {
		events, err := s.ListCalendarEvents(ctx, month.Year, month.Month)
		if err != nil {
			return nil, err
		}
		for _, ev := range events {
			if ev.EventType != "" && ev.EventType != models.CalendarEventTypeReminder {
				continue
			}
			if _, ok := seen[ev.ID]; ok {
				continue
			}
			seen[ev.ID] = struct{}{}
			out = append(out, ev.Reminder())
		}
	}
	return out, nil
}

// Invalidate drops every cached month after a reminder mutation.
func (s *CalendarEventService) Invalidate(ctx context.Context) error {
	if err := s.cache.Invalidate(ctx, calendarEventsNamespace); err != nil {
		s.logger.Warn("calendar events invalidation failed", zap.Error(err))
		return err
	}
	return nil
}

func monthLabel(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}
