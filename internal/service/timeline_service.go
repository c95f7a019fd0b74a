package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/marketing-calendar-api/internal/models"
	appErrors "github.com/noah-isme/marketing-calendar-api/pkg/errors"
)

// CampaignSnapshotter yields a consistent campaign list version.
type CampaignSnapshotter interface {
	Snapshot() *CacheVersion
}

// ReminderProjection lists reminders projected into a viewport.
type ReminderProjection interface {
	Reminders(ctx context.Context, viewport models.Viewport) ([]models.Reminder, error)
}

// viewportLoad identifies one load within a session.
type viewportLoad struct {
	cancel context.CancelFunc
}

// TimelineService loads sources for a viewport and composes the timeline.
// Within a session only the most recent load may deliver a result.
type TimelineService struct {
	holidays   *HolidayCatalog
	normalizer *EventNormalizer
	composer   *TimelineComposer
	campaigns  CampaignSnapshotter
	reminders  ReminderProjection
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*viewportLoad
}

// NewTimelineService wires the composition pipeline. reminders may be nil.
func NewTimelineService(holidays *HolidayCatalog, normalizer *EventNormalizer, composer *TimelineComposer, campaigns CampaignSnapshotter, reminders ReminderProjection, metrics *MetricsService, logger *zap.Logger, now func() time.Time) *TimelineService {
	if holidays == nil {
		holidays = DefaultHolidayCatalog()
	}
	if normalizer == nil {
		normalizer = NewEventNormalizer(nil)
	}
	if composer == nil {
		composer = NewTimelineComposer(ComposerConfig{Location: normalizer.Location()})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &TimelineService{
		holidays:   holidays,
		normalizer: normalizer,
		composer:   composer,
		campaigns:  campaigns,
		reminders:  reminders,
		metrics:    metrics,
		logger:     logger,
		now:        now,
		sessions:   make(map[string]*viewportLoad),
	}
}

// Resolve applies a navigation step to a viewport. An empty anchor means today.
func (s *TimelineService) Resolve(anchor, granularity, nav string) (models.Viewport, error) {
	g := models.GranularityWeek
	if strings.TrimSpace(granularity) != "" {
		parsed, err := models.ParseGranularity(granularity)
		if err != nil {
			return models.Viewport{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "granularity must be day, week or month")
		}
		g = parsed
	}
	viewport := models.Viewport{Granularity: g}
	if strings.TrimSpace(anchor) == "" {
		viewport = viewport.Today(s.now(), s.normalizer.Location())
	} else {
		date, err := models.ParseLocalDate(anchor)
		if err != nil {
			return models.Viewport{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "anchor must be YYYY-MM-DD")
		}
		viewport.Anchor = date
	}

	switch strings.ToLower(strings.TrimSpace(nav)) {
	case "":
	case "prev":
		viewport = viewport.Prev()
	case "next":
		viewport = viewport.Next()
	case "today":
		viewport = viewport.Today(s.now(), s.normalizer.Location())
	default:
		return models.Viewport{}, appErrors.Clone(appErrors.ErrValidation, "nav must be prev, next or today")
	}
	return viewport, nil
}

// Load composes viewport for session. Starting a load cancels the session's
// previous one; a load that has been superseded returns ErrStaleViewport and
// its result is discarded. An empty session disables supersession.
func (s *TimelineService) Load(ctx context.Context, session string, viewport models.Viewport) (*models.TimelineView, error) {
	if session == "" {
		return s.Compose(ctx, viewport)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	load := &viewportLoad{cancel: cancel}

	s.mu.Lock()
	if prev, ok := s.sessions[session]; ok {
		prev.cancel()
	}
	s.sessions[session] = load
	s.mu.Unlock()

	view, err := s.Compose(ctx, viewport)

	s.mu.Lock()
	current := s.sessions[session] == load
	if current {
		delete(s.sessions, session)
	}
	s.mu.Unlock()

	if !current {
		s.metrics.RecordStaleViewport()
		s.logger.Debug("discarding superseded viewport", zap.String("session", session), zap.String("viewport", viewport.String()))
		return nil, appErrors.ErrStaleViewport
	}
	return view, err
}

// Compose loads all sources for viewport and composes it.
func (s *TimelineService) Compose(ctx context.Context, viewport models.Viewport) (*models.TimelineView, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveCompose(string(viewport.Granularity), time.Since(start))
	}()

	var campaigns []models.Campaign
	if s.campaigns != nil {
		campaigns = s.campaigns.Snapshot().Campaigns
	}

	var reminders []models.Reminder
	if s.reminders != nil {
		fetched, err := s.reminders.Reminders(ctx, viewport)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Reminders are dropped from the view rather than failing it.
			s.logger.Warn("reminder projection unavailable", zap.String("viewport", viewport.String()), zap.Error(err))
		} else {
			reminders = fetched
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	holidays := s.holidays.EntriesForYears(viewport.Years())
	events := s.normalizer.Normalize(campaigns, reminders, holidays)
	view := s.composer.Compose(events, viewport, s.now())
	return &view, nil
}
