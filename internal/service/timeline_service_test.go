package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/marketing-calendar-api/internal/models"
	appErrors "github.com/noah-isme/marketing-calendar-api/pkg/errors"
)

type projectionStub struct {
	reminders []models.Reminder
	err       error
	// block makes the call wait for ctx cancellation or release.
	block   bool
	started chan struct{}
	release chan struct{}
}

func (p *projectionStub) Reminders(ctx context.Context, viewport models.Viewport) ([]models.Reminder, error) {
	if p.block {
		close(p.started)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.release:
		}
	}
	return p.reminders, p.err
}

func newTestTimelineService(cache *EventCache, projection ReminderProjection, now time.Time) *TimelineService {
	normalizer := NewEventNormalizer(time.UTC)
	composer := NewTimelineComposer(ComposerConfig{Location: time.UTC})
	return NewTimelineService(DefaultHolidayCatalog(), normalizer, composer, cache, projection, NewMetricsService(), nil, func() time.Time { return now })
}

func TestTimelineServiceComposeEndToEnd(t *testing.T) {
	cache := NewEventCache()
	cache.Upsert(models.Campaign{ID: "camp-1", Name: "Festive launch", Platforms: []string{"instagram"},
		Scheduling: models.CampaignScheduling{StartDate: "2025-11-01", PostTime: "10:30"}})
	projection := &projectionStub{reminders: []models.Reminder{{
		ID: "rem-1", Title: "Approve creative", OffsetMinutes: 30,
		ScheduledFor: time.Date(2025, time.November, 1, 9, 0, 0, 0, time.UTC),
	}}}
	svc := newTestTimelineService(cache, projection, time.Date(2025, time.November, 1, 8, 0, 0, 0, time.UTC))

	viewport, err := svc.Resolve("2025-11-01", "day", "")
	require.NoError(t, err)
	view, err := svc.Load(context.Background(), "s1", viewport)
	require.NoError(t, err)
	require.Len(t, view.Buckets, 1)

	titles := []string{}
	for _, ev := range view.Buckets[0].Events {
		titles = append(titles, ev.Title)
	}
	assert.Equal(t, []string{"Diwali", "Festive launch", "Approve creative"}, titles)
	assert.True(t, view.Buckets[0].Today)
	require.NotNil(t, view.Buckets[0].NowOffset)
	assert.Equal(t, 120.0, *view.Buckets[0].NowOffset)
}

func TestTimelineServiceProjectionFailureKeepsCalendar(t *testing.T) {
	svc := newTestTimelineService(NewEventCache(), &projectionStub{err: errors.New("db down")}, time.Time{})
	view, err := svc.Compose(context.Background(), models.Viewport{Anchor: models.NewLocalDate(2025, time.November, 1), Granularity: models.GranularityDay})
	require.NoError(t, err)
	require.Len(t, view.Buckets[0].Events, 1)
	assert.Equal(t, "Diwali", view.Buckets[0].Events[0].Title)
}

func TestTimelineServiceSupersededLoadIsDiscarded(t *testing.T) {
	slow := &projectionStub{block: true, started: make(chan struct{}), release: make(chan struct{})}
	svc := newTestTimelineService(NewEventCache(), slow, time.Time{})
	first := models.Viewport{Anchor: models.NewLocalDate(2025, time.November, 1), Granularity: models.GranularityWeek}

	type result struct {
		view *models.TimelineView
		err  error
	}
	done := make(chan result, 1)
	go func() {
		view, err := svc.Load(context.Background(), "s1", first)
		done <- result{view, err}
	}()
	<-slow.started

	slow.block = false
	view, err := svc.Load(context.Background(), "s1", first.Next())
	require.NoError(t, err)
	assert.Equal(t, "2025-11-03", view.Buckets[0].Date.String())

	stale := <-done
	assert.Nil(t, stale.view)
	assert.True(t, appErrors.IsCode(stale.err, appErrors.ErrStaleViewport.Code))
}

func TestTimelineServiceResolveNavigation(t *testing.T) {
	now := time.Date(2025, time.November, 5, 12, 0, 0, 0, time.UTC)
	svc := newTestTimelineService(NewEventCache(), nil, now)

	cases := []struct {
		anchor, granularity, nav string
		want                     string
		g                        models.Granularity
	}{
		{"2025-11-01", "day", "prev", "2025-10-31", models.GranularityDay},
		{"2025-11-01", "week", "next", "2025-11-08", models.GranularityWeek},
		{"2025-01-31", "month", "next", "2025-02-01", models.GranularityMonth},
		{"2025-01-15", "month", "prev", "2024-12-01", models.GranularityMonth},
		{"2020-01-01", "", "today", "2025-11-05", models.GranularityWeek},
		{"", "DAY", "", "2025-11-05", models.GranularityDay},
	}
	for _, tc := range cases {
		viewport, err := svc.Resolve(tc.anchor, tc.granularity, tc.nav)
		require.NoError(t, err)
		assert.Equal(t, tc.want, viewport.Anchor.String())
		assert.Equal(t, tc.g, viewport.Granularity)
	}

	for _, bad := range [][3]string{{"11/01/2025", "day", ""}, {"2025-11-01", "year", ""}, {"2025-11-01", "day", "back"}} {
		_, err := svc.Resolve(bad[0], bad[1], bad[2])
		require.Error(t, err)
		assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
	}
}
