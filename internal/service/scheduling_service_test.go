package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/marketing-calendar-api/internal/dto"
	"github.com/noah-isme/marketing-calendar-api/internal/models"
	appErrors "github.com/noah-isme/marketing-calendar-api/pkg/errors"
)

type campaignStoreStub struct {
	mu        sync.Mutex
	campaigns []models.Campaign
	nextID    int
	writeErr  error
	listErr   error
	// echoDropsTime simulates a server echo that lacks the just-set time.
	echoDropsTime bool
	// during runs inside a write, before the store applies it.
	during    func()
	listCalls int
}

func (s *campaignStoreStub) List(ctx context.Context) ([]models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.Campaign, len(s.campaigns))
	copy(out, s.campaigns)
	return out, nil
}

func (s *campaignStoreStub) Create(ctx context.Context, fields models.CampaignFields) (*models.Campaign, error) {
	if s.during != nil {
		s.during()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	s.nextID++
	c := campaignFromFields(fmt.Sprintf("camp-%d", s.nextID), fields, time.Now())
	s.campaigns = append(s.campaigns, c)
	echo := c
	if s.echoDropsTime {
		echo.Scheduling.PostTime = ""
	}
	return &echo, nil
}

func (s *campaignStoreStub) Update(ctx context.Context, id string, fields models.CampaignFields) (*models.Campaign, error) {
	if s.during != nil {
		s.during()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	for i := range s.campaigns {
		if s.campaigns[i].ID == id {
			updated := campaignFromFields(id, fields, time.Now())
			s.campaigns[i] = updated
			return &updated, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *campaignStoreStub) Delete(ctx context.Context, id string) error {
	if s.during != nil {
		s.during()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	for i := range s.campaigns {
		if s.campaigns[i].ID == id {
			s.campaigns = append(s.campaigns[:i], s.campaigns[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func validCampaignRequest() dto.CampaignRequest {
	return dto.CampaignRequest{
		Name:      "Festive launch",
		Platforms: []string{"instagram", " tiktok "},
		StartDate: "2025-11-01",
		PostTime:  "10:30",
	}
}

func newTestSchedulingService(store *campaignStoreStub, reminders reminderWriter, opts SchedulingOptions) *SchedulingService {
	return NewSchedulingService(store, reminders, NewEventCache(), NewEventNormalizer(time.UTC), validator.New(), nil, opts)
}

func TestSchedulingServiceCreateCampaignIsOptimistic(t *testing.T) {
	store := &campaignStoreStub{echoDropsTime: true}
	svc := newTestSchedulingService(store, nil, SchedulingOptions{})

	var duringWrite *CacheVersion
	store.during = func() { duringWrite = svc.Cache().Snapshot() }

	created, err := svc.CreateCampaign(context.Background(), validCampaignRequest())
	require.NoError(t, err)
	assert.Equal(t, "10:30", created.Scheduling.PostTime)
	assert.Equal(t, []string{"instagram", "tiktok"}, created.Platforms)
	assert.Equal(t, models.CampaignStatusScheduled, created.Status)

	require.NotNil(t, duringWrite)
	require.Len(t, duringWrite.Campaigns, 1)
	assert.True(t, duringWrite.Optimistic)
	assert.True(t, strings.HasPrefix(duringWrite.Campaigns[0].ID, "local-"))
	assert.Equal(t, "10:30", duringWrite.Campaigns[0].Scheduling.PostTime)

	snapshot := svc.Cache().Snapshot()
	require.Len(t, snapshot.Campaigns, 1)
	assert.False(t, snapshot.Optimistic)
	assert.Equal(t, created.ID, snapshot.Campaigns[0].ID)
}

func TestSchedulingServiceCreateCampaignValidation(t *testing.T) {
	store := &campaignStoreStub{}
	svc := newTestSchedulingService(store, nil, SchedulingOptions{})

	cases := map[string]func(*dto.CampaignRequest){
		"title":     func(r *dto.CampaignRequest) { r.Name = "   " },
		"platforms": func(r *dto.CampaignRequest) { r.Platforms = []string{" "} },
		"date":      func(r *dto.CampaignRequest) { r.StartDate = "soon" },
		"time":      func(r *dto.CampaignRequest) { r.PostTime = "" },
		"clock":     func(r *dto.CampaignRequest) { r.PostTime = "25:61" },
		"status":    func(r *dto.CampaignRequest) { r.Status = "archived" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validCampaignRequest()
			mutate(&req)
			_, err := svc.CreateCampaign(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
	assert.Equal(t, 0, store.nextID)
	assert.Equal(t, 0, store.listCalls)
	assert.Empty(t, svc.Cache().Snapshot().Campaigns)
}

func TestSchedulingServiceValidationMessageUsesJSONNames(t *testing.T) {
	svc := newTestSchedulingService(&campaignStoreStub{}, nil, SchedulingOptions{})
	req := validCampaignRequest()
	req.Name = ""
	req.Platforms = nil
	_, err := svc.CreateCampaign(context.Background(), req)
	require.Error(t, err)
	msg := appErrors.FromError(err).Message
	assert.Contains(t, msg, "name is required")
	assert.Contains(t, msg, "platforms is required")
}

func TestSchedulingServiceCreateCampaignAcceptsHourMinute(t *testing.T) {
	svc := newTestSchedulingService(&campaignStoreStub{}, nil, SchedulingOptions{})
	hour, minute := 14, 5
	req := validCampaignRequest()
	req.PostTime = ""
	req.PostHour = &hour
	req.PostMinute = &minute
	req.StartDate = "2025-11-01T18:00:00Z"

	created, err := svc.CreateCampaign(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "14:05", created.Scheduling.PostTime)
}

func TestSchedulingServiceCreateCampaignStoreFailure(t *testing.T) {
	store := &campaignStoreStub{writeErr: errors.New("connection reset")}
	svc := newTestSchedulingService(store, nil, SchedulingOptions{Metrics: NewMetricsService()})

	_, err := svc.CreateCampaign(context.Background(), validCampaignRequest())
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrStoreUnavailable.Code))
	assert.Empty(t, svc.Cache().Snapshot().Campaigns)
}

func TestSchedulingServiceUpdateCampaign(t *testing.T) {
	store := &campaignStoreStub{campaigns: []models.Campaign{{
		ID: "camp-1", Name: "Old", Platforms: []string{"x"},
		Scheduling: models.CampaignScheduling{StartDate: "2025-10-01", PostTime: "08:00"},
	}}}
	svc := newTestSchedulingService(store, nil, SchedulingOptions{})
	_, err := svc.Reconcile(context.Background())
	require.NoError(t, err)

	var duringWrite models.Campaign
	store.during = func() { duringWrite, _ = svc.Cache().Snapshot().Find("camp-1") }

	updated, err := svc.UpdateCampaign(context.Background(), "camp-1", validCampaignRequest())
	require.NoError(t, err)
	assert.Equal(t, "Festive launch", updated.Name)
	assert.Equal(t, "Festive launch", duringWrite.Name)

	cached, ok := svc.Cache().Snapshot().Find("camp-1")
	require.True(t, ok)
	assert.Equal(t, "2025-11-01", cached.Scheduling.StartDate)

	store.during = nil
	_, err = svc.UpdateCampaign(context.Background(), "missing", validCampaignRequest())
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
	_, ok = svc.Cache().Snapshot().Find("missing")
	assert.False(t, ok)
}

func TestSchedulingServiceUpdateFailureRestoresPrevious(t *testing.T) {
	store := &campaignStoreStub{campaigns: []models.Campaign{{ID: "camp-1", Name: "Old", Scheduling: models.CampaignScheduling{StartDate: "2025-10-01"}}}}
	svc := newTestSchedulingService(store, nil, SchedulingOptions{})
	_, err := svc.Reconcile(context.Background())
	require.NoError(t, err)

	store.writeErr = errors.New("timeout")
	store.listErr = errors.New("timeout")
	_, err = svc.UpdateCampaign(context.Background(), "camp-1", validCampaignRequest())
	require.Error(t, err)

	cached, ok := svc.Cache().Snapshot().Find("camp-1")
	require.True(t, ok)
	assert.Equal(t, "Old", cached.Name)
}

func TestSchedulingServiceDeleteCampaignReconciles(t *testing.T) {
	store := &campaignStoreStub{campaigns: []models.Campaign{{ID: "camp-1", Name: "A"}, {ID: "camp-2", Name: "B"}}}
	svc := newTestSchedulingService(store, nil, SchedulingOptions{})
	_, err := svc.Reconcile(context.Background())
	require.NoError(t, err)

	var visibleDuring int
	store.during = func() { visibleDuring = len(svc.Cache().Snapshot().Campaigns) }
	require.NoError(t, svc.DeleteCampaign(context.Background(), "camp-1"))
	assert.Equal(t, 1, visibleDuring)
	assert.Len(t, svc.Cache().Snapshot().Campaigns, 1)

	// A failed delete is corrected by the reconciling fetch.
	store.writeErr = errors.New("read only")
	err = svc.DeleteCampaign(context.Background(), "camp-2")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrStoreUnavailable.Code))
	_, ok := svc.Cache().Snapshot().Find("camp-2")
	assert.True(t, ok)
}

func TestSchedulingServiceReconcileOverwritesOptimisticGuess(t *testing.T) {
	store := &campaignStoreStub{campaigns: []models.Campaign{{ID: "server", Name: "Server"}}}
	svc := newTestSchedulingService(store, nil, SchedulingOptions{})
	svc.Cache().Upsert(models.Campaign{ID: "ghost", Name: "Ghost"})

	version, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	require.Len(t, version.Campaigns, 1)
	assert.Equal(t, "server", version.Campaigns[0].ID)
}

func TestSchedulingServiceListCampaignsFailOpen(t *testing.T) {
	store := &campaignStoreStub{campaigns: []models.Campaign{{ID: "camp-1"}}}
	svc := newTestSchedulingService(store, nil, SchedulingOptions{})

	store.listErr = errors.New("down")
	_, err := svc.ListCampaigns(context.Background())
	require.Error(t, err)

	store.listErr = nil
	list, err := svc.ListCampaigns(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)

	store.listErr = errors.New("down")
	list, err = svc.ListCampaigns(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSchedulingServiceCampaignForm(t *testing.T) {
	store := &campaignStoreStub{campaigns: []models.Campaign{{ID: "camp-1", Name: "A", Scheduling: models.CampaignScheduling{StartDate: "2025-11-01", PostTime: "14:05"}}}}
	svc := newTestSchedulingService(store, nil, SchedulingOptions{})

	form, err := svc.CampaignForm(context.Background(), "camp-1")
	require.NoError(t, err)
	assert.Equal(t, 14, form.PostHour)
	assert.Equal(t, 5, form.PostMinute)

	_, err = svc.CampaignForm(context.Background(), "nope")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
}

type invalidationCounter struct {
	mu    sync.Mutex
	calls int
}

func (c *invalidationCounter) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return nil
}

func TestSchedulingServiceReminderWrites(t *testing.T) {
	clock := newFakeClock(time.Date(2025, time.November, 1, 8, 45, 0, 0, time.UTC))
	store := newReminderStoreStub()
	manager := newTestReminderManager(store, clock)
	calendar := &invalidationCounter{}
	svc := newTestSchedulingService(&campaignStoreStub{}, store, SchedulingOptions{Tracker: manager, Calendar: calendar, Now: clock.Now})

	_, err := svc.CreateReminder(context.Background(), dto.ReminderRequest{Title: " "})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	created, err := svc.CreateReminder(context.Background(), dto.ReminderRequest{
		Title:         "Approve creative",
		ScheduledFor:  time.Date(2025, time.November, 1, 9, 0, 0, 0, time.UTC),
		OffsetMinutes: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, dueIDs(manager.DueReminders()))
	assert.Equal(t, 1, calendar.calls)

	require.NoError(t, svc.DeleteReminder(context.Background(), created.ID))
	assert.Empty(t, manager.DueReminders())
	assert.Equal(t, 2, calendar.calls)

	err = svc.DeleteReminder(context.Background(), created.ID)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
}
