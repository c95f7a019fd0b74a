package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/marketing-calendar-api/internal/models"
	appErrors "github.com/noah-isme/marketing-calendar-api/pkg/errors"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock { return &fakeClock{now: now} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type reminderStoreStub struct {
	mu        sync.Mutex
	reminders map[string]models.Reminder
	order     []string
	listErr   error
	writeErr  error
	listCalls int
}

func newReminderStoreStub(reminders ...models.Reminder) *reminderStoreStub {
	s := &reminderStoreStub{reminders: map[string]models.Reminder{}}
	for _, r := range reminders {
		s.reminders[r.ID] = r
		s.order = append(s.order, r.ID)
	}
	return s
}

func (s *reminderStoreStub) ListDue(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.Reminder
	for _, id := range s.order {
		r, ok := s.reminders[id]
		if ok && r.IsDue(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *reminderStoreStub) Create(ctx context.Context, fields models.ReminderFields) (*models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	r := models.Reminder{
		ID:            uuid.NewString(),
		Title:         fields.Title,
		Description:   fields.Description,
		ScheduledFor:  fields.ScheduledFor,
		OffsetMinutes: fields.OffsetMinutes,
		Status:        models.ReminderStatusPending,
	}
	s.reminders[r.ID] = r
	s.order = append(s.order, r.ID)
	return &r, nil
}

func (s *reminderStoreStub) Dismiss(ctx context.Context, id string) error {
	return s.update(id, func(r *models.Reminder) { r.Status = models.ReminderStatusDismissed })
}

func (s *reminderStoreStub) Snooze(ctx context.Context, id string, until time.Time) (time.Time, error) {
	stored := until
	err := s.update(id, func(r *models.Reminder) {
		if trigger := r.ScheduledFor.Add(-time.Duration(r.OffsetMinutes) * time.Minute); trigger.After(stored) {
			stored = trigger
		}
		r.Status = models.ReminderStatusSnoozed
		r.SnoozedUntil = &stored
	})
	if err != nil {
		return time.Time{}, err
	}
	return stored, nil
}

func (s *reminderStoreStub) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	if _, ok := s.reminders[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.reminders, id)
	return nil
}

func (s *reminderStoreStub) update(id string, apply func(*models.Reminder)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	r, ok := s.reminders[id]
	if !ok {
		return sql.ErrNoRows
	}
	apply(&r)
	s.reminders[id] = r
	return nil
}

func dueIDs(reminders []models.Reminder) []string {
	ids := make([]string, 0, len(reminders))
	for _, r := range reminders {
		ids = append(ids, r.ID)
	}
	return ids
}

func newTestReminderManager(store ReminderStore, clock *fakeClock) *ReminderManager {
	return NewReminderManager(store, nil, NewMetricsService(), nil, ReminderManagerConfig{Now: clock.Now})
}

func TestReminderManagerSurfacesAtOffset(t *testing.T) {
	loc := time.UTC
	clock := newFakeClock(time.Date(2025, time.November, 1, 8, 29, 0, 0, loc))
	store := newReminderStoreStub(models.Reminder{
		ID:            "rem-1",
		Title:         "Approve creative",
		ScheduledFor:  time.Date(2025, time.November, 1, 9, 0, 0, 0, loc),
		OffsetMinutes: 30,
		Status:        models.ReminderStatusPending,
	})
	m := newTestReminderManager(store, clock)

	require.NoError(t, m.PollOnce(context.Background()))
	assert.Empty(t, m.DueReminders())

	clock.Advance(time.Minute)
	require.NoError(t, m.PollOnce(context.Background()))
	assert.Equal(t, []string{"rem-1"}, dueIDs(m.DueReminders()))
}

func TestReminderManagerSnoozeRoundTrip(t *testing.T) {
	clock := newFakeClock(time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC))
	store := newReminderStoreStub(models.Reminder{ID: "rem-1", ScheduledFor: clock.Now().Add(-time.Minute), Status: models.ReminderStatusPending})
	m := newTestReminderManager(store, clock)
	require.NoError(t, m.PollOnce(context.Background()))
	require.Equal(t, []string{"rem-1"}, dueIDs(m.DueReminders()))

	until, err := m.Snooze(context.Background(), "rem-1", 15)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(15*time.Minute), until)
	assert.Empty(t, m.DueReminders())

	clock.Advance(14 * time.Minute)
	require.NoError(t, m.PollOnce(context.Background()))
	assert.Empty(t, m.DueReminders())

	clock.Advance(time.Minute)
	require.NoError(t, m.PollOnce(context.Background()))
	assert.Equal(t, []string{"rem-1"}, dueIDs(m.DueReminders()))
}

func TestReminderManagerRepeatedSnoozePushesForward(t *testing.T) {
	clock := newFakeClock(time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC))
	store := newReminderStoreStub(models.Reminder{ID: "rem-1", ScheduledFor: clock.Now(), Status: models.ReminderStatusPending})
	m := newTestReminderManager(store, clock)
	require.NoError(t, m.PollOnce(context.Background()))

	_, err := m.Snooze(context.Background(), "rem-1", 0)
	require.NoError(t, err)
	clock.Advance(10 * time.Minute)
	second, err := m.Snooze(context.Background(), "rem-1", 15)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(15*time.Minute), second)

	clock.Advance(10 * time.Minute)
	require.NoError(t, m.PollOnce(context.Background()))
	assert.Empty(t, m.DueReminders())

	clock.Advance(5 * time.Minute)
	require.NoError(t, m.PollOnce(context.Background()))
	assert.Equal(t, []string{"rem-1"}, dueIDs(m.DueReminders()))
}

func TestReminderManagerDismissIsTerminal(t *testing.T) {
	clock := newFakeClock(time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC))
	store := newReminderStoreStub(
		models.Reminder{ID: "a", ScheduledFor: clock.Now().Add(-2 * time.Minute), Status: models.ReminderStatusPending},
		models.Reminder{ID: "b", ScheduledFor: clock.Now().Add(-time.Minute), Status: models.ReminderStatusPending},
	)
	m := newTestReminderManager(store, clock)
	require.NoError(t, m.PollOnce(context.Background()))
	require.Equal(t, []string{"a", "b"}, dueIDs(m.DueReminders()))

	require.NoError(t, m.Dismiss(context.Background(), "a"))
	assert.Equal(t, []string{"b"}, dueIDs(m.DueReminders()))

	clock.Advance(time.Hour)
	require.NoError(t, m.PollOnce(context.Background()))
	assert.Equal(t, []string{"b"}, dueIDs(m.DueReminders()))
}

func TestReminderManagerPollFailureKeepsLastDueSet(t *testing.T) {
	clock := newFakeClock(time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC))
	store := newReminderStoreStub(models.Reminder{ID: "rem-1", ScheduledFor: clock.Now(), Status: models.ReminderStatusPending})
	m := newTestReminderManager(store, clock)
	require.NoError(t, m.PollOnce(context.Background()))

	store.listErr = errors.New("connection refused")
	err := m.PollOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"rem-1"}, dueIDs(m.DueReminders()))
	_, lastErr := m.LastPoll()
	assert.Error(t, lastErr)
}

func TestReminderManagerUserActionBeatsInFlightPoll(t *testing.T) {
	clock := newFakeClock(time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC))
	base := newReminderStoreStub(models.Reminder{ID: "rem-1", ScheduledFor: clock.Now(), Status: models.ReminderStatusPending})
	store := &blockingListStore{reminderStoreStub: base, listed: make(chan struct{}), release: make(chan struct{})}
	m := newTestReminderManager(store, clock)
	m.Track(base.reminders["rem-1"])

	// The poll reads the store, then the user dismisses before the poll lands.
	done := make(chan error, 1)
	go func() { done <- m.PollOnce(context.Background()) }()
	<-store.listed
	require.NoError(t, m.Dismiss(context.Background(), "rem-1"))
	close(store.release)
	require.NoError(t, <-done)
	assert.Empty(t, m.DueReminders())

	require.NoError(t, m.PollOnce(context.Background()))
	assert.Empty(t, m.DueReminders())
	m.mu.RLock()
	assert.Empty(t, m.overrides)
	m.mu.RUnlock()
}

// blockingListStore holds its first ListDue result until released.
type blockingListStore struct {
	*reminderStoreStub
	once    sync.Once
	listed  chan struct{}
	release chan struct{}
}

func (s *blockingListStore) ListDue(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	result, err := s.reminderStoreStub.ListDue(ctx, now)
	s.once.Do(func() {
		close(s.listed)
		<-s.release
	})
	return result, err
}

func TestReminderManagerActionFailureReverts(t *testing.T) {
	clock := newFakeClock(time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC))
	store := newReminderStoreStub(models.Reminder{ID: "rem-1", ScheduledFor: clock.Now(), Status: models.ReminderStatusPending})
	m := newTestReminderManager(store, clock)
	require.NoError(t, m.PollOnce(context.Background()))

	store.writeErr = errors.New("timeout")
	err := m.Dismiss(context.Background(), "rem-1")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrStoreUnavailable.Code))
	assert.Equal(t, []string{"rem-1"}, dueIDs(m.DueReminders()))

	store.writeErr = nil
	_, err = m.Snooze(context.Background(), "missing", 5)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))

	_, err = m.Snooze(context.Background(), "rem-1", -1)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
}

func TestReminderManagerSnoozeKeepsLaterTrigger(t *testing.T) {
	clock := newFakeClock(time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC))
	trigger := time.Date(2025, time.June, 2, 18, 0, 0, 0, time.UTC)
	store := newReminderStoreStub(models.Reminder{ID: "rem-1", ScheduledFor: trigger, Status: models.ReminderStatusPending})
	m := newTestReminderManager(store, clock)

	until, err := m.Snooze(context.Background(), "rem-1", 15)
	require.NoError(t, err)
	assert.Equal(t, trigger, until)

	clock.Advance(30 * time.Minute)
	require.NoError(t, m.PollOnce(context.Background()))
	assert.Empty(t, m.DueReminders())

	clock.Advance(7*time.Hour + 30*time.Minute)
	require.NoError(t, m.PollOnce(context.Background()))
	assert.Equal(t, []string{"rem-1"}, dueIDs(m.DueReminders()))
}

// blockingWriteStore holds Dismiss until released, then fails it.
type blockingWriteStore struct {
	*reminderStoreStub
	writing chan struct{}
	release chan struct{}
}

func (s *blockingWriteStore) Dismiss(ctx context.Context, id string) error {
	close(s.writing)
	<-s.release
	return errors.New("write timeout")
}

func TestReminderManagerFailedDismissDuringPollKeepsOneCopy(t *testing.T) {
	clock := newFakeClock(time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC))
	base := newReminderStoreStub(models.Reminder{ID: "rem-1", ScheduledFor: clock.Now(), Status: models.ReminderStatusPending})
	store := &blockingWriteStore{reminderStoreStub: base, writing: make(chan struct{}), release: make(chan struct{})}
	m := newTestReminderManager(store, clock)
	require.NoError(t, m.PollOnce(context.Background()))

	done := make(chan error, 1)
	go func() { done <- m.Dismiss(context.Background(), "rem-1") }()
	<-store.writing
	require.NoError(t, m.PollOnce(context.Background()))
	close(store.release)
	require.Error(t, <-done)

	assert.Equal(t, []string{"rem-1"}, dueIDs(m.DueReminders()))
	m.mu.RLock()
	assert.Len(t, m.due, 1)
	m.mu.RUnlock()
}

func TestReminderManagerForgetRestoreAfterPollKeepsOneCopy(t *testing.T) {
	clock := newFakeClock(time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC))
	store := newReminderStoreStub(models.Reminder{ID: "rem-1", ScheduledFor: clock.Now(), Status: models.ReminderStatusPending})
	m := newTestReminderManager(store, clock)
	require.NoError(t, m.PollOnce(context.Background()))

	restore := m.Forget("rem-1")
	require.NoError(t, m.PollOnce(context.Background()))
	restore()

	assert.Equal(t, []string{"rem-1"}, dueIDs(m.DueReminders()))
	m.mu.RLock()
	assert.Len(t, m.due, 1)
	m.mu.RUnlock()
}

func TestReminderManagerTrackAndForget(t *testing.T) {
	clock := newFakeClock(time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC))
	m := newTestReminderManager(newReminderStoreStub(), clock)

	m.Track(models.Reminder{ID: "later", ScheduledFor: clock.Now().Add(time.Hour)})
	m.Track(models.Reminder{ID: "now", ScheduledFor: clock.Now()})
	assert.Equal(t, []string{"now"}, dueIDs(m.DueReminders()))

	restore := m.Forget("now")
	assert.Empty(t, m.DueReminders())
	restore()
	assert.Equal(t, []string{"now"}, dueIDs(m.DueReminders()))
}

type everyTick struct{ d time.Duration }

func (e everyTick) Next(t time.Time) time.Time { return t.Add(e.d) }

var _ cron.Schedule = everyTick{}

func TestReminderManagerStartStop(t *testing.T) {
	clock := newFakeClock(time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC))
	store := newReminderStoreStub(models.Reminder{ID: "rem-1", ScheduledFor: clock.Now(), Status: models.ReminderStatusPending})
	m := newTestReminderManager(store, clock)

	require.NoError(t, m.StartWithSchedule(context.Background(), everyTick{d: 20 * time.Millisecond}))
	require.Eventually(t, func() bool {
		return len(m.DueReminders()) == 1
	}, time.Second, 5*time.Millisecond)
	m.Stop()

	store.mu.Lock()
	calls := store.listCalls
	store.mu.Unlock()
	time.Sleep(60 * time.Millisecond)
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, calls, store.listCalls)
}
