package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/marketing-calendar-api/internal/models"
	appErrors "github.com/noah-isme/marketing-calendar-api/pkg/errors"
	"github.com/noah-isme/marketing-calendar-api/pkg/jobs"
)

// ReminderStore is the authoritative reminder persistence.
type ReminderStore interface {
	ListDue(ctx context.Context, now time.Time) ([]models.Reminder, error)
	Create(ctx context.Context, fields models.ReminderFields) (*models.Reminder, error)
	Dismiss(ctx context.Context, id string) error
	Snooze(ctx context.Context, id string, until time.Time) (time.Time, error)
	Delete(ctx context.Context, id string) error
}

type calendarInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ReminderManagerConfig configures the due-check poll.
type ReminderManagerConfig struct {
	PollSchedule  string
	SnoozeMinutes int
	Now           func() time.Time
}

// override is a local user action that wins over poll results until the
// store has confirmed it.
type override struct {
	dismissed bool
	until     time.Time
	confirmed bool
	seq       uint64
}

// ReminderManager owns the due set. A recurring poll refreshes it from the
// store; dismiss and snooze apply locally at once and take precedence over
// any poll that was already in flight.
type ReminderManager struct {
	store    ReminderStore
	calendar calendarInvalidator
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
	snooze   int
	schedule string
	poller   *jobs.Recurring

	mu        sync.RWMutex
	due       []models.Reminder
	overrides map[string]*override
	seq       uint64
	lastPoll  time.Time
	lastErr   error
}

// NewReminderManager constructs a manager. calendar may be nil.
func NewReminderManager(store ReminderStore, calendar calendarInvalidator, metrics *MetricsService, logger *zap.Logger, cfg ReminderManagerConfig) *ReminderManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.SnoozeMinutes <= 0 {
		cfg.SnoozeMinutes = models.DefaultSnoozeMinutes
	}
	return &ReminderManager{
		store:     store,
		calendar:  calendar,
		metrics:   metrics,
		logger:    logger,
		now:       cfg.Now,
		snooze:    cfg.SnoozeMinutes,
		schedule:  cfg.PollSchedule,
		due:       []models.Reminder{},
		overrides: make(map[string]*override),
	}
}

// Start runs a poll immediately and then on the configured schedule.
func (m *ReminderManager) Start(ctx context.Context) error {
	poller, err := jobs.NewRecurring("reminder-poll", m.pollTask, jobs.RecurringConfig{Schedule: m.schedule, RunOnStart: true, Logger: m.logger})
	if err != nil {
		return err
	}
	return m.startPoller(ctx, poller)
}

// StartWithSchedule is Start with an already parsed schedule.
func (m *ReminderManager) StartWithSchedule(ctx context.Context, schedule cron.Schedule) error {
	poller := jobs.NewRecurringWithSchedule("reminder-poll", m.pollTask, schedule, jobs.RecurringConfig{RunOnStart: true, Logger: m.logger})
	return m.startPoller(ctx, poller)
}

func (m *ReminderManager) pollTask(ctx context.Context) {
	_ = m.PollOnce(ctx)
}

func (m *ReminderManager) startPoller(ctx context.Context, poller *jobs.Recurring) error {
	m.mu.Lock()
	if m.poller != nil && m.poller.Running() {
		m.mu.Unlock()
		return nil
	}
	m.poller = poller
	m.mu.Unlock()
	poller.Start(ctx)
	m.logger.Info("reminder poll started", zap.String("schedule", m.schedule))
	return nil
}

// Stop halts the poll and waits for an in-flight check to finish. No poll
// result is applied after Stop returns.
func (m *ReminderManager) Stop() {
	m.mu.Lock()
	poller := m.poller
	m.poller = nil
	m.mu.Unlock()
	if poller != nil {
		poller.Stop()
		m.logger.Info("reminder poll stopped")
	}
}

// PollOnce refreshes the due set. On failure the last known set is kept and
// the error is returned only for logging.
func (m *ReminderManager) PollOnce(ctx context.Context) error {
	m.mu.RLock()
	startSeq := m.seq
	m.mu.RUnlock()

	now := m.now()
	fetched, err := m.store.ListDue(ctx, now)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.lastErr = err
		m.metrics.RecordPoll(false, len(m.due))
		m.logger.Warn("reminder poll failed, keeping last due set", zap.Int("due", len(m.due)), zap.Error(err))
		return err
	}

	due := make([]models.Reminder, 0, len(fetched))
	present := make(map[string]struct{}, len(fetched))
	for _, r := range fetched {
		present[r.ID] = struct{}{}
		if r.Status == models.ReminderStatusDismissed {
			continue
		}
		due = append(due, r)
	}
	sortByDueAt(due)
	m.due = due
	m.lastPoll = now
	m.lastErr = nil

	// A confirmed override is settled once a poll that started after the
	// confirmation no longer reports the reminder, or once a snooze expired.
	for id, ov := range m.overrides {
		if !ov.confirmed || ov.seq > startSeq {
			continue
		}
		_, stillListed := present[id]
		if ov.dismissed && !stillListed {
			delete(m.overrides, id)
		}
		if !ov.dismissed && !now.Before(ov.until) {
			delete(m.overrides, id)
		}
	}

	m.metrics.RecordPoll(true, len(m.visibleLocked(now)))
	return nil
}

// DueReminders returns a copy of the reminders currently due.
func (m *ReminderManager) DueReminders() []models.Reminder {
	now := m.now()
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.visibleLocked(now)
}

// LastPoll reports when the due set was last refreshed and the last poll error.
func (m *ReminderManager) LastPoll() (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastPoll, m.lastErr
}

// Dismiss removes id from the due set for good.
func (m *ReminderManager) Dismiss(ctx context.Context, id string) error {
	ov := &override{dismissed: true}
	err := m.act(ctx, id, ov, func(ctx context.Context) error {
		return m.store.Dismiss(ctx, id)
	})
	m.metrics.RecordMutation("reminder", "dismiss", err)
	return err
}

// Snooze hides id and re-arms it minutes from now. Each call pushes the due
// time forward again. A reminder that is not yet due keeps its later trigger
// time, so the returned instant is the one the store actually holds.
func (m *ReminderManager) Snooze(ctx context.Context, id string, minutes int) (time.Time, error) {
	if minutes < 0 {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "minutes must not be negative")
	}
	if minutes == 0 {
		minutes = m.snooze
	}
	until := m.now().Add(time.Duration(minutes) * time.Minute)
	ov := &override{until: until}
	var stored time.Time
	err := m.act(ctx, id, ov, func(ctx context.Context) error {
		var err error
		stored, err = m.store.Snooze(ctx, id, until)
		return err
	})
	m.metrics.RecordMutation("reminder", "snooze", err)
	if err != nil {
		return time.Time{}, err
	}
	if stored.After(until) {
		m.mu.Lock()
		if m.overrides[id] == ov {
			ov.until = stored
		}
		m.mu.Unlock()
		until = stored
	}
	return until, nil
}

// Track adds a newly created reminder to the due set when it is already due.
func (m *ReminderManager) Track(r models.Reminder) {
	if !r.IsDue(m.now()) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertLocked(r)
}

// Forget drops id from the due set ahead of a delete. The returned func
// restores it if the delete fails.
func (m *ReminderManager) Forget(id string) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed, ok := m.removeLocked(id)
	prev := m.overrides[id]
	m.overrides[id] = &override{dismissed: true}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if prev != nil {
			m.overrides[id] = prev
		} else {
			delete(m.overrides, id)
		}
		if ok {
			m.insertLocked(removed)
		}
	}
}

// Settle marks a Forget as confirmed by the store.
func (m *ReminderManager) Settle(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ov, ok := m.overrides[id]; ok {
		m.seq++
		ov.confirmed = true
		ov.seq = m.seq
	}
}

func (m *ReminderManager) act(ctx context.Context, id string, ov *override, write func(context.Context) error) error {
	if id == "" {
		return appErrors.Clone(appErrors.ErrValidation, "reminder id is required")
	}

	m.mu.Lock()
	prev := m.overrides[id]
	removed, wasDue := m.removeLocked(id)
	m.overrides[id] = ov
	m.mu.Unlock()

	if err := write(ctx); err != nil {
		m.mu.Lock()
		// Only revert if no newer action replaced ours meanwhile.
		if m.overrides[id] == ov {
			if prev != nil {
				m.overrides[id] = prev
			} else {
				delete(m.overrides, id)
			}
			// A poll that landed during the write may already have put it back.
			if wasDue {
				m.insertLocked(removed)
			}
		}
		m.mu.Unlock()
		m.logger.Error("reminder action failed", zap.String("reminder_id", id), zap.Error(err))
		return reminderStoreError(err)
	}

	m.mu.Lock()
	m.seq++
	ov.confirmed = true
	ov.seq = m.seq
	m.mu.Unlock()

	if m.calendar != nil {
		_ = m.calendar.Invalidate(ctx)
	}
	return nil
}

func (m *ReminderManager) insertLocked(r models.Reminder) {
	for _, existing := range m.due {
		if existing.ID == r.ID {
			return
		}
	}
	m.due = append(m.due, r)
	sortByDueAt(m.due)
}

func (m *ReminderManager) removeLocked(id string) (models.Reminder, bool) {
	for i, r := range m.due {
		if r.ID == id {
			next := make([]models.Reminder, 0, len(m.due)-1)
			next = append(next, m.due[:i]...)
			next = append(next, m.due[i+1:]...)
			m.due = next
			return r, true
		}
	}
	return models.Reminder{}, false
}

func (m *ReminderManager) visibleLocked(now time.Time) []models.Reminder {
	out := make([]models.Reminder, 0, len(m.due))
	for _, r := range m.due {
		if ov, ok := m.overrides[r.ID]; ok {
			if ov.dismissed || now.Before(ov.until) {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func sortByDueAt(reminders []models.Reminder) {
	sort.SliceStable(reminders, func(i, j int) bool {
		a, b := reminders[i].DueAt(), reminders[j].DueAt()
		if !a.Equal(b) {
			return a.Before(b)
		}
		return reminders[i].ID < reminders[j].ID
	})
}

func reminderStoreError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "reminder not found")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "reminder store unavailable")
}
