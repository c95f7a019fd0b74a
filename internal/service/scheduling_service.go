package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/marketing-calendar-api/internal/dto"
	"github.com/noah-isme/marketing-calendar-api/internal/models"
	appErrors "github.com/noah-isme/marketing-calendar-api/pkg/errors"
)

// CampaignStore is the authoritative campaign persistence.
type CampaignStore interface {
	List(ctx context.Context) ([]models.Campaign, error)
	Create(ctx context.Context, fields models.CampaignFields) (*models.Campaign, error)
	Update(ctx context.Context, id string, fields models.CampaignFields) (*models.Campaign, error)
	Delete(ctx context.Context, id string) error
}

type reminderWriter interface {
	Create(ctx context.Context, fields models.ReminderFields) (*models.Reminder, error)
	Delete(ctx context.Context, id string) error
}

type reminderTracker interface {
	Track(r models.Reminder)
	Forget(id string) func()
	Settle(id string)
}

// SchedulingOptions wires optional collaborators.
type SchedulingOptions struct {
	Tracker  reminderTracker
	Calendar calendarInvalidator
	Metrics  *MetricsService
	Now      func() time.Time
}

// SchedulingService validates and applies campaign and reminder writes. Every
// campaign write is applied to the local cache first and then reconciled
// against the store; the reconciling fetch is the source of truth.
type SchedulingService struct {
	campaigns  CampaignStore
	reminders  reminderWriter
	cache      *EventCache
	normalizer *EventNormalizer
	validator  *validator.Validate
	tracker    reminderTracker
	calendar   calendarInvalidator
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
}

// NewSchedulingService constructs the mutation service.
func NewSchedulingService(campaigns CampaignStore, reminders reminderWriter, cache *EventCache, normalizer *EventNormalizer, validate *validator.Validate, logger *zap.Logger, opts SchedulingOptions) *SchedulingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = NewEventCache()
	}
	if normalizer == nil {
		normalizer = NewEventNormalizer(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	RegisterCalendarValidations(validate, normalizer)
	return &SchedulingService{
		campaigns:  campaigns,
		reminders:  reminders,
		cache:      cache,
		normalizer: normalizer,
		validator:  validate,
		tracker:    opts.Tracker,
		calendar:   opts.Calendar,
		metrics:    opts.Metrics,
		logger:     logger,
		now:        opts.Now,
	}
}

// Cache exposes the versioned campaign cache read by the timeline.
func (s *SchedulingService) Cache() *EventCache {
	return s.cache
}

// Reconcile replaces the cache with the store's campaign list unless a newer
// fetch or a pending write supersedes it.
func (s *SchedulingService) Reconcile(ctx context.Context) (*CacheVersion, error) {
	ticket := s.cache.BeginFetch()
	list, err := s.campaigns.List(ctx)
	if err != nil {
		return s.cache.Snapshot(), appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list campaigns")
	}
	version, applied := s.cache.Reconcile(ticket, list)
	if !applied {
		s.logger.Debug("reconcile result superseded", zap.Uint64("version", version.Seq))
	}
	return version, nil
}

// ListCampaigns reconciles and returns the campaign list. When the store is
// unreachable a previously reconciled list is served instead.
func (s *SchedulingService) ListCampaigns(ctx context.Context) ([]models.Campaign, error) {
	version, err := s.Reconcile(ctx)
	if err != nil {
		if version.ReconciledAt.IsZero() {
			return nil, err
		}
		s.logger.Warn("serving cached campaigns", zap.Error(err))
	}
	out := make([]models.Campaign, len(version.Campaigns))
	for i, c := range version.Campaigns {
		out[i] = c.Clone()
	}
	return out, nil
}

// CampaignForm returns the edit form for id.
func (s *SchedulingService) CampaignForm(ctx context.Context, id string) (*dto.CampaignForm, error) {
	campaign, ok := s.cache.Snapshot().Find(id)
	if !ok {
		version, err := s.Reconcile(ctx)
		if err != nil {
			return nil, err
		}
		if campaign, ok = version.Find(id); !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "campaign not found")
		}
	}
	form := CampaignFormFor(campaign)
	return &form, nil
}

// CreateCampaign validates req and creates a campaign.
func (s *SchedulingService) CreateCampaign(ctx context.Context, req dto.CampaignRequest) (*models.Campaign, error) {
	fields, err := s.prepareCampaign(req)
	if err != nil {
		s.metrics.RecordMutation("campaign", "create", err)
		return nil, err
	}

	now := s.now()
	optimistic := campaignFromFields("local-"+uuid.NewString(), fields, now)

	s.cache.BeginWrite()
	s.cache.Upsert(optimistic)
	created, err := s.campaigns.Create(ctx, fields)
	s.cache.EndWrite()
	if err != nil {
		s.cache.Remove(optimistic.ID)
		s.reconcileAfterWrite(ctx)
		err = campaignStoreError(err, "failed to create campaign")
		s.metrics.RecordMutation("campaign", "create", err)
		s.logger.Error("create campaign failed", zap.Error(err))
		return nil, err
	}

	echo := withSubmittedScheduling(*created, fields)
	s.cache.Swap(optimistic.ID, echo)
	s.reconcileAfterWrite(ctx)
	s.metrics.RecordMutation("campaign", "create", nil)
	return &echo, nil
}

// UpdateCampaign validates req and updates campaign id.
func (s *SchedulingService) UpdateCampaign(ctx context.Context, id string, req dto.CampaignRequest) (*models.Campaign, error) {
	fields, err := s.prepareCampaign(req)
	if err != nil {
		s.metrics.RecordMutation("campaign", "update", err)
		return nil, err
	}

	prev, hadPrev := s.cache.Snapshot().Find(id)
	optimistic := campaignFromFields(id, fields, s.now())
	if hadPrev {
		optimistic.CreatedAt = prev.CreatedAt
	}

	s.cache.BeginWrite()
	s.cache.Upsert(optimistic)
	updated, err := s.campaigns.Update(ctx, id, fields)
	s.cache.EndWrite()
	if err != nil {
		if hadPrev {
			s.cache.Upsert(prev)
		} else {
			s.cache.Remove(id)
		}
		s.reconcileAfterWrite(ctx)
		err = campaignStoreError(err, "failed to update campaign")
		s.metrics.RecordMutation("campaign", "update", err)
		s.logger.Error("update campaign failed", zap.String("campaign_id", id), zap.Error(err))
		return nil, err
	}

	echo := withSubmittedScheduling(*updated, fields)
	s.cache.Upsert(echo)
	s.reconcileAfterWrite(ctx)
	s.metrics.RecordMutation("campaign", "update", nil)
	return &echo, nil
}

// DeleteCampaign removes campaign id.
func (s *SchedulingService) DeleteCampaign(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "campaign id is required")
	}
	prev, hadPrev := s.cache.Snapshot().Find(id)

	s.cache.BeginWrite()
	s.cache.Remove(id)
	err := s.campaigns.Delete(ctx, id)
	s.cache.EndWrite()
	if err != nil && hadPrev {
		s.cache.Upsert(prev)
	}
	s.reconcileAfterWrite(ctx)
	if err != nil {
		err = campaignStoreError(err, "failed to delete campaign")
		s.logger.Error("delete campaign failed", zap.String("campaign_id", id), zap.Error(err))
	}
	s.metrics.RecordMutation("campaign", "delete", err)
	return err
}

// CreateReminder validates req and creates a reminder.
func (s *SchedulingService) CreateReminder(ctx context.Context, req dto.ReminderRequest) (*models.Reminder, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		err = validationError(err)
		s.metrics.RecordMutation("reminder", "create", err)
		return nil, err
	}
	reminder, err := s.reminders.Create(ctx, models.ReminderFields{
		Title:         req.Title,
		Description:   strings.TrimSpace(req.Description),
		ScheduledFor:  req.ScheduledFor,
		OffsetMinutes: req.OffsetMinutes,
	})
	if err != nil {
		err = reminderStoreError(err)
		s.metrics.RecordMutation("reminder", "create", err)
		s.logger.Error("create reminder failed", zap.Error(err))
		return nil, err
	}
	if s.tracker != nil {
		s.tracker.Track(*reminder)
	}
	s.invalidateCalendar(ctx)
	s.metrics.RecordMutation("reminder", "create", nil)
	return reminder, nil
}

// DeleteReminder removes reminder id and drops it from the due set.
func (s *SchedulingService) DeleteReminder(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "reminder id is required")
	}
	restore := func() {}
	if s.tracker != nil {
		restore = s.tracker.Forget(id)
	}
	if err := s.reminders.Delete(ctx, id); err != nil {
		restore()
		err = reminderStoreError(err)
		s.metrics.RecordMutation("reminder", "delete", err)
		s.logger.Error("delete reminder failed", zap.String("reminder_id", id), zap.Error(err))
		return err
	}
	if s.tracker != nil {
		s.tracker.Settle(id)
	}
	s.invalidateCalendar(ctx)
	s.metrics.RecordMutation("reminder", "delete", nil)
	return nil
}

func (s *SchedulingService) prepareCampaign(req dto.CampaignRequest) (models.CampaignFields, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.StartDate = strings.TrimSpace(req.StartDate)
	var platforms []string
	for _, p := range req.Platforms {
		if p = strings.TrimSpace(p); p != "" {
			platforms = append(platforms, p)
		}
	}
	req.Platforms = platforms

	if err := s.validator.Struct(req); err != nil {
		return models.CampaignFields{}, validationError(err)
	}
	postTime, err := resolvePostTime(req)
	if err != nil {
		return models.CampaignFields{}, err
	}
	status := req.Status
	if status == "" {
		status = models.CampaignStatusScheduled
	}
	return models.CampaignFields{
		Name:       req.Name,
		Objective:  strings.TrimSpace(req.Objective),
		Platforms:  platforms,
		Creative:   req.Creative,
		Scheduling: models.CampaignScheduling{StartDate: req.StartDate, PostTime: postTime},
		Status:     status,
	}, nil
}

func (s *SchedulingService) reconcileAfterWrite(ctx context.Context) {
	if _, err := s.Reconcile(ctx); err != nil {
		s.logger.Warn("reconcile after write failed", zap.Error(err))
	}
}

func (s *SchedulingService) invalidateCalendar(ctx context.Context) {
	if s.calendar != nil {
		_ = s.calendar.Invalidate(ctx)
	}
}

func campaignFromFields(id string, fields models.CampaignFields, now time.Time) models.Campaign {
	return models.Campaign{
		ID:         id,
		Name:       fields.Name,
		Objective:  fields.Objective,
		Platforms:  append([]string(nil), fields.Platforms...),
		Creative:   fields.Creative,
		Scheduling: fields.Scheduling,
		Status:     fields.Status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// withSubmittedScheduling keeps the scheduling fields exactly as submitted so
// an echo that lags behind the write does not drop the just-set time.
func withSubmittedScheduling(echo models.Campaign, fields models.CampaignFields) models.Campaign {
	echo = echo.Clone()
	echo.Scheduling = fields.Scheduling
	return echo
}

func campaignStoreError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "campaign not found")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, message)
}
