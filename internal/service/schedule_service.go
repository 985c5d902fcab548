package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/medora-hq/roster-api/internal/models"
	"github.com/medora-hq/roster-api/internal/repository"
	appErrors "github.com/medora-hq/roster-api/pkg/errors"
)

type scheduleStore interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	FindByYearMonth(ctx context.Context, year, month int) (*models.Schedule, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	Update(ctx context.Context, schedule *models.Schedule) error
	Delete(ctx context.Context, id string) error
}

type scheduleAuditor interface {
	Record(ctx context.Context, entry AuditEntry)
}

type scheduleCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type publishNotifier interface {
	SchedulePublished(ctx context.Context, schedule *models.Schedule, publishedBy string)
}

// CreateScheduleRequest is the payload for opening a new monthly
// schedule.
type CreateScheduleRequest struct {
	Year  int     `json:"year" validate:"required,min=2000,max=2100"`
	Month int     `json:"month" validate:"required,min=1,max=12"`
	Notes *string `json:"notes"`
}

// UpdateScheduleRequest is the payload for editing schedule metadata.
type UpdateScheduleRequest struct {
	Notes *string `json:"notes"`
}

// ScheduleService manages monthly schedules and their lifecycle. Each
// month has at most one schedule; lifecycle transitions follow the
// draft -> published -> archived state machine.
type ScheduleService struct {
	repo      scheduleStore
	audit     scheduleAuditor
	cache     scheduleCacheInvalidator
	notifier  publishNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs the schedule service.
func NewScheduleService(repo scheduleStore, audit scheduleAuditor, cache scheduleCacheInvalidator, notifier publishNotifier, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, audit: audit, cache: cache, notifier: notifier, validator: validate, logger: logger}
}

// List returns schedules matching the filter.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, *models.Pagination, error) {
	schedules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return schedules, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one schedule by id.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.Schedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, err
	}
	return schedule, nil
}

// GetByMonth loads the schedule covering the given month.
func (s *ScheduleService) GetByMonth(ctx context.Context, year, month int) (*models.Schedule, error) {
	schedule, err := s.repo.FindByYearMonth(ctx, year, month)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, err
	}
	return schedule, nil
}

// Create opens a new draft schedule for a month that does not have one
// yet.
func (s *ScheduleService) Create(ctx context.Context, req CreateScheduleRequest, actorID, ip, userAgent string) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	if _, err := s.repo.FindByYearMonth(ctx, req.Year, req.Month); err == nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, fmt.Sprintf("schedule for %04d-%02d already exists", req.Year, req.Month))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	schedule := &models.Schedule{
		Year:   req.Year,
		Month:  req.Month,
		Status: models.ScheduleStatusDraft,
		Notes:  req.Notes,
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, fmt.Sprintf("schedule for %04d-%02d already exists", req.Year, req.Month))
		}
		return nil, err
	}

	s.recordAudit(ctx, actorID, models.AuditActionCreate, schedule.ID, nil, schedule, ip, userAgent)
	s.logger.Info("schedule created", zap.String("schedule_id", schedule.ID), zap.Int("year", schedule.Year), zap.Int("month", schedule.Month))
	return schedule, nil
}

// Update edits the metadata of a draft schedule.
func (s *ScheduleService) Update(ctx context.Context, id string, req UpdateScheduleRequest, actorID, ip, userAgent string) (*models.Schedule, error) {
	schedule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if schedule.Status != models.ScheduleStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrInvalidStatus, "only draft schedules can be edited")
	}

	old := *schedule
	schedule.Notes = req.Notes
	if err := s.repo.Update(ctx, schedule); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actorID, models.AuditActionUpdate, schedule.ID, &old, schedule, ip, userAgent)
	return schedule, nil
}

// Delete removes a draft schedule and all its assignments.
func (s *ScheduleService) Delete(ctx context.Context, id, actorID, ip, userAgent string) error {
	schedule, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if schedule.Status != models.ScheduleStatusDraft {
		return appErrors.Clone(appErrors.ErrInvalidStatus, "only draft schedules can be deleted")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateReports(ctx, id)
	s.recordAudit(ctx, actorID, models.AuditActionDelete, id, schedule, nil, ip, userAgent)
	s.logger.Info("schedule deleted", zap.String("schedule_id", id))
	return nil
}

// Transition applies a lifecycle action and returns the updated
// schedule. Invalid transitions are rejected without side effects.
func (s *ScheduleService) Transition(ctx context.Context, id string, action models.ScheduleAction, actorID, ip, userAgent string) (*models.Schedule, error) {
	schedule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	old := *schedule
	now := time.Now().UTC()

	switch action {
	case models.ScheduleActionPublish:
		if schedule.Status != models.ScheduleStatusDraft {
			return nil, appErrors.Clone(appErrors.ErrInvalidStatus, "only draft schedules can be published")
		}
		schedule.Status = models.ScheduleStatusPublished
		schedule.PublishedAt = &now
		schedule.PublishedBy = &actorID
	case models.ScheduleActionUnpublish:
		if schedule.Status != models.ScheduleStatusPublished {
			return nil, appErrors.Clone(appErrors.ErrInvalidStatus, "only published schedules can be unpublished")
		}
		schedule.Status = models.ScheduleStatusDraft
		schedule.PublishedAt = nil
		schedule.PublishedBy = nil
	case models.ScheduleActionArchive:
		if schedule.Status == models.ScheduleStatusArchived {
			return nil, appErrors.Clone(appErrors.ErrInvalidStatus, "schedule is already archived")
		}
		schedule.Status = models.ScheduleStatusArchived
	case models.ScheduleActionUnarchive:
		if schedule.Status != models.ScheduleStatusArchived {
			return nil, appErrors.Clone(appErrors.ErrInvalidStatus, "only archived schedules can be unarchived")
		}
		schedule.Status = models.ScheduleStatusDraft
		schedule.PublishedAt = nil
		schedule.PublishedBy = nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown schedule action")
	}

	if err := s.repo.Update(ctx, schedule); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actorID, string(action), schedule.ID, &old, schedule, ip, userAgent)
	if action == models.ScheduleActionPublish && s.notifier != nil {
		s.notifier.SchedulePublished(ctx, schedule, actorID)
	}

	s.logger.Info("schedule transitioned",
		zap.String("schedule_id", schedule.ID),
		zap.String("action", string(action)),
		zap.String("from", string(old.Status)),
		zap.String("to", string(schedule.Status)))
	return schedule, nil
}

func (s *ScheduleService) recordAudit(ctx context.Context, actorID, action, entityID string, old, updated interface{}, ip, userAgent string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		UserID:     actorID,
		Action:     action,
		EntityType: models.AuditEntitySchedule,
		EntityID:   entityID,
		OldValues:  old,
		NewValues:  updated,
		IPAddress:  ip,
		UserAgent:  userAgent,
	})
}

func (s *ScheduleService) invalidateReports(ctx context.Context, scheduleID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, reportCachePattern(scheduleID)); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.String("schedule_id", scheduleID), zap.Error(err))
	}
}
