package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/medora-hq/roster-api/internal/models"
	"github.com/medora-hq/roster-api/internal/repository"
	appErrors "github.com/medora-hq/roster-api/pkg/errors"
)

type assignmentStore interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, int, error)
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.AssignmentDetail, error)
	FindByID(ctx context.Context, id string) (*models.AssignmentDetail, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id string) error
}

// CreateAssignmentRequest is the payload for a manual assignment.
type CreateAssignmentRequest struct {
	ScheduleID   string `json:"schedule_id" validate:"required"`
	DoctorID     string `json:"doctor_id" validate:"required"`
	CenterID     string `json:"center_id" validate:"required"`
	ShiftID      string `json:"shift_id" validate:"required"`
	Date         string `json:"date" validate:"required"`
	IsPediatrics bool   `json:"is_pediatrics"`
}

// UpdateAssignmentRequest is the payload for moving an assignment.
type UpdateAssignmentRequest struct {
	DoctorID     string `json:"doctor_id" validate:"required"`
	CenterID     string `json:"center_id" validate:"required"`
	ShiftID      string `json:"shift_id" validate:"required"`
	Date         string `json:"date" validate:"required"`
	IsPediatrics bool   `json:"is_pediatrics"`
}

// AssignmentService manages manual roster edits. Writes are only
// allowed while the owning schedule is a draft.
type AssignmentService struct {
	repo      assignmentStore
	schedules scheduleReader
	doctors   doctorFinder
	centers   centerReader
	shifts    shiftFinder
	audit     scheduleAuditor
	cache     scheduleCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(
	repo assignmentStore,
	schedules scheduleReader,
	doctors doctorFinder,
	centers centerReader,
	shifts shiftFinder,
	audit scheduleAuditor,
	cache scheduleCacheInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		repo:      repo,
		schedules: schedules,
		doctors:   doctors,
		centers:   centers,
		shifts:    shifts,
		audit:     audit,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// List returns assignments matching the filter.
func (s *AssignmentService) List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, *models.Pagination, error) {
	assignments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return assignments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one assignment with its catalog context.
func (s *AssignmentService) Get(ctx context.Context, id string) (*models.AssignmentDetail, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, err
	}
	return assignment, nil
}

// Create adds a manual assignment to a draft schedule.
func (s *AssignmentService) Create(ctx context.Context, req CreateAssignmentRequest, actorID, ip, userAgent string) (*models.AssignmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	schedule, err := s.draftSchedule(ctx, req.ScheduleID)
	if err != nil {
		return nil, err
	}
	date, err := s.parseDateInMonth(schedule, req.Date)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, req.DoctorID, req.CenterID, req.ShiftID); err != nil {
		return nil, err
	}

	assignment := &models.Assignment{
		ScheduleID:   req.ScheduleID,
		DoctorID:     req.DoctorID,
		CenterID:     req.CenterID,
		ShiftID:      req.ShiftID,
		Date:         date,
		IsPediatrics: req.IsPediatrics,
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "doctor already has an assignment on this date")
		}
		return nil, err
	}

	s.invalidateReports(ctx, req.ScheduleID)
	s.recordAudit(ctx, actorID, models.AuditActionCreate, assignment.ID, nil, assignment, ip, userAgent)

	return s.Get(ctx, assignment.ID)
}

// Update moves an existing assignment within its draft schedule.
func (s *AssignmentService) Update(ctx context.Context, id string, req UpdateAssignmentRequest, actorID, ip, userAgent string) (*models.AssignmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	schedule, err := s.draftSchedule(ctx, existing.ScheduleID)
	if err != nil {
		return nil, err
	}
	date, err := s.parseDateInMonth(schedule, req.Date)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, req.DoctorID, req.CenterID, req.ShiftID); err != nil {
		return nil, err
	}

	updated := existing.Assignment
	updated.DoctorID = req.DoctorID
	updated.CenterID = req.CenterID
	updated.ShiftID = req.ShiftID
	updated.Date = date
	updated.IsPediatrics = req.IsPediatrics

	if err := s.repo.Update(ctx, &updated); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "doctor already has an assignment on this date")
		}
		return nil, err
	}

	s.invalidateReports(ctx, existing.ScheduleID)
	s.recordAudit(ctx, actorID, models.AuditActionUpdate, id, &existing.Assignment, &updated, ip, userAgent)

	return s.Get(ctx, id)
}

// Delete removes an assignment from a draft schedule.
func (s *AssignmentService) Delete(ctx context.Context, id, actorID, ip, userAgent string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.draftSchedule(ctx, existing.ScheduleID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateReports(ctx, existing.ScheduleID)
	s.recordAudit(ctx, actorID, models.AuditActionDelete, id, &existing.Assignment, nil, ip, userAgent)
	return nil
}

func (s *AssignmentService) draftSchedule(ctx context.Context, scheduleID string) (*models.Schedule, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, err
	}
	if schedule.Status != models.ScheduleStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrInvalidStatus, "assignments can only be modified on draft schedules")
	}
	return schedule, nil
}

func (s *AssignmentService) parseDateInMonth(schedule *models.Schedule, raw string) (time.Time, error) {
	date, err := time.ParseInLocation(models.DateOnly, raw, time.UTC)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must be in YYYY-MM-DD format")
	}
	if date.Year() != schedule.Year || int(date.Month()) != schedule.Month {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must fall within the schedule month")
	}
	return date, nil
}

func (s *AssignmentService) checkReferences(ctx context.Context, doctorID, centerID, shiftID string) error {
	if _, err := s.doctors.FindByID(ctx, doctorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
		}
		return err
	}
	if _, err := s.centers.FindByID(ctx, centerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "center not found")
		}
		return err
	}
	if _, err := s.shifts.FindByID(ctx, shiftID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return err
	}
	return nil
}

func (s *AssignmentService) recordAudit(ctx context.Context, actorID, action, entityID string, old, updated interface{}, ip, userAgent string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		UserID:     actorID,
		Action:     action,
		EntityType: models.AuditEntityAssignment,
		EntityID:   entityID,
		OldValues:  old,
		NewValues:  updated,
		IPAddress:  ip,
		UserAgent:  userAgent,
	})
}

func (s *AssignmentService) invalidateReports(ctx context.Context, scheduleID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, reportCachePattern(scheduleID)); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.String("schedule_id", scheduleID), zap.Error(err))
	}
}
