package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/medora-hq/roster-api/internal/models"
	"github.com/medora-hq/roster-api/internal/repository"
	appErrors "github.com/medora-hq/roster-api/pkg/errors"
)

type shiftStore interface {
	List(ctx context.Context, filter models.ShiftFilter) ([]models.Shift, int, error)
	FindByID(ctx context.Context, id string) (*models.Shift, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, shift *models.Shift) error
	Update(ctx context.Context, shift *models.Shift) error
	Delete(ctx context.Context, id string) error
}

// CreateShiftRequest is the payload for defining a shift.
type CreateShiftRequest struct {
	Code       string `json:"code" validate:"required,max=16"`
	Name       string `json:"name" validate:"required"`
	ShiftType  string `json:"shift_type" validate:"required,oneof=8h 12h"`
	StartTime  string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime    string `json:"end_time" validate:"required,datetime=15:04"`
	Hours      int    `json:"hours" validate:"required,min=1,max=24"`
	IsOptional bool   `json:"is_optional"`
}

// UpdateShiftRequest is the payload for editing a shift definition.
type UpdateShiftRequest struct {
	Code       string `json:"code" validate:"required,max=16"`
	Name       string `json:"name" validate:"required"`
	ShiftType  string `json:"shift_type" validate:"required,oneof=8h 12h"`
	StartTime  string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime    string `json:"end_time" validate:"required,datetime=15:04"`
	Hours      int    `json:"hours" validate:"required,min=1,max=24"`
	IsOptional bool   `json:"is_optional"`
}

// ShiftService manages the shift catalog. The overnight flag is always
// derived from the wall-clock times, never taken from the client.
type ShiftService struct {
	repo      shiftStore
	audit     scheduleAuditor
	validator *validator.Validate
	logger    *zap.Logger
}

// NewShiftService constructs the shift service.
func NewShiftService(repo shiftStore, audit scheduleAuditor, validate *validator.Validate, logger *zap.Logger) *ShiftService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShiftService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns shifts matching the filter.
func (s *ShiftService) List(ctx context.Context, filter models.ShiftFilter) ([]models.Shift, *models.Pagination, error) {
	shifts, total, err := s.repo.List(ctx, filter)
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
	return shifts, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one shift by id.
func (s *ShiftService) Get(ctx context.Context, id string) (*models.Shift, error) {
	shift, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return nil, err
	}
	return shift, nil
}

// Create defines a shift with a unique code.
func (s *ShiftService) Create(ctx context.Context, req CreateShiftRequest, actorID, ip, userAgent string) (*models.Shift, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid shift payload")
	}

	exists, err := s.repo.ExistsByCode(ctx, req.Code, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "shift code already in use")
	}

	shift := &models.Shift{
		Code:       req.Code,
		Name:       req.Name,
		ShiftType:  models.ShiftType(req.ShiftType),
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Hours:      req.Hours,
		IsOptional: req.IsOptional,
	}
	shift.IsOvernight = shift.SpansMidnight()

	if err := s.repo.Create(ctx, shift); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "shift code already in use")
		}
		return nil, err
	}

	s.recordAudit(ctx, actorID, models.AuditActionCreate, shift.ID, nil, shift, ip, userAgent)
	return shift, nil
}

// Update edits a shift definition and re-derives the overnight flag.
func (s *ShiftService) Update(ctx context.Context, id string, req UpdateShiftRequest, actorID, ip, userAgent string) (*models.Shift, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid shift payload")
	}

	shift, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByCode(ctx, req.Code, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "shift code already in use")
	}

	old := *shift
	shift.Code = req.Code
	shift.Name = req.Name
	shift.ShiftType = models.ShiftType(req.ShiftType)
	shift.StartTime = req.StartTime
	shift.EndTime = req.EndTime
	shift.Hours = req.Hours
	shift.IsOptional = req.IsOptional
	shift.IsOvernight = shift.SpansMidnight()

	if err := s.repo.Update(ctx, shift); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "shift code already in use")
		}
		return nil, err
	}

	s.recordAudit(ctx, actorID, models.AuditActionUpdate, id, &old, shift, ip, userAgent)
	return shift, nil
}

// Delete removes a shift definition.
func (s *ShiftService) Delete(ctx context.Context, id, actorID, ip, userAgent string) error {
	shift, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.recordAudit(ctx, actorID, models.AuditActionDelete, id, shift, nil, ip, userAgent)
	return nil
}

func (s *ShiftService) recordAudit(ctx context.Context, actorID, action, entityID string, old, updated interface{}, ip, userAgent string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		UserID:     actorID,
		Action:     action,
		EntityType: models.AuditEntityShift,
		EntityID:   entityID,
		OldValues:  old,
		NewValues:  updated,
		IPAddress:  ip,
		UserAgent:  userAgent,
	})
}
