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

type coverageStore interface {
	List(ctx context.Context, filter models.CoverageTemplateFilter) ([]models.CoverageTemplateDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.CoverageTemplateDetail, error)
	ExistsForCenterShift(ctx context.Context, centerID, shiftID, excludeID string) (bool, error)
	Create(ctx context.Context, tpl *models.CoverageTemplate) error
	Update(ctx context.Context, tpl *models.CoverageTemplate) error
	Delete(ctx context.Context, id string) error
}

// CreateCoverageRequest is the payload for a staffing requirement.
type CreateCoverageRequest struct {
	CenterID   string `json:"center_id" validate:"required"`
	ShiftID    string `json:"shift_id" validate:"required"`
	MinDoctors int    `json:"min_doctors" validate:"required,min=1"`
	Mandatory  bool   `json:"mandatory"`
}

// UpdateCoverageRequest is the payload for editing a staffing
// requirement.
type UpdateCoverageRequest struct {
	MinDoctors int  `json:"min_doctors" validate:"required,min=1"`
	Mandatory  bool `json:"mandatory"`
}

// CoverageService manages the per-(center, shift) staffing minimums the
// builder and validator enforce. A template may pair a shift the center
// does not allow; the engines treat such slots as unfillable.
type CoverageService struct {
	repo      coverageStore
	centers   centerReader
	shifts    shiftFinder
	audit     scheduleAuditor
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCoverageService constructs the coverage template service.
func NewCoverageService(repo coverageStore, centers centerReader, shifts shiftFinder, audit scheduleAuditor, validate *validator.Validate, logger *zap.Logger) *CoverageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoverageService{repo: repo, centers: centers, shifts: shifts, audit: audit, validator: validate, logger: logger}
}

// List returns coverage templates matching the filter.
func (s *CoverageService) List(ctx context.Context, filter models.CoverageTemplateFilter) ([]models.CoverageTemplateDetail, *models.Pagination, error) {
	templates, total, err := s.repo.List(ctx, filter)
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
	return templates, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one coverage template with its catalog context.
func (s *CoverageService) Get(ctx context.Context, id string) (*models.CoverageTemplateDetail, error) {
	tpl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "coverage template not found")
		}
		return nil, err
	}
	return tpl, nil
}

// Create registers a staffing requirement for one (center, shift) pair.
func (s *CoverageService) Create(ctx context.Context, req CreateCoverageRequest, actorID, ip, userAgent string) (*models.CoverageTemplateDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid coverage payload")
	}

	if _, err := s.centers.FindByID(ctx, req.CenterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "center not found")
		}
		return nil, err
	}
	if _, err := s.shifts.FindByID(ctx, req.ShiftID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return nil, err
	}

	exists, err := s.repo.ExistsForCenterShift(ctx, req.CenterID, req.ShiftID, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "coverage template for this center and shift already exists")
	}

	tpl := &models.CoverageTemplate{
		CenterID:   req.CenterID,
		ShiftID:    req.ShiftID,
		MinDoctors: req.MinDoctors,
		Mandatory:  req.Mandatory,
	}
	if err := s.repo.Create(ctx, tpl); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "coverage template for this center and shift already exists")
		}
		return nil, err
	}

	s.recordAudit(ctx, actorID, models.AuditActionCreate, tpl.ID, nil, tpl, ip, userAgent)
	return s.Get(ctx, tpl.ID)
}

// Update edits the staffing numbers of a template. The (center, shift)
// pair is immutable; delete and recreate to re-pair.
func (s *CoverageService) Update(ctx context.Context, id string, req UpdateCoverageRequest, actorID, ip, userAgent string) (*models.CoverageTemplateDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid coverage payload")
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	old := existing.CoverageTemplate
	tpl := existing.CoverageTemplate
	tpl.MinDoctors = req.MinDoctors
	tpl.Mandatory = req.Mandatory

	if err := s.repo.Update(ctx, &tpl); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actorID, models.AuditActionUpdate, id, &old, &tpl, ip, userAgent)
	return s.Get(ctx, id)
}

// Delete removes a staffing requirement.
func (s *CoverageService) Delete(ctx context.Context, id, actorID, ip, userAgent string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.recordAudit(ctx, actorID, models.AuditActionDelete, id, &existing.CoverageTemplate, nil, ip, userAgent)
	return nil
}

func (s *CoverageService) recordAudit(ctx context.Context, actorID, action, entityID string, old, updated interface{}, ip, userAgent string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		UserID:     actorID,
		Action:     action,
		EntityType: models.AuditEntityCoverage,
		EntityID:   entityID,
		OldValues:  old,
		NewValues:  updated,
		IPAddress:  ip,
		UserAgent:  userAgent,
	})
}
