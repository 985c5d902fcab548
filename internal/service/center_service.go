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

type centerStore interface {
	List(ctx context.Context, filter models.CenterFilter) ([]models.Center, int, error)
	ListActive(ctx context.Context) ([]models.Center, error)
	FindByID(ctx context.Context, id string) (*models.Center, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, center *models.Center) error
	Update(ctx context.Context, center *models.Center) error
	Deactivate(ctx context.Context, id string) error
}

// CreateCenterRequest is the payload for registering a center.
type CreateCenterRequest struct {
	Code              string   `json:"code" validate:"required,max=16"`
	Name              string   `json:"name" validate:"required"`
	NameAr            *string  `json:"name_ar"`
	AllowedShiftCodes []string `json:"allowed_shift_codes" validate:"required,min=1"`
}

// UpdateCenterRequest is the payload for editing a center.
type UpdateCenterRequest struct {
	Code              string   `json:"code" validate:"required,max=16"`
	Name              string   `json:"name" validate:"required"`
	NameAr            *string  `json:"name_ar"`
	AllowedShiftCodes []string `json:"allowed_shift_codes" validate:"required,min=1"`
	Active            *bool    `json:"active"`
}

// CenterService manages the center catalog.
type CenterService struct {
	repo      centerStore
	audit     scheduleAuditor
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCenterService constructs the center service.
func NewCenterService(repo centerStore, audit scheduleAuditor, validate *validator.Validate, logger *zap.Logger) *CenterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CenterService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns centers matching the filter.
func (s *CenterService) List(ctx context.Context, filter models.CenterFilter) ([]models.Center, *models.Pagination, error) {
	centers, total, err := s.repo.List(ctx, filter)
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
	return centers, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one center by id.
func (s *CenterService) Get(ctx context.Context, id string) (*models.Center, error) {
	center, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "center not found")
		}
		return nil, err
	}
	return center, nil
}

// Create registers a center with a unique code.
func (s *CenterService) Create(ctx context.Context, req CreateCenterRequest, actorID, ip, userAgent string) (*models.Center, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid center payload")
	}

	exists, err := s.repo.ExistsByCode(ctx, req.Code, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "center code already in use")
	}

	center := &models.Center{
		Code:              req.Code,
		Name:              req.Name,
		NameAr:            req.NameAr,
		AllowedShiftCodes: req.AllowedShiftCodes,
		Active:            true,
	}
	if err := s.repo.Create(ctx, center); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "center code already in use")
		}
		return nil, err
	}

	s.recordAudit(ctx, actorID, models.AuditActionCreate, center.ID, nil, center, ip, userAgent)
	return center, nil
}

// Update edits a center.
func (s *CenterService) Update(ctx context.Context, id string, req UpdateCenterRequest, actorID, ip, userAgent string) (*models.Center, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid center payload")
	}

	center, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByCode(ctx, req.Code, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "center code already in use")
	}

	old := *center
	center.Code = req.Code
	center.Name = req.Name
	center.NameAr = req.NameAr
	center.AllowedShiftCodes = req.AllowedShiftCodes
	if req.Active != nil {
		center.Active = *req.Active
	}

	if err := s.repo.Update(ctx, center); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "center code already in use")
		}
		return nil, err
	}

	s.recordAudit(ctx, actorID, models.AuditActionUpdate, id, &old, center, ip, userAgent)
	return center, nil
}

// Deactivate soft-deletes a center so it stops appearing in active
// catalogs while historic assignments keep their reference.
func (s *CenterService) Deactivate(ctx context.Context, id, actorID, ip, userAgent string) error {
	center, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}

	s.recordAudit(ctx, actorID, models.AuditActionDelete, id, center, nil, ip, userAgent)
	return nil
}

func (s *CenterService) recordAudit(ctx context.Context, actorID, action, entityID string, old, updated interface{}, ip, userAgent string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		UserID:     actorID,
		Action:     action,
		EntityType: models.AuditEntityCenter,
		EntityID:   entityID,
		OldValues:  old,
		NewValues:  updated,
		IPAddress:  ip,
		UserAgent:  userAgent,
	})
}
