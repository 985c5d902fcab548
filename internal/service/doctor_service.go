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

type doctorStore interface {
	List(ctx context.Context, filter models.DoctorFilter) ([]models.DoctorDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.DoctorDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.DoctorDetail, error)
	ExistsByEmployeeID(ctx context.Context, employeeID, excludeID string) (bool, error)
	Create(ctx context.Context, doctor *models.Doctor) error
	Update(ctx context.Context, doctor *models.Doctor) error
	Deactivate(ctx context.Context, id string) error
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateDoctorRequest attaches a scheduling profile to a user account.
type CreateDoctorRequest struct {
	UserID                string  `json:"user_id" validate:"required"`
	EmployeeID            *string `json:"employee_id"`
	Specialty             *string `json:"specialty"`
	CanWorkNights         bool    `json:"can_work_nights"`
	IsPediatricsCertified bool    `json:"is_pediatrics_certified"`
}

// UpdateDoctorRequest edits a doctor's scheduling profile.
type UpdateDoctorRequest struct {
	EmployeeID            *string `json:"employee_id"`
	Specialty             *string `json:"specialty"`
	CanWorkNights         bool    `json:"can_work_nights"`
	IsPediatricsCertified bool    `json:"is_pediatrics_certified"`
}

// DoctorService manages doctor scheduling profiles. Each user account
// carries at most one profile.
type DoctorService struct {
	repo      doctorStore
	users     userFinder
	audit     scheduleAuditor
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDoctorService constructs the doctor service.
func NewDoctorService(repo doctorStore, users userFinder, audit scheduleAuditor, validate *validator.Validate, logger *zap.Logger) *DoctorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DoctorService{repo: repo, users: users, audit: audit, validator: validate, logger: logger}
}

// List returns doctors matching the filter.
func (s *DoctorService) List(ctx context.Context, filter models.DoctorFilter) ([]models.DoctorDetail, *models.Pagination, error) {
	doctors, total, err := s.repo.List(ctx, filter)
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
	return doctors, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one doctor with their account context.
func (s *DoctorService) Get(ctx context.Context, id string) (*models.DoctorDetail, error) {
	doctor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
		}
		return nil, err
	}
	return doctor, nil
}

// Create attaches a doctor profile to an existing user.
func (s *DoctorService) Create(ctx context.Context, req CreateDoctorRequest, actorID, ip, userAgent string) (*models.DoctorDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid doctor payload")
	}

	if _, err := s.users.FindByID(ctx, req.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, err
	}

	if _, err := s.repo.FindByUserID(ctx, req.UserID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "user already has a doctor profile")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if req.EmployeeID != nil && *req.EmployeeID != "" {
		exists, err := s.repo.ExistsByEmployeeID(ctx, *req.EmployeeID, "")
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "employee id already in use")
		}
	}

	doctor := &models.Doctor{
		UserID:                req.UserID,
		EmployeeID:            req.EmployeeID,
		Specialty:             req.Specialty,
		CanWorkNights:         req.CanWorkNights,
		IsPediatricsCertified: req.IsPediatricsCertified,
		Active:                true,
	}
	if err := s.repo.Create(ctx, doctor); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "doctor profile already exists")
		}
		return nil, err
	}

	s.recordAudit(ctx, actorID, models.AuditActionCreate, doctor.ID, nil, doctor, ip, userAgent)
	return s.Get(ctx, doctor.ID)
}

// Update edits a doctor's profile.
func (s *DoctorService) Update(ctx context.Context, id string, req UpdateDoctorRequest, actorID, ip, userAgent string) (*models.DoctorDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid doctor payload")
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.EmployeeID != nil && *req.EmployeeID != "" {
		exists, err := s.repo.ExistsByEmployeeID(ctx, *req.EmployeeID, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "employee id already in use")
		}
	}

	old := existing.Doctor
	doctor := existing.Doctor
	doctor.EmployeeID = req.EmployeeID
	doctor.Specialty = req.Specialty
	doctor.CanWorkNights = req.CanWorkNights
	doctor.IsPediatricsCertified = req.IsPediatricsCertified

	if err := s.repo.Update(ctx, &doctor); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "employee id already in use")
		}
		return nil, err
	}

	s.recordAudit(ctx, actorID, models.AuditActionUpdate, id, &old, &doctor, ip, userAgent)
	return s.Get(ctx, id)
}

// Deactivate removes a doctor from the active roster without touching
// their historic assignments.
func (s *DoctorService) Deactivate(ctx context.Context, id, actorID, ip, userAgent string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}

	s.recordAudit(ctx, actorID, models.AuditActionDelete, id, &existing.Doctor, nil, ip, userAgent)
	return nil
}

func (s *DoctorService) recordAudit(ctx context.Context, actorID, action, entityID string, old, updated interface{}, ip, userAgent string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		UserID:     actorID,
		Action:     action,
		EntityType: models.AuditEntityDoctor,
		EntityID:   entityID,
		OldValues:  old,
		NewValues:  updated,
		IPAddress:  ip,
		UserAgent:  userAgent,
	})
}
