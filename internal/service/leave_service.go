package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/medora-hq/roster-api/internal/models"
	appErrors "github.com/medora-hq/roster-api/pkg/errors"
)

type leaveStore interface {
	List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.LeaveDetail, error)
	Create(ctx context.Context, leave *models.Leave) error
	Update(ctx context.Context, leave *models.Leave) error
	Delete(ctx context.Context, id string) error
}

// CreateLeaveRequest is the payload for requesting a leave.
type CreateLeaveRequest struct {
	DoctorID  string  `json:"doctor_id" validate:"required"`
	LeaveType string  `json:"leave_type" validate:"required,oneof=annual emergency sick request_off"`
	StartDate string  `json:"start_date" validate:"required"`
	EndDate   string  `json:"end_date" validate:"required"`
	Reason    *string `json:"reason"`
}

// ReviewLeaveRequest resolves a pending leave request.
type ReviewLeaveRequest struct {
	Status string  `json:"status" validate:"required,oneof=approved denied"`
	Notes  *string `json:"notes"`
}

// LeaveService manages leave requests and their review lifecycle. Only
// approved leaves affect scheduling.
type LeaveService struct {
	repo      leaveStore
	doctors   doctorFinder
	audit     scheduleAuditor
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLeaveService constructs the leave service.
func NewLeaveService(repo leaveStore, doctors doctorFinder, audit scheduleAuditor, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaveService{repo: repo, doctors: doctors, audit: audit, validator: validate, logger: logger}
}

// List returns leave requests matching the filter.
func (s *LeaveService) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveDetail, *models.Pagination, error) {
	leaves, total, err := s.repo.List(ctx, filter)
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
	return leaves, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one leave request.
func (s *LeaveService) Get(ctx context.Context, id string) (*models.LeaveDetail, error) {
	leave, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave request not found")
		}
		return nil, err
	}
	return leave, nil
}

// Create files a pending leave request over an inclusive date range.
func (s *LeaveService) Create(ctx context.Context, req CreateLeaveRequest, actorID, ip, userAgent string) (*models.LeaveDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}

	if _, err := s.doctors.FindByID(ctx, req.DoctorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
		}
		return nil, err
	}

	start, err := time.ParseInLocation(models.DateOnly, req.StartDate, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be in YYYY-MM-DD format")
	}
	end, err := time.ParseInLocation(models.DateOnly, req.EndDate, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be in YYYY-MM-DD format")
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not be before start_date")
	}

	leave := &models.Leave{
		DoctorID:  req.DoctorID,
		LeaveType: models.LeaveType(req.LeaveType),
		StartDate: start,
		EndDate:   end,
		Status:    models.LeaveStatusPending,
		Reason:    req.Reason,
	}
	if err := s.repo.Create(ctx, leave); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actorID, models.AuditActionCreate, leave.ID, nil, leave, ip, userAgent)
	return s.Get(ctx, leave.ID)
}

// Review approves or denies a pending leave request.
func (s *LeaveService) Review(ctx context.Context, id string, req ReviewLeaveRequest, reviewerID, ip, userAgent string) (*models.LeaveDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != models.LeaveStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidStatus, "only pending leave requests can be reviewed")
	}

	now := time.Now().UTC()
	old := existing.Leave
	leave := existing.Leave
	leave.Status = models.LeaveStatus(req.Status)
	leave.ReviewedBy = &reviewerID
	leave.ReviewedAt = &now
	leave.ReviewNotes = req.Notes

	if err := s.repo.Update(ctx, &leave); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, reviewerID, models.AuditActionUpdate, id, &old, &leave, ip, userAgent)
	s.logger.Info("leave reviewed",
		zap.String("leave_id", id),
		zap.String("status", req.Status),
		zap.String("reviewer", reviewerID))
	return s.Get(ctx, id)
}

// Cancel withdraws a pending or approved leave request.
func (s *LeaveService) Cancel(ctx context.Context, id, actorID, ip, userAgent string) (*models.LeaveDetail, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != models.LeaveStatusPending && existing.Status != models.LeaveStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidStatus, "only pending or approved leave requests can be cancelled")
	}

	old := existing.Leave
	leave := existing.Leave
	leave.Status = models.LeaveStatusCancelled

	if err := s.repo.Update(ctx, &leave); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actorID, models.AuditActionUpdate, id, &old, &leave, ip, userAgent)
	return s.Get(ctx, id)
}

// Delete removes a leave request entirely.
func (s *LeaveService) Delete(ctx context.Context, id, actorID, ip, userAgent string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.recordAudit(ctx, actorID, models.AuditActionDelete, id, &existing.Leave, nil, ip, userAgent)
	return nil
}

func (s *LeaveService) recordAudit(ctx context.Context, actorID, action, entityID string, old, updated interface{}, ip, userAgent string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		UserID:     actorID,
		Action:     action,
		EntityType: models.AuditEntityLeave,
		EntityID:   entityID,
		OldValues:  old,
		NewValues:  updated,
		IPAddress:  ip,
		UserAgent:  userAgent,
	})
}
