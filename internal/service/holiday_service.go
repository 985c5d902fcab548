package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/medora-hq/roster-api/internal/models"
	"github.com/medora-hq/roster-api/internal/repository"
	appErrors "github.com/medora-hq/roster-api/pkg/errors"
)

type holidayStore interface {
	List(ctx context.Context) ([]models.Holiday, error)
	Create(ctx context.Context, holiday *models.Holiday) error
	Delete(ctx context.Context, id string) error
}

// CreateHolidayRequest carries the payload for registering a public holiday.
type CreateHolidayRequest struct {
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Label string `json:"label" validate:"required,max=120"`
}

// HolidayService manages the public holiday calendar used by the
// fairness analyzer.
type HolidayService struct {
	holidays holidayStore
	audit    *AuditService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHolidayService constructs the holiday service.
func NewHolidayService(holidays holidayStore, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *HolidayService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HolidayService{holidays: holidays, audit: audit, validate: validate, logger: logger}
}

// List returns every stored holiday ordered by date.
func (s *HolidayService) List(ctx context.Context) ([]models.Holiday, error) {
	return s.holidays.List(ctx)
}

// Create registers a new holiday.
func (s *HolidayService) Create(ctx context.Context, req CreateHolidayRequest, actorID, ip, userAgent string) (*models.Holiday, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload")
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD format")
	}

	holiday := &models.Holiday{Date: date, Label: req.Label}
	if err := s.holidays.Create(ctx, holiday); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, fmt.Sprintf("holiday on %s already exists", req.Date))
		}
		return nil, err
	}

	if s.audit != nil {
		s.audit.Record(ctx, AuditEntry{
			UserID:     actorID,
			Action:     models.AuditActionCreate,
			EntityType: models.AuditEntityHoliday,
			EntityID:   holiday.ID,
			NewValues:  holiday,
			IPAddress:  ip,
			UserAgent:  userAgent,
		})
	}
	return holiday, nil
}

// Delete removes a holiday from the calendar.
func (s *HolidayService) Delete(ctx context.Context, id, actorID, ip, userAgent string) error {
	if err := s.holidays.Delete(ctx, id); err != nil {
		return err
	}
	if s.audit != nil {
		s.audit.Record(ctx, AuditEntry{
			UserID:     actorID,
			Action:     models.AuditActionDelete,
			EntityType: models.AuditEntityHoliday,
			EntityID:   id,
			IPAddress:  ip,
			UserAgent:  userAgent,
		})
	}
	return nil
}
