package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medora-hq/roster-api/internal/models"
)

// DoctorRepository provides persistence for doctor profiles.
type DoctorRepository struct {
	db *sqlx.DB
}

// NewDoctorRepository creates a new doctor repository.
func NewDoctorRepository(db *sqlx.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

const doctorDetailColumns = `d.id, d.user_id, d.employee_id, d.specialty, d.can_work_nights, d.is_pediatrics_certified, d.active, d.created_at, d.updated_at, u.full_name AS full_name, u.email AS email, u.nationality AS nationality`

// List returns doctors joined with their user accounts.
func (r *DoctorRepository) List(ctx context.Context, filter models.DoctorFilter) ([]models.DoctorDetail, int, error) {
	base := "FROM doctors d JOIN users u ON u.id = d.user_id WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("d.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.CanWorkNights != nil {
		conditions = append(conditions, fmt.Sprintf("d.can_work_nights = $%d", len(args)+1))
		args = append(args, *filter.CanWorkNights)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.full_name) LIKE $%d OR LOWER(d.employee_id) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"full_name":   "u.full_name",
		"employee_id": "d.employee_id",
		"created_at":  "d.created_at",
	}
	sortCol, ok := allowedSorts[sortBy]
	if !ok {
		sortCol = "d.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", doctorDetailColumns, base, sortCol, order, size, offset)
	var doctors []models.DoctorDetail
	if err := r.db.SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list doctors: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count doctors: %w", err)
	}

	return doctors, total, nil
}

// ListActive returns every active doctor with user context, in stable
// catalog order. The builder's tie-breaking depends on this ordering.
func (r *DoctorRepository) ListActive(ctx context.Context) ([]models.DoctorDetail, error) {
	query := fmt.Sprintf("SELECT %s FROM doctors d JOIN users u ON u.id = d.user_id WHERE d.active = TRUE AND u.active = TRUE ORDER BY d.created_at ASC, d.id ASC", doctorDetailColumns)
	var doctors []models.DoctorDetail
	if err := r.db.SelectContext(ctx, &doctors, query); err != nil {
		return nil, fmt.Errorf("list active doctors: %w", err)
	}
	return doctors, nil
}

// FindByID loads a doctor with user context by id.
func (r *DoctorRepository) FindByID(ctx context.Context, id string) (*models.DoctorDetail, error) {
	query := fmt.Sprintf("SELECT %s FROM doctors d JOIN users u ON u.id = d.user_id WHERE d.id = $1 LIMIT 1", doctorDetailColumns)
	var doctor models.DoctorDetail
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find doctor by id: %w", err)
	}
	return &doctor, nil
}

// FindByUserID loads a doctor profile by owning user id.
func (r *DoctorRepository) FindByUserID(ctx context.Context, userID string) (*models.DoctorDetail, error) {
	query := fmt.Sprintf("SELECT %s FROM doctors d JOIN users u ON u.id = d.user_id WHERE d.user_id = $1 LIMIT 1", doctorDetailColumns)
	var doctor models.DoctorDetail
	if err := r.db.GetContext(ctx, &doctor, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find doctor by user id: %w", err)
	}
	return &doctor, nil
}

// ExistsByEmployeeID reports whether an employee id is taken, optionally
// ignoring one doctor id.
func (r *DoctorRepository) ExistsByEmployeeID(ctx context.Context, employeeID, excludeID string) (bool, error) {
	query := `SELECT COUNT(*) FROM doctors WHERE employee_id = $1`
	args := []interface{}{employeeID}
	if excludeID != "" {
		query += ` AND id <> $2`
		args = append(args, excludeID)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("check employee id: %w", err)
	}
	return count > 0, nil
}

// Create stores a new doctor profile.
func (r *DoctorRepository) Create(ctx context.Context, doctor *models.Doctor) error {
	if doctor.ID == "" {
		doctor.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if doctor.CreatedAt.IsZero() {
		doctor.CreatedAt = now
	}
	doctor.UpdatedAt = now

	const query = `INSERT INTO doctors (id, user_id, employee_id, specialty, can_work_nights, is_pediatrics_certified, active, created_at, updated_at) VALUES (:id, :user_id, :employee_id, :specialty, :can_work_nights, :is_pediatrics_certified, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doctor); err != nil {
		return fmt.Errorf("create doctor: %w", err)
	}
	return nil
}

// Update modifies a doctor profile.
func (r *DoctorRepository) Update(ctx context.Context, doctor *models.Doctor) error {
	doctor.UpdatedAt = time.Now().UTC()
	const query = `UPDATE doctors SET employee_id = :employee_id, specialty = :specialty, can_work_nights = :can_work_nights, is_pediatrics_certified = :is_pediatrics_certified, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, doctor); err != nil {
		return fmt.Errorf("update doctor: %w", err)
	}
	return nil
}

// Deactivate performs a soft delete by marking the doctor inactive.
func (r *DoctorRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE doctors SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate doctor: %w", err)
	}
	return nil
}
