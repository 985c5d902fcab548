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

// CenterRepository provides persistence for clinical centers.
type CenterRepository struct {
	db *sqlx.DB
}

// NewCenterRepository creates a new center repository.
func NewCenterRepository(db *sqlx.DB) *CenterRepository {
	return &CenterRepository{db: db}
}

const centerColumns = `id, code, name, name_ar, allowed_shift_codes, active, created_at, updated_at`

// List returns centers with optional filtering and pagination.
func (r *CenterRepository) List(ctx context.Context, filter models.CenterFilter) ([]models.Center, int, error) {
	base := "FROM centers WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(code) LIKE $%d OR LOWER(name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"code": true, "name": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "code"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", centerColumns, base, sortBy, order, size, offset)
	var centers []models.Center
	if err := r.db.SelectContext(ctx, &centers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list centers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count centers: %w", err)
	}

	return centers, total, nil
}

// ListActive returns every active center ordered by code.
func (r *CenterRepository) ListActive(ctx context.Context) ([]models.Center, error) {
	query := fmt.Sprintf("SELECT %s FROM centers WHERE active = TRUE ORDER BY code ASC", centerColumns)
	var centers []models.Center
	if err := r.db.SelectContext(ctx, &centers, query); err != nil {
		return nil, fmt.Errorf("list active centers: %w", err)
	}
	return centers, nil
}

// FindByID loads a center by id.
func (r *CenterRepository) FindByID(ctx context.Context, id string) (*models.Center, error) {
	query := fmt.Sprintf("SELECT %s FROM centers WHERE id = $1 LIMIT 1", centerColumns)
	var center models.Center
	if err := r.db.GetContext(ctx, &center, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find center by id: %w", err)
	}
	return &center, nil
}

// ExistsByCode reports whether a center code is taken, optionally ignoring
// one center id.
func (r *CenterRepository) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	query := `SELECT COUNT(*) FROM centers WHERE LOWER(code) = LOWER($1)`
	args := []interface{}{code}
	if excludeID != "" {
		query += ` AND id <> $2`
		args = append(args, excludeID)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("check center code: %w", err)
	}
	return count > 0, nil
}

// Create stores a new center record.
func (r *CenterRepository) Create(ctx context.Context, center *models.Center) error {
	if center.ID == "" {
		center.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if center.CreatedAt.IsZero() {
		center.CreatedAt = now
	}
	center.UpdatedAt = now

	const query = `INSERT INTO centers (id, code, name, name_ar, allowed_shift_codes, active, created_at, updated_at) VALUES (:id, :code, :name, :name_ar, :allowed_shift_codes, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, center); err != nil {
		return fmt.Errorf("create center: %w", err)
	}
	return nil
}

// Update modifies a center record.
func (r *CenterRepository) Update(ctx context.Context, center *models.Center) error {
	center.UpdatedAt = time.Now().UTC()
	const query = `UPDATE centers SET code = :code, name = :name, name_ar = :name_ar, allowed_shift_codes = :allowed_shift_codes, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, center); err != nil {
		return fmt.Errorf("update center: %w", err)
	}
	return nil
}

// Deactivate performs a soft delete by marking the center inactive.
func (r *CenterRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE centers SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate center: %w", err)
	}
	return nil
}
