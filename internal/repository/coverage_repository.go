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

// CoverageRepository provides persistence for coverage templates.
type CoverageRepository struct {
	db *sqlx.DB
}

// NewCoverageRepository creates a new coverage template repository.
func NewCoverageRepository(db *sqlx.DB) *CoverageRepository {
	return &CoverageRepository{db: db}
}

const coverageDetailColumns = `t.id, t.center_id, t.shift_id, t.min_doctors, t.mandatory, t.created_at, t.updated_at, c.code AS center_code, c.name AS center_name, s.code AS shift_code, s.name AS shift_name, s.hours AS shift_hours, s.is_overnight AS is_overnight`

const coverageDetailJoin = `FROM coverage_templates t JOIN centers c ON c.id = t.center_id JOIN shifts s ON s.id = t.shift_id`

// List returns coverage templates with catalog context.
func (r *CoverageRepository) List(ctx context.Context, filter models.CoverageTemplateFilter) ([]models.CoverageTemplateDetail, int, error) {
	base := coverageDetailJoin + " WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CenterID != "" {
		conditions = append(conditions, fmt.Sprintf("t.center_id = $%d", len(args)+1))
		args = append(args, filter.CenterID)
	}
	if filter.ShiftID != "" {
		conditions = append(conditions, fmt.Sprintf("t.shift_id = $%d", len(args)+1))
		args = append(args, filter.ShiftID)
	}
	if filter.Mandatory != nil {
		conditions = append(conditions, fmt.Sprintf("t.mandatory = $%d", len(args)+1))
		args = append(args, *filter.Mandatory)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY c.code ASC, s.code ASC LIMIT %d OFFSET %d", coverageDetailColumns, base, size, offset)
	var templates []models.CoverageTemplateDetail
	if err := r.db.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list coverage templates: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count coverage templates: %w", err)
	}

	return templates, total, nil
}

// ListMandatory returns every mandatory template with catalog context,
// ordered by center then shift code. Builder iteration order depends on it.
func (r *CoverageRepository) ListMandatory(ctx context.Context) ([]models.CoverageTemplateDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE t.mandatory = TRUE ORDER BY c.code ASC, s.code ASC", coverageDetailColumns, coverageDetailJoin)
	var templates []models.CoverageTemplateDetail
	if err := r.db.SelectContext(ctx, &templates, query); err != nil {
		return nil, fmt.Errorf("list mandatory coverage templates: %w", err)
	}
	return templates, nil
}

// FindByID loads a coverage template with catalog context by id.
func (r *CoverageRepository) FindByID(ctx context.Context, id string) (*models.CoverageTemplateDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE t.id = $1 LIMIT 1", coverageDetailColumns, coverageDetailJoin)
	var tpl models.CoverageTemplateDetail
	if err := r.db.GetContext(ctx, &tpl, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find coverage template by id: %w", err)
	}
	return &tpl, nil
}

// ExistsForCenterShift reports whether a template for the (center, shift)
// pair already exists, optionally ignoring one template id.
func (r *CoverageRepository) ExistsForCenterShift(ctx context.Context, centerID, shiftID, excludeID string) (bool, error) {
	query := `SELECT COUNT(*) FROM coverage_templates WHERE center_id = $1 AND shift_id = $2`
	args := []interface{}{centerID, shiftID}
	if excludeID != "" {
		query += ` AND id <> $3`
		args = append(args, excludeID)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("check coverage template uniqueness: %w", err)
	}
	return count > 0, nil
}

// Create stores a new coverage template.
func (r *CoverageRepository) Create(ctx context.Context, tpl *models.CoverageTemplate) error {
	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = now
	}
	tpl.UpdatedAt = now

	const query = `INSERT INTO coverage_templates (id, center_id, shift_id, min_doctors, mandatory, created_at, updated_at) VALUES (:id, :center_id, :shift_id, :min_doctors, :mandatory, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tpl); err != nil {
		return fmt.Errorf("create coverage template: %w", err)
	}
	return nil
}

// Update modifies a coverage template.
func (r *CoverageRepository) Update(ctx context.Context, tpl *models.CoverageTemplate) error {
	tpl.UpdatedAt = time.Now().UTC()
	const query = `UPDATE coverage_templates SET min_doctors = :min_doctors, mandatory = :mandatory, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, tpl); err != nil {
		return fmt.Errorf("update coverage template: %w", err)
	}
	return nil
}

// Delete removes a coverage template by id.
func (r *CoverageRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM coverage_templates WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete coverage template: %w", err)
	}
	return nil
}
