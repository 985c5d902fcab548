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

// LeaveRepository provides persistence for leave requests.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository creates a new leave repository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

const leaveDetailColumns = `l.id, l.doctor_id, l.leave_type, l.start_date, l.end_date, l.status, l.reason, l.reviewed_by, l.reviewed_at, l.review_notes, l.created_at, l.updated_at, u.full_name AS doctor_name`

const leaveDetailJoin = `FROM leaves l JOIN doctors d ON d.id = l.doctor_id JOIN users u ON u.id = d.user_id`

// List returns leaves with doctor context.
func (r *LeaveRepository) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveDetail, int, error) {
	base := leaveDetailJoin + " WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.DoctorID != "" {
		conditions = append(conditions, fmt.Sprintf("l.doctor_id = $%d", len(args)+1))
		args = append(args, filter.DoctorID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("l.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.LeaveType != nil {
		conditions = append(conditions, fmt.Sprintf("l.leave_type = $%d", len(args)+1))
		args = append(args, *filter.LeaveType)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("l.end_date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("l.start_date <= $%d", len(args)+1))
		args = append(args, *filter.To)
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
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY l.start_date DESC, l.id ASC LIMIT %d OFFSET %d", leaveDetailColumns, base, size, offset)
	var leaves []models.LeaveDetail
	if err := r.db.SelectContext(ctx, &leaves, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list leaves: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count leaves: %w", err)
	}

	return leaves, total, nil
}

// ListApprovedOverlapping returns approved leaves whose inclusive range
// intersects [from, to]. Used by the validator and the builder.
func (r *LeaveRepository) ListApprovedOverlapping(ctx context.Context, from, to time.Time) ([]models.Leave, error) {
	const query = `SELECT id, doctor_id, leave_type, start_date, end_date, status, reason, reviewed_by, reviewed_at, review_notes, created_at, updated_at FROM leaves WHERE status = 'approved' AND start_date <= $2 AND end_date >= $1 ORDER BY doctor_id ASC, start_date ASC`
	var leaves []models.Leave
	if err := r.db.SelectContext(ctx, &leaves, query, from, to); err != nil {
		return nil, fmt.Errorf("list approved leaves: %w", err)
	}
	return leaves, nil
}

// FindByID loads a leave with doctor context by id.
func (r *LeaveRepository) FindByID(ctx context.Context, id string) (*models.LeaveDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE l.id = $1 LIMIT 1", leaveDetailColumns, leaveDetailJoin)
	var leave models.LeaveDetail
	if err := r.db.GetContext(ctx, &leave, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find leave by id: %w", err)
	}
	return &leave, nil
}

// Create stores a new leave request.
func (r *LeaveRepository) Create(ctx context.Context, leave *models.Leave) error {
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if leave.CreatedAt.IsZero() {
		leave.CreatedAt = now
	}
	leave.UpdatedAt = now

	const query = `INSERT INTO leaves (id, doctor_id, leave_type, start_date, end_date, status, reason, reviewed_by, reviewed_at, review_notes, created_at, updated_at) VALUES (:id, :doctor_id, :leave_type, :start_date, :end_date, :status, :reason, :reviewed_by, :reviewed_at, :review_notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, leave); err != nil {
		return fmt.Errorf("create leave: %w", err)
	}
	return nil
}

// Update modifies a leave request, including review fields.
func (r *LeaveRepository) Update(ctx context.Context, leave *models.Leave) error {
	leave.UpdatedAt = time.Now().UTC()
	const query = `UPDATE leaves SET leave_type = :leave_type, start_date = :start_date, end_date = :end_date, status = :status, reason = :reason, reviewed_by = :reviewed_by, reviewed_at = :reviewed_at, review_notes = :review_notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, leave); err != nil {
		return fmt.Errorf("update leave: %w", err)
	}
	return nil
}

// Delete removes a leave by id.
func (r *LeaveRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM leaves WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete leave: %w", err)
	}
	return nil
}
