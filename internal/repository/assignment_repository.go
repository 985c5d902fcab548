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

// AssignmentRepository provides persistence for schedule assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentDetailColumns = `a.id, a.schedule_id, a.doctor_id, a.center_id, a.shift_id, a.date, a.is_pediatrics, a.created_at, a.updated_at, u.full_name AS doctor_name, d.employee_id AS employee_id, u.nationality AS nationality, c.code AS center_code, c.name AS center_name, s.code AS shift_code, s.name AS shift_name, s.hours AS shift_hours, s.is_overnight AS is_overnight`

const assignmentDetailJoin = `FROM assignments a JOIN doctors d ON d.id = a.doctor_id JOIN users u ON u.id = d.user_id JOIN centers c ON c.id = a.center_id JOIN shifts s ON s.id = a.shift_id`

// ListBySchedule returns every assignment of a schedule with full catalog
// context, ordered by (date, doctor, center) for deterministic output.
func (r *AssignmentRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.AssignmentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE a.schedule_id = $1 ORDER BY a.date ASC, a.doctor_id ASC, a.center_id ASC", assignmentDetailColumns, assignmentDetailJoin)
	var assignments []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list assignments by schedule: %w", err)
	}
	return assignments, nil
}

// List returns assignments with optional filtering and pagination.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, int, error) {
	base := assignmentDetailJoin + " WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ScheduleID != "" {
		conditions = append(conditions, fmt.Sprintf("a.schedule_id = $%d", len(args)+1))
		args = append(args, filter.ScheduleID)
	}
	if filter.DoctorID != "" {
		conditions = append(conditions, fmt.Sprintf("a.doctor_id = $%d", len(args)+1))
		args = append(args, filter.DoctorID)
	}
	if filter.CenterID != "" {
		conditions = append(conditions, fmt.Sprintf("a.center_id = $%d", len(args)+1))
		args = append(args, filter.CenterID)
	}
	if filter.ShiftID != "" {
		conditions = append(conditions, fmt.Sprintf("a.shift_id = $%d", len(args)+1))
		args = append(args, filter.ShiftID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("a.date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("a.date <= $%d", len(args)+1))
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
	if size <= 0 || size > 500 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY a.date ASC, a.doctor_id ASC, a.center_id ASC LIMIT %d OFFSET %d", assignmentDetailColumns, base, size, offset)
	var assignments []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", err)
	}

	return assignments, total, nil
}

// FindByID loads an assignment with catalog context by id.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.AssignmentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE a.id = $1 LIMIT 1", assignmentDetailColumns, assignmentDetailJoin)
	var assignment models.AssignmentDetail
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find assignment by id: %w", err)
	}
	return &assignment, nil
}

// CountForSlot counts assignments for one (center, shift, date) slot.
func (r *AssignmentRepository) CountForSlot(ctx context.Context, scheduleID, centerID, shiftID string, date time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM assignments WHERE schedule_id = $1 AND center_id = $2 AND shift_id = $3 AND date = $4`
	var count int
	if err := r.db.GetContext(ctx, &count, query, scheduleID, centerID, shiftID, date); err != nil {
		return 0, fmt.Errorf("count assignments for slot: %w", err)
	}
	return count, nil
}

// ExistsForDoctorDate reports whether the doctor already has an assignment
// on the given date within the schedule.
func (r *AssignmentRepository) ExistsForDoctorDate(ctx context.Context, scheduleID, doctorID string, date time.Time) (bool, error) {
	const query = `SELECT COUNT(*) FROM assignments WHERE schedule_id = $1 AND doctor_id = $2 AND date = $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, scheduleID, doctorID, date); err != nil {
		return false, fmt.Errorf("check assignment for doctor and date: %w", err)
	}
	return count > 0, nil
}

// Create stores a single assignment. A concurrent duplicate for the same
// (schedule, doctor, date) surfaces as a unique violation.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now

	const query = `INSERT INTO assignments (id, schedule_id, doctor_id, center_id, shift_id, date, is_pediatrics, created_at, updated_at) VALUES (:id, :schedule_id, :doctor_id, :center_id, :shift_id, :date, :is_pediatrics, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Update modifies an assignment's slot fields.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assignments SET doctor_id = :doctor_id, center_id = :center_id, shift_id = :shift_id, date = :date, is_pediatrics = :is_pediatrics, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return nil
}

// Delete removes an assignment by id.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}

// BulkReplace atomically applies an auto-build run: optionally clears the
// schedule's assignments, then inserts the produced set, all in one
// transaction so a cancelled build leaves no partial state.
func (r *AssignmentRepository) BulkReplace(ctx context.Context, scheduleID string, clearExisting bool, assignments []models.Assignment) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk replace assignments: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if clearExisting {
		if _, err = tx.ExecContext(ctx, `DELETE FROM assignments WHERE schedule_id = $1`, scheduleID); err != nil {
			return fmt.Errorf("clear schedule assignments: %w", err)
		}
	}

	if err = r.bulkInsertAssignments(ctx, tx, assignments); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk replace assignments: %w", err)
	}
	return nil
}

// BulkCreateWithTx inserts assignments using an existing transaction.
func (r *AssignmentRepository) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, assignments []models.Assignment) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	return r.bulkInsertAssignments(ctx, tx, assignments)
}

func (r *AssignmentRepository) bulkInsertAssignments(ctx context.Context, exec sqlx.ExtContext, assignments []models.Assignment) error {
	now := time.Now().UTC()
	for i := range assignments {
		payload := assignments[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		payload.UpdatedAt = now

		if _, err := sqlx.NamedExecContext(ctx, exec, `INSERT INTO assignments (id, schedule_id, doctor_id, center_id, shift_id, date, is_pediatrics, created_at, updated_at) VALUES (:id, :schedule_id, :doctor_id, :center_id, :shift_id, :date, :is_pediatrics, :created_at, :updated_at)`, &payload); err != nil {
			return fmt.Errorf("bulk insert assignment: %w", err)
		}
		assignments[i] = payload
	}
	return nil
}

// DeleteBySchedule removes every assignment of a schedule.
func (r *AssignmentRepository) DeleteBySchedule(ctx context.Context, scheduleID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE schedule_id = $1`, scheduleID); err != nil {
		return fmt.Errorf("delete assignments by schedule: %w", err)
	}
	return nil
}
