package models

import "time"

// LeaveType categorises a leave request.
type LeaveType string

const (
	LeaveTypeAnnual     LeaveType = "annual"
	LeaveTypeEmergency  LeaveType = "emergency"
	LeaveTypeSick       LeaveType = "sick"
	LeaveTypeRequestOff LeaveType = "request_off"
)

// LeaveStatus tracks the review lifecycle of a leave request. Only
// approved leaves gate assignment.
type LeaveStatus string

const (
	LeaveStatusPending   LeaveStatus = "pending"
	LeaveStatusApproved  LeaveStatus = "approved"
	LeaveStatusDenied    LeaveStatus = "denied"
	LeaveStatusCancelled LeaveStatus = "cancelled"
)

// Leave represents a doctor's absence over an inclusive date range.
type Leave struct {
	ID           string      `db:"id" json:"id"`
	DoctorID     string      `db:"doctor_id" json:"doctor_id"`
	LeaveType    LeaveType   `db:"leave_type" json:"leave_type"`
	StartDate    time.Time   `db:"start_date" json:"start_date"`
	EndDate      time.Time   `db:"end_date" json:"end_date"`
	Status       LeaveStatus `db:"status" json:"status"`
	Reason       *string     `db:"reason" json:"reason,omitempty"`
	ReviewedBy   *string     `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time  `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewNotes  *string     `db:"review_notes" json:"review_notes,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// Covers reports whether the leave spans the given date, inclusive on
// both ends. Comparison is at calendar-day granularity.
func (l *Leave) Covers(date time.Time) bool {
	day := date.Truncate(24 * time.Hour)
	return !day.Before(l.StartDate.Truncate(24*time.Hour)) && !day.After(l.EndDate.Truncate(24*time.Hour))
}

// LeaveDetail includes the doctor's display name for responses.
type LeaveDetail struct {
	Leave
	DoctorName string `db:"doctor_name" json:"doctor_name"`
}

// LeaveFilter defines filter criteria for listing leaves.
type LeaveFilter struct {
	DoctorID  string
	Status    *LeaveStatus
	LeaveType *LeaveType
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}
