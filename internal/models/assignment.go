package models

import "time"

// DateOnly is the wire and storage format for assignment dates.
const DateOnly = "2006-01-02"

// Assignment commits one doctor to one shift at one center on one date.
// Unique on (schedule_id, doctor_id, date).
type Assignment struct {
	ID           string    `db:"id" json:"id"`
	ScheduleID   string    `db:"schedule_id" json:"schedule_id"`
	DoctorID     string    `db:"doctor_id" json:"doctor_id"`
	CenterID     string    `db:"center_id" json:"center_id"`
	ShiftID      string    `db:"shift_id" json:"shift_id"`
	Date         time.Time `db:"date" json:"date"`
	IsPediatrics bool      `db:"is_pediatrics" json:"is_pediatrics"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// AssignmentDetail joins an assignment with the catalog fields the
// validator, reports, and exports need.
type AssignmentDetail struct {
	Assignment
	DoctorName  string      `db:"doctor_name" json:"doctor_name"`
	EmployeeID  *string     `db:"employee_id" json:"employee_id,omitempty"`
	Nationality Nationality `db:"nationality" json:"nationality"`
	CenterCode  string      `db:"center_code" json:"center_code"`
	CenterName  string      `db:"center_name" json:"center_name"`
	ShiftCode   string      `db:"shift_code" json:"shift_code"`
	ShiftName   string      `db:"shift_name" json:"shift_name"`
	ShiftHours  int         `db:"shift_hours" json:"shift_hours"`
	IsOvernight bool        `db:"is_overnight" json:"is_overnight"`
}

// AssignmentFilter defines filter criteria for listing assignments.
type AssignmentFilter struct {
	ScheduleID string
	DoctorID   string
	CenterID   string
	ShiftID    string
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}
