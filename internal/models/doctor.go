package models

import "time"

// Doctor is the scheduling profile attached to a user account.
type Doctor struct {
	ID                    string    `db:"id" json:"id"`
	UserID                string    `db:"user_id" json:"user_id"`
	EmployeeID            *string   `db:"employee_id" json:"employee_id,omitempty"`
	Specialty             *string   `db:"specialty" json:"specialty,omitempty"`
	CanWorkNights         bool      `db:"can_work_nights" json:"can_work_nights"`
	IsPediatricsCertified bool      `db:"is_pediatrics_certified" json:"is_pediatrics_certified"`
	Active                bool      `db:"active" json:"active"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

// DoctorDetail joins the doctor profile with its user account fields the
// engines and exports need.
type DoctorDetail struct {
	Doctor
	FullName    string      `db:"full_name" json:"full_name"`
	Email       string      `db:"email" json:"email"`
	Nationality Nationality `db:"nationality" json:"nationality"`
}

// HoursCap returns the doctor's monthly hour ceiling.
func (d *DoctorDetail) HoursCap() int {
	return d.Nationality.HoursCap()
}

// DoctorFilter defines filter criteria for listing doctors.
type DoctorFilter struct {
	Active        *bool
	CanWorkNights *bool
	Search        string
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
