package models

import "time"

// ViolationSeverity grades how strongly a violation blocks publishing.
// Only errors gate ValidationResult.Valid.
type ViolationSeverity string

const (
	SeverityError   ViolationSeverity = "error"
	SeverityWarning ViolationSeverity = "warning"
	SeverityInfo    ViolationSeverity = "info"
)

// Violation kinds emitted by the constraint validator.
const (
	ViolationMonthlyHoursExceeded  = "monthly_hours_exceeded"
	ViolationConsecutiveNights     = "consecutive_nights"
	ViolationInsufficientCoverage  = "insufficient_coverage"
	ViolationLeaveConflict         = "leave_conflict"
	ViolationDoubleBooking         = "double_booking"
	ViolationInvalidShiftForCenter = "invalid_shift_for_center"
	// Declared in the taxonomy but not currently emitted.
	ViolationRestPeriod = "rest_period_violation"
)

// Violation is a typed, scoped record emitted by the validator.
type Violation struct {
	Kind     string                 `json:"kind"`
	Severity ViolationSeverity      `json:"severity"`
	Message  string                 `json:"message"`
	DoctorID *string                `json:"doctor_id,omitempty"`
	CenterID *string                `json:"center_id,omitempty"`
	ShiftID  *string                `json:"shift_id,omitempty"`
	Date     *time.Time             `json:"date,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// ValidationResult aggregates the violations found for a schedule or a
// candidate assignment.
type ValidationResult struct {
	Violations   []Violation `json:"violations"`
	ErrorCount   int         `json:"error_count"`
	WarningCount int         `json:"warning_count"`
	InfoCount    int         `json:"info_count"`
	Valid        bool        `json:"valid"`
}

// Add appends a violation and updates the severity counters.
func (r *ValidationResult) Add(v Violation) {
	r.Violations = append(r.Violations, v)
	switch v.Severity {
	case SeverityError:
		r.ErrorCount++
	case SeverityWarning:
		r.WarningCount++
	case SeverityInfo:
		r.InfoCount++
	}
	r.Valid = r.ErrorCount == 0
}

// CandidateRequest identifies a prospective assignment to validate.
type CandidateRequest struct {
	DoctorID string `json:"doctor_id" validate:"required"`
	CenterID string `json:"center_id" validate:"required"`
	ShiftID  string `json:"shift_id" validate:"required"`
	Date     string `json:"date" validate:"required"`
}

// BuildRequest parameterises an auto-build run.
type BuildRequest struct {
	ClearExisting bool `json:"clear_existing"`
}

// BuildResult summarises one auto-build run. Success is true iff every
// mandatory slot in the month was filled.
type BuildResult struct {
	Success            bool     `json:"success"`
	AssignmentsCreated int      `json:"assignments_created"`
	SlotsUnfilled      int      `json:"slots_unfilled"`
	Warnings           []string `json:"warnings"`
}
