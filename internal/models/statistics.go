package models

import "time"

// DoctorStatistics aggregates one doctor's load within a schedule.
type DoctorStatistics struct {
	DoctorID       string         `json:"doctor_id"`
	DoctorName     string         `json:"doctor_name"`
	EmployeeID     string         `json:"employee_id"`
	Nationality    Nationality    `json:"nationality"`
	TotalHours     int            `json:"total_hours"`
	MaxHours       int            `json:"max_hours"`
	HoursPercent   float64        `json:"hours_percent"`
	Assignments    int            `json:"assignments"`
	NightShifts    int            `json:"night_shifts"`
	ShiftBreakdown map[string]int `json:"shift_breakdown"`
	OverLimit      bool           `json:"over_limit"`
}

// CoverageGap identifies an understaffed (center, shift, date) slot.
type CoverageGap struct {
	CenterID   string    `json:"center_id"`
	CenterCode string    `json:"center_code"`
	ShiftID    string    `json:"shift_id"`
	ShiftCode  string    `json:"shift_code"`
	Date       time.Time `json:"date"`
	Required   int       `json:"required"`
	Assigned   int       `json:"assigned"`
}

// StatisticsSummary carries the schedule-wide aggregates.
type StatisticsSummary struct {
	TotalAssignments       int     `json:"total_assignments"`
	TotalHours             int     `json:"total_hours"`
	DaysInMonth            int     `json:"days_in_month"`
	TotalDoctors           int     `json:"total_doctors"`
	DoctorsWithAssignments int     `json:"doctors_with_assignments"`
	AverageHours           float64 `json:"average_hours"`
	DoctorsOverCap         int     `json:"doctors_over_cap"`
	WorkloadBalance        float64 `json:"workload_balance"`
	CoveragePercentage     float64 `json:"coverage_percentage"`
	GapsCount              int     `json:"gaps_count"`
}

// StatisticsReport is the full statistics payload for one schedule.
type StatisticsReport struct {
	ScheduleID string             `json:"schedule_id"`
	Summary    StatisticsSummary  `json:"summary"`
	Doctors    []DoctorStatistics `json:"doctors"`
	Gaps       []CoverageGap      `json:"gaps"`
}
