package models

// DoctorFairness holds one doctor's distribution counters for a month.
type DoctorFairness struct {
	DoctorID      string  `json:"doctor_id"`
	DoctorName    string  `json:"doctor_name"`
	NightShifts   int     `json:"night_shifts"`
	WeekendShifts int     `json:"weekend_shifts"`
	HolidayShifts int     `json:"holiday_shifts"`
	TotalHours    int     `json:"total_hours"`
	Score         float64 `json:"score"`
}

// FairnessReport scores how evenly a schedule spreads undesirable load.
// All scores are in [0, 100].
type FairnessReport struct {
	ScheduleID      string           `json:"schedule_id"`
	NightBalance    float64          `json:"night_balance"`
	WeekendBalance  float64          `json:"weekend_balance"`
	HolidayBalance  float64          `json:"holiday_balance"`
	HoursBalance    float64          `json:"hours_balance"`
	OverallScore    float64          `json:"overall_score"`
	Doctors         []DoctorFairness `json:"doctors"`
	Recommendations []string         `json:"recommendations"`
}
