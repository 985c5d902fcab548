package models

import "time"

// CoverageTemplate declares a per-(center, shift) minimum daily staffing
// requirement. Unique on (center_id, shift_id).
type CoverageTemplate struct {
	ID         string    `db:"id" json:"id"`
	CenterID   string    `db:"center_id" json:"center_id"`
	ShiftID    string    `db:"shift_id" json:"shift_id"`
	MinDoctors int       `db:"min_doctors" json:"min_doctors"`
	Mandatory  bool      `db:"mandatory" json:"mandatory"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// CoverageTemplateDetail includes center and shift context for responses
// and for the scheduling engines.
type CoverageTemplateDetail struct {
	CoverageTemplate
	CenterCode  string `db:"center_code" json:"center_code"`
	CenterName  string `db:"center_name" json:"center_name"`
	ShiftCode   string `db:"shift_code" json:"shift_code"`
	ShiftName   string `db:"shift_name" json:"shift_name"`
	ShiftHours  int    `db:"shift_hours" json:"shift_hours"`
	IsOvernight bool   `db:"is_overnight" json:"is_overnight"`
}

// CoverageTemplateFilter defines filter criteria for listing templates.
type CoverageTemplateFilter struct {
	CenterID  string
	ShiftID   string
	Mandatory *bool
	Page      int
	PageSize  int
}
