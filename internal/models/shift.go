package models

import "time"

// ShiftType categorises a shift by its nominal length.
type ShiftType string

const (
	ShiftTypeEightHour  ShiftType = "8h"
	ShiftTypeTwelveHour ShiftType = "12h"
)

// Shift represents a staffable shift definition. Times are wall-clock
// strings in HH:MM form; an overnight shift ends at or before it starts.
type Shift struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	ShiftType   ShiftType `db:"shift_type" json:"shift_type"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	Hours       int       `db:"hours" json:"hours"`
	IsOvernight bool      `db:"is_overnight" json:"is_overnight"`
	IsOptional  bool      `db:"is_optional" json:"is_optional"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SpansMidnight reports whether the wall-clock times wrap to the next day.
// Kept in sync with IsOvernight by the shift service on every write.
func (s *Shift) SpansMidnight() bool {
	return s.EndTime <= s.StartTime
}

// ShiftFilter defines filter criteria for listing shifts.
type ShiftFilter struct {
	ShiftType   *ShiftType
	IsOvernight *bool
	Search      string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
