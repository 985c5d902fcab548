package models

import (
	"time"

	"github.com/lib/pq"
)

// Center represents a clinical center where shifts are staffed.
type Center struct {
	ID                string         `db:"id" json:"id"`
	Code              string         `db:"code" json:"code"`
	Name              string         `db:"name" json:"name"`
	NameAr            *string        `db:"name_ar" json:"name_ar,omitempty"`
	AllowedShiftCodes pq.StringArray `db:"allowed_shift_codes" json:"allowed_shift_codes"`
	Active            bool           `db:"active" json:"active"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// AllowsShift reports whether a shift code is permitted at this center.
func (c *Center) AllowsShift(code string) bool {
	for _, allowed := range c.AllowedShiftCodes {
		if allowed == code {
			return true
		}
	}
	return false
}

// CenterFilter defines filter criteria for listing centers.
type CenterFilter struct {
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
