package models

import "time"

// ScheduleStatus is the lifecycle state of a monthly schedule.
type ScheduleStatus string

const (
	ScheduleStatusDraft     ScheduleStatus = "draft"
	ScheduleStatusPublished ScheduleStatus = "published"
	ScheduleStatusArchived  ScheduleStatus = "archived"
)

// ScheduleAction names a lifecycle transition request.
type ScheduleAction string

const (
	ScheduleActionPublish   ScheduleAction = "publish"
	ScheduleActionUnpublish ScheduleAction = "unpublish"
	ScheduleActionArchive   ScheduleAction = "archive"
	ScheduleActionUnarchive ScheduleAction = "unarchive"
)

// Schedule is the container for one month of assignments. Unique on
// (year, month).
type Schedule struct {
	ID          string         `db:"id" json:"id"`
	Year        int            `db:"year" json:"year"`
	Month       int            `db:"month" json:"month"`
	Status      ScheduleStatus `db:"status" json:"status"`
	Notes       *string        `db:"notes" json:"notes,omitempty"`
	PublishedAt *time.Time     `db:"published_at" json:"published_at,omitempty"`
	PublishedBy *string        `db:"published_by" json:"published_by,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// FirstDay returns the first calendar day of the schedule's month in UTC.
func (s *Schedule) FirstDay() time.Time {
	return time.Date(s.Year, time.Month(s.Month), 1, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the number of calendar days in the schedule's month.
func (s *Schedule) DaysInMonth() int {
	return s.FirstDay().AddDate(0, 1, -1).Day()
}

// ScheduleDetail extends Schedule with aggregate context for list views.
type ScheduleDetail struct {
	Schedule
	AssignmentCount int `db:"assignment_count" json:"assignment_count"`
}

// ScheduleFilter defines filter criteria for listing schedules.
type ScheduleFilter struct {
	Year      *int
	Status    *ScheduleStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
