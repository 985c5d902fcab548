package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/medora-hq/roster-api/internal/models"
	appErrors "github.com/medora-hq/roster-api/pkg/errors"
)

// Shared in-memory stubs for the scheduling engine tests.

type stubSchedules struct {
	schedule *models.Schedule
}

func (s stubSchedules) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	if s.schedule == nil || s.schedule.ID != id {
		return nil, sql.ErrNoRows
	}
	copied := *s.schedule
	return &copied, nil
}

type stubAssignments struct {
	rows []models.AssignmentDetail
}

func (s stubAssignments) ListBySchedule(ctx context.Context, scheduleID string) ([]models.AssignmentDetail, error) {
	return s.rows, nil
}

type fakeAssignmentReplacer struct {
	rows     []models.AssignmentDetail
	replaced []models.Assignment
	cleared  bool
}

func (f *fakeAssignmentReplacer) ListBySchedule(ctx context.Context, scheduleID string) ([]models.AssignmentDetail, error) {
	return f.rows, nil
}

func (f *fakeAssignmentReplacer) BulkReplace(ctx context.Context, scheduleID string, clearExisting bool, assignments []models.Assignment) error {
	f.replaced = assignments
	f.cleared = clearExisting
	return nil
}

type stubLeaves struct {
	leaves []models.Leave
}

func (s stubLeaves) ListApprovedOverlapping(ctx context.Context, from, to time.Time) ([]models.Leave, error) {
	return s.leaves, nil
}

type stubCoverage struct {
	templates []models.CoverageTemplateDetail
}

func (s stubCoverage) ListMandatory(ctx context.Context) ([]models.CoverageTemplateDetail, error) {
	return s.templates, nil
}

type stubCenters struct {
	centers []models.Center
}

func (s stubCenters) ListActive(ctx context.Context) ([]models.Center, error) {
	return s.centers, nil
}

func (s stubCenters) FindByID(ctx context.Context, id string) (*models.Center, error) {
	for i := range s.centers {
		if s.centers[i].ID == id {
			return &s.centers[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

type stubShifts struct {
	shifts []models.Shift
}

func (s stubShifts) FindByID(ctx context.Context, id string) (*models.Shift, error) {
	for i := range s.shifts {
		if s.shifts[i].ID == id {
			return &s.shifts[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

type stubDoctors struct {
	doctors []models.DoctorDetail
}

func (s stubDoctors) FindByID(ctx context.Context, id string) (*models.DoctorDetail, error) {
	for i := range s.doctors {
		if s.doctors[i].ID == id {
			return &s.doctors[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s stubDoctors) ListActive(ctx context.Context) ([]models.DoctorDetail, error) {
	return s.doctors, nil
}

type stubHolidays struct {
	holidays []models.Holiday
}

func (s stubHolidays) ListByRange(ctx context.Context, from, to time.Time) ([]models.Holiday, error) {
	return s.holidays, nil
}

// memCache is an in-process stand-in for the Redis report cache.
type memCache struct {
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memCache) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

type recordingAuditor struct {
	entries []AuditEntry
}

func (r *recordingAuditor) Record(ctx context.Context, entry AuditEntry) {
	r.entries = append(r.entries, entry)
}

type recordingNotifier struct {
	published []string
}

func (r *recordingNotifier) SchedulePublished(ctx context.Context, schedule *models.Schedule, publishedBy string) {
	r.published = append(r.published, schedule.ID)
}

func strPtr(s string) *string {
	return &s
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}
