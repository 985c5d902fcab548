package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medora-hq/roster-api/internal/models"
	appErrors "github.com/medora-hq/roster-api/pkg/errors"
)

type fakeScheduleStore struct {
	byID    map[string]*models.Schedule
	deleted []string
}

func newFakeScheduleStore(schedules ...*models.Schedule) *fakeScheduleStore {
	f := &fakeScheduleStore{byID: make(map[string]*models.Schedule)}
	for _, s := range schedules {
		f.byID[s.ID] = s
	}
	return f
}

func (f *fakeScheduleStore) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, int, error) {
	var out []models.ScheduleDetail
	for _, s := range f.byID {
		out = append(out, models.ScheduleDetail{Schedule: *s})
	}
	return out, len(out), nil
}

func (f *fakeScheduleStore) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *s
	return &copied, nil
}

func (f *fakeScheduleStore) FindByYearMonth(ctx context.Context, year, month int) (*models.Schedule, error) {
	for _, s := range f.byID {
		if s.Year == year && s.Month == month {
			copied := *s
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeScheduleStore) Create(ctx context.Context, schedule *models.Schedule) error {
	schedule.ID = "sched-new"
	copied := *schedule
	f.byID[schedule.ID] = &copied
	return nil
}

func (f *fakeScheduleStore) Update(ctx context.Context, schedule *models.Schedule) error {
	copied := *schedule
	f.byID[schedule.ID] = &copied
	return nil
}

func (f *fakeScheduleStore) Delete(ctx context.Context, id string) error {
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type scheduleFixture struct {
	svc      *ScheduleService
	store    *fakeScheduleStore
	audit    *recordingAuditor
	cache    *memCache
	notifier *recordingNotifier
}

func newScheduleFixture(schedules ...*models.Schedule) *scheduleFixture {
	f := &scheduleFixture{
		store:    newFakeScheduleStore(schedules...),
		audit:    &recordingAuditor{},
		cache:    newMemCache(),
		notifier: &recordingNotifier{},
	}
	f.svc = NewScheduleService(f.store, f.audit, f.cache, f.notifier, nil, zap.NewNop())
	return f
}

func TestCreateSchedule(t *testing.T) {
	f := newScheduleFixture()

	schedule, err := f.svc.Create(context.Background(), CreateScheduleRequest{Year: 2025, Month: 3}, "user-1", "10.0.0.1", "cli")
	require.NoError(t, err)

	require.Equal(t, "sched-new", schedule.ID)
	require.Equal(t, models.ScheduleStatusDraft, schedule.Status)
	require.Equal(t, 2025, schedule.Year)
	require.Equal(t, 3, schedule.Month)

	require.Len(t, f.audit.entries, 1)
	require.Equal(t, models.AuditActionCreate, f.audit.entries[0].Action)
	require.Equal(t, "sched-new", f.audit.entries[0].EntityID)
}

func TestCreateScheduleDuplicateMonth(t *testing.T) {
	existing := &models.Schedule{ID: "sched-1", Year: 2025, Month: 3, Status: models.ScheduleStatusDraft}
	f := newScheduleFixture(existing)

	_, err := f.svc.Create(context.Background(), CreateScheduleRequest{Year: 2025, Month: 3}, "user-1", "", "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrDuplicate.Code, appErr.Code)
	require.Equal(t, "schedule for 2025-03 already exists", appErr.Message)
}

func TestCreateScheduleRejectsBadPayload(t *testing.T) {
	f := newScheduleFixture()

	_, err := f.svc.Create(context.Background(), CreateScheduleRequest{Year: 2025, Month: 13}, "user-1", "", "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestGetScheduleByMonth(t *testing.T) {
	existing := &models.Schedule{ID: "sched-1", Year: 2025, Month: 3, Status: models.ScheduleStatusDraft}
	f := newScheduleFixture(existing)

	schedule, err := f.svc.GetByMonth(context.Background(), 2025, 3)
	require.NoError(t, err)
	require.Equal(t, "sched-1", schedule.ID)

	_, err = f.svc.GetByMonth(context.Background(), 2025, 4)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdateScheduleDraftOnly(t *testing.T) {
	draft := &models.Schedule{ID: "sched-1", Year: 2025, Month: 3, Status: models.ScheduleStatusDraft}
	published := &models.Schedule{ID: "sched-2", Year: 2025, Month: 4, Status: models.ScheduleStatusPublished}
	f := newScheduleFixture(draft, published)

	updated, err := f.svc.Update(context.Background(), "sched-1", UpdateScheduleRequest{Notes: strPtr("ramadan cover")}, "user-1", "", "")
	require.NoError(t, err)
	require.Equal(t, "ramadan cover", *updated.Notes)

	_, err = f.svc.Update(context.Background(), "sched-2", UpdateScheduleRequest{}, "user-1", "", "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrInvalidStatus.Code, appErr.Code)
	require.Equal(t, "only draft schedules can be edited", appErr.Message)
}

func TestDeleteScheduleDraftOnly(t *testing.T) {
	draft := &models.Schedule{ID: "sched-1", Year: 2025, Month: 3, Status: models.ScheduleStatusDraft}
	published := &models.Schedule{ID: "sched-2", Year: 2025, Month: 4, Status: models.ScheduleStatusPublished}
	f := newScheduleFixture(draft, published)

	require.NoError(t, f.cache.Set(context.Background(), "reports:sched-1:fairness", "stale", time.Minute))

	require.NoError(t, f.svc.Delete(context.Background(), "sched-1", "user-1", "", ""))
	require.Equal(t, []string{"sched-1"}, f.store.deleted)
	require.NotContains(t, f.cache.entries, "reports:sched-1:fairness")
	require.Equal(t, models.AuditActionDelete, f.audit.entries[0].Action)

	err := f.svc.Delete(context.Background(), "sched-2", "user-1", "", "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, "only draft schedules can be deleted", appErr.Message)
}

func TestPublishSchedule(t *testing.T) {
	draft := &models.Schedule{ID: "sched-1", Year: 2025, Month: 3, Status: models.ScheduleStatusDraft}
	f := newScheduleFixture(draft)

	schedule, err := f.svc.Transition(context.Background(), "sched-1", models.ScheduleActionPublish, "user-1", "10.0.0.1", "cli")
	require.NoError(t, err)

	require.Equal(t, models.ScheduleStatusPublished, schedule.Status)
	require.NotNil(t, schedule.PublishedAt)
	require.Equal(t, "user-1", *schedule.PublishedBy)

	require.Equal(t, []string{"sched-1"}, f.notifier.published)
	require.Len(t, f.audit.entries, 1)
	require.Equal(t, "publish", f.audit.entries[0].Action)

	// Publishing twice is rejected.
	_, err = f.svc.Transition(context.Background(), "sched-1", models.ScheduleActionPublish, "user-1", "", "")
	require.Error(t, err)
	require.Equal(t, "only draft schedules can be published", appErrors.FromError(err).Message)
}

func TestUnpublishSchedule(t *testing.T) {
	now := time.Now().UTC()
	published := &models.Schedule{
		ID: "sched-1", Year: 2025, Month: 3,
		Status:      models.ScheduleStatusPublished,
		PublishedAt: &now,
		PublishedBy: strPtr("user-1"),
	}
	f := newScheduleFixture(published)

	schedule, err := f.svc.Transition(context.Background(), "sched-1", models.ScheduleActionUnpublish, "user-2", "", "")
	require.NoError(t, err)

	require.Equal(t, models.ScheduleStatusDraft, schedule.Status)
	require.Nil(t, schedule.PublishedAt)
	require.Nil(t, schedule.PublishedBy)
	require.Empty(t, f.notifier.published)

	_, err = f.svc.Transition(context.Background(), "sched-1", models.ScheduleActionUnpublish, "user-2", "", "")
	require.Error(t, err)
	require.Equal(t, "only published schedules can be unpublished", appErrors.FromError(err).Message)
}

func TestArchiveSchedule(t *testing.T) {
	published := &models.Schedule{ID: "sched-1", Year: 2025, Month: 3, Status: models.ScheduleStatusPublished}
	f := newScheduleFixture(published)

	schedule, err := f.svc.Transition(context.Background(), "sched-1", models.ScheduleActionArchive, "user-1", "", "")
	require.NoError(t, err)
	require.Equal(t, models.ScheduleStatusArchived, schedule.Status)

	_, err = f.svc.Transition(context.Background(), "sched-1", models.ScheduleActionArchive, "user-1", "", "")
	require.Error(t, err)
	require.Equal(t, "schedule is already archived", appErrors.FromError(err).Message)
}

func TestUnarchiveSchedule(t *testing.T) {
	now := time.Now().UTC()
	archived := &models.Schedule{
		ID: "sched-1", Year: 2025, Month: 3,
		Status:      models.ScheduleStatusArchived,
		PublishedAt: &now,
		PublishedBy: strPtr("user-1"),
	}
	f := newScheduleFixture(archived)

	schedule, err := f.svc.Transition(context.Background(), "sched-1", models.ScheduleActionUnarchive, "user-2", "", "")
	require.NoError(t, err)

	require.Equal(t, models.ScheduleStatusDraft, schedule.Status)
	require.Nil(t, schedule.PublishedAt)
	require.Nil(t, schedule.PublishedBy)

	draft := &models.Schedule{ID: "sched-2", Year: 2025, Month: 4, Status: models.ScheduleStatusDraft}
	f.store.byID["sched-2"] = draft
	_, err = f.svc.Transition(context.Background(), "sched-2", models.ScheduleActionUnarchive, "user-2", "", "")
	require.Error(t, err)
	require.Equal(t, "only archived schedules can be unarchived", appErrors.FromError(err).Message)
}

func TestTransitionUnknownAction(t *testing.T) {
	draft := &models.Schedule{ID: "sched-1", Year: 2025, Month: 3, Status: models.ScheduleStatusDraft}
	f := newScheduleFixture(draft)

	_, err := f.svc.Transition(context.Background(), "sched-1", models.ScheduleAction("retire"), "user-1", "", "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Equal(t, "unknown schedule action", appErr.Message)
}

func TestTransitionScheduleNotFound(t *testing.T) {
	f := newScheduleFixture()

	_, err := f.svc.Transition(context.Background(), "ghost", models.ScheduleActionPublish, "user-1", "", "")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
