package service

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medora-hq/roster-api/internal/models"
	"github.com/medora-hq/roster-api/pkg/config"
	appErrors "github.com/medora-hq/roster-api/pkg/errors"
)

type capturingBuildMetrics struct {
	created  int
	unfilled int
	observed bool
}

func (m *capturingBuildMetrics) ObserveBuild(duration time.Duration, created, unfilled int) {
	m.created = created
	m.unfilled = unfilled
	m.observed = true
}

type builderFixture struct {
	svc     *BuilderService
	repl    *fakeAssignmentReplacer
	audit   *recordingAuditor
	cache   *memCache
	metrics *capturingBuildMetrics
}

func newBuilderFixture(
	schedule *models.Schedule,
	existing []models.AssignmentDetail,
	doctors []models.DoctorDetail,
	centers []models.Center,
	templates []models.CoverageTemplateDetail,
	leaves []models.Leave,
	maxWarnings int,
) *builderFixture {
	f := &builderFixture{
		repl:    &fakeAssignmentReplacer{rows: existing},
		audit:   &recordingAuditor{},
		cache:   newMemCache(),
		metrics: &capturingBuildMetrics{},
	}
	f.svc = NewBuilderService(
		stubSchedules{schedule: schedule},
		f.repl,
		stubDoctors{doctors: doctors},
		stubCenters{centers: centers},
		stubCoverage{templates: templates},
		stubLeaves{leaves: leaves},
		f.audit,
		f.cache,
		f.metrics,
		config.BuilderConfig{MaxWarnings: maxWarnings},
		zap.NewNop(),
	)
	return f
}

func activeDoctor(id string, nationality models.Nationality) models.DoctorDetail {
	return models.DoctorDetail{
		Doctor:      models.Doctor{ID: id, Active: true, CanWorkNights: true},
		FullName:    "Dr " + id,
		Nationality: nationality,
	}
}

func dayTemplate(minDoctors int) models.CoverageTemplateDetail {
	return models.CoverageTemplateDetail{
		CoverageTemplate: models.CoverageTemplate{ID: "tpl-day", CenterID: "c1", ShiftID: "s-day", MinDoctors: minDoctors, Mandatory: true},
		CenterCode:       "ANB",
		CenterName:       "Anb Center",
		ShiftCode:        "D12",
		ShiftHours:       12,
	}
}

func nightTemplate(minDoctors int) models.CoverageTemplateDetail {
	return models.CoverageTemplateDetail{
		CoverageTemplate: models.CoverageTemplate{ID: "tpl-night", CenterID: "c1", ShiftID: "s-night", MinDoctors: minDoctors, Mandatory: true},
		CenterCode:       "ANB",
		CenterName:       "Anb Center",
		ShiftCode:        "N12",
		ShiftHours:       12,
		IsOvernight:      true,
	}
}

func TestBuildRequiresDraft(t *testing.T) {
	schedule := draftSchedule(2025, 2)
	schedule.Status = models.ScheduleStatusPublished
	f := newBuilderFixture(schedule, nil, nil, nil, nil, nil, 0)

	_, err := f.svc.Build(context.Background(), "sched-1", models.BuildRequest{}, "user-1", "", "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrInvalidStatus.Code, appErr.Code)
	require.Equal(t, "only draft schedules can be auto-built", appErr.Message)
	require.Nil(t, f.repl.replaced)
}

func TestBuildWithoutTemplates(t *testing.T) {
	f := newBuilderFixture(draftSchedule(2025, 2), nil,
		[]models.DoctorDetail{activeDoctor("doc-a", models.NationalitySaudi)}, nil, nil, nil, 0)

	result, err := f.svc.Build(context.Background(), "sched-1", models.BuildRequest{}, "user-1", "", "")
	require.NoError(t, err)
	require.Equal(t, []string{"No coverage templates defined"}, result.Warnings)
	require.Zero(t, result.AssignmentsCreated)
	require.Nil(t, f.repl.replaced)
}

func TestBuildWithoutDoctors(t *testing.T) {
	f := newBuilderFixture(draftSchedule(2025, 2), nil, nil,
		[]models.Center{anbCenter()}, []models.CoverageTemplateDetail{dayTemplate(1)}, nil, 0)

	result, err := f.svc.Build(context.Background(), "sched-1", models.BuildRequest{}, "user-1", "", "")
	require.NoError(t, err)
	require.Equal(t, []string{"No active doctors available"}, result.Warnings)
	require.Zero(t, result.AssignmentsCreated)
}

func TestBuildBalancesHoursAcrossDoctors(t *testing.T) {
	doctors := []models.DoctorDetail{
		activeDoctor("doc-a", models.NationalityNonSaudi),
		activeDoctor("doc-b", models.NationalityNonSaudi),
	}
	f := newBuilderFixture(draftSchedule(2025, 2), nil, doctors,
		[]models.Center{anbCenter()}, []models.CoverageTemplateDetail{dayTemplate(1)}, nil, 0)

	result, err := f.svc.Build(context.Background(), "sched-1", models.BuildRequest{}, "user-1", "10.0.0.1", "cli")
	require.NoError(t, err)

	require.True(t, result.Success)
	require.Equal(t, 28, result.AssignmentsCreated)
	require.Zero(t, result.SlotsUnfilled)
	require.Len(t, f.repl.replaced, 28)

	// Ties break on catalog order, then the greedy pass alternates.
	require.Equal(t, "doc-a", f.repl.replaced[0].DoctorID)
	require.Equal(t, "doc-b", f.repl.replaced[1].DoctorID)

	counts := map[string]int{}
	for _, a := range f.repl.replaced {
		counts[a.DoctorID]++
		require.Equal(t, "sched-1", a.ScheduleID)
		require.Equal(t, "c1", a.CenterID)
		require.Equal(t, "s-day", a.ShiftID)
	}
	require.Equal(t, 14, counts["doc-a"])
	require.Equal(t, 14, counts["doc-b"])
}

func TestBuildAvoidsConsecutiveNights(t *testing.T) {
	doctors := []models.DoctorDetail{
		activeDoctor("doc-a", models.NationalityNonSaudi),
		activeDoctor("doc-b", models.NationalityNonSaudi),
	}
	// doc-b starts the month 20 hours ahead, so pure hour-levelling would
	// hand doc-a the first two nights back to back.
	existing := []models.AssignmentDetail{
		rosterRow("doc-b", day(2025, time.February, 28), 20, false),
	}
	f := newBuilderFixture(draftSchedule(2025, 2), existing, doctors,
		[]models.Center{anbCenter()}, []models.CoverageTemplateDetail{nightTemplate(1)}, nil, 0)

	result, err := f.svc.Build(context.Background(), "sched-1", models.BuildRequest{}, "user-1", "", "")
	require.NoError(t, err)
	require.True(t, result.Success)

	require.Equal(t, "doc-a", f.repl.replaced[0].DoctorID)
	require.Equal(t, "doc-b", f.repl.replaced[1].DoctorID)
	require.Equal(t, "doc-a", f.repl.replaced[2].DoctorID)
	require.Equal(t, "doc-b", f.repl.replaced[3].DoctorID)
}

func TestBuildRespectsLeaveAndHoursCap(t *testing.T) {
	doctors := []models.DoctorDetail{activeDoctor("doc-a", models.NationalitySaudi)}
	leaves := []models.Leave{{
		ID:        "l1",
		DoctorID:  "doc-a",
		LeaveType: models.LeaveTypeAnnual,
		StartDate: day(2025, time.January, 1),
		EndDate:   day(2025, time.January, 2),
		Status:    models.LeaveStatusApproved,
	}}
	f := newBuilderFixture(draftSchedule(2025, 1), nil, doctors,
		[]models.Center{anbCenter()}, []models.CoverageTemplateDetail{dayTemplate(1)}, leaves, 0)

	result, err := f.svc.Build(context.Background(), "sched-1", models.BuildRequest{}, "user-1", "", "")
	require.NoError(t, err)

	// Two leave days plus everything past the 160h cap stays open.
	require.False(t, result.Success)
	require.Equal(t, 13, result.AssignmentsCreated)
	require.Equal(t, 18, result.SlotsUnfilled)
	require.Len(t, result.Warnings, 18)
	require.Equal(t, "Could not fill ANB-D12 on 2025-01-01", result.Warnings[0])
	require.Equal(t, "Could not fill ANB-D12 on 2025-01-02", result.Warnings[1])
	require.Equal(t, day(2025, time.January, 3), f.repl.replaced[0].Date)
}

func TestBuildCapsWarnings(t *testing.T) {
	center := anbCenter()
	center.AllowedShiftCodes = pq.StringArray{"N12"}
	doctors := []models.DoctorDetail{activeDoctor("doc-a", models.NationalityNonSaudi)}
	f := newBuilderFixture(draftSchedule(2025, 1), nil, doctors,
		[]models.Center{center}, []models.CoverageTemplateDetail{dayTemplate(2)}, nil, 5)

	result, err := f.svc.Build(context.Background(), "sched-1", models.BuildRequest{}, "user-1", "", "")
	require.NoError(t, err)

	require.False(t, result.Success)
	require.Equal(t, 62, result.SlotsUnfilled)
	require.Len(t, result.Warnings, 5)
	require.Zero(t, result.AssignmentsCreated)
}

func TestBuildKeepsExistingAssignments(t *testing.T) {
	doctors := []models.DoctorDetail{activeDoctor("doc-a", models.NationalityNonSaudi)}
	existing := []models.AssignmentDetail{
		rosterRow("doc-a", day(2025, time.February, 1), 12, false),
	}
	tpl := dayTemplate(1)
	tpl.ShiftHours = 6
	f := newBuilderFixture(draftSchedule(2025, 2), existing, doctors,
		[]models.Center{anbCenter()}, []models.CoverageTemplateDetail{tpl}, nil, 0)

	result, err := f.svc.Build(context.Background(), "sched-1", models.BuildRequest{ClearExisting: false}, "user-1", "", "")
	require.NoError(t, err)

	require.True(t, result.Success)
	require.Equal(t, 27, result.AssignmentsCreated)
	require.False(t, f.repl.cleared)
	require.Equal(t, day(2025, time.February, 2), f.repl.replaced[0].Date)
}

func TestBuildClearExistingRebuildsFromScratch(t *testing.T) {
	doctors := []models.DoctorDetail{activeDoctor("doc-a", models.NationalityNonSaudi)}
	existing := []models.AssignmentDetail{
		rosterRow("doc-a", day(2025, time.February, 1), 12, false),
	}
	tpl := dayTemplate(1)
	tpl.ShiftHours = 6
	f := newBuilderFixture(draftSchedule(2025, 2), existing, doctors,
		[]models.Center{anbCenter()}, []models.CoverageTemplateDetail{tpl}, nil, 0)

	result, err := f.svc.Build(context.Background(), "sched-1", models.BuildRequest{ClearExisting: true}, "user-1", "", "")
	require.NoError(t, err)

	require.True(t, result.Success)
	require.Equal(t, 28, result.AssignmentsCreated)
	require.True(t, f.repl.cleared)
	require.Equal(t, day(2025, time.February, 1), f.repl.replaced[0].Date)
}

func TestBuildRecordsAuditCacheAndMetrics(t *testing.T) {
	doctors := []models.DoctorDetail{activeDoctor("doc-a", models.NationalityNonSaudi)}
	tpl := dayTemplate(1)
	tpl.ShiftHours = 6
	f := newBuilderFixture(draftSchedule(2025, 2), nil, doctors,
		[]models.Center{anbCenter()}, []models.CoverageTemplateDetail{tpl}, nil, 0)

	require.NoError(t, f.cache.Set(context.Background(), "reports:sched-1:fairness", "stale", time.Minute))
	require.NoError(t, f.cache.Set(context.Background(), "reports:other:fairness", "keep", time.Minute))

	result, err := f.svc.Build(context.Background(), "sched-1", models.BuildRequest{}, "user-1", "10.0.0.1", "cli")
	require.NoError(t, err)

	require.Len(t, f.audit.entries, 1)
	entry := f.audit.entries[0]
	require.Equal(t, models.AuditActionAutoBuild, entry.Action)
	require.Equal(t, models.AuditEntitySchedule, entry.EntityType)
	require.Equal(t, "sched-1", entry.EntityID)
	require.Equal(t, "user-1", entry.UserID)
	require.Equal(t, "10.0.0.1", entry.IPAddress)

	require.NotContains(t, f.cache.entries, "reports:sched-1:fairness")
	require.Contains(t, f.cache.entries, "reports:other:fairness")

	require.True(t, f.metrics.observed)
	require.Equal(t, result.AssignmentsCreated, f.metrics.created)
	require.Zero(t, f.metrics.unfilled)
}
