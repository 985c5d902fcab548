package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medora-hq/roster-api/internal/models"
	appErrors "github.com/medora-hq/roster-api/pkg/errors"
)

func newStatisticsFixture(
	schedule *models.Schedule,
	assignments []models.AssignmentDetail,
	doctors []models.DoctorDetail,
	templates []models.CoverageTemplateDetail,
) (*StatisticsService, *memCache) {
	cache := newMemCache()
	svc := NewStatisticsService(
		stubSchedules{schedule: schedule},
		stubAssignments{rows: assignments},
		stubDoctors{doctors: doctors},
		stubCoverage{templates: templates},
		cache,
		time.Minute,
		zap.NewNop(),
	)
	return svc, cache
}

func TestStatisticsReport(t *testing.T) {
	docA := activeDoctor("doc-a", models.NationalitySaudi)
	docA.EmployeeID = strPtr("E-100")
	docB := activeDoctor("doc-b", models.NationalityNonSaudi)
	docIdle := activeDoctor("doc-idle", models.NationalitySaudi)
	doctors := []models.DoctorDetail{docA, docB, docIdle}

	var assignments []models.AssignmentDetail
	for d := 1; d <= 4; d++ {
		assignments = append(assignments, rosterRow("doc-a", day(2025, time.February, d), 12, false))
	}
	assignments = append(assignments,
		rosterRow("doc-a", day(2025, time.February, 10), 12, true),
		rosterRow("doc-a", day(2025, time.February, 11), 12, true),
	)
	for d := 1; d <= 17; d++ {
		assignments = append(assignments, rosterRow("doc-b", day(2025, time.February, d), 12, true))
	}

	svc, cache := newStatisticsFixture(draftSchedule(2025, 2), assignments, doctors,
		[]models.CoverageTemplateDetail{dayTemplate(1)})

	report, err := svc.Report(context.Background(), "sched-1")
	require.NoError(t, err)

	require.Len(t, report.Doctors, 3)

	// Heaviest load first, idle doctors still listed.
	heavy := report.Doctors[0]
	require.Equal(t, "doc-b", heavy.DoctorID)
	require.Equal(t, "doc-b", heavy.EmployeeID)
	require.Equal(t, 204, heavy.TotalHours)
	require.Equal(t, 192, heavy.MaxHours)
	require.Equal(t, 106.3, heavy.HoursPercent)
	require.Equal(t, 17, heavy.Assignments)
	require.Equal(t, 17, heavy.NightShifts)
	require.True(t, heavy.OverLimit)

	mid := report.Doctors[1]
	require.Equal(t, "doc-a", mid.DoctorID)
	require.Equal(t, "E-100", mid.EmployeeID)
	require.Equal(t, 72, mid.TotalHours)
	require.Equal(t, 45.0, mid.HoursPercent)
	require.Equal(t, map[string]int{"D12": 4, "N12": 2}, mid.ShiftBreakdown)
	require.False(t, mid.OverLimit)

	idle := report.Doctors[2]
	require.Equal(t, "doc-idle", idle.DoctorID)
	require.Zero(t, idle.TotalHours)
	require.Zero(t, idle.Assignments)
	require.Equal(t, 0.0, idle.HoursPercent)

	// Day coverage is only met on the first four days of the month.
	require.Equal(t, 24, report.Summary.GapsCount)
	require.Len(t, report.Gaps, 20)
	require.Equal(t, day(2025, time.February, 5), report.Gaps[0].Date)
	require.Equal(t, "ANB", report.Gaps[0].CenterCode)
	require.Equal(t, 1, report.Gaps[0].Required)
	require.Zero(t, report.Gaps[0].Assigned)

	summary := report.Summary
	require.Equal(t, 23, summary.TotalAssignments)
	require.Equal(t, 276, summary.TotalHours)
	require.Equal(t, 28, summary.DaysInMonth)
	require.Equal(t, 3, summary.TotalDoctors)
	require.Equal(t, 2, summary.DoctorsWithAssignments)
	require.Equal(t, 138.0, summary.AverageHours)
	require.Equal(t, 1, summary.DoctorsOverCap)
	require.Equal(t, 52.2, summary.WorkloadBalance)
	require.Equal(t, 14.3, summary.CoveragePercentage)

	require.Contains(t, cache.entries, "reports:sched-1:statistics")
}

func TestStatisticsReportEmptySchedule(t *testing.T) {
	doctors := []models.DoctorDetail{activeDoctor("doc-a", models.NationalitySaudi)}
	svc, _ := newStatisticsFixture(draftSchedule(2025, 2), nil, doctors, nil)

	report, err := svc.Report(context.Background(), "sched-1")
	require.NoError(t, err)

	require.Len(t, report.Doctors, 1)
	require.Empty(t, report.Gaps)

	summary := report.Summary
	require.Zero(t, summary.TotalAssignments)
	require.Zero(t, summary.DoctorsWithAssignments)
	require.Equal(t, 0.0, summary.AverageHours)
	require.Equal(t, 100.0, summary.WorkloadBalance)
	require.Equal(t, 0.0, summary.CoveragePercentage)
	require.Zero(t, summary.GapsCount)
}

func TestStatisticsReportServesCachedReport(t *testing.T) {
	svc, cache := newStatisticsFixture(nil, nil, nil, nil)
	seeded := models.StatisticsReport{ScheduleID: "sched-1", Summary: models.StatisticsSummary{TotalAssignments: 7}}
	require.NoError(t, cache.Set(context.Background(), "reports:sched-1:statistics", seeded, time.Minute))

	report, err := svc.Report(context.Background(), "sched-1")
	require.NoError(t, err)
	require.Equal(t, 7, report.Summary.TotalAssignments)
}

func TestStatisticsReportScheduleNotFound(t *testing.T) {
	svc, _ := newStatisticsFixture(nil, nil, nil, nil)

	_, err := svc.Report(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
