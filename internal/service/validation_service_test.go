package service

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medora-hq/roster-api/internal/models"
	appErrors "github.com/medora-hq/roster-api/pkg/errors"
)

func newValidationServiceForTest(
	schedule *models.Schedule,
	assignments []models.AssignmentDetail,
	doctors []models.DoctorDetail,
	centers []models.Center,
	shifts []models.Shift,
	leaves []models.Leave,
	templates []models.CoverageTemplateDetail,
) *ValidationService {
	return NewValidationService(
		stubSchedules{schedule: schedule},
		stubAssignments{rows: assignments},
		stubDoctors{doctors: doctors},
		stubCenters{centers: centers},
		stubShifts{shifts: shifts},
		stubLeaves{leaves: leaves},
		stubCoverage{templates: templates},
		zap.NewNop(),
	)
}

func draftSchedule(year, month int) *models.Schedule {
	return &models.Schedule{ID: "sched-1", Year: year, Month: month, Status: models.ScheduleStatusDraft}
}

func anbCenter() models.Center {
	return models.Center{
		ID:                "c1",
		Code:              "ANB",
		Name:              "Anb Center",
		AllowedShiftCodes: pq.StringArray{"D12", "N12"},
		Active:            true,
	}
}

func dayShift() models.Shift {
	return models.Shift{ID: "s-day", Code: "D12", Name: "Day 12h", StartTime: "07:00", EndTime: "19:00", Hours: 12}
}

func nightShift() models.Shift {
	return models.Shift{ID: "s-night", Code: "N12", Name: "Night 12h", StartTime: "19:00", EndTime: "07:00", Hours: 12, IsOvernight: true}
}

func rosterRow(doctorID string, date time.Time, hours int, overnight bool) models.AssignmentDetail {
	shiftID, shiftCode := "s-day", "D12"
	if overnight {
		shiftID, shiftCode = "s-night", "N12"
	}
	return models.AssignmentDetail{
		Assignment: models.Assignment{
			ID:         "a-" + doctorID + "-" + date.Format(models.DateOnly),
			ScheduleID: "sched-1",
			DoctorID:   doctorID,
			CenterID:   "c1",
			ShiftID:    shiftID,
			Date:       date,
		},
		DoctorName:  "Dr " + doctorID,
		Nationality: models.NationalitySaudi,
		CenterCode:  "ANB",
		CenterName:  "Anb Center",
		ShiftCode:   shiftCode,
		ShiftHours:  hours,
		IsOvernight: overnight,
	}
}

func findViolations(result *models.ValidationResult, kind string) []models.Violation {
	var out []models.Violation
	for _, v := range result.Violations {
		if v.Kind == kind {
			out = append(out, v)
		}
	}
	return out
}

func TestValidateScheduleMonthlyHours(t *testing.T) {
	assignments := []models.AssignmentDetail{
		rosterRow("doc-over", day(2025, time.January, 3), 168, false),
		rosterRow("doc-close", day(2025, time.January, 4), 150, false),
		rosterRow("doc-ok", day(2025, time.January, 5), 120, false),
	}
	svc := newValidationServiceForTest(draftSchedule(2025, 1), assignments, nil,
		[]models.Center{anbCenter()}, nil, nil, nil)

	result, err := svc.ValidateSchedule(context.Background(), "sched-1")
	require.NoError(t, err)

	hours := findViolations(result, models.ViolationMonthlyHoursExceeded)
	require.Len(t, hours, 2)

	var exceeded, approaching *models.Violation
	for i := range hours {
		switch hours[i].Severity {
		case models.SeverityError:
			exceeded = &hours[i]
		case models.SeverityWarning:
			approaching = &hours[i]
		}
	}

	require.NotNil(t, exceeded)
	require.Equal(t, "Doctor exceeds monthly hours limit (168/160h)", exceeded.Message)
	require.Equal(t, "doc-over", *exceeded.DoctorID)
	require.Equal(t, 168, exceeded.Details["total_hours"])
	require.Equal(t, 160, exceeded.Details["max_hours"])
	require.Equal(t, "saudi", exceeded.Details["nationality"])

	require.NotNil(t, approaching)
	require.Equal(t, "Doctor approaching monthly hours limit (150/160h)", approaching.Message)
	require.Equal(t, "doc-close", *approaching.DoctorID)

	require.False(t, result.Valid)
	require.Equal(t, 1, result.ErrorCount)
	require.Equal(t, 1, result.WarningCount)
}

func TestValidateScheduleConsecutiveNights(t *testing.T) {
	assignments := []models.AssignmentDetail{
		rosterRow("doc-1", day(2025, time.January, 6), 12, true),
		rosterRow("doc-1", day(2025, time.January, 5), 12, true),
		rosterRow("doc-1", day(2025, time.January, 10), 12, true),
	}
	svc := newValidationServiceForTest(draftSchedule(2025, 1), assignments, nil,
		[]models.Center{anbCenter()}, nil, nil, nil)

	result, err := svc.ValidateSchedule(context.Background(), "sched-1")
	require.NoError(t, err)

	nights := findViolations(result, models.ViolationConsecutiveNights)
	require.Len(t, nights, 1)
	require.Equal(t, "Consecutive night shifts on 2025-01-05 and 2025-01-06", nights[0].Message)
	require.Equal(t, models.SeverityWarning, nights[0].Severity)
	require.Equal(t, day(2025, time.January, 6), *nights[0].Date)
	// Warnings alone do not invalidate.
	require.True(t, result.Valid)
}

func TestValidateScheduleCoverageGaps(t *testing.T) {
	templates := []models.CoverageTemplateDetail{{
		CoverageTemplate: models.CoverageTemplate{ID: "t1", CenterID: "c1", ShiftID: "s-day", MinDoctors: 2, Mandatory: true},
		CenterCode:       "ANB",
		ShiftCode:        "D12",
		ShiftHours:       12,
	}}
	assignments := []models.AssignmentDetail{
		rosterRow("doc-1", day(2025, time.February, 10), 12, false),
	}
	svc := newValidationServiceForTest(draftSchedule(2025, 2), assignments, nil,
		[]models.Center{anbCenter()}, nil, nil, templates)

	result, err := svc.ValidateSchedule(context.Background(), "sched-1")
	require.NoError(t, err)

	gaps := findViolations(result, models.ViolationInsufficientCoverage)
	require.Len(t, gaps, 28)

	var partial *models.Violation
	for i := range gaps {
		if gaps[i].Date.Equal(day(2025, time.February, 10)) {
			partial = &gaps[i]
		}
	}
	require.NotNil(t, partial)
	require.Equal(t, "Insufficient coverage: 1/2 doctors", partial.Message)
	require.Equal(t, 1, partial.Details["assigned"])
	require.Equal(t, 2, partial.Details["required"])
	require.Equal(t, "Insufficient coverage: 0/2 doctors", gaps[0].Message)
	require.False(t, result.Valid)
}

func TestValidateScheduleLeaveConflict(t *testing.T) {
	leaves := []models.Leave{
		{
			ID:        "l1",
			DoctorID:  "doc-1",
			LeaveType: models.LeaveTypeAnnual,
			StartDate: day(2025, time.January, 5),
			EndDate:   day(2025, time.January, 8),
			Status:    models.LeaveStatusApproved,
		},
		{
			ID:        "l2",
			DoctorID:  "doc-1",
			LeaveType: models.LeaveTypeSick,
			StartDate: day(2025, time.January, 6),
			EndDate:   day(2025, time.January, 6),
			Status:    models.LeaveStatusApproved,
		},
	}
	assignments := []models.AssignmentDetail{
		rosterRow("doc-1", day(2025, time.January, 6), 12, false),
		rosterRow("doc-1", day(2025, time.January, 20), 12, false),
	}
	svc := newValidationServiceForTest(draftSchedule(2025, 1), assignments, nil,
		[]models.Center{anbCenter()}, nil, leaves, nil)

	result, err := svc.ValidateSchedule(context.Background(), "sched-1")
	require.NoError(t, err)

	conflicts := findViolations(result, models.ViolationLeaveConflict)
	// One violation per conflicting assignment even when several leaves overlap.
	require.Len(t, conflicts, 1)
	require.Equal(t, "Assignment conflicts with approved leave", conflicts[0].Message)
	require.Equal(t, "annual", conflicts[0].Details["leave_type"])
	require.Equal(t, "doc-1", *conflicts[0].DoctorID)
}

func TestValidateScheduleDoubleBooking(t *testing.T) {
	assignments := []models.AssignmentDetail{
		rosterRow("doc-1", day(2025, time.January, 6), 12, false),
		rosterRow("doc-1", day(2025, time.January, 6), 12, true),
	}
	svc := newValidationServiceForTest(draftSchedule(2025, 1), assignments, nil,
		[]models.Center{anbCenter()}, nil, nil, nil)

	result, err := svc.ValidateSchedule(context.Background(), "sched-1")
	require.NoError(t, err)

	doubles := findViolations(result, models.ViolationDoubleBooking)
	require.Len(t, doubles, 1)
	require.Equal(t, "Doctor has 2 assignments on same day", doubles[0].Message)
	require.Equal(t, models.SeverityError, doubles[0].Severity)
}

func TestValidateScheduleInvalidShiftForCenter(t *testing.T) {
	center := anbCenter()
	center.AllowedShiftCodes = pq.StringArray{"D12"}
	assignments := []models.AssignmentDetail{
		rosterRow("doc-1", day(2025, time.January, 6), 12, true),
	}
	svc := newValidationServiceForTest(draftSchedule(2025, 1), assignments, nil,
		[]models.Center{center}, nil, nil, nil)

	result, err := svc.ValidateSchedule(context.Background(), "sched-1")
	require.NoError(t, err)

	invalid := findViolations(result, models.ViolationInvalidShiftForCenter)
	require.Len(t, invalid, 1)
	require.Equal(t, "Shift N12 is not allowed at Anb Center", invalid[0].Message)
	require.Equal(t, models.SeverityError, invalid[0].Severity)
}

func TestValidateScheduleSortsViolationsByDate(t *testing.T) {
	assignments := []models.AssignmentDetail{
		rosterRow("doc-b", day(2025, time.January, 20), 170, false),
		rosterRow("doc-a", day(2025, time.January, 3), 12, false),
		rosterRow("doc-a", day(2025, time.January, 3), 12, true),
	}
	svc := newValidationServiceForTest(draftSchedule(2025, 1), assignments, nil,
		[]models.Center{anbCenter()}, nil, nil, nil)

	result, err := svc.ValidateSchedule(context.Background(), "sched-1")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(result.Violations), 2)

	// Undated aggregates come first, then date order.
	for i := 1; i < len(result.Violations); i++ {
		prev, cur := violationDate(result.Violations[i-1]), violationDate(result.Violations[i])
		require.False(t, cur.Before(prev))
	}
}

func TestValidateScheduleNotFound(t *testing.T) {
	svc := newValidationServiceForTest(nil, nil, nil, nil, nil, nil, nil)

	_, err := svc.ValidateSchedule(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	require.Equal(t, "schedule not found", appErr.Message)
}

func TestValidateCandidateAccumulatesViolations(t *testing.T) {
	center := anbCenter()
	center.AllowedShiftCodes = pq.StringArray{"D12"}
	doctor := models.DoctorDetail{
		Doctor:      models.Doctor{ID: "doc-1", Active: true},
		FullName:    "Dr One",
		Nationality: models.NationalitySaudi,
	}
	assignments := []models.AssignmentDetail{
		rosterRow("doc-1", day(2025, time.January, 6), 12, false),
		rosterRow("doc-1", day(2025, time.January, 5), 12, true),
		rosterRow("doc-1", day(2025, time.January, 10), 140, false),
	}
	leaves := []models.Leave{{
		ID:        "l1",
		DoctorID:  "doc-1",
		LeaveType: models.LeaveTypeEmergency,
		StartDate: day(2025, time.January, 6),
		EndDate:   day(2025, time.January, 6),
		Status:    models.LeaveStatusApproved,
	}}
	svc := newValidationServiceForTest(draftSchedule(2025, 1), assignments,
		[]models.DoctorDetail{doctor}, []models.Center{center},
		[]models.Shift{dayShift(), nightShift()}, leaves, nil)

	req := models.CandidateRequest{DoctorID: "doc-1", CenterID: "c1", ShiftID: "s-night", Date: "2025-01-06"}
	result, err := svc.ValidateCandidate(context.Background(), "sched-1", req)
	require.NoError(t, err)

	require.Len(t, result.Violations, 5)
	// Violations come out in rule-catalog order: hours, nights, leave,
	// double-booking, shift whitelist.
	require.Equal(t, models.ViolationMonthlyHoursExceeded, result.Violations[0].Kind)
	require.Equal(t, "Would exceed monthly hours limit (176/160h)", result.Violations[0].Message)
	require.Equal(t, 164, result.Violations[0].Details["current_hours"])
	require.Equal(t, 12, result.Violations[0].Details["shift_hours"])
	require.Equal(t, models.ViolationConsecutiveNights, result.Violations[1].Kind)
	require.Equal(t, "Doctor would have consecutive night shifts", result.Violations[1].Message)
	require.Equal(t, models.SeverityWarning, result.Violations[1].Severity)
	require.Equal(t, models.ViolationLeaveConflict, result.Violations[2].Kind)
	require.Equal(t, "emergency", result.Violations[2].Details["leave_type"])
	require.Equal(t, models.ViolationDoubleBooking, result.Violations[3].Kind)
	require.Equal(t, "Doctor already has an assignment on 2025-01-06", result.Violations[3].Message)
	require.Equal(t, models.ViolationInvalidShiftForCenter, result.Violations[4].Kind)
	require.False(t, result.Valid)
}

func TestValidateCandidateClean(t *testing.T) {
	doctor := models.DoctorDetail{
		Doctor:      models.Doctor{ID: "doc-2", Active: true},
		FullName:    "Dr Two",
		Nationality: models.NationalityNonSaudi,
	}
	svc := newValidationServiceForTest(draftSchedule(2025, 1), nil,
		[]models.DoctorDetail{doctor}, []models.Center{anbCenter()},
		[]models.Shift{dayShift()}, nil, nil)

	req := models.CandidateRequest{DoctorID: "doc-2", CenterID: "c1", ShiftID: "s-day", Date: "2025-01-15"}
	result, err := svc.ValidateCandidate(context.Background(), "sched-1", req)
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Empty(t, result.Violations)
}

func TestValidateCandidateRejectsBadDate(t *testing.T) {
	svc := newValidationServiceForTest(draftSchedule(2025, 1), nil, nil, nil, nil, nil, nil)

	req := models.CandidateRequest{DoctorID: "doc-1", CenterID: "c1", ShiftID: "s-day", Date: "15/01/2025"}
	_, err := svc.ValidateCandidate(context.Background(), "sched-1", req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Equal(t, "date must be in YYYY-MM-DD format", appErr.Message)
}

func TestValidateCandidateUnknownDoctor(t *testing.T) {
	svc := newValidationServiceForTest(draftSchedule(2025, 1), nil, nil,
		[]models.Center{anbCenter()}, []models.Shift{dayShift()}, nil, nil)

	req := models.CandidateRequest{DoctorID: "ghost", CenterID: "c1", ShiftID: "s-day", Date: "2025-01-15"}
	_, err := svc.ValidateCandidate(context.Background(), "sched-1", req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	require.Equal(t, "doctor not found", appErr.Message)
}
