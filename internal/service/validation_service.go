package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/medora-hq/roster-api/internal/models"
	appErrors "github.com/medora-hq/roster-api/pkg/errors"
)

type scheduleReader interface {
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
}

type assignmentLister interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.AssignmentDetail, error)
}

type leaveLister interface {
	ListApprovedOverlapping(ctx context.Context, from, to time.Time) ([]models.Leave, error)
}

type coverageLister interface {
	ListMandatory(ctx context.Context) ([]models.CoverageTemplateDetail, error)
}

type centerReader interface {
	ListActive(ctx context.Context) ([]models.Center, error)
	FindByID(ctx context.Context, id string) (*models.Center, error)
}

type shiftFinder interface {
	FindByID(ctx context.Context, id string) (*models.Shift, error)
}

type doctorFinder interface {
	FindByID(ctx context.Context, id string) (*models.DoctorDetail, error)
}

// hoursWarningRatio is the fraction of the monthly cap at which the
// validator starts warning before the hard limit is reached.
const hoursWarningRatio = 0.9

// ValidationService checks a schedule, or a single prospective
// assignment, against the staffing constraints. It never mutates state.
type ValidationService struct {
	schedules   scheduleReader
	assignments assignmentLister
	doctors     doctorFinder
	centers     centerReader
	shifts      shiftFinder
	leaves      leaveLister
	coverage    coverageLister
	logger      *zap.Logger
}

// NewValidationService constructs the constraint validator.
func NewValidationService(
	schedules scheduleReader,
	assignments assignmentLister,
	doctors doctorFinder,
	centers centerReader,
	shifts shiftFinder,
	leaves leaveLister,
	coverage coverageLister,
	logger *zap.Logger,
) *ValidationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidationService{
		schedules:   schedules,
		assignments: assignments,
		doctors:     doctors,
		centers:     centers,
		shifts:      shifts,
		leaves:      leaves,
		coverage:    coverage,
		logger:      logger,
	}
}

// ValidateSchedule runs every constraint rule over the full schedule and
// returns the aggregated violations in a deterministic order.
func (s *ValidationService) ValidateSchedule(ctx context.Context, scheduleID string) (*models.ValidationResult, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, err
	}

	assignments, err := s.assignments.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	firstDay := schedule.FirstDay()
	lastDay := firstDay.AddDate(0, 1, -1)

	leaves, err := s.leaves.ListApprovedOverlapping(ctx, firstDay, lastDay)
	if err != nil {
		return nil, err
	}

	templates, err := s.coverage.ListMandatory(ctx)
	if err != nil {
		return nil, err
	}

	centers, err := s.centers.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	centersByID := make(map[string]models.Center, len(centers))
	for _, c := range centers {
		centersByID[c.ID] = c
	}

	result := &models.ValidationResult{Valid: true}

	s.checkMonthlyHours(assignments, result)
	s.checkConsecutiveNights(assignments, result)
	s.checkCoverage(schedule, assignments, templates, result)
	s.checkLeaveConflicts(assignments, leaves, result)
	s.checkDoubleBookings(assignments, result)
	s.checkAllowedShifts(assignments, centersByID, result)

	sortViolations(result.Violations)

	s.logger.Debug("schedule validated",
		zap.String("schedule_id", scheduleID),
		zap.Int("errors", result.ErrorCount),
		zap.Int("warnings", result.WarningCount))

	return result, nil
}

// ValidateCandidate checks a single prospective assignment against the
// current roster without persisting anything. All applicable checks run;
// the result accumulates every violation found.
func (s *ValidationService) ValidateCandidate(ctx context.Context, scheduleID string, req models.CandidateRequest) (*models.ValidationResult, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, err
	}

	date, err := time.ParseInLocation(models.DateOnly, req.Date, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be in YYYY-MM-DD format")
	}

	doctor, err := s.doctors.FindByID(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
		}
		return nil, err
	}
	center, err := s.centers.FindByID(ctx, req.CenterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "center not found")
		}
		return nil, err
	}
	shift, err := s.shifts.FindByID(ctx, req.ShiftID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return nil, err
	}

	assignments, err := s.assignments.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	firstDay := schedule.FirstDay()
	lastDay := firstDay.AddDate(0, 1, -1)
	leaves, err := s.leaves.ListApprovedOverlapping(ctx, firstDay, lastDay)
	if err != nil {
		return nil, err
	}

	result := &models.ValidationResult{Valid: true}
	doctorID := doctor.ID
	day := dateKey(date)

	currentHours := 0
	hasSameDay := false
	nightBefore := false
	prevDay := dateKey(date.AddDate(0, 0, -1))
	for _, a := range assignments {
		if a.DoctorID != doctorID {
			continue
		}
		currentHours += a.ShiftHours
		key := dateKey(a.Date)
		if key == day {
			hasSameDay = true
		}
		if a.IsOvernight && key == prevDay {
			nightBefore = true
		}
	}

	// Checks run in the same order as the schedule-wide rules.
	limit := doctor.HoursCap()
	newTotal := currentHours + shift.Hours
	if newTotal > limit {
		result.Add(models.Violation{
			Kind:     models.ViolationMonthlyHoursExceeded,
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("Would exceed monthly hours limit (%d/%dh)", newTotal, limit),
			DoctorID: &doctorID,
			Date:     &date,
			Details: map[string]interface{}{
				"current_hours": currentHours,
				"shift_hours":   shift.Hours,
				"new_total":     newTotal,
				"max_hours":     limit,
			},
		})
	}

	if shift.IsOvernight && nightBefore {
		result.Add(models.Violation{
			Kind:     models.ViolationConsecutiveNights,
			Severity: models.SeverityWarning,
			Message:  "Doctor would have consecutive night shifts",
			DoctorID: &doctorID,
			Date:     &date,
		})
	}

	for _, leave := range leaves {
		if leave.DoctorID == doctorID && leave.Covers(date) {
			result.Add(models.Violation{
				Kind:     models.ViolationLeaveConflict,
				Severity: models.SeverityError,
				Message:  fmt.Sprintf("Doctor is on approved leave on %s", req.Date),
				DoctorID: &doctorID,
				Date:     &date,
				Details:  map[string]interface{}{"leave_type": string(leave.LeaveType)},
			})
			break
		}
	}

	if hasSameDay {
		result.Add(models.Violation{
			Kind:     models.ViolationDoubleBooking,
			Severity: models.SeverityError,
			Message:  fmt.Sprintf("Doctor already has an assignment on %s", req.Date),
			DoctorID: &doctorID,
			Date:     &date,
		})
	}

	if !center.AllowsShift(shift.Code) {
		result.Add(models.Violation{
			Kind:     models.ViolationInvalidShiftForCenter,
			Severity: models.SeverityError,
			Message:  fmt.Sprintf("Shift %s is not allowed at %s", shift.Code, center.Name),
			DoctorID: &doctorID,
			CenterID: &center.ID,
			ShiftID:  &shift.ID,
			Date:     &date,
		})
	}

	return result, nil
}

func (s *ValidationService) checkMonthlyHours(assignments []models.AssignmentDetail, result *models.ValidationResult) {
	type tally struct {
		hours       int
		nationality models.Nationality
	}
	totals := make(map[string]*tally)
	for _, a := range assignments {
		t, ok := totals[a.DoctorID]
		if !ok {
			t = &tally{nationality: a.Nationality}
			totals[a.DoctorID] = t
		}
		t.hours += a.ShiftHours
	}

	for doctorID, t := range totals {
		id := doctorID
		limit := t.nationality.HoursCap()
		switch {
		case t.hours > limit:
			result.Add(models.Violation{
				Kind:     models.ViolationMonthlyHoursExceeded,
				Severity: models.SeverityError,
				Message:  fmt.Sprintf("Doctor exceeds monthly hours limit (%d/%dh)", t.hours, limit),
				DoctorID: &id,
				Details: map[string]interface{}{
					"total_hours": t.hours,
					"max_hours":   limit,
					"nationality": string(t.nationality),
				},
			})
		case float64(t.hours) > hoursWarningRatio*float64(limit):
			result.Add(models.Violation{
				Kind:     models.ViolationMonthlyHoursExceeded,
				Severity: models.SeverityWarning,
				Message:  fmt.Sprintf("Doctor approaching monthly hours limit (%d/%dh)", t.hours, limit),
				DoctorID: &id,
				Details: map[string]interface{}{
					"total_hours": t.hours,
					"max_hours":   limit,
					"nationality": string(t.nationality),
				},
			})
		}
	}
}

func (s *ValidationService) checkConsecutiveNights(assignments []models.AssignmentDetail, result *models.ValidationResult) {
	nightDates := make(map[string][]time.Time)
	for _, a := range assignments {
		if a.IsOvernight {
			nightDates[a.DoctorID] = append(nightDates[a.DoctorID], a.Date)
		}
	}

	for doctorID, dates := range nightDates {
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		for i := 1; i < len(dates); i++ {
			if dateKey(dates[i]) != dateKey(dates[i-1].AddDate(0, 0, 1)) {
				continue
			}
			id := doctorID
			date := dates[i]
			result.Add(models.Violation{
				Kind:     models.ViolationConsecutiveNights,
				Severity: models.SeverityWarning,
				Message: fmt.Sprintf("Consecutive night shifts on %s and %s",
					dates[i-1].Format(models.DateOnly), dates[i].Format(models.DateOnly)),
				DoctorID: &id,
				Date:     &date,
			})
		}
	}
}

func (s *ValidationService) checkCoverage(schedule *models.Schedule, assignments []models.AssignmentDetail, templates []models.CoverageTemplateDetail, result *models.ValidationResult) {
	counts := make(map[string]int)
	for _, a := range assignments {
		counts[slotKey(a.CenterID, a.ShiftID, a.Date)]++
	}

	firstDay := schedule.FirstDay()
	for day := 0; day < schedule.DaysInMonth(); day++ {
		date := firstDay.AddDate(0, 0, day)
		for _, tpl := range templates {
			assigned := counts[slotKey(tpl.CenterID, tpl.ShiftID, date)]
			if assigned >= tpl.MinDoctors {
				continue
			}
			centerID := tpl.CenterID
			shiftID := tpl.ShiftID
			d := date
			result.Add(models.Violation{
				Kind:     models.ViolationInsufficientCoverage,
				Severity: models.SeverityError,
				Message:  fmt.Sprintf("Insufficient coverage: %d/%d doctors", assigned, tpl.MinDoctors),
				CenterID: &centerID,
				ShiftID:  &shiftID,
				Date:     &d,
				Details: map[string]interface{}{
					"assigned": assigned,
					"required": tpl.MinDoctors,
				},
			})
		}
	}
}

func (s *ValidationService) checkLeaveConflicts(assignments []models.AssignmentDetail, leaves []models.Leave, result *models.ValidationResult) {
	byDoctor := make(map[string][]models.Leave)
	for _, l := range leaves {
		byDoctor[l.DoctorID] = append(byDoctor[l.DoctorID], l)
	}

	for _, a := range assignments {
		for _, leave := range byDoctor[a.DoctorID] {
			if !leave.Covers(a.Date) {
				continue
			}
			id := a.DoctorID
			centerID := a.CenterID
			date := a.Date
			result.Add(models.Violation{
				Kind:     models.ViolationLeaveConflict,
				Severity: models.SeverityError,
				Message:  "Assignment conflicts with approved leave",
				DoctorID: &id,
				CenterID: &centerID,
				Date:     &date,
				Details:  map[string]interface{}{"leave_type": string(leave.LeaveType)},
			})
			break
		}
	}
}

func (s *ValidationService) checkDoubleBookings(assignments []models.AssignmentDetail, result *models.ValidationResult) {
	type pair struct {
		doctorID string
		date     string
	}
	counts := make(map[pair]int)
	dates := make(map[pair]time.Time)
	for _, a := range assignments {
		p := pair{doctorID: a.DoctorID, date: dateKey(a.Date)}
		counts[p]++
		dates[p] = a.Date
	}

	for p, n := range counts {
		if n <= 1 {
			continue
		}
		id := p.doctorID
		date := dates[p]
		result.Add(models.Violation{
			Kind:     models.ViolationDoubleBooking,
			Severity: models.SeverityError,
			Message:  fmt.Sprintf("Doctor has %d assignments on same day", n),
			DoctorID: &id,
			Date:     &date,
		})
	}
}

func (s *ValidationService) checkAllowedShifts(assignments []models.AssignmentDetail, centersByID map[string]models.Center, result *models.ValidationResult) {
	for _, a := range assignments {
		center, ok := centersByID[a.CenterID]
		if !ok || center.AllowsShift(a.ShiftCode) {
			continue
		}
		id := a.DoctorID
		centerID := a.CenterID
		shiftID := a.ShiftID
		date := a.Date
		result.Add(models.Violation{
			Kind:     models.ViolationInvalidShiftForCenter,
			Severity: models.SeverityError,
			Message:  fmt.Sprintf("Shift %s is not allowed at %s", a.ShiftCode, center.Name),
			DoctorID: &id,
			CenterID: &centerID,
			ShiftID:  &shiftID,
			Date:     &date,
		})
	}
}

// sortViolations orders violations by date, then doctor, then center so
// repeated runs over the same roster produce identical output.
func sortViolations(violations []models.Violation) {
	sort.SliceStable(violations, func(i, j int) bool {
		di, dj := violationDate(violations[i]), violationDate(violations[j])
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		if a, b := derefString(violations[i].DoctorID), derefString(violations[j].DoctorID); a != b {
			return a < b
		}
		return derefString(violations[i].CenterID) < derefString(violations[j].CenterID)
	})
}

func violationDate(v models.Violation) time.Time {
	if v.Date == nil {
		return time.Time{}
	}
	return *v.Date
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dateKey(t time.Time) string {
	return t.Format(models.DateOnly)
}

func slotKey(centerID, shiftID string, date time.Time) string {
	return centerID + "|" + shiftID + "|" + dateKey(date)
}
