package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/medora-hq/roster-api/internal/models"
	appErrors "github.com/medora-hq/roster-api/pkg/errors"
)

// maxReportedGaps bounds the gap list in a statistics report; the gap
// counter still reflects every understaffed slot.
const maxReportedGaps = 20

// StatisticsService computes per-doctor and coverage analytics for a
// schedule.
type StatisticsService struct {
	schedules   scheduleReader
	assignments assignmentLister
	doctors     doctorLister
	coverage    coverageLister
	cache       reportCache
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewStatisticsService constructs the statistics reporter.
func NewStatisticsService(
	schedules scheduleReader,
	assignments assignmentLister,
	doctors doctorLister,
	coverage coverageLister,
	cache reportCache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *StatisticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatisticsService{
		schedules:   schedules,
		assignments: assignments,
		doctors:     doctors,
		coverage:    coverage,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// Report computes the statistics report for a schedule. Results are
// cached until the roster changes.
func (s *StatisticsService) Report(ctx context.Context, scheduleID string) (*models.StatisticsReport, error) {
	cacheKey := statisticsCacheKey(scheduleID)
	if s.cache != nil {
		var cached models.StatisticsReport
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("statistics cache read failed", zap.String("schedule_id", scheduleID), zap.Error(err))
		}
	}

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

	doctors, err := s.doctors.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	templates, err := s.coverage.ListMandatory(ctx)
	if err != nil {
		return nil, err
	}

	report := &models.StatisticsReport{ScheduleID: scheduleID}
	report.Doctors = doctorStatistics(doctors, assignments)
	gaps, totalSlots, filledSlots, gapsCount := coverageStatistics(schedule, assignments, templates)
	report.Gaps = gaps

	report.Summary = summarize(schedule, assignments, report.Doctors, totalSlots, filledSlots, gapsCount)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, report, s.cacheTTL); err != nil {
			s.logger.Warn("statistics cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return report, nil
}

// doctorStatistics aggregates hours per active doctor, including doctors
// without any assignment, sorted by total hours descending.
func doctorStatistics(doctors []models.DoctorDetail, assignments []models.AssignmentDetail) []models.DoctorStatistics {
	byDoctor := make(map[string][]models.AssignmentDetail)
	for _, a := range assignments {
		byDoctor[a.DoctorID] = append(byDoctor[a.DoctorID], a)
	}

	stats := make([]models.DoctorStatistics, 0, len(doctors))
	for _, d := range doctors {
		rows := byDoctor[d.ID]
		limit := d.HoursCap()

		totalHours := 0
		overnight := 0
		breakdown := make(map[string]int)
		for _, a := range rows {
			totalHours += a.ShiftHours
			breakdown[a.ShiftCode]++
			if a.IsOvernight {
				overnight++
			}
		}

		employeeID := d.ID
		if d.EmployeeID != nil && *d.EmployeeID != "" {
			employeeID = *d.EmployeeID
		}

		stats = append(stats, models.DoctorStatistics{
			DoctorID:       d.ID,
			DoctorName:     d.FullName,
			EmployeeID:     employeeID,
			Nationality:    d.Nationality,
			TotalHours:     totalHours,
			MaxHours:       limit,
			HoursPercent:   round1(float64(totalHours) / float64(limit) * 100),
			Assignments:    len(rows),
			NightShifts:    overnight,
			ShiftBreakdown: breakdown,
			OverLimit:      totalHours > limit,
		})
	}

	// Heaviest load first; catalog order breaks ties.
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TotalHours > stats[j].TotalHours
	})
	return stats
}

// coverageStatistics walks every (day, mandatory template) slot and
// accounts for required versus filled capacity.
func coverageStatistics(schedule *models.Schedule, assignments []models.AssignmentDetail, templates []models.CoverageTemplateDetail) ([]models.CoverageGap, int, int, int) {
	counts := make(map[string]int)
	for _, a := range assignments {
		counts[slotKey(a.CenterID, a.ShiftID, a.Date)]++
	}

	firstDay := schedule.FirstDay()
	totalSlots := 0
	filledSlots := 0
	gapsCount := 0
	var gaps []models.CoverageGap

	for day := 0; day < schedule.DaysInMonth(); day++ {
		date := firstDay.AddDate(0, 0, day)
		for _, tpl := range templates {
			required := tpl.MinDoctors
			actual := counts[slotKey(tpl.CenterID, tpl.ShiftID, date)]

			totalSlots += required
			if actual < required {
				filledSlots += actual
				gapsCount++
				if len(gaps) < maxReportedGaps {
					gaps = append(gaps, models.CoverageGap{
						CenterID:   tpl.CenterID,
						CenterCode: tpl.CenterCode,
						ShiftID:    tpl.ShiftID,
						ShiftCode:  tpl.ShiftCode,
						Date:       date,
						Required:   required,
						Assigned:   actual,
					})
				}
			} else {
				filledSlots += required
			}
		}
	}
	return gaps, totalSlots, filledSlots, gapsCount
}

func summarize(schedule *models.Schedule, assignments []models.AssignmentDetail, doctors []models.DoctorStatistics, totalSlots, filledSlots, gapsCount int) models.StatisticsSummary {
	totalHours := 0
	withAssignments := 0
	overLimit := 0
	var hoursList []float64
	for _, d := range doctors {
		totalHours += d.TotalHours
		if d.Assignments > 0 {
			withAssignments++
			hoursList = append(hoursList, float64(d.TotalHours))
		}
		if d.OverLimit {
			overLimit++
		}
	}

	avgHours := 0.0
	if withAssignments > 0 {
		avgHours = float64(totalHours) / float64(withAssignments)
	}

	coveragePct := 0.0
	if totalSlots > 0 {
		coveragePct = float64(filledSlots) / float64(totalSlots) * 100
	}

	return models.StatisticsSummary{
		TotalAssignments:       len(assignments),
		TotalHours:             totalHours,
		DaysInMonth:            schedule.DaysInMonth(),
		TotalDoctors:           len(doctors),
		DoctorsWithAssignments: withAssignments,
		AverageHours:           round1(avgHours),
		DoctorsOverCap:         overLimit,
		WorkloadBalance:        workloadBalance(hoursList),
		CoveragePercentage:     round1(coveragePct),
		GapsCount:              gapsCount,
	}
}

// workloadBalance maps the spread of hours among working doctors onto
// [0, 100] using the population standard deviation.
func workloadBalance(hours []float64) float64 {
	if len(hours) <= 1 {
		return 100
	}
	m := mean(hours)
	if m == 0 {
		return 0
	}
	var sum float64
	for _, h := range hours {
		sum += (h - m) * (h - m)
	}
	sd := math.Sqrt(sum / float64(len(hours)))
	return round1(math.Max(0, 100-sd/m*100))
}

func statisticsCacheKey(scheduleID string) string {
	return "reports:" + scheduleID + ":statistics"
}
