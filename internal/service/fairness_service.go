package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/medora-hq/roster-api/internal/models"
	"github.com/medora-hq/roster-api/pkg/config"
	appErrors "github.com/medora-hq/roster-api/pkg/errors"
)

type holidayLister interface {
	ListByRange(ctx context.Context, from, to time.Time) ([]models.Holiday, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// balanceThreshold is the score under which a metric earns a
// recommendation.
const balanceThreshold = 70.0

// FairnessService scores how evenly a schedule spreads night, weekend
// and holiday shifts and total hours across doctors.
type FairnessService struct {
	schedules   scheduleReader
	assignments assignmentLister
	doctors     doctorLister
	holidays    holidayLister
	cache       reportCache
	weekendDays map[time.Weekday]bool
	fallback    map[string]bool
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewFairnessService constructs the fairness analyzer.
func NewFairnessService(
	schedules scheduleReader,
	assignments assignmentLister,
	doctors doctorLister,
	holidays holidayLister,
	cache reportCache,
	cfg config.FairnessConfig,
	logger *zap.Logger,
) *FairnessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	weekend := parseWeekendDays(cfg.WeekendDays)
	fallback := make(map[string]bool, len(cfg.FallbackHolidays))
	for _, d := range cfg.FallbackHolidays {
		fallback[d] = true
	}
	return &FairnessService{
		schedules:   schedules,
		assignments: assignments,
		doctors:     doctors,
		holidays:    holidays,
		cache:       cache,
		weekendDays: weekend,
		fallback:    fallback,
		cacheTTL:    cfg.CacheTTL,
		logger:      logger,
	}
}

// Analyze computes the fairness report for a schedule. Results are
// cached until the roster changes.
func (s *FairnessService) Analyze(ctx context.Context, scheduleID string) (*models.FairnessReport, error) {
	cacheKey := fairnessCacheKey(scheduleID)
	if s.cache != nil {
		var cached models.FairnessReport
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("fairness cache read failed", zap.String("schedule_id", scheduleID), zap.Error(err))
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
	activeIDs := make(map[string]bool, len(doctors))
	for _, d := range doctors {
		activeIDs[d.ID] = true
	}

	holidaySet, err := s.holidaySet(ctx, schedule)
	if err != nil {
		return nil, err
	}

	counters := make(map[string]*models.DoctorFairness)
	var order []string
	for _, a := range assignments {
		if !activeIDs[a.DoctorID] {
			continue
		}
		c, ok := counters[a.DoctorID]
		if !ok {
			c = &models.DoctorFairness{DoctorID: a.DoctorID, DoctorName: a.DoctorName}
			counters[a.DoctorID] = c
			order = append(order, a.DoctorID)
		}
		if a.IsOvernight {
			c.NightShifts++
		}
		if s.weekendDays[a.Date.Weekday()] {
			c.WeekendShifts++
		}
		if holidaySet[dateKey(a.Date)] {
			c.HolidayShifts++
		}
		c.TotalHours += a.ShiftHours
	}

	report := &models.FairnessReport{ScheduleID: scheduleID}

	if len(counters) == 0 {
		report.NightBalance = 100
		report.WeekendBalance = 100
		report.HolidayBalance = 100
		report.HoursBalance = 100
		report.OverallScore = 100
		report.Recommendations = []string{"No assignments found for this schedule."}
		s.cacheReport(ctx, cacheKey, report)
		return report, nil
	}

	nights := make([]float64, 0, len(order))
	weekends := make([]float64, 0, len(order))
	holidays := make([]float64, 0, len(order))
	hours := make([]float64, 0, len(order))
	for _, id := range order {
		c := counters[id]
		nights = append(nights, float64(c.NightShifts))
		weekends = append(weekends, float64(c.WeekendShifts))
		holidays = append(holidays, float64(c.HolidayShifts))
		hours = append(hours, float64(c.TotalHours))
	}

	nightBalance := balanceScore(nights)
	weekendBalance := balanceScore(weekends)
	holidayBalance := balanceScore(holidays)
	hoursBalance := balanceScore(hours)

	report.NightBalance = round1(nightBalance)
	report.WeekendBalance = round1(weekendBalance)
	report.HolidayBalance = round1(holidayBalance)
	report.HoursBalance = round1(hoursBalance)
	report.OverallScore = round1((nightBalance + weekendBalance + holidayBalance + hoursBalance) / 4)

	avgNights := mean(nights)
	avgWeekends := mean(weekends)
	avgHolidays := mean(holidays)
	avgHours := mean(hours)

	for _, id := range order {
		c := counters[id]
		c.Score = individualScore(c, avgNights, avgWeekends, avgHolidays, avgHours)
		report.Doctors = append(report.Doctors, *c)
	}
	// Lowest score first: the most overloaded doctors lead the list.
	sort.SliceStable(report.Doctors, func(i, j int) bool {
		return report.Doctors[i].Score < report.Doctors[j].Score
	})

	report.Recommendations = s.recommendations(report.Doctors, nightBalance, weekendBalance, holidayBalance, hoursBalance)

	s.cacheReport(ctx, cacheKey, report)
	return report, nil
}

func (s *FairnessService) holidaySet(ctx context.Context, schedule *models.Schedule) (map[string]bool, error) {
	firstDay := schedule.FirstDay()
	lastDay := firstDay.AddDate(0, 1, -1)

	stored, err := s.holidays.ListByRange(ctx, firstDay, lastDay)
	if err != nil {
		return nil, err
	}
	if len(stored) > 0 {
		set := make(map[string]bool, len(stored))
		for _, h := range stored {
			set[dateKey(h.Date)] = true
		}
		return set, nil
	}
	return s.fallback, nil
}

func (s *FairnessService) recommendations(doctors []models.DoctorFairness, nightBalance, weekendBalance, holidayBalance, hoursBalance float64) []string {
	var out []string

	if nightBalance < balanceThreshold && len(doctors) >= 2 {
		byNights := make([]models.DoctorFairness, len(doctors))
		copy(byNights, doctors)
		sort.SliceStable(byNights, func(i, j int) bool {
			if byNights[i].NightShifts != byNights[j].NightShifts {
				return byNights[i].NightShifts > byNights[j].NightShifts
			}
			return byNights[i].DoctorID < byNights[j].DoctorID
		})
		top := byNights[0]
		bottom := byNights[len(byNights)-1]
		if top.NightShifts > bottom.NightShifts+2 {
			out = append(out, fmt.Sprintf("Consider reassigning night shifts from %s (%d) to %s (%d)",
				top.DoctorName, top.NightShifts, bottom.DoctorName, bottom.NightShifts))
		}
	}
	if weekendBalance < balanceThreshold {
		out = append(out, "Weekend shift distribution is uneven. Review weekend assignments to balance workload.")
	}
	if holidayBalance < balanceThreshold {
		out = append(out, "Holiday shift distribution needs attention. Consider rotating holiday assignments more evenly.")
	}
	if hoursBalance < balanceThreshold {
		out = append(out, "Total hours vary significantly between doctors. Review assignment distribution.")
	}
	if len(out) == 0 {
		out = append(out, "Schedule fairness is good! No immediate action needed.")
	}
	return out
}

func (s *FairnessService) cacheReport(ctx context.Context, key string, report *models.FairnessReport) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, report, s.cacheTTL); err != nil {
		s.logger.Warn("fairness cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// balanceScore maps the coefficient of variation of the values onto
// [0, 100]: a CV of zero scores 100, a CV of 50% or more scores zero.
func balanceScore(values []float64) float64 {
	if len(values) == 0 || allZero(values) {
		return 100
	}
	m := mean(values)
	if m == 0 {
		return 100
	}
	sd := sampleStdev(values, m)
	cv := sd / m * 100
	return math.Max(0, 100-cv*2)
}

// individualScore converts a doctor's average signed deviation from the
// group means into [0, 100]. Only metrics with a non-zero mean count.
func individualScore(c *models.DoctorFairness, avgNights, avgWeekends, avgHolidays, avgHours float64) float64 {
	var deviations []float64
	if avgNights > 0 {
		deviations = append(deviations, (float64(c.NightShifts)-avgNights)/avgNights)
	}
	if avgWeekends > 0 {
		deviations = append(deviations, (float64(c.WeekendShifts)-avgWeekends)/avgWeekends)
	}
	if avgHolidays > 0 {
		deviations = append(deviations, (float64(c.HolidayShifts)-avgHolidays)/avgHolidays)
	}
	if avgHours > 0 {
		deviations = append(deviations, (float64(c.TotalHours)-avgHours)/avgHours)
	}
	if len(deviations) == 0 {
		return 100
	}
	score := math.Max(0, math.Min(100, 100-mean(deviations)*100))
	return round1(score)
}

func parseWeekendDays(names []string) map[time.Weekday]bool {
	lookup := map[string]time.Weekday{
		"SUN": time.Sunday, "MON": time.Monday, "TUE": time.Tuesday, "WED": time.Wednesday,
		"THU": time.Thursday, "FRI": time.Friday, "SAT": time.Saturday,
	}
	out := make(map[time.Weekday]bool)
	for _, n := range names {
		if day, ok := lookup[strings.ToUpper(strings.TrimSpace(n))]; ok {
			out[day] = true
		}
	}
	if len(out) == 0 {
		out[time.Friday] = true
		out[time.Saturday] = true
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdev returns the sample standard deviation, zero for a single
// value.
func sampleStdev(values []float64, m float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func allZero(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return false
		}
	}
	return true
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func fairnessCacheKey(scheduleID string) string {
	return "reports:" + scheduleID + ":fairness"
}
