package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/medora-hq/roster-api/internal/models"
	"github.com/medora-hq/roster-api/pkg/config"
	appErrors "github.com/medora-hq/roster-api/pkg/errors"
)

type doctorLister interface {
	ListActive(ctx context.Context) ([]models.DoctorDetail, error)
}

type assignmentReplacer interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.AssignmentDetail, error)
	BulkReplace(ctx context.Context, scheduleID string, clearExisting bool, assignments []models.Assignment) error
}

type centerLister interface {
	ListActive(ctx context.Context) ([]models.Center, error)
}

type buildAuditor interface {
	Record(ctx context.Context, entry AuditEntry)
}

type buildCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type buildMetrics interface {
	ObserveBuild(duration time.Duration, created, unfilled int)
}

// defaultMaxBuildWarnings bounds the warning list in a build result when
// no explicit limit is configured.
const defaultMaxBuildWarnings = 50

// consecutiveNightPenalty pushes a doctor to the back of the candidate
// ranking when picking them would create back-to-back overnight shifts.
const consecutiveNightPenalty = 1000

// BuilderService fills a draft schedule's mandatory coverage slots with a
// greedy pass that keeps doctor hours level. The run is deterministic:
// the same catalog and roster always produce the same assignments.
type BuilderService struct {
	schedules   scheduleReader
	assignments assignmentReplacer
	doctors     doctorLister
	centers     centerLister
	coverage    coverageLister
	leaves      leaveLister
	audit       buildAuditor
	cache       buildCacheInvalidator
	metrics     buildMetrics
	maxWarnings int
	logger      *zap.Logger
}

// NewBuilderService constructs the auto-builder.
func NewBuilderService(
	schedules scheduleReader,
	assignments assignmentReplacer,
	doctors doctorLister,
	centers centerLister,
	coverage coverageLister,
	leaves leaveLister,
	audit buildAuditor,
	cache buildCacheInvalidator,
	metrics buildMetrics,
	cfg config.BuilderConfig,
	logger *zap.Logger,
) *BuilderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxWarnings := cfg.MaxWarnings
	if maxWarnings <= 0 {
		maxWarnings = defaultMaxBuildWarnings
	}
	return &BuilderService{
		schedules:   schedules,
		assignments: assignments,
		doctors:     doctors,
		centers:     centers,
		coverage:    coverage,
		leaves:      leaves,
		audit:       audit,
		cache:       cache,
		metrics:     metrics,
		maxWarnings: maxWarnings,
		logger:      logger,
	}
}

// doctorState tracks one doctor's running load during a build.
type doctorState struct {
	doctor     models.DoctorDetail
	hours      int
	assigned   map[string]bool
	nightDates map[string]bool
	leaves     []models.Leave
}

// Build fills every mandatory (center, shift, day) slot that is still
// below its minimum. Existing assignments are kept unless the request
// asks to clear them; either way the write is a single transaction.
func (s *BuilderService) Build(ctx context.Context, scheduleID string, req models.BuildRequest, actorID, ip, userAgent string) (*models.BuildResult, error) {
	started := time.Now()

	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, err
	}
	if schedule.Status != models.ScheduleStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrInvalidStatus, "only draft schedules can be auto-built")
	}

	templates, err := s.coverage.ListMandatory(ctx)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return &models.BuildResult{Warnings: []string{"No coverage templates defined"}}, nil
	}

	doctors, err := s.doctors.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(doctors) == 0 {
		return &models.BuildResult{Warnings: []string{"No active doctors available"}}, nil
	}

	centers, err := s.centers.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	centersByID := make(map[string]models.Center, len(centers))
	for _, c := range centers {
		centersByID[c.ID] = c
	}

	firstDay := schedule.FirstDay()
	lastDay := firstDay.AddDate(0, 1, -1)
	leaves, err := s.leaves.ListApprovedOverlapping(ctx, firstDay, lastDay)
	if err != nil {
		return nil, err
	}
	leavesByDoctor := make(map[string][]models.Leave)
	for _, l := range leaves {
		leavesByDoctor[l.DoctorID] = append(leavesByDoctor[l.DoctorID], l)
	}

	var existing []models.AssignmentDetail
	if !req.ClearExisting {
		existing, err = s.assignments.ListBySchedule(ctx, scheduleID)
		if err != nil {
			return nil, err
		}
	}

	// Catalog order is the tie-break order, so the slice index matters.
	states := make([]*doctorState, len(doctors))
	stateByID := make(map[string]*doctorState, len(doctors))
	for i, d := range doctors {
		st := &doctorState{
			doctor:     d,
			assigned:   make(map[string]bool),
			nightDates: make(map[string]bool),
			leaves:     leavesByDoctor[d.ID],
		}
		states[i] = st
		stateByID[d.ID] = st
	}

	slotCounts := make(map[string]int)
	for _, a := range existing {
		slotCounts[slotKey(a.CenterID, a.ShiftID, a.Date)]++
		st, ok := stateByID[a.DoctorID]
		if !ok {
			continue
		}
		st.hours += a.ShiftHours
		key := dateKey(a.Date)
		st.assigned[key] = true
		if a.IsOvernight {
			st.nightDates[key] = true
		}
	}

	result := &models.BuildResult{}
	var created []models.Assignment

	for day := 0; day < schedule.DaysInMonth(); day++ {
		date := firstDay.AddDate(0, 0, day)
		for _, tpl := range templates {
			needed := tpl.MinDoctors - slotCounts[slotKey(tpl.CenterID, tpl.ShiftID, date)]
			for i := 0; i < needed; i++ {
				st := s.bestDoctor(states, centersByID, tpl, date)
				if st == nil {
					result.SlotsUnfilled++
					if len(result.Warnings) < s.maxWarnings {
						result.Warnings = append(result.Warnings,
							fmt.Sprintf("Could not fill %s-%s on %s", tpl.CenterCode, tpl.ShiftCode, date.Format(models.DateOnly)))
					}
					continue
				}

				created = append(created, models.Assignment{
					ScheduleID: scheduleID,
					DoctorID:   st.doctor.ID,
					CenterID:   tpl.CenterID,
					ShiftID:    tpl.ShiftID,
					Date:       date,
				})
				result.AssignmentsCreated++
				slotCounts[slotKey(tpl.CenterID, tpl.ShiftID, date)]++

				key := dateKey(date)
				st.hours += tpl.ShiftHours
				st.assigned[key] = true
				if tpl.IsOvernight {
					st.nightDates[key] = true
				}
			}
		}
	}

	if err := s.assignments.BulkReplace(ctx, scheduleID, req.ClearExisting, created); err != nil {
		return nil, err
	}

	result.Success = result.SlotsUnfilled == 0

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, reportCachePattern(scheduleID)); err != nil {
			s.logger.Warn("report cache invalidation failed", zap.String("schedule_id", scheduleID), zap.Error(err))
		}
	}
	if s.audit != nil {
		s.audit.Record(ctx, AuditEntry{
			UserID:     actorID,
			Action:     models.AuditActionAutoBuild,
			EntityType: models.AuditEntitySchedule,
			EntityID:   scheduleID,
			NewValues:  result,
			IPAddress:  ip,
			UserAgent:  userAgent,
		})
	}
	if s.metrics != nil {
		s.metrics.ObserveBuild(time.Since(started), result.AssignmentsCreated, result.SlotsUnfilled)
	}

	s.logger.Info("schedule auto-build finished",
		zap.String("schedule_id", scheduleID),
		zap.Int("created", result.AssignmentsCreated),
		zap.Int("unfilled", result.SlotsUnfilled),
		zap.Bool("success", result.Success))

	return result, nil
}

// bestDoctor picks the eligible doctor with the lowest score for the
// slot. Score is current hours, plus a penalty when the pick would
// create consecutive overnight shifts. Ties go to catalog order.
func (s *BuilderService) bestDoctor(states []*doctorState, centersByID map[string]models.Center, tpl models.CoverageTemplateDetail, date time.Time) *doctorState {
	center, ok := centersByID[tpl.CenterID]
	if !ok || !center.AllowsShift(tpl.ShiftCode) {
		return nil
	}

	key := dateKey(date)
	var best *doctorState
	bestScore := 0

	for _, st := range states {
		if st.assigned[key] {
			continue
		}
		if onApprovedLeave(st.leaves, date) {
			continue
		}
		if st.hours+tpl.ShiftHours > st.doctor.HoursCap() {
			continue
		}

		score := st.hours
		if tpl.IsOvernight {
			prev := dateKey(date.AddDate(0, 0, -1))
			next := dateKey(date.AddDate(0, 0, 1))
			if st.nightDates[prev] || st.nightDates[next] {
				score += consecutiveNightPenalty
			}
		}

		if best == nil || score < bestScore {
			best = st
			bestScore = score
		}
	}

	return best
}

func onApprovedLeave(leaves []models.Leave, date time.Time) bool {
	for _, l := range leaves {
		if l.Covers(date) {
			return true
		}
	}
	return false
}

// reportCachePattern matches every cached report for a schedule.
func reportCachePattern(scheduleID string) string {
	return "reports:" + scheduleID + ":*"
}
