package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/medora-hq/roster-api/internal/models"
	"github.com/medora-hq/roster-api/pkg/export"
	appErrors "github.com/medora-hq/roster-api/pkg/errors"
)

// Export formats accepted by the export endpoints.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// matrixNameWidth truncates doctor names inside coverage matrix cells so
// a month of columns stays readable.
const matrixNameWidth = 10

type exportArchiver interface {
	Save(filename string, data []byte) (string, error)
}

type exportAuditor interface {
	Record(ctx context.Context, entry AuditEntry)
}

// ExportFile is a rendered export ready to stream to the client.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ExportService renders schedule data as CSV or PDF downloads and keeps
// an archived copy of everything it produces.
type ExportService struct {
	schedules   scheduleReader
	assignments assignmentLister
	centers     centerLister
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	archive     exportArchiver
	audit       exportAuditor
	logger      *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(
	schedules scheduleReader,
	assignments assignmentLister,
	centers centerLister,
	csv *export.CSVExporter,
	pdf *export.PDFExporter,
	archive exportArchiver,
	audit exportAuditor,
	logger *zap.Logger,
) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		schedules:   schedules,
		assignments: assignments,
		centers:     centers,
		csv:         csv,
		pdf:         pdf,
		archive:     archive,
		audit:       audit,
		logger:      logger,
	}
}

// Assignments exports the full roster, one row per assignment, ordered
// by date, then center, then shift.
func (s *ExportService) Assignments(ctx context.Context, scheduleID, format, actorID, ip, userAgent string) (*ExportFile, error) {
	schedule, rows, err := s.load(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	sorted := make([]models.AssignmentDetail, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		if sorted[i].CenterCode != sorted[j].CenterCode {
			return sorted[i].CenterCode < sorted[j].CenterCode
		}
		return sorted[i].ShiftCode < sorted[j].ShiftCode
	})

	table := export.Table{Headers: []string{"Date", "Day", "Center", "Shift", "Shift Hours", "Doctor Name", "Doctor ID", "Nationality"}}
	for _, a := range sorted {
		doctorRef := a.DoctorID
		if a.EmployeeID != nil && *a.EmployeeID != "" {
			doctorRef = *a.EmployeeID
		}
		table.AddRow(
			a.Date.Format(models.DateOnly),
			a.Date.Weekday().String(),
			a.CenterName,
			a.ShiftCode,
			strconv.Itoa(a.ShiftHours),
			a.DoctorName,
			doctorRef,
			string(a.Nationality),
		)
	}

	return s.render(ctx, schedule, table, "assignments", format, actorID, ip, userAgent)
}

// DoctorHours exports the per-doctor monthly totals, heaviest load
// first.
func (s *ExportService) DoctorHours(ctx context.Context, scheduleID, format, actorID, ip, userAgent string) (*ExportFile, error) {
	schedule, rows, err := s.load(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	type tally struct {
		name        string
		employeeID  string
		nationality models.Nationality
		hours       int
		assignments int
		nights      int
	}
	totals := make(map[string]*tally)
	var order []string
	for _, a := range rows {
		t, ok := totals[a.DoctorID]
		if !ok {
			employeeID := ""
			if a.EmployeeID != nil {
				employeeID = *a.EmployeeID
			}
			t = &tally{name: a.DoctorName, employeeID: employeeID, nationality: a.Nationality}
			totals[a.DoctorID] = t
			order = append(order, a.DoctorID)
		}
		t.hours += a.ShiftHours
		t.assignments++
		if a.IsOvernight {
			t.nights++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return totals[order[i]].hours > totals[order[j]].hours
	})

	table := export.Table{Headers: []string{"Doctor Name", "Employee ID", "Nationality", "Total Hours", "Max Hours", "Hours %", "Assignments", "Night Shifts", "Over Limit"}}
	for _, id := range order {
		t := totals[id]
		limit := t.nationality.HoursCap()
		overLimit := "No"
		if t.hours > limit {
			overLimit = "Yes"
		}
		table.AddRow(
			t.name,
			t.employeeID,
			string(t.nationality),
			strconv.Itoa(t.hours),
			strconv.Itoa(limit),
			fmt.Sprintf("%.1f%%", float64(t.hours)/float64(limit)*100),
			strconv.Itoa(t.assignments),
			strconv.Itoa(t.nights),
			overLimit,
		)
	}

	return s.render(ctx, schedule, table, "doctor_hours", format, actorID, ip, userAgent)
}

// CoverageMatrix exports a centers-by-days grid with the staffed
// doctors in each cell.
func (s *ExportService) CoverageMatrix(ctx context.Context, scheduleID, format, actorID, ip, userAgent string) (*ExportFile, error) {
	schedule, rows, err := s.load(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	centers, err := s.centers.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	days := schedule.DaysInMonth()
	firstDay := schedule.FirstDay()

	cells := make(map[string][]string, len(centers))
	for _, a := range rows {
		name := truncateName(a.DoctorName, matrixNameWidth)
		key := a.CenterID + "|" + strconv.Itoa(a.Date.Day())
		cells[key] = append(cells[key], fmt.Sprintf("%s(%s)", name, a.ShiftCode))
	}

	headers := make([]string, 0, days+1)
	headers = append(headers, "Center")
	for day := 1; day <= days; day++ {
		date := firstDay.AddDate(0, 0, day-1)
		headers = append(headers, fmt.Sprintf("%d %s", day, date.Format("Mon")))
	}

	table := export.Table{Headers: headers}
	for _, center := range centers {
		row := make([]string, 0, days+1)
		row = append(row, fmt.Sprintf("%s - %s", center.Code, center.Name))
		for day := 1; day <= days; day++ {
			cell := "-"
			if staffed := cells[center.ID+"|"+strconv.Itoa(day)]; len(staffed) > 0 {
				cell = strings.Join(staffed, ", ")
			}
			row = append(row, cell)
		}
		table.AddRow(row...)
	}

	return s.render(ctx, schedule, table, "coverage_matrix", format, actorID, ip, userAgent)
}

// truncateName limits a display name to max characters. Truncation is
// by rune, not byte, so Arabic names stay valid UTF-8.
func truncateName(name string, max int) string {
	runes := []rune(name)
	if len(runes) <= max {
		return name
	}
	return string(runes[:max])
}

func (s *ExportService) load(ctx context.Context, scheduleID string) (*models.Schedule, []models.AssignmentDetail, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, nil, err
	}
	rows, err := s.assignments.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, nil, err
	}
	return schedule, rows, nil
}

func (s *ExportService) render(ctx context.Context, schedule *models.Schedule, table export.Table, kind, format, actorID, ip, userAgent string) (*ExportFile, error) {
	if format == "" {
		format = ExportFormatCSV
	}

	base := fmt.Sprintf("schedule_%04d-%02d_%s", schedule.Year, schedule.Month, kind)
	file := &ExportFile{}

	switch format {
	case ExportFormatCSV:
		data, err := s.csv.Render(table)
		if err != nil {
			return nil, err
		}
		file.Name = base + ".csv"
		file.ContentType = "text/csv"
		file.Data = data
	case ExportFormatPDF:
		title := fmt.Sprintf("Schedule %04d-%02d %s", schedule.Year, schedule.Month, kind)
		data, err := s.pdf.Render(table, title)
		if err != nil {
			return nil, err
		}
		file.Name = base + ".pdf"
		file.ContentType = "application/pdf"
		file.Data = data
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	if s.archive != nil {
		if _, err := s.archive.Save(file.Name, file.Data); err != nil {
			s.logger.Warn("export archive failed", zap.String("file", file.Name), zap.Error(err))
		}
	}
	if s.audit != nil {
		s.audit.Record(ctx, AuditEntry{
			UserID:     actorID,
			Action:     models.AuditActionExport,
			EntityType: models.AuditEntitySchedule,
			EntityID:   schedule.ID,
			NewValues:  map[string]string{"type": kind, "format": format, "file": file.Name},
			IPAddress:  ip,
			UserAgent:  userAgent,
		})
	}

	return file, nil
}
