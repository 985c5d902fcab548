package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medora-hq/roster-api/internal/models"
	appErrors "github.com/medora-hq/roster-api/pkg/errors"
	"github.com/medora-hq/roster-api/pkg/storage"
)

type exportFixture struct {
	svc   *ExportService
	audit *recordingAuditor
	dir   string
}

func newExportFixture(t *testing.T, schedule *models.Schedule, rows []models.AssignmentDetail, centers []models.Center) *exportFixture {
	t.Helper()
	dir := t.TempDir()
	archive, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)

	audit := &recordingAuditor{}
	svc := NewExportService(
		stubSchedules{schedule: schedule},
		stubAssignments{rows: rows},
		stubCenters{centers: centers},
		nil,
		nil,
		archive,
		audit,
		zap.NewNop(),
	)
	return &exportFixture{svc: svc, audit: audit, dir: dir}
}

func parseCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestExportAssignmentsCSV(t *testing.T) {
	late := rosterRow("doc-b", day(2025, time.January, 2), 12, true)
	early := rosterRow("doc-a", day(2025, time.January, 1), 12, false)
	early.EmployeeID = strPtr("E-9")
	f := newExportFixture(t, draftSchedule(2025, 1), []models.AssignmentDetail{late, early}, nil)

	file, err := f.svc.Assignments(context.Background(), "sched-1", "csv", "user-1", "10.0.0.1", "cli")
	require.NoError(t, err)

	require.Equal(t, "schedule_2025-01_assignments.csv", file.Name)
	require.Equal(t, "text/csv", file.ContentType)

	records := parseCSV(t, file.Data)
	require.Len(t, records, 3)
	require.Equal(t, []string{"Date", "Day", "Center", "Shift", "Shift Hours", "Doctor Name", "Doctor ID", "Nationality"}, records[0])
	// Rows come out date-ordered; the employee ID replaces the raw doctor ID.
	require.Equal(t, []string{"2025-01-01", "Wednesday", "Anb Center", "D12", "12", "Dr doc-a", "E-9", "saudi"}, records[1])
	require.Equal(t, []string{"2025-01-02", "Thursday", "Anb Center", "N12", "12", "Dr doc-b", "doc-b", "saudi"}, records[2])

	_, err = os.Stat(filepath.Join(f.dir, file.Name))
	require.NoError(t, err)

	require.Len(t, f.audit.entries, 1)
	entry := f.audit.entries[0]
	require.Equal(t, models.AuditActionExport, entry.Action)
	require.Equal(t, models.AuditEntitySchedule, entry.EntityType)
	require.Equal(t, map[string]string{"type": "assignments", "format": "csv", "file": file.Name}, entry.NewValues)
}

func TestExportDoctorHoursCSV(t *testing.T) {
	heavy := rosterRow("doc-a", day(2025, time.January, 5), 168, false)
	nightOne := rosterRow("doc-b", day(2025, time.January, 6), 12, true)
	nightOne.EmployeeID = strPtr("E-2")
	nightOne.Nationality = models.NationalityNonSaudi
	nightTwo := rosterRow("doc-b", day(2025, time.January, 8), 12, true)
	nightTwo.EmployeeID = strPtr("E-2")
	nightTwo.Nationality = models.NationalityNonSaudi

	f := newExportFixture(t, draftSchedule(2025, 1),
		[]models.AssignmentDetail{nightOne, heavy, nightTwo}, nil)

	file, err := f.svc.DoctorHours(context.Background(), "sched-1", "", "user-1", "", "")
	require.NoError(t, err)

	// Empty format defaults to CSV.
	require.Equal(t, "schedule_2025-01_doctor_hours.csv", file.Name)

	records := parseCSV(t, file.Data)
	require.Len(t, records, 3)
	require.Equal(t, []string{"Doctor Name", "Employee ID", "Nationality", "Total Hours", "Max Hours", "Hours %", "Assignments", "Night Shifts", "Over Limit"}, records[0])
	require.Equal(t, []string{"Dr doc-a", "", "saudi", "168", "160", "105.0%", "1", "0", "Yes"}, records[1])
	require.Equal(t, []string{"Dr doc-b", "E-2", "non_saudi", "24", "192", "12.5%", "2", "2", "No"}, records[2])
}

func TestExportCoverageMatrixCSV(t *testing.T) {
	centers := []models.Center{
		anbCenter(),
		{ID: "c2", Code: "XRY", Name: "Xray Center", Active: true},
	}
	solo := rosterRow("doc-a", day(2025, time.February, 1), 12, false)
	solo.DoctorName = "Dr Abdulrahman"
	first := rosterRow("doc-b", day(2025, time.February, 3), 12, false)
	first.DoctorName = "Dr Noor"
	second := rosterRow("doc-c", day(2025, time.February, 3), 12, true)
	second.DoctorName = "Dr Sami"

	f := newExportFixture(t, draftSchedule(2025, 2),
		[]models.AssignmentDetail{solo, first, second}, centers)

	file, err := f.svc.CoverageMatrix(context.Background(), "sched-1", "csv", "user-1", "", "")
	require.NoError(t, err)
	require.Equal(t, "schedule_2025-02_coverage_matrix.csv", file.Name)

	records := parseCSV(t, file.Data)
	require.Len(t, records, 3)
	require.Len(t, records[0], 29)
	require.Equal(t, "Center", records[0][0])
	require.Equal(t, "1 Sat", records[0][1])
	require.Equal(t, "2 Sun", records[0][2])

	anb := records[1]
	require.Equal(t, "ANB - Anb Center", anb[0])
	// Long names are truncated inside matrix cells.
	require.Equal(t, "Dr Abdulra(D12)", anb[1])
	require.Equal(t, "-", anb[2])
	require.Equal(t, "Dr Noor(D12), Dr Sami(N12)", anb[3])

	xray := records[2]
	require.Equal(t, "XRY - Xray Center", xray[0])
	for _, cell := range xray[1:] {
		require.Equal(t, "-", cell)
	}
}

func TestExportCoverageMatrixKeepsArabicNamesIntact(t *testing.T) {
	row := rosterRow("doc-a", day(2025, time.February, 1), 12, false)
	row.DoctorName = "Dr عبدالرحمن"
	f := newExportFixture(t, draftSchedule(2025, 2),
		[]models.AssignmentDetail{row}, []models.Center{anbCenter()})

	file, err := f.svc.CoverageMatrix(context.Background(), "sched-1", "csv", "user-1", "", "")
	require.NoError(t, err)
	require.True(t, utf8.Valid(file.Data))

	records := parseCSV(t, file.Data)
	require.Len(t, records, 2)
	// Truncation counts characters, so the multi-byte name is cut
	// cleanly at ten runes.
	require.Equal(t, "Dr عبدالرح(D12)", records[1][1])
	require.True(t, utf8.ValidString(records[1][1]))
}

func TestExportRendersPDF(t *testing.T) {
	rows := []models.AssignmentDetail{rosterRow("doc-a", day(2025, time.January, 5), 12, false)}
	f := newExportFixture(t, draftSchedule(2025, 1), rows, nil)

	file, err := f.svc.Assignments(context.Background(), "sched-1", "pdf", "user-1", "", "")
	require.NoError(t, err)

	require.Equal(t, "schedule_2025-01_assignments.pdf", file.Name)
	require.Equal(t, "application/pdf", file.ContentType)
	require.NotEmpty(t, file.Data)
	require.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	f := newExportFixture(t, draftSchedule(2025, 1), nil, nil)

	_, err := f.svc.Assignments(context.Background(), "sched-1", "xlsx", "user-1", "", "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Equal(t, "format must be csv or pdf", appErr.Message)
}

func TestExportScheduleNotFound(t *testing.T) {
	f := newExportFixture(t, nil, nil, nil)

	_, err := f.svc.Assignments(context.Background(), "missing", "csv", "user-1", "", "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
