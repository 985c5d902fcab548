package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medora-hq/roster-api/internal/models"
	"github.com/medora-hq/roster-api/internal/service"
	appErrors "github.com/medora-hq/roster-api/pkg/errors"
	"github.com/medora-hq/roster-api/pkg/response"
)

// ScheduleHandler exposes schedule lifecycle, validation, auto-build,
// reporting and export endpoints.
type ScheduleHandler struct {
	schedules  *service.ScheduleService
	validation *service.ValidationService
	builder    *service.BuilderService
	fairness   *service.FairnessService
	statistics *service.StatisticsService
	exports    *service.ExportService
}

// NewScheduleHandler constructs ScheduleHandler.
func NewScheduleHandler(
	schedules *service.ScheduleService,
	validation *service.ValidationService,
	builder *service.BuilderService,
	fairness *service.FairnessService,
	statistics *service.StatisticsService,
	exports *service.ExportService,
) *ScheduleHandler {
	return &ScheduleHandler{
		schedules:  schedules,
		validation: validation,
		builder:    builder,
		fairness:   fairness,
		statistics: statistics,
		exports:    exports,
	}
}

// List godoc
// @Summary List schedules
// @Tags Schedules
// @Produce json
// @Param year query int false "Filter by year"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	var filter models.ScheduleFilter
	if year := c.Query("year"); year != "" {
		if y, err := strconv.Atoi(year); err == nil {
			filter.Year = &y
		}
	}
	if status := c.Query("status"); status != "" {
		s := models.ScheduleStatus(status)
		filter.Status = &s
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	schedules, pagination, err := h.schedules.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, pagination)
}

// Get godoc
// @Summary Get schedule detail
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.schedules.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// GetByMonth godoc
// @Summary Get the schedule for a given month
// @Tags Schedules
// @Produce json
// @Param year path int true "Year"
// @Param month path int true "Month (1-12)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules/by-month/{year}/{month} [get]
func (h *ScheduleHandler) GetByMonth(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be an integer"))
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12"))
		return
	}
	schedule, err := h.schedules.GetByMonth(c.Request.Context(), year, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Create godoc
// @Summary Create schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.CreateScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req service.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	actorID, ip, userAgent := actorFromContext(c)
	schedule, err := h.schedules.Create(c.Request.Context(), req, actorID, ip, userAgent)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, schedule)
}

// Update godoc
// @Summary Update schedule metadata
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body service.UpdateScheduleRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	var req service.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	actorID, ip, userAgent := actorFromContext(c)
	schedule, err := h.schedules.Update(c.Request.Context(), c.Param("id"), req, actorID, ip, userAgent)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Delete godoc
// @Summary Delete draft schedule
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	actorID, ip, userAgent := actorFromContext(c)
	if err := h.schedules.Delete(c.Request.Context(), c.Param("id"), actorID, ip, userAgent); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Publish godoc
// @Summary Publish schedule
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules/{id}/publish [post]
func (h *ScheduleHandler) Publish(c *gin.Context) {
	h.transition(c, models.ScheduleActionPublish)
}

// Unpublish godoc
// @Summary Revert a published schedule to draft
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules/{id}/unpublish [post]
func (h *ScheduleHandler) Unpublish(c *gin.Context) {
	h.transition(c, models.ScheduleActionUnpublish)
}

// Archive godoc
// @Summary Archive schedule
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules/{id}/archive [post]
func (h *ScheduleHandler) Archive(c *gin.Context) {
	h.transition(c, models.ScheduleActionArchive)
}

// Unarchive godoc
// @Summary Restore an archived schedule to draft
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules/{id}/unarchive [post]
func (h *ScheduleHandler) Unarchive(c *gin.Context) {
	h.transition(c, models.ScheduleActionUnarchive)
}

func (h *ScheduleHandler) transition(c *gin.Context, action models.ScheduleAction) {
	actorID, ip, userAgent := actorFromContext(c)
	schedule, err := h.schedules.Transition(c.Request.Context(), c.Param("id"), action, actorID, ip, userAgent)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Validate godoc
// @Summary Validate full schedule
// @Description Runs every scheduling constraint against the schedule's assignments
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/validate [post]
func (h *ScheduleHandler) Validate(c *gin.Context) {
	result, err := h.validation.ValidateSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ValidateAssignment godoc
// @Summary Validate a prospective assignment
// @Description Checks a single doctor/center/shift/date combination before it is saved
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body models.CandidateRequest true "Candidate payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules/{id}/validate-assignment [post]
func (h *ScheduleHandler) ValidateAssignment(c *gin.Context) {
	var req models.CandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.validation.ValidateCandidate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Build godoc
// @Summary Auto-build schedule assignments
// @Description Greedily fills every mandatory slot in the month
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body models.BuildRequest false "Build options"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules/{id}/build [post]
func (h *ScheduleHandler) Build(c *gin.Context) {
	var req models.BuildRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	actorID, ip, userAgent := actorFromContext(c)
	result, err := h.builder.Build(c.Request.Context(), c.Param("id"), req, actorID, ip, userAgent)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Statistics godoc
// @Summary Schedule statistics report
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/statistics [get]
func (h *ScheduleHandler) Statistics(c *gin.Context) {
	report, err := h.statistics.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Fairness godoc
// @Summary Schedule fairness report
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/fairness [get]
func (h *ScheduleHandler) Fairness(c *gin.Context) {
	report, err := h.fairness.Analyze(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ExportAssignments godoc
// @Summary Export assignment list
// @Tags Schedules
// @Produce text/csv
// @Param id path string true "Schedule ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /schedules/{id}/export/assignments [get]
func (h *ScheduleHandler) ExportAssignments(c *gin.Context) {
	actorID, ip, userAgent := actorFromContext(c)
	file, err := h.exports.Assignments(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", "csv"), actorID, ip, userAgent)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeExport(c, file)
}

// ExportDoctorHours godoc
// @Summary Export per-doctor hour totals
// @Tags Schedules
// @Produce text/csv
// @Param id path string true "Schedule ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /schedules/{id}/export/doctor-hours [get]
func (h *ScheduleHandler) ExportDoctorHours(c *gin.Context) {
	actorID, ip, userAgent := actorFromContext(c)
	file, err := h.exports.DoctorHours(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", "csv"), actorID, ip, userAgent)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeExport(c, file)
}

// ExportCoverageMatrix godoc
// @Summary Export day-by-center coverage matrix
// @Tags Schedules
// @Produce text/csv
// @Param id path string true "Schedule ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /schedules/{id}/export/coverage-matrix [get]
func (h *ScheduleHandler) ExportCoverageMatrix(c *gin.Context) {
	actorID, ip, userAgent := actorFromContext(c)
	file, err := h.exports.CoverageMatrix(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", "csv"), actorID, ip, userAgent)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeExport(c, file)
}

func writeExport(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
