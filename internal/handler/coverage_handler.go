package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medora-hq/roster-api/internal/models"
	"github.com/medora-hq/roster-api/internal/service"
	appErrors "github.com/medora-hq/roster-api/pkg/errors"
	"github.com/medora-hq/roster-api/pkg/response"
)

// CoverageHandler exposes coverage template endpoints.
type CoverageHandler struct {
	coverage *service.CoverageService
}

// NewCoverageHandler constructs CoverageHandler.
func NewCoverageHandler(coverage *service.CoverageService) *CoverageHandler {
	return &CoverageHandler{coverage: coverage}
}

// List godoc
// @Summary List coverage templates
// @Tags Coverage
// @Produce json
// @Param centerId query string false "Filter by center"
// @Param shiftId query string false "Filter by shift"
// @Param mandatory query bool false "Filter by mandatory flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /coverage [get]
func (h *CoverageHandler) List(c *gin.Context) {
	var filter models.CoverageTemplateFilter
	filter.CenterID = c.Query("centerId")
	filter.ShiftID = c.Query("shiftId")
	filter.Mandatory = parseBoolQuery(c, "mandatory")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	templates, pagination, err := h.coverage.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, templates, pagination)
}

// Get godoc
// @Summary Get coverage template detail
// @Tags Coverage
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Router /coverage/{id} [get]
func (h *CoverageHandler) Get(c *gin.Context) {
	template, err := h.coverage.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, template, nil)
}

// Create godoc
// @Summary Create coverage template
// @Tags Coverage
// @Accept json
// @Produce json
// @Param payload body service.CreateCoverageRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Router /coverage [post]
func (h *CoverageHandler) Create(c *gin.Context) {
	var req service.CreateCoverageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	actorID, ip, userAgent := actorFromContext(c)
	template, err := h.coverage.Create(c.Request.Context(), req, actorID, ip, userAgent)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, template)
}

// Update godoc
// @Summary Update coverage template
// @Tags Coverage
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body service.UpdateCoverageRequest true "Template payload"
// @Success 200 {object} response.Envelope
// @Router /coverage/{id} [put]
func (h *CoverageHandler) Update(c *gin.Context) {
	var req service.UpdateCoverageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	actorID, ip, userAgent := actorFromContext(c)
	template, err := h.coverage.Update(c.Request.Context(), c.Param("id"), req, actorID, ip, userAgent)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, template, nil)
}

// Delete godoc
// @Summary Delete coverage template
// @Tags Coverage
// @Produce json
// @Param id path string true "Template ID"
// @Success 204
// @Router /coverage/{id} [delete]
func (h *CoverageHandler) Delete(c *gin.Context) {
	actorID, ip, userAgent := actorFromContext(c)
	if err := h.coverage.Delete(c.Request.Context(), c.Param("id"), actorID, ip, userAgent); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
