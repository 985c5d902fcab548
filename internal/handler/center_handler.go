package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medora-hq/roster-api/internal/models"
	"github.com/medora-hq/roster-api/internal/service"
	appErrors "github.com/medora-hq/roster-api/pkg/errors"
	"github.com/medora-hq/roster-api/pkg/response"
)

// CenterHandler exposes medical center endpoints.
type CenterHandler struct {
	centers *service.CenterService
}

// NewCenterHandler constructs CenterHandler.
func NewCenterHandler(centers *service.CenterService) *CenterHandler {
	return &CenterHandler{centers: centers}
}

// List godoc
// @Summary List centers
// @Tags Centers
// @Produce json
// @Param active query bool false "Filter by active state"
// @Param search query string false "Search by code or name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /centers [get]
func (h *CenterHandler) List(c *gin.Context) {
	var filter models.CenterFilter
	filter.Active = parseBoolQuery(c, "active")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	centers, pagination, err := h.centers.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, centers, pagination)
}

// Get godoc
// @Summary Get center detail
// @Tags Centers
// @Produce json
// @Param id path string true "Center ID"
// @Success 200 {object} response.Envelope
// @Router /centers/{id} [get]
func (h *CenterHandler) Get(c *gin.Context) {
	center, err := h.centers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, center, nil)
}

// Create godoc
// @Summary Create center
// @Tags Centers
// @Accept json
// @Produce json
// @Param payload body service.CreateCenterRequest true "Center payload"
// @Success 201 {object} response.Envelope
// @Router /centers [post]
func (h *CenterHandler) Create(c *gin.Context) {
	var req service.CreateCenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	actorID, ip, userAgent := actorFromContext(c)
	center, err := h.centers.Create(c.Request.Context(), req, actorID, ip, userAgent)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, center)
}

// Update godoc
// @Summary Update center
// @Tags Centers
// @Accept json
// @Produce json
// @Param id path string true "Center ID"
// @Param payload body service.UpdateCenterRequest true "Center payload"
// @Success 200 {object} response.Envelope
// @Router /centers/{id} [put]
func (h *CenterHandler) Update(c *gin.Context) {
	var req service.UpdateCenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	actorID, ip, userAgent := actorFromContext(c)
	center, err := h.centers.Update(c.Request.Context(), c.Param("id"), req, actorID, ip, userAgent)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, center, nil)
}

// Delete godoc
// @Summary Deactivate center
// @Tags Centers
// @Produce json
// @Param id path string true "Center ID"
// @Success 204
// @Router /centers/{id} [delete]
func (h *CenterHandler) Delete(c *gin.Context) {
	actorID, ip, userAgent := actorFromContext(c)
	if err := h.centers.Deactivate(c.Request.Context(), c.Param("id"), actorID, ip, userAgent); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
