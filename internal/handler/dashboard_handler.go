package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/counseling-api/internal/dto"
	"github.com/noah-isme/counseling-api/internal/middleware"
	"github.com/noah-isme/counseling-api/internal/models"
	"github.com/noah-isme/counseling-api/internal/service"
	appErrors "github.com/noah-isme/counseling-api/pkg/errors"
	"github.com/noah-isme/counseling-api/pkg/response"
)

type dashboardService interface {
	Stats(ctx context.Context, caller models.Caller) (*models.DashboardStats, error)
	MapData(ctx context.Context, caller models.Caller) (*models.MapData, error)
	Trends(ctx context.Context, caller models.Caller, q dto.TrendQuery) (*models.TrendData, error)
	ConcernAnalytics(ctx context.Context, caller models.Caller) ([]models.ConcernAgeGroupRow, error)
	ExportMap(ctx context.Context, caller models.Caller, format string) (*service.ExportFile, error)
}

// DashboardHandler exposes dashboard aggregation endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Stats godoc
// @Summary Dashboard headline counts
// @Description Admins see global counts; volunteers see counts over their assigned children
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	stats, err := h.service.Stats(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "scope", string(stats.Scope))
	response.JSON(c, http.StatusOK, gin.H{"stats": stats}, nil, middleware.ExtractMeta(c))
}

// MapData godoc
// @Summary State activity map
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /dashboard/map-data [get]
func (h *DashboardHandler) MapData(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	data, err := h.service.MapData(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "states", len(data.Data))
	response.JSON(c, http.StatusOK, data, nil, middleware.ExtractMeta(c))
}

// ExportMap godoc
// @Summary Export state activity map
// @Tags Dashboard
// @Produce octet-stream
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dashboard/map-data/export [get]
func (h *DashboardHandler) ExportMap(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	format := strings.TrimSpace(c.DefaultQuery("format", "csv"))
	file, err := h.service.ExportMap(c.Request.Context(), caller, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Trends godoc
// @Summary Weekly activity trends
// @Description Without month and year the rolling window is returned
// @Tags Dashboard
// @Produce json
// @Param month query int false "Month (1-12)"
// @Param year query int false "Year"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard/trends [get]
func (h *DashboardHandler) Trends(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	var q dto.TrendQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid trend query"))
		return
	}
	trends, err := h.service.Trends(c.Request.Context(), caller, q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"success":         true,
		"data":            trends.Data,
		"availableMonths": trends.AvailableMonths,
	}, nil, middleware.ExtractMeta(c))
}

// ConcernAnalytics godoc
// @Summary Concerns by age group and category
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard/concern-analytics [get]
func (h *DashboardHandler) ConcernAnalytics(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	rows, err := h.service.ConcernAnalytics(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"data": rows}, nil, middleware.ExtractMeta(c))
}
