package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/counseling-api/internal/dto"
	"github.com/noah-isme/counseling-api/internal/models"
	appErrors "github.com/noah-isme/counseling-api/pkg/errors"
	"github.com/noah-isme/counseling-api/pkg/response"
)

type concernService interface {
	Create(ctx context.Context, caller models.Caller, req dto.CreateConcernRequest) (*models.Concern, error)
	List(ctx context.Context, caller models.Caller, childID string) ([]models.Concern, error)
	UpdateStatus(ctx context.Context, caller models.Caller, id string, req dto.UpdateConcernStatusRequest) (*models.Concern, error)
}

// ConcernHandler exposes concern tracking endpoints.
type ConcernHandler struct {
	service concernService
}

// NewConcernHandler constructs the handler.
func NewConcernHandler(service concernService) *ConcernHandler {
	return &ConcernHandler{service: service}
}

// Create godoc
// @Summary Flag a concern
// @Tags Concerns
// @Accept json
// @Produce json
// @Param payload body dto.CreateConcernRequest true "Concern payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /concerns [post]
func (h *ConcernHandler) Create(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateConcernRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid concern payload"))
		return
	}
	concern, err := h.service.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, concern)
}

// List godoc
// @Summary List concerns
// @Tags Concerns
// @Produce json
// @Param childId query string false "Child ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /concerns [get]
func (h *ConcernHandler) List(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	concerns, err := h.service.List(c.Request.Context(), caller, strings.TrimSpace(c.Query("childId")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, concerns)
}

// UpdateStatus godoc
// @Summary Advance concern status
// @Description Status only moves forward: OPEN, IN_PROGRESS, RESOLVED, CLOSED
// @Tags Concerns
// @Accept json
// @Produce json
// @Param id path string true "Concern ID"
// @Param payload body dto.UpdateConcernStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /concerns/{id}/status [patch]
func (h *ConcernHandler) UpdateStatus(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateConcernStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	concern, err := h.service.UpdateStatus(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, concern)
}
