package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/counseling-api/internal/dto"
	"github.com/noah-isme/counseling-api/internal/models"
	appErrors "github.com/noah-isme/counseling-api/pkg/errors"
	"github.com/noah-isme/counseling-api/pkg/response"
)

type childService interface {
	List(ctx context.Context, caller models.Caller, q dto.ChildQuery) ([]models.Child, *models.Pagination, error)
	Get(ctx context.Context, caller models.Caller, id string) (*models.Child, error)
	Create(ctx context.Context, caller models.Caller, req dto.ChildRequest) (*models.Child, error)
	Update(ctx context.Context, caller models.Caller, id string, req dto.ChildRequest) (*models.Child, error)
	Delete(ctx context.Context, caller models.Caller, id string) error
}

// ChildHandler exposes child record endpoints.
type ChildHandler struct {
	service childService
}

// NewChildHandler constructs the handler.
func NewChildHandler(service childService) *ChildHandler {
	return &ChildHandler{service: service}
}

// List godoc
// @Summary List children
// @Description Volunteers only see children actively assigned to them
// @Tags Children
// @Produce json
// @Param search query string false "Name search"
// @Param state query string false "State filter"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /children [get]
func (h *ChildHandler) List(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	page, err := queryInt(c, "page", 1)
	if err != nil {
		response.Error(c, err)
		return
	}
	pageSize, err := queryInt(c, "pageSize", 20)
	if err != nil {
		response.Error(c, err)
		return
	}

	children, pagination, err := h.service.List(c.Request.Context(), caller, dto.ChildQuery{
		Search:   c.Query("search"),
		State:    c.Query("state"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, children, pagination)
}

// Get godoc
// @Summary Get child
// @Tags Children
// @Produce json
// @Param id path string true "Child ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /children/{id} [get]
func (h *ChildHandler) Get(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	child, err := h.service.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, child)
}

// Create godoc
// @Summary Create child
// @Tags Children
// @Accept json
// @Produce json
// @Param payload body dto.ChildRequest true "Child payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /children [post]
func (h *ChildHandler) Create(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	var req dto.ChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid child payload"))
		return
	}
	child, err := h.service.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, child)
}

// Update godoc
// @Summary Update child
// @Tags Children
// @Accept json
// @Produce json
// @Param id path string true "Child ID"
// @Param payload body dto.ChildRequest true "Child payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /children/{id} [put]
func (h *ChildHandler) Update(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	var req dto.ChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid child payload"))
		return
	}
	child, err := h.service.Update(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, child)
}

// Delete godoc
// @Summary Delete child
// @Description Soft deletes the child and closes its active assignments
// @Tags Children
// @Param id path string true "Child ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /children/{id} [delete]
func (h *ChildHandler) Delete(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
