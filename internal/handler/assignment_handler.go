package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/counseling-api/internal/dto"
	"github.com/noah-isme/counseling-api/internal/models"
	"github.com/noah-isme/counseling-api/pkg/response"
)

type assignmentService interface {
	List(ctx context.Context, caller models.Caller) ([]models.AssignmentDetail, error)
	Handle(ctx context.Context, caller models.Caller, cmd dto.AssignmentCommand) (*models.Assignment, error)
}

// AssignmentHandler exposes volunteer to child assignment endpoints.
type AssignmentHandler struct {
	service assignmentService
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(service assignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: service}
}

// List godoc
// @Summary List assignments
// @Tags Assignments
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	assignments, err := h.service.List(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"assignments": assignments})
}

// Mutate godoc
// @Summary Assign or remove a volunteer
// @Description Body carries action "assign" with childId and volunteerId, or action "remove" with assignmentId
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.AssignmentCommandBody true "Assignment command"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Mutate(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	body, ok := readCommandBody(c)
	if !ok {
		return
	}
	cmd, err := dto.DecodeAssignmentCommand(body)
	if err != nil {
		response.Error(c, commandError(err, "assignment"))
		return
	}

	assignment, err := h.service.Handle(c.Request.Context(), caller, cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"success": true, "assignment": assignment})
}
