package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/counseling-api/internal/dto"
	"github.com/noah-isme/counseling-api/internal/models"
	"github.com/noah-isme/counseling-api/pkg/response"
)

type approvalService interface {
	List(ctx context.Context, caller models.Caller, status models.ApprovalStatus) ([]models.User, error)
	Handle(ctx context.Context, caller models.Caller, cmd dto.ApprovalCommand) (*dto.ApprovalResult, error)
}

// ApprovalHandler serves the volunteer approval workflow.
type ApprovalHandler struct {
	service approvalService
}

// NewApprovalHandler constructs the handler.
func NewApprovalHandler(service approvalService) *ApprovalHandler {
	return &ApprovalHandler{service: service}
}

// List godoc
// @Summary List volunteers by approval status
// @Tags Approvals
// @Produce json
// @Param status query string false "PENDING, APPROVED or REJECTED"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /user-approvals [get]
func (h *ApprovalHandler) List(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	status := models.ApprovalStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
	users, err := h.service.List(c.Request.Context(), caller, status)
	if err != nil {
		response.Error(c, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	response.OK(c, gin.H{"users": users})
}

// Decide godoc
// @Summary Approve or reject a volunteer
// @Description Body carries userId, action "approve" or "reject", and rejectionReason for rejections
// @Tags Approvals
// @Accept json
// @Produce json
// @Param payload body dto.ApprovalCommandBody true "Approval command"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /user-approvals [post]
func (h *ApprovalHandler) Decide(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	body, ok := readCommandBody(c)
	if !ok {
		return
	}
	cmd, err := dto.DecodeApprovalCommand(body)
	if err != nil {
		response.Error(c, commandError(err, "approval"))
		return
	}

	result, err := h.service.Handle(c.Request.Context(), caller, cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
