package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/counseling-api/internal/models"
	"github.com/noah-isme/counseling-api/pkg/response"
)

type volunteerService interface {
	List(ctx context.Context, caller models.Caller) ([]models.VolunteerSummary, error)
}

// VolunteerHandler lists assignable volunteers.
type VolunteerHandler struct {
	service volunteerService
}

// NewVolunteerHandler constructs the handler.
func NewVolunteerHandler(service volunteerService) *VolunteerHandler {
	return &VolunteerHandler{service: service}
}

// List godoc
// @Summary List approved volunteers with caseload
// @Tags Volunteers
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /volunteers [get]
func (h *VolunteerHandler) List(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	volunteers, err := h.service.List(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, volunteers)
}
