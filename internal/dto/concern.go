package dto

import "github.com/noah-isme/counseling-api/internal/models"

// CreateConcernRequest flags a new concern for a child.
type CreateConcernRequest struct {
	ChildID     string `json:"childId" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	Category    string `json:"category" validate:"omitempty,max=80"`
	Severity    string `json:"severity" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
}

// UpdateConcernStatusRequest advances a concern.
type UpdateConcernStatusRequest struct {
	Status models.ConcernStatus `json:"status" validate:"required,oneof=OPEN IN_PROGRESS RESOLVED CLOSED"`
}
