package dto

import "github.com/noah-isme/counseling-api/internal/models"

// ApprovalCommand is either *ApproveRequest or *RejectRequest.
type ApprovalCommand interface {
	approvalCommand()
}

// ApproveRequest activates a pending volunteer.
type ApproveRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// ApprovalCommandBody documents the POST /user-approvals body. rejectionReason is required
// when action is "reject".
type ApprovalCommandBody struct {
	Action          string `json:"action" enums:"approve,reject" validate:"required"`
	UserID          string `json:"userId" validate:"required"`
	RejectionReason string `json:"rejectionReason,omitempty"`
}

// RejectRequest closes a pending application with a reason.
type RejectRequest struct {
	UserID          string `json:"userId" validate:"required"`
	RejectionReason string `json:"rejectionReason" validate:"max=1000"`
}

func (*ApproveRequest) approvalCommand() {}
func (*RejectRequest) approvalCommand()  {}

// DecodeApprovalCommand parses a POST /user-approvals body.
func DecodeApprovalCommand(body []byte) (ApprovalCommand, error) {
	return decodeAction(body, map[string]func() ApprovalCommand{
		"approve": func() ApprovalCommand { return &ApproveRequest{} },
		"reject":  func() ApprovalCommand { return &RejectRequest{} },
	})
}

// ApprovalResult is returned after a decision.
type ApprovalResult struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}
