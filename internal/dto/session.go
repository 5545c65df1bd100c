package dto

import "github.com/noah-isme/counseling-api/internal/models"

// SessionCommand is either *StartSessionRequest or *EndSessionRequest.
type SessionCommand interface {
	sessionCommand()
}

// StartSessionRequest opens or resumes the child's session.
type StartSessionRequest struct {
	ChildID     string `json:"childId" validate:"required"`
	SessionType string `json:"sessionType" validate:"omitempty,max=50"`
}

// SessionCommandBody documents the POST /sessions body: action "start" uses childId and
// sessionType, action "end" uses sessionId and notes.
type SessionCommandBody struct {
	Action      string  `json:"action" enums:"start,end" validate:"required"`
	ChildID     string  `json:"childId,omitempty"`
	SessionType string  `json:"sessionType,omitempty"`
	SessionID   string  `json:"sessionId,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// EndSessionRequest completes a session.
type EndSessionRequest struct {
	SessionID string  `json:"sessionId" validate:"required"`
	Notes     *string `json:"notes" validate:"omitempty,max=5000"`
}

func (*StartSessionRequest) sessionCommand() {}
func (*EndSessionRequest) sessionCommand()   {}

// DecodeSessionCommand parses a POST /sessions body.
func DecodeSessionCommand(body []byte) (SessionCommand, error) {
	return decodeAction(body, map[string]func() SessionCommand{
		"start": func() SessionCommand { return &StartSessionRequest{} },
		"end":   func() SessionCommand { return &EndSessionRequest{} },
	})
}

// SessionResponse wraps a single session.
type SessionResponse struct {
	Session *models.Session `json:"session"`
}
