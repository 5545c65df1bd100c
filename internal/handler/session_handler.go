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

const defaultMemoryLimit = 20

type sessionService interface {
	Handle(ctx context.Context, caller models.Caller, cmd dto.SessionCommand) (*models.Session, error)
	Get(ctx context.Context, caller models.Caller, id string) (*models.Session, error)
	ListByChild(ctx context.Context, caller models.Caller, childID string) ([]models.Session, error)
}

type summaryService interface {
	Save(ctx context.Context, caller models.Caller, req dto.SaveSummaryRequest) (*dto.SaveSummaryResult, error)
	Get(ctx context.Context, caller models.Caller, sessionID string) (*models.SessionSummary, error)
	Memories(ctx context.Context, caller models.Caller, childID string, limit int) ([]models.ConversationMemory, error)
}

// SessionHandler serves the session lifecycle and post-session summaries.
type SessionHandler struct {
	sessions  sessionService
	summaries summaryService
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(sessions sessionService, summaries summaryService) *SessionHandler {
	return &SessionHandler{sessions: sessions, summaries: summaries}
}

// Transition godoc
// @Summary Start or end a session
// @Description Body carries action "start" with childId, or action "end" with sessionId and optional notes
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.SessionCommandBody true "Session command"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Transition(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	body, ok := readCommandBody(c)
	if !ok {
		return
	}
	cmd, err := dto.DecodeSessionCommand(body)
	if err != nil {
		response.Error(c, commandError(err, "session"))
		return
	}

	session, err := h.sessions.Handle(c.Request.Context(), caller, cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.SessionResponse{Session: session})
}

// List godoc
// @Summary List sessions for a child
// @Tags Sessions
// @Produce json
// @Param childId query string true "Child ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	childID := strings.TrimSpace(c.Query("childId"))
	if childID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "childId is required"))
		return
	}
	sessions, err := h.sessions.ListByChild(c.Request.Context(), caller, childID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"sessions": sessions})
}

// Get godoc
// @Summary Get session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	session, err := h.sessions.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.SessionResponse{Session: session})
}

// SaveSummary godoc
// @Summary Save session summary
// @Description Drafts keep the session open; a final save completes it and records memories
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.SaveSummaryRequest true "Summary payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/summary [post]
func (h *SessionHandler) SaveSummary(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	var req dto.SaveSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid summary payload"))
		return
	}

	result, err := h.summaries.Save(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"success": true, "summary": result.Summary, "message": result.Message})
}

// GetSummary godoc
// @Summary Get session summary
// @Tags Sessions
// @Produce json
// @Param sessionId query string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/summary [get]
func (h *SessionHandler) GetSummary(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	sessionID := strings.TrimSpace(c.Query("sessionId"))
	if sessionID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "sessionId is required"))
		return
	}
	summary, err := h.summaries.Get(c.Request.Context(), caller, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"success": true, "summary": summary})
}

// Memories godoc
// @Summary List conversation memories for a child
// @Tags Sessions
// @Produce json
// @Param id path string true "Child ID"
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /children/{id}/memories [get]
func (h *SessionHandler) Memories(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	limit, err := queryInt(c, "limit", defaultMemoryLimit)
	if err != nil {
		response.Error(c, err)
		return
	}
	if limit <= 0 || limit > 100 {
		limit = defaultMemoryLimit
	}
	memories, err := h.summaries.Memories(c.Request.Context(), caller, c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"memories": memories})
}
