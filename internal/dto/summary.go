package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/counseling-api/internal/models"
)

// SummaryData is the free-form summary payload captured after a session.
type SummaryData struct {
	SessionSummary       string            `json:"sessionSummary" validate:"omitempty,max=10000"`
	InitialMood          string            `json:"initialMood"`
	FinalMood            string            `json:"finalMood"`
	ConcernsDiscussed    []string          `json:"concernsDiscussed"`
	TopicsDiscussed      []string          `json:"topicsDiscussed"`
	CulturalStoriesUsed  []string          `json:"culturalStoriesUsed"`
	StoryEffectiveness   map[string]string `json:"storyEffectiveness"`
	TechniquesUsed       []string          `json:"techniquesUsed"`
	KeyInsights          string            `json:"keyInsights"`
	Breakthroughs        string            `json:"breakthroughs"`
	ChallengesFaced      string            `json:"challengesFaced"`
	EngagementLevel      string            `json:"engagementLevel"`
	ParticipationLevel   string            `json:"participationLevel"`
	NextSessionFocus     string            `json:"nextSessionFocus"`
	NextSessionTiming    string            `json:"nextSessionTiming"`
	NextSteps            []string          `json:"nextSteps"`
	ActionItems          []string          `json:"actionItems"`
	SessionEffectiveness string            `json:"sessionEffectiveness"`
	OverallProgress      string            `json:"overallProgress"`
	RiskIndicators       []string          `json:"riskIndicators"`
	CounselorNotes       string            `json:"counselorNotes"`
	FollowUpDate         *time.Time        `json:"followUpDate"`
}

// SaveSummaryRequest is the POST /sessions/summary body.
type SaveSummaryRequest struct {
	SessionID   string      `json:"sessionId" validate:"required"`
	SummaryData SummaryData `json:"summaryData"`
	IsDraft     bool        `json:"isDraft"`
}

// SaveSummaryResult reports the stored summary and the save mode.
type SaveSummaryResult struct {
	Summary *models.SessionSummary `json:"summary"`
	Message string                 `json:"message"`
}

// StoryEffectivenessJSON encodes the story map, defaulting to an empty object.
func (d SummaryData) StoryEffectivenessJSON() ([]byte, error) {
	if len(d.StoryEffectiveness) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(d.StoryEffectiveness)
}
