package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// ResolutionStatus is derived from the summary's effectiveness and outstanding action items.
type ResolutionStatus string

const (
	ResolutionResolved   ResolutionStatus = "RESOLVED"
	ResolutionInProgress ResolutionStatus = "IN_PROGRESS"
)

// MaxEffectiveness is the rating that, with no action items left, resolves a session.
const MaxEffectiveness = "Very Effective"

// SessionSummary is the 1:1 structured record attached to a session.
type SessionSummary struct {
	ID                   string           `db:"id" json:"id"`
	SessionID            string           `db:"session_id" json:"sessionId"`
	VolunteerID          string           `db:"volunteer_id" json:"volunteerId"`
	Summary              string           `db:"summary" json:"summary"`
	InitialMood          string           `db:"initial_mood" json:"initialMood"`
	FinalMood            string           `db:"final_mood" json:"finalMood"`
	ConcernsDiscussed    pq.StringArray   `db:"concerns_discussed" json:"concernsDiscussed"`
	TopicsDiscussed      pq.StringArray   `db:"topics_discussed" json:"topicsDiscussed"`
	CulturalStoriesUsed  pq.StringArray   `db:"cultural_stories_used" json:"culturalStoriesUsed"`
	StoryEffectiveness   types.JSONText   `db:"story_effectiveness" json:"storyEffectiveness"`
	TechniquesUsed       pq.StringArray   `db:"techniques_used" json:"techniquesUsed"`
	KeyInsights          string           `db:"key_insights" json:"keyInsights"`
	Breakthroughs        string           `db:"breakthroughs" json:"breakthroughs"`
	ChallengesFaced      string           `db:"challenges_faced" json:"challengesFaced"`
	EngagementLevel      string           `db:"engagement_level" json:"engagementLevel"`
	ParticipationLevel   string           `db:"participation_level" json:"participationLevel"`
	NextSessionFocus     string           `db:"next_session_focus" json:"nextSessionFocus"`
	NextSessionTiming    string           `db:"next_session_timing" json:"nextSessionTiming"`
	NextSteps            pq.StringArray   `db:"next_steps" json:"nextSteps"`
	ActionItems          pq.StringArray   `db:"action_items" json:"actionItems"`
	SessionEffectiveness string           `db:"session_effectiveness" json:"sessionEffectiveness"`
	OverallProgress      string           `db:"overall_progress" json:"overallProgress"`
	RiskIndicators       pq.StringArray   `db:"risk_indicators" json:"riskIndicators"`
	CounselorNotes       string           `db:"counselor_notes" json:"counselorNotes"`
	ResolutionStatus     ResolutionStatus `db:"resolution_status" json:"resolutionStatus"`
	FollowUpNeeded       bool             `db:"follow_up_needed" json:"followUpNeeded"`
	FollowUpDate         *time.Time       `db:"follow_up_date" json:"followUpDate,omitempty"`
	IsDraft              bool             `db:"is_draft" json:"isDraft"`
	CreatedAt            time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time        `db:"updated_at" json:"updatedAt"`
}
