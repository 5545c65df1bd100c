package models

import "time"

// SessionStatus is the lifecycle state of a counseling session.
type SessionStatus string

const (
	SessionPlanned    SessionStatus = "PLANNED"
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionCompleted  SessionStatus = "COMPLETED"
)

// DefaultSessionType applies when start omits a type.
const DefaultSessionType = "COUNSELING"

// Open reports whether the status counts against the one-open-session-per-child rule.
func (s SessionStatus) Open() bool {
	return s == SessionPlanned || s == SessionInProgress
}

// Session is one counseling encounter between a volunteer and a child.
type Session struct {
	ID          string        `db:"id" json:"id"`
	ChildID     string        `db:"child_id" json:"childId"`
	VolunteerID string        `db:"volunteer_id" json:"volunteerId"`
	Status      SessionStatus `db:"status" json:"status"`
	SessionType string        `db:"session_type" json:"sessionType"`
	StartedAt   *time.Time    `db:"started_at" json:"startedAt,omitempty"`
	EndedAt     *time.Time    `db:"ended_at" json:"endedAt,omitempty"`
	Notes       *string       `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updatedAt"`
}
