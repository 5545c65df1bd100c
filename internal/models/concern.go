package models

import "time"

// ConcernStatus progresses strictly forward.
type ConcernStatus string

const (
	ConcernOpen       ConcernStatus = "OPEN"
	ConcernInProgress ConcernStatus = "IN_PROGRESS"
	ConcernResolved   ConcernStatus = "RESOLVED"
	ConcernClosed     ConcernStatus = "CLOSED"
)

var concernRank = map[ConcernStatus]int{
	ConcernOpen:       0,
	ConcernInProgress: 1,
	ConcernResolved:   2,
	ConcernClosed:     3,
}

// Valid reports whether s is a known status.
func (s ConcernStatus) Valid() bool {
	_, ok := concernRank[s]
	return ok
}

// CanAdvanceTo reports whether next is strictly later than s.
func (s ConcernStatus) CanAdvanceTo(next ConcernStatus) bool {
	from, ok := concernRank[s]
	if !ok {
		return false
	}
	to, ok := concernRank[next]
	return ok && to > from
}

// Concern is an issue flagged for a child.
type Concern struct {
	ID          string        `db:"id" json:"id"`
	ChildID     string        `db:"child_id" json:"childId"`
	Title       string        `db:"title" json:"title"`
	Description string        `db:"description" json:"description"`
	Category    string        `db:"category" json:"category"`
	Severity    string        `db:"severity" json:"severity"`
	Status      ConcernStatus `db:"status" json:"status"`
	CreatedBy   *string       `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updatedAt"`
	ResolvedAt  *time.Time    `db:"resolved_at" json:"resolvedAt,omitempty"`
}
