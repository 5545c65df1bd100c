package models

import (
	"time"

	"github.com/lib/pq"
)

// MemoryType classifies a conversation memory.
type MemoryType string

const (
	MemoryInsight      MemoryType = "IMPORTANT_INSIGHT"
	MemoryBreakthrough MemoryType = "BREAKTHROUGH_MOMENT"
	MemoryWarning      MemoryType = "WARNING_SIGN"
)

// ConversationMemory is a durable note derived from a submitted summary.
type ConversationMemory struct {
	ID          string         `db:"id" json:"id"`
	ChildID     string         `db:"child_id" json:"childId"`
	SessionID   string         `db:"session_id" json:"sessionId"`
	VolunteerID string         `db:"volunteer_id" json:"volunteerId"`
	Type        MemoryType     `db:"memory_type" json:"memoryType"`
	Content     string         `db:"content" json:"content"`
	Importance  int            `db:"importance" json:"importance"`
	Tags        pq.StringArray `db:"tags" json:"tags"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}

// MemoryEntry is the closed set of memory variants a summary can emit.
type MemoryEntry interface {
	memoryType() MemoryType
	importance() int
	text() string
	tags() []string
}

// InsightMemory records a key insight, tagged with the discussed topics.
type InsightMemory struct {
	Text   string
	Topics []string
}

// BreakthroughMemory records a breakthrough moment, tagged with the discussed topics.
type BreakthroughMemory struct {
	Text   string
	Topics []string
}

// WarningMemory records challenges faced during the session.
type WarningMemory struct {
	Text string
}

func (m InsightMemory) memoryType() MemoryType { return MemoryInsight }
func (m InsightMemory) importance() int        { return 4 }
func (m InsightMemory) text() string           { return m.Text }
func (m InsightMemory) tags() []string         { return m.Topics }

func (m BreakthroughMemory) memoryType() MemoryType { return MemoryBreakthrough }
func (m BreakthroughMemory) importance() int        { return 5 }
func (m BreakthroughMemory) text() string           { return m.Text }
func (m BreakthroughMemory) tags() []string         { return m.Topics }

func (m WarningMemory) memoryType() MemoryType { return MemoryWarning }
func (m WarningMemory) importance() int        { return 3 }
func (m WarningMemory) text() string           { return m.Text }
func (m WarningMemory) tags() []string         { return []string{"challenges"} }

// NewConversationMemory materialises any entry variant into a persistable row.
func NewConversationMemory(id string, entry MemoryEntry, session *Session, createdAt time.Time) ConversationMemory {
	tags := entry.tags()
	if tags == nil {
		tags = []string{}
	}
	return ConversationMemory{
		ID:          id,
		ChildID:     session.ChildID,
		SessionID:   session.ID,
		VolunteerID: session.VolunteerID,
		Type:        entry.memoryType(),
		Content:     entry.text(),
		Importance:  entry.importance(),
		Tags:        pq.StringArray(append([]string(nil), tags...)),
		CreatedAt:   createdAt,
	}
}
