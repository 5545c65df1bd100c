package models

import (
	"time"

	"github.com/lib/pq"
)

// KnowledgeArticle is read-only guidance content for volunteers.
type KnowledgeArticle struct {
	ID        string         `db:"id" json:"id"`
	Title     string         `db:"title" json:"title"`
	Content   string         `db:"content" json:"content"`
	Category  string         `db:"category" json:"category"`
	Tags      pq.StringArray `db:"tags" json:"tags"`
	Language  string         `db:"language" json:"language"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}

// CulturalStory is a story volunteers may use in sessions.
type CulturalStory struct {
	ID        string         `db:"id" json:"id"`
	Title     string         `db:"title" json:"title"`
	Summary   string         `db:"summary" json:"summary"`
	Content   string         `db:"content" json:"content"`
	Region    string         `db:"region" json:"region"`
	Language  string         `db:"language" json:"language"`
	Themes    pq.StringArray `db:"themes" json:"themes"`
	AgeGroup  string         `db:"age_group" json:"ageGroup"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

// ContentFilter narrows knowledge and story lookups.
type ContentFilter struct {
	Category string
	Language string
	Search   string
	Limit    int
}
