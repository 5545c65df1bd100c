package models

import (
	"time"

	"github.com/lib/pq"
)

// Child is a minor receiving counseling.
type Child struct {
	ID          string         `db:"id" json:"id"`
	FullName    string         `db:"full_name" json:"fullName"`
	DateOfBirth *time.Time     `db:"date_of_birth" json:"dateOfBirth,omitempty"`
	Age         *int           `db:"age" json:"age,omitempty"`
	Gender      string         `db:"gender" json:"gender"`
	State       string         `db:"state" json:"state"`
	District    string         `db:"district" json:"district"`
	City        string         `db:"city" json:"city"`
	Background  string         `db:"background" json:"background"`
	Interests   pq.StringArray `db:"interests" json:"interests"`
	Challenges  pq.StringArray `db:"challenges" json:"challenges"`
	Language    string         `db:"language" json:"language"`
	Active      bool           `db:"active" json:"isActive"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

// AgeAt derives the child's age in whole years, preferring date of birth over the stored age.
func (c *Child) AgeAt(now time.Time) (int, bool) {
	if c.DateOfBirth != nil {
		return YearsBetween(*c.DateOfBirth, now), true
	}
	if c.Age != nil {
		return *c.Age, true
	}
	return 0, false
}

// YearsBetween counts completed years from birth to now.
func YearsBetween(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

// ChildFilter narrows child listings. VolunteerID scopes to actively assigned children.
type ChildFilter struct {
	Search      string
	State       string
	VolunteerID string
	Page        int
	PageSize    int
}
