package models

import "time"

// Assignment links one volunteer to one child. A pair owns at most one row.
type Assignment struct {
	ID          string    `db:"id" json:"id"`
	ChildID     string    `db:"child_id" json:"childId"`
	VolunteerID string    `db:"volunteer_id" json:"volunteerId"`
	Active      bool      `db:"is_active" json:"isActive"`
	AssignedAt  time.Time `db:"assigned_at" json:"assignedAt"`
	AssignedBy  *string   `db:"assigned_by" json:"assignedBy,omitempty"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// AssignmentDetail is an active assignment joined with child and volunteer summaries.
type AssignmentDetail struct {
	Assignment
	ChildName      string `db:"child_name" json:"childName"`
	ChildState     string `db:"child_state" json:"childState"`
	VolunteerName  string `db:"volunteer_name" json:"volunteerName"`
	VolunteerEmail string `db:"volunteer_email" json:"volunteerEmail"`
}
