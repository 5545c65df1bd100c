package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleVolunteer UserRole = "VOLUNTEER"
)

// ApprovalStatus tracks the admin decision on a signed-up account.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// Valid reports whether s is a known approval status.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID              string         `db:"id" json:"id"`
	Email           string         `db:"email" json:"email"`
	PasswordHash    string         `db:"password_hash" json:"-"`
	FullName        string         `db:"full_name" json:"fullName"`
	Role            UserRole       `db:"role" json:"role"`
	ApprovalStatus  ApprovalStatus `db:"approval_status" json:"approvalStatus"`
	Active          bool           `db:"active" json:"isActive"`
	State           string         `db:"state" json:"state"`
	Specialization  string         `db:"specialization" json:"specialization"`
	Experience      string         `db:"experience" json:"experience"`
	Motivation      string         `db:"motivation" json:"motivation"`
	RejectionReason *string        `db:"rejection_reason" json:"rejectionReason,omitempty"`
	ApprovedBy      *string        `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time     `db:"approved_at" json:"approvedAt,omitempty"`
	LastLogin       *time.Time     `db:"last_login" json:"lastLogin,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`
}

// CanWork reports whether the account may sign in and receive work.
func (u *User) CanWork() bool {
	if !u.Active {
		return false
	}
	return u.Role == RoleAdmin || u.ApprovalStatus == ApprovalApproved
}

// VolunteerSummary is an approved volunteer with their active caseload.
type VolunteerSummary struct {
	ID                string `db:"id" json:"id"`
	Email             string `db:"email" json:"email"`
	FullName          string `db:"full_name" json:"fullName"`
	State             string `db:"state" json:"state"`
	Specialization    string `db:"specialization" json:"specialization"`
	ActiveAssignments int    `db:"active_assignments" json:"activeAssignments"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}
