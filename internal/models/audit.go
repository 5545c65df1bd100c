package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

const (
	AuditActionLogin           = "LOGIN"
	AuditActionLogout          = "LOGOUT"
	AuditActionSignup          = "SIGNUP"
	AuditActionApprove         = "USER_APPROVE"
	AuditActionReject          = "USER_REJECT"
	AuditActionAssign          = "ASSIGNMENT_ASSIGN"
	AuditActionUnassign        = "ASSIGNMENT_REMOVE"
	AuditActionChildCreate     = "CHILD_CREATE"
	AuditActionChildUpdate     = "CHILD_UPDATE"
	AuditActionChildDelete     = "CHILD_DELETE"
	AuditActionConcernStatus   = "CONCERN_STATUS"
	AuditActionDashboardExport = "DASHBOARD_EXPORT"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string         `db:"id" json:"id"`
	UserID     *string        `db:"user_id" json:"userId,omitempty"`
	Action     string         `db:"action" json:"action"`
	Resource   string         `db:"resource" json:"resource"`
	ResourceID *string        `db:"resource_id" json:"resourceId,omitempty"`
	OldValues  types.JSONText `db:"old_values" json:"oldValues,omitempty"`
	NewValues  types.JSONText `db:"new_values" json:"newValues,omitempty"`
	IPAddress  string         `db:"ip_address" json:"ipAddress"`
	UserAgent  string         `db:"user_agent" json:"userAgent"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
}
