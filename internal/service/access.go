package service

import (
	"context"

	"github.com/noah-isme/counseling-api/internal/models"
	appErrors "github.com/noah-isme/counseling-api/pkg/errors"
)

type assignmentChecker interface {
	IsActive(ctx context.Context, childID, volunteerID string) (bool, error)
}

func requireAdmin(caller models.Caller) error {
	if caller.ID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if !caller.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "admin access required")
	}
	return nil
}

// ensureChildAccess lets admins through and requires volunteers to hold an active assignment.
func ensureChildAccess(ctx context.Context, checker assignmentChecker, caller models.Caller, childID string) error {
	if caller.ID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if caller.IsAdmin() {
		return nil
	}
	ok, err := checker.IsActive(ctx, childID, caller.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify assignment")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "you are not assigned to this child")
	}
	return nil
}

// volunteerScope returns the volunteer id reads must be scoped to, empty for admins.
func volunteerScope(caller models.Caller) string {
	if caller.IsAdmin() {
		return ""
	}
	return caller.ID
}
