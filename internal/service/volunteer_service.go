package service

import (
	"context"

	"github.com/noah-isme/counseling-api/internal/models"
	appErrors "github.com/noah-isme/counseling-api/pkg/errors"
)

type volunteerLister interface {
	ListVolunteers(ctx context.Context) ([]models.VolunteerSummary, error)
}

// VolunteerService lists assignable volunteers.
type VolunteerService struct {
	users volunteerLister
}

// NewVolunteerService constructs the service.
func NewVolunteerService(users volunteerLister) *VolunteerService {
	return &VolunteerService{users: users}
}

// List returns approved active volunteers with their current caseload.
func (s *VolunteerService) List(ctx context.Context, caller models.Caller) ([]models.VolunteerSummary, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	volunteers, err := s.users.ListVolunteers(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list volunteers")
	}
	if volunteers == nil {
		volunteers = []models.VolunteerSummary{}
	}
	return volunteers, nil
}
