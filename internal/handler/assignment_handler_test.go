package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/counseling-api/internal/dto"
	"github.com/noah-isme/counseling-api/internal/models"
	appErrors "github.com/noah-isme/counseling-api/pkg/errors"
)

type fakeAssignmentSrv struct {
	list    []models.AssignmentDetail
	result  *models.Assignment
	err     error
	lastCmd dto.AssignmentCommand
	caller  models.Caller
}

func (f *fakeAssignmentSrv) List(_ context.Context, caller models.Caller) ([]models.AssignmentDetail, error) {
	f.caller = caller
	return f.list, f.err
}

func (f *fakeAssignmentSrv) Handle(_ context.Context, caller models.Caller, cmd dto.AssignmentCommand) (*models.Assignment, error) {
	f.caller = caller
	f.lastCmd = cmd
	return f.result, f.err
}

func TestAssignmentHandlerRequiresCaller(t *testing.T) {
	handler := NewAssignmentHandler(&fakeAssignmentSrv{})
	c, rec := newTestContext(http.MethodGet, "/assignments", "", nil)

	handler.List(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAssignmentHandlerList(t *testing.T) {
	srv := &fakeAssignmentSrv{list: []models.AssignmentDetail{{Assignment: models.Assignment{ID: "a1"}, ChildName: "Ada"}}}
	handler := NewAssignmentHandler(srv)
	c, rec := newTestContext(http.MethodGet, "/assignments", "", adminClaims)

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Assignments []models.AssignmentDetail `json:"assignments"`
	}
	decodeData(t, rec, &payload)
	require.Len(t, payload.Assignments, 1)
	assert.Equal(t, "Ada", payload.Assignments[0].ChildName)
	assert.Equal(t, "admin-1", srv.caller.ID)
}

func TestAssignmentHandlerAssign(t *testing.T) {
	srv := &fakeAssignmentSrv{result: &models.Assignment{ID: "a1", ChildID: "c1", VolunteerID: "v1", Active: true}}
	handler := NewAssignmentHandler(srv)
	c, rec := newTestContext(http.MethodPost, "/assignments", `{"action":"assign","childId":"c1","volunteerId":"v1"}`, adminClaims)

	handler.Mutate(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, &dto.AssignRequest{ChildID: "c1", VolunteerID: "v1"}, srv.lastCmd)

	var payload struct {
		Success    bool              `json:"success"`
		Assignment models.Assignment `json:"assignment"`
	}
	decodeData(t, rec, &payload)
	assert.True(t, payload.Success)
	assert.Equal(t, "a1", payload.Assignment.ID)
	assert.True(t, payload.Assignment.Active)
}

func TestAssignmentHandlerUnknownAction(t *testing.T) {
	srv := &fakeAssignmentSrv{}
	handler := NewAssignmentHandler(srv)
	c, rec := newTestContext(http.MethodPost, "/assignments", `{"action":"transfer","assignmentId":"a1"}`, adminClaims)

	handler.Mutate(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, srv.lastCmd)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "invalid action", envelope.Error.Message)
}

func TestAssignmentHandlerConflict(t *testing.T) {
	srv := &fakeAssignmentSrv{err: appErrors.Clone(appErrors.ErrConflict, "volunteer is already assigned to this child")}
	handler := NewAssignmentHandler(srv)
	c, rec := newTestContext(http.MethodPost, "/assignments", `{"action":"assign","childId":"c1","volunteerId":"v1"}`, adminClaims)

	handler.Mutate(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "CONFLICT", envelope.Error.Code)
}
