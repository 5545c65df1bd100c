package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/counseling-api/internal/models"
	appErrors "github.com/noah-isme/counseling-api/pkg/errors"
)

type fakeAuthSrv struct {
	info        *models.UserInfo
	login       *models.LoginResponse
	err         error
	lastLogin   models.LoginRequest
	lastSignup  models.SignupRequest
	lastLogout  string
	logoutFor   models.Caller
	meCalledFor models.Caller
}

func (f *fakeAuthSrv) Signup(_ context.Context, req models.SignupRequest) (*models.UserInfo, error) {
	f.lastSignup = req
	return f.info, f.err
}

func (f *fakeAuthSrv) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.lastLogin = req
	return f.login, f.err
}

func (f *fakeAuthSrv) RefreshToken(context.Context, models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	return &models.RefreshTokenResponse{AccessToken: "new"}, f.err
}

func (f *fakeAuthSrv) Logout(_ context.Context, caller models.Caller, refreshToken string) error {
	f.logoutFor = caller
	f.lastLogout = refreshToken
	return f.err
}

func (f *fakeAuthSrv) Me(_ context.Context, caller models.Caller) (*models.UserInfo, error) {
	f.meCalledFor = caller
	return f.info, f.err
}

func TestAuthHandlerSignup(t *testing.T) {
	srv := &fakeAuthSrv{info: &models.UserInfo{ID: "u1", ApprovalStatus: models.ApprovalPending}}
	handler := NewAuthHandler(srv)
	c, rec := newTestContext(http.MethodPost, "/auth/signup", `{"email":"a@example.com","password":"secret123","fullName":"Ada"}`, nil)

	handler.Signup(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Ada", srv.lastSignup.FullName)
	var info models.UserInfo
	envelope := decodeData(t, rec, &info)
	assert.Equal(t, models.ApprovalPending, info.ApprovalStatus)
	assert.Equal(t, "account created and awaiting approval", envelope.Message)
}

func TestAuthHandlerLoginPendingApproval(t *testing.T) {
	srv := &fakeAuthSrv{err: appErrors.ErrPendingApproval}
	handler := NewAuthHandler(srv)
	c, rec := newTestContext(http.MethodPost, "/auth/login", `{"email":"a@example.com","password":"secret123"}`, nil)
	c.Request.Header.Set("User-Agent", "test-agent")

	handler.Login(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "test-agent", srv.lastLogin.UserAgent)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "ACCOUNT_PENDING_APPROVAL", envelope.Error.Code)
}

func TestAuthHandlerLoginInvalidJSON(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthSrv{})
	c, rec := newTestContext(http.MethodPost, "/auth/login", `{"email":`, nil)

	handler.Login(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandlerLogout(t *testing.T) {
	srv := &fakeAuthSrv{}
	handler := NewAuthHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/auth/logout", `{}`, volunteerClaims)
	handler.Logout(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, _ = newTestContext(http.MethodPost, "/auth/logout", `{"refreshToken":"rt-1"}`, volunteerClaims)
	handler.Logout(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "rt-1", srv.lastLogout)
	assert.Equal(t, "vol-1", srv.logoutFor.ID)
}

func TestAuthHandlerMe(t *testing.T) {
	srv := &fakeAuthSrv{info: &models.UserInfo{ID: "vol-1", Role: models.RoleVolunteer}}
	handler := NewAuthHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/auth/me", "", nil)
	handler.Me(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newTestContext(http.MethodGet, "/auth/me", "", volunteerClaims)
	handler.Me(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.Caller{ID: "vol-1", Role: models.RoleVolunteer}, srv.meCalledFor)
}
