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

type fakeChildSrv struct {
	children  []models.Child
	child     *models.Child
	err       error
	lastQuery dto.ChildQuery
	lastReq   dto.ChildRequest
	lastID    string
}

func (f *fakeChildSrv) List(_ context.Context, _ models.Caller, q dto.ChildQuery) ([]models.Child, *models.Pagination, error) {
	f.lastQuery = q
	return f.children, &models.Pagination{Page: q.Page, PageSize: q.PageSize, TotalCount: len(f.children)}, f.err
}

func (f *fakeChildSrv) Get(_ context.Context, _ models.Caller, id string) (*models.Child, error) {
	f.lastID = id
	return f.child, f.err
}

func (f *fakeChildSrv) Create(_ context.Context, _ models.Caller, req dto.ChildRequest) (*models.Child, error) {
	f.lastReq = req
	return f.child, f.err
}

func (f *fakeChildSrv) Update(_ context.Context, _ models.Caller, id string, req dto.ChildRequest) (*models.Child, error) {
	f.lastID = id
	f.lastReq = req
	return f.child, f.err
}

func (f *fakeChildSrv) Delete(_ context.Context, _ models.Caller, id string) error {
	f.lastID = id
	return f.err
}

func TestChildHandlerListPassesFilters(t *testing.T) {
	srv := &fakeChildSrv{children: []models.Child{{ID: "c1", FullName: "Ada"}}}
	handler := NewChildHandler(srv)
	c, rec := newTestContext(http.MethodGet, "/children?search=ada&state=Lagos&page=2&pageSize=10", "", adminClaims)

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.ChildQuery{Search: "ada", State: "Lagos", Page: 2, PageSize: 10}, srv.lastQuery)

	var children []models.Child
	envelope := decodeData(t, rec, &children)
	require.Len(t, children, 1)
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 2, envelope.Pagination.Page)
}

func TestChildHandlerListInvalidPage(t *testing.T) {
	handler := NewChildHandler(&fakeChildSrv{})
	c, rec := newTestContext(http.MethodGet, "/children?page=two", "", adminClaims)

	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChildHandlerCreate(t *testing.T) {
	srv := &fakeChildSrv{child: &models.Child{ID: "c1", FullName: "Ada"}}
	handler := NewChildHandler(srv)
	c, rec := newTestContext(http.MethodPost, "/children", `{"fullName":"Ada","age":12,"state":"Lagos"}`, adminClaims)

	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Ada", srv.lastReq.FullName)
	require.NotNil(t, srv.lastReq.Age)
	assert.Equal(t, 12, *srv.lastReq.Age)
}

func TestChildHandlerCreateDuplicate(t *testing.T) {
	srv := &fakeChildSrv{err: appErrors.Clone(appErrors.ErrConflict, "a child with the same name, age and district already exists")}
	handler := NewChildHandler(srv)
	c, rec := newTestContext(http.MethodPost, "/children", `{"fullName":"Ada","age":12,"state":"Lagos"}`, adminClaims)

	handler.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestChildHandlerGetAndDelete(t *testing.T) {
	srv := &fakeChildSrv{child: &models.Child{ID: "c1"}}
	handler := NewChildHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/children/c1", "", volunteerClaims)
	c.AddParam("id", "c1")
	handler.Get(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "c1", srv.lastID)

	c, _ = newTestContext(http.MethodDelete, "/children/c2", "", adminClaims)
	c.AddParam("id", "c2")
	handler.Delete(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "c2", srv.lastID)
}
