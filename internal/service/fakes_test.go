package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/counseling-api/internal/models"
	"github.com/noah-isme/counseling-api/internal/repository"
)

// In-memory stand-ins that honour the same invariants the SQL repositories enforce.

type fakeUsers struct {
	mu       sync.Mutex
	users    map[string]*models.User
	tokens   map[string]*models.RefreshToken
	revoked  []string
	logins   int
	decideFn func(d repository.ApprovalDecision) error
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{users: map[string]*models.User{}, tokens: map[string]*models.RefreshToken{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUsers) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUsers) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	f.logins++
	return nil
}

func (f *fakeUsers) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, userID)
	for _, t := range f.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (f *fakeUsers) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeUsers) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUsers) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (f *fakeUsers) ListByApproval(ctx context.Context, status models.ApprovalStatus) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, u := range f.users {
		if u.Role == models.RoleVolunteer && u.ApprovalStatus == status {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsers) Decide(ctx context.Context, d repository.ApprovalDecision) (*models.User, error) {
	if f.decideFn != nil {
		if err := f.decideFn(d); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[d.UserID]
	if !ok || u.ApprovalStatus != models.ApprovalPending {
		return nil, sql.ErrNoRows
	}
	u.ApprovalStatus = d.Status
	u.Active = d.Active
	u.RejectionReason = d.RejectionReason
	u.ApprovedBy = &d.DecidedBy
	at := d.DecidedAt
	u.ApprovedAt = &at
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) ListVolunteers(ctx context.Context) ([]models.VolunteerSummary, error) {
	return nil, nil
}

type fakeAssignments struct {
	mu   sync.Mutex
	rows map[string]*models.Assignment
}

func newFakeAssignments() *fakeAssignments {
	return &fakeAssignments{rows: map[string]*models.Assignment{}}
}

func (f *fakeAssignments) ListActive(ctx context.Context) ([]models.AssignmentDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AssignmentDetail
	for _, a := range f.rows {
		if a.Active {
			out = append(out, models.AssignmentDetail{Assignment: *a})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedAt.After(out[j].AssignedAt) })
	return out, nil
}

func (f *fakeAssignments) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.rows[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAssignments) Assign(ctx context.Context, childID, volunteerID, assignedBy string, at time.Time) (*models.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.rows {
		if a.ChildID == childID && a.VolunteerID == volunteerID {
			if a.Active {
				return nil, repository.ErrAlreadyActive
			}
			a.Active = true
			a.AssignedAt = at
			a.AssignedBy = &assignedBy
			a.UpdatedAt = at
			cp := *a
			return &cp, nil
		}
	}
	a := &models.Assignment{ID: uuid.NewString(), ChildID: childID, VolunteerID: volunteerID, Active: true, AssignedAt: at, AssignedBy: &assignedBy, UpdatedAt: at}
	f.rows[a.ID] = a
	cp := *a
	return &cp, nil
}

func (f *fakeAssignments) Deactivate(ctx context.Context, id string, at time.Time) (*models.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok || !a.Active {
		return nil, sql.ErrNoRows
	}
	a.Active = false
	a.UpdatedAt = at
	cp := *a
	return &cp, nil
}

func (f *fakeAssignments) IsActive(ctx context.Context, childID, volunteerID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.rows {
		if a.ChildID == childID && a.VolunteerID == volunteerID && a.Active {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAssignments) countActive(childID, volunteerID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.rows {
		if a.ChildID == childID && a.VolunteerID == volunteerID && a.Active {
			n++
		}
	}
	return n
}

type fakeChildren struct {
	mu          sync.Mutex
	rows        map[string]*models.Child
	assignments *fakeAssignments
	lastFilter  models.ChildFilter
}

func newFakeChildren(assignments *fakeAssignments, children ...*models.Child) *fakeChildren {
	f := &fakeChildren{rows: map[string]*models.Child{}, assignments: assignments}
	for _, c := range children {
		c.Active = true
		f.rows[c.ID] = c
	}
	return f
}

func (f *fakeChildren) List(ctx context.Context, filter models.ChildFilter) ([]models.Child, int, error) {
	f.mu.Lock()
	f.lastFilter = filter
	var out []models.Child
	for _, c := range f.rows {
		if c.Active {
			out = append(out, *c)
		}
	}
	f.mu.Unlock()
	if filter.VolunteerID != "" {
		scoped := out[:0]
		for _, c := range out {
			if ok, _ := f.assignments.IsActive(ctx, c.ID, filter.VolunteerID); ok {
				scoped = append(scoped, c)
			}
		}
		out = scoped
	}
	return out, len(out), nil
}

func (f *fakeChildren) FindByID(ctx context.Context, id string) (*models.Child, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.rows[id]; ok && c.Active {
		cp := *c
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeChildren) ExistsSimilar(ctx context.Context, name string, age int, district, excludeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	for _, c := range f.rows {
		if !c.Active || c.ID == excludeID {
			continue
		}
		cAge, ok := c.AgeAt(now)
		if ok && cAge == age && strings.EqualFold(c.FullName, name) && strings.EqualFold(c.District, district) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeChildren) Create(ctx context.Context, child *models.Child) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if child.ID == "" {
		child.ID = uuid.NewString()
	}
	child.Active = true
	cp := *child
	f.rows[child.ID] = &cp
	return nil
}

func (f *fakeChildren) Update(ctx context.Context, child *models.Child) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[child.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *child
	f.rows[child.ID] = &cp
	return nil
}

func (f *fakeChildren) SoftDelete(ctx context.Context, id string, at time.Time) (int64, error) {
	f.mu.Lock()
	c, ok := f.rows[id]
	if !ok || !c.Active {
		f.mu.Unlock()
		return 0, sql.ErrNoRows
	}
	c.Active = false
	f.mu.Unlock()

	var closed int64
	f.assignments.mu.Lock()
	defer f.assignments.mu.Unlock()
	for _, a := range f.assignments.rows {
		if a.ChildID == id && a.Active {
			a.Active = false
			closed++
		}
	}
	return closed, nil
}

type fakeSessions struct {
	mu   sync.Mutex
	rows []*models.Session
}

func (f *fakeSessions) FindByID(ctx context.Context, id string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.rows {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSessions) ListByChild(ctx context.Context, childID string) ([]models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Session
	for _, s := range f.rows {
		if s.ChildID == childID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSessions) Start(ctx context.Context, p repository.StartParams) (*models.Session, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	at := p.At
	for _, s := range f.rows {
		if s.ChildID == p.ChildID && s.Status.Open() {
			s.Status = models.SessionInProgress
			s.StartedAt = &at
			s.UpdatedAt = at
			cp := *s
			return &cp, false, nil
		}
	}
	s := &models.Session{
		ID:          uuid.NewString(),
		ChildID:     p.ChildID,
		VolunteerID: p.VolunteerID,
		Status:      models.SessionInProgress,
		SessionType: p.SessionType,
		StartedAt:   &at,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	f.rows = append(f.rows, s)
	cp := *s
	return &cp, true, nil
}

func (f *fakeSessions) Complete(ctx context.Context, id string, notes *string, at time.Time) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.rows {
		if s.ID == id {
			s.Status = models.SessionCompleted
			s.EndedAt = &at
			if notes != nil {
				s.Notes = notes
			}
			cp := *s
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSessions) openCount(childID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.rows {
		if s.ChildID == childID && s.Status.Open() {
			n++
		}
	}
	return n
}

type fakeSummaries struct {
	mu        sync.Mutex
	sessions  *fakeSessions
	bySession map[string]*models.SessionSummary
	memories  []models.ConversationMemory
	saveErr   error
}

func newFakeSummaries(sessions *fakeSessions) *fakeSummaries {
	return &fakeSummaries{sessions: sessions, bySession: map[string]*models.SessionSummary{}}
}

func (f *fakeSummaries) FindBySessionID(ctx context.Context, sessionID string) (*models.SessionSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.bySession[sessionID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSummaries) Save(ctx context.Context, summary *models.SessionSummary, memories []models.ConversationMemory) (*models.SessionSummary, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *summary
	appendMemories := !summary.IsDraft
	if existing, ok := f.bySession[summary.SessionID]; ok {
		cp.ID = existing.ID
		cp.CreatedAt = existing.CreatedAt
		appendMemories = appendMemories && existing.IsDraft
	}
	f.bySession[summary.SessionID] = &cp
	if !summary.IsDraft {
		if _, err := f.sessions.Complete(ctx, summary.SessionID, nil, summary.UpdatedAt); err != nil {
			return nil, err
		}
	}
	if appendMemories {
		f.memories = append(f.memories, memories...)
	}
	out := cp
	return &out, nil
}

func (f *fakeSummaries) ListMemories(ctx context.Context, childID string, limit int) ([]models.ConversationMemory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ConversationMemory
	for _, m := range f.memories {
		if m.ChildID == childID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (f *fakeAudit) Record(ctx context.Context, entry *models.AuditLog) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeRevoker struct {
	revoked map[string]time.Time
}

func (f *fakeRevoker) Revoke(ctx context.Context, userID string, at time.Time) error {
	if f.revoked == nil {
		f.revoked = map[string]time.Time{}
	}
	f.revoked[userID] = at
	return nil
}

func (f *fakeRevoker) IsRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	at, ok := f.revoked[userID]
	return ok && issuedAt.Unix() <= at.Unix(), nil
}

var (
	adminCaller = models.Caller{ID: "admin-1", Role: models.RoleAdmin}
)

func volunteer(id string) *models.User {
	return &models.User{ID: id, Email: id + "@example.com", FullName: "Volunteer " + id, Role: models.RoleVolunteer, ApprovalStatus: models.ApprovalApproved, Active: true}
}

func pendingVolunteer(id string) *models.User {
	u := volunteer(id)
	u.ApprovalStatus = models.ApprovalPending
	u.Active = false
	return u
}

func childWithAge(id, name string, age int) *models.Child {
	return &models.Child{ID: id, FullName: name, Age: &age, State: "Lagos", District: "Ikeja"}
}
