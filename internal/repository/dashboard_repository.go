package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/counseling-api/internal/models"
)

// DashboardRepository runs the aggregate reads behind the dashboard views. Nothing here is cached.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// DashboardCounts are the raw headline counts.
type DashboardCounts struct {
	TotalChildren    int `db:"total_children"`
	AssignedChildren int `db:"assigned_children"`
	Volunteers       int `db:"volunteers"`
	Sessions         int `db:"sessions"`
}

const adminCountsQuery = `
SELECT
	(SELECT COUNT(*) FROM children c WHERE c.active) AS total_children,
	(SELECT COUNT(*) FROM children c WHERE c.active AND EXISTS (
		SELECT 1 FROM assignments a WHERE a.child_id = c.id AND a.is_active)) AS assigned_children,
	(SELECT COUNT(*) FROM users u WHERE u.role IN ('VOLUNTEER', 'ADMIN') AND u.approval_status = 'APPROVED' AND u.active) AS volunteers,
	(SELECT COUNT(*) FROM sessions) AS sessions`

const volunteerCountsQuery = `
WITH mine AS (
	SELECT c.id FROM children c
	WHERE c.active AND EXISTS (
		SELECT 1 FROM assignments a WHERE a.child_id = c.id AND a.volunteer_id = $1 AND a.is_active)
)
SELECT
	(SELECT COUNT(*) FROM mine) AS total_children,
	(SELECT COUNT(*) FROM mine) AS assigned_children,
	(SELECT COUNT(DISTINCT a.volunteer_id) FROM assignments a JOIN users u ON u.id = a.volunteer_id
		WHERE a.is_active AND a.child_id IN (SELECT id FROM mine)
		AND u.role IN ('VOLUNTEER', 'ADMIN') AND u.approval_status = 'APPROVED' AND u.active) AS volunteers,
	(SELECT COUNT(*) FROM sessions s WHERE s.child_id IN (SELECT id FROM mine)) AS sessions`

// Counts returns global counts, or counts scoped to one volunteer's assigned children.
// The scoped volunteer count covers everyone actively assigned to those children.
func (r *DashboardRepository) Counts(ctx context.Context, volunteerID string) (*DashboardCounts, error) {
	var counts DashboardCounts
	var err error
	if volunteerID == "" {
		err = r.db.GetContext(ctx, &counts, adminCountsQuery)
	} else {
		err = r.db.GetContext(ctx, &counts, volunteerCountsQuery, volunteerID)
	}
	if err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}
	return &counts, nil
}

// StateCounts groups each entity by state.
type StateCounts struct {
	Children   []models.StateCount
	Volunteers []models.StateCount
	Sessions   []models.StateCount
	Concerns   []models.StateCount
}

const (
	childrenByStateQuery   = `SELECT c.state, COUNT(*) AS total FROM children c WHERE c.active GROUP BY c.state`
	volunteersByStateQuery = `SELECT u.state, COUNT(*) AS total FROM users u WHERE u.role = 'VOLUNTEER' AND u.approval_status = 'APPROVED' AND u.active GROUP BY u.state`
	sessionsByStateQuery   = `SELECT c.state, COUNT(*) AS total FROM sessions s JOIN children c ON c.id = s.child_id GROUP BY c.state`
	concernsByStateQuery   = `SELECT c.state, COUNT(*) AS total, COUNT(*) FILTER (WHERE cn.status = 'RESOLVED') AS resolved FROM concerns cn JOIN children c ON c.id = cn.child_id GROUP BY c.state`
)

// CountByState runs the per-state group-bys.
func (r *DashboardRepository) CountByState(ctx context.Context) (*StateCounts, error) {
	out := &StateCounts{}
	queries := []struct {
		label string
		query string
		dest  *[]models.StateCount
	}{
		{"children", childrenByStateQuery, &out.Children},
		{"volunteers", volunteersByStateQuery, &out.Volunteers},
		{"sessions", sessionsByStateQuery, &out.Sessions},
		{"concerns", concernsByStateQuery, &out.Concerns},
	}
	for _, q := range queries {
		if err := r.db.SelectContext(ctx, q.dest, q.query); err != nil {
			return nil, fmt.Errorf("count %s by state: %w", q.label, err)
		}
	}
	return out, nil
}

// TrendEvents returns activity timestamps in [from, to).
func (r *DashboardRepository) TrendEvents(ctx context.Context, from, to time.Time) (*models.TrendEvents, error) {
	out := &models.TrendEvents{}
	queries := []struct {
		label string
		query string
		dest  *[]time.Time
	}{
		{"sessions", `SELECT created_at FROM sessions WHERE created_at >= $1 AND created_at < $2`, &out.SessionsCreated},
		{"concerns created", `SELECT created_at FROM concerns WHERE created_at >= $1 AND created_at < $2`, &out.ConcernsCreated},
		{"concerns resolved", `SELECT updated_at FROM concerns WHERE status = 'RESOLVED' AND updated_at >= $1 AND updated_at < $2`, &out.ConcernsResolved},
	}
	for _, q := range queries {
		if err := r.db.SelectContext(ctx, q.dest, q.query, from, to); err != nil {
			return nil, fmt.Errorf("trend %s: %w", q.label, err)
		}
	}
	return out, nil
}

// ActivityMonths returns the first instant of every month with sessions or concerns, newest first.
func (r *DashboardRepository) ActivityMonths(ctx context.Context) ([]time.Time, error) {
	const query = `
SELECT DISTINCT date_trunc('month', created_at) AS month
FROM (SELECT created_at FROM sessions UNION ALL SELECT created_at FROM concerns) activity
ORDER BY month DESC`
	var months []time.Time
	if err := r.db.SelectContext(ctx, &months, query); err != nil {
		return nil, fmt.Errorf("activity months: %w", err)
	}
	return months, nil
}

// ConcernAgeFacts returns every concern with the age inputs of its child.
func (r *DashboardRepository) ConcernAgeFacts(ctx context.Context) ([]models.ConcernAgeFact, error) {
	const query = `SELECT cn.category, c.date_of_birth, c.age FROM concerns cn JOIN children c ON c.id = cn.child_id`
	var facts []models.ConcernAgeFact
	if err := r.db.SelectContext(ctx, &facts, query); err != nil {
		return nil, fmt.Errorf("concern age facts: %w", err)
	}
	return facts, nil
}
