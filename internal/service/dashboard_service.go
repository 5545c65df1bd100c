package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/counseling-api/internal/dto"
	"github.com/noah-isme/counseling-api/internal/models"
	"github.com/noah-isme/counseling-api/internal/repository"
	appErrors "github.com/noah-isme/counseling-api/pkg/errors"
	"github.com/noah-isme/counseling-api/pkg/export"
)

type dashboardRepository interface {
	Counts(ctx context.Context, volunteerID string) (*repository.DashboardCounts, error)
	CountByState(ctx context.Context) (*repository.StateCounts, error)
	TrendEvents(ctx context.Context, from, to time.Time) (*models.TrendEvents, error)
	ActivityMonths(ctx context.Context) ([]time.Time, error)
	ConcernAgeFacts(ctx context.Context) ([]models.ConcernAgeFact, error)
}

// DashboardConfig tunes the aggregation windows.
type DashboardConfig struct {
	TrendWeeks    int
	ExportEnabled bool
}

// DashboardService derives the dashboard views from current rows on every call.
type DashboardService struct {
	repo    dashboardRepository
	metrics *MetricsService
	logger  *zap.Logger
	cfg     DashboardConfig
	now     func() time.Time
}

// NewDashboardService constructs the service.
func NewDashboardService(repo dashboardRepository, metrics *MetricsService, logger *zap.Logger, cfg DashboardConfig) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TrendWeeks <= 0 {
		cfg.TrendWeeks = 12
	}
	return &DashboardService{
		repo:    repo,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Stats returns headline counts. Volunteers get counts over their own assigned children.
func (s *DashboardService) Stats(ctx context.Context, caller models.Caller) (*models.DashboardStats, error) {
	if caller.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	start := time.Now()
	counts, err := s.repo.Counts(ctx, volunteerScope(caller))
	s.metrics.ObserveDBQuery("dashboard_counts", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard stats")
	}

	stats := &models.DashboardStats{
		Scope:            caller.Role,
		TotalChildren:    counts.TotalChildren,
		AssignedChildren: counts.AssignedChildren,
		TotalVolunteers:  counts.Volunteers,
		TotalSessions:    counts.Sessions,
	}
	if caller.IsAdmin() {
		stats.UnassignedChildren = counts.TotalChildren - counts.AssignedChildren
	} else {
		stats.AssignedChildren = stats.TotalChildren
		stats.UnassignedChildren = 0
	}
	return stats, nil
}

// MapData groups activity by state, busiest states first.
func (s *DashboardService) MapData(ctx context.Context, caller models.Caller) (*models.MapData, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	start := time.Now()
	counts, err := s.repo.CountByState(ctx)
	s.metrics.ObserveDBQuery("dashboard_state_counts", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load map data")
	}
	return buildMapData(counts), nil
}

func buildMapData(counts *repository.StateCounts) *models.MapData {
	rows := map[string]*models.StateMapRow{}
	row := func(state string) *models.StateMapRow {
		if state == "" {
			state = "Unknown"
		}
		r, ok := rows[state]
		if !ok {
			r = &models.StateMapRow{State: state}
			rows[state] = r
		}
		return r
	}
	for _, c := range counts.Children {
		row(c.State).Children += c.Total
	}
	for _, c := range counts.Volunteers {
		row(c.State).Volunteers += c.Total
	}
	for _, c := range counts.Sessions {
		row(c.State).Sessions += c.Total
	}
	for _, c := range counts.Concerns {
		r := row(c.State)
		r.Concerns += c.Total
		r.ResolvedConcerns += c.Resolved
	}

	out := &models.MapData{Data: make([]models.StateMapRow, 0, len(rows))}
	for _, r := range rows {
		r.ResolutionRate = rate(r.ResolvedConcerns, r.Concerns)
		out.Data = append(out.Data, *r)

		out.Summary.Children += r.Children
		out.Summary.Volunteers += r.Volunteers
		out.Summary.Sessions += r.Sessions
		out.Summary.Concerns += r.Concerns
		out.Summary.ResolvedConcerns += r.ResolvedConcerns
	}
	sort.Slice(out.Data, func(i, j int) bool {
		if out.Data[i].Children != out.Data[j].Children {
			return out.Data[i].Children > out.Data[j].Children
		}
		return out.Data[i].State < out.Data[j].State
	})
	out.Summary.States = len(out.Data)
	out.Summary.ResolutionRate = rate(out.Summary.ResolvedConcerns, out.Summary.Concerns)
	return out
}

func rate(resolved, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(resolved) / float64(total)
}

// Trends buckets activity into Monday-aligned weeks over the rolling window or a selected month.
func (s *DashboardService) Trends(ctx context.Context, caller models.Caller, q dto.TrendQuery) (*models.TrendData, error) {
	if caller.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if (q.Month == 0) != (q.Year == 0) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month and year must be provided together")
	}
	if q.Month < 0 || q.Month > 12 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}

	var from, to time.Time
	if q.Month != 0 {
		from = time.Date(q.Year, time.Month(q.Month), 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 1, 0)
	} else {
		to = weekStart(s.now()).AddDate(0, 0, 7)
		from = to.AddDate(0, 0, -7*s.cfg.TrendWeeks)
	}

	events, err := s.repo.TrendEvents(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trend data")
	}
	months, err := s.repo.ActivityMonths(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load available months")
	}

	options := make([]models.MonthOption, 0, len(months))
	for _, m := range months {
		m = m.UTC()
		options = append(options, models.MonthOption{Month: int(m.Month()), Year: m.Year(), Label: m.Format("January 2006")})
	}
	return &models.TrendData{Data: bucketTrends(events, from, to), AvailableMonths: options}, nil
}

// weekStart returns midnight UTC of the Monday on or before t.
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC)
}

// bucketTrends covers [from, to) with Monday-aligned weeks. Events outside the range are ignored.
func bucketTrends(events *models.TrendEvents, from, to time.Time) []models.TrendBucket {
	var buckets []models.TrendBucket
	for start := weekStart(from); start.Before(to); start = start.AddDate(0, 0, 7) {
		end := start.AddDate(0, 0, 7)
		buckets = append(buckets, models.TrendBucket{
			WeekStart: start,
			WeekEnd:   end,
			Label:     start.Format("Jan 2"),
		})
	}
	place := func(ts []time.Time, inc func(*models.TrendBucket)) {
		for _, t := range ts {
			t = t.UTC()
			if t.Before(from) || !t.Before(to) {
				continue
			}
			idx := int(t.Sub(weekStart(from)) / (7 * 24 * time.Hour))
			if idx >= 0 && idx < len(buckets) {
				inc(&buckets[idx])
			}
		}
	}
	if events != nil {
		place(events.SessionsCreated, func(b *models.TrendBucket) { b.Sessions++ })
		place(events.ConcernsCreated, func(b *models.TrendBucket) { b.ConcernsCreated++ })
		place(events.ConcernsResolved, func(b *models.TrendBucket) { b.ConcernsResolved++ })
	}
	if buckets == nil {
		buckets = []models.TrendBucket{}
	}
	return buckets
}

var ageGroupOrder = []string{"6-10", "11-13", "14-16", "17+"}

// ageGroup returns the band for an age; ages below six have no band.
func ageGroup(age int) (string, bool) {
	switch {
	case age >= 6 && age <= 10:
		return "6-10", true
	case age >= 11 && age <= 13:
		return "11-13", true
	case age >= 14 && age <= 16:
		return "14-16", true
	case age >= 17:
		return "17+", true
	}
	return "", false
}

// ConcernAnalytics counts concerns per (age group, category).
func (s *DashboardService) ConcernAnalytics(ctx context.Context, caller models.Caller) ([]models.ConcernAgeGroupRow, error) {
	if caller.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	facts, err := s.repo.ConcernAgeFacts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load concern analytics")
	}

	now := s.now()
	type key struct{ group, category string }
	counts := map[key]int{}
	for _, f := range facts {
		child := models.Child{DateOfBirth: f.DateOfBirth, Age: f.Age}
		age, ok := child.AgeAt(now)
		if !ok {
			continue
		}
		group, ok := ageGroup(age)
		if !ok {
			continue
		}
		category := f.Category
		if category == "" {
			category = "Uncategorized"
		}
		counts[key{group, category}]++
	}

	rank := map[string]int{}
	for i, g := range ageGroupOrder {
		rank[g] = i
	}
	rows := make([]models.ConcernAgeGroupRow, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, models.ConcernAgeGroupRow{AgeGroup: k.group, Category: k.category, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AgeGroup != rows[j].AgeGroup {
			return rank[rows[i].AgeGroup] < rank[rows[j].AgeGroup]
		}
		return rows[i].Category < rows[j].Category
	})
	return rows, nil
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportMap renders the state map rows as CSV, PDF or XLSX.
func (s *DashboardService) ExportMap(ctx context.Context, caller models.Caller, format string) (*ExportFile, error) {
	if !s.cfg.ExportEnabled {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "dashboard export is disabled")
	}
	parsed, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	data, err := s.MapData(ctx, caller)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Title:   "State Activity",
		Headers: []string{"state", "children", "volunteers", "sessions", "concerns", "resolved_concerns", "resolution_rate"},
	}
	for _, r := range data.Data {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"state":             r.State,
			"children":          strconv.Itoa(r.Children),
			"volunteers":        strconv.Itoa(r.Volunteers),
			"sessions":          strconv.Itoa(r.Sessions),
			"concerns":          strconv.Itoa(r.Concerns),
			"resolved_concerns": strconv.Itoa(r.ResolvedConcerns),
			"resolution_rate":   strconv.FormatFloat(r.ResolutionRate, 'f', 2, 64),
		})
	}

	renderer := export.RendererFor(parsed)
	body, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Info("dashboard export rendered", zap.String("format", string(parsed)), zap.Int("rows", len(dataset.Rows)))
	return &ExportFile{
		Filename:    fmt.Sprintf("state-activity-%s.%s", s.now().Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}
