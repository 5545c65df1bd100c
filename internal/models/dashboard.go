package models

import "time"

// DashboardStats are headline counts. For a volunteer every count is scoped to their assigned children.
type DashboardStats struct {
	Scope              UserRole `json:"scope"`
	TotalChildren      int      `json:"totalChildren"`
	AssignedChildren   int      `json:"assignedChildren"`
	UnassignedChildren int      `json:"unassignedChildren"`
	TotalVolunteers    int      `json:"totalVolunteers"`
	TotalSessions      int      `json:"totalSessions"`
}

// StateCount is one row of a GROUP BY state query.
type StateCount struct {
	State    string `db:"state"`
	Total    int    `db:"total"`
	Resolved int    `db:"resolved"`
}

// StateMapRow aggregates activity for one state.
type StateMapRow struct {
	State            string  `json:"state"`
	Children         int     `json:"children"`
	Volunteers       int     `json:"volunteers"`
	Sessions         int     `json:"sessions"`
	Concerns         int     `json:"concerns"`
	ResolvedConcerns int     `json:"resolvedConcerns"`
	ResolutionRate   float64 `json:"resolutionRate"`
}

// MapSummary totals the map rows.
type MapSummary struct {
	States           int     `json:"states"`
	Children         int     `json:"children"`
	Volunteers       int     `json:"volunteers"`
	Sessions         int     `json:"sessions"`
	Concerns         int     `json:"concerns"`
	ResolvedConcerns int     `json:"resolvedConcerns"`
	ResolutionRate   float64 `json:"resolutionRate"`
}

// MapData is the state-wise geography view.
type MapData struct {
	Data    []StateMapRow `json:"data"`
	Summary MapSummary    `json:"summary"`
}

// TrendEvents are the raw timestamps bucketed into weekly trends.
type TrendEvents struct {
	SessionsCreated  []time.Time
	ConcernsCreated  []time.Time
	ConcernsResolved []time.Time
}

// TrendBucket counts activity for one Monday-aligned week. End is exclusive.
type TrendBucket struct {
	WeekStart        time.Time `json:"weekStart"`
	WeekEnd          time.Time `json:"weekEnd"`
	Label            string    `json:"label"`
	Sessions         int       `json:"sessions"`
	ConcernsCreated  int       `json:"concernsCreated"`
	ConcernsResolved int       `json:"concernsResolved"`
}

// MonthOption is a month that has recorded activity.
type MonthOption struct {
	Month int    `json:"month"`
	Year  int    `json:"year"`
	Label string `json:"label"`
}

// TrendData is the weekly trend view.
type TrendData struct {
	Data            []TrendBucket `json:"data"`
	AvailableMonths []MonthOption `json:"availableMonths"`
}

// ConcernAgeFact is one concern with its child's age inputs.
type ConcernAgeFact struct {
	Category    string     `db:"category"`
	DateOfBirth *time.Time `db:"date_of_birth"`
	Age         *int       `db:"age"`
}

// ConcernAgeGroupRow counts concerns for an (age group, category) pair.
type ConcernAgeGroupRow struct {
	AgeGroup string `json:"ageGroup"`
	Category string `json:"category"`
	Count    int    `json:"count"`
}
