package dto

import "time"

// ChildRequest is the create/update payload for a child record.
type ChildRequest struct {
	FullName    string     `json:"fullName" validate:"required,max=120"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
	Age         *int       `json:"age" validate:"omitempty,min=0,max=25"`
	Gender      string     `json:"gender" validate:"omitempty,max=20"`
	State       string     `json:"state" validate:"required,max=80"`
	District    string     `json:"district" validate:"omitempty,max=80"`
	City        string     `json:"city" validate:"omitempty,max=80"`
	Background  string     `json:"background" validate:"omitempty,max=5000"`
	Interests   []string   `json:"interests" validate:"omitempty,dive,max=80"`
	Challenges  []string   `json:"challenges" validate:"omitempty,dive,max=200"`
	Language    string     `json:"language" validate:"omitempty,max=40"`
}

// ChildQuery captures list filters from the query string.
type ChildQuery struct {
	Search   string
	State    string
	Page     int
	PageSize int
}
