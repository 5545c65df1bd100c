package dto

// TrendQuery selects a calendar month; both zero means the rolling window.
type TrendQuery struct {
	Month int `form:"month" validate:"omitempty,min=1,max=12"`
	Year  int `form:"year" validate:"omitempty,min=2000,max=2100"`
}
