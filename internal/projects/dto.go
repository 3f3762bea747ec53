package projects

import "time"

// CreateProjectRequest carries the fields accepted when creating a project.
type CreateProjectRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description *string    `json:"description,omitempty"`
	Location    *string    `json:"location,omitempty" validate:"omitempty,max=200"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	BudgetMin   *int64     `json:"budget_min,omitempty" validate:"omitempty,gte=0"`
	BudgetMax   *int64     `json:"budget_max,omitempty" validate:"omitempty,gte=0"`
	Currency    string     `json:"currency" validate:"omitempty,len=3"`
}

// ListProjectsRequest filters and paginates project listings.
type ListProjectsRequest struct {
	ClientID int64
	Status   *ProjectStatus
	Page     int
	PerPage  int
}
