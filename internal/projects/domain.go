package projects

import "time"

// ProjectStatus enumerates project lifecycle states.
type ProjectStatus string

const (
	StatusDraft      ProjectStatus = "draft"
	StatusPublished  ProjectStatus = "published"
	StatusInProgress ProjectStatus = "in_progress"
	StatusCompleted  ProjectStatus = "completed"
	StatusCancelled  ProjectStatus = "cancelled"
	StatusOnHold     ProjectStatus = "on_hold"
)

// ValidStatus reports whether s belongs to the project status vocabulary.
func ValidStatus(s ProjectStatus) bool {
	switch s {
	case StatusDraft, StatusPublished, StatusInProgress, StatusCompleted, StatusCancelled, StatusOnHold:
		return true
	}
	return false
}

// Project is the client's work request that quotes and bookings reference.
// Budget bounds are in currency minor units.
type Project struct {
	ID       int64         `json:"id"`
	ClientID int64         `json:"client_id"`
	Title    string        `json:"title"`
	Status   ProjectStatus `json:"status"`

	Description *string    `json:"description,omitempty"`
	Location    *string    `json:"location,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`

	BudgetMin *int64 `json:"budget_min,omitempty"`
	BudgetMax *int64 `json:"budget_max,omitempty"`
	Currency  string `json:"currency"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
