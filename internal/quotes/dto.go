package quotes

import (
	"encoding/json"
	"time"
)

// CreateQuoteRequest carries the fields accepted when creating a quote.
// TotalAmount is in currency minor units.
type CreateQuoteRequest struct {
	ProjectID   int64      `json:"project_id" validate:"required,gt=0"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description *string    `json:"description,omitempty"`
	TotalAmount int64      `json:"total_amount" validate:"required,gt=0"`
	Currency    string     `json:"currency" validate:"omitempty,len=3"`
	ValidUntil  *time.Time `json:"valid_until,omitempty"`

	Services              json.RawMessage `json:"services,omitempty"`
	WorkerRequirements    json.RawMessage `json:"worker_requirements,omitempty"`
	EquipmentRequirements json.RawMessage `json:"equipment_requirements,omitempty"`

	TermsAndConditions *string `json:"terms_and_conditions,omitempty"`
	PaymentTerms       *string `json:"payment_terms,omitempty"`
	WarrantyPeriodDays *int    `json:"warranty_period,omitempty" validate:"omitempty,gte=0"`
}

// ListQuotesRequest filters and paginates quote listings.
type ListQuotesRequest struct {
	ClientID int64
	Page     int
	PerPage  int
}
