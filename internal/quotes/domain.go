package quotes

import (
	"encoding/json"
	"time"
)

// Quote is a proposed price and service scope awaiting client acceptance.
// Amounts are in currency minor units. A quote becomes immutable once
// accepted; acceptance is a one-way transition.
type Quote struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project_id"`
	ClientID    int64      `json:"client_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	TotalAmount int64      `json:"total_amount"`
	Currency    string     `json:"currency"`
	ValidUntil  *time.Time `json:"valid_until,omitempty"`
	IsAccepted  bool       `json:"is_accepted"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`

	Services              json.RawMessage `json:"services,omitempty"`
	WorkerRequirements    json.RawMessage `json:"worker_requirements,omitempty"`
	EquipmentRequirements json.RawMessage `json:"equipment_requirements,omitempty"`

	TermsAndConditions *string `json:"terms_and_conditions,omitempty"`
	PaymentTerms       *string `json:"payment_terms,omitempty"`
	WarrantyPeriodDays *int    `json:"warranty_period,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Expired reports whether the quote's validity window has passed at t.
func (q *Quote) Expired(t time.Time) bool {
	return q.ValidUntil != nil && q.ValidUntil.Before(t)
}
