package invoices

import (
	"encoding/json"
	"time"
)

// CreateInvoiceRequest carries the fields accepted when creating an
// invoice. Subtotal is in currency minor units; rates are percentages.
// The due date is optional; an invoice without one never goes overdue.
type CreateInvoiceRequest struct {
	ClientID  int64      `json:"client_id" validate:"required,gt=0"`
	ProjectID *int64     `json:"project_id,omitempty" validate:"omitempty,gt=0"`
	BookingID *int64     `json:"booking_id,omitempty" validate:"omitempty,gt=0"`
	Title     string     `json:"title" validate:"required,max=200"`
	DueDate   *time.Time `json:"due_date,omitempty"`

	Subtotal     int64   `json:"subtotal" validate:"required,gt=0"`
	TaxRate      float64 `json:"tax_rate" validate:"gte=0,lte=100"`
	DiscountRate float64 `json:"discount_rate" validate:"gte=0,lte=100"`
	Currency     string  `json:"currency" validate:"omitempty,len=3"`

	Description     *string         `json:"description,omitempty"`
	PaymentTerms    *string         `json:"payment_terms,omitempty" validate:"omitempty,max=100"`
	LineItems       json.RawMessage `json:"line_items,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	TermsConditions *string         `json:"terms_conditions,omitempty"`
}

// ListInvoicesRequest filters and paginates invoice listings.
type ListInvoicesRequest struct {
	ClientID int64
	Status   *InvoiceStatus
	Page     int
	PerPage  int
}
