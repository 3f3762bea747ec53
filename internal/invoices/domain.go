package invoices

import (
	"encoding/json"
	"time"

	"github.com/batiwork/batiwork/internal/ledger"
)

// InvoiceStatus enumerates invoice lifecycle states.
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "draft"
	StatusSent      InvoiceStatus = "sent"
	StatusPaid      InvoiceStatus = "paid"
	StatusOverdue   InvoiceStatus = "overdue"
	StatusCancelled InvoiceStatus = "cancelled"
)

// ValidStatus reports whether s belongs to the invoice status vocabulary.
func ValidStatus(s InvoiceStatus) bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// Invoice is a billing document. Subtotal, tax, discount, total, paid and
// balance amounts are in currency minor units; rates are percentages.
// Tax and discount amounts are computed once at creation and never
// recomputed. PaidAmount and BalanceDue are written exclusively by the
// payment recorder.
type Invoice struct {
	ID            int64  `json:"id"`
	InvoiceNumber string `json:"invoice_number"`
	ClientID      int64  `json:"client_id"`
	CreatedByID   int64  `json:"created_by_id"`
	ProjectID     *int64 `json:"project_id,omitempty"`
	BookingID     *int64 `json:"booking_id,omitempty"`

	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`

	Status InvoiceStatus `json:"status"`

	IssueDate time.Time  `json:"issue_date"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	PaidDate  *time.Time `json:"paid_date,omitempty"`

	Subtotal       int64   `json:"subtotal"`
	TaxRate        float64 `json:"tax_rate"`
	TaxAmount      int64   `json:"tax_amount"`
	DiscountRate   float64 `json:"discount_rate"`
	DiscountAmount int64   `json:"discount_amount"`
	TotalAmount    int64   `json:"total_amount"`
	PaidAmount     int64   `json:"paid_amount"`
	BalanceDue     int64   `json:"balance_due"`
	Currency       string  `json:"currency"`

	PaymentTerms    *string         `json:"payment_terms,omitempty"`
	LineItems       json.RawMessage `json:"line_items,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	TermsConditions *string         `json:"terms_conditions,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveStatus is the status as presented to callers: a sent invoice
// past its due date with money still owed reads as overdue, whether or not
// the background scan has persisted the flip yet. An invoice without a due
// date never becomes overdue.
func (i *Invoice) EffectiveStatus(now time.Time) InvoiceStatus {
	if i.Status == StatusSent && i.DueDate != nil && now.After(*i.DueDate) && i.BalanceDue > 0 {
		return StatusOverdue
	}
	return i.Status
}

// Payable reports whether the invoice can still receive payments.
func (i *Invoice) Payable() bool {
	return i.Status != StatusCancelled && i.IsActive
}

// PaymentState summarises the invoice's paid amount against its total.
func (i *Invoice) PaymentState() ledger.PaymentState {
	return ledger.DerivePaymentStatus(i.TotalAmount, i.PaidAmount)
}
