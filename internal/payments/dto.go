package payments

// RecordBookingPaymentRequest carries one payment against a booking.
// Amount is in currency minor units. The optional idempotency key makes
// client retries safe: a replayed key is rejected instead of re-applied.
type RecordBookingPaymentRequest struct {
	Amount        int64   `json:"amount" validate:"required,gt=0"`
	Method        Method  `json:"payment_method" validate:"required"`
	TransactionID *string `json:"transaction_id,omitempty"`
	Notes         *string `json:"notes,omitempty"`

	IdempotencyKey string `json:"idempotency_key,omitempty" validate:"omitempty,max=128"`
}

// RecordInvoicePaymentRequest carries one payment against an invoice.
type RecordInvoicePaymentRequest struct {
	Amount    int64   `json:"amount" validate:"required,gt=0"`
	Method    Method  `json:"payment_method" validate:"required"`
	Reference *string `json:"reference,omitempty"`
	Notes     *string `json:"notes,omitempty"`

	IdempotencyKey string `json:"idempotency_key,omitempty" validate:"omitempty,max=128"`
}

// ListPaymentsRequest paginates payment listings for one parent document.
type ListPaymentsRequest struct {
	ParentID int64
	Page     int
	PerPage  int
}
