package payments

import "time"

// Method enumerates accepted payment channels.
type Method string

const (
	MethodCash         Method = "cash"
	MethodBankTransfer Method = "bank_transfer"
	MethodMobileMoney  Method = "mobile_money"
	MethodCreditCard   Method = "credit_card"
	MethodCheck        Method = "check"
)

// ValidMethod reports whether m belongs to the payment method vocabulary.
func ValidMethod(m Method) bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodMobileMoney, MethodCreditCard, MethodCheck:
		return true
	}
	return false
}

// RecordStatus is the status of one payment row. Recording creates the row
// as paid; refunded and failed are later corrections to the row itself, the
// amounts on the parent stay untouched until a compensating row lands.
type RecordStatus string

const (
	RecordPaid     RecordStatus = "paid"
	RecordRefunded RecordStatus = "refunded"
	RecordFailed   RecordStatus = "failed"
)

// BookingPayment is one recorded payment against a booking. Amounts are in
// currency minor units. Rows are append-only: everything but the status is
// immutable after creation.
type BookingPayment struct {
	ID            int64        `json:"id"`
	PaymentNumber string       `json:"payment_number"`
	BookingID     int64        `json:"booking_id"`
	Amount        int64        `json:"amount"`
	Currency      string       `json:"currency"`
	Method        Method       `json:"payment_method"`
	Status        RecordStatus `json:"status"`

	TransactionID *string `json:"transaction_id,omitempty"`
	Notes         *string `json:"notes,omitempty"`

	PaidAt    time.Time `json:"paid_at"`
	CreatedAt time.Time `json:"created_at"`
}

// InvoicePayment is one recorded payment against an invoice, carrying its
// bank reconciliation state. Append-only like BookingPayment.
type InvoicePayment struct {
	ID            int64        `json:"id"`
	PaymentNumber string       `json:"payment_number"`
	InvoiceID     int64        `json:"invoice_id"`
	ClientID      int64        `json:"client_id"`
	Amount        int64        `json:"amount"`
	Currency      string       `json:"currency"`
	Method        Method       `json:"payment_method"`
	Status        RecordStatus `json:"status"`

	Reference *string `json:"reference,omitempty"`
	Notes     *string `json:"notes,omitempty"`

	BankReconciliationDate *time.Time `json:"bank_reconciliation_date,omitempty"`
	ReconciledByID         *int64     `json:"reconciled_by_id,omitempty"`

	PaidAt    time.Time `json:"paid_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Reconciled reports whether the payment has been matched to a bank
// statement line.
func (p *InvoicePayment) Reconciled() bool {
	return p.BankReconciliationDate != nil
}
