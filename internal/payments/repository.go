package payments

import (
	"context"
	"time"
)

// BookingFinancials is the slice of a booking the recorder needs while
// holding the row lock.
type BookingFinancials struct {
	ID          int64
	ClientID    int64
	Currency    string
	TotalAmount int64
	PaidAmount  int64
}

// InvoiceFinancials is the slice of an invoice the recorder needs while
// holding the row lock.
type InvoiceFinancials struct {
	ID          int64
	ClientID    int64
	Currency    string
	Status      string
	TotalAmount int64
	PaidAmount  int64
}

// Tx is the unit-of-work handed to the recorder inside one database
// transaction. Lock methods take an exclusive lock on the parent row so
// concurrent recorders serialize instead of losing updates; the lock wait
// is bounded and surfaces as a retryable concurrency error on timeout.
type Tx interface {
	LockBooking(ctx context.Context, id int64) (*BookingFinancials, error)
	InsertBookingPayment(ctx context.Context, p *BookingPayment) error
	UpdateBookingAggregates(ctx context.Context, id int64, paid int64, status string) error

	LockInvoice(ctx context.Context, id int64) (*InvoiceFinancials, error)
	InsertInvoicePayment(ctx context.Context, p *InvoicePayment) error
	UpdateInvoiceAggregates(ctx context.Context, id int64, paid, balance int64, status string, paidDate *time.Time) error
}

// Repository defines data access for payment recording. Recording runs
// inside Atomic so the payment row and its parent's aggregates commit or
// roll back together.
type Repository interface {
	Atomic(ctx context.Context, fn func(Tx) error) error

	ListBookingPayments(ctx context.Context, req ListPaymentsRequest) ([]BookingPayment, int, error)
	ListInvoicePayments(ctx context.Context, req ListPaymentsRequest) ([]InvoicePayment, int, error)
	GetBookingPayment(ctx context.Context, id int64) (*BookingPayment, error)
	GetInvoicePayment(ctx context.Context, id int64) (*InvoicePayment, error)
	// Reconcile stamps the bank reconciliation fields, guarded so a payment
	// reconciles at most once.
	Reconcile(ctx context.Context, id, byID int64, at time.Time) (bool, error)
}
