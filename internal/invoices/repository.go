package invoices

import (
	"context"
	"time"
)

// Repository defines data access for invoices. Implementations only
// return active rows; archived invoices behave as absent.
type Repository interface {
	// Create inserts the invoice. A duplicate invoice number surfaces as
	// shared.ErrConflict so the service can retry with a fresh number.
	Create(ctx context.Context, inv Invoice) (*Invoice, error)
	Get(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error)
	// MarkSent moves a draft invoice to sent, guarded on the draft status.
	MarkSent(ctx context.Context, id int64, at time.Time) (bool, error)
	// Cancel moves an unpaid draft or sent invoice to cancelled, guarded on
	// both the status and a zero paid amount.
	Cancel(ctx context.Context, id int64) (bool, error)
	ClientActive(ctx context.Context, clientID int64) (bool, error)
}
