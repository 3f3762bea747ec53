package bookings

import (
	"context"
	"time"
)

// Repository defines data access for bookings. Implementations only
// return active rows; archived bookings behave as absent.
type Repository interface {
	// Create persists the booking and its equipment children atomically;
	// a failure on any child rolls back the whole insert.
	Create(ctx context.Context, b Booking, children []EquipmentBooking) (*Booking, error)
	Get(ctx context.Context, id int64) (*Booking, error)
	List(ctx context.Context, req ListBookingsRequest) ([]Booking, int, error)
	// UpdateStatus moves the booking from → to, guarded on the current
	// status so a concurrent transition surfaces as zero rows updated.
	// Cancellation and rejection cascade to non-terminal equipment
	// children in the same transaction.
	UpdateStatus(ctx context.Context, id int64, from, to BookingStatus, actualStart, actualEnd *time.Time) (bool, error)
	SetRating(ctx context.Context, id int64, role RaterRole, rating int, review *string) error
	// QuoteAccepted reports the acceptance flag of a referenced quote,
	// or shared.ErrNotFound when the quote is absent or archived.
	QuoteAccepted(ctx context.Context, quoteID int64) (bool, error)
	ClientActive(ctx context.Context, clientID int64) (bool, error)
}
