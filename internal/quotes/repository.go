package quotes

import (
	"context"
	"time"
)

// Repository defines data access for quotes. Implementations only return
// active rows; archived quotes behave as absent.
type Repository interface {
	Create(ctx context.Context, q Quote) (*Quote, error)
	Get(ctx context.Context, id int64) (*Quote, error)
	List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error)
	// Accept marks the quote accepted at the given time. It must only
	// succeed when the quote is active and not yet accepted, so a lost
	// race surfaces as zero rows updated rather than a double acceptance.
	Accept(ctx context.Context, id int64, at time.Time) (bool, error)
	ProjectActive(ctx context.Context, projectID int64) (bool, error)
	ClientActive(ctx context.Context, clientID int64) (bool, error)
}
