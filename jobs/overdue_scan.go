package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OverdueScanner persists the overdue status for sent invoices whose due
// date has passed with money still owed. Reads already present overdue
// lazily; this scan makes the stored status catch up so listings filtered
// by status stay truthful.
type OverdueScanner struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewOverdueScanner constructs an OverdueScanner.
func NewOverdueScanner(pool *pgxpool.Pool, logger *slog.Logger) *OverdueScanner {
	return &OverdueScanner{pool: pool, logger: logger}
}

// Handle processes TaskOverdueScan tasks.
func (s *OverdueScanner) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	return s.Scan(ctx, payload)
}

// Scan flips every qualifying invoice in one statement.
func (s *OverdueScanner) Scan(ctx context.Context, payload ScanPayload) error {
	asOf := payload.Reference(time.Now)
	tag, err := s.pool.Exec(ctx, `
		UPDATE factures
		SET status = 'overdue', updated_at = NOW()
		WHERE status = 'sent' AND due_date < $1 AND balance_due > 0 AND is_active`,
		asOf)
	if err != nil {
		s.logger.Error("overdue scan", slog.Any("error", err))
		return err
	}

	if n := tag.RowsAffected(); n > 0 {
		s.logger.Info("invoices marked overdue",
			slog.Int64("count", n),
			slog.Time("as_of", asOf))
	}
	return nil
}
