package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OverpayScanner flags bookings and invoices that have collected more money
// than their total. Overpayment is legal and recorded as-is at payment
// time; this scan surfaces it for manual reconciliation.
type OverpayScanner struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewOverpayScanner constructs an OverpayScanner.
func NewOverpayScanner(pool *pgxpool.Pool, logger *slog.Logger) *OverpayScanner {
	return &OverpayScanner{pool: pool, logger: logger}
}

// Handle processes TaskOverpayScan tasks.
func (s *OverpayScanner) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	return s.Scan(ctx, payload)
}

// Scan logs one line per overpaid document.
func (s *OverpayScanner) Scan(ctx context.Context, payload ScanPayload) error {
	rows, err := s.pool.Query(ctx, `
		SELECT id, client_id, total_amount, paid_amount
		FROM bookings
		WHERE paid_amount > total_amount AND is_active
		ORDER BY id`)
	if err != nil {
		s.logger.Error("overpay scan", slog.Any("error", err))
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, clientID, total, paid int64
		if err := rows.Scan(&id, &clientID, &total, &paid); err != nil {
			return err
		}
		s.logger.Warn("overpaid booking needs reconciliation",
			slog.Int64("booking_id", id),
			slog.Int64("client_id", clientID),
			slog.Int64("total_amount", total),
			slog.Int64("paid_amount", paid),
			slog.Int64("excess", paid-total))
	}
	if err := rows.Err(); err != nil {
		return err
	}

	irows, err := s.pool.Query(ctx, `
		SELECT id, client_id, total_amount, paid_amount
		FROM factures
		WHERE balance_due < 0 AND is_active
		ORDER BY id`)
	if err != nil {
		s.logger.Error("overpay scan", slog.Any("error", err))
		return err
	}
	defer irows.Close()

	for irows.Next() {
		var id, clientID, total, paid int64
		if err := irows.Scan(&id, &clientID, &total, &paid); err != nil {
			return err
		}
		s.logger.Warn("overpaid invoice needs reconciliation",
			slog.Int64("invoice_id", id),
			slog.Int64("client_id", clientID),
			slog.Int64("total_amount", total),
			slog.Int64("paid_amount", paid),
			slog.Int64("excess", paid-total))
	}
	return irows.Err()
}
