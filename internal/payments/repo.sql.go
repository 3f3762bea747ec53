package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/batiwork/batiwork/internal/platform/db"
	"github.com/batiwork/batiwork/internal/shared"
)

// PGRepository provides PostgreSQL backed persistence for payments.
type PGRepository struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewRepository constructs a repository. lockTimeout bounds how long a
// recording transaction waits for the parent row lock.
func NewRepository(pool *pgxpool.Pool, lockTimeout time.Duration) *PGRepository {
	return &PGRepository{pool: pool, lockTimeout: lockTimeout}
}

type pgTx struct {
	tx pgx.Tx
}

// Atomic runs fn in one transaction with a bounded lock wait. A lock
// timeout inside fn surfaces as the retryable concurrency error.
func (r *PGRepository) Atomic(ctx context.Context, fn func(Tx) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		timeout := strconv.FormatInt(r.lockTimeout.Milliseconds(), 10)
		if _, err := tx.Exec(ctx, "SET LOCAL lock_timeout = '"+timeout+"ms'"); err != nil {
			return fmt.Errorf("set lock timeout: %w", err)
		}
		return fn(pgTx{tx: tx})
	})
}

// LockBooking takes an exclusive lock on the booking row and returns the
// fields the recorder needs.
func (t pgTx) LockBooking(ctx context.Context, id int64) (*BookingFinancials, error) {
	var b BookingFinancials
	err := t.tx.QueryRow(ctx, `
		SELECT id, client_id, currency, total_amount, paid_amount
		FROM bookings
		WHERE id = $1 AND is_active
		FOR UPDATE`, id).
		Scan(&b.ID, &b.ClientID, &b.Currency, &b.TotalAmount, &b.PaidAmount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (t pgTx) InsertBookingPayment(ctx context.Context, p *BookingPayment) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO payments (
			payment_number, booking_id, amount, currency, payment_method,
			status, transaction_id, notes, paid_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id, created_at`,
		p.PaymentNumber, p.BookingID, p.Amount, p.Currency, p.Method,
		p.Status, p.TransactionID, p.Notes, p.PaidAt,
	).Scan(&p.ID, &p.CreatedAt)
}

func (t pgTx) UpdateBookingAggregates(ctx context.Context, id int64, paid int64, status string) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE bookings
		SET paid_amount = $2, payment_status = $3, updated_at = NOW()
		WHERE id = $1`,
		id, paid, status)
	return err
}

// LockInvoice takes an exclusive lock on the invoice row and returns the
// fields the recorder needs.
func (t pgTx) LockInvoice(ctx context.Context, id int64) (*InvoiceFinancials, error) {
	var inv InvoiceFinancials
	err := t.tx.QueryRow(ctx, `
		SELECT id, client_id, currency, status, total_amount, paid_amount
		FROM factures
		WHERE id = $1 AND is_active
		FOR UPDATE`, id).
		Scan(&inv.ID, &inv.ClientID, &inv.Currency, &inv.Status, &inv.TotalAmount, &inv.PaidAmount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (t pgTx) InsertInvoicePayment(ctx context.Context, p *InvoicePayment) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO paiements (
			payment_number, facture_id, client_id, amount, currency,
			payment_method, status, reference, notes, paid_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING id, created_at`,
		p.PaymentNumber, p.InvoiceID, p.ClientID, p.Amount, p.Currency,
		p.Method, p.Status, p.Reference, p.Notes, p.PaidAt,
	).Scan(&p.ID, &p.CreatedAt)
}

func (t pgTx) UpdateInvoiceAggregates(ctx context.Context, id int64, paid, balance int64, status string, paidDate *time.Time) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE factures
		SET paid_amount = $2, balance_due = $3, status = $4,
		    paid_date = COALESCE($5, paid_date), updated_at = NOW()
		WHERE id = $1`,
		id, paid, balance, status, paidDate)
	return err
}

// ListBookingPayments returns a booking's payments, newest first.
func (r *PGRepository) ListBookingPayments(ctx context.Context, req ListPaymentsRequest) ([]BookingPayment, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM payments WHERE booking_id = $1`, req.ParentID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, payment_number, booking_id, amount, currency, payment_method,
		       status, transaction_id, notes, paid_at, created_at
		FROM payments
		WHERE booking_id = $1
		ORDER BY paid_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		req.ParentID, req.PerPage, shared.Offset(req.Page, req.PerPage))
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []BookingPayment
	for rows.Next() {
		var p BookingPayment
		var txID, notes pgtype.Text
		err := rows.Scan(
			&p.ID, &p.PaymentNumber, &p.BookingID, &p.Amount, &p.Currency, &p.Method,
			&p.Status, &txID, &notes, &p.PaidAt, &p.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		if txID.Valid {
			p.TransactionID = &txID.String
		}
		if notes.Valid {
			p.Notes = &notes.String
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListInvoicePayments returns an invoice's payments, newest first.
func (r *PGRepository) ListInvoicePayments(ctx context.Context, req ListPaymentsRequest) ([]InvoicePayment, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM paiements WHERE facture_id = $1`, req.ParentID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+invoicePaymentColumns+`
		FROM paiements
		WHERE facture_id = $1
		ORDER BY paid_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		req.ParentID, req.PerPage, shared.Offset(req.Page, req.PerPage))
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []InvoicePayment
	for rows.Next() {
		p, err := scanInvoicePayment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

const invoicePaymentColumns = `id, payment_number, facture_id, client_id, amount, currency,
payment_method, status, reference, notes,
bank_reconciliation_date, reconciled_by_id, paid_at, created_at`

// GetBookingPayment retrieves one booking payment.
func (r *PGRepository) GetBookingPayment(ctx context.Context, id int64) (*BookingPayment, error) {
	var p BookingPayment
	var txID, notes pgtype.Text
	err := r.pool.QueryRow(ctx, `
		SELECT id, payment_number, booking_id, amount, currency, payment_method,
		       status, transaction_id, notes, paid_at, created_at
		FROM payments
		WHERE id = $1`, id).
		Scan(
			&p.ID, &p.PaymentNumber, &p.BookingID, &p.Amount, &p.Currency, &p.Method,
			&p.Status, &txID, &notes, &p.PaidAt, &p.CreatedAt,
		)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if txID.Valid {
		p.TransactionID = &txID.String
	}
	if notes.Valid {
		p.Notes = &notes.String
	}
	return &p, nil
}

// GetInvoicePayment retrieves one invoice payment.
func (r *PGRepository) GetInvoicePayment(ctx context.Context, id int64) (*InvoicePayment, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+invoicePaymentColumns+` FROM paiements WHERE id = $1`, id)
	return scanInvoicePayment(row)
}

// Reconcile stamps the reconciliation fields once; a row already stamped is
// left untouched and reported as not updated.
func (r *PGRepository) Reconcile(ctx context.Context, id, byID int64, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE paiements
		SET bank_reconciliation_date = $2, reconciled_by_id = $3
		WHERE id = $1 AND bank_reconciliation_date IS NULL`,
		id, at, byID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoicePayment(row rowScanner) (*InvoicePayment, error) {
	var p InvoicePayment
	var reference, notes pgtype.Text
	var reconDate pgtype.Timestamptz
	var reconBy pgtype.Int8

	err := row.Scan(
		&p.ID, &p.PaymentNumber, &p.InvoiceID, &p.ClientID, &p.Amount, &p.Currency,
		&p.Method, &p.Status, &reference, &notes,
		&reconDate, &reconBy, &p.PaidAt, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if reference.Valid {
		p.Reference = &reference.String
	}
	if notes.Valid {
		p.Notes = &notes.String
	}
	if reconDate.Valid {
		p.BankReconciliationDate = &reconDate.Time
	}
	if reconBy.Valid {
		p.ReconciledByID = &reconBy.Int64
	}
	return &p, nil
}
