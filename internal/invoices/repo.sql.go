package invoices

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/batiwork/batiwork/internal/platform/db"
	"github.com/batiwork/batiwork/internal/shared"
)

// PGRepository provides PostgreSQL backed persistence for invoices.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const invoiceColumns = `id, invoice_number, client_id, created_by_id, project_id, booking_id,
title, description, status,
issue_date, due_date, sent_at, paid_date,
subtotal, tax_rate, tax_amount, discount_rate, discount_amount,
total_amount, paid_amount, balance_due, currency,
payment_terms, line_items, notes, terms_conditions,
is_active, created_at, updated_at`

// Create inserts the invoice. A duplicate invoice number surfaces through
// the transaction's error mapping as a conflict, which the service's retry
// loop consumes.
func (r *PGRepository) Create(ctx context.Context, inv Invoice) (*Invoice, error) {
	query := `
		INSERT INTO factures (
			invoice_number, client_id, created_by_id, project_id, booking_id,
			title, description, status,
			issue_date, due_date,
			subtotal, tax_rate, tax_amount, discount_rate, discount_amount,
			total_amount, paid_amount, balance_due, currency,
			payment_terms, line_items, notes, terms_conditions,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, 0, $17, $18, $19, $20, $21, $22, TRUE, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query,
			inv.InvoiceNumber, inv.ClientID, inv.CreatedByID, inv.ProjectID, inv.BookingID,
			inv.Title, inv.Description, inv.Status,
			inv.IssueDate, inv.DueDate,
			inv.Subtotal, inv.TaxRate, inv.TaxAmount, inv.DiscountRate, inv.DiscountAmount,
			inv.TotalAmount, inv.BalanceDue, inv.Currency,
			inv.PaymentTerms, inv.LineItems, inv.Notes, inv.TermsConditions,
		).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}

	inv.IsActive = true
	return &inv, nil
}

// Get retrieves an active invoice.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Invoice, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM factures WHERE id = $1 AND is_active`, id)
	return scanInvoice(row)
}

// List returns a client's invoices, newest first, with the total count.
func (r *PGRepository) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	where := `WHERE client_id = $1 AND is_active`
	args := []any{req.ClientID}
	if req.Status != nil {
		where += ` AND status = $2`
		args = append(args, *req.Status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM factures `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + invoiceColumns + ` FROM factures ` + where +
		` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args)+1) +
		` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, req.PerPage, shared.Offset(req.Page, req.PerPage))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// MarkSent flips draft to sent, guarded on the draft status.
func (r *PGRepository) MarkSent(ctx context.Context, id int64, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE factures
		SET status = 'sent', sent_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'draft' AND is_active`,
		id, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Cancel voids an unpaid draft or sent invoice. The paid_amount guard is
// repeated here so a payment landing between the service's read and this
// write cannot cancel an invoice with money on it.
func (r *PGRepository) Cancel(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE factures
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status IN ('draft', 'sent') AND paid_amount = 0 AND is_active`,
		id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ClientActive reports whether the referenced client exists and is active.
func (r *PGRepository) ClientActive(ctx context.Context, clientID int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND is_active)`, clientID).Scan(&ok)
	return ok, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*Invoice, error) {
	var inv Invoice
	var projectID, bookingID pgtype.Int8
	var dueDate, sentAt, paidDate pgtype.Timestamptz
	var description, paymentTerms, notes, terms pgtype.Text
	var lineItems []byte

	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.ClientID, &inv.CreatedByID, &projectID, &bookingID,
		&inv.Title, &description, &inv.Status,
		&inv.IssueDate, &dueDate, &sentAt, &paidDate,
		&inv.Subtotal, &inv.TaxRate, &inv.TaxAmount, &inv.DiscountRate, &inv.DiscountAmount,
		&inv.TotalAmount, &inv.PaidAmount, &inv.BalanceDue, &inv.Currency,
		&paymentTerms, &lineItems, &notes, &terms,
		&inv.IsActive, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if projectID.Valid {
		inv.ProjectID = &projectID.Int64
	}
	if bookingID.Valid {
		inv.BookingID = &bookingID.Int64
	}
	if dueDate.Valid {
		inv.DueDate = &dueDate.Time
	}
	if sentAt.Valid {
		inv.SentAt = &sentAt.Time
	}
	if paidDate.Valid {
		inv.PaidDate = &paidDate.Time
	}
	if description.Valid {
		inv.Description = &description.String
	}
	if paymentTerms.Valid {
		inv.PaymentTerms = &paymentTerms.String
	}
	inv.LineItems = lineItems
	if notes.Valid {
		inv.Notes = &notes.String
	}
	if terms.Valid {
		inv.TermsConditions = &terms.String
	}
	return &inv, nil
}
