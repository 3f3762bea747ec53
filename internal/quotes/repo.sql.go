package quotes

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/batiwork/batiwork/internal/shared"
)

// PGRepository provides PostgreSQL backed persistence for quotes.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const quoteColumns = `id, project_id, client_id, title, description, total_amount, currency,
valid_until, is_accepted, accepted_at, services, worker_requirements, equipment_requirements,
terms_and_conditions, payment_terms, warranty_period, is_active, created_at, updated_at`

// Create inserts a quote and returns the stored row.
func (r *PGRepository) Create(ctx context.Context, q Quote) (*Quote, error) {
	query := `
		INSERT INTO quotes (
			project_id, client_id, title, description, total_amount, currency,
			valid_until, services, worker_requirements, equipment_requirements,
			terms_and_conditions, payment_terms, warranty_period,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, TRUE, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		q.ProjectID,
		q.ClientID,
		q.Title,
		q.Description,
		q.TotalAmount,
		q.Currency,
		q.ValidUntil,
		q.Services,
		q.WorkerRequirements,
		q.EquipmentRequirements,
		q.TermsAndConditions,
		q.PaymentTerms,
		q.WarrantyPeriodDays,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	q.IsActive = true
	return &q, nil
}

// Get retrieves an active quote by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Quote, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE id = $1 AND is_active`, id)
	return scanQuote(row)
}

// List returns a client's quotes, newest first, with the total count.
func (r *PGRepository) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM quotes WHERE client_id = $1 AND is_active`, req.ClientID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+quoteColumns+` FROM quotes
		 WHERE client_id = $1 AND is_active
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		req.ClientID, req.PerPage, shared.Offset(req.Page, req.PerPage))
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, 0, err
		}
		quotes = append(quotes, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return quotes, total, nil
}

// Accept flips the acceptance flag. The is_accepted guard makes the write
// a no-op when a concurrent accept already committed.
func (r *PGRepository) Accept(ctx context.Context, id int64, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quotes SET is_accepted = TRUE, accepted_at = $2, updated_at = NOW()
		 WHERE id = $1 AND is_active AND NOT is_accepted`, id, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ProjectActive reports whether the referenced project exists and is active.
func (r *PGRepository) ProjectActive(ctx context.Context, projectID int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1 AND is_active)`, projectID).Scan(&ok)
	return ok, err
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

func scanQuote(row rowScanner) (*Quote, error) {
	var q Quote
	var description, terms, paymentTerms pgtype.Text
	var validUntil, acceptedAt pgtype.Timestamptz
	var warranty pgtype.Int4

	err := row.Scan(
		&q.ID, &q.ProjectID, &q.ClientID, &q.Title, &description, &q.TotalAmount, &q.Currency,
		&validUntil, &q.IsAccepted, &acceptedAt,
		&q.Services, &q.WorkerRequirements, &q.EquipmentRequirements,
		&terms, &paymentTerms, &warranty, &q.IsActive, &q.CreatedAt, &q.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if description.Valid {
		q.Description = &description.String
	}
	if validUntil.Valid {
		q.ValidUntil = &validUntil.Time
	}
	if acceptedAt.Valid {
		q.AcceptedAt = &acceptedAt.Time
	}
	if terms.Valid {
		q.TermsAndConditions = &terms.String
	}
	if paymentTerms.Valid {
		q.PaymentTerms = &paymentTerms.String
	}
	if warranty.Valid {
		days := int(warranty.Int32)
		q.WarrantyPeriodDays = &days
	}
	return &q, nil
}
