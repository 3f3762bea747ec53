package bookings

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

// PGRepository provides PostgreSQL backed persistence for bookings.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const bookingColumns = `id, booking_type, client_id, project_id, quote_id, worker_id,
start_date, end_date, actual_start_date, actual_end_date, status, payment_status,
total_amount, paid_amount, deposit_amount, currency,
description, special_requirements, notes,
client_rating, client_review, worker_rating, worker_review,
is_active, created_at, updated_at`

// Create inserts the booking and its equipment children in one transaction.
func (r *PGRepository) Create(ctx context.Context, b Booking, children []EquipmentBooking) (*Booking, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO bookings (
				booking_type, client_id, project_id, quote_id, worker_id,
				start_date, end_date, status, payment_status,
				total_amount, paid_amount, deposit_amount, currency,
				description, special_requirements, notes,
				is_active, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, $11, $12, $13, $14, $15, TRUE, NOW(), NOW())
			RETURNING id, created_at, updated_at`

		err := tx.QueryRow(ctx, query,
			b.BookingType, b.ClientID, b.ProjectID, b.QuoteID, b.WorkerID,
			b.StartDate, b.EndDate, b.Status, b.PaymentStatus,
			b.TotalAmount, b.DepositAmount, b.Currency,
			b.Description, b.SpecialRequirements, b.Notes,
		).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return err
		}

		for i := range children {
			child := &children[i]
			child.BookingID = b.ID
			err := tx.QueryRow(ctx, `
				INSERT INTO equipment_bookings (
					booking_id, equipment_id, start_date, end_date,
					daily_rate, total_amount, status, created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
				RETURNING id, created_at, updated_at`,
				child.BookingID, child.EquipmentID, child.StartDate, child.EndDate,
				child.DailyRate, child.TotalAmount, child.Status,
			).Scan(&child.ID, &child.CreatedAt, &child.UpdatedAt)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.IsActive = true
	b.EquipmentBookings = children
	return &b, nil
}

// Get retrieves an active booking with its equipment children.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Booking, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1 AND is_active`, id)
	booking, err := scanBooking(row)
	if err != nil {
		return nil, err
	}

	children, err := r.listChildren(ctx, id)
	if err != nil {
		return nil, err
	}
	booking.EquipmentBookings = children
	return booking, nil
}

// List returns a client's bookings, newest first, with the total count.
func (r *PGRepository) List(ctx context.Context, req ListBookingsRequest) ([]Booking, int, error) {
	where := `WHERE client_id = $1 AND is_active`
	args := []any{req.ClientID}
	if req.Status != nil {
		where += ` AND status = $2`
		args = append(args, *req.Status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bookings `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings ` + where +
		` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args)+1) +
		` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, req.PerPage, shared.Offset(req.Page, req.PerPage))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdateStatus moves the booking between statuses with a guard on the
// expected current status. Cancellation and rejection cascade to
// non-terminal equipment children inside the same transaction.
func (r *PGRepository) UpdateStatus(ctx context.Context, id int64, from, to BookingStatus, actualStart, actualEnd *time.Time) (bool, error) {
	var updated bool
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE bookings
			SET status = $3,
			    actual_start_date = COALESCE($4, actual_start_date),
			    actual_end_date = COALESCE($5, actual_end_date),
			    updated_at = NOW()
			WHERE id = $1 AND status = $2 AND is_active`,
			id, from, to, actualStart, actualEnd)
		if err != nil {
			return err
		}
		updated = tag.RowsAffected() == 1
		if !updated {
			return nil
		}

		if to == StatusCancelled || to == StatusRejected {
			_, err = tx.Exec(ctx, `
				UPDATE equipment_bookings
				SET status = $2, updated_at = NOW()
				WHERE booking_id = $1 AND status NOT IN ('completed', 'cancelled', 'rejected')`,
				id, to)
			if err != nil {
				return err
			}
		}
		return nil
	})
	return updated, err
}

// SetRating stores the rating columns for one role.
func (r *PGRepository) SetRating(ctx context.Context, id int64, role RaterRole, rating int, review *string) error {
	var query string
	switch role {
	case RoleClient:
		query = `UPDATE bookings SET client_rating = $2, client_review = $3, updated_at = NOW()
			 WHERE id = $1 AND is_active AND client_rating IS NULL`
	case RoleWorker:
		query = `UPDATE bookings SET worker_rating = $2, worker_review = $3, updated_at = NOW()
			 WHERE id = $1 AND is_active AND worker_rating IS NULL`
	default:
		return shared.ValidationErrorf("unknown rater role %q", role)
	}

	tag, err := r.pool.Exec(ctx, query, id, rating, review)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrConflict
	}
	return nil
}

// QuoteAccepted reports the acceptance flag of an active quote.
func (r *PGRepository) QuoteAccepted(ctx context.Context, quoteID int64) (bool, error) {
	var accepted bool
	err := r.pool.QueryRow(ctx,
		`SELECT is_accepted FROM quotes WHERE id = $1 AND is_active`, quoteID).Scan(&accepted)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, shared.ErrNotFound
	}
	return accepted, err
}

// ClientActive reports whether the referenced client exists and is active.
func (r *PGRepository) ClientActive(ctx context.Context, clientID int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND is_active)`, clientID).Scan(&ok)
	return ok, err
}

func (r *PGRepository) listChildren(ctx context.Context, bookingID int64) ([]EquipmentBooking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, booking_id, equipment_id, start_date, end_date,
		       actual_start_date, actual_end_date, daily_rate, total_amount,
		       status, created_at, updated_at
		FROM equipment_bookings
		WHERE booking_id = $1
		ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var children []EquipmentBooking
	for rows.Next() {
		var eq EquipmentBooking
		var actualStart, actualEnd pgtype.Timestamptz
		var dailyRate pgtype.Int8
		err := rows.Scan(
			&eq.ID, &eq.BookingID, &eq.EquipmentID, &eq.StartDate, &eq.EndDate,
			&actualStart, &actualEnd, &dailyRate, &eq.TotalAmount,
			&eq.Status, &eq.CreatedAt, &eq.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if actualStart.Valid {
			eq.ActualStartDate = &actualStart.Time
		}
		if actualEnd.Valid {
			eq.ActualEndDate = &actualEnd.Time
		}
		if dailyRate.Valid {
			eq.DailyRate = &dailyRate.Int64
		}
		children = append(children, eq)
	}
	return children, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*Booking, error) {
	var b Booking
	var projectID, quoteID, workerID pgtype.Int8
	var actualStart, actualEnd pgtype.Timestamptz
	var description, special, notes, clientReview, workerReview pgtype.Text
	var clientRating, workerRating pgtype.Int4

	err := row.Scan(
		&b.ID, &b.BookingType, &b.ClientID, &projectID, &quoteID, &workerID,
		&b.StartDate, &b.EndDate, &actualStart, &actualEnd, &b.Status, &b.PaymentStatus,
		&b.TotalAmount, &b.PaidAmount, &b.DepositAmount, &b.Currency,
		&description, &special, &notes,
		&clientRating, &clientReview, &workerRating, &workerReview,
		&b.IsActive, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if projectID.Valid {
		b.ProjectID = &projectID.Int64
	}
	if quoteID.Valid {
		b.QuoteID = &quoteID.Int64
	}
	if workerID.Valid {
		b.WorkerID = &workerID.Int64
	}
	if actualStart.Valid {
		b.ActualStartDate = &actualStart.Time
	}
	if actualEnd.Valid {
		b.ActualEndDate = &actualEnd.Time
	}
	if description.Valid {
		b.Description = &description.String
	}
	if special.Valid {
		b.SpecialRequirements = &special.String
	}
	if notes.Valid {
		b.Notes = &notes.String
	}
	if clientRating.Valid {
		v := int(clientRating.Int32)
		b.ClientRating = &v
	}
	if clientReview.Valid {
		b.ClientReview = &clientReview.String
	}
	if workerRating.Valid {
		v := int(workerRating.Int32)
		b.WorkerRating = &v
	}
	if workerReview.Valid {
		b.WorkerReview = &workerReview.String
	}
	return &b, nil
}
