package projects

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/batiwork/batiwork/internal/shared"
)

// PGRepository provides PostgreSQL backed persistence for projects.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const projectColumns = `id, client_id, title, status, description, location,
start_date, end_date, budget_min, budget_max, currency,
is_active, created_at, updated_at`

// Create inserts the project.
func (r *PGRepository) Create(ctx context.Context, p Project) (*Project, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO projects (
			client_id, title, status, description, location,
			start_date, end_date, budget_min, budget_max, currency,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		p.ClientID, p.Title, p.Status, p.Description, p.Location,
		p.StartDate, p.EndDate, p.BudgetMin, p.BudgetMax, p.Currency,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.IsActive = true
	return &p, nil
}

// Get retrieves an active project.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Project, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1 AND is_active`, id)
	return scanProject(row)
}

// List returns a client's projects, newest first, with the total count.
func (r *PGRepository) List(ctx context.Context, req ListProjectsRequest) ([]Project, int, error) {
	where := `WHERE client_id = $1 AND is_active`
	args := []any{req.ClientID}
	if req.Status != nil {
		where += ` AND status = $2`
		args = append(args, *req.Status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + projectColumns + ` FROM projects ` + where +
		` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args)+1) +
		` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, req.PerPage, shared.Offset(req.Page, req.PerPage))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*Project, error) {
	var p Project
	var description, location pgtype.Text
	var startDate, endDate pgtype.Timestamptz
	var budgetMin, budgetMax pgtype.Int8

	err := row.Scan(
		&p.ID, &p.ClientID, &p.Title, &p.Status, &description, &location,
		&startDate, &endDate, &budgetMin, &budgetMax, &p.Currency,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if description.Valid {
		p.Description = &description.String
	}
	if location.Valid {
		p.Location = &location.String
	}
	if startDate.Valid {
		p.StartDate = &startDate.Time
	}
	if endDate.Valid {
		p.EndDate = &endDate.Time
	}
	if budgetMin.Valid {
		p.BudgetMin = &budgetMin.Int64
	}
	if budgetMax.Valid {
		p.BudgetMax = &budgetMax.Int64
	}
	return &p, nil
}
