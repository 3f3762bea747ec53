package projects

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/batiwork/batiwork/internal/shared"
)

// Service owns project creation and reads. Projects start in draft and are
// referenced by quotes, bookings and invoices.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// Create registers a project for the calling client.
func (s *Service) Create(ctx context.Context, req CreateProjectRequest, clientID int64) (*Project, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	if req.StartDate != nil && req.EndDate != nil && !req.EndDate.After(*req.StartDate) {
		return nil, shared.ValidationErrorf("end_date must be after start_date")
	}
	if req.BudgetMin != nil && req.BudgetMax != nil && *req.BudgetMax < *req.BudgetMin {
		return nil, shared.ValidationErrorf("budget_max must not be below budget_min")
	}

	currency, err := shared.NormalizeCurrency(req.Currency)
	if err != nil {
		return nil, err
	}

	project := Project{
		ClientID:    clientID,
		Title:       req.Title,
		Status:      StatusDraft,
		Description: req.Description,
		Location:    req.Location,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		BudgetMin:   req.BudgetMin,
		BudgetMax:   req.BudgetMax,
		Currency:    currency,
	}

	created, err := s.repo.Create(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return created, nil
}

// Get returns an active project.
func (s *Service) Get(ctx context.Context, id int64) (*Project, error) {
	return s.repo.Get(ctx, id)
}

// List returns a client's projects with pagination metadata.
func (s *Service) List(ctx context.Context, req ListProjectsRequest) ([]Project, shared.Pagination, error) {
	if req.Status != nil && !ValidStatus(*req.Status) {
		return nil, shared.Pagination{}, shared.ValidationErrorf("unknown project status %q", *req.Status)
	}
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}
