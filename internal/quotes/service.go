package quotes

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/batiwork/batiwork/internal/shared"
)

// Service handles quote business logic.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// Create registers a new quote for a project on behalf of a client.
func (s *Service) Create(ctx context.Context, req CreateQuoteRequest, clientID int64) (*Quote, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	if clientID <= 0 {
		return nil, shared.ValidationErrorf("client id required")
	}

	currency, err := shared.NormalizeCurrency(req.Currency)
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.ProjectActive(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("verify project: %w", err)
	}
	if !ok {
		return nil, shared.ValidationErrorf("project %d not found or inactive", req.ProjectID)
	}

	ok, err = s.repo.ClientActive(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("verify client: %w", err)
	}
	if !ok {
		return nil, shared.ValidationErrorf("client %d not found or inactive", clientID)
	}

	quote := Quote{
		ProjectID:             req.ProjectID,
		ClientID:              clientID,
		Title:                 req.Title,
		Description:           req.Description,
		TotalAmount:           req.TotalAmount,
		Currency:              currency,
		ValidUntil:            req.ValidUntil,
		Services:              req.Services,
		WorkerRequirements:    req.WorkerRequirements,
		EquipmentRequirements: req.EquipmentRequirements,
		TermsAndConditions:    req.TermsAndConditions,
		PaymentTerms:          req.PaymentTerms,
		WarrantyPeriodDays:    req.WarrantyPeriodDays,
	}

	created, err := s.repo.Create(ctx, quote)
	if err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}
	return created, nil
}

// Accept marks a quote accepted by its client. Acceptance is irreversible;
// an already-accepted or expired quote answers with a conflict.
func (s *Service) Accept(ctx context.Context, quoteID, actorID int64) (*Quote, error) {
	quote, err := s.repo.Get(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if quote.ClientID != actorID {
		return nil, fmt.Errorf("%w: quote belongs to another client", shared.ErrForbidden)
	}
	if quote.IsAccepted {
		return nil, fmt.Errorf("%w: quote already accepted", shared.ErrConflict)
	}
	now := time.Now().UTC()
	if quote.Expired(now) {
		return nil, fmt.Errorf("%w: quote validity expired", shared.ErrConflict)
	}

	accepted, err := s.repo.Accept(ctx, quoteID, now)
	if err != nil {
		return nil, fmt.Errorf("accept quote: %w", err)
	}
	if !accepted {
		// Another accept committed between our read and write.
		return nil, fmt.Errorf("%w: quote already accepted", shared.ErrConflict)
	}
	return s.repo.Get(ctx, quoteID)
}

// Get returns an active quote by id.
func (s *Service) Get(ctx context.Context, id int64) (*Quote, error) {
	return s.repo.Get(ctx, id)
}

// List returns quotes for a client with pagination metadata.
func (s *Service) List(ctx context.Context, req ListQuotesRequest) ([]Quote, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}
