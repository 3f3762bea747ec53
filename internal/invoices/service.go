package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/batiwork/batiwork/internal/ledger"
	"github.com/batiwork/batiwork/internal/shared"
)

// Service owns the invoice lifecycle: creation with computed totals,
// sending, cancellation and overdue presentation. Paid amounts on invoices
// are written exclusively by the payments service.
type Service struct {
	repo     Repository
	validate *validator.Validate
	now      func() time.Time
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New(), now: time.Now}
}

// Create issues a new invoice in draft, stamped with the acting user as
// its creator. Tax and discount amounts are computed here, once, and
// stored. The generated invoice number is retried on a uniqueness
// collision.
func (s *Service) Create(ctx context.Context, req CreateInvoiceRequest, actorID int64) (*Invoice, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}

	currency, err := shared.NormalizeCurrency(req.Currency)
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.ClientActive(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("verify client: %w", err)
	}
	if !ok {
		return nil, shared.ValidationErrorf("client %d not found or inactive", req.ClientID)
	}

	totals := ledger.ComputeInvoiceTotals(req.Subtotal, req.TaxRate, req.DiscountRate)

	inv := Invoice{
		ClientID:        req.ClientID,
		CreatedByID:     actorID,
		ProjectID:       req.ProjectID,
		BookingID:       req.BookingID,
		Title:           req.Title,
		Description:     req.Description,
		Status:          StatusDraft,
		IssueDate:       s.now().UTC(),
		DueDate:         req.DueDate,
		Subtotal:        req.Subtotal,
		TaxRate:         req.TaxRate,
		TaxAmount:       totals.TaxAmount,
		DiscountRate:    req.DiscountRate,
		DiscountAmount:  totals.DiscountAmount,
		TotalAmount:     totals.TotalAmount,
		BalanceDue:      totals.BalanceDue,
		Currency:        currency,
		PaymentTerms:    req.PaymentTerms,
		LineItems:       req.LineItems,
		Notes:           req.Notes,
		TermsConditions: req.TermsConditions,
	}

	var created *Invoice
	for attempt := 0; attempt < shared.NumberRetryAttempts; attempt++ {
		inv.InvoiceNumber = shared.NewInvoiceNumber(s.now())
		created, err = s.repo.Create(ctx, inv)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, shared.ErrConflict) {
			return nil, fmt.Errorf("create invoice: %w", err)
		}
	}
	return nil, fmt.Errorf("%w: invoice number collisions exhausted retries", shared.ErrConflict)
}

// Send marks a draft invoice as sent. Only drafts can be sent.
func (s *Service) Send(ctx context.Context, id, actorID int64) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if inv.ClientID != actorID {
		return nil, fmt.Errorf("%w: invoice belongs to another client", shared.ErrForbidden)
	}
	if inv.Status != StatusDraft {
		return nil, shared.TransitionErrorf("only draft invoices can be sent, got %s", inv.Status)
	}

	sent, err := s.repo.MarkSent(ctx, id, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("mark invoice sent: %w", err)
	}
	if !sent {
		return nil, fmt.Errorf("%w: invoice status changed concurrently", shared.ErrConcurrency)
	}
	return s.get(ctx, id)
}

// Cancel voids a draft or sent invoice that has received no payments.
// Anything with money recorded against it must be settled, not cancelled.
func (s *Service) Cancel(ctx context.Context, id, actorID int64) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if inv.ClientID != actorID {
		return nil, fmt.Errorf("%w: invoice belongs to another client", shared.ErrForbidden)
	}
	if inv.Status != StatusDraft && inv.Status != StatusSent {
		return nil, shared.TransitionErrorf("cannot cancel a %s invoice", inv.Status)
	}
	if inv.PaidAmount != 0 {
		return nil, shared.TransitionErrorf("cannot cancel an invoice with recorded payments")
	}

	cancelled, err := s.repo.Cancel(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cancel invoice: %w", err)
	}
	if !cancelled {
		return nil, fmt.Errorf("%w: invoice changed concurrently", shared.ErrConcurrency)
	}
	return s.get(ctx, id)
}

// Get returns an invoice with overdue presented when the due date has
// passed, even before the background scan persists the flip.
func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.get(ctx, id)
}

func (s *Service) get(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Status = inv.EffectiveStatus(s.now().UTC())
	return inv, nil
}

// List returns a client's invoices with pagination metadata. Statuses are
// presented the same way Get presents them.
func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, shared.Pagination, error) {
	if req.Status != nil && !ValidStatus(*req.Status) {
		return nil, shared.Pagination{}, shared.ValidationErrorf("unknown invoice status %q", *req.Status)
	}
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	now := s.now().UTC()
	for i := range items {
		items[i].Status = items[i].EffectiveStatus(now)
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}
