package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batiwork/batiwork/internal/platform/db"
	"github.com/batiwork/batiwork/internal/shared"
)

type mockRepository struct {
	invoices map[int64]*Invoice
	numbers  map[string]bool
	nextID   int64
	clients  map[int64]bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		invoices: make(map[int64]*Invoice),
		numbers:  make(map[string]bool),
		nextID:   1,
		clients:  map[int64]bool{10: true},
	}
}

func (m *mockRepository) Create(ctx context.Context, inv Invoice) (*Invoice, error) {
	if m.numbers[inv.InvoiceNumber] {
		return nil, shared.ErrConflict
	}
	m.numbers[inv.InvoiceNumber] = true
	inv.ID = m.nextID
	m.nextID++
	inv.IsActive = true
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt
	m.invoices[inv.ID] = &inv
	copied := inv
	return &copied, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok || !inv.IsActive {
		return nil, shared.ErrNotFound
	}
	copied := *inv
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	var out []Invoice
	for _, inv := range m.invoices {
		if inv.ClientID != req.ClientID || !inv.IsActive {
			continue
		}
		if req.Status != nil && inv.Status != *req.Status {
			continue
		}
		out = append(out, *inv)
	}
	return out, len(out), nil
}

func (m *mockRepository) MarkSent(ctx context.Context, id int64, at time.Time) (bool, error) {
	inv, ok := m.invoices[id]
	if !ok || !inv.IsActive || inv.Status != StatusDraft {
		return false, nil
	}
	inv.Status = StatusSent
	inv.SentAt = &at
	return true, nil
}

func (m *mockRepository) Cancel(ctx context.Context, id int64) (bool, error) {
	inv, ok := m.invoices[id]
	if !ok || !inv.IsActive || inv.PaidAmount != 0 {
		return false, nil
	}
	if inv.Status != StatusDraft && inv.Status != StatusSent {
		return false, nil
	}
	inv.Status = StatusCancelled
	return true, nil
}

func (m *mockRepository) ClientActive(ctx context.Context, clientID int64) (bool, error) {
	return m.clients[clientID], nil
}

func validCreateRequest() CreateInvoiceRequest {
	due := time.Now().Add(30 * 24 * time.Hour)
	return CreateInvoiceRequest{
		ClientID:     10,
		Title:        "Travaux de gros oeuvre",
		DueDate:      &due,
		Subtotal:     100_000,
		TaxRate:      18,
		DiscountRate: 5,
	}
}

func TestCreateInvoiceTotals(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	inv, err := svc.Create(context.Background(), validCreateRequest(), 7)
	require.NoError(t, err)

	// 1000.00 at 18% tax and 5% discount: 1000 + 180 - 50 = 1130.00.
	assert.Equal(t, int64(18_000), inv.TaxAmount)
	assert.Equal(t, int64(5_000), inv.DiscountAmount)
	assert.Equal(t, int64(113_000), inv.TotalAmount)
	assert.Equal(t, int64(113_000), inv.BalanceDue)
	assert.Zero(t, inv.PaidAmount)
	assert.Equal(t, StatusDraft, inv.Status)
	assert.Equal(t, "Travaux de gros oeuvre", inv.Title)
	assert.Equal(t, int64(7), inv.CreatedByID)
	assert.Equal(t, shared.DefaultCurrency, inv.Currency)
	assert.Regexp(t, `^INV-\d{14}-\d{4}$`, inv.InvoiceNumber)
}

func TestCreateInvoiceWithoutDueDate(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	req := validCreateRequest()
	req.DueDate = nil
	created, err := svc.Create(context.Background(), req, 10)
	require.NoError(t, err)
	require.Nil(t, created.DueDate)

	_, err = svc.Send(context.Background(), created.ID, 10)
	require.NoError(t, err)

	// Without a due date the invoice stays sent no matter how much time
	// passes.
	svc.now = func() time.Time { return time.Now().Add(365 * 24 * time.Hour) }
	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, got.Status)
}

func TestCreateInvoiceWithPastDueDate(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	// Backdated invoices are legitimate; the due date carries no
	// future-only restriction.
	req := validCreateRequest()
	past := time.Now().Add(-7 * 24 * time.Hour)
	req.DueDate = &past
	created, err := svc.Create(context.Background(), req, 10)
	require.NoError(t, err)
	require.NotNil(t, created.DueDate)
	assert.Equal(t, StatusDraft, created.Status)
}

func TestCreateInvoiceValidation(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	tests := []struct {
		name   string
		mutate func(*CreateInvoiceRequest)
	}{
		{"zero subtotal", func(r *CreateInvoiceRequest) { r.Subtotal = 0 }},
		{"negative subtotal", func(r *CreateInvoiceRequest) { r.Subtotal = -100 }},
		{"tax rate above 100", func(r *CreateInvoiceRequest) { r.TaxRate = 120 }},
		{"negative discount", func(r *CreateInvoiceRequest) { r.DiscountRate = -1 }},
		{"missing title", func(r *CreateInvoiceRequest) { r.Title = "" }},
		{"unknown client", func(r *CreateInvoiceRequest) { r.ClientID = 99 }},
		{"bad currency", func(r *CreateInvoiceRequest) { r.Currency = "FRANCS" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)
			_, err := svc.Create(context.Background(), req, 10)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestSendInvoice(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), validCreateRequest(), 10)
	require.NoError(t, err)

	sent, err := svc.Send(context.Background(), created.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, sent.Status)
	require.NotNil(t, sent.SentAt)

	_, err = svc.Send(context.Background(), created.ID, 10)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestSendInvoiceWrongClient(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), validCreateRequest(), 10)
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), created.ID, 77)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestCancelInvoice(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	draft, err := svc.Create(context.Background(), validCreateRequest(), 10)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), draft.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	sent, err := svc.Create(context.Background(), validCreateRequest(), 10)
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), sent.ID, 10)
	require.NoError(t, err)

	cancelled, err = svc.Cancel(context.Background(), sent.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
}

func TestCancelInvoiceWithPayments(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), validCreateRequest(), 10)
	require.NoError(t, err)
	repo.invoices[created.ID].PaidAmount = 50_000

	_, err = svc.Cancel(context.Background(), created.ID, 10)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestCancelPaidInvoice(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), validCreateRequest(), 10)
	require.NoError(t, err)
	repo.invoices[created.ID].Status = StatusPaid

	_, err = svc.Cancel(context.Background(), created.ID, 10)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestOverduePresentation(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), validCreateRequest(), 10)
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), created.ID, 10)
	require.NoError(t, err)

	// Reads after the due date present overdue even though the stored
	// status is still sent.
	svc.now = func() time.Time { return created.DueDate.Add(24 * time.Hour) }

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOverdue, got.Status)
	assert.Equal(t, StatusSent, repo.invoices[created.ID].Status)

	items, _, err := svc.List(context.Background(), ListInvoicesRequest{ClientID: 10, Page: 1, PerPage: 20})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, StatusOverdue, items[0].Status)
}

func TestOverdueNotPresentedWhenSettled(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), validCreateRequest(), 10)
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), created.ID, 10)
	require.NoError(t, err)

	repo.invoices[created.ID].PaidAmount = created.TotalAmount
	repo.invoices[created.ID].BalanceDue = 0

	svc.now = func() time.Time { return created.DueDate.Add(24 * time.Hour) }

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, got.Status)
}

type collidingRepository struct {
	*mockRepository
	collisions int
}

func (c *collidingRepository) Create(ctx context.Context, inv Invoice) (*Invoice, error) {
	if c.collisions > 0 {
		c.collisions--
		// The transaction wrapper hands the service a mapped conflict, not
		// the raw driver error.
		return nil, db.MapError(&pgconn.PgError{Code: "23505", ConstraintName: "factures_invoice_number_key"})
	}
	return c.mockRepository.Create(ctx, inv)
}

func TestCreateInvoiceRetriesNumberCollision(t *testing.T) {
	repo := &collidingRepository{mockRepository: newMockRepository(), collisions: 2}
	svc := NewService(repo)

	inv, err := svc.Create(context.Background(), validCreateRequest(), 10)
	require.NoError(t, err)
	assert.NotEmpty(t, inv.InvoiceNumber)
}

func TestCreateInvoiceNumberRetriesExhausted(t *testing.T) {
	repo := &collidingRepository{mockRepository: newMockRepository(), collisions: shared.NumberRetryAttempts}
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), validCreateRequest(), 10)
	assert.ErrorIs(t, err, shared.ErrConflict)
}

type failingRepository struct {
	*mockRepository
	err error
}

func (f *failingRepository) Create(ctx context.Context, inv Invoice) (*Invoice, error) {
	return nil, f.err
}

func TestCreateInvoiceSurfacesConcurrencyFailure(t *testing.T) {
	repo := &failingRepository{
		mockRepository: newMockRepository(),
		err:            db.MapError(&pgconn.PgError{Code: "40001", Message: "could not serialize access"}),
	}
	svc := NewService(repo)

	// A serialization failure is retryable by the caller, not a number
	// collision; it must come back as the concurrency kind, once.
	_, err := svc.Create(context.Background(), validCreateRequest(), 10)
	assert.ErrorIs(t, err, shared.ErrConcurrency)
}

func TestInvoiceNotFound(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.Get(context.Background(), 404)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
