package payments

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batiwork/batiwork/internal/shared"
)

type bookingRow struct {
	BookingFinancials
	PaymentStatus string
}

type invoiceRow struct {
	InvoiceFinancials
	BalanceDue int64
	PaidDate   *time.Time
}

type mockRepository struct {
	mu sync.Mutex

	bookings map[int64]*bookingRow
	invoices map[int64]*invoiceRow
	numbers  map[string]bool

	bookingPayments []BookingPayment
	invoicePayments map[int64]*InvoicePayment
	nextID          int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		bookings:        make(map[int64]*bookingRow),
		invoices:        make(map[int64]*invoiceRow),
		numbers:         make(map[string]bool),
		invoicePayments: make(map[int64]*InvoicePayment),
		nextID:          1,
	}
}

// Atomic serializes recorders with a mutex the way the row lock does in
// PostgreSQL.
func (m *mockRepository) Atomic(ctx context.Context, fn func(Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(mockTx{m})
}

type mockTx struct {
	repo *mockRepository
}

func (t mockTx) LockBooking(ctx context.Context, id int64) (*BookingFinancials, error) {
	b, ok := t.repo.bookings[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := b.BookingFinancials
	return &copied, nil
}

func (t mockTx) InsertBookingPayment(ctx context.Context, p *BookingPayment) error {
	if t.repo.numbers[p.PaymentNumber] {
		return shared.ErrConflict
	}
	t.repo.numbers[p.PaymentNumber] = true
	p.ID = t.repo.nextID
	t.repo.nextID++
	p.CreatedAt = time.Now()
	t.repo.bookingPayments = append(t.repo.bookingPayments, *p)
	return nil
}

func (t mockTx) UpdateBookingAggregates(ctx context.Context, id int64, paid int64, status string) error {
	b := t.repo.bookings[id]
	b.PaidAmount = paid
	b.PaymentStatus = status
	return nil
}

func (t mockTx) LockInvoice(ctx context.Context, id int64) (*InvoiceFinancials, error) {
	inv, ok := t.repo.invoices[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := inv.InvoiceFinancials
	return &copied, nil
}

func (t mockTx) InsertInvoicePayment(ctx context.Context, p *InvoicePayment) error {
	if t.repo.numbers[p.PaymentNumber] {
		return shared.ErrConflict
	}
	t.repo.numbers[p.PaymentNumber] = true
	p.ID = t.repo.nextID
	t.repo.nextID++
	p.CreatedAt = time.Now()
	copied := *p
	t.repo.invoicePayments[p.ID] = &copied
	return nil
}

func (t mockTx) UpdateInvoiceAggregates(ctx context.Context, id int64, paid, balance int64, status string, paidDate *time.Time) error {
	inv := t.repo.invoices[id]
	inv.PaidAmount = paid
	inv.BalanceDue = balance
	inv.Status = status
	if paidDate != nil {
		inv.PaidDate = paidDate
	}
	return nil
}

func (m *mockRepository) ListBookingPayments(ctx context.Context, req ListPaymentsRequest) ([]BookingPayment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []BookingPayment
	for _, p := range m.bookingPayments {
		if p.BookingID == req.ParentID {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (m *mockRepository) ListInvoicePayments(ctx context.Context, req ListPaymentsRequest) ([]InvoicePayment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []InvoicePayment
	for _, p := range m.invoicePayments {
		if p.InvoiceID == req.ParentID {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (m *mockRepository) GetBookingPayment(ctx context.Context, id int64) (*BookingPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.bookingPayments {
		if p.ID == id {
			copied := p
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepository) GetInvoicePayment(ctx context.Context, id int64) (*InvoicePayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.invoicePayments[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockRepository) Reconcile(ctx context.Context, id, byID int64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.invoicePayments[id]
	if !ok || p.BankReconciliationDate != nil {
		return false, nil
	}
	p.BankReconciliationDate = &at
	p.ReconciledByID = &byID
	return true, nil
}

func newTestService(repo Repository) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, nil, logger)
}

func seedBooking(repo *mockRepository, id, clientID, total int64) {
	repo.bookings[id] = &bookingRow{
		BookingFinancials: BookingFinancials{
			ID: id, ClientID: clientID, Currency: "XOF", TotalAmount: total,
		},
		PaymentStatus: "pending",
	}
}

func seedInvoice(repo *mockRepository, id, clientID, total int64, status string) {
	repo.invoices[id] = &invoiceRow{
		InvoiceFinancials: InvoiceFinancials{
			ID: id, ClientID: clientID, Currency: "XOF", Status: status, TotalAmount: total,
		},
		BalanceDue: total,
	}
}

func TestRecordBookingPayment(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	seedBooking(repo, 1, 10, 200_00)

	p, err := svc.RecordBookingPayment(context.Background(), 1, RecordBookingPaymentRequest{
		Amount: 80_00, Method: MethodMobileMoney,
	}, 10)
	require.NoError(t, err)
	assert.Equal(t, RecordPaid, p.Status)
	assert.Equal(t, "XOF", p.Currency)
	assert.Regexp(t, `^PAY-[A-Za-z0-9]{8}$`, p.PaymentNumber)
	assert.Equal(t, int64(80_00), repo.bookings[1].PaidAmount)
	assert.Equal(t, "partial", repo.bookings[1].PaymentStatus)
}

func TestRecordBookingPaymentOvershoot(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	seedBooking(repo, 1, 10, 200_00)

	// Two payments of 120 against a 200 total: 240 recorded, not clamped.
	for i := 0; i < 2; i++ {
		_, err := svc.RecordBookingPayment(context.Background(), 1, RecordBookingPaymentRequest{
			Amount: 120_00, Method: MethodCash,
		}, 10)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(240_00), repo.bookings[1].PaidAmount)
	assert.Equal(t, "paid", repo.bookings[1].PaymentStatus)
}

func TestRecordBookingPaymentValidation(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	seedBooking(repo, 1, 10, 200_00)

	_, err := svc.RecordBookingPayment(context.Background(), 1, RecordBookingPaymentRequest{
		Amount: 0, Method: MethodCash,
	}, 10)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.RecordBookingPayment(context.Background(), 1, RecordBookingPaymentRequest{
		Amount: -50, Method: MethodCash,
	}, 10)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.RecordBookingPayment(context.Background(), 1, RecordBookingPaymentRequest{
		Amount: 100, Method: "barter",
	}, 10)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestRecordBookingPaymentWrongClient(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	seedBooking(repo, 1, 10, 200_00)

	_, err := svc.RecordBookingPayment(context.Background(), 1, RecordBookingPaymentRequest{
		Amount: 100, Method: MethodCash,
	}, 77)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestRecordBookingPaymentNotFound(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	_, err := svc.RecordBookingPayment(context.Background(), 404, RecordBookingPaymentRequest{
		Amount: 100, Method: MethodCash,
	}, 10)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestConcurrentBookingPaymentsAccumulate(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	seedBooking(repo, 1, 10, 1_000_000)

	const recorders = 20
	const amount = int64(10_000)

	var wg sync.WaitGroup
	for i := 0; i < recorders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordBookingPayment(context.Background(), 1, RecordBookingPaymentRequest{
				Amount: amount, Method: MethodBankTransfer,
			}, 10)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(recorders)*amount, repo.bookings[1].PaidAmount)
	assert.Len(t, repo.bookingPayments, recorders)
}

func TestRecordInvoicePaymentSettles(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	// 1000.00 subtotal, 18% tax, 5% discount: total 1130.00.
	seedInvoice(repo, 1, 10, 113_000, "sent")

	_, err := svc.RecordInvoicePayment(context.Background(), 1, RecordInvoicePaymentRequest{
		Amount: 50_000, Method: MethodBankTransfer,
	}, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(63_000), repo.invoices[1].BalanceDue)
	assert.Equal(t, "sent", repo.invoices[1].Status)
	assert.Nil(t, repo.invoices[1].PaidDate)

	_, err = svc.RecordInvoicePayment(context.Background(), 1, RecordInvoicePaymentRequest{
		Amount: 63_000, Method: MethodBankTransfer,
	}, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), repo.invoices[1].BalanceDue)
	assert.Equal(t, "paid", repo.invoices[1].Status)
	require.NotNil(t, repo.invoices[1].PaidDate)
}

func TestRecordInvoicePaymentCancelledInvoice(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	seedInvoice(repo, 1, 10, 113_000, "cancelled")

	_, err := svc.RecordInvoicePayment(context.Background(), 1, RecordInvoicePaymentRequest{
		Amount: 1_000, Method: MethodCash,
	}, 10)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestRecordInvoicePaymentOvershoot(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	seedInvoice(repo, 1, 10, 100_000, "sent")

	_, err := svc.RecordInvoicePayment(context.Background(), 1, RecordInvoicePaymentRequest{
		Amount: 150_000, Method: MethodCheck,
	}, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(-50_000), repo.invoices[1].BalanceDue)
	assert.Equal(t, "paid", repo.invoices[1].Status)
}

func TestReconcile(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	seedInvoice(repo, 1, 10, 100_000, "sent")

	p, err := svc.RecordInvoicePayment(context.Background(), 1, RecordInvoicePaymentRequest{
		Amount: 100_000, Method: MethodBankTransfer,
	}, 10)
	require.NoError(t, err)

	reconciled, err := svc.Reconcile(context.Background(), p.ID, 42)
	require.NoError(t, err)
	assert.True(t, reconciled.Reconciled())
	require.NotNil(t, reconciled.ReconciledByID)
	assert.Equal(t, int64(42), *reconciled.ReconciledByID)

	_, err = svc.Reconcile(context.Background(), p.ID, 42)
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestReconcileNotFound(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	_, err := svc.Reconcile(context.Background(), 404, 42)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
