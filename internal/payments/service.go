package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/batiwork/batiwork/internal/ledger"
	"github.com/batiwork/batiwork/internal/shared"
)

// Service is the payment recorder: the single writer of paid amounts and
// balances on bookings and invoices. Every recording appends the payment
// row and updates the parent's aggregates in one transaction, under an
// exclusive lock on the parent row.
type Service struct {
	repo     Repository
	idem     *IdempotencyStore
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service instance. The idempotency store may be nil,
// in which case idempotency keys are accepted but not enforced.
func NewService(repo Repository, idem *IdempotencyStore, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		idem:     idem,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// RecordBookingPayment appends a payment to a booking and recomputes the
// booking's paid amount and derived payment status. The booking's lifecycle
// status is never touched here. Overpayment is recorded as-is and flagged
// in the logs for manual reconciliation, never clamped.
func (s *Service) RecordBookingPayment(ctx context.Context, bookingID int64, req RecordBookingPaymentRequest, actorID int64) (*BookingPayment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	if !ValidMethod(req.Method) {
		return nil, shared.ValidationErrorf("unknown payment method %q", req.Method)
	}

	release, replay, err := s.reserveKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if replay != "" {
		id, ok := parseIdemRef(replay, "booking")
		if !ok {
			return nil, fmt.Errorf("%w: duplicate payment submission", shared.ErrConflict)
		}
		return s.repo.GetBookingPayment(ctx, id)
	}

	var payment *BookingPayment
	err = s.withNumberRetry(func(number string) error {
		return s.repo.Atomic(ctx, func(tx Tx) error {
			booking, err := tx.LockBooking(ctx, bookingID)
			if err != nil {
				return err
			}
			if booking.ClientID != actorID {
				return fmt.Errorf("%w: booking belongs to another client", shared.ErrForbidden)
			}

			paidAfter := ledger.ApplyPayment(booking.PaidAmount, req.Amount)
			status := ledger.DerivePaymentStatus(booking.TotalAmount, paidAfter)
			if paidAfter > booking.TotalAmount {
				s.logger.Warn("booking overpayment recorded",
					slog.Int64("booking_id", bookingID),
					slog.Int64("total_amount", booking.TotalAmount),
					slog.Int64("paid_amount", paidAfter))
			}

			p := &BookingPayment{
				PaymentNumber: number,
				BookingID:     bookingID,
				Amount:        req.Amount,
				Currency:      booking.Currency,
				Method:        req.Method,
				Status:        RecordPaid,
				TransactionID: req.TransactionID,
				Notes:         req.Notes,
				PaidAt:        s.now().UTC(),
			}
			if err := tx.InsertBookingPayment(ctx, p); err != nil {
				return err
			}
			if err := tx.UpdateBookingAggregates(ctx, bookingID, paidAfter, string(status)); err != nil {
				return err
			}
			payment = p
			return nil
		})
	})
	if err != nil {
		release(ctx)
		return nil, err
	}
	s.completeKey(ctx, req.IdempotencyKey, idemRef("booking", payment.ID))
	return payment, nil
}

// RecordInvoicePayment appends a payment to an invoice and recomputes its
// paid amount and balance due. When the balance reaches zero or below the
// invoice transitions to paid with the paid date stamped, inside the same
// transaction as the payment row.
func (s *Service) RecordInvoicePayment(ctx context.Context, invoiceID int64, req RecordInvoicePaymentRequest, actorID int64) (*InvoicePayment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	if !ValidMethod(req.Method) {
		return nil, shared.ValidationErrorf("unknown payment method %q", req.Method)
	}

	release, replay, err := s.reserveKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if replay != "" {
		id, ok := parseIdemRef(replay, "invoice")
		if !ok {
			return nil, fmt.Errorf("%w: duplicate payment submission", shared.ErrConflict)
		}
		return s.repo.GetInvoicePayment(ctx, id)
	}

	var payment *InvoicePayment
	err = s.withNumberRetry(func(number string) error {
		return s.repo.Atomic(ctx, func(tx Tx) error {
			inv, err := tx.LockInvoice(ctx, invoiceID)
			if err != nil {
				return err
			}
			if inv.ClientID != actorID {
				return fmt.Errorf("%w: invoice belongs to another client", shared.ErrForbidden)
			}
			if inv.Status == "cancelled" {
				return shared.ValidationErrorf("invoice %d is cancelled", invoiceID)
			}

			paidAfter := ledger.ApplyPayment(inv.PaidAmount, req.Amount)
			balance := ledger.BalanceDue(inv.TotalAmount, paidAfter)
			if balance < 0 {
				s.logger.Warn("invoice overpayment recorded",
					slog.Int64("invoice_id", invoiceID),
					slog.Int64("total_amount", inv.TotalAmount),
					slog.Int64("paid_amount", paidAfter))
			}

			status := inv.Status
			var paidDate *time.Time
			if balance <= 0 {
				status = "paid"
				now := s.now().UTC()
				paidDate = &now
			}

			p := &InvoicePayment{
				PaymentNumber: number,
				InvoiceID:     invoiceID,
				ClientID:      actorID,
				Amount:        req.Amount,
				Currency:      inv.Currency,
				Method:        req.Method,
				Status:        RecordPaid,
				Reference:     req.Reference,
				Notes:         req.Notes,
				PaidAt:        s.now().UTC(),
			}
			if err := tx.InsertInvoicePayment(ctx, p); err != nil {
				return err
			}
			if err := tx.UpdateInvoiceAggregates(ctx, invoiceID, paidAfter, balance, status, paidDate); err != nil {
				return err
			}
			payment = p
			return nil
		})
	})
	if err != nil {
		release(ctx)
		return nil, err
	}
	s.completeKey(ctx, req.IdempotencyKey, idemRef("invoice", payment.ID))
	return payment, nil
}

// Reconcile marks an invoice payment as matched against a bank statement.
// A payment reconciles at most once.
func (s *Service) Reconcile(ctx context.Context, paymentID, actorID int64) (*InvoicePayment, error) {
	p, err := s.repo.GetInvoicePayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("get invoice payment: %w", err)
	}
	if p.Reconciled() {
		return nil, fmt.Errorf("%w: payment already reconciled", shared.ErrConflict)
	}

	done, err := s.repo.Reconcile(ctx, paymentID, actorID, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("reconcile payment: %w", err)
	}
	if !done {
		return nil, fmt.Errorf("%w: payment reconciled concurrently", shared.ErrConflict)
	}
	return s.repo.GetInvoicePayment(ctx, paymentID)
}

// ListBookingPayments returns a booking's payments with pagination metadata.
func (s *Service) ListBookingPayments(ctx context.Context, req ListPaymentsRequest) ([]BookingPayment, shared.Pagination, error) {
	items, total, err := s.repo.ListBookingPayments(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// ListInvoicePayments returns an invoice's payments with pagination metadata.
func (s *Service) ListInvoicePayments(ctx context.Context, req ListPaymentsRequest) ([]InvoicePayment, shared.Pagination, error) {
	items, total, err := s.repo.ListInvoicePayments(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// reserveKey claims the idempotency key and returns the release to call if
// recording fails. When an earlier request with the same key already
// committed, replay carries that payment's reference so the caller can
// answer with the original instead of charging twice. A key whose first
// request is still in flight surfaces as a conflict.
func (s *Service) reserveKey(ctx context.Context, key string) (release func(context.Context), replay string, err error) {
	if key == "" || s.idem == nil {
		return func(context.Context) {}, "", nil
	}
	ok, ref, err := s.idem.Reserve(ctx, key)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		if ref == idemPending || ref == "" {
			return nil, "", fmt.Errorf("%w: duplicate payment submission in flight", shared.ErrConflict)
		}
		return nil, ref, nil
	}
	return func(ctx context.Context) {
		if err := s.idem.Release(ctx, key); err != nil {
			s.logger.Error("release idempotency key", slog.Any("error", err))
		}
	}, "", nil
}

// completeKey stores the committed payment's reference under the key. A
// failure here only costs the replay answer, never the recording.
func (s *Service) completeKey(ctx context.Context, key, ref string) {
	if key == "" || s.idem == nil {
		return
	}
	if err := s.idem.Complete(ctx, key, ref); err != nil {
		s.logger.Error("complete idempotency key", slog.Any("error", err))
	}
}

func idemRef(kind string, id int64) string {
	return kind + ":" + strconv.FormatInt(id, 10)
}

func parseIdemRef(ref, kind string) (int64, bool) {
	rest, found := strings.CutPrefix(ref, kind+":")
	if !found {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	return id, err == nil
}

// withNumberRetry runs fn with a fresh payment number, retrying on a
// uniqueness conflict up to the shared attempt bound. Payment numbers double
// as external references, so a uuid would not do here.
func (s *Service) withNumberRetry(fn func(number string) error) error {
	var err error
	for attempt := 0; attempt < shared.NumberRetryAttempts; attempt++ {
		err = fn(shared.NewPaymentNumber())
		if err == nil || !errors.Is(err, shared.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("%w: payment number collisions exhausted retries", shared.ErrConflict)
}
