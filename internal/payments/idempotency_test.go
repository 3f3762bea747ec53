package payments

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batiwork/batiwork/internal/shared"
)

func newTestStore(t *testing.T) (*IdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewIdempotencyStore(client, time.Hour), mr
}

func TestIdempotencyReserve(t *testing.T) {
	store, _ := newTestStore(t)

	ok, _, err := store.Reserve(context.Background(), "abc-123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, ref, err := store.Reserve(context.Background(), "abc-123")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, idemPending, ref)

	ok, _, err = store.Reserve(context.Background(), "abc-124")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIdempotencyCompleteStoresReference(t *testing.T) {
	store, _ := newTestStore(t)

	ok, _, err := store.Reserve(context.Background(), "abc-123")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Complete(context.Background(), "abc-123", "booking:42"))

	ok, ref, err := store.Reserve(context.Background(), "abc-123")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "booking:42", ref)
}

func TestIdempotencyReleaseAllowsRetry(t *testing.T) {
	store, _ := newTestStore(t)

	ok, _, err := store.Reserve(context.Background(), "abc-123")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Release(context.Background(), "abc-123"))

	ok, _, err = store.Reserve(context.Background(), "abc-123")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIdempotencyKeyExpires(t *testing.T) {
	store, mr := newTestStore(t)

	ok, _, err := store.Reserve(context.Background(), "abc-123")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Hour)

	ok, _, err = store.Reserve(context.Background(), "abc-123")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReplayedSubmissionReturnsOriginalPayment(t *testing.T) {
	store, _ := newTestStore(t)
	repo := newMockRepository()
	seedBooking(repo, 1, 10, 200_00)

	svc := newTestService(repo)
	svc.idem = store

	req := RecordBookingPaymentRequest{
		Amount: 50_00, Method: MethodMobileMoney, IdempotencyKey: "client-retry-1",
	}
	first, err := svc.RecordBookingPayment(context.Background(), 1, req, 10)
	require.NoError(t, err)

	// A client that lost the first response resubmits and gets the
	// original payment back; nothing is charged twice.
	again, err := svc.RecordBookingPayment(context.Background(), 1, req, 10)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, first.PaymentNumber, again.PaymentNumber)
	assert.Equal(t, int64(50_00), repo.bookings[1].PaidAmount)
	assert.Len(t, repo.bookingPayments, 1)
}

func TestReplayedInvoiceSubmissionReturnsOriginalPayment(t *testing.T) {
	store, _ := newTestStore(t)
	repo := newMockRepository()
	seedInvoice(repo, 1, 10, 113_000, "sent")

	svc := newTestService(repo)
	svc.idem = store

	req := RecordInvoicePaymentRequest{
		Amount: 50_000, Method: MethodBankTransfer, IdempotencyKey: "client-retry-inv-1",
	}
	first, err := svc.RecordInvoicePayment(context.Background(), 1, req, 10)
	require.NoError(t, err)

	again, err := svc.RecordInvoicePayment(context.Background(), 1, req, 10)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, int64(50_000), repo.invoices[1].PaidAmount)
}

func TestInFlightDuplicateRejected(t *testing.T) {
	store, _ := newTestStore(t)
	repo := newMockRepository()
	seedBooking(repo, 1, 10, 200_00)

	svc := newTestService(repo)
	svc.idem = store

	// The key is claimed but the first recording has not committed yet;
	// the duplicate has no original payment to hand back.
	ok, _, err := store.Reserve(context.Background(), "client-retry-2")
	require.NoError(t, err)
	require.True(t, ok)

	req := RecordBookingPaymentRequest{
		Amount: 50_00, Method: MethodMobileMoney, IdempotencyKey: "client-retry-2",
	}
	_, err = svc.RecordBookingPayment(context.Background(), 1, req, 10)
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestFailedRecordingReleasesKey(t *testing.T) {
	store, _ := newTestStore(t)
	repo := newMockRepository()
	seedBooking(repo, 1, 10, 200_00)

	svc := newTestService(repo)
	svc.idem = store

	// First attempt hits another client's booking and fails; the key must
	// free up for the corrected retry.
	req := RecordBookingPaymentRequest{
		Amount: 50_00, Method: MethodMobileMoney, IdempotencyKey: "client-retry-3",
	}
	_, err := svc.RecordBookingPayment(context.Background(), 1, req, 77)
	require.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.RecordBookingPayment(context.Background(), 1, req, 10)
	require.NoError(t, err)
}
