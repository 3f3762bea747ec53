package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idemKeyPrefix = "payments:idem:"

	// idemPending marks a key whose first request has not committed yet.
	idemPending = "pending"
)

// IdempotencyStore tracks client-supplied idempotency keys so a retried
// payment submission is recorded once. A key starts out pending; after the
// recording commits it holds a reference to the stored payment, which a
// replay returns instead of charging again. Keys expire after the
// configured TTL.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore builds an IdempotencyStore.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve claims the key for this request. When an earlier request already
// claimed it, ok is false and ref carries whatever that request stored:
// idemPending while it is still in flight, or the committed payment's
// reference once Complete ran.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (ok bool, ref string, err error) {
	ok, err = s.client.SetNX(ctx, idemKeyPrefix+key, idemPending, s.ttl).Result()
	if err != nil {
		return false, "", fmt.Errorf("reserve idempotency key: %w", err)
	}
	if ok {
		return true, "", nil
	}

	ref, err = s.client.Get(ctx, idemKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between the claim attempt and the read; treat it as an
		// in-flight duplicate rather than racing for a second recording.
		return false, idemPending, nil
	}
	if err != nil {
		return false, "", fmt.Errorf("read idempotency key: %w", err)
	}
	return false, ref, nil
}

// Complete stores the recorded payment's reference under the key so a
// replayed submission can be answered with the original payment.
func (s *IdempotencyStore) Complete(ctx context.Context, key, ref string) error {
	return s.client.Set(ctx, idemKeyPrefix+key, ref, s.ttl).Err()
}

// Release frees a reserved key after the recording failed, so the client
// can retry with the same key.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, idemKeyPrefix+key).Err()
}
