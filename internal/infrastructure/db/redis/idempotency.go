package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

const (
	// pendingTTL bounds how long a crashed request can block its key.
	pendingTTL   = time.Minute
	completedTTL = 24 * time.Hour
	pendingValue = "pending"
)

// IdempotencyStore remembers completed purchases per caller-scoped key.
// Key format: purchase:idem:<user_id>:<client_key>
type IdempotencyStore struct {
	client *redis.Client
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given Redis client.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

type storedPurchase struct {
	Purchase  domain.ArchivedPurchase `json:"purchase"`
	Remaining int                     `json:"remaining"`
}

// Reserve sets the key to pending only if it does not exist yet.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(key), pendingValue, pendingTTL).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency reserve: %w", err)
	}
	return ok, nil
}

// Lookup returns the stored result, or found=false while the key is pending or absent.
func (s *IdempotencyStore) Lookup(ctx context.Context, key string) (*ports.PurchaseResult, bool, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) || raw == pendingValue {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("idempotency lookup: %w", err)
	}

	var sp storedPurchase
	if err := json.Unmarshal([]byte(raw), &sp); err != nil {
		return nil, false, fmt.Errorf("idempotency decode: %w", err)
	}
	return &ports.PurchaseResult{Purchase: &sp.Purchase, Remaining: sp.Remaining}, true, nil
}

// Complete overwrites the pending marker with the result.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, result *ports.PurchaseResult) error {
	if result == nil || result.Purchase == nil {
		return errors.New("idempotency complete: empty result")
	}
	raw, err := json.Marshal(storedPurchase{Purchase: *result.Purchase, Remaining: result.Remaining})
	if err != nil {
		return fmt.Errorf("idempotency encode: %w", err)
	}
	return s.client.Set(ctx, s.key(key), raw, completedTTL).Err()
}

// Release drops a pending reservation so the client may retry with the same key.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *IdempotencyStore) key(key string) string {
	return "purchase:idem:" + key
}
