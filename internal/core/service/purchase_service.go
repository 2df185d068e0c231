package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

// purchaseAttempts bounds how often a purchase that lost a write race is re-run
// against fresh state before ErrConcurrencyConflict is surfaced.
const purchaseAttempts = 2

// IdempotencyStore abstracts the purchase replay cache (Redis).
// Keys passed in are already scoped to the caller.
type IdempotencyStore interface {
	// Reserve claims key for an in-flight purchase. It reports false when the key
	// is already reserved or completed.
	Reserve(ctx context.Context, key string) (bool, error)
	// Lookup returns the stored result of a completed purchase.
	Lookup(ctx context.Context, key string) (*ports.PurchaseResult, bool, error)
	Complete(ctx context.Context, key string, result *ports.PurchaseResult) error
	Release(ctx context.Context, key string) error
}

type purchaseService struct {
	repo        ports.PurchaseRepository
	idempotency IdempotencyStore
	log         zerolog.Logger
	now         func() time.Time
}

// NewPurchaseService returns the inventory transaction manager. idempotency may be
// nil, in which case Idempotency-Key values are ignored.
func NewPurchaseService(repo ports.PurchaseRepository, idempotency IdempotencyStore, log zerolog.Logger) ports.PurchaseService {
	return &purchaseService{
		repo:        repo,
		idempotency: idempotency,
		log:         log,
		now:         time.Now,
	}
}

// Purchase validates the request, then checks stock, decrements it and archives the
// sale as one atomic store operation. Validation failures have no side effects.
func (s *purchaseService) Purchase(ctx context.Context, in ports.PurchaseInput) (*ports.PurchaseResult, error) {
	if in.Caller == nil || in.Caller.UserID <= 0 {
		return nil, domain.ErrUnauthenticated
	}
	bookName := strings.TrimSpace(in.BookName)
	if bookName == "" {
		return nil, fmt.Errorf("purchase: %w: book name is required", domain.ErrInvalidInput)
	}
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	var key string
	if in.IdempotencyKey != "" && s.idempotency != nil {
		key = strconv.FormatInt(in.Caller.UserID, 10) + ":" + in.IdempotencyKey
		replay, err := s.reserve(ctx, key)
		if err != nil || replay != nil {
			return replay, err
		}
	}

	order := ports.PurchaseOrder{
		BookName: bookName,
		Quantity: in.Quantity,
		UserID:   strconv.FormatInt(in.Caller.UserID, 10),
	}

	var (
		archived  *domain.ArchivedPurchase
		remaining int
		err       error
	)
	for attempt := 1; attempt <= purchaseAttempts; attempt++ {
		order.At = s.now().UTC()
		archived, remaining, err = s.repo.Purchase(ctx, order)
		if !errors.Is(err, domain.ErrConcurrencyConflict) {
			break
		}
		s.log.Warn().Str("book", bookName).Int("attempt", attempt).Msg("purchase lost a write race, re-checking stock")
	}
	if err != nil {
		if key != "" {
			if relErr := s.idempotency.Release(ctx, key); relErr != nil {
				s.log.Warn().Err(relErr).Str("book", bookName).Msg("failed to release idempotency key")
			}
		}
		return nil, err
	}

	result := &ports.PurchaseResult{Purchase: archived, Remaining: remaining}
	if key != "" {
		if cErr := s.idempotency.Complete(ctx, key, result); cErr != nil {
			s.log.Warn().Err(cErr).Str("book", bookName).Msg("failed to store idempotent result")
		}
	}

	s.log.Info().
		Str("book", bookName).
		Int("quantity", in.Quantity).
		Int("remaining", remaining).
		Int64("user_id", in.Caller.UserID).
		Msg("book purchased")

	return result, nil
}

// reserve returns a replayed result when key already completed, and
// domain.ErrPurchaseInProgress when it is still reserved by another request.
func (s *purchaseService) reserve(ctx context.Context, key string) (*ports.PurchaseResult, error) {
	reserved, err := s.idempotency.Reserve(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("purchase: reserve idempotency key: %w: %w", domain.ErrStoreUnavailable, err)
	}
	if reserved {
		return nil, nil
	}

	prev, found, err := s.idempotency.Lookup(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("purchase: lookup idempotency key: %w: %w", domain.ErrStoreUnavailable, err)
	}
	if !found {
		return nil, domain.ErrPurchaseInProgress
	}

	s.log.Info().Str("idempotency_key", key).Msg("idempotent purchase replay")
	replay := *prev
	replay.Replayed = true
	return &replay, nil
}
