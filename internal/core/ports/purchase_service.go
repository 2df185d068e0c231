package ports

import (
	"context"

	"github.com/99minutos/library-system/internal/core/domain"
)

// PurchaseInput is the DTO passed from the transport layer to PurchaseService.
// Caller must come from a verified token, never from the request body.
type PurchaseInput struct {
	BookName       string
	Quantity       int
	Caller         *domain.AccessToken
	IdempotencyKey string // optional
}

// PurchaseResult is returned after a successful purchase.
type PurchaseResult struct {
	Purchase  *domain.ArchivedPurchase
	Remaining int
	// Replayed is true when the Idempotency-Key matched an earlier completed purchase.
	Replayed bool
}

// PurchaseService runs the purchase transaction.
type PurchaseService interface {
	Purchase(ctx context.Context, input PurchaseInput) (*PurchaseResult, error)
}
