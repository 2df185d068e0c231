package ports

import (
	"context"
	"time"

	"github.com/99minutos/library-system/internal/core/domain"
)

// PurchaseOrder is the unit of work handed to the store.
type PurchaseOrder struct {
	BookName string
	Quantity int
	UserID   string
	At       time.Time
}

// PurchaseRepository executes a purchase atomically: it decrements the stock of the
// named book only if at least Quantity units remain, and appends the archive record in
// the same unit of work. Either both writes are applied or neither is.
//
// Errors: domain.ErrBookNotFound, domain.ErrInsufficientStock,
// domain.ErrConcurrencyConflict (lost a race, safe to re-check), or a wrapped store error.
type PurchaseRepository interface {
	Purchase(ctx context.Context, order PurchaseOrder) (*domain.ArchivedPurchase, int, error)
}
