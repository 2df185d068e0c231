package ports

import (
	"context"

	"github.com/99minutos/library-system/internal/core/domain"
)

// BookInput carries the writable fields of a catalog item.
type BookInput struct {
	Name   string
	Price  float64
	Author string
	Count  int
}

// BookService defines catalog use cases.
type BookService interface {
	List(ctx context.Context) ([]*domain.Book, error)
	ListSummaries(ctx context.Context) ([]domain.BookSummary, error)
	Get(ctx context.Context, id int64) (*domain.Book, error)
	Search(ctx context.Context, name string) ([]*domain.Book, error)
	Create(ctx context.Context, input BookInput) (*domain.Book, error)
	// Update replaces the book at pathID. bodyID must match pathID.
	Update(ctx context.Context, pathID, bodyID int64, input BookInput) error
	Delete(ctx context.Context, id int64) error
}
