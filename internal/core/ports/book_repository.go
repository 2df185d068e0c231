package ports

import (
	"context"

	"github.com/99minutos/library-system/internal/core/domain"
)

// BookRepository defines persistence operations for the catalog.
type BookRepository interface {
	List(ctx context.Context) ([]*domain.Book, error)
	FindByID(ctx context.Context, id int64) (*domain.Book, error)
	// SearchByName returns books whose name contains fragment, case-insensitively.
	SearchByName(ctx context.Context, fragment string) ([]*domain.Book, error)
	Create(ctx context.Context, book *domain.Book) (*domain.Book, error)
	// Update replaces every field of the book with the given ID.
	Update(ctx context.Context, book *domain.Book) error
	Delete(ctx context.Context, id int64) error
}
