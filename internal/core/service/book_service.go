package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

// BookService implements catalog reads and admin CRUD.
type BookService struct {
	repo   ports.BookRepository
	logger zerolog.Logger
}

func NewBookService(repo ports.BookRepository, logger zerolog.Logger) *BookService {
	return &BookService{repo: repo, logger: logger}
}

func (s *BookService) List(ctx context.Context) ([]*domain.Book, error) {
	return s.repo.List(ctx)
}

// ListSummaries returns the name/price/author projection of every book.
func (s *BookService) ListSummaries(ctx context.Context) ([]domain.BookSummary, error) {
	books, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.BookSummary, 0, len(books))
	for _, b := range books {
		out = append(out, b.Summary())
	}
	return out, nil
}

func (s *BookService) Get(ctx context.Context, id int64) (*domain.Book, error) {
	if id <= 0 {
		return nil, domain.ErrBookNotFound
	}
	return s.repo.FindByID(ctx, id)
}

// Search returns books whose name contains name. An empty result is reported as
// domain.ErrBookNotFound.
func (s *BookService) Search(ctx context.Context, name string) ([]*domain.Book, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("search: %w: name is required", domain.ErrInvalidInput)
	}
	books, err := s.repo.SearchByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, domain.ErrBookNotFound
	}
	return books, nil
}

func (s *BookService) Create(ctx context.Context, input ports.BookInput) (*domain.Book, error) {
	book, err := bookFromInput(0, input)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, book)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("book_id", created.ID).Str("name", created.Name).Int("count", created.Count).Msg("book created")
	return created, nil
}

func (s *BookService) Update(ctx context.Context, pathID, bodyID int64, input ports.BookInput) error {
	if pathID != bodyID {
		return domain.ErrIDMismatch
	}
	book, err := bookFromInput(pathID, input)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, book); err != nil {
		return err
	}
	s.logger.Info().Int64("book_id", book.ID).Str("name", book.Name).Int("count", book.Count).Msg("book updated")
	return nil
}

func (s *BookService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrBookNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("book_id", id).Msg("book deleted")
	return nil
}

func bookFromInput(id int64, in ports.BookInput) (*domain.Book, error) {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	case in.Count < 0:
		return nil, fmt.Errorf("%w: count must not be negative", domain.ErrInvalidInput)
	case in.Price < 0 || math.IsNaN(in.Price) || math.IsInf(in.Price, 0):
		return nil, fmt.Errorf("%w: price must be a non-negative number", domain.ErrInvalidInput)
	}
	return &domain.Book{
		ID:     id,
		Name:   name,
		Price:  in.Price,
		Author: strings.TrimSpace(in.Author),
		Count:  in.Count,
	}, nil
}
