package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/99minutos/library-system/internal/core/domain"
)

const bookColumns = `id, name, price, author, count`

type BookRepository struct {
	pool *pgxpool.Pool
}

func NewBookRepository(pool *pgxpool.Pool) *BookRepository {
	return &BookRepository{pool: pool}
}

func (r *BookRepository) List(ctx context.Context) ([]*domain.Book, error) {
	return r.query(ctx, `SELECT `+bookColumns+` FROM books ORDER BY id`)
}

func (r *BookRepository) FindByID(ctx context.Context, id int64) (*domain.Book, error) {
	rows, err := r.query(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrBookNotFound
	}
	return rows[0], nil
}

// SearchByName uses ILIKE with the fragment's wildcards escaped.
func (r *BookRepository) SearchByName(ctx context.Context, fragment string) ([]*domain.Book, error) {
	pattern := "%" + likeEscaper.Replace(fragment) + "%"
	return r.query(ctx, `SELECT `+bookColumns+` FROM books WHERE name ILIKE $1 ESCAPE '\' ORDER BY id`, pattern)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *BookRepository) Create(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	var b domain.Book
	err := r.pool.QueryRow(ctx,
		`INSERT INTO books (name, price, author, count) VALUES ($1, $2, $3, $4) RETURNING `+bookColumns,
		book.Name, book.Price, book.Author, book.Count,
	).Scan(&b.ID, &b.Name, &b.Price, &b.Author, &b.Count)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrBookExists
		}
		return nil, fmt.Errorf("insert book: %w", classify(err))
	}
	return &b, nil
}

func (r *BookRepository) Update(ctx context.Context, book *domain.Book) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE books SET name = $2, price = $3, author = $4, count = $5 WHERE id = $1`,
		book.ID, book.Name, book.Price, book.Author, book.Count,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrBookExists
		}
		return fmt.Errorf("update book: %w", classify(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

func (r *BookRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", classify(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

func (r *BookRepository) query(ctx context.Context, sql string, args ...any) ([]*domain.Book, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", classify(err))
	}
	books, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Book, error) {
		var b domain.Book
		err := row.Scan(&b.ID, &b.Name, &b.Price, &b.Author, &b.Count)
		return &b, err
	})
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("scan books: %w", classify(err))
	}
	return books, nil
}
