package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

// PurchaseRepository implements ports.PurchaseRepository with a conditional UPDATE
// and an INSERT in one transaction.
type PurchaseRepository struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepository(pool *pgxpool.Pool) ports.PurchaseRepository {
	return &PurchaseRepository{pool: pool}
}

// Purchase decrements with "WHERE count >= quantity". Zero affected rows means the
// book is missing or short of stock; a follow-up read tells the two apart.
func (r *PurchaseRepository) Purchase(ctx context.Context, order ports.PurchaseOrder) (*domain.ArchivedPurchase, int, error) {
	var (
		rec       *domain.ArchivedPurchase
		remaining int
	)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var b domain.Book
		err := tx.QueryRow(ctx,
			`UPDATE books SET count = count - $2
			  WHERE name = $1 AND count >= $2
			  RETURNING `+bookColumns,
			order.BookName, order.Quantity,
		).Scan(&b.ID, &b.Name, &b.Price, &b.Author, &b.Count)
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM books WHERE name = $1)`, order.BookName).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return domain.ErrBookNotFound
			}
			return domain.ErrInsufficientStock
		}
		if err != nil {
			return err
		}

		a := domain.ArchivedPurchase{
			Name:         b.Name,
			Price:        b.Price,
			Author:       b.Author,
			Quantity:     order.Quantity,
			ArchivedDate: order.At.UTC(),
			UserID:       order.UserID,
		}
		if err := tx.QueryRow(ctx,
			`INSERT INTO archived_books (name, price, author, quantity, archived_date, user_id)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			a.Name, a.Price, a.Author, a.Quantity, a.ArchivedDate, a.UserID,
		).Scan(&a.ID); err != nil {
			return err
		}

		rec = &a
		remaining = b.Count
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) || errors.Is(err, domain.ErrInsufficientStock) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("purchase %q: %w", order.BookName, classify(err))
	}
	return rec, remaining, nil
}
