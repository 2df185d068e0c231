// Package memory implements the store in process memory for development and testing.
// A single mutex guards all collections, so every operation, including the
// check-decrement-archive purchase sequence, is atomic.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

// Store holds users, books and archived purchases.
type Store struct {
	mu       sync.Mutex
	users    map[int64]*domain.User
	books    map[int64]*domain.Book
	archived []domain.ArchivedPurchase

	userIDCounter     int64
	bookIDCounter     int64
	purchaseIDCounter int64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		users: make(map[int64]*domain.User),
		books: make(map[int64]*domain.Book),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Users returns the user repository view of the store.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Books returns the catalog repository view of the store.
func (s *Store) Books() *BookRepository { return &BookRepository{s: s} }

// Purchases returns the purchase repository view of the store.
func (s *Store) Purchases() *PurchaseRepository { return &PurchaseRepository{s: s} }

// ArchivedPurchases returns a copy of the archive in insertion order.
func (s *Store) ArchivedPurchases() []domain.ArchivedPurchase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.archived)
}

var (
	_ ports.UserRepository     = (*UserRepository)(nil)
	_ ports.BookRepository     = (*BookRepository)(nil)
	_ ports.PurchaseRepository = (*PurchaseRepository)(nil)
)

// --- UserRepository ---

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.userByName(user.Username) != nil {
		return nil, domain.ErrUserExists
	}
	r.s.userIDCounter++
	u := *user
	u.ID = r.s.userIDCounter
	r.s.users[u.ID] = &u
	out := u
	return &out, nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := r.s.userByName(username)
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *UserRepository) GrantPermissions(_ context.Context, id int64, perms domain.Permissions) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if granted := u.Permissions.Grant(perms); granted != u.Permissions {
		u.Permissions = granted
		u.UpdatedAt = time.Now().UTC()
	}
	out := *u
	return &out, nil
}

func (s *Store) userByName(username string) *domain.User {
	for _, u := range s.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

// --- BookRepository ---

type BookRepository struct{ s *Store }

func (r *BookRepository) List(_ context.Context) ([]*domain.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.sortedBooks(func(*domain.Book) bool { return true }), nil
}

func (r *BookRepository) FindByID(_ context.Context, id int64) (*domain.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.books[id]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	out := *b
	return &out, nil
}

func (r *BookRepository) SearchByName(_ context.Context, fragment string) ([]*domain.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	needle := strings.ToLower(fragment)
	return r.s.sortedBooks(func(b *domain.Book) bool {
		return strings.Contains(strings.ToLower(b.Name), needle)
	}), nil
}

func (r *BookRepository) Create(_ context.Context, book *domain.Book) (*domain.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.bookByName(book.Name) != nil {
		return nil, domain.ErrBookExists
	}
	r.s.bookIDCounter++
	b := *book
	b.ID = r.s.bookIDCounter
	r.s.books[b.ID] = &b
	out := b
	return &out, nil
}

func (r *BookRepository) Update(_ context.Context, book *domain.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.books[book.ID]; !ok {
		return domain.ErrBookNotFound
	}
	if other := r.s.bookByName(book.Name); other != nil && other.ID != book.ID {
		return domain.ErrBookExists
	}
	b := *book
	r.s.books[b.ID] = &b
	return nil
}

func (r *BookRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.books[id]; !ok {
		return domain.ErrBookNotFound
	}
	delete(r.s.books, id)
	return nil
}

func (s *Store) bookByName(name string) *domain.Book {
	for _, b := range s.books {
		if b.Name == name {
			return b
		}
	}
	return nil
}

func (s *Store) sortedBooks(keep func(*domain.Book) bool) []*domain.Book {
	out := make([]*domain.Book, 0, len(s.books))
	for _, b := range s.books {
		if keep(b) {
			clone := *b
			out = append(out, &clone)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Book) int { return int(a.ID - b.ID) })
	return out
}

// --- PurchaseRepository ---

type PurchaseRepository struct{ s *Store }

// Purchase holds the store lock across check, decrement and archive.
func (r *PurchaseRepository) Purchase(_ context.Context, order ports.PurchaseOrder) (*domain.ArchivedPurchase, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b := r.s.bookByName(order.BookName)
	if b == nil {
		return nil, 0, domain.ErrBookNotFound
	}
	if b.Count < order.Quantity {
		return nil, b.Count, domain.ErrInsufficientStock
	}

	b.Count -= order.Quantity
	r.s.purchaseIDCounter++
	rec := domain.ArchivedPurchase{
		ID:           r.s.purchaseIDCounter,
		Name:         b.Name,
		Price:        b.Price,
		Author:       b.Author,
		Quantity:     order.Quantity,
		ArchivedDate: order.At,
		UserID:       order.UserID,
	}
	r.s.archived = append(r.s.archived, rec)
	return &rec, b.Count, nil
}
