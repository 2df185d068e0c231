package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

func TestUsers_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	users := New().Users()

	u, err := users.Create(ctx, &domain.User{Username: "alice", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID != 1 {
		t.Fatalf("expected id 1, got %d", u.ID)
	}
	if _, err := users.Create(ctx, &domain.User{Username: "alice"}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	byName, err := users.FindByUsername(ctx, "alice")
	if err != nil || byName.ID != u.ID {
		t.Fatalf("FindByUsername: %+v, %v", byName, err)
	}
	if _, err := users.FindByID(ctx, 99); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUsers_GrantPermissions(t *testing.T) {
	ctx := context.Background()
	users := New().Users()
	u, _ := users.Create(ctx, &domain.User{Username: "bob"})

	got, err := users.GrantPermissions(ctx, u.ID, domain.PermSuperAdmin)
	if err != nil {
		t.Fatalf("GrantPermissions: %v", err)
	}
	if !got.IsAdmin() || !got.IsSuperAdmin() {
		t.Fatalf("expected admin+superadmin, got %v", got.Permissions)
	}
	if _, err := users.GrantPermissions(ctx, 42, domain.PermAdmin); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestBooks_CRUD(t *testing.T) {
	ctx := context.Background()
	books := New().Books()

	hp, err := books.Create(ctx, &domain.Book{Name: "Harry Potter", Price: 10, Author: "Rowling", Count: 3})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := books.Create(ctx, &domain.Book{Name: "Harry Potter"}); !errors.Is(err, domain.ErrBookExists) {
		t.Fatalf("expected ErrBookExists, got %v", err)
	}
	dune, _ := books.Create(ctx, &domain.Book{Name: "Dune", Count: 1})

	found, _ := books.SearchByName(ctx, "harry")
	if len(found) != 1 || found[0].ID != hp.ID {
		t.Fatalf("unexpected search result: %+v", found)
	}

	renamed := *dune
	renamed.Name = "Harry Potter"
	if err := books.Update(ctx, &renamed); !errors.Is(err, domain.ErrBookExists) {
		t.Fatalf("expected ErrBookExists on rename clash, got %v", err)
	}
	if err := books.Update(ctx, &domain.Book{ID: 77, Name: "x"}); !errors.Is(err, domain.ErrBookNotFound) {
		t.Fatalf("expected ErrBookNotFound, got %v", err)
	}

	if err := books.Delete(ctx, hp.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	all, _ := books.List(ctx)
	if len(all) != 1 || all[0].Name != "Dune" {
		t.Fatalf("unexpected list after delete: %+v", all)
	}
}

func TestPurchases_DecrementAndArchive(t *testing.T) {
	ctx := context.Background()
	store := New()
	_, _ = store.Books().Create(ctx, &domain.Book{Name: "Dune", Price: 9.5, Author: "Herbert", Count: 2})

	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	rec, remaining, err := store.Purchases().Purchase(ctx, ports.PurchaseOrder{BookName: "Dune", Quantity: 2, UserID: "5", At: at})
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if remaining != 0 || rec.Quantity != 2 || rec.UserID != "5" || !rec.ArchivedDate.Equal(at) {
		t.Fatalf("unexpected purchase: %+v remaining=%d", rec, remaining)
	}

	if _, _, err := store.Purchases().Purchase(ctx, ports.PurchaseOrder{BookName: "Dune", Quantity: 1, UserID: "5"}); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if _, _, err := store.Purchases().Purchase(ctx, ports.PurchaseOrder{BookName: "dune", Quantity: 1, UserID: "5"}); !errors.Is(err, domain.ErrBookNotFound) {
		t.Fatalf("purchase must match the exact name, got %v", err)
	}
	if n := len(store.ArchivedPurchases()); n != 1 {
		t.Fatalf("expected 1 archive record, got %d", n)
	}
}
