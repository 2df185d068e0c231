package mongo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

// Requires MONGO_TEST_URI pointing at a replica set; transactions need one.
func TestPurchaseRepository_ConcurrentPurchasesAcrossBooks(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, db, err := Connect(ctx, Config{URI: uri, Database: fmt.Sprintf("library_test_%d", time.Now().UnixNano())})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	if err := EnsureIndexes(ctx, db); err != nil {
		t.Fatalf("indexes: %v", err)
	}

	books := NewBookRepository(db)
	names := []string{"Dune", "Emma", "Ulysses"}
	for _, name := range names {
		if _, err := books.Create(ctx, &domain.Book{Name: name, Price: 10, Author: "a", Count: 5}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	repo := NewPurchaseRepository(db)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ids  = map[int64]bool{}
		sold = map[string]int{}
	)
	for i := 0; i < 24; i++ {
		name := names[i%len(names)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, _, err := repo.Purchase(ctx, ports.PurchaseOrder{BookName: name, Quantity: 1, UserID: "u", At: time.Now()})
			if errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrConcurrencyConflict) {
				return
			}
			if err != nil {
				t.Errorf("purchase %s: %v", name, err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if ids[rec.ID] {
				t.Errorf("duplicate archive id %d", rec.ID)
			}
			ids[rec.ID] = true
			sold[name]++
		}()
	}
	wg.Wait()

	all, err := books.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, b := range all {
		if b.Count < 0 || b.Count+sold[b.Name] != 5 {
			t.Fatalf("book %s: count %d with %d sold", b.Name, b.Count, sold[b.Name])
		}
	}
}

func TestPurchaseRepository_UnknownBook(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, db, err := Connect(ctx, Config{URI: uri, Database: fmt.Sprintf("library_test_%d", time.Now().UnixNano())})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	_, _, err = NewPurchaseRepository(db).Purchase(ctx, ports.PurchaseOrder{BookName: "Missing", Quantity: 1, UserID: "u", At: time.Now()})
	if !errors.Is(err, domain.ErrBookNotFound) {
		t.Fatalf("expected ErrBookNotFound, got %v", err)
	}
}
