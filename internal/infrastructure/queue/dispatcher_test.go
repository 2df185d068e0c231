package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
	"github.com/99minutos/library-system/internal/core/service"
	"github.com/99minutos/library-system/internal/infrastructure/db/memory"
)

// trackingService records the peak number of concurrent calls per book.
type trackingService struct {
	mu      sync.Mutex
	active  map[string]int
	peak    map[string]int
	calls   atomic.Int64
	failFor string
}

func newTrackingService() *trackingService {
	return &trackingService{active: map[string]int{}, peak: map[string]int{}}
}

func (s *trackingService) Purchase(_ context.Context, in ports.PurchaseInput) (*ports.PurchaseResult, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.active[in.BookName]++
	if s.active[in.BookName] > s.peak[in.BookName] {
		s.peak[in.BookName] = s.active[in.BookName]
	}
	s.mu.Unlock()

	time.Sleep(time.Millisecond)

	s.mu.Lock()
	s.active[in.BookName]--
	s.mu.Unlock()

	if in.BookName == s.failFor {
		return nil, domain.ErrBookNotFound
	}
	return &ports.PurchaseResult{Purchase: &domain.ArchivedPurchase{Name: in.BookName, Quantity: in.Quantity}}, nil
}

func TestDispatcher_SerializesPerBook(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := newTrackingService()
	d := NewDispatcher(4, svc, zerolog.Nop())
	d.Start(ctx)

	var wg sync.WaitGroup
	for i := range 60 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			book := []string{"Dune", "Emma", "Ulysses"}[i%3]
			if _, err := d.Purchase(ctx, ports.PurchaseInput{BookName: book, Quantity: 1}); err != nil {
				t.Errorf("purchase: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if svc.calls.Load() != 60 {
		t.Fatalf("expected 60 calls, got %d", svc.calls.Load())
	}
	for book, peak := range svc.peak {
		if peak != 1 {
			t.Fatalf("book %s had %d concurrent purchases", book, peak)
		}
	}
}

func TestDispatcher_PropagatesErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := newTrackingService()
	svc.failFor = "Missing"
	d := NewDispatcher(2, svc, zerolog.Nop())
	d.Start(ctx)

	if _, err := d.Purchase(ctx, ports.PurchaseInput{BookName: "Missing", Quantity: 1}); !errors.Is(err, domain.ErrBookNotFound) {
		t.Fatalf("expected ErrBookNotFound, got %v", err)
	}
}

func TestDispatcher_Stopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(1, newTrackingService(), zerolog.Nop())
	d.Start(ctx)
	cancel()
	<-d.stopped

	_, err := d.Purchase(context.Background(), ports.PurchaseInput{BookName: "Dune", Quantity: 1})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable after stop, got %v", err)
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(0, newTrackingService(), zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
	if d.shardIndex("Dune") != d.shardIndex("Dune") {
		t.Fatalf("shard index must be deterministic")
	}
	if d.shardIndex(" Dune ") != d.shardIndex("Dune") {
		t.Fatalf("padded names must map to the same worker")
	}
}

func TestDispatcher_CancelledCallerIsUnavailable(t *testing.T) {
	d := NewDispatcher(1, newTrackingService(), zerolog.Nop())
	// Workers are not started, so the caller can only leave through ctx.
	d.workers[0] = make(chan purchaseJob)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Purchase(ctx, ports.PurchaseInput{BookName: "Dune", Quantity: 1})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
}

func TestDispatcher_ConcurrentStockWithMemoryStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.New()
	_, _ = store.Books().Create(ctx, &domain.Book{Name: "Dune", Count: 5})
	d := NewDispatcher(3, service.NewPurchaseService(store.Purchases(), nil, zerolog.Nop()), zerolog.Nop())
	d.Start(ctx)

	var ok, short atomic.Int64
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := d.Purchase(ctx, ports.PurchaseInput{
				BookName: "Dune",
				Quantity: 1,
				Caller:   &domain.AccessToken{UserID: id, Subject: "u"},
			})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				short.Add(1)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	if ok.Load() != 5 || short.Load() != 15 {
		t.Fatalf("expected 5/15, got %d/%d", ok.Load(), short.Load())
	}
}
