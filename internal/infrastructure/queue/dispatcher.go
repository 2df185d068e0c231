package queue

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

type purchaseJob struct {
	ctx   context.Context
	input ports.PurchaseInput
	reply chan purchaseReply
}

type purchaseReply struct {
	result *ports.PurchaseResult
	err    error
}

// Dispatcher routes purchases to a fixed set of workers using consistent hashing on
// the book name. All purchases of one book run on the same worker, one at a time,
// so they never contend inside this process. The store's own atomicity still
// guards against other processes.
type Dispatcher struct {
	workers []chan purchaseJob
	service ports.PurchaseService
	log     zerolog.Logger
	stopped chan struct{}
}

var _ ports.PurchaseService = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers in front of
// service. If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.PurchaseService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan purchaseJob, numWorkers),
		service: service,
		log:     log,
		stopped: make(chan struct{}),
	}
	for i := range d.workers {
		d.workers[i] = make(chan purchaseJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
	go func() {
		<-ctx.Done()
		close(d.stopped)
	}()
}

// Purchase enqueues the purchase on the worker owning its book and waits for the result.
func (d *Dispatcher) Purchase(ctx context.Context, in ports.PurchaseInput) (*ports.PurchaseResult, error) {
	select {
	case <-d.stopped:
		return nil, fmt.Errorf("purchase dispatcher stopped: %w", domain.ErrStoreUnavailable)
	default:
	}

	job := purchaseJob{ctx: ctx, input: in, reply: make(chan purchaseReply, 1)}
	select {
	case d.workers[d.shardIndex(in.BookName)] <- job:
	case <-ctx.Done():
		return nil, cancelled(ctx.Err())
	case <-d.stopped:
		return nil, fmt.Errorf("purchase dispatcher stopped: %w", domain.ErrStoreUnavailable)
	}

	select {
	case r := <-job.reply:
		return r.result, r.err
	case <-ctx.Done():
		return nil, cancelled(ctx.Err())
	case <-d.stopped:
		return nil, fmt.Errorf("purchase dispatcher stopped: %w", domain.ErrStoreUnavailable)
	}
}

// shardIndex maps a book name deterministically to a worker index. Names are
// trimmed the same way the purchase service trims them before lookup.
func (d *Dispatcher) shardIndex(bookName string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.TrimSpace(bookName)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

// cancelled reports a caller-side abort as a retryable unavailability.
func cancelled(err error) error {
	return fmt.Errorf("purchase cancelled: %w: %w", domain.ErrStoreUnavailable, err)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan purchaseJob) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok || ctx.Err() != nil {
				return
			}
			// The caller gave up before its turn came; skip it without side effects.
			if err := job.ctx.Err(); err != nil {
				job.reply <- purchaseReply{err: cancelled(err)}
				continue
			}
			res, err := d.service.Purchase(job.ctx, job.input)
			if err != nil {
				d.log.Debug().Err(err).
					Str("book", job.input.BookName).
					Int("worker_id", id).
					Msg("purchase rejected")
			}
			job.reply <- purchaseReply{result: res, err: err}
		}
	}
}
