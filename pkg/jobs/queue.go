package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned by TryEnqueue when the buffer has no room.
	ErrQueueFull = errors.New("jobs: queue full")
	// ErrStopped is returned for items offered before Start or after Stop.
	ErrStopped = errors.New("jobs: queue not running")
)

// Config sizes a Queue. Workers defaults to 1, which processes items in
// enqueue order; Buffer defaults to 4 per worker.
type Config struct {
	Workers int
	Buffer  int
	Logger  *zap.Logger
}

// Stats counts handled items since construction.
type Stats struct {
	Processed uint64
	Failed    uint64
	Depth     int
}

// Queue hands items of type T to a fixed pool of workers. Handler errors are
// counted and logged; items are never retried.
type Queue[T any] struct {
	name    string
	handle  func(context.Context, T) error
	workers int
	logger  *zap.Logger

	items chan T
	mu    sync.RWMutex
	ctx   context.Context
	stop  context.CancelFunc
	wg    sync.WaitGroup

	processed atomic.Uint64
	failed    atomic.Uint64
}

// New builds a stopped queue.
func New[T any](name string, handle func(context.Context, T) error, cfg Config) *Queue[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = cfg.Workers * 4
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue[T]{
		name:    name,
		handle:  handle,
		workers: cfg.Workers,
		logger:  cfg.Logger.With(zap.String("queue", name)),
		items:   make(chan T, cfg.Buffer),
	}
}

// Start launches the workers. Calling it on a running queue is a no-op.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stop != nil {
		return
	}
	q.ctx, q.stop = context.WithCancel(ctx)
	q.wg.Add(q.workers)
	for i := 0; i < q.workers; i++ {
		go q.work()
	}
	q.logger.Info("queue started", zap.Int("workers", q.workers), zap.Int("buffer", cap(q.items)))
}

// Stop refuses new items, finishes everything already buffered and waits for
// the workers to exit.
func (q *Queue[T]) Stop() {
	q.mu.Lock()
	if q.stop == nil {
		q.mu.Unlock()
		return
	}
	q.stop()
	q.stop = nil
	q.mu.Unlock()

	q.wg.Wait()
	s := q.Stats()
	q.logger.Info("queue stopped", zap.Uint64("processed", s.Processed), zap.Uint64("failed", s.Failed))
}

// Enqueue offers item, waiting for buffer room until ctx ends.
func (q *Queue[T]) Enqueue(ctx context.Context, item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stop == nil || q.ctx.Err() != nil {
		return fmt.Errorf("%s: %w", q.name, ErrStopped)
	}
	select {
	case q.items <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.ctx.Done():
		return fmt.Errorf("%s: %w", q.name, ErrStopped)
	}
}

// TryEnqueue offers item without waiting.
func (q *Queue[T]) TryEnqueue(item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stop == nil || q.ctx.Err() != nil {
		return fmt.Errorf("%s: %w", q.name, ErrStopped)
	}
	select {
	case q.items <- item:
		return nil
	default:
		return fmt.Errorf("%s: %w", q.name, ErrQueueFull)
	}
}

// Stats reports counters and the current buffer depth.
func (q *Queue[T]) Stats() Stats {
	return Stats{Processed: q.processed.Load(), Failed: q.failed.Load(), Depth: len(q.items)}
}

func (q *Queue[T]) work() {
	defer q.wg.Done()
	for {
		select {
		case item := <-q.items:
			q.run(q.ctx, item)
		case <-q.ctx.Done():
			// Items accepted before Stop still run, detached from cancellation.
			ctx := context.WithoutCancel(q.ctx)
			for {
				select {
				case item := <-q.items:
					q.run(ctx, item)
				default:
					return
				}
			}
		}
	}
}

func (q *Queue[T]) run(ctx context.Context, item T) {
	if err := q.handle(ctx, item); err != nil {
		q.failed.Add(1)
		q.logger.Debug("queue item failed", zap.Error(err))
		return
	}
	q.processed.Add(1)
}
