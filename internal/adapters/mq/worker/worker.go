package worker

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/okian/talentboard/internal/domain/model"
	"github.com/okian/talentboard/pkg/logger"
	"github.com/okian/talentboard/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Publisher delivers a change downstream.
type Publisher interface {
	Publish(ctx context.Context, c model.Change) error
}

// Queue defines how workers receive changes.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Change
}

// Worker publishes changes read from a queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown waits for the worker to finish.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	publisher Publisher
	name      string

	done chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, publisher Publisher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		publisher: publisher,
		name:      "worker",
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.With(logger.String("worker", w.name))
	}
	return w
}

// Run starts the worker loop.
//
// The loop keeps draining after the queue is closed so changes accepted
// before shutdown are still published.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	for c := range w.queue.Dequeue(ctx) {
		if err := w.publish(ctx, c); err != nil {
			w.logger.Error(ctx, "error publishing change", logger.Error(err))
		}
	}
}

// Shutdown waits for Run to return.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) publish(ctx context.Context, c model.Change) error {
	start := time.Now()
	err := w.publisher.Publish(ctx, c)
	metrics.RecordPublishLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordPublishError()
		return fmt.Errorf("change %s/%s: %w", c.Kind, c.Key(), err)
	}
	return nil
}

// shard feeds one worker. Every change of one record is routed to the same
// shard, so a record's changes are published in the order they were queued.
type shard chan model.Change

func (s shard) Dequeue(context.Context) <-chan model.Change { return s }

const shardBuffer = 16

// Pool manages multiple workers fed from one queue, sharded by change key.
type Pool struct {
	workers []*InMemoryWorker
	shards  []shard
	queue   Queue
	wg      sync.WaitGroup

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers; values below one mean one.
// opts are applied to every worker after its default name.
func NewPool(workerCount int, queue Queue, publisher Publisher, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		shards:  make([]shard, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.shards[i] = make(shard, shardBuffer)
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(p.shards[i], publisher, wopts...)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts the dispatcher and all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	metrics.UpdateWorkerCount(len(p.workers))
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *InMemoryWorker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.dispatch(ctx)
	}()
}

// dispatch routes queued changes to shards until the queue is drained or
// ctx ends, then closes the shards so workers finish what they hold.
func (p *Pool) dispatch(ctx context.Context) {
	defer func() {
		for _, s := range p.shards {
			close(s)
		}
	}()
	for c := range p.queue.Dequeue(ctx) {
		select {
		case p.shards[ShardFor(c.Key(), len(p.shards))] <- c:
		case <-ctx.Done():
			metrics.RecordChangeDropped("shutdown")
			return
		}
	}
}

// ShardFor maps a change key onto one of n shards with FNV-1a, the hash the
// Kafka publisher's balancer uses for partitions.
func ShardFor(key string, n int) int {
	if n <= 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for _, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		p.wg.Wait()
		metrics.UpdateWorkerCount(0)
	}
	return firstErr
}
