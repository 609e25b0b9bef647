// internal/app/system/workers/pool.go
package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Job is one unit of detached work. ctx carries the per-job timeout and is
// cancelled when the pool abandons its remaining work.
type Job func(ctx context.Context)

// ErrNotStarted is returned by Drain when Start was never called.
var ErrNotStarted = errors.New("worker pool not started")

// Pool runs jobs on a fixed number of goroutines fed by a bounded queue.
// Submit never blocks: when the queue is full the job is rejected.
type Pool struct {
	name       string
	log        *zap.Logger
	workers    int
	jobTimeout time.Duration

	queue chan Job

	mu      sync.RWMutex // guards closed against Submit racing Drain
	closed  bool
	started bool

	base    context.Context
	cancel  context.CancelFunc
	abandon chan struct{}
	once    sync.Once
	wg      sync.WaitGroup

	abandoned atomic.Int64
}

// DefaultJobTimeout replaces a non-positive jobTimeout passed to NewPool.
const DefaultJobTimeout = 5 * time.Second

// NewPool creates a pool. workers and queueSize are clamped to at least 1.
func NewPool(name string, workers, queueSize int, jobTimeout time.Duration, logger *zap.Logger) *Pool {
	if jobTimeout <= 0 {
		jobTimeout = DefaultJobTimeout
	}
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	base, cancel := context.WithCancel(context.Background())
	return &Pool{
		name:       name,
		log:        logger,
		workers:    workers,
		jobTimeout: jobTimeout,
		queue:      make(chan Job, queueSize),
		base:       base,
		cancel:     cancel,
		abandon:    make(chan struct{}),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	p.log.Info("worker pool started",
		zap.String("pool", p.name),
		zap.Int("workers", p.workers),
		zap.Int("queue_size", cap(p.queue)))
}

// Submit enqueues job and reports whether it was accepted. It returns false
// when the queue is full or the pool is draining.
func (p *Pool) Submit(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.queue <- job:
		return true
	default:
		return false
	}
}

// Pending returns the number of queued jobs not yet picked up.
func (p *Pool) Pending() int { return len(p.queue) }

// Drain stops intake and waits for queued and running jobs until ctx is
// done. Jobs still queued at that point are discarded and running jobs have
// their context cancelled. It returns how many queued jobs were discarded.
func (p *Pool) Drain(ctx context.Context) (int, error) {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return 0, ErrNotStarted
	}
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		p.once.Do(func() { close(p.abandon) })
		p.cancel()
		<-done
	}
	p.cancel()

	n := int(p.abandoned.Load())
	p.log.Info("worker pool drained",
		zap.String("pool", p.name),
		zap.Int("abandoned", n))
	return n, nil
}

func (p *Pool) run() {
	defer p.wg.Done()
	for job := range p.queue {
		select {
		case <-p.abandon:
			p.abandoned.Add(1)
			continue
		default:
		}
		p.exec(job)
	}
}

func (p *Pool) exec(job Job) {
	ctx, cancel := context.WithTimeout(p.base, p.jobTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("worker job panicked",
				zap.String("pool", p.name),
				zap.Any("panic", r))
		}
	}()
	job(ctx)
}
