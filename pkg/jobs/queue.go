// Package jobs runs named background tasks on a small worker pool with
// retries and periodic triggers.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one unit of queued work. Tasks with the same name coalesce while
// one is still pending.
type Task struct {
	Name     string
	Attempt  int
	Enqueued time.Time
}

// Handler processes a task.
type Handler func(context.Context, Task) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue dispatches tasks to a handler from a fixed set of goroutines.
type Queue struct {
	name       string
	handler    Handler
	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	tasks   chan Task
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	pending map[string]struct{}
}

// NewQueue builds a queue that feeds handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{
		name:       name,
		handler:    handler,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		tasks:      make(chan Task, cfg.BufferSize),
		pending:    make(map[string]struct{}),
	}
}

// Start launches the workers. Later calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Info("queue started", zap.String("queue", q.name), zap.Int("workers", q.workers))
}

// Stop cancels workers and waits for them to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("queue stopped", zap.String("queue", q.name))
}

// Submit queues a task by name. It reports false when a task with that name
// is already waiting.
func (q *Queue) Submit(name string) (bool, error) {
	return q.enqueue(Task{Name: name})
}

// Every submits name on each tick of interval until ctx ends.
func (q *Queue) Every(ctx context.Context, interval time.Duration, name string) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := q.Submit(name); err != nil {
					q.logger.Warn("periodic submit failed", zap.String("queue", q.name), zap.String("task", name), zap.Error(err))
					return
				}
			}
		}
	}()
}

func (q *Queue) enqueue(task Task) (bool, error) {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return false, fmt.Errorf("queue %s not started", q.name)
	}
	if _, waiting := q.pending[task.Name]; waiting {
		q.mu.Unlock()
		return false, nil
	}
	q.pending[task.Name] = struct{}{}
	ctx := q.ctx
	q.mu.Unlock()

	if task.Enqueued.IsZero() {
		task.Enqueued = time.Now().UTC()
	}
	select {
	case <-ctx.Done():
		q.release(task.Name)
		return false, fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.tasks <- task:
		return true, nil
	}
}

func (q *Queue) release(name string) {
	q.mu.Lock()
	delete(q.pending, name)
	q.mu.Unlock()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case task := <-q.tasks:
			q.release(task.Name)
			if err := q.handler(q.ctx, task); err != nil {
				q.retry(task, err)
			}
		}
	}
}

func (q *Queue) retry(task Task, err error) {
	task.Attempt++
	if task.Attempt > q.maxRetries {
		q.logger.Error("task exceeded retries", zap.String("queue", q.name), zap.String("task", task.Name), zap.Error(err))
		return
	}
	q.logger.Warn("task failed, retrying", zap.String("queue", q.name), zap.String("task", task.Name), zap.Int("attempt", task.Attempt), zap.Error(err))

	go func() {
		timer := time.NewTimer(q.retryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			if _, err := q.enqueue(task); err != nil {
				q.logger.Error("failed to requeue task", zap.String("queue", q.name), zap.String("task", task.Name), zap.Error(err))
			}
		}
	}()
}
