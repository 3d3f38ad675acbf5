// Package queue 进程内串行任务队列：单个 worker，按提交顺序逐个执行
package queue

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"bookforge-ai-api/pkg/logger"
	"bookforge-ai-api/pkg/metrics"
	"bookforge-ai-api/pkg/tracer"
)

var (
	ErrQueueFull   = errors.New("job queue is full")
	ErrQueueClosed = errors.New("job queue is closed")
	ErrJobPanicked = errors.New("job panicked")
)

// Job 一个排队任务
type Job struct {
	ID string
	// Run 在 worker goroutine 中执行；ctx 不随 HTTP 请求结束而取消
	Run func(ctx context.Context) (any, error)
}

// Ticket 入队凭证，用于等待任务结果
type Ticket struct {
	id       string
	enqueued time.Time
	done     chan struct{}
	value    any
	err      error
}

// ID 任务 ID
func (t *Ticket) ID() string { return t.id }

// Done 任务结束时关闭
func (t *Ticket) Done() <-chan struct{} { return t.done }

// Wait 阻塞直到任务结束或 ctx 结束
// ctx 结束只是放弃等待，任务本身仍会执行完毕
func (t *Ticket) Wait(ctx context.Context) (any, error) {
	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *Ticket) finish(value any, err error) {
	t.value, t.err = value, err
	close(t.done)
}

type entry struct {
	job    Job
	ticket *Ticket
}

// Config 队列配置
type Config struct {
	Capacity   int
	JobTimeout time.Duration
}

// Queue 并发度恒为 1 的 FIFO 队列
type Queue struct {
	jobs       chan entry
	jobTimeout time.Duration

	baseCtx context.Context
	cancel  context.CancelFunc

	mu      sync.RWMutex
	running bool
	closed  bool
	stopped chan struct{}
}

// New 创建队列，需调用 Start 启动 worker
func New(cfg Config) *Queue {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 32
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		jobs:       make(chan entry, cfg.Capacity),
		jobTimeout: cfg.JobTimeout,
		baseCtx:    ctx,
		cancel:     cancel,
		stopped:    make(chan struct{}),
	}
}

// Start 启动唯一的 worker goroutine
func (q *Queue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	if q.running {
		return fmt.Errorf("queue already running")
	}
	q.running = true
	go q.run()
	return nil
}

// Enqueue 提交任务；缓冲区满时立即返回 ErrQueueFull
func (q *Queue) Enqueue(ctx context.Context, job Job) (*Ticket, error) {
	if job.Run == nil {
		return nil, fmt.Errorf("job %q has no run function", job.ID)
	}
	ticket := &Ticket{id: job.ID, enqueued: time.Now(), done: make(chan struct{})}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return nil, ErrQueueClosed
	}
	select {
	case q.jobs <- entry{job: job, ticket: ticket}:
	default:
		metrics.QueueJobsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrQueueFull
	}

	metrics.QueueDepth.Inc()
	logger.Info(ctx, "job enqueued", "job_id", job.ID, "depth", len(q.jobs))
	return ticket, nil
}

// Len 排队中（未开始）的任务数
func (q *Queue) Len() int {
	return len(q.jobs)
}

// Close 停止接收新任务，等待已排队任务执行完
// ctx 结束时取消正在执行的任务并返回 ctx 错误
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	running := q.running
	close(q.jobs)
	q.mu.Unlock()

	if !running {
		for e := range q.jobs {
			metrics.QueueDepth.Dec()
			e.ticket.finish(nil, ErrQueueClosed)
		}
		q.cancel()
		return nil
	}

	select {
	case <-q.stopped:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-q.stopped
		return ctx.Err()
	}
}

func (q *Queue) run() {
	defer close(q.stopped)
	logger.Info(q.baseCtx, "job queue worker started", "capacity", cap(q.jobs))

	for e := range q.jobs {
		metrics.QueueDepth.Dec()
		metrics.QueueWaitDuration.Observe(time.Since(e.ticket.enqueued).Seconds())
		if err := q.baseCtx.Err(); err != nil {
			e.ticket.finish(nil, ErrQueueClosed)
			continue
		}
		value, err := q.execute(e.job)
		e.ticket.finish(value, err)
	}

	logger.Info(q.baseCtx, "job queue worker stopped")
}

// execute 执行单个任务；panic 转为错误，保证后续任务继续执行
func (q *Queue) execute(job Job) (value any, err error) {
	ctx := q.baseCtx
	if q.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.jobTimeout)
		defer cancel()
	}
	ctx = logger.WithContext(ctx, logger.JobIDKey, job.ID)
	ctx, span := tracer.Start(ctx, "queue.Queue.execute")
	defer span.End()
	span.SetAttributes(attribute.String("queue.job_id", job.ID))

	start := time.Now()
	defer func() {
		status := "success"
		if r := recover(); r != nil {
			status = "panic"
			value = nil
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
			logger.Error(ctx, "job panicked", err, "stack", string(debug.Stack()))
		} else if err != nil {
			status = "error"
		}
		if err != nil {
			tracer.Fail(span, err)
		}
		metrics.QueueJobsTotal.WithLabelValues(status).Inc()
		logger.Info(ctx, "job finished",
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}()

	return job.Run(ctx)
}
