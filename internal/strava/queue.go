package strava

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Request priorities. Higher is served first; ties are FIFO.
const (
	PriorityAthlete           = 10
	PriorityStats             = 9
	PriorityActivityFirstPage = 8
	PriorityActivityDetail    = 7
	PriorityActivityBackfill  = 5
)

// ErrQueueClosed is returned for requests pending when the queue shuts down.
var ErrQueueClosed = errors.New("request queue closed")

// QueueConfig tunes the request queue. The defaults leave headroom under
// the upstream budget of ~600 requests per 15 minutes.
type QueueConfig struct {
	// MaxRequests is the number of successful executions allowed per Window.
	MaxRequests int
	// Window is the rate-limit window length.
	Window time.Duration
	// MinInterval is the floor between consecutive executions, so the
	// queue never bursts even far below the window cap.
	MinInterval time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BaseBackoff seeds the exponential retry backoff.
	BaseBackoff time.Duration
}

// DefaultQueueConfig returns the production queue settings.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		MaxRequests: 550,
		Window:      15 * time.Minute,
		MinInterval: 100 * time.Millisecond,
		MaxRetries:  3,
		BaseBackoff: time.Second,
	}
}

func (cfg QueueConfig) withDefaults() QueueConfig {
	def := DefaultQueueConfig()
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = def.MaxRequests
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = def.MinInterval
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = def.BaseBackoff
	}
	return cfg
}

type queueResult struct {
	value any
	err   error
}

type queuedRequest struct {
	id       string
	priority int
	seq      uint64
	attempts int
	ctx      context.Context
	fn       func(context.Context) (any, error)
	result   chan queueResult
}

func (r *queuedRequest) deliver(v any, err error) {
	r.result <- queueResult{value: v, err: err}
}

// Queue executes upstream requests one at a time, highest priority
// first, under a rolling rate window with retry and backoff. A single
// worker goroutine owns execution, so at most one request is in flight
// and the window accounting needs no coordination beyond the queue lock.
type Queue struct {
	cfg   QueueConfig
	pacer *rate.Limiter
	log   zerolog.Logger

	mu         sync.Mutex
	cond       *sync.Cond
	pending    requestHeap
	retryAhead []*queuedRequest // drained before pending, preserves retried work's position
	seq        uint64
	closed     bool

	windowStart time.Time
	windowCount int

	quit chan struct{}
	done chan struct{}
}

// NewQueue creates a queue and starts its worker. Close releases it.
func NewQueue(cfg QueueConfig, log zerolog.Logger) *Queue {
	cfg = cfg.withDefaults()
	q := &Queue{
		cfg:         cfg,
		pacer:       rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		log:         log,
		windowStart: time.Now(),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Add submits a request and blocks until it resolves, its retries are
// exhausted, or ctx is done. An empty id gets a generated one.
func (q *Queue) Add(ctx context.Context, id string, priority int, fn func(context.Context) (any, error)) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if id == "" {
		id = uuid.NewString()
	}

	req := &queuedRequest{
		id:       id,
		priority: priority,
		ctx:      ctx,
		fn:       fn,
		result:   make(chan queueResult, 1),
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, ErrQueueClosed
	}
	q.seq++
	req.seq = q.seq
	heap.Push(&q.pending, req)
	q.mu.Unlock()
	q.cond.Signal()

	select {
	case res := <-req.result:
		return res.value, res.err
	case <-ctx.Done():
		// The worker still executes or discards the request; the
		// buffered result channel means it never blocks on us.
		return nil, ctx.Err()
	}
}

// Close stops the worker and rejects all pending requests.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.quit)
	q.mu.Unlock()
	q.cond.Broadcast()
	<-q.done
}

// Len returns the number of queued requests, retries included.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Len() + len(q.retryAhead)
}

func (q *Queue) run() {
	defer close(q.done)

	for {
		q.mu.Lock()
		for !q.closed && len(q.retryAhead) == 0 && q.pending.Len() == 0 {
			q.cond.Wait()
		}
		if q.closed {
			q.rejectPendingLocked()
			q.mu.Unlock()
			return
		}
		req := q.popLocked()
		q.mu.Unlock()

		q.attempt(req)
	}
}

// popLocked takes the next request: retried work first, then the
// highest-priority queued request.
func (q *Queue) popLocked() *queuedRequest {
	if n := len(q.retryAhead); n > 0 {
		req := q.retryAhead[0]
		q.retryAhead = q.retryAhead[1:]
		return req
	}
	return heap.Pop(&q.pending).(*queuedRequest)
}

func (q *Queue) rejectPendingLocked() {
	for _, req := range q.retryAhead {
		req.deliver(nil, ErrQueueClosed)
	}
	q.retryAhead = nil
	for q.pending.Len() > 0 {
		heap.Pop(&q.pending).(*queuedRequest).deliver(nil, ErrQueueClosed)
	}
}

// attempt executes one try of req. Failures with retries remaining go
// back through the retry-ahead queue after backoff, so retried work is
// never starved by newly arrived lower-priority requests.
func (q *Queue) attempt(req *queuedRequest) {
	if err := req.ctx.Err(); err != nil {
		req.deliver(nil, err)
		return
	}

	if err := q.waitForSlot(req.ctx); err != nil {
		req.deliver(nil, err)
		return
	}

	value, err := req.fn(req.ctx)
	if err == nil {
		q.mu.Lock()
		q.windowCount++
		q.mu.Unlock()
		req.deliver(value, nil)
		return
	}

	if req.attempts >= q.cfg.MaxRetries {
		q.log.Warn().Str("request", req.id).Int("attempts", req.attempts+1).Err(err).
			Msg("retries exhausted")
		req.deliver(nil, err)
		return
	}

	backoff := q.cfg.BaseBackoff << req.attempts
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > backoff {
		backoff = rl.RetryAfter
	}
	req.attempts++

	q.log.Debug().Str("request", req.id).Int("attempt", req.attempts).
		Dur("backoff", backoff).Err(err).Msg("request failed, retrying")

	select {
	case <-time.After(backoff):
	case <-req.ctx.Done():
		req.deliver(nil, req.ctx.Err())
		return
	case <-q.quit:
		req.deliver(nil, ErrQueueClosed)
		return
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		req.deliver(nil, ErrQueueClosed)
		return
	}
	q.retryAhead = append(q.retryAhead, req)
	q.mu.Unlock()
	q.cond.Signal()
}

// waitForSlot blocks until the rate window admits another request, then
// applies the minimum inter-request pacing.
func (q *Queue) waitForSlot(ctx context.Context) error {
	for {
		q.mu.Lock()
		now := time.Now()
		if now.Sub(q.windowStart) >= q.cfg.Window {
			q.windowStart = now
			q.windowCount = 0
		}
		if q.windowCount < q.cfg.MaxRequests {
			q.mu.Unlock()
			break
		}
		wait := q.windowStart.Add(q.cfg.Window).Sub(now)
		q.mu.Unlock()

		q.log.Warn().Dur("wait", wait).Int("limit", q.cfg.MaxRequests).
			Msg("rate window exhausted, pausing until boundary")
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		case <-q.quit:
			return ErrQueueClosed
		}
	}

	return q.pacer.Wait(ctx)
}

// Do submits fn through q and asserts the result to T at the call site.
func Do[T any](ctx context.Context, q *Queue, id string, priority int, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	value, err := q.Add(ctx, id, priority, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("request %s: unexpected result type %T", id, value)
	}
	return typed, nil
}

// requestHeap orders by priority descending, then arrival sequence,
// which keeps equal priorities FIFO.
type requestHeap []*queuedRequest

func (h requestHeap) Len() int { return len(h) }

func (h requestHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h requestHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *requestHeap) Push(x any) { *h = append(*h, x.(*queuedRequest)) }

func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	req := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return req
}
