package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultAsyncBufferSize   = 1024
	defaultAsyncFlushTimeout = 5 * time.Second
)

// AsyncOptions configures the queue in front of a remote sink.
type AsyncOptions struct {
	BufferSize int
	// FlushTimeout bounds Shutdown when its context has no deadline.
	FlushTimeout time.Duration
}

// AsyncHandler hands records to a background goroutine so a slow remote sink
// never blocks a lookup. Records arriving while the queue is full are
// dropped and counted.
type AsyncHandler struct {
	next slog.Handler
	q    *recordQueue
}

type pendingRecord struct {
	ctx    context.Context
	next   slog.Handler
	record slog.Record
}

// recordQueue is shared by every handler derived through WithAttrs and
// WithGroup.
type recordQueue struct {
	mu      sync.RWMutex // closed and close(items)
	closed  bool
	items   chan pendingRecord
	done    chan struct{}
	dropped atomic.Uint64
	flush   time.Duration
}

// NewAsyncHandler starts the background writer for next.
func NewAsyncHandler(next slog.Handler, opts AsyncOptions) *AsyncHandler {
	size := opts.BufferSize
	if size <= 0 {
		size = defaultAsyncBufferSize
	}
	flush := opts.FlushTimeout
	if flush <= 0 {
		flush = defaultAsyncFlushTimeout
	}

	q := &recordQueue{
		items: make(chan pendingRecord, size),
		done:  make(chan struct{}),
		flush: flush,
	}
	go q.drain()
	return &AsyncHandler{next: next, q: q}
}

func (q *recordQueue) drain() {
	defer close(q.done)
	for p := range q.items {
		_ = p.next.Handle(p.ctx, p.record)
	}
}

func (q *recordQueue) push(p pendingRecord) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return
	}
	select {
	case q.items <- p:
	default:
		q.dropped.Add(1)
	}
}

// Enabled delegates to the wrapped handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle queues a copy of r. The request context is detached so a finished
// request does not cancel shipping its own logs.
func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.next.Enabled(ctx, r.Level) {
		return nil
	}
	h.q.push(pendingRecord{ctx: context.WithoutCancel(ctx), next: h.next, record: r.Clone()})
	return nil
}

// WithAttrs returns a handler sharing the same queue.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{next: h.next.WithAttrs(attrs), q: h.q}
}

// WithGroup returns a handler sharing the same queue.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{next: h.next.WithGroup(name), q: h.q}
}

// Dropped reports how many records were discarded on a full queue.
func (h *AsyncHandler) Dropped() uint64 {
	if h == nil || h.q == nil {
		return 0
	}
	return h.q.dropped.Load()
}

// Shutdown stops accepting records and waits for the queue to drain.
// Calling it again is a no-op.
func (h *AsyncHandler) Shutdown(ctx context.Context) error {
	if h == nil || h.q == nil {
		return nil
	}

	q := h.q
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.items)
	q.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.flush)
		defer cancel()
	}
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
