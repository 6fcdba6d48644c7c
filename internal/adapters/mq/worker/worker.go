package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/huddle/internal/adapters/mq/queue"
	"github.com/okian/huddle/internal/adapters/repository"
	"github.com/okian/huddle/internal/domain/checkin"
	"github.com/okian/huddle/pkg/logger"
)

// ErrStopped is returned by Shutdown when called twice.
var ErrStopped = errors.New("worker stopped")

// Source fetches the full record list.
type Source interface {
	List(ctx context.Context) ([]checkin.Record, error)
}

// Replacer stores a fetched record set as the current snapshot.
type Replacer interface {
	Replace(ctx context.Context, records []checkin.Record) repository.Snapshot
}

// Queue defines how the worker receives refresh requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Request
}

// Status describes the worker's fetch history.
type Status struct {
	Loading     bool
	LastError   error
	LastAttempt time.Time
	LastSuccess time.Time
	Attempts    int
	Failures    int
}

// RefreshWorker performs one fetch per dequeued request. A failed fetch
// leaves the current snapshot untouched; nothing is retried.
type RefreshWorker struct {
	queue  Queue
	source Source
	store  Replacer
	name   string

	fetchTimeout time.Duration
	now          func() time.Time

	mu     sync.RWMutex
	status Status

	// Shutdown control
	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewRefreshWorker creates a new worker with configuration options.
func NewRefreshWorker(q Queue, source Source, store Replacer, opts ...Option) *RefreshWorker {
	w := &RefreshWorker{
		queue:    q,
		source:   source,
		store:    store,
		name:     "refresh-worker",
		now:      time.Now,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop until ctx is canceled, Shutdown is called or
// the queue is closed.
func (w *RefreshWorker) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			if err := w.process(ctx, req); err != nil {
				w.logger.Error(ctx, "refresh failed",
					logger.String("request_id", req.ID),
					logger.String("reason", req.Reason),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker and waits for an in-flight fetch to finish.
func (w *RefreshWorker) Shutdown(ctx context.Context) error {
	stopped := true
	w.shutdownOnce.Do(func() {
		close(w.shutdown)
		stopped = false
	})
	if stopped {
		return ErrStopped
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *RefreshWorker) Done() <-chan struct{} {
	return w.done
}

// Status returns a copy of the current fetch status.
func (w *RefreshWorker) Status() Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

func (w *RefreshWorker) process(ctx context.Context, req queue.Request) error {
	w.mu.Lock()
	w.status.Loading = true
	w.status.LastAttempt = w.now()
	w.status.Attempts++
	w.mu.Unlock()

	fetchCtx := ctx
	if w.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, w.fetchTimeout)
		defer cancel()
	}

	records, err := w.source.List(fetchCtx)
	if err != nil {
		w.mu.Lock()
		w.status.Loading = false
		w.status.LastError = err
		w.status.Failures++
		w.mu.Unlock()
		return fmt.Errorf("fetch records: %w", err)
	}

	snap := w.store.Replace(ctx, records)

	w.mu.Lock()
	w.status.Loading = false
	w.status.LastError = nil
	w.status.LastSuccess = snap.FetchedAt
	w.mu.Unlock()

	w.logger.Info(ctx, "snapshot replaced",
		logger.String("request_id", req.ID),
		logger.String("reason", req.Reason),
		logger.String("snapshot_id", snap.ID),
		logger.Int("records", len(snap.Records)),
	)
	return nil
}
