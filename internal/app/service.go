// Package service wires the record source, snapshot repository and refresh
// worker, and computes the dashboard the HTTP API serves.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	refreshqueue "github.com/okian/huddle/internal/adapters/mq/queue"
	refreshworker "github.com/okian/huddle/internal/adapters/mq/worker"
	repository "github.com/okian/huddle/internal/adapters/repository"
	"github.com/okian/huddle/internal/domain/checkin"
	"github.com/okian/huddle/internal/domain/types"
	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
)

const workerShutdownTimeout = 5 * time.Second

// Service implements the API dependencies for the check-in dashboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	source Source
	store  repository.Store
	queue  *refreshqueue.InMemoryQueue
	worker *refreshworker.RefreshWorker

	// Configuration
	queueSize    int
	loc          *time.Location
	policy       checkin.MissingPolicy
	now          func() time.Time
	fetchTimeout time.Duration

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize: refreshqueue.DefaultCapacity,
		loc:       time.UTC,
		policy:    checkin.PolicyDistinct,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewInMemoryStore(repository.WithClock(s.now))
	}
	return s
}

// Start launches the refresh worker and queues the initial load.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.source == nil {
		return ErrNoSource
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting dashboard service...")

	runCtx, cancel := context.WithCancel(ctx)
	s.queue = refreshqueue.NewInMemoryQueue(refreshqueue.WithCapacity(s.queueSize))
	s.worker = refreshworker.NewRefreshWorker(s.queue, s.source, s.store,
		refreshworker.WithLogger(s.logger),
		refreshworker.WithClock(s.now),
		refreshworker.WithFetchTimeout(s.fetchTimeout),
	)
	go s.worker.Run(runCtx)

	s.cancel = cancel
	s.started = true
	s.queue.Enqueue(ctx, s.request(refreshqueue.ReasonStartup))

	s.logger.Info(ctx, "dashboard service started",
		logger.Int("queueSize", s.queueSize),
		logger.String("timezone", s.loc.String()),
		logger.String("missingPolicy", string(s.policy)),
	)
	return nil
}

// Stop closes the queue and waits for an in-flight fetch to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping dashboard service...")

	_ = s.queue.Close()
	shutdownCtx, cancel := context.WithTimeout(ctx, workerShutdownTimeout)
	if err := s.worker.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "refresh worker did not stop cleanly", logger.Error(err))
	}
	cancel()
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "dashboard service stopped")
}

// Refresh queues a manual refresh. It returns false when a refresh is
// already pending or the service is not running.
func (s *Service) Refresh(ctx context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return false
	}
	ok := s.queue.Enqueue(ctx, s.request(refreshqueue.ReasonManual))
	if !ok {
		s.logger.Debug(ctx, "refresh already pending")
	}
	return ok
}

// Dashboard derives the three views from the current snapshot.
//
// Before the first successful fetch it returns types.ErrLoading while a
// fetch is pending, and types.ErrFetchFailed wrapping the source error once
// the fetch has failed.
func (s *Service) Dashboard(ctx context.Context) (types.Dashboard, error) {
	s.mu.RLock()
	started, q, w := s.started, s.queue, s.worker
	s.mu.RUnlock()

	if !started {
		return types.Dashboard{}, types.ErrNotStarted
	}

	status := w.Status()
	snap, err := s.store.Current(ctx)
	if errors.Is(err, repository.ErrNoSnapshot) {
		if status.LastError != nil && !status.Loading && q.Len(ctx) == 0 {
			return types.Dashboard{}, fmt.Errorf("%w: %w", types.ErrFetchFailed, status.LastError)
		}
		return types.Dashboard{}, types.ErrLoading
	}
	if err != nil {
		return types.Dashboard{}, err
	}

	start := time.Now()
	views := checkin.Derive(snap.Records, checkin.Today(s.now(), s.loc), s.policy)
	d := types.NewDashboard(views, len(snap.Records))
	d.SnapshotID = snap.ID
	d.FetchedAt = snap.FetchedAt
	if status.LastError != nil {
		d.RefreshError = status.LastError.Error()
	}

	metrics.RecordDashboard(d.Counts.Today, d.Counts.Alerts, d.Counts.Missing,
		float64(time.Since(start).Microseconds())/1000)
	return d, nil
}

// SnapshotAge returns the age of the current snapshot, and false when none
// has been fetched.
func (s *Service) SnapshotAge(ctx context.Context) (time.Duration, bool) {
	snap, err := s.store.Current(ctx)
	if err != nil {
		return 0, false
	}
	return s.now().Sub(snap.FetchedAt), true
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"queueSize":     s.queueSize,
		"timezone":      s.loc.String(),
		"missingPolicy": string(s.policy),
		"records":       s.store.Count(ctx),
	}

	if s.started {
		st := s.worker.Status()
		stats["queueLength"] = s.queue.Len(ctx)
		stats["loading"] = st.Loading
		stats["attempts"] = st.Attempts
		stats["failures"] = st.Failures
		if !st.LastSuccess.IsZero() {
			stats["lastSuccess"] = st.LastSuccess.UTC().Format(time.RFC3339)
		}
		if st.LastError != nil {
			stats["lastError"] = st.LastError.Error()
		}
	}

	return stats
}

func (s *Service) request(reason string) refreshqueue.Request {
	return refreshqueue.Request{
		ID:          uuid.NewString(),
		Reason:      reason,
		RequestedAt: s.now(),
	}
}
