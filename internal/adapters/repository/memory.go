package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/huddle/internal/domain/checkin"
	"github.com/okian/huddle/pkg/metrics"
)

// InMemoryStore implements Store behind a read/write lock.
//
// A snapshot is never modified after it is stored: Replace copies its input
// and Current hands out the stored value, so readers can derive views
// without holding the lock.
type InMemoryStore struct {
	mu      sync.RWMutex
	current *Snapshot

	now   func() time.Time
	newID func() string
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Replace stores a copy of records as the new snapshot.
func (s *InMemoryStore) Replace(ctx context.Context, records []checkin.Record) Snapshot {
	snap := Snapshot{
		ID:        s.newID(),
		FetchedAt: s.now(),
		Records:   append(make([]checkin.Record, 0, len(records)), records...),
	}

	s.mu.Lock()
	s.current = &snap
	s.mu.Unlock()

	metrics.RecordSnapshotReplaced(len(snap.Records), snap.FetchedAt)
	return snap
}

// Current returns the latest snapshot or ErrNoSnapshot.
func (s *InMemoryStore) Current(ctx context.Context) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Snapshot{}, ErrNoSnapshot
	}
	return *s.current, nil
}

// Count returns the number of records in the current snapshot.
func (s *InMemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return 0
	}
	return len(s.current.Records)
}
