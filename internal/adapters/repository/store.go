// Package repository holds the latest fetched check-in snapshot.
package repository

import (
	"context"
	"time"

	"github.com/okian/huddle/internal/domain/checkin"
)

// Snapshot is one complete fetch of the source table.
type Snapshot struct {
	ID        string
	FetchedAt time.Time
	Records   []checkin.Record
}

// Store provides read/write access to the current snapshot.
type Store interface {
	// Replace swaps the whole record set for records and returns the new snapshot.
	Replace(ctx context.Context, records []checkin.Record) Snapshot

	// Current returns the latest snapshot.
	// Returns ErrNoSnapshot before the first Replace.
	Current(ctx context.Context) (Snapshot, error)

	// Count returns the number of records in the current snapshot.
	Count(ctx context.Context) int
}
