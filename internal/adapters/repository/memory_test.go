package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/huddle/internal/domain/checkin"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestInMemoryStore_Empty(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
	if _, err := store.Current(ctx); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestInMemoryStore_Replace(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	ids := []string{"snap-1", "snap-2"}
	next := 0
	store := NewInMemoryStore(
		WithClock(fixedClock(at)),
		WithIDGenerator(func() string { id := ids[next]; next++; return id }),
	)

	first := []checkin.Record{{ID: "a"}, {ID: "b"}}
	snap := store.Replace(ctx, first)
	if snap.ID != "snap-1" {
		t.Errorf("expected snap-1, got %s", snap.ID)
	}
	if !snap.FetchedAt.Equal(at) {
		t.Errorf("expected fetched at %v, got %v", at, snap.FetchedAt)
	}
	if count := store.Count(ctx); count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}

	// Later mutation of the caller's slice must not leak into the snapshot.
	first[0].ID = "mutated"
	current, err := store.Current(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if current.Records[0].ID != "a" {
		t.Errorf("expected snapshot to keep its own copy, got %s", current.Records[0].ID)
	}

	// A second fetch replaces wholesale, no merge.
	store.Replace(ctx, []checkin.Record{{ID: "c"}})
	current, _ = store.Current(ctx)
	if current.ID != "snap-2" {
		t.Errorf("expected snap-2, got %s", current.ID)
	}
	if len(current.Records) != 1 || current.Records[0].ID != "c" {
		t.Errorf("expected only record c, got %+v", current.Records)
	}
}

func TestInMemoryStore_ReplaceEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	store.Replace(ctx, nil)
	current, err := store.Current(ctx)
	if err != nil {
		t.Fatalf("expected an empty snapshot to be valid, got %v", err)
	}
	if current.Records == nil || len(current.Records) != 0 {
		t.Errorf("expected empty non-nil records, got %#v", current.Records)
	}
	if current.ID == "" {
		t.Error("expected a generated snapshot id")
	}
}

func TestInMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			records := make([]checkin.Record, i+1)
			for j := range records {
				records[j].ID = fmt.Sprintf("r%d-%d", i, j)
			}
			store.Replace(ctx, records)
		}(i)
		go func() {
			defer wg.Done()
			if snap, err := store.Current(ctx); err == nil && len(snap.Records) == 0 {
				t.Error("expected a non-empty snapshot")
			}
			_ = store.Count(ctx)
		}()
	}
	wg.Wait()

	if count := store.Count(ctx); count < 1 || count > 8 {
		t.Errorf("expected a count between 1 and 8, got %d", count)
	}
}
