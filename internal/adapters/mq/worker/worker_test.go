package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/huddle/internal/adapters/mq/queue"
	repository "github.com/okian/huddle/internal/adapters/repository"
	worker "github.com/okian/huddle/internal/adapters/mq/worker"
	checkin "github.com/okian/huddle/internal/domain/checkin"
	logging "github.com/okian/huddle/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// mockSource returns queued results in order, then repeats the last one.
type mockSource struct {
	mu      sync.Mutex
	results []result
	calls   int
	block   chan struct{}
}

type result struct {
	records []checkin.Record
	err     error
}

func (m *mockSource) List(ctx context.Context) ([]checkin.Record, error) {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.calls
	if i >= len(m.results) {
		i = len(m.results) - 1
	}
	m.calls++
	return m.results[i].records, m.results[i].err
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func request(id string) queue.Request {
	return queue.Request{ID: id, Reason: queue.ReasonManual, RequestedAt: time.Now()}
}

func TestRefreshWorker(t *testing.T) {
	convey.Convey("Given a refresh worker", t, func() {
		_ = logging.Init()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue()
		store := repository.NewInMemoryStore()
		fetchErr := errors.New("boom")
		src := &mockSource{results: []result{
			{records: []checkin.Record{{ID: "a"}, {ID: "b"}}},
			{err: fetchErr},
			{records: []checkin.Record{{ID: "c"}}},
		}}
		w := worker.NewRefreshWorker(q, src, store, worker.WithName("test-worker"))
		go w.Run(ctx)

		convey.Convey("When the first request succeeds", func() {
			convey.So(q.Enqueue(ctx, request("r1")), convey.ShouldBeTrue)
			convey.So(waitFor(func() bool { return store.Count(ctx) == 2 }), convey.ShouldBeTrue)

			convey.Convey("Then the status should report the success", func() {
				st := w.Status()
				convey.So(st.Loading, convey.ShouldBeFalse)
				convey.So(st.LastError, convey.ShouldBeNil)
				convey.So(st.Attempts, convey.ShouldEqual, 1)
				convey.So(st.LastSuccess.IsZero(), convey.ShouldBeFalse)
			})

			convey.Convey("And when the next refresh fails", func() {
				convey.So(q.Enqueue(ctx, request("r2")), convey.ShouldBeTrue)
				convey.So(waitFor(func() bool { return w.Status().Failures == 1 }), convey.ShouldBeTrue)

				convey.Convey("Then the previous snapshot should be kept", func() {
					snap, err := store.Current(ctx)
					convey.So(err, convey.ShouldBeNil)
					convey.So(len(snap.Records), convey.ShouldEqual, 2)
					convey.So(errors.Is(w.Status().LastError, fetchErr), convey.ShouldBeTrue)
				})

				convey.Convey("And a later success should clear the error", func() {
					convey.So(q.Enqueue(ctx, request("r3")), convey.ShouldBeTrue)
					convey.So(waitFor(func() bool { return store.Count(ctx) == 1 }), convey.ShouldBeTrue)
					convey.So(waitFor(func() bool { return w.Status().LastError == nil }), convey.ShouldBeTrue)
					convey.So(w.Status().Attempts, convey.ShouldEqual, 3)
				})
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer shutdownCancel()

			err := w.Shutdown(shutdownCtx)

			convey.Convey("Then it should stop gracefully", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldEqual, worker.ErrStopped)
			})
		})
	})
}

func TestRefreshWorkerLoading(t *testing.T) {
	convey.Convey("Given a fetch that is still in flight", t, func() {
		_ = logging.Init()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue()
		store := repository.NewInMemoryStore()
		src := &mockSource{
			results: []result{{records: []checkin.Record{{ID: "a"}}}},
			block:   make(chan struct{}),
		}
		w := worker.NewRefreshWorker(q, src, store)
		go w.Run(ctx)

		convey.So(q.Enqueue(ctx, request("r1")), convey.ShouldBeTrue)
		convey.So(waitFor(func() bool { return w.Status().Loading }), convey.ShouldBeTrue)

		convey.Convey("Then further requests coalesce into one pending fetch", func() {
			convey.So(q.Enqueue(ctx, request("r2")), convey.ShouldBeTrue)
			convey.So(q.Enqueue(ctx, request("r3")), convey.ShouldBeFalse)

			close(src.block)
			convey.So(waitFor(func() bool { return src.callCount() == 2 && !w.Status().Loading }), convey.ShouldBeTrue)
			convey.So(store.Count(ctx), convey.ShouldEqual, 1)
		})
	})
}

func TestRefreshWorkerStops(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		_ = logging.Init()

		src := &mockSource{results: []result{{}}}
		store := repository.NewInMemoryStore()

		convey.Convey("When the queue is closed", func() {
			q := queue.NewInMemoryQueue()
			w := worker.NewRefreshWorker(q, src, store)
			go w.Run(context.Background())
			_ = q.Close()

			convey.Convey("Then Run should return", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					convey.So("worker still running", convey.ShouldBeEmpty)
				}
			})
		})

		convey.Convey("When the context is cancelled", func() {
			q := queue.NewInMemoryQueue()
			w := worker.NewRefreshWorker(q, src, store)
			ctx, cancel := context.WithCancel(context.Background())
			go w.Run(ctx)
			cancel()

			convey.Convey("Then Run should return", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					convey.So("worker still running", convey.ShouldBeEmpty)
				}
			})
		})

		convey.Convey("When a fetch exceeds its timeout", func() {
			q := queue.NewInMemoryQueue()
			slow := &mockSource{results: []result{{}}, block: make(chan struct{})}
			w := worker.NewRefreshWorker(q, slow, store, worker.WithFetchTimeout(20*time.Millisecond))
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)
			q.Enqueue(ctx, request("slow"))

			convey.Convey("Then the failure should be recorded", func() {
				convey.So(waitFor(func() bool { return w.Status().Failures == 1 }), convey.ShouldBeTrue)
				convey.So(errors.Is(w.Status().LastError, context.DeadlineExceeded), convey.ShouldBeTrue)
			})
		})
	})
}
