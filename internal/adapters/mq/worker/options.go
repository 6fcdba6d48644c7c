// Package worker runs the single refresh worker that fetches and stores snapshots.
package worker

import (
	"time"

	"github.com/okian/huddle/pkg/logger"
)

// Option applies a configuration option to the RefreshWorker.
type Option func(*RefreshWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *RefreshWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *RefreshWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithClock sets the time source for status timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *RefreshWorker) {
		if now != nil {
			w.now = now
		}
	}
}

// WithFetchTimeout bounds each fetch. Zero leaves it to the source.
func WithFetchTimeout(d time.Duration) Option {
	return func(w *RefreshWorker) {
		if d > 0 {
			w.fetchTimeout = d
		}
	}
}
