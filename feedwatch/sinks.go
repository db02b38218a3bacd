package feedwatch

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/vidlens/feedwatch/change"
)

// Sink receives coalesced batches. Implementations deliver them to a
// session in-process or to any other consumer.
type Sink interface {
	Send(ctx context.Context, batch change.Batch) error
	Close() error
}

// BatchFunc is called for each batch (in-process, zero serialisation).
type BatchFunc func(ctx context.Context, batch change.Batch) error

// Callback delivers batches via a Go function call. This is how a watcher
// and a session living in the same binary are wired together.
type Callback struct {
	onBatch BatchFunc
}

// NewCallbackSink creates a Callback sink. A nil handler drops batches.
func NewCallbackSink(onBatch BatchFunc) *Callback {
	return &Callback{onBatch: onBatch}
}

func (c *Callback) Send(ctx context.Context, batch change.Batch) error {
	if c.onBatch != nil {
		return c.onBatch(ctx, batch)
	}
	return nil
}

func (c *Callback) Close() error { return nil }

// Router fans out batches to all configured sinks. One sink error does not
// block the others — errors are logged and the first encountered is
// returned.
type Router struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewRouter creates a fan-out router delivering to all sinks.
func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sinks: sinks, logger: logger}
}

func (r *Router) Send(ctx context.Context, batch change.Batch) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Send(ctx, batch); err != nil {
			r.logger.Warn("feedwatch: sink send failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) Close() error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
