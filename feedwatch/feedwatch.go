// Package feedwatch turns a host's raw, bursty change notifications into
// coalesced batches a session can reconcile against.
//
// feedwatch observes, it does not classify. It layers three watch tiers over
// the host document — root (wholesale content replacement), container
// (item-list regions appearing lazily), list (item insertion and visibility
// attribute churn) — debounces each burst, and emits one change.Batch per
// quiescent period to its sinks. The session package consumes those batches.
package feedwatch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hazyhaar/vidlens/feedwatch/change"
)

// Watcher owns the scope bindings and the per-tier debouncers for one
// session. Create one per session; it is torn down with Stop.
type Watcher struct {
	cfg    Config
	scopes *scopeSet
	sink   Sink
	logger *slog.Logger
	clock  Clock

	rawCh   chan change.Record
	listDeb *debouncer
	rootDeb *debouncer
	seq     atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	stop   sync.Once
}

// Option customises a Watcher.
type Option func(*Watcher)

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) { w.logger = logger }
}

// WithClock overrides the debounce timer source. Tests inject a fake clock
// here so coalescing is exercised without wall-clock delays.
func WithClock(clock Clock) Option {
	return func(w *Watcher) { w.clock = clock }
}

// New creates a Watcher feeding batches to sink. Call Start to begin.
func New(cfg Config, binder Binder, sink Sink, opts ...Option) *Watcher {
	cfg.defaults()

	w := &Watcher{
		cfg:    cfg,
		sink:   sink,
		logger: slog.Default(),
		clock:  SystemClock,
		rawCh:  make(chan change.Record, 4096),
		done:   make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}

	w.scopes = newScopeSet(binder, w.logger)
	w.listDeb = newDebouncer(debounceConfig{
		Window:    cfg.ListWindow,
		MaxBuffer: cfg.MaxBuffer,
		Clock:     w.clock,
	}, w.emitBatch)
	w.rootDeb = newDebouncer(debounceConfig{
		Window:    cfg.RootWindow,
		MaxBuffer: cfg.MaxBuffer,
		Clock:     w.clock,
	}, w.onRootFlush)

	w.ctx, w.cancel = context.WithCancel(context.Background())
	return w
}

// Start establishes the initial scope bindings and begins processing
// notifications.
func (w *Watcher) Start(ctx context.Context) {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.scopes.rebind(w.ctx)
	go w.loop()
	w.logger.Info("feedwatch: started",
		"session", w.cfg.SessionID,
		"list_window", w.cfg.ListWindow,
		"root_window", w.cfg.RootWindow)
}

// Stop tears the watcher down: pending debounce buffers are discarded, not
// flushed — no batch may be emitted after teardown.
func (w *Watcher) Stop() {
	w.stop.Do(func() {
		w.cancel()
		<-w.done
		w.sink.Close()
		w.logger.Info("feedwatch: stopped", "session", w.cfg.SessionID)
	})
}

// Notify feeds one raw change record into the watcher. Safe for concurrent
// use; blocks only if the raw buffer is full. After Stop it is a no-op.
func (w *Watcher) Notify(rec change.Record) {
	select {
	case w.rawCh <- rec:
	case <-w.ctx.Done():
	}
}

// Bound returns the current watch targets. The host attaches its platform
// observers to exactly these nodes.
func (w *Watcher) Bound() Bindings {
	return w.scopes.bound()
}

// Rebind re-derives the watch targets from the binder. Idempotent: against
// an unchanged host it installs identical bindings. Returns true when the
// targets changed.
func (w *Watcher) Rebind(ctx context.Context) bool {
	_, changed := w.scopes.rebind(ctx)
	return changed
}

// loop is the single goroutine owning both debouncers. Records route by
// kind: structural resets to the root tier, container attachments to an
// immediate defensive rebind, everything else to the list tier.
func (w *Watcher) loop() {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			w.listDeb.discard()
			w.rootDeb.discard()
			return

		case rec := <-w.rawCh:
			w.route(rec)

		case <-w.listDeb.timerC():
			w.listDeb.flush()

		case <-w.rootDeb.timerC():
			w.rootDeb.flush()
		}
	}
}

func (w *Watcher) route(rec change.Record) {
	switch {
	case rec.Op == change.OpDocReset:
		w.rootDeb.add(rec)

	case rec.Tier == change.TierContainer:
		// Container regions appear lazily; any subtree attachment is a
		// chance to pick up lists that did not exist at the last rebind.
		w.scopes.rebind(w.ctx)

	default:
		w.listDeb.add(rec)
	}
}

// onRootFlush handles structural churn: the content region was replaced, so
// the narrower scopes must be re-established before the session rescans.
func (w *Watcher) onRootFlush(records []change.Record) {
	w.scopes.rebind(w.ctx)
	w.emitBatch(records)
}

func (w *Watcher) emitBatch(records []change.Record) {
	if len(records) == 0 {
		return
	}

	batch := change.Batch{
		ID:        uuid.Must(uuid.NewV7()).String(),
		SessionID: w.cfg.SessionID,
		Seq:       w.seq.Add(1),
		Records:   records,
		Timestamp: time.Now().UnixMilli(),
	}

	if err := w.sink.Send(w.ctx, batch); err != nil {
		w.logger.Error("feedwatch: send batch failed",
			"session", w.cfg.SessionID, "seq", batch.Seq, "error", err)
	}
}
