// Package session implements the per-tab reconciliation engine.
//
// A Session consumes coalesced change batches from feedwatch and keeps the
// host's item collection correctly classified against its installed category
// snapshot. One Session per tab; each owns its snapshot and bookkeeping, so
// concurrent tabs never share mutable state.
//
// The pipeline:
//
//	feedwatch → session.Sink() → reconciliation pass → extract → classify → effects
//
// A session starts uninitialized: batches are dropped until the first
// snapshot install (settings hydration). Every install after the first is a
// settings swap and forces a full rescan — classification against the old
// snapshot is stale and must not persist.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hazyhaar/vidlens/category"
	"github.com/hazyhaar/vidlens/feedwatch"
	"github.com/hazyhaar/vidlens/feedwatch/change"
)

// Extractor resolves an item handle into video info. The second return is
// false when the item lacks extractable title or channel; the session skips
// such items and never treats them as errors.
type Extractor interface {
	Extract(ctx context.Context, ref change.NodeRef) (category.VideoInfo, bool)
}

// Effects applies and clears visual markers on the host side. The session
// guarantees Clear before Apply for every reprocessed item, and calls Apply
// with an empty match set so hosts can unmark.
type Effects interface {
	Clear(ctx context.Context, ref change.NodeRef)
	Apply(ctx context.Context, ref change.NodeRef, result category.MatchResult)
}

// Lister reports the currently-present item set, used by full rescans.
type Lister interface {
	Items(ctx context.Context) []change.NodeRef
}

// Host bundles the collaborator contracts a session consumes.
type Host struct {
	Extractor Extractor
	Effects   Effects
	Lister    Lister
}

// Config identifies and tunes one session.
type Config struct {
	// ID names the session (tab), stamped on log lines.
	ID string
	// QueueDepth bounds pending batches. Default: 64.
	QueueDepth int
}

func (c *Config) defaults() {
	if c.QueueDepth <= 0 {
		c.QueueDepth = 64
	}
}

// Session is one reconciliation engine instance. Construct with New, start
// with Start, tear down with Close.
type Session struct {
	cfg    Config
	host   Host
	logger *slog.Logger

	snapCh  chan category.Snapshot
	batchCh chan change.Batch

	// Loop-owned state. Only the loop goroutine touches these, which is
	// what makes a pass atomic with respect to the notification stream.
	ready    bool
	snapshot category.Snapshot
	known    map[change.NodeRef]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	stop   sync.Once

	// Counters for observability.
	passes      atomic.Int64
	fullRescans atomic.Int64
	resets      atomic.Int64
	classified  atomic.Int64
	skipped     atomic.Int64
	dropped     atomic.Int64
}

// Option customises a Session.
type Option func(*Session)

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// New creates a Session for the given host collaborators.
func New(cfg Config, host Host, opts ...Option) (*Session, error) {
	if host.Extractor == nil || host.Effects == nil || host.Lister == nil {
		return nil, errors.New("session: host requires Extractor, Effects, and Lister")
	}
	cfg.defaults()

	s := &Session{
		cfg:    cfg,
		host:   host,
		logger: slog.Default(),
		known:  make(map[change.NodeRef]struct{}),
		done:   make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	s.snapCh = make(chan category.Snapshot, 4)
	s.batchCh = make(chan change.Batch, cfg.QueueDepth)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s, nil
}

// Start launches the reconciliation loop.
func (s *Session) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	go s.loop()
	s.logger.Info("session: started", "id", s.cfg.ID)
}

// Close tears the session down. No reconciliation pass runs after Close
// returns.
func (s *Session) Close() {
	s.stop.Do(func() {
		s.cancel()
		<-s.done
		s.logger.Info("session: closed", "id", s.cfg.ID)
	})
}

// Install delivers a category snapshot. The first call transitions the
// session from uninitialized to ready; every call triggers a full rescan of
// the currently-known items. An empty snapshot is ready-with-zero-rules,
// not an error.
func (s *Session) Install(snap category.Snapshot) {
	select {
	case s.snapCh <- snap:
	case <-s.ctx.Done():
	}
}

// HandleBatch enqueues a change batch for the next pass. It is the sink
// target for feedwatch; batches arriving mid-pass wait their turn, they are
// never interleaved into the in-flight pass.
func (s *Session) HandleBatch(ctx context.Context, batch change.Batch) error {
	select {
	case s.batchCh <- batch:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sink returns a feedwatch sink feeding this session. Wire it into
// feedwatch.New to connect observation to reconciliation in-process.
func (s *Session) Sink() feedwatch.Sink {
	return feedwatch.NewCallbackSink(s.HandleBatch)
}

// loop owns all session state. One message at a time: a snapshot swap is
// applied atomically between passes, never during one.
func (s *Session) loop() {
	defer close(s.done)

	for {
		// Teardown wins over queued work: nothing runs after Close.
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		select {
		case <-s.ctx.Done():
			return

		case snap := <-s.snapCh:
			s.install(snap)

		case batch := <-s.batchCh:
			s.process(batch)
		}
	}
}

func (s *Session) install(snap category.Snapshot) {
	first := !s.ready
	s.snapshot = snap
	s.ready = true

	if first {
		s.logger.Info("session: initialized",
			"id", s.cfg.ID, "categories", snap.Len())
	} else {
		s.logger.Info("session: categories replaced",
			"id", s.cfg.ID, "categories", snap.Len())
	}

	// Anything classified before the swap is stale.
	s.fullRescan()
}

func (s *Session) process(batch change.Batch) {
	if !s.ready {
		s.dropped.Add(1)
		s.logger.Debug("session: batch before init, dropped",
			"id", s.cfg.ID, "seq", batch.Seq)
		return
	}

	s.passes.Add(1)

	switch {
	case batch.IsReset():
		// The content region was rebuilt. fullRescan clears the markers of
		// every previously-known item (a safe no-op for nodes that died
		// with the old structure) and rebuilds the bookkeeping from the
		// new structure.
		s.resets.Add(1)
		s.fullRescan()

	case batch.NeedsFullRescan():
		s.fullRescan()

	default:
		for _, ref := range batch.Inserted() {
			s.reconcileItem(ref)
		}
	}
}

// fullRescan discards every applied marker and reclassifies the whole
// currently-present item set.
func (s *Session) fullRescan() {
	s.fullRescans.Add(1)

	for ref := range s.known {
		s.host.Effects.Clear(s.ctx, ref)
	}
	s.known = make(map[change.NodeRef]struct{})

	for _, ref := range s.host.Lister.Items(s.ctx) {
		s.reconcileItem(ref)
	}
}

// reconcileItem is the unit of work: clear, extract, classify, apply.
// Clearing first makes reprocessing idempotent — markers are replaced, never
// stacked. Extraction failure skips the item without aborting the pass.
func (s *Session) reconcileItem(ref change.NodeRef) {
	s.host.Effects.Clear(s.ctx, ref)

	v, ok := s.host.Extractor.Extract(s.ctx, ref)
	if !ok {
		s.skipped.Add(1)
		return
	}

	result := s.snapshot.Classify(v)
	s.host.Effects.Apply(s.ctx, ref, result)
	s.known[ref] = struct{}{}
	s.classified.Add(1)
}

// Stats are point-in-time counters.
type Stats struct {
	Passes         int64 `json:"passes"`
	FullRescans    int64 `json:"full_rescans"`
	Resets         int64 `json:"resets"`
	Classified     int64 `json:"classified"`
	Skipped        int64 `json:"skipped"`
	DroppedBatches int64 `json:"dropped_batches"`
}

// Stats returns the current counters.
func (s *Session) Stats() Stats {
	return Stats{
		Passes:         s.passes.Load(),
		FullRescans:    s.fullRescans.Load(),
		Resets:         s.resets.Load(),
		Classified:     s.classified.Load(),
		Skipped:        s.skipped.Load(),
		DroppedBatches: s.dropped.Load(),
	}
}
