package settings

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Subscriber receives every settings snapshot: once on subscription
// (hydration) and again after every detected store write.
type Subscriber func(Settings)

// HubOptions tunes the propagation loop.
type HubOptions struct {
	// Interval is the store polling frequency. Default: 500ms.
	Interval time.Duration
	// Debounce is the quiet period after a detected write before the
	// broadcast fires; further writes inside the window restart it.
	// 0 broadcasts immediately. Default: 0.
	Debounce time.Duration
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (o *HubOptions) defaults() {
	if o.Interval <= 0 {
		o.Interval = 500 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Hub distributes settings snapshots to active sessions. It polls the
// store's version token; when a write lands and the debounce window passes,
// it reloads the blob once and broadcasts it to every subscriber.
//
// One hub serves any number of sessions; each session still installs the
// snapshot independently, so no cross-session state is shared.
type Hub struct {
	store *Store
	opts  HubOptions

	mu     sync.Mutex
	subs   map[int]Subscriber
	nextID int

	version atomic.Int64

	// Counters for observability.
	checks     atomic.Int64
	changes    atomic.Int64
	errs       atomic.Int64
	broadcasts atomic.Int64
}

// NewHub creates a Hub over the store. Call Run to start the loop.
func NewHub(store *Store, opts HubOptions) *Hub {
	opts.defaults()
	return &Hub{
		store: store,
		opts:  opts,
		subs:  make(map[int]Subscriber),
	}
}

// Subscribe registers a session and immediately delivers the current
// snapshot — the session initialization message. A store with no blob
// hydrates as zero rules. The returned cancel detaches the subscriber.
func (h *Hub) Subscribe(ctx context.Context, fn Subscriber) (func(), error) {
	cur, err := h.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("settings: hydrate subscriber: %w", err)
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()

	fn(cur)

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}, nil
}

// Run blocks until ctx is cancelled, polling the store version at
// opts.Interval. When the version advances and the debounce window passes
// without further writes, the blob is reloaded once and broadcast.
func (h *Hub) Run(ctx context.Context) {
	log := h.opts.Logger

	// Seed initial version.
	if v, err := h.store.Version(ctx); err != nil {
		log.Warn("settings: initial version check failed", "error", err)
	} else {
		h.version.Store(v)
	}

	ticker := time.NewTicker(h.opts.Interval)
	defer ticker.Stop()

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time
	pendingVersion := int64(-1)

	log.Info("settings: hub started",
		"interval", h.opts.Interval, "debounce", h.opts.Debounce)

	for {
		select {
		case <-ctx.Done():
			log.Info("settings: hub stopped")
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case <-ticker.C:
			h.checks.Add(1)
			cur, err := h.store.Version(ctx)
			if err != nil {
				h.errs.Add(1)
				log.Warn("settings: version check failed", "error", err)
				continue
			}
			if cur != h.version.Load() && cur != pendingVersion {
				h.changes.Add(1)
				pendingVersion = cur

				if h.opts.Debounce <= 0 {
					h.fire(ctx, pendingVersion)
					pendingVersion = -1
				} else {
					if debounceTimer != nil {
						debounceTimer.Stop()
					}
					debounceTimer = time.NewTimer(h.opts.Debounce)
					debounceCh = debounceTimer.C
					log.Debug("settings: write detected, debouncing",
						"pending_version", cur)
				}
			}

		case <-debounceCh:
			debounceCh = nil
			if pendingVersion >= 0 {
				h.fire(ctx, pendingVersion)
				pendingVersion = -1
			}
		}
	}
}

// fire reloads the blob and broadcasts it. On reload failure the version is
// not advanced, so the next poll cycle retries.
func (h *Hub) fire(ctx context.Context, ver int64) {
	log := h.opts.Logger

	cur, err := h.store.Load(ctx)
	if err != nil {
		h.errs.Add(1)
		log.Error("settings: reload failed", "error", err, "version", ver)
		return
	}

	h.mu.Lock()
	subs := make([]Subscriber, 0, len(h.subs))
	for _, fn := range h.subs {
		subs = append(subs, fn)
	}
	h.mu.Unlock()

	for _, fn := range subs {
		fn(cur)
	}

	h.version.Store(ver)
	h.broadcasts.Add(1)
	log.Info("settings: broadcast",
		"version", ver, "categories", len(cur.Categories), "sessions", len(subs))
}

// HubStats are point-in-time counters.
type HubStats struct {
	Checks          int64 `json:"checks"`
	ChangesDetected int64 `json:"changes_detected"`
	Errors          int64 `json:"errors"`
	Broadcasts      int64 `json:"broadcasts"`
}

// Stats returns the current counters.
func (h *Hub) Stats() HubStats {
	return HubStats{
		Checks:          h.checks.Load(),
		ChangesDetected: h.changes.Load(),
		Errors:          h.errs.Load(),
		Broadcasts:      h.broadcasts.Load(),
	}
}
