package feedwatch

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/hazyhaar/vidlens/feedwatch/change"
)

// Binder answers "what does the host document look like right now". The
// watcher never walks a document itself — rebinding is a pure function of
// the binder's current answers, so scope management is testable without a
// live host.
type Binder interface {
	// Root returns the main content region, or false when it does not
	// exist yet. A missing root is not an error; the root scope simply
	// stays inactive until a later structural event produces one.
	Root(ctx context.Context) (change.NodeRef, bool)
	// Containers returns the regions currently holding item lists.
	// Container regions can appear lazily, so this is re-queried on every
	// rebind.
	Containers(ctx context.Context) []change.NodeRef
}

// Bindings is the current set of watch targets. The host attaches its
// platform observers to exactly these nodes and detaches from anything no
// longer listed.
type Bindings struct {
	Root       change.NodeRef
	RootOK     bool
	Containers []change.NodeRef
}

// scopeSet holds the watcher's current bindings and re-derives them on
// demand. Rebind is idempotent: calling it twice against an unchanged host
// yields identical bindings and reports no change.
type scopeSet struct {
	mu     sync.Mutex
	binder Binder
	cur    Bindings
	logger *slog.Logger
}

func newScopeSet(binder Binder, logger *slog.Logger) *scopeSet {
	return &scopeSet{binder: binder, logger: logger}
}

// rebind re-queries the binder and installs the result. Returns the new
// bindings and whether they differ from the previous ones.
func (s *scopeSet) rebind(ctx context.Context) (Bindings, bool) {
	root, ok := s.binder.Root(ctx)
	containers := s.binder.Containers(ctx)

	next := Bindings{Root: root, RootOK: ok, Containers: containers}

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := next.RootOK != s.cur.RootOK ||
		next.Root != s.cur.Root ||
		!slices.Equal(next.Containers, s.cur.Containers)
	s.cur = next

	if changed {
		if !ok {
			s.logger.Debug("feedwatch: root scope inactive, no target")
		} else {
			s.logger.Debug("feedwatch: scopes rebound",
				"root", root, "containers", len(containers))
		}
	}
	return next, changed
}

// bound returns the current bindings.
func (s *scopeSet) bound() Bindings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Bindings{
		Root:       s.cur.Root,
		RootOK:     s.cur.RootOK,
		Containers: slices.Clone(s.cur.Containers),
	}
}
