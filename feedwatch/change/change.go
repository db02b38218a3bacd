// Package change defines the structured types emitted by feedwatch.
// This is the contract between observation and reconciliation: a session
// imports this package to receive coalesced change batches.
package change

// NodeRef is an opaque handle into the host document. The core never
// interprets it; extractors and effect appliers resolve it on the host side.
type NodeRef string

// Op is the kind of change observed.
type Op string

const (
	OpInsert   Op = "insert"    // new item nodes attached to a known list
	OpAttr     Op = "attr"      // visibility-relevant attribute changed on an existing item
	OpDocReset Op = "doc_reset" // main content region replaced wholesale
)

// Tier is the watch scope a record originated from.
type Tier string

const (
	TierRoot      Tier = "root"      // gross structural replacement of the content region
	TierContainer Tier = "container" // item-list regions appearing or vanishing
	TierList      Tier = "list"      // item insertion and attribute churn inside known containers
)

// Record is a single raw change notification from the host.
type Record struct {
	Op    Op        `json:"op"`
	Tier  Tier      `json:"tier"`
	Nodes []NodeRef `json:"nodes,omitempty"` // inserted items; empty for attr and doc_reset
	Name  string    `json:"name,omitempty"`  // attribute name for attr, e.g. "hidden"
}

// Batch is the atomic unit emitted by the watcher: every record collected
// during one debounce quiescent period. A session processes a batch as one
// reconciliation pass.
type Batch struct {
	ID        string   `json:"id"` // UUIDv7
	SessionID string   `json:"session_id"`
	Seq       uint64   `json:"seq"` // monotonically increasing per watcher
	Records   []Record `json:"records"`
	Timestamp int64    `json:"timestamp"` // epoch milliseconds at flush
}

// NeedsFullRescan reports whether any record in the batch invalidates
// incremental processing. Attribute and structural churn can change which
// items exist or are visible without a matching insertion record, so the
// whole known item set must be re-derived.
func (b Batch) NeedsFullRescan() bool {
	for _, r := range b.Records {
		if r.Op == OpAttr || r.Op == OpDocReset {
			return true
		}
	}
	return false
}

// IsReset reports whether the batch carries a doc_reset: the content region
// was rebuilt and per-item bookkeeping must be discarded, not just refreshed.
func (b Batch) IsReset() bool {
	for _, r := range b.Records {
		if r.Op == OpDocReset {
			return true
		}
	}
	return false
}

// Inserted returns the item refs of every insert record, in observation
// order, without duplicates.
func (b Batch) Inserted() []NodeRef {
	var out []NodeRef
	seen := make(map[NodeRef]struct{})
	for _, r := range b.Records {
		if r.Op != OpInsert {
			continue
		}
		for _, n := range r.Nodes {
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}
