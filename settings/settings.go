// Package settings persists the category list and propagates changes to
// running sessions.
//
// The persisted artifact is deliberately flat: one JSON blob
// {"categories": [...]} read and written wholesale — no partial updates at
// the persistence layer. The Hub watches the store for writes (from any
// process) and broadcasts the fresh snapshot to every subscribed session,
// which reacts with a full rescan.
package settings

import (
	"github.com/hazyhaar/vidlens/category"
)

// Settings is the sole persisted payload.
type Settings struct {
	Categories []category.Category `json:"categories"`
}

// Snapshot freezes the settings' category list for classification.
func (s Settings) Snapshot() category.Snapshot {
	return category.NewSnapshot(s.Categories)
}
