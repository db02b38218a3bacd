// Package category implements keyword-based classification of video items.
//
// A Category is a user-defined rule: an ordered list of keywords, a target
// scope selecting which item fields are searched, and a grayout flag consumed
// by the visual-effect layer. The Store holds the ordered rule list with
// id-uniqueness; a Snapshot is the immutable view sessions classify against.
//
// Classification is pure and total: it never fails and never mutates, so a
// single Snapshot can be shared by any number of concurrent sessions.
package category

import (
	"slices"

	"github.com/google/uuid"
)

// Target selects which fields of a video a category's keywords are
// searched against.
type Target string

const (
	TargetTitle   Target = "title"   // title + description when present
	TargetChannel Target = "channel" // channel name only
	TargetBoth    Target = "both"    // title, channel name, and description
)

// Category is one classification rule. ID is immutable once created and
// unique across a Store. Name is display-only and carries no matching
// semantics.
type Category struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Keywords    []string `json:"keywords" yaml:"keywords"`
	IsGrayedOut bool     `json:"isGrayedOut" yaml:"is_grayed_out"`
	Target      Target   `json:"target" yaml:"target"`
}

// VideoInfo is one content item as delivered by an extractor. Title and
// ChannelName are required; an item missing either never reaches
// classification. IsMembersOnly is carried through untouched — it is not
// matched against.
type VideoInfo struct {
	Title         string `json:"title"`
	ChannelName   string `json:"channelName"`
	Description   string `json:"description,omitempty"`
	IsMembersOnly bool   `json:"isMembersOnly,omitempty"`
}

// NewID produces a category id. UUIDv7: time-sortable, globally unique.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// cloneCategories deep-copies a category list, including each Keywords
// slice, so callers cannot reach back into the store through a view.
func cloneCategories(list []Category) []Category {
	out := make([]Category, len(list))
	for i, c := range list {
		c.Keywords = slices.Clone(c.Keywords)
		out[i] = c
	}
	return out
}
