package category

import (
	"strings"

	"golang.org/x/text/cases"
)

// MatchResult is the outcome of classifying one video. Matched preserves
// store insertion order and may be empty. Results are derived values —
// recomputed per pass, never cached across snapshot swaps.
type MatchResult struct {
	Video   VideoInfo  `json:"video"`
	Matched []Category `json:"matched"`
}

// AnyGrayedOut reports whether at least one matched category requests
// visual de-emphasis.
func (r MatchResult) AnyGrayedOut() bool {
	for _, c := range r.Matched {
		if c.IsGrayedOut {
			return true
		}
	}
	return false
}

// Snapshot is a frozen category list. It is safe for concurrent use by any
// number of sessions; nothing can mutate it after construction.
type Snapshot struct {
	categories []Category
}

// NewSnapshot freezes a category list for classification.
func NewSnapshot(list []Category) Snapshot {
	return Snapshot{categories: cloneCategories(list)}
}

// Classify matches a video against every category in the snapshot.
// Total function: zero matches yield an empty Matched, never an error.
func (s Snapshot) Classify(v VideoInfo) MatchResult {
	var matched []Category
	for _, c := range s.categories {
		if c.Matches(v) {
			matched = append(matched, c)
		}
	}
	return MatchResult{Video: v, Matched: matched}
}

// Len reports the number of categories in the snapshot.
func (s Snapshot) Len() int { return len(s.categories) }

// Categories returns a defensive copy of the snapshot's list.
func (s Snapshot) Categories() []Category {
	return cloneCategories(s.categories)
}

// Matches reports whether the category's keywords hit the video's
// target-selected text. OR across keywords: any keyword appearing as a
// case-insensitive substring of any selected field qualifies.
func (c Category) Matches(v VideoInfo) bool {
	text := fold(c.Target.searchText(v))
	for _, kw := range c.Keywords {
		if kw == "" {
			// An empty keyword would match every video.
			continue
		}
		if strings.Contains(text, fold(kw)) {
			return true
		}
	}
	return false
}

// searchText joins the fields the target selects, space-separated.
// The variant-to-field-set mapping lives here so the join logic exists once.
func (t Target) searchText(v VideoInfo) string {
	var parts []string
	switch t {
	case TargetTitle:
		parts = append(parts, v.Title)
		if v.Description != "" {
			parts = append(parts, v.Description)
		}
	case TargetChannel:
		parts = append(parts, v.ChannelName)
	case TargetBoth:
		parts = append(parts, v.Title, v.ChannelName, v.Description)
	}
	return strings.Join(parts, " ")
}

// fold case-folds for caseless comparison. Unicode folding, not ASCII
// lowering — keyword lists are routinely non-Latin.
func fold(s string) string {
	return cases.Fold().String(s)
}
