package category

import (
	"reflect"
	"testing"
)

func sampleCategories() []Category {
	return []Category{
		{
			ID:          "1",
			Name:        "ゲーム",
			Keywords:    []string{"ゲーム実況", "プレイ動画", "gaming"},
			IsGrayedOut: true,
			Target:      TargetBoth,
		},
		{
			ID:          "2",
			Name:        "料理",
			Keywords:    []string{"レシピ", "料理", "cooking"},
			IsGrayedOut: false,
			Target:      TargetTitle,
		},
		{
			ID:          "3",
			Name:        "ゲームチャンネル",
			Keywords:    []string{"Gaming Channel"},
			IsGrayedOut: true,
			Target:      TargetChannel,
		},
	}
}

func snapshotOf(t *testing.T, list []Category) Snapshot {
	t.Helper()
	s, err := NewStore(list...)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s.Snapshot()
}

func TestClassify_TitleTarget(t *testing.T) {
	snap := snapshotOf(t, sampleCategories())
	v := VideoInfo{
		Title:       "簡単レシピを紹介",
		ChannelName: "テストチャンネル",
		Description: "新作のレビューです",
	}

	result := snap.Classify(v)
	if len(result.Matched) != 1 {
		t.Fatalf("Matched: got %d, want 1", len(result.Matched))
	}
	if result.Matched[0].ID != "2" {
		t.Errorf("Matched[0].ID: got %q, want %q", result.Matched[0].ID, "2")
	}
}

func TestClassify_ChannelTarget(t *testing.T) {
	snap := snapshotOf(t, sampleCategories())
	v := VideoInfo{
		Title:       "新作レビュー",
		ChannelName: "Gaming Channel",
		Description: "新作のレビューです",
	}

	result := snap.Classify(v)
	if len(result.Matched) != 1 {
		t.Fatalf("Matched: got %d, want 1", len(result.Matched))
	}
	if result.Matched[0].ID != "3" {
		t.Errorf("Matched[0].ID: got %q, want %q", result.Matched[0].ID, "3")
	}
}

func TestClassify_ChannelTargetIgnoresTitle(t *testing.T) {
	// The same keyword in the title must not match a channel-targeted rule.
	snap := snapshotOf(t, []Category{
		{ID: "3", Keywords: []string{"Gaming Channel"}, Target: TargetChannel},
	})
	v := VideoInfo{Title: "Gaming Channel retrospective", ChannelName: "X"}

	if got := snap.Classify(v); len(got.Matched) != 0 {
		t.Errorf("Matched: got %d, want 0", len(got.Matched))
	}
}

func TestClassify_BothTargetViaDescription(t *testing.T) {
	snap := snapshotOf(t, sampleCategories())
	v := VideoInfo{
		Title:       "新作レビュー",
		ChannelName: "テストチャンネル",
		Description: "ゲーム実況の様子です",
	}

	result := snap.Classify(v)
	if len(result.Matched) != 1 {
		t.Fatalf("Matched: got %d, want 1", len(result.Matched))
	}
	if result.Matched[0].ID != "1" {
		t.Errorf("Matched[0].ID: got %q, want %q", result.Matched[0].ID, "1")
	}
}

func TestClassify_TitleTargetSearchesDescription(t *testing.T) {
	snap := snapshotOf(t, []Category{
		{ID: "2", Keywords: []string{"cooking"}, Target: TargetTitle},
	})
	v := VideoInfo{
		Title:       "Weeknight dinners",
		ChannelName: "X",
		Description: "quick cooking ideas",
	}

	if got := snap.Classify(v); len(got.Matched) != 1 {
		t.Errorf("Matched: got %d, want 1 (title target searches description)", len(got.Matched))
	}
}

func TestClassify_TitleTargetIgnoresChannel(t *testing.T) {
	snap := snapshotOf(t, []Category{
		{ID: "2", Keywords: []string{"cooking"}, Target: TargetTitle},
	})
	v := VideoInfo{Title: "Weeknight dinners", ChannelName: "Cooking Daily"}

	if got := snap.Classify(v); len(got.Matched) != 0 {
		t.Errorf("Matched: got %d, want 0 (title target must not search channel)", len(got.Matched))
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	snap := snapshotOf(t, []Category{
		{ID: "g", Keywords: []string{"Gaming"}, Target: TargetBoth},
	})
	v := VideoInfo{Title: "my gaming channel tour", ChannelName: "X"}

	if got := snap.Classify(v); len(got.Matched) != 1 {
		t.Errorf("Matched: got %d, want 1 (case-insensitive)", len(got.Matched))
	}
}

func TestClassify_NoMatchYieldsEmpty(t *testing.T) {
	snap := snapshotOf(t, sampleCategories())
	v := VideoInfo{Title: "weather report", ChannelName: "news"}

	result := snap.Classify(v)
	if len(result.Matched) != 0 {
		t.Errorf("Matched: got %d, want 0", len(result.Matched))
	}
	if result.Video != v {
		t.Errorf("Video not echoed back: got %+v", result.Video)
	}
}

func TestClassify_MatchedPreservesStoreOrder(t *testing.T) {
	snap := snapshotOf(t, []Category{
		{ID: "a", Keywords: []string{"zzz"}, Target: TargetBoth},
		{ID: "b", Keywords: []string{"aaa"}, Target: TargetBoth},
		{ID: "c", Keywords: []string{"mmm"}, Target: TargetBoth},
	})
	// Keyword hit order differs from store order.
	v := VideoInfo{Title: "aaa mmm zzz", ChannelName: "X"}

	result := snap.Classify(v)
	var ids []string
	for _, c := range result.Matched {
		ids = append(ids, c.ID)
	}
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("Matched order: got %v, want %v", ids, want)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	snap := snapshotOf(t, sampleCategories())
	v := VideoInfo{Title: "簡単レシピを紹介", ChannelName: "Gaming Channel"}

	first := snap.Classify(v)
	second := snap.Classify(v)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("classification not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestClassify_MembersOnlyCarriedThrough(t *testing.T) {
	snap := snapshotOf(t, sampleCategories())
	v := VideoInfo{
		Title:         "新作レビュー",
		ChannelName:   "テストチャンネル",
		Description:   "メンバー限定配信",
		IsMembersOnly: true,
	}

	result := snap.Classify(v)
	if !result.Video.IsMembersOnly {
		t.Error("IsMembersOnly not carried through")
	}
}

func TestClassify_EmptyKeywordNeverMatches(t *testing.T) {
	snap := snapshotOf(t, []Category{
		{ID: "e", Keywords: []string{""}, Target: TargetBoth},
	})
	v := VideoInfo{Title: "anything", ChannelName: "X"}

	if got := snap.Classify(v); len(got.Matched) != 0 {
		t.Errorf("empty keyword matched: got %d matches, want 0", len(got.Matched))
	}
}

func TestClassify_EmptySnapshot(t *testing.T) {
	snap := NewSnapshot(nil)
	result := snap.Classify(VideoInfo{Title: "t", ChannelName: "c"})
	if len(result.Matched) != 0 {
		t.Errorf("Matched: got %d, want 0", len(result.Matched))
	}
}

func TestAnyGrayedOut(t *testing.T) {
	r := MatchResult{Matched: []Category{
		{ID: "1", IsGrayedOut: false},
		{ID: "2", IsGrayedOut: true},
	}}
	if !r.AnyGrayedOut() {
		t.Error("AnyGrayedOut: got false, want true")
	}

	r = MatchResult{Matched: []Category{{ID: "1"}}}
	if r.AnyGrayedOut() {
		t.Error("AnyGrayedOut: got true, want false")
	}
}

func TestSnapshot_DetachedFromStore(t *testing.T) {
	store, err := NewStore(sampleCategories()...)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	snap := store.Snapshot()

	if err := store.Remove("2"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if snap.Len() != 3 {
		t.Errorf("snapshot length after store mutation: got %d, want 3", snap.Len())
	}
}
