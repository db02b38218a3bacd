package category

import (
	"errors"
	"testing"
)

func TestStore_AddDuplicate(t *testing.T) {
	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	c := Category{ID: "4", Name: "music", Keywords: []string{"mv"}, Target: TargetBoth}
	if err := store.Add(c); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	err = store.Add(Category{ID: "4", Name: "other"})
	if !errors.Is(err, ErrDuplicateCategory) {
		t.Fatalf("second Add: got %v, want ErrDuplicateCategory", err)
	}

	// Store unchanged: exactly one category with id "4", original contents.
	all := store.All()
	if len(all) != 1 {
		t.Fatalf("length after failed Add: got %d, want 1", len(all))
	}
	if all[0].Name != "music" {
		t.Errorf("contents changed by failed Add: got name %q", all[0].Name)
	}
}

func TestStore_UpdateUnknown(t *testing.T) {
	store, _ := NewStore(Category{ID: "1", Name: "a"})

	err := store.Update(Category{ID: "missing", Name: "x"})
	if !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("Update: got %v, want ErrCategoryNotFound", err)
	}
	if got := store.All(); len(got) != 1 || got[0].Name != "a" {
		t.Errorf("store changed by failed Update: %+v", got)
	}
}

func TestStore_UpdatePreservesPosition(t *testing.T) {
	store, _ := NewStore(
		Category{ID: "1", Name: "a"},
		Category{ID: "2", Name: "b"},
		Category{ID: "3", Name: "c"},
	)

	if err := store.Update(Category{ID: "2", Name: "b2"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	all := store.All()
	if all[1].ID != "2" || all[1].Name != "b2" {
		t.Errorf("position 1: got %+v, want updated id 2", all[1])
	}
}

func TestStore_RemoveUnknown(t *testing.T) {
	store, _ := NewStore(Category{ID: "1"})

	err := store.Remove("missing")
	if !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("Remove: got %v, want ErrCategoryNotFound", err)
	}
	if store.Len() != 1 {
		t.Errorf("length after failed Remove: got %d, want 1", store.Len())
	}
}

func TestStore_RemoveShiftsOrder(t *testing.T) {
	store, _ := NewStore(
		Category{ID: "1"},
		Category{ID: "2"},
		Category{ID: "3"},
	)

	if err := store.Remove("2"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	all := store.All()
	if len(all) != 2 || all[0].ID != "1" || all[1].ID != "3" {
		t.Errorf("order after Remove: got %+v", all)
	}
}

func TestStore_ReplaceRejectsDuplicates(t *testing.T) {
	store, _ := NewStore(Category{ID: "keep"})

	err := store.Replace([]Category{{ID: "x"}, {ID: "x"}})
	if !errors.Is(err, ErrDuplicateCategory) {
		t.Fatalf("Replace: got %v, want ErrDuplicateCategory", err)
	}
	// Rejected wholesale: previous contents intact.
	if all := store.All(); len(all) != 1 || all[0].ID != "keep" {
		t.Errorf("store changed by failed Replace: %+v", all)
	}
}

func TestStore_ReplaceIsWholesale(t *testing.T) {
	store, _ := NewStore(Category{ID: "old1"}, Category{ID: "old2"})

	if err := store.Replace([]Category{{ID: "new"}}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	all := store.All()
	if len(all) != 1 || all[0].ID != "new" {
		t.Errorf("Replace did not discard old list: %+v", all)
	}
}

func TestStore_AllIsDefensiveCopy(t *testing.T) {
	store, _ := NewStore(Category{ID: "1", Keywords: []string{"original"}})

	view := store.All()
	view[0].Keywords[0] = "mutated"
	view[0].ID = "hacked"

	all := store.All()
	if all[0].ID != "1" || all[0].Keywords[0] != "original" {
		t.Errorf("store mutated through view: %+v", all[0])
	}
}

func TestNewStore_RejectsDuplicateSeed(t *testing.T) {
	_, err := NewStore(Category{ID: "1"}, Category{ID: "1"})
	if !errors.Is(err, ErrDuplicateCategory) {
		t.Fatalf("NewStore: got %v, want ErrDuplicateCategory", err)
	}
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		id := NewID()
		if _, dup := seen[id]; dup {
			t.Fatalf("NewID produced duplicate %q", id)
		}
		seen[id] = struct{}{}
	}
}
