package category

import (
	"fmt"
	"sync"
)

// Store is the ordered, id-unique category list. Mutations are synchronous
// and atomic: a failed operation leaves the store exactly as it was.
//
// Sessions never read the store directly — they classify against a Snapshot,
// so an in-flight classification can never observe a half-applied mutation.
type Store struct {
	mu         sync.Mutex
	categories []Category
}

// NewStore creates a Store seeded with the given categories, in order.
// Duplicate ids in the seed list are rejected.
func NewStore(list ...Category) (*Store, error) {
	s := &Store{}
	if err := s.Replace(list); err != nil {
		return nil, err
	}
	return s, nil
}

// Add appends a category, preserving insertion order. This order is later
// reflected in MatchResult.Matched.
func (s *Store) Add(c Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(c.ID) >= 0 {
		return fmt.Errorf("add category %q: %w", c.ID, ErrDuplicateCategory)
	}
	s.categories = append(s.categories, clone(c))
	return nil
}

// Update replaces the category with the same id in place, preserving its
// position in the order.
func (s *Store) Update(c Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(c.ID)
	if i < 0 {
		return fmt.Errorf("update category %q: %w", c.ID, ErrCategoryNotFound)
	}
	s.categories[i] = clone(c)
	return nil
}

// Remove deletes the category with the given id, shifting subsequent
// categories down.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("remove category %q: %w", id, ErrCategoryNotFound)
	}
	s.categories = append(s.categories[:i], s.categories[i+1:]...)
	return nil
}

// Replace installs a whole new category list, discarding the old one.
// Settings hydration uses this: persisted snapshots are applied wholesale,
// never merged. Duplicate ids reject the entire list and the store keeps
// its previous contents.
func (s *Store) Replace(list []Category) error {
	seen := make(map[string]struct{}, len(list))
	for _, c := range list {
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("replace categories: %q: %w", c.ID, ErrDuplicateCategory)
		}
		seen[c.ID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = cloneCategories(list)
	return nil
}

// All returns a defensive copy of the current category list.
func (s *Store) All() []Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCategories(s.categories)
}

// Len reports the number of categories.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.categories)
}

// Snapshot returns an immutable view for classification. The snapshot is
// detached: later store mutations never leak into it.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{categories: cloneCategories(s.categories)}
}

// indexOf returns the position of id, or -1. Caller holds s.mu.
func (s *Store) indexOf(id string) int {
	for i, c := range s.categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func clone(c Category) Category {
	out := cloneCategories([]Category{c})
	return out[0]
}
