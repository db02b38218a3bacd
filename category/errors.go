package category

import "errors"

// ErrDuplicateCategory is returned by Add when a category with the same id
// already exists. The store is left unchanged.
var ErrDuplicateCategory = errors.New("category: id already exists")

// ErrCategoryNotFound is returned by Update and Remove when no category has
// the given id. The store is left unchanged.
var ErrCategoryNotFound = errors.New("category: id not found")
