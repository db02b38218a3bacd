package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/vidlens/category"
)

const storageKey = "category_settings"

const schema = `
CREATE TABLE IF NOT EXISTS settings_blob (
	key        TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at INTEGER NOT NULL DEFAULT (unixepoch())
);
`

// Store is the SQLite-backed settings store. A missing blob reads as empty
// settings — zero rules is a valid state, not an error.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the settings database at path with the
// production-safe pragmas (WAL, busy_timeout, NORMAL synchronous) and
// applies the schema. Parent directories are created as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("settings: mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("settings: open %s: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("settings: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("settings: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads the whole settings blob. No stored blob yields empty settings.
func (s *Store) Load(ctx context.Context) (Settings, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM settings_blob WHERE key = ?`, storageKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("settings: load: %w", err)
	}

	var out Settings
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return Settings{}, fmt.Errorf("settings: decode payload: %w", err)
	}
	return out, nil
}

// Save writes the whole settings blob, replacing whatever was stored, and
// bumps the version the Hub polls.
func (s *Store) Save(ctx context.Context, set Settings) error {
	payload, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("settings: encode payload: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("settings: save: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO settings_blob (key, payload, updated_at)
		VALUES (?, ?, unixepoch())
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		storageKey, string(payload))
	if err != nil {
		return fmt.Errorf("settings: save: %w", err)
	}

	ver, err := versionTx(ctx, tx)
	if err != nil {
		return err
	}
	// PRAGMA arguments cannot be bound.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", ver+1)); err != nil {
		return fmt.Errorf("settings: bump version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("settings: save commit: %w", err)
	}
	return nil
}

// Version returns the monotonically-increasing settings version. Every
// successful Save bumps it.
func (s *Store) Version(ctx context.Context) (int64, error) {
	var v int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("settings: version: %w", err)
	}
	return v, nil
}

func versionTx(ctx context.Context, tx *sql.Tx) (int64, error) {
	var v int64
	if err := tx.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("settings: version: %w", err)
	}
	return v, nil
}

// AddCategory appends one category to the persisted list. Fails with
// category.ErrDuplicateCategory when the id is taken; the stored blob is
// left unchanged.
func (s *Store) AddCategory(ctx context.Context, c category.Category) error {
	return s.modify(ctx, func(cs *category.Store) error { return cs.Add(c) })
}

// UpdateCategory replaces the category with the same id in the persisted
// list, preserving its position. Fails with category.ErrCategoryNotFound
// when absent.
func (s *Store) UpdateCategory(ctx context.Context, c category.Category) error {
	return s.modify(ctx, func(cs *category.Store) error { return cs.Update(c) })
}

// RemoveCategory deletes the category with the given id from the persisted
// list. Fails with category.ErrCategoryNotFound when absent.
func (s *Store) RemoveCategory(ctx context.Context, id string) error {
	return s.modify(ctx, func(cs *category.Store) error { return cs.Remove(id) })
}

// modify is the load-modify-save cycle shared by the blob-level CRUD. The
// blob is always rewritten wholesale; a failed mutation never touches it.
func (s *Store) modify(ctx context.Context, mutate func(*category.Store) error) error {
	cur, err := s.Load(ctx)
	if err != nil {
		return err
	}

	cs, err := category.NewStore(cur.Categories...)
	if err != nil {
		return err
	}
	if err := mutate(cs); err != nil {
		return err
	}

	return s.Save(ctx, Settings{Categories: cs.All()})
}
