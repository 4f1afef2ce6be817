// Package store persists parsed outlines in sqlite so unchanged files are
// not parsed again between runs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/mattn/go-sqlite3"

	"repoviewer/internal/outline"
)

const schema = `
CREATE TABLE IF NOT EXISTS outlines (
	path       TEXT PRIMARY KEY,
	hash       TEXT NOT NULL,
	language   TEXT NOT NULL,
	payload    TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// DefaultHotEntries is the size of the in-memory cache in front of sqlite.
const DefaultHotEntries = 4096

type entry struct {
	hash   string
	module outline.Module
}

// Store is a sqlite-backed outline cache. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	hot *lru.Cache[string, entry]
}

// Open opens (creating if needed) the database at path. ":memory:" keeps
// everything in process.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if path == ":memory:" {
		// each connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	hot, err := lru.New[string, entry](DefaultHotEntries)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, hot: hot}, nil
}

func dsn(path string) string {
	if path == ":memory:" {
		return path
	}
	return "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000"
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the outline stored for path if it was recorded with hash.
func (s *Store) Get(ctx context.Context, path, hash string) (outline.Module, bool, error) {
	if e, ok := s.hot.Get(path); ok && e.hash == hash {
		return e.module, true, nil
	}

	var storedHash, payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT hash, payload FROM outlines WHERE path = ?`, path,
	).Scan(&storedHash, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return outline.Module{}, false, nil
	}
	if err != nil {
		return outline.Module{}, false, fmt.Errorf("query outline: %w", err)
	}
	if storedHash != hash {
		return outline.Module{}, false, nil
	}

	m, err := outline.DecodeModule([]byte(payload))
	if err != nil {
		return outline.Module{}, false, fmt.Errorf("decode stored outline for %s: %w", path, err)
	}
	s.hot.Add(path, entry{hash: hash, module: m})
	return m, true, nil
}

// Put records the outline of path at content hash.
func (s *Store) Put(ctx context.Context, path, hash, language string, m outline.Module) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode outline: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO outlines (path, hash, language, payload, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			hash = excluded.hash,
			language = excluded.language,
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		path, hash, language, string(payload), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert outline: %w", err)
	}
	s.hot.Add(path, entry{hash: hash, module: m})
	return nil
}

// Prune deletes outlines under prefix whose path is not in keep.
func (s *Store) Prune(ctx context.Context, prefix string, keep []string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `CREATE TEMP TABLE IF NOT EXISTS keep_paths (path TEXT PRIMARY KEY)`); err != nil {
		return 0, fmt.Errorf("create temp table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM keep_paths`); err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO keep_paths (path) VALUES (?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for _, p := range keep {
		if _, err := stmt.ExecContext(ctx, p); err != nil {
			return 0, fmt.Errorf("stage path: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM outlines
		WHERE instr(path, ?) = 1
		AND path NOT IN (SELECT path FROM keep_paths)`,
		prefix,
	)
	if err != nil {
		return 0, fmt.Errorf("prune outlines: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	if n > 0 {
		kept := make(map[string]bool, len(keep))
		for _, p := range keep {
			kept[p] = true
		}
		for _, key := range s.hot.Keys() {
			if strings.HasPrefix(key, prefix) && !kept[key] {
				s.hot.Remove(key)
			}
		}
	}
	return n, nil
}

// Count returns the number of stored outlines.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outlines`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
