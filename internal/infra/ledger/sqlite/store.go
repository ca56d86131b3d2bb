// Package sqlite keeps the run ledger in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"efdcrun/internal/ledger/core"
)

// Store writes each run as one row: id, start time (for ordering) and the
// JSON encoded record.
type Store struct {
	db   *sql.DB
	path string
}

// New opens or creates the database at path.
func New(path string) (*Store, error) {
	if path == "" {
		path = "efdcrun.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// batch workers write concurrently; sqlite serializes writers anyway
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started TEXT NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Put(ctx context.Context, r core.Record) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", r.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs(id,started,payload) VALUES(?,?,?) ON CONFLICT(id) DO UPDATE SET started=excluded.started, payload=excluded.payload`,
		r.ID, r.Started.UTC().Format(time.RFC3339Nano), payload)
	if err != nil {
		return fmt.Errorf("upsert run %s: %w", r.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (core.Record, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM runs WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("select run %s: %w", id, err)
	}
	return decode(id, payload)
}

func (s *Store) List(ctx context.Context) ([]core.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, payload FROM runs ORDER BY started, id`)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []core.Record
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		r, err := decode(id, payload)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func decode(id string, payload []byte) (core.Record, error) {
	var r core.Record
	if err := json.Unmarshal(payload, &r); err != nil {
		return core.Record{}, fmt.Errorf("decode run %s: %w", id, err)
	}
	return r, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// DB exposes the underlying handle for tests.
func (s *Store) DB() *sql.DB { return s.db }
