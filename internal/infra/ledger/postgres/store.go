// Package postgres keeps the run ledger in a shared Postgres database so
// batches on several hosts report to one place.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"efdcrun/internal/ledger/core"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/efdcrun?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store keeps one row per run with the record as JSONB.
type Store struct {
	db *sql.DB
}

// New connects to dsn, falling back to a local default, and ensures the
// runs table exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started TIMESTAMPTZ NOT NULL,
		payload JSONB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure runs table: %w", err)
	}
	return &Store{db: db}, nil
}

// Put upserts r inside a transaction.
func (s *Store) Put(ctx context.Context, r core.Record) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", r.ID, err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs(id,started,payload) VALUES($1,$2,$3) ON CONFLICT(id) DO UPDATE SET started=EXCLUDED.started, payload=EXCLUDED.payload`,
		r.ID, r.Started.UTC(), payload); err != nil {
		return fmt.Errorf("upsert run %s: %w", r.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (core.Record, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM runs WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("select run %s: %w", id, err)
	}
	var r core.Record
	if err := json.Unmarshal(payload, &r); err != nil {
		return core.Record{}, fmt.Errorf("decode run %s: %w", id, err)
	}
	return r, nil
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
			return nil, fmt.Errorf("scan runs: %w", err)
		}
		var r core.Record
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, fmt.Errorf("decode run %s: %w", id, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sql.Open function for tests and returns a
// restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
