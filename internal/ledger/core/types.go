// Package core defines the run ledger record and the store contract its
// backends implement.
package core

import (
	"context"
	"errors"
	"maps"
	"time"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Record is one model run. It is stored as a JSON payload keyed by ID.
type Record struct {
	ID       string             `json:"id"`
	Batch    string             `json:"batch,omitempty"`
	Label    string             `json:"label,omitempty"`
	Dir      string             `json:"dir"`
	Status   Status             `json:"status"`
	Attempt  int                `json:"attempt"`
	Begin    float64            `json:"begin_day"`
	Length   int64              `json:"length"`
	Restart  bool               `json:"restart,omitempty"`
	Started  time.Time          `json:"started"`
	Finished time.Time          `json:"finished,omitzero"`
	Timing   map[string]float64 `json:"timing,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// Duration is the wall time of a finished run.
func (r Record) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// Clone copies r including its timing map.
func (r Record) Clone() Record {
	r.Timing = maps.Clone(r.Timing)
	return r
}

// Store persists run records. Put inserts or replaces by ID; List returns
// records ordered by start time then ID.
type Store interface {
	Put(ctx context.Context, r Record) error
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context) ([]Record, error)
	Close() error
}

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("ledger: run not found")
