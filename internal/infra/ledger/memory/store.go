// Package memory keeps the run ledger in process memory.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"efdcrun/internal/ledger/core"
)

type Store struct {
	mu   sync.RWMutex
	runs map[string]core.Record
}

func New() *Store { return &Store{runs: map[string]core.Record{}} }

func (s *Store) Put(_ context.Context, r core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = r.Clone()
	return nil
}

func (s *Store) Get(_ context.Context, id string) (core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return core.Record{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return r.Clone(), nil
}

func (s *Store) List(context.Context) ([]core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Record, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r.Clone())
	}
	Sort(out)
	return out, nil
}

func (s *Store) Close() error { return nil }

// Sort orders records by start time, then ID.
func Sort(rs []core.Record) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].Started.Equal(rs[j].Started) {
			return rs[i].Started.Before(rs[j].Started)
		}
		return rs[i].ID < rs[j].ID
	})
}
