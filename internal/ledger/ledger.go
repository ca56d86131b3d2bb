// Package ledger records every model run (status, attempt, simulation
// window, timing and error) so batches can be audited after the fact.
package ledger

import (
	"context"
	"fmt"

	"efdcrun/internal/config"
	"efdcrun/internal/infra/ledger/memory"
	"efdcrun/internal/infra/ledger/postgres"
	"efdcrun/internal/infra/ledger/sqlite"
	"efdcrun/internal/ledger/core"
)

type (
	Record = core.Record
	Status = core.Status
	Store  = core.Store
)

const (
	StatusRunning   = core.StatusRunning
	StatusSucceeded = core.StatusSucceeded
	StatusFailed    = core.StatusFailed
)

var ErrNotFound = core.ErrNotFound

// Open builds the ledger selected by cfg. Driver "none" returns an
// in-memory ledger that lives as long as the process.
func Open(ctx context.Context, cfg config.LedgerConfig) (Store, error) {
	switch cfg.Driver {
	case "", "none":
		return memory.New(), nil
	case "sqlite":
		return sqlite.New(cfg.Path)
	case "postgres":
		return postgres.New(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", cfg.Driver)
	}
}

// Summary counts runs by status.
func Summary(rs []Record) map[Status]int {
	out := map[Status]int{}
	for _, r := range rs {
		out[r.Status]++
	}
	return out
}
