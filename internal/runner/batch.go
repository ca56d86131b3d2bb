package runner

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"efdcrun/internal/workspace"
)

// RunBatch runs every workspace in its own staged directory through the
// pool. A failed attempt is retried in a freshly staged directory.
func (r *Runner) RunBatch(ctx context.Context, wss []*workspace.Workspace) ([]*Result, error) {
	batch := uuid.NewString()
	r.logger.Info("batch started", zap.String("batch", batch), zap.Int("jobs", len(wss)))
	results, err := Map(ctx, r.Pool(), len(wss), func(ctx context.Context, i, attempt int) (*Result, error) {
		d, err := r.Stage()
		if err != nil {
			return nil, err
		}
		res, err := r.exec1(ctx, d, wss[i], job{batch: batch, label: fmt.Sprintf("job-%d", i), attempt: attempt})
		if err != nil {
			r.discard(d)
			return nil, err
		}
		return res, nil
	})
	if err != nil {
		return nil, fmt.Errorf("batch %s: %w", batch, err)
	}
	return results, nil
}

// Fork stages n new directories, each holding a copy of the restart outputs
// of base, so separate experiments can continue from the same state.
func (r *Runner) Fork(base *Dir, n int) ([]*Dir, error) {
	out := make([]*Dir, 0, n)
	for range n {
		d, err := r.Stage()
		if err != nil {
			return nil, err
		}
		if err := CopyRestartFiles(base.Path, d.Path); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Window is one leg of a restart chain, in days.
type Window struct {
	Index  int
	Begin  int64
	Length int64
}

// RestartChain runs ws in d from day begin to day end in windows of at most
// step days. Every window resumes from the restart files the previous run
// left in d, so d must already hold the outputs of a run reaching begin. A
// retried window restarts from the same inputs as its first attempt. Fork a
// finished run first to keep its outputs intact.
// fn sees each window's result before the next window starts; a non-nil
// return stops the chain. ws itself is not modified.
func (r *Runner) RestartChain(ctx context.Context, d *Dir, ws *workspace.Workspace, begin, end, step int64, fn func(Window, *Result) error) error {
	if step <= 0 {
		return fmt.Errorf("runner: restart step %d must be positive", step)
	}
	ws = ws.Clone()
	if err := ws.EnableRestart(); err != nil {
		return err
	}
	w := Window{}
	for t := begin; t < end; t += w.Length {
		w.Begin, w.Length = t, min(end-t, step)
		if err := ws.SetBeginTime(float64(t)); err != nil {
			return err
		}
		if err := ws.SetSimulationLength(w.Length); err != nil {
			return err
		}
		// The model only writes the *.OUT files, so every attempt of the
		// window starts from the inputs prepared here.
		if err := PrepareRestart(d.Path); err != nil {
			return fmt.Errorf("restart window %d at day %d: %w", w.Index, t, err)
		}
		res, err := Map(ctx, r.Pool(), 1, func(ctx context.Context, _, attempt int) (*Result, error) {
			return r.exec1(ctx, d, ws, job{label: fmt.Sprintf("restart-%d", w.Index), attempt: attempt})
		})
		if err != nil {
			return fmt.Errorf("restart window %d at day %d: %w", w.Index, t, err)
		}
		if fn != nil {
			if err := fn(w, res[0]); err != nil {
				return err
			}
		}
		w.Index++
	}
	return nil
}
