package runner

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pool runs jobs with bounded concurrency. Each job gets Attempts tries;
// the first job to use them all cancels the rest of the batch.
type Pool struct {
	Size     int
	Attempts int
	Logger   *zap.Logger
}

func (p Pool) size() int {
	if p.Size <= 0 {
		return 1
	}
	return p.Size
}

func (p Pool) attempts() int {
	if p.Attempts <= 0 {
		return 1
	}
	return p.Attempts
}

// Map calls fn for job indices 0..n-1 and returns the results in index
// order. fn receives the 1-based attempt number. When a job exhausts its
// attempts Map returns an error wrapping ErrPoolFailed and the job's last
// error.
func Map[T any](ctx context.Context, p Pool, n int, fn func(ctx context.Context, i, attempt int) (T, error)) ([]T, error) {
	out := make([]T, n)
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.size())
	for i := range n {
		g.Go(func() error {
			var last error
			for attempt := 1; attempt <= p.attempts(); attempt++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				v, err := fn(ctx, i, attempt)
				if err == nil {
					out[i] = v
					return nil
				}
				last = err
				log.Warn("job attempt failed", zap.Int("job", i), zap.Int("attempt", attempt), zap.Error(err))
			}
			return fmt.Errorf("%w: job %d after %d attempts: %w", ErrPoolFailed, i, p.attempts(), last)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
