// Package runner stages simulation directories, runs the model executable in
// them and records what each run produced. Batches go through a bounded
// worker pool that retries failed runs; restart chains split a long
// simulation into windows that resume from each other's restart files.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"efdcrun/internal/artifact"
	"efdcrun/internal/ledger"
	"efdcrun/internal/logging"
	"efdcrun/internal/observe"
	"efdcrun/internal/outputs"
	"efdcrun/internal/workspace"
	"efdcrun/pkg/inp"
)

// Options configures a Runner.
type Options struct {
	// Source is the prepared simulation directory runs are staged from.
	Source string
	// WorkRoot receives one directory per staged run. Empty means a
	// directory under the system temp dir.
	WorkRoot string
	// Executable is a glob relative to Source.
	Executable string
	// Shared lists the files linked into each run directory. Nil links every
	// input file of Source.
	Shared []string
	// Keep leaves the directories of failed attempts on disk.
	Keep bool
	// Timeout bounds one attempt; zero means none.
	Timeout  time.Duration
	PoolSize int
	Attempts int
}

// Dir is a staged run directory.
type Dir struct {
	ID         string
	Path       string
	Executable string
}

// Result is what one completed run left behind.
type Result struct {
	RunID   string
	Dir     *Dir
	Console []byte
	Timing  outputs.Timing
	Balance *outputs.Balance
	Record  ledger.Record
}

type Runner struct {
	opts    Options
	exec    Executor
	archive *artifact.Archive
	ledger  ledger.Store
	logger  *zap.Logger
	metrics observe.MetricsRecorder
	tracer  observe.Tracer
}

type Option func(*Runner)

// WithExecutor replaces the process executor, mostly for tests.
func WithExecutor(e Executor) Option { return func(r *Runner) { r.exec = e } }

// WithArchive uploads every run's inputs, outputs and console log.
func WithArchive(a *artifact.Archive) Option { return func(r *Runner) { r.archive = a } }

func WithLedger(s ledger.Store) Option { return func(r *Runner) { r.ledger = s } }

func WithLogger(l *zap.Logger) Option { return func(r *Runner) { r.logger = logging.OrNop(l) } }

func WithObservability(m observe.MetricsRecorder, t observe.Tracer) Option {
	return func(r *Runner) {
		if m != nil {
			r.metrics = m
		}
		if t != nil {
			r.tracer = t
		}
	}
}

func New(opts Options, options ...Option) *Runner {
	if opts.Executable == "" {
		opts.Executable = "*.exe"
	}
	if opts.WorkRoot == "" {
		opts.WorkRoot = filepath.Join(os.TempDir(), "efdcrun")
	}
	r := &Runner{
		opts:    opts,
		exec:    CommandExecutor{},
		logger:  zap.NewNop(),
		metrics: observe.Nop{},
		tracer:  observe.Nop{},
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// Pool is the worker pool sized by Options.
func (r *Runner) Pool() Pool {
	return Pool{Size: r.opts.PoolSize, Attempts: r.opts.Attempts, Logger: r.logger}
}

// Stage creates a fresh run directory under WorkRoot.
func (r *Runner) Stage() (*Dir, error) {
	id := uuid.NewString()
	path := filepath.Join(r.opts.WorkRoot, id)
	exe, err := Stage(r.opts.Source, path, r.opts.Executable, r.opts.Shared)
	if err != nil {
		return nil, err
	}
	return &Dir{ID: id, Path: path, Executable: exe}, nil
}

// discard removes d unless failed directories are kept.
func (r *Runner) discard(d *Dir) {
	if r.opts.Keep || d == nil {
		return
	}
	if err := os.RemoveAll(d.Path); err != nil {
		r.logger.Warn("remove run directory", zap.String("dir", d.Path), zap.Error(err))
	}
}

// job labels one execution in the ledger.
type job struct {
	batch   string
	label   string
	attempt int
}

// Run stages a new directory and runs ws in it once.
func (r *Runner) Run(ctx context.Context, ws *workspace.Workspace) (*Result, error) {
	d, err := r.Stage()
	if err != nil {
		return nil, err
	}
	return r.Exec(ctx, d, ws)
}

// Exec writes ws into the staged directory d and runs the executable there
// once. A run whose console output lacks the timing summary fails with
// outputs.ErrModelFailed.
func (r *Runner) Exec(ctx context.Context, d *Dir, ws *workspace.Workspace) (*Result, error) {
	return r.exec1(ctx, d, ws, job{attempt: 1})
}

func (r *Runner) exec1(ctx context.Context, d *Dir, ws *workspace.Workspace, j job) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Dir: d}
	rec := ledger.Record{
		ID:      res.RunID,
		Batch:   j.batch,
		Label:   j.label,
		Dir:     d.Path,
		Status:  ledger.StatusRunning,
		Attempt: j.attempt,
		Started: time.Now().UTC(),
	}
	if _, ok := ws.File(inp.EFDCFile); ok {
		rec.Begin, _ = ws.BeginTime()
		rec.Length, _ = ws.SimulationLength()
		rec.Restart, _ = ws.Restarting()
	}
	if err := r.putRecord(ctx, rec); err != nil {
		return nil, err
	}
	log := r.logger.With(zap.String("run", res.RunID), zap.String("dir", d.Path), zap.Int("attempt", j.attempt))
	log.Debug("run started", zap.Float64("begin", rec.Begin), zap.Int64("length", rec.Length))

	runErr := observe.Track(ctx, r.metrics, r.tracer, "runner.run", func(ctx context.Context) error {
		if err := ws.Write(d.Path); err != nil {
			return err
		}
		if r.opts.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
			defer cancel()
		}
		console, err := r.exec.Execute(ctx, d.Path, d.Executable)
		res.Console = console
		if err != nil {
			return err
		}
		if res.Timing, err = outputs.ParseTiming(console); err != nil {
			return err
		}
		res.Balance, err = outputs.ReadBalance(d.Path)
		return err
	})
	r.archiveRun(ctx, log, res, ws, j)

	rec.Finished = time.Now().UTC()
	rec.Timing = res.Timing
	rec.Status = ledger.StatusSucceeded
	if runErr != nil {
		rec.Status = ledger.StatusFailed
		rec.Error = runErr.Error()
	}
	res.Record = rec
	if err := r.putRecord(ctx, rec); err != nil {
		return nil, errors.Join(runErr, err)
	}
	if runErr != nil {
		log.Warn("run failed", zap.Error(runErr))
		return nil, runErr
	}
	log.Info("run finished", zap.Duration("took", rec.Duration()))
	return res, nil
}

func (r *Runner) putRecord(ctx context.Context, rec ledger.Record) error {
	if r.ledger == nil {
		return nil
	}
	// The final record must land even when the run was cancelled.
	if err := r.ledger.Put(context.WithoutCancel(ctx), rec); err != nil {
		return fmt.Errorf("runner: ledger %s: %w", rec.ID, err)
	}
	return nil
}

// archiveRun uploads inputs, the balance table and the console log. Upload
// failures are logged and do not fail the run.
func (r *Runner) archiveRun(ctx context.Context, log *zap.Logger, res *Result, ws *workspace.Workspace, j job) {
	if r.archive == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	meta := map[string]string{"dir": res.Dir.ID, "attempt": fmt.Sprint(j.attempt)}
	if j.batch != "" {
		meta["batch"] = j.batch
	}
	names := append(ws.Names(), inp.BalanceFile)
	if _, err := r.archive.PutFiles(ctx, res.RunID, res.Dir.Path, names, meta); err != nil {
		log.Warn("archive run files", zap.Error(err))
	}
	if res.Console != nil {
		if _, err := r.archive.PutBytes(ctx, res.RunID, artifact.ConsoleLog, res.Console, meta); err != nil {
			log.Warn("archive console log", zap.Error(err))
		}
	}
}
