// Package workspace holds the parsed input files of one simulation and the
// edits experiments make to them: simulation window, restart switch, flow
// boundary selection and flow time-series overrides.
package workspace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"efdcrun/internal/logging"
	"efdcrun/internal/observe"
	"efdcrun/pkg/inp"
)

var (
	// ErrMissingFile reports an edit that needs a file the workspace does not hold.
	ErrMissingFile = errors.New("workspace: file not loaded")
	// ErrInconsistent reports input files that disagree with each other.
	ErrInconsistent = errors.New("workspace: inconsistent inputs")
)

// Workspace owns one *inp.File per input file name. It is not safe for
// concurrent mutation; batch runs Clone a base workspace per job.
type Workspace struct {
	files   map[string]*inp.File
	units   []inp.Unit
	logger  *zap.Logger
	metrics observe.MetricsRecorder
	tracer  observe.Tracer
}

// Option configures Load and New.
type Option func(*Workspace)

func WithLogger(l *zap.Logger) Option { return func(w *Workspace) { w.logger = logging.OrNop(l) } }

// WithUnits replaces the standard file set.
func WithUnits(units []inp.Unit) Option { return func(w *Workspace) { w.units = units } }

func WithMetrics(m observe.MetricsRecorder) Option { return func(w *Workspace) { w.metrics = m } }

func WithTracer(t observe.Tracer) Option { return func(w *Workspace) { w.tracer = t } }

func newWorkspace(opts []Option) *Workspace {
	w := &Workspace{
		files:   map[string]*inp.File{},
		units:   inp.StandardUnits(),
		logger:  zap.NewNop(),
		metrics: observe.Nop{},
		tracer:  observe.Nop{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// New wraps already parsed files.
func New(files map[string]*inp.File, opts ...Option) *Workspace {
	w := newWorkspace(opts)
	for name, f := range files {
		w.files[name] = f
	}
	return w
}

// Load parses every declared input file present in dir. Files that do not
// exist are skipped; parse warnings are logged.
func Load(ctx context.Context, dir string, opts ...Option) (*Workspace, error) {
	w := newWorkspace(opts)
	err := observe.Track(ctx, w.metrics, w.tracer, "workspace.load", func(context.Context) error {
		src := map[string][]byte{}
		for _, u := range w.units {
			data, err := os.ReadFile(filepath.Join(dir, u.Name))
			if errors.Is(err, fs.ErrNotExist) {
				w.logger.Debug("input file absent", zap.String("file", u.Name), zap.String("dir", dir))
				continue
			}
			if err != nil {
				return fmt.Errorf("workspace: read %s: %w", u.Name, err)
			}
			src[u.Name] = data
		}
		files, err := inp.Resolve(w.units, src, inp.DefaultMaxPasses)
		if err != nil {
			return fmt.Errorf("workspace: load %s: %w", dir, err)
		}
		w.files = files
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, name := range w.Names() {
		f := w.files[name]
		for _, warn := range f.Warnings {
			w.logger.Warn("parse warning", zap.String("file", name), zap.String("card", warn.Card), zap.String("detail", warn.Msg))
		}
		w.logger.Debug("input file loaded", zap.String("file", name), zap.Int("records", len(f.Records)))
	}
	return w, nil
}

// Names lists the loaded files in declaration order.
func (w *Workspace) Names() []string {
	var out []string
	for _, u := range w.units {
		if _, ok := w.files[u.Name]; ok {
			out = append(out, u.Name)
		}
	}
	return out
}

// File returns the parsed file; edits to it are edits to the workspace.
func (w *Workspace) File(name string) (*inp.File, bool) {
	f, ok := w.files[name]
	return f, ok
}

func (w *Workspace) mustFile(name string) (*inp.File, error) {
	f, ok := w.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingFile, name)
	}
	return f, nil
}

func (w *Workspace) table(file, card string) (*inp.Table, error) {
	f, err := w.mustFile(file)
	if err != nil {
		return nil, err
	}
	t, ok := f.Table(card)
	if !ok {
		return nil, fmt.Errorf("workspace: %s has no %s: %w", file, card, inp.ErrCatalog)
	}
	return t, nil
}

// Render serializes every loaded file.
func (w *Workspace) Render() map[string][]byte {
	out := make(map[string][]byte, len(w.files))
	for name, f := range w.files {
		out[name] = f.Bytes()
	}
	return out
}

// Write renders every loaded file into dir. Each file is written to a
// temporary name and renamed into place, which also replaces a symlink left
// by staging instead of writing through it.
func (w *Workspace) Write(dir string) error {
	for _, name := range w.Names() {
		if err := writeAtomic(filepath.Join(dir, name), w.files[name].Bytes()); err != nil {
			return fmt.Errorf("workspace: write %s: %w", name, err)
		}
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Clone returns an independent deep copy sharing only options.
func (w *Workspace) Clone() *Workspace {
	out := &Workspace{files: make(map[string]*inp.File, len(w.files)), units: w.units, logger: w.logger, metrics: w.metrics, tracer: w.tracer}
	for name, f := range w.files {
		out.files[name] = f.Clone()
	}
	return out
}

// Validate re-parses the rendered files through the dependency driver and
// checks that each renders back unchanged. It catches edits that leave row
// counts out of step with their drivers.
func (w *Workspace) Validate() error {
	src := w.Render()
	parsed, err := inp.Resolve(w.units, src, inp.DefaultMaxPasses)
	if err != nil {
		return fmt.Errorf("workspace: validate: %w", err)
	}
	for name, f := range parsed {
		if !bytes.Equal(f.Bytes(), src[name]) {
			return fmt.Errorf("%w: %s does not render back to itself", ErrInconsistent, name)
		}
	}
	return nil
}
