// Package artifact archives the files of each model run (rendered inputs,
// outputs and console log) in an object store, keyed by run id.
package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"efdcrun/internal/artifact/core"
	"efdcrun/internal/config"
	infrafs "efdcrun/internal/infra/artifact/fs"
	"efdcrun/internal/infra/artifact/memory"
	infras3 "efdcrun/internal/infra/artifact/s3"
	"efdcrun/internal/logging"
	"efdcrun/internal/observe"
)

type (
	Driver           = core.Driver
	PutOptions       = core.PutOptions
	SignedURLOptions = core.SignedURLOptions
	Info             = core.Info
	Store            = core.Store
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrUnsupported = core.ErrUnsupported
	ErrNotFound    = core.ErrNotFound
	ErrExists      = core.ErrExists
)

// ConsoleLog is the key suffix the model console output is archived under.
const ConsoleLog = "console.log"

const runsPrefix = "runs/"

// Open builds the store selected by cfg. Driver "none" or "" returns nil:
// runs are not archived.
func Open(ctx context.Context, cfg config.ArtifactConfig) (Store, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case string(DriverFilesystem):
		return infrafs.New(cfg.FSRoot)
	case string(DriverMemory):
		return memory.New(), nil
	case string(DriverS3):
		return infras3.New(ctx, infras3.Config{
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			PathStyle:       cfg.S3.PathStyle,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown artifact driver %q", cfg.Driver)
	}
}

// Archive stores run files under runs/<run id>/<file name>.
type Archive struct {
	store   Store
	logger  *zap.Logger
	metrics observe.MetricsRecorder
	tracer  observe.Tracer
}

// Option configures an Archive.
type Option func(*Archive)

func WithLogger(l *zap.Logger) Option { return func(a *Archive) { a.logger = logging.OrNop(l) } }

func WithObservability(m observe.MetricsRecorder, t observe.Tracer) Option {
	return func(a *Archive) {
		if m != nil {
			a.metrics = m
		}
		if t != nil {
			a.tracer = t
		}
	}
}

func NewArchive(store Store, opts ...Option) *Archive {
	a := &Archive{store: store, logger: zap.NewNop(), metrics: observe.Nop{}, tracer: observe.Nop{}}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Archive) Store() Store { return a.store }

// Key is the object key of one run file.
func Key(runID, name string) string { return path.Join(runsPrefix+runID, name) }

// PutFiles archives the named files of dir for run runID. Missing files are
// skipped, so the same list serves runs that failed before writing outputs.
func (a *Archive) PutFiles(ctx context.Context, runID, dir string, names []string, meta map[string]string) ([]Info, error) {
	var infos []Info
	err := observe.Track(ctx, a.metrics, a.tracer, "artifact.put", func(ctx context.Context) error {
		for _, name := range names {
			f, err := os.Open(filepath.Join(dir, name))
			if errors.Is(err, fs.ErrNotExist) {
				a.logger.Debug("artifact absent", zap.String("run", runID), zap.String("file", name))
				continue
			}
			if err != nil {
				return fmt.Errorf("artifact: open %s: %w", name, err)
			}
			info, err := a.store.Put(ctx, Key(runID, name), f, PutOptions{ContentType: "text/plain", Metadata: meta})
			_ = f.Close()
			if err != nil {
				return fmt.Errorf("artifact: put %s: %w", name, err)
			}
			infos = append(infos, info)
		}
		return nil
	})
	if err != nil {
		return infos, err
	}
	a.logger.Debug("run archived", zap.String("run", runID), zap.Int("files", len(infos)), zap.String("driver", string(a.store.Driver())))
	return infos, nil
}

// PutBytes archives data under the run's name.
func (a *Archive) PutBytes(ctx context.Context, runID, name string, data []byte, meta map[string]string) (Info, error) {
	var info Info
	err := observe.Track(ctx, a.metrics, a.tracer, "artifact.put", func(ctx context.Context) error {
		var err error
		info, err = a.store.Put(ctx, Key(runID, name), bytes.NewReader(data), PutOptions{ContentType: "text/plain", Metadata: meta})
		return err
	})
	return info, err
}

// Fetch reads one archived run file.
func (a *Archive) Fetch(ctx context.Context, runID, name string) ([]byte, error) {
	_, rc, err := a.store.Get(ctx, Key(runID, name))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

// Files lists the archived files of a run by name.
func (a *Archive) Files(ctx context.Context, runID string) ([]Info, error) {
	infos, err := a.store.List(ctx, runsPrefix+runID+"/")
	if err != nil {
		return nil, err
	}
	for i := range infos {
		infos[i].Key = strings.TrimPrefix(infos[i].Key, runsPrefix+runID+"/")
	}
	return infos, nil
}

// Runs lists the run ids with at least one archived file.
func (a *Archive) Runs(ctx context.Context) ([]string, error) {
	infos, err := a.store.List(ctx, runsPrefix)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, info := range infos {
		id, _, ok := strings.Cut(strings.TrimPrefix(info.Key, runsPrefix), "/")
		if ok && (len(ids) == 0 || ids[len(ids)-1] != id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ConsoleURL returns a shareable link to the run's console log, or
// ErrUnsupported when the backend cannot sign URLs.
func (a *Archive) ConsoleURL(ctx context.Context, runID string) (string, error) {
	return a.store.PresignURL(ctx, Key(runID, ConsoleLog), SignedURLOptions{Method: "GET"})
}

// Purge deletes every archived file of a run and reports how many existed.
func (a *Archive) Purge(ctx context.Context, runID string) (int, error) {
	infos, err := a.store.List(ctx, runsPrefix+runID+"/")
	if err != nil {
		return 0, err
	}
	n := 0
	for _, info := range infos {
		ok, err := a.store.Delete(ctx, info.Key)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}
