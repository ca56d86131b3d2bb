// Command efdcrun checks, edits and runs EFDC simulation directories.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"efdcrun/internal/artifact"
	"efdcrun/internal/config"
	"efdcrun/internal/ledger"
	"efdcrun/internal/logging"
	"efdcrun/internal/observe"
	"efdcrun/internal/runner"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := execute(ctx, &app{}, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "efdcrun:", err)
		stop()
		os.Exit(1)
	}
}

// app carries what PersistentPreRunE builds for the subcommands.
type app struct {
	configPath string
	verbose    bool

	cfg      *config.Config
	logger   *zap.Logger
	metrics  observe.MetricsRecorder
	tracer   observe.Tracer
	registry *prometheus.Registry
	closers  []func() error

	// executor overrides the process executor in tests.
	executor runner.Executor
}

func execute(ctx context.Context, a *app, args []string, out io.Writer) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(out)
	err := root.ExecuteContext(ctx)
	return errors.Join(err, a.close())
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "efdcrun",
		Short: "Stage, edit and run EFDC simulations",
		Long: `efdcrun parses the fixed-format inputs of an EFDC simulation directory,
applies experiment edits (flow boundary selection, simulation window,
restart) and runs the model in isolated staged directories.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultFile, "configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newCheckCmd(a),
		newSelectFlowCmd(a),
		newRunCmd(a),
		newBatchCmd(a),
		newRestartCmd(a),
		newRunsCmd(a),
		newArtifactsCmd(a),
		newInitCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	level := cfg.Log.Level
	if a.verbose {
		level = "debug"
	}
	if a.logger, err = logging.New(level, cfg.Log.JSON); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.closers = append(a.closers, func() error {
		_ = a.logger.Sync()
		return nil
	})

	metrics := observe.Multi{observe.NewExpvarRecorder(cfg.Metrics.ExpvarName)}
	if cfg.Metrics.PrometheusFile != "" {
		a.registry = prometheus.NewRegistry()
		prom, err := observe.NewPrometheusRecorder(a.registry)
		if err != nil {
			return err
		}
		metrics = append(metrics, prom)
		path := cfg.Metrics.PrometheusFile
		a.closers = append(a.closers, func() error {
			return prometheus.WriteToTextfile(path, a.registry)
		})
	}
	a.metrics = metrics
	a.tracer = observe.Nop{}
	if cfg.Metrics.TracePath != "" {
		f, err := os.OpenFile(cfg.Metrics.TracePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open trace file: %w", err)
		}
		a.tracer = observe.NewJSONTracer(f)
		a.closers = append(a.closers, f.Close)
	}
	return nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) openLedger(ctx context.Context) (ledger.Store, error) {
	led, err := ledger.Open(ctx, a.cfg.Ledger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, led.Close)
	return led, nil
}

// openArchive returns nil when the artifact driver is "none".
func (a *app) openArchive(ctx context.Context) (*artifact.Archive, error) {
	store, err := artifact.Open(ctx, a.cfg.Artifact)
	if err != nil || store == nil {
		return nil, err
	}
	return artifact.NewArchive(store,
		artifact.WithLogger(a.logger),
		artifact.WithObservability(a.metrics, a.tracer)), nil
}

// newRunner wires the configured ledger, artifact store and pool around a
// runner that stages from src.
func (a *app) newRunner(ctx context.Context, src string) (*runner.Runner, error) {
	led, err := a.openLedger(ctx)
	if err != nil {
		return nil, err
	}
	timeout, err := a.cfg.PoolTimeout()
	if err != nil {
		return nil, err
	}
	opts := []runner.Option{
		runner.WithLedger(led),
		runner.WithLogger(a.logger),
		runner.WithObservability(a.metrics, a.tracer),
	}
	archive, err := a.openArchive(ctx)
	if err != nil {
		return nil, err
	}
	if archive != nil {
		opts = append(opts, runner.WithArchive(archive))
	}
	if a.executor != nil {
		opts = append(opts, runner.WithExecutor(a.executor))
	}
	var shared []string
	if len(a.cfg.SharedFiles) > 0 {
		shared = a.cfg.SharedFiles
	}
	return runner.New(runner.Options{
		Source:     src,
		WorkRoot:   a.cfg.WorkRoot,
		Executable: a.cfg.Executable,
		Shared:     shared,
		Keep:       a.cfg.KeepRuns,
		Timeout:    timeout,
		PoolSize:   a.cfg.Pool.Size,
		Attempts:   a.cfg.Pool.Attempts,
	}, opts...), nil
}

// sourceDir is the first argument or the configured source root.
func (a *app) sourceDir(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if a.cfg.SourceRoot == "" {
		return "", errors.New("no simulation directory given and source_root is not configured")
	}
	return a.cfg.SourceRoot, nil
}
