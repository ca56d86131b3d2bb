package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"efdcrun/internal/runner"
	"efdcrun/internal/workspace"
)

func (a *app) loadWorkspace(cmd *cobra.Command, dir string) (*workspace.Workspace, error) {
	return workspace.Load(cmd.Context(), dir,
		workspace.WithLogger(a.logger), workspace.WithMetrics(a.metrics), workspace.WithTracer(a.tracer))
}

func newRunCmd(a *app) *cobra.Command {
	var length int64
	var begin float64
	cmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "Run the model once in a freshly staged directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.sourceDir(args)
			if err != nil {
				return err
			}
			ws, err := a.loadWorkspace(cmd, dir)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("length") {
				if err := ws.SetSimulationLength(length); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("begin") {
				if err := ws.SetBeginTime(begin); err != nil {
					return err
				}
			}
			r, err := a.newRunner(cmd.Context(), dir)
			if err != nil {
				return err
			}
			res, err := r.Run(cmd.Context(), ws)
			if err != nil {
				return err
			}
			printResults(cmd.OutOrStdout(), []*runner.Result{res})
			return nil
		},
	}
	cmd.Flags().Int64Var(&length, "length", 0, "override the simulation length (C03 NTC)")
	cmd.Flags().Float64Var(&begin, "begin", 0, "override the begin time in days (C03 TBEGIN)")
	return cmd
}

func newBatchCmd(a *app) *cobra.Command {
	var sets, mode string
	cmd := &cobra.Command{
		Use:   "batch [dir]",
		Short: "Run one flow boundary selection per job through the worker pool",
		Long: `Runs one job per keep set. Each job keeps the listed 0-based flow
boundaries of the source inputs. Failed runs are retried up to pool.attempts
times; the batch stops at the first job that exhausts its attempts.

Example:
  efdcrun batch sim --keep-sets "0,2;1,3;-" --mode flow`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.sourceDir(args)
			if err != nil {
				return err
			}
			keepSets, err := parseKeepSets(sets)
			if err != nil {
				return err
			}
			m, err := workspace.ParseMode(mode)
			if err != nil {
				return err
			}
			base, err := a.loadWorkspace(cmd, dir)
			if err != nil {
				return err
			}
			wss := make([]*workspace.Workspace, len(keepSets))
			for i, keep := range keepSets {
				wss[i] = base.Clone()
				if err := wss[i].SelectFlow(keep, m); err != nil {
					return fmt.Errorf("job %d: %w", i, err)
				}
			}
			r, err := a.newRunner(cmd.Context(), dir)
			if err != nil {
				return err
			}
			results, err := r.RunBatch(cmd.Context(), wss)
			if err != nil {
				return err
			}
			printResults(cmd.OutOrStdout(), results)
			return nil
		},
	}
	cmd.Flags().StringVar(&sets, "keep-sets", "", `semicolon separated keep lists, "-" for none`)
	cmd.Flags().StringVar(&mode, "mode", string(workspace.ModeHard), "hard, flow or qfactor")
	_ = cmd.MarkFlagRequired("keep-sets")
	return cmd
}

func newRestartCmd(a *app) *cobra.Command {
	var begin, end, step int64
	cmd := &cobra.Command{
		Use:   "restart [dir]",
		Short: "Run a base simulation, then continue it window by window from restart files",
		Long: `Runs the inputs once as the base run, then resumes from a copy of the base
run's restart files in windows of --step days until --end. --begin defaults to the
day the base run ends (TBEGIN + NTC).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.sourceDir(args)
			if err != nil {
				return err
			}
			ws, err := a.loadWorkspace(cmd, dir)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("begin") {
				t, err := ws.BeginTime()
				if err != nil {
					return err
				}
				n, err := ws.SimulationLength()
				if err != nil {
					return err
				}
				begin = int64(t) + n
			}
			r, err := a.newRunner(cmd.Context(), dir)
			if err != nil {
				return err
			}
			base, err := r.Run(cmd.Context(), ws)
			if err != nil {
				return fmt.Errorf("base run: %w", err)
			}
			forks, err := r.Fork(base.Dir, 1)
			if err != nil {
				return err
			}
			results := []*runner.Result{base}
			err = r.RestartChain(cmd.Context(), forks[0], ws, begin, end, step, func(_ runner.Window, res *runner.Result) error {
				results = append(results, res)
				return nil
			})
			printResults(cmd.OutOrStdout(), results)
			return err
		},
	}
	cmd.Flags().Int64Var(&begin, "begin", 0, "first restart day")
	cmd.Flags().Int64Var(&end, "end", 0, "day the chain stops")
	cmd.Flags().Int64Var(&step, "step", 1, "days per restart window")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newRunsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List the runs recorded in the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			led, err := a.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			rs, err := led.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tSTATUS\tATTEMPT\tLABEL\tBEGIN\tLENGTH\tDURATION\tERROR")
			for _, r := range rs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%g\t%d\t%s\t%s\n",
					r.ID, r.Status, r.Attempt, r.Label, r.Begin, r.Length, r.Duration().Round(time.Millisecond), r.Error)
			}
			return tw.Flush()
		},
	}
}

func printResults(out io.Writer, results []*runner.Result) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tDIR\tTIMING")
	for _, res := range results {
		fmt.Fprintf(tw, "%s\t%s\t", res.RunID, res.Dir.Path)
		for i, k := range slices.Sorted(maps.Keys(res.Timing)) {
			if i > 0 {
				fmt.Fprint(tw, " ")
			}
			fmt.Fprintf(tw, "%s=%g", k, res.Timing[k])
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush()
}
