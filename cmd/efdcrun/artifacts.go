package main

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"efdcrun/internal/artifact"
)

var errNoArchive = errors.New("runs are not archived: artifact driver is none")

func newArtifactsCmd(a *app) *cobra.Command {
	var fetch string
	var purge bool
	cmd := &cobra.Command{
		Use:   "artifacts [run]",
		Short: "List, fetch or purge the archived files of runs",
		Long: `Without a run id, lists the runs that have archived files. With one, lists
the run's files and a link to its console log when the store can sign URLs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			archive, err := a.openArchive(ctx)
			if err != nil {
				return err
			}
			if archive == nil {
				return errNoArchive
			}
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				if fetch != "" || purge {
					return errors.New("--fetch and --purge need a run id")
				}
				runs, err := archive.Runs(ctx)
				if err != nil {
					return err
				}
				for _, id := range runs {
					fmt.Fprintln(out, id)
				}
				return nil
			}
			run := args[0]
			switch {
			case fetch != "":
				data, err := archive.Fetch(ctx, run, fetch)
				if err != nil {
					return fmt.Errorf("fetch %s of run %s: %w", fetch, run, err)
				}
				_, err = out.Write(data)
				return err
			case purge:
				n, err := archive.Purge(ctx, run)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "purged %d files of run %s\n", n, run)
				return nil
			}
			files, err := archive.Files(ctx, run)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("run %s: %w", run, artifact.ErrNotFound)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FILE\tSIZE\tSTORED")
			for _, f := range files {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", f.Key, f.Size, f.LastModified.Format(time.RFC3339))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if !slices.ContainsFunc(files, func(f artifact.Info) bool { return f.Key == artifact.ConsoleLog }) {
				return nil
			}
			url, err := archive.ConsoleURL(ctx, run)
			switch {
			case errors.Is(err, artifact.ErrUnsupported):
				return nil
			case err != nil:
				return err
			}
			fmt.Fprintf(out, "console: %s\n", url)
			return nil
		},
	}
	cmd.Flags().StringVar(&fetch, "fetch", "", "print the named archived file")
	cmd.Flags().BoolVar(&purge, "purge", false, "delete every archived file of the run")
	cmd.MarkFlagsMutuallyExclusive("fetch", "purge")
	return cmd
}

func newInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write the effective configuration to the --config file",
		Long: `Writes the defaults, merged with any existing file and EFDCRUN_* environment
overrides, to the --config path. A directory argument becomes source_root.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(a.configPath); err == nil && !force {
				return fmt.Errorf("%s exists; use --force to overwrite", a.configPath)
			}
			cfg := *a.cfg
			if len(args) > 0 {
				cfg.SourceRoot = args[0]
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.Save(a.configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", a.configPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	return cmd
}
