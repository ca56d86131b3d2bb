package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"efdcrun/internal/workspace"
	"efdcrun/pkg/inp"
)

var errRoundTrip = errors.New("input does not render back to its own text")

func newCheckCmd(a *app) *cobra.Command {
	var diff bool
	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "Parse every input file and verify it renders back unchanged",
		Long: `Parses efdc.inp, qser.inp, wqpsc.inp, wq3dwc.inp and conc_adjust.inp,
resolving the row counts each file takes from the others, then renders every
file and compares it with the original text. Whitespace-only differences are
reported as normalized; anything else fails the check.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.sourceDir(args)
			if err != nil {
				return err
			}
			return checkDir(cmd.OutOrStdout(), dir, diff)
		},
	}
	cmd.Flags().BoolVar(&diff, "diff", false, "print the line diff of files that change")
	return cmd
}

func checkDir(out io.Writer, dir string, diff bool) error {
	units := inp.StandardUnits()
	src := map[string][]byte{}
	for _, name := range inp.UnitNames(units) {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		src[name] = data
	}
	files, err := inp.Resolve(units, src, inp.DefaultMaxPasses)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tRECORDS\tTABLES\tROUND TRIP")
	var changed []string
	var diffs []string
	for _, name := range inp.UnitNames(units) {
		f, ok := files[name]
		if !ok {
			fmt.Fprintf(tw, "%s\t-\t-\tmissing\n", name)
			continue
		}
		rendered := f.Bytes()
		status := "identical"
		if !bytes.Equal(rendered, src[name]) {
			status = "normalized"
			if normalize(rendered) != normalize(src[name]) {
				status = "CHANGED"
				changed = append(changed, name)
				if diff {
					diffs = append(diffs, name+":\n"+cmp.Diff(strings.Split(string(src[name]), "\n"), strings.Split(string(rendered), "\n")))
				}
			}
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", name, len(f.Records), len(f.Names()), status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, name := range inp.UnitNames(units) {
		if f, ok := files[name]; ok {
			for _, w := range f.Warnings {
				fmt.Fprintln(out, "warning:", w)
			}
		}
	}
	for _, d := range diffs {
		fmt.Fprintln(out, d)
	}
	if len(changed) > 0 {
		return fmt.Errorf("%w: %s", errRoundTrip, strings.Join(changed, ", "))
	}
	return workspace.New(files).Validate()
}

// normalize collapses whitespace runs and drops trailing blank lines.
func normalize(text []byte) string {
	lines := strings.Split(strings.ReplaceAll(string(text), "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.Join(strings.Fields(l), " ")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
