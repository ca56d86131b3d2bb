// Package testsim builds small but complete simulation directories for
// tests of the packages that load, edit and run them.
package testsim

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"efdcrun/pkg/inp"
)

// Flows is the number of flow boundaries in Files. The first Inflows of them
// carry concentration series; the rest are outflows.
const (
	Flows   = 3
	Inflows = 2
)

// FlowNames are the qser.inp series names in boundary order.
var FlowNames = []string{"north", "south", "outlet"}

// EFDC has NQSIJ = NQSER = 3, NQWR = 1 and NQCTL = 0. Boundary i uses series
// i+1. C03 is NTC = 10, TBEGIN = 0.
const EFDC = `C01 generated for tests
C02 restart and mode switches
0 0 0 1 0 0 0 0 0 0 0 0 0 0 0
C03 time steps
10 24 0.0
C04 grid
10 10 5 0 1 0.0 0.05 0.0 0.02 0.05 0.0
C05 layers
1 1.0
C06 turbulence
1.0 0.0 1E-6 1E-8 1E-6 1E-8 0 0 0
C07 boundary counts
0 0 0 3 3 0 0 1 0
C08 flow boundaries
3 4 0 0 1 0 0 1.0
5 6 0 0 2 0 0 0.5
7 8 0 0 3 0 0 1.0
C09 flow boundary constants
20.0 0
21.0 0
22.0 0
C11 withdrawal and return
1 1 1 2 2 1 0.5 1 0 0 0 0 0 100
C12 withdrawal and return rise
0 0
C13 drifters
0 0 0 0 0 0 0 0 0 0
C15 time series locations
0 1 0 0 0
C16 time series cells
5 5 1 1 1 1 1 1 1 1 'Station A'
C17 atmosphere
1 0 1 1 1 1 1 1 1 1 ST1
C18 passes through
1 2 3
`

// Flow holds one series per boundary with four samples each.
const Flow = "# flow boundaries\n" +
	"0\t4\t86400\t0\t1\t0\t0\tnorth\n1\n0.0\t1.5\n1.0\t2.5\n2.0\t3.5\n3.0\t4.5\n" +
	"0\t4\t86400\t0\t1\t0\t0\tsouth\n1\n0.0\t4.0\n1.0\t5.0\n2.0\t6.0\n3.0\t7.0\n" +
	"0\t4\t86400\t0\t1\t0\t0\toutlet\n1\n0.0\t-1.0\n1.0\t-2.0\n2.0\t-3.0\n3.0\t-4.0\n"

// Concentration returns wqpsc.inp with one single-row series per inflow.
func Concentration() string {
	var b strings.Builder
	for i := range Inflows {
		fmt.Fprintf(&b, "1\t0\t0\t0\t0\t0\tinflow%d\n", i+1)
		b.WriteString(repeat("0.0", strconv.Itoa(i+1), len(inp.ConcentrationColumns())-1, "\t"))
		b.WriteByte('\n')
	}
	return b.String()
}

// Adjust returns conc_adjust.inp with matrices of Flows rows. Row r of every
// matrix is filled with r+1.
func Adjust(matrices int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d\n", matrices)
	for m := range matrices {
		fmt.Fprintf(&b, "%d.0\n", m*10)
		for r := range Flows {
			b.WriteString(repeat(strconv.Itoa(r+1), strconv.Itoa(r+1), len(inp.AdjustColumns())-1, " "))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func repeat(first, v string, n int, sep string) string {
	fields := []string{first}
	for range n {
		fields = append(fields, v)
	}
	return strings.Join(fields, sep)
}

// WQ3DWC returns wq3dwc.inp with one point source row per inflow, keyed
// N = 1..Inflows, and one C40 row for the single withdrawal.
func WQ3DWC() string {
	n := make([]string, Inflows)
	for i := range n {
		n[i] = strconv.Itoa(i + 1)
	}
	return MasterText(inp.WQ3DWC, map[string][]string{
		"C01.IANOX":     {"0"},
		"C06.IWQTS":     {"1"},
		"C34_1.IWQPS":   {strconv.Itoa(Inflows)},
		"C34_1.NPSTMSR": {strconv.Itoa(Inflows)},
		"C34_2.N":       n,
	}, map[string]int{"C40": 1})
}

// MasterText renders a syntactically valid master file for c with a comment
// before every card. cells maps "CARD.FIELD" to per-row values; driver fields
// read row 0 of their cells entry. Every other field is "0" or "0.5"
// alternately.
func MasterText(c *inp.Catalog, cells map[string][]string, extra map[string]int) string {
	lengths := map[string]int{}
	for _, card := range c.Cards() {
		if _, driven := c.DrivenBy(card.ID); !driven && !card.External {
			lengths[card.ID] = card.Rows
		}
	}
	for k, v := range extra {
		lengths[k] = v
	}
	var b strings.Builder
	for _, card := range c.Cards() {
		n := lengths[card.ID]
		if n == 0 {
			continue
		}
		fmt.Fprintf(&b, "C %s\n", card.ID)
		for r := range n {
			fields := make([]string, len(card.Columns))
			for i, col := range card.Columns {
				fields[i] = []string{"0", "0.5"}[i%2]
				if v := cells[card.ID+"."+col]; r < len(v) {
					fields[i] = v[r]
				}
			}
			b.WriteString(strings.Join(fields, " "))
			b.WriteByte('\n')
		}
		for _, d := range card.Drivers {
			v := 0
			if vals := cells[card.ID+"."+d.Field]; len(vals) > 0 {
				v, _ = strconv.Atoi(vals[0])
			}
			for _, dep := range d.Cards {
				lengths[dep] = v
			}
		}
	}
	return b.String()
}

// Files is a consistent simulation input set with two conc_adjust.inp
// matrices.
func Files() map[string][]byte {
	return map[string][]byte{
		inp.EFDCFile:          []byte(EFDC),
		inp.FlowFile:          []byte(Flow),
		inp.ConcentrationFile: []byte(Concentration()),
		inp.WQ3DWCFile:        []byte(WQ3DWC()),
		inp.AdjustFile:        []byte(Adjust(2)),
	}
}

// Write writes Files into a fresh temporary directory and returns it.
func Write(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	WriteTo(t, dir, Files())
	return dir
}

// WriteTo writes files into dir.
func WriteTo(t testing.TB, dir string, files map[string][]byte) {
	t.Helper()
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}
