package inp

import (
	"fmt"
	"strings"
	"testing"
)

// efdcFixture has NQSIJ=NQSER=2, NQCTL=0, NQWR=1, NPD=0 and MLTMSR=1, so C10
// and C14 are absent from the text.
const efdcFixture = `C01 generated for tests
C02 restart and mode switches
0 0 0 1 0 0 0 0 0 0 0 0 0 0 0
C03 time steps
8760 24 0.0
C04 grid
10 10 5 0 1 0.0 0.05 0.0 0.02 0.05 0.0
C05 layers
1 1.0
C06 turbulence
1.0 0.0 1E-6 1E-8 1E-6 1E-8 0 0 0
C07 boundary counts
0 0 0 2 2 0 0 1 0
C08 flow boundaries
3 4 0 0 1 0 0 1.0
5 6 0 0 2 0 0 0.5
C09 flow boundary constants
20.0 0
20.0 0
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

func mustParseEFDC(t *testing.T, text string) *File {
	t.Helper()
	f, err := ParseMaster(EFDCFile, EFDC, []byte(text), nil)
	if err != nil {
		t.Fatalf("parse efdc: %v", err)
	}
	return f
}

// masterText renders a syntactically valid master file for c with one
// comment line before every card. Driver fields take the values in drivers,
// every other field is "0" or "0.5" alternately.
func masterText(c *Catalog, drivers map[string]int, extra map[string]int) string {
	lengths := map[string]int{}
	for _, card := range c.cards {
		if _, driven := c.driven[card.ID]; !driven && !card.External {
			lengths[card.ID] = card.Rows
		}
	}
	for k, v := range extra {
		lengths[k] = v
	}
	var b strings.Builder
	for _, card := range c.cards {
		n := lengths[card.ID]
		if n == 0 {
			continue
		}
		fmt.Fprintf(&b, "C %s\n", card.ID)
		for r := 0; r < n; r++ {
			fields := make([]string, len(card.Columns))
			for i, col := range card.Columns {
				fields[i] = []string{"0", "0.5"}[i%2]
				if v, ok := drivers[card.ID+"."+col]; ok && r == 0 {
					fields[i] = fmt.Sprint(v)
				}
			}
			b.WriteString(strings.Join(fields, " "))
			b.WriteByte('\n')
		}
		for _, d := range card.Drivers {
			v := drivers[card.ID+"."+d.Field]
			for _, dep := range d.Cards {
				lengths[dep] = v
			}
		}
	}
	return b.String()
}

const concentrationFixture = "2\t0\t0\t0\t0\t0\tinflow1\n" +
	"0.0\t1\t2\t3\t4\t5\t6\t7\t8\t9\t10\t11\t12\t13\t14\t15\t16\t17\t18\t19\t20\t21\t22\t23\t24\t25\t26\n" +
	"1.0\t1\t2\t3\t4\t5\t6\t7\t8\t9\t10\t11\t12\t13\t14\t15\t16\t17\t18\t19\t20\t21\t22\t23\t24\t25\t26\n" +
	"1\t0\t0\t0\t0\t0\tinflow2\n" +
	"0.0\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0\n"

const flowFixture = "# flow boundaries\n" +
	"# generated\n" +
	"0\t3\t86400\t0\t1\t0\t0\tnorth\n" +
	"1\n" +
	"0.0\t1.5\n" +
	"1.0\t2.5\n" +
	"2.0\t3.5\n" +
	"0\t0\t86400\t0\t1\t0\t0\tsouth\n" +
	"1\n" +
	"0.0\t4.0\n" +
	"1.0\t5.0\n"

func adjustRow(v string) string {
	return strings.TrimSuffix(strings.Repeat(v+" ", len(adjustColumns)), " ")
}
