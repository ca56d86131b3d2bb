package inp

import (
	"fmt"
	"slices"
)

// BalanceHeader is the exact first line the executable writes to qbal.out.
// Two of its labels run together, which BalanceColumns separates.
const BalanceHeader = "                                                 jday elev(m) qin(million-m3)qou(million-m3)  qctlo(million-m3)  qin(m) qou(m) qctlo(m) rain(m) eva(m)"

var balanceColumns = cols("jday elev(m) qin(million-m3) qou(million-m3) qctlo(million-m3) qin(m) qou(m) qctlo(m) rain(m) eva(m)")

const balanceTable = "qbal"

func BalanceColumns() []string { return slices.Clone(balanceColumns) }

// ParseBalance reads the water balance output qbal.out into one table. A
// header that differs from BalanceHeader is reported as a Warning since the
// rows may still be usable.
func ParseBalance(name string, text []byte) (*File, error) {
	lines := splitLines(text)
	f := &File{Name: name, Format: FormatBalance}
	if len(lines) == 0 {
		return nil, structural(name, balanceTable, 0, 1, 0, "missing header line")
	}
	if lines[0] != BalanceHeader {
		f.Warnings = append(f.Warnings, Warning{File: name, Card: balanceTable, Msg: fmt.Sprintf("unexpected header %q", lines[0])})
	}
	f.Records = append(f.Records, &Comment{Lines: lines[:1]})
	t := EmptyTable(balanceTable, balanceColumns)
	end := len(lines)
	for end > 1 && isBlankLine(lines[end-1]) {
		end--
	}
	for i := 1; i < end; i++ {
		tokens := splitFields(lines[i])
		if len(tokens) != len(balanceColumns) {
			return nil, structural(name, balanceTable, i+1, len(balanceColumns), len(tokens), "balance row has the wrong field count")
		}
		t.rows = append(t.rows, parseRow(tokens))
	}
	f.Records = append(f.Records, t)
	if end < len(lines) {
		f.Records = append(f.Records, &Comment{Lines: lines[end:]})
	}
	return f, nil
}
