package inp

import (
	"fmt"
	"slices"
	"strings"
)

// Format selects the separator used when a file is rendered.
type Format uint8

const (
	FormatMaster Format = iota
	FormatFlow
	FormatConcentration
	FormatAdjust
	FormatBalance
)

func (f Format) String() string {
	switch f {
	case FormatMaster:
		return "master"
	case FormatFlow:
		return "flow"
	case FormatConcentration:
		return "concentration"
	case FormatAdjust:
		return "adjust"
	case FormatBalance:
		return "balance"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// Separator is the field separator written between data row fields.
func (f Format) Separator() string {
	switch f {
	case FormatFlow, FormatConcentration:
		return "\t"
	default:
		return " "
	}
}

// File is the parse tree of one input or output file: its records in text
// order plus any non-fatal findings.
type File struct {
	Name     string
	Format   Format
	Records  []Record
	Warnings []Warning
}

// Bytes renders the file. Data rows are joined with the format separator,
// comments are written verbatim and the text ends with one newline.
func (f *File) Bytes() []byte {
	sep := f.Format.Separator()
	var b strings.Builder
	for _, r := range f.Records {
		for _, line := range r.render(sep) {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return []byte(b.String())
}

// Clone returns a deep copy.
func (f *File) Clone() *File {
	out := &File{Name: f.Name, Format: f.Format, Records: make([]Record, len(f.Records)), Warnings: slices.Clone(f.Warnings)}
	for i, r := range f.Records {
		out.Records[i] = r.cloneRecord()
	}
	return out
}

// Names lists the tables reachable through Table in file order: card ids for
// master files, series names for series files.
func (f *File) Names() []string {
	var out []string
	for _, r := range f.Records {
		if name, ok := tableName(r); ok {
			out = append(out, name)
		}
	}
	return out
}

// Table returns the table of a card or series by name. The table is live:
// cell edits change the file. For duplicate series names the first wins.
func (f *File) Table(name string) (*Table, bool) {
	i := f.find(name)
	if i < 0 {
		return nil, false
	}
	return tableOf(f.Records[i]), true
}

// Tables maps every name in Names to its live table.
func (f *File) Tables() map[string]*Table {
	out := map[string]*Table{}
	for _, r := range f.Records {
		if name, ok := tableName(r); ok {
			if _, seen := out[name]; !seen {
				out[name] = tableOf(r)
			}
		}
	}
	return out
}

// ReplaceTable swaps the content of a card or series for t. Columns must
// match; the row count may differ, which is how rows are added or removed.
func (f *File) ReplaceTable(name string, t *Table) error {
	i := f.find(name)
	if i < 0 {
		return fmt.Errorf("inp: %s: no table %q: %w", f.Name, name, ErrCatalog)
	}
	switch r := f.Records[i].(type) {
	case *Table:
		if !r.sameColumns(t) {
			return fmt.Errorf("inp: %s: %s: columns %v, want %v: %w", f.Name, name, t.columns, r.columns, ErrCatalog)
		}
		nt := t.Clone()
		nt.name = r.name
		f.Records[i] = nt
		return nil
	case *FlowSeries:
		return r.SetSamples(t)
	case *ConcentrationSeries:
		return r.SetSamples(t)
	}
	return fmt.Errorf("inp: %s: %s is not replaceable", f.Name, name)
}

// FlowSeries returns the flow series in file order.
func (f *File) FlowSeries() []*FlowSeries { return recordsOf[*FlowSeries](f) }

// ConcentrationSeries returns the concentration series in file order.
func (f *File) ConcentrationSeries() []*ConcentrationSeries {
	return recordsOf[*ConcentrationSeries](f)
}

// Matrices returns the adjustment matrices in file order.
func (f *File) Matrices() []*AdjustMatrix { return recordsOf[*AdjustMatrix](f) }

// SelectSeries keeps the flow or concentration series at the given positions
// (0-based, in series order) in the given order. Comments preceding the
// first series stay; comments between series are dropped with them.
func (f *File) SelectSeries(keep []int) error {
	var head, series []Record
	for _, r := range f.Records {
		switch r.Kind() {
		case KindFlowSeries, KindConcentrationSeries:
			series = append(series, r)
		default:
			if len(series) == 0 {
				head = append(head, r)
			}
		}
	}
	out := head
	for _, i := range keep {
		if i < 0 || i >= len(series) {
			return fmt.Errorf("inp: %s: series %d out of range [0,%d)", f.Name, i, len(series))
		}
		out = append(out, series[i])
	}
	f.Records = out
	return nil
}

func (f *File) find(name string) int {
	for i, r := range f.Records {
		if n, ok := tableName(r); ok && n == name {
			return i
		}
	}
	return -1
}

func recordsOf[T Record](f *File) []T {
	var out []T
	for _, r := range f.Records {
		if v, ok := r.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func tableName(r Record) (string, bool) {
	switch r := r.(type) {
	case *Table:
		return r.name, true
	case *FlowSeries:
		return r.Name(), true
	case *ConcentrationSeries:
		return r.Name(), true
	case *AdjustMatrix:
		return r.matrix.name, true
	}
	return "", false
}

func tableOf(r Record) *Table {
	switch r := r.(type) {
	case *Table:
		return r
	case *FlowSeries:
		return r.samples
	case *ConcentrationSeries:
		return r.samples
	case *AdjustMatrix:
		return r.matrix
	}
	return nil
}
