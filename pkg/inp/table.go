package inp

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Table is a uniform block of rows under a fixed list of column names. Its
// row count is fixed at construction; cells may be edited in place but rows
// are only added or removed by building a new table with Select and handing
// it to File.ReplaceTable.
type Table struct {
	name    string
	columns []string
	rows    [][]Value
	// comment lines that appeared between rows i-1 and i in the source text
	notes map[int][]string
}

// NewTable copies rows into a table. Every row must carry exactly one value
// per column.
func NewTable(name string, columns []string, rows [][]Value) (*Table, error) {
	t := &Table{name: name, columns: slices.Clone(columns), rows: make([][]Value, 0, len(rows))}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("inp: table %s: row %d has %d fields, want %d: %w", name, i, len(row), len(columns), ErrStructure)
		}
		t.rows = append(t.rows, slices.Clone(row))
	}
	return t, nil
}

// EmptyTable returns a zero-row table that still carries its columns.
func EmptyTable(name string, columns []string) *Table {
	return &Table{name: name, columns: slices.Clone(columns)}
}

func (t *Table) Kind() RecordKind { return KindTable }

// Name is the card id or series name the table belongs to.
func (t *Table) Name() string { return t.name }

func (t *Table) Columns() []string { return slices.Clone(t.columns) }

func (t *Table) Len() int { return len(t.rows) }

// Index returns the position of column, or -1.
func (t *Table) Index(column string) int { return slices.Index(t.columns, column) }

func (t *Table) Row(i int) []Value {
	if i < 0 || i >= len(t.rows) {
		return nil
	}
	return slices.Clone(t.rows[i])
}

func (t *Table) Rows() [][]Value {
	out := make([][]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = slices.Clone(r)
	}
	return out
}

func (t *Table) cell(row int, column string) (int, error) {
	if row < 0 || row >= len(t.rows) {
		return 0, fmt.Errorf("inp: table %s: row %d out of range [0,%d)", t.name, row, len(t.rows))
	}
	j := t.Index(column)
	if j < 0 {
		return 0, fmt.Errorf("inp: table %s: no column %q: %w", t.name, column, ErrCatalog)
	}
	return j, nil
}

func (t *Table) Get(row int, column string) (Value, error) {
	j, err := t.cell(row, column)
	if err != nil {
		return Value{}, err
	}
	return t.rows[row][j], nil
}

func (t *Table) Set(row int, column string, v Value) error {
	j, err := t.cell(row, column)
	if err != nil {
		return err
	}
	t.rows[row][j] = v
	return nil
}

// Int reads an integer cell.
func (t *Table) Int(row int, column string) (int64, error) {
	v, err := t.Get(row, column)
	if err != nil {
		return 0, err
	}
	i, ok := v.Int()
	if !ok {
		return 0, fmt.Errorf("inp: table %s: %s[%d] = %q is not an integer: %w", t.name, column, row, v.String(), ErrStructure)
	}
	return i, nil
}

// Float reads a numeric cell.
func (t *Table) Float(row int, column string) (float64, error) {
	v, err := t.Get(row, column)
	if err != nil {
		return 0, err
	}
	f, ok := v.Float()
	if !ok {
		return 0, fmt.Errorf("inp: table %s: %s[%d] = %q is not numeric: %w", t.name, column, row, v.String(), ErrStructure)
	}
	return f, nil
}

// Column returns a copy of one column's values.
func (t *Table) Column(column string) ([]Value, error) {
	j := t.Index(column)
	if j < 0 {
		return nil, fmt.Errorf("inp: table %s: no column %q: %w", t.name, column, ErrCatalog)
	}
	out := make([]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[j]
	}
	return out, nil
}

// Select returns a new table holding the given rows in the given order.
// Interior comments are not carried over since their anchors no longer exist.
func (t *Table) Select(rows []int) (*Table, error) {
	out := &Table{name: t.name, columns: slices.Clone(t.columns), rows: make([][]Value, 0, len(rows))}
	for _, i := range rows {
		if i < 0 || i >= len(t.rows) {
			return nil, fmt.Errorf("inp: table %s: row %d out of range [0,%d)", t.name, i, len(t.rows))
		}
		out.rows = append(out.rows, slices.Clone(t.rows[i]))
	}
	return out, nil
}

func (t *Table) Clone() *Table {
	out := &Table{name: t.name, columns: slices.Clone(t.columns), rows: t.Rows()}
	if len(t.notes) > 0 {
		out.notes = make(map[int][]string, len(t.notes))
		for k, v := range t.notes {
			out.notes[k] = slices.Clone(v)
		}
	}
	return out
}

func (t *Table) addNote(before int, line string) {
	if t.notes == nil {
		t.notes = map[int][]string{}
	}
	t.notes[before] = append(t.notes[before], line)
}

func (t *Table) sameColumns(o *Table) bool { return slices.Equal(t.columns, o.columns) }

func (t *Table) render(sep string) []string {
	out := make([]string, 0, len(t.rows)+len(t.notes))
	buf := make([]string, len(t.columns))
	for i, row := range t.rows {
		out = append(out, t.notes[i]...)
		for j, v := range row {
			buf[j] = v.String()
		}
		out = append(out, strings.Join(buf[:len(row)], sep))
	}
	return out
}

func (t *Table) cloneRecord() Record { return t.Clone() }

// noteRows lists the row positions that carry interior comments, for tests
// and diagnostics.
func (t *Table) noteRows() []int { return slices.Sorted(maps.Keys(t.notes)) }
