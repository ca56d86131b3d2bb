package inp

import (
	"strconv"
	"strings"
)

// AdjustRowsKey is the extra length key that sizes every conc_adjust.inp
// matrix.
const AdjustRowsKey = "rows"

const adjustCountTable = "num_matrix"

// ParseAdjust parses conc_adjust.inp. The first data line is the number of
// matrices; each matrix is a time tag line followed by extra[AdjustRowsKey]
// rows of the adjustment chemistry columns. Comment lines (blank, '#' or
// 'C') may appear anywhere and are kept in place.
func ParseAdjust(name string, text []byte, extra map[string]int) (*File, error) {
	rows, ok := extra[AdjustRowsKey]
	if !ok {
		return nil, dependency(name, "", "matrix row count must be supplied by efdc.inp")
	}
	if rows < 0 {
		return nil, structural(name, "", 0, 0, 0, "negative matrix row count %d", rows)
	}
	lines := splitLines(text)
	f := &File{Name: name, Format: FormatAdjust}
	var lead []string
	pos := 0
	// next returns the next data line, flushing pending comments first.
	next := func() (string, bool) {
		for pos < len(lines) {
			line := lines[pos]
			pos++
			if isCardComment(line) {
				lead = append(lead, line)
				continue
			}
			if len(lead) > 0 {
				f.Records = append(f.Records, &Comment{Lines: lead})
				lead = nil
			}
			return line, true
		}
		return "", false
	}

	line, ok := next()
	if !ok {
		return nil, structural(name, adjustCountTable, pos, 1, 0, "missing matrix count line")
	}
	countTok := strings.TrimSpace(line)
	if countTok == "" || strings.TrimLeft(countTok, "0123456789") != "" {
		return nil, structural(name, adjustCountTable, pos, 0, 0, "matrix count %q is not a non-negative integer", countTok)
	}
	count, err := strconv.Atoi(countTok)
	if err != nil {
		return nil, structural(name, adjustCountTable, pos, 0, 0, "matrix count %q: %v", countTok, err)
	}
	f.Records = append(f.Records, &Table{
		name:    adjustCountTable,
		columns: []string{adjustCountTable},
		rows:    [][]Value{{ParseValue(countTok)}},
	})

	for m := 0; m < count; m++ {
		line, ok := next()
		if !ok {
			return nil, structural(name, "matrix "+strconv.Itoa(m), pos, count, m, "unexpected end of input before matrix time tag")
		}
		tag := splitFields(line)
		if len(tag) != 1 {
			return nil, structural(name, "matrix "+strconv.Itoa(m), pos, 1, len(tag), "time tag line has the wrong token count")
		}
		time := ParseValue(tag[0])
		if _, numeric := time.Float(); !numeric {
			return nil, structural(name, "matrix "+strconv.Itoa(m), pos, 0, 0, "time tag %q is not numeric", tag[0])
		}
		mat := &AdjustMatrix{time: time, matrix: EmptyTable(matrixName(time), adjustColumns)}
		for mat.matrix.Len() < rows {
			line, ok := next()
			if !ok {
				return nil, structural(name, mat.matrix.name, pos, rows, mat.matrix.Len(), "unexpected end of input")
			}
			tokens := splitFields(line)
			if len(tokens) != len(adjustColumns) {
				return nil, structural(name, mat.matrix.name, pos, len(adjustColumns), len(tokens), "matrix row has the wrong field count")
			}
			mat.matrix.rows = append(mat.matrix.rows, parseRow(tokens))
		}
		f.Records = append(f.Records, mat)
	}
	if _, extraData := next(); extraData {
		return nil, structural(name, "", pos, 0, 0, "unexpected data after %d matrices", count)
	}
	if len(lead) > 0 {
		f.Records = append(f.Records, &Comment{Lines: lead})
	}
	return f, nil
}
