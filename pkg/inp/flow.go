package inp

import "fmt"

// ParseFlow parses a flow series file (qser.inp): a leading block of '#'
// comment lines followed by series blocks. Each block is an 8-token header
// whose last token names the series, a depth line that must read 1, and
// two-field (time, flow) samples running to the next header.
//
// Blank and '#' lines inside a block are kept with the samples they precede;
// those ending a block are kept as a comment between blocks. A non-zero
// second header token announces the sample count. A mismatch is reported as
// a Warning rather than an error.
func ParseFlow(name string, text []byte) (*File, error) {
	lines := splitLines(text)
	f := &File{Name: name, Format: FormatFlow}
	pos := 0
	for pos < len(lines) && isHashComment(lines[pos]) {
		pos++
	}
	if pos > 0 {
		f.Records = append(f.Records, &Comment{Lines: lines[:pos]})
	}
	for pos < len(lines) {
		if trailingBlank(lines[pos:]) {
			f.Records = append(f.Records, &Comment{Lines: lines[pos:]})
			break
		}
		spec := splitFields(lines[pos])
		if len(spec) != flowSpecTokens {
			return nil, structural(name, "", pos+1, flowSpecTokens, len(spec), "flow series header has the wrong token count")
		}
		series := &FlowSeries{spec: spec, samples: EmptyTable(spec[len(spec)-1], flowColumns)}
		pos++
		if pos >= len(lines) {
			return nil, structural(name, series.Name(), pos, 1, 0, "unexpected end of input before the depth marker")
		}
		depth := splitFields(lines[pos])
		if len(depth) != 1 {
			return nil, structural(name, series.Name(), pos+1, 1, len(depth), "depth marker line has the wrong token count")
		}
		if d, ok := ParseValue(depth[0]).Int(); !ok || d != 1 {
			return nil, structural(name, series.Name(), pos+1, 0, 0, "depth marker must be 1, got %s; only single-depth series are supported", depth[0])
		}
		series.depth = depth[0]
		pos++
		var pending []string
		for pos < len(lines) {
			if trailingBlank(lines[pos:]) {
				break
			}
			if isHashComment(lines[pos]) {
				pending = append(pending, lines[pos])
				pos++
				continue
			}
			tokens := splitFields(lines[pos])
			if len(tokens) == flowSpecTokens {
				break
			}
			if len(tokens) != len(flowColumns) {
				return nil, structural(name, series.Name(), pos+1, len(flowColumns), len(tokens), "flow sample has the wrong field count")
			}
			row := parseRow(tokens)
			for _, v := range row {
				if _, ok := v.Float(); !ok {
					return nil, structural(name, series.Name(), pos+1, 0, 0, "flow sample %q is not numeric", v.String())
				}
			}
			for _, note := range pending {
				series.samples.addNote(series.samples.Len(), note)
			}
			pending = nil
			series.samples.rows = append(series.samples.rows, row)
			pos++
		}
		if n, ok := series.ExplicitLength(); ok && n != series.samples.Len() {
			f.Warnings = append(f.Warnings, Warning{
				File: name,
				Card: series.Name(),
				Msg:  fmt.Sprintf("header announces %d samples, found %d", n, series.samples.Len()),
			})
		}
		f.Records = append(f.Records, series)
		if len(pending) > 0 {
			f.Records = append(f.Records, &Comment{Lines: pending})
		}
	}
	return f, nil
}

func trailingBlank(lines []string) bool {
	for _, l := range lines {
		if !isBlankLine(l) {
			return false
		}
	}
	return true
}
