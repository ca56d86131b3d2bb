package inp

import "strconv"

// ParseConcentration parses a point-source concentration file (wqpsc.inp).
// Each block opens with a 7-token header whose first token is the exact
// number of chemistry rows that follow and whose last token names the
// series. Blank and '#' lines between blocks are kept as comments.
func ParseConcentration(name string, text []byte) (*File, error) {
	lines := splitLines(text)
	f := &File{Name: name, Format: FormatConcentration}
	var lead []string
	pos := 0
	for pos < len(lines) {
		if isHashComment(lines[pos]) {
			lead = append(lead, lines[pos])
			pos++
			continue
		}
		if len(lead) > 0 {
			f.Records = append(f.Records, &Comment{Lines: lead})
			lead = nil
		}
		spec := splitFields(lines[pos])
		if len(spec) != concentrationSpecTokens {
			return nil, structural(name, "", pos+1, concentrationSpecTokens, len(spec), "concentration series header has the wrong token count")
		}
		series := &ConcentrationSeries{spec: spec, samples: EmptyTable(spec[len(spec)-1], concentrationColumns)}
		n, err := strconv.Atoi(spec[0])
		if err != nil || n < 0 {
			return nil, structural(name, series.Name(), pos+1, 0, 0, "row count %q is not a non-negative integer", spec[0])
		}
		pos++
		for series.samples.Len() < n {
			if pos >= len(lines) {
				return nil, structural(name, series.Name(), pos, n, series.samples.Len(), "unexpected end of input")
			}
			tokens := splitFields(lines[pos])
			if len(tokens) != len(concentrationColumns) {
				return nil, structural(name, series.Name(), pos+1, len(concentrationColumns), len(tokens), "concentration row has the wrong field count")
			}
			series.samples.rows = append(series.samples.rows, parseRow(tokens))
			pos++
		}
		f.Records = append(f.Records, series)
	}
	if len(lead) > 0 {
		f.Records = append(f.Records, &Comment{Lines: lead})
	}
	return f, nil
}
