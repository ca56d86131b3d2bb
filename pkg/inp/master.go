package inp

// ParseMaster parses a card driven master file against catalog c. extra
// carries the row counts of externally sized cards (wq3dwc.inp C40).
//
// Cards are read strictly in declaration order. Comment lines before a card
// become their own Comment record; comment lines between the rows of one
// card stay with that table. A card whose resolved count is zero consumes no
// text and yields an empty table with the catalog columns. Whatever follows
// the last card is kept as a trailing Comment record.
func ParseMaster(name string, c *Catalog, text []byte, extra map[string]int) (*File, error) {
	res, err := NewResolver(c, extra)
	if err != nil {
		return nil, err
	}
	lines := splitLines(text)
	f := &File{Name: name, Format: FormatMaster}
	pos := 0
	for _, card := range c.cards {
		want, err := res.Expect(card.ID)
		if err != nil {
			return nil, err
		}
		if want == 0 {
			t := EmptyTable(card.ID, card.Columns)
			f.Records = append(f.Records, t)
			if err := res.Observe(card.ID, t); err != nil {
				return nil, err
			}
			continue
		}
		var lead []string
		t := EmptyTable(card.ID, card.Columns)
		for t.Len() < want {
			if pos >= len(lines) {
				return nil, structural(name, card.ID, len(lines), want, t.Len(), "unexpected end of input")
			}
			line := lines[pos]
			pos++
			if isCardComment(line) {
				if t.Len() == 0 {
					lead = append(lead, line)
				} else {
					t.addNote(t.Len(), line)
				}
				continue
			}
			tokens := splitFields(line)
			if len(tokens) != len(card.Columns) {
				return nil, structural(name, card.ID, pos, len(card.Columns), len(tokens), "wrong field count")
			}
			t.rows = append(t.rows, parseRow(tokens))
		}
		if len(lead) > 0 {
			f.Records = append(f.Records, &Comment{Lines: lead})
		}
		f.Records = append(f.Records, t)
		if err := res.Observe(card.ID, t); err != nil {
			return nil, err
		}
	}
	if pos < len(lines) {
		f.Records = append(f.Records, &Comment{Lines: lines[pos:]})
	}
	return f, nil
}
