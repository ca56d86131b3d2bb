package inp

// Resolver tracks how many rows each card of a catalog occupies while a file
// is parsed in declaration order. Static counts come from the catalog,
// driven counts from Observe, external counts from the caller.
type Resolver struct {
	cat     *Catalog
	lengths map[string]int
}

// NewResolver seeds a resolver. extra supplies row counts for External cards
// and may be nil when the catalog has none.
func NewResolver(c *Catalog, extra map[string]int) (*Resolver, error) {
	r := &Resolver{cat: c, lengths: make(map[string]int, len(c.cards))}
	for _, card := range c.cards {
		if _, driven := c.driven[card.ID]; !driven && !card.External {
			r.lengths[card.ID] = card.Rows
		}
	}
	for id, n := range extra {
		card, ok := c.Card(id)
		if !ok {
			return nil, catalogMismatch(c.name, id, "extra length for a card the catalog does not declare")
		}
		if !card.External {
			return nil, catalogMismatch(c.name, id, "extra length for a card that is not externally sized")
		}
		if n < 0 {
			return nil, structural(c.name, id, 0, 0, 0, "negative extra length %d", n)
		}
		r.lengths[id] = n
	}
	return r, nil
}

// Expect returns the number of data lines card occupies. It fails when the
// count depends on a driver that has not been observed or on an external
// value the caller did not supply.
func (r *Resolver) Expect(card string) (int, error) {
	if n, ok := r.lengths[card]; ok {
		return n, nil
	}
	c, ok := r.cat.Card(card)
	if !ok {
		return 0, catalogMismatch(r.cat.name, card, "unknown card")
	}
	if c.External {
		return 0, dependency(r.cat.name, card, "row count must be supplied by a dependency file")
	}
	driver, _ := r.cat.DrivenBy(card)
	return 0, dependency(r.cat.name, card, "row count depends on card %s, which has not been parsed", driver)
}

// Observe records the driver values of a freshly parsed card. A driver card
// with no rows leaves its dependents empty.
func (r *Resolver) Observe(card string, t *Table) error {
	c, ok := r.cat.Card(card)
	if !ok {
		return catalogMismatch(r.cat.name, card, "unknown card")
	}
	for _, d := range c.Drivers {
		n := 0
		if t.Len() > 0 {
			j := t.Index(d.Field)
			if j < 0 {
				return catalogMismatch(r.cat.name, card, "driver field %s missing from parsed table", d.Field)
			}
			v := t.rows[0][j]
			i, ok := v.Int()
			if !ok || i < 0 {
				return structural(r.cat.name, card, 0, 0, 0, "driver field %s = %q is not a non-negative integer", d.Field, v.String())
			}
			n = int(i)
		}
		for _, dep := range d.Cards {
			r.lengths[dep] = n
		}
	}
	return nil
}
