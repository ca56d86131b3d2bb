package inp

// Densify returns a copy of t whose 1-based foreign key column is
// re-enumerated after the referenced table kept only the rows in keep
// (0-based, in their new order): a key pointing at keep[j] becomes j+1.
// A key that points at a dropped row is an ErrStructure error.
func Densify(t *Table, column string, keep []int) (*Table, error) {
	j := t.Index(column)
	if j < 0 {
		return nil, catalogMismatch(t.name, column, "no foreign key column")
	}
	remap := make(map[int64]int64, len(keep))
	for n, old := range keep {
		remap[int64(old)+1] = int64(n) + 1
	}
	out := t.Clone()
	for i, row := range out.rows {
		key, ok := row[j].Int()
		if !ok {
			return nil, structural(t.name, column, 0, 0, 0, "%s[%d] = %q is not an integer key", column, i, row[j].String())
		}
		nk, ok := remap[key]
		if !ok {
			return nil, structural(t.name, column, 0, 0, 0, "%s[%d] = %d refers to a dropped row", column, i, key)
		}
		row[j] = IntValue(nk)
	}
	return out, nil
}
