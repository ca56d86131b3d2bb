package inp

import (
	"errors"
	"testing"
)

func TestResolverStaticAndDriven(t *testing.T) {
	r, err := NewResolver(EFDC, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n, err := r.Expect("C03"); err != nil || n != 1 {
		t.Fatalf("C03: %d %v", n, err)
	}
	if _, err := r.Expect("C08"); !errors.Is(err, ErrDependency) {
		t.Fatalf("C08 before C07: %v", err)
	}
	c07, err := NewTable("C07", cols("NWSER NASER NTSER NQSIJ NQSER NQCTL NQCTLT NQWR NQWRSR"), [][]Value{
		parseRow(cols("0 0 0 4 4 0 0 3 0")),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Observe("C07", c07); err != nil {
		t.Fatal(err)
	}
	for id, want := range map[string]int{"C08": 4, "C09": 4, "C10": 0, "C11": 3, "C12": 3} {
		if n, err := r.Expect(id); err != nil || n != want {
			t.Errorf("%s: %d %v, want %d", id, n, err, want)
		}
	}
}

func TestResolverExtraLengths(t *testing.T) {
	if _, err := NewResolver(WQ3DWC, map[string]int{"C99": 1}); !errors.Is(err, ErrCatalog) {
		t.Fatalf("unknown card: %v", err)
	}
	if _, err := NewResolver(WQ3DWC, map[string]int{"C02": 1}); !errors.Is(err, ErrCatalog) {
		t.Fatalf("static card: %v", err)
	}
	if _, err := NewResolver(WQ3DWC, map[string]int{"C40": -1}); !errors.Is(err, ErrStructure) {
		t.Fatalf("negative: %v", err)
	}
	r, err := NewResolver(WQ3DWC, map[string]int{"C40": 7})
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := r.Expect("C40"); n != 7 {
		t.Fatalf("C40 = %d, want 7", n)
	}
}

func TestResolverMissingDriverField(t *testing.T) {
	r, _ := NewResolver(EFDC, nil)
	wrong, _ := NewTable("C07", []string{"A", "B"}, [][]Value{{IntValue(1), IntValue(2)}})
	if err := r.Observe("C07", wrong); !errors.Is(err, ErrCatalog) {
		t.Fatalf("expected catalog mismatch, got %v", err)
	}
}

func TestCatalogShape(t *testing.T) {
	if got := len(EFDC.Cards()); got != 16 {
		t.Fatalf("efdc cards = %d, want 16", got)
	}
	if got := len(WQ3DWC.Cards()); got != 41 {
		t.Fatalf("wq3dwc cards = %d, want 41", got)
	}
	c40, _ := WQ3DWC.Card("C40")
	if len(c40.Columns) != 28 || !c40.External {
		t.Fatalf("C40 = %d columns external=%v", len(c40.Columns), c40.External)
	}
	c02, _ := WQ3DWC.Card("C02")
	if len(c02.Columns) != len(adjustColumns) {
		t.Fatalf("wq3dwc C02 has %d columns", len(c02.Columns))
	}
	if d, ok := EFDC.DrivenBy("C12"); !ok || d != "C07" {
		t.Fatalf("C12 driven by %q", d)
	}
	// catalogs hand out copies
	cards := EFDC.Cards()
	cards[0].Columns[0] = "changed"
	if c, _ := EFDC.Card("C02"); c.Columns[0] != "ISRESTI" {
		t.Fatalf("catalog mutated through Cards()")
	}
}

func TestNewCatalogRejectsBackwardDriver(t *testing.T) {
	_, err := newCatalog("bad", []Card{
		{ID: "A", Columns: []string{"x"}},
		{ID: "B", Rows: 1, Columns: []string{"n"}, Drivers: []Driver{{Field: "n", Cards: []string{"A"}}}},
	})
	if err == nil {
		t.Fatal("expected error for a driver targeting an earlier card")
	}
}
