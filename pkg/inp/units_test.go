package inp

import (
	"errors"
	"strings"
	"testing"
)

func standardSource(t *testing.T) map[string][]byte {
	t.Helper()
	wq := masterText(WQ3DWC, map[string]int{"C01.IANOX": 0, "C06.IWQTS": 1, "C34_1.IWQPS": 2}, map[string]int{"C40": 1})
	return map[string][]byte{
		EFDCFile:          []byte(efdcFixture),
		FlowFile:          []byte(flowFixture),
		ConcentrationFile: []byte(concentrationFixture),
		WQ3DWCFile:        []byte(wq),
		AdjustFile:        []byte(adjustText(1, 2)),
	}
}

func TestResolveStandardUnits(t *testing.T) {
	src := standardSource(t)
	parsed, err := Resolve(StandardUnits(), src, 0)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(parsed) != 5 {
		t.Fatalf("parsed %d files", len(parsed))
	}
	c40, _ := parsed[WQ3DWCFile].Table("C40")
	if c40.Len() != 1 {
		t.Fatalf("C40 rows = %d, want NQWR = 1", c40.Len())
	}
	for name, f := range parsed {
		if string(f.Bytes()) != string(src[name]) {
			t.Errorf("%s does not round trip", name)
		}
	}
}

func TestResolveOrderIndependent(t *testing.T) {
	units := StandardUnits()
	reversed := make([]Unit, len(units))
	for i, u := range units {
		reversed[len(units)-1-i] = u
	}
	if _, err := Resolve(reversed, standardSource(t), 0); err != nil {
		t.Fatalf("resolve reversed: %v", err)
	}
}

func TestResolveMissingDependency(t *testing.T) {
	src := standardSource(t)
	delete(src, EFDCFile)
	_, err := Resolve(StandardUnits(), src, 0)
	if !errors.Is(err, ErrDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if !strings.Contains(err.Error(), WQ3DWCFile) || !strings.Contains(err.Error(), AdjustFile) {
		t.Fatalf("error does not name the blocked files: %v", err)
	}
}

func TestResolveSkipsAbsentFiles(t *testing.T) {
	parsed, err := Resolve(StandardUnits(), map[string][]byte{FlowFile: []byte(flowFixture)}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed) != 1 {
		t.Fatalf("parsed %d files", len(parsed))
	}
}

func TestResolveCycle(t *testing.T) {
	calls := 0
	parse := func(name string, _ []byte, _ map[string]int) (*File, error) {
		calls++
		return &File{Name: name}, nil
	}
	units := []Unit{
		{Name: "a", Deps: []string{"b"}, Parse: parse},
		{Name: "b", Deps: []string{"a"}, Parse: parse},
		{Name: "c", Parse: parse},
	}
	src := map[string][]byte{"a": nil, "b": nil, "c": nil}
	_, err := Resolve(units, src, 5)
	if !errors.Is(err, ErrDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("parsed %d units, want only c", calls)
	}
}

func TestResolvePassBound(t *testing.T) {
	parse := func(name string, _ []byte, _ map[string]int) (*File, error) { return &File{Name: name}, nil }
	// a chain declared in reverse needs one pass per link
	units := []Unit{
		{Name: "d", Deps: []string{"c"}, Parse: parse},
		{Name: "c", Deps: []string{"b"}, Parse: parse},
		{Name: "b", Deps: []string{"a"}, Parse: parse},
		{Name: "a", Parse: parse},
	}
	src := map[string][]byte{"a": nil, "b": nil, "c": nil, "d": nil}
	if _, err := Resolve(units, src, 2); !errors.Is(err, ErrDependency) {
		t.Fatalf("two passes should not suffice: %v", err)
	}
	if _, err := Resolve(units, src, 4); err != nil {
		t.Fatalf("four passes: %v", err)
	}
}

func TestResolveAdjustNeedsMatchingCounts(t *testing.T) {
	src := standardSource(t)
	src[EFDCFile] = []byte(strings.Replace(efdcFixture, "0 0 0 2 2 0 0 1 0", "0 0 0 2 3 0 0 1 0", 1))
	_, err := Resolve(StandardUnits(), src, 0)
	if !errors.Is(err, ErrStructure) || !strings.Contains(err.Error(), AdjustFile) {
		t.Fatalf("NQSIJ != NQSER accepted: %v", err)
	}
}
