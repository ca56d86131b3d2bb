package inp

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMasterRoundTrip(t *testing.T) {
	f := mustParseEFDC(t, efdcFixture)
	if diff := cmp.Diff(efdcFixture, string(f.Bytes())); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMasterRoundTripNormalizesWhitespace(t *testing.T) {
	messy := strings.Replace(efdcFixture, "8760 24 0.0", "   8760\t\t24    0.0  ", 1)
	messy = strings.Replace(messy, "0 0\n20.0 0\n", "0 0\n  20.0     0\n", 1)
	messy = strings.TrimSuffix(messy, "\n")
	f := mustParseEFDC(t, messy)
	if diff := cmp.Diff(efdcFixture, string(f.Bytes())); diff != "" {
		t.Fatalf("normalized round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMasterZeroDriverSynthesizesEmptyTable(t *testing.T) {
	f := mustParseEFDC(t, efdcFixture)
	for _, id := range []string{"C10", "C14"} {
		tab, ok := f.Table(id)
		if !ok {
			t.Fatalf("%s missing", id)
		}
		if tab.Len() != 0 {
			t.Fatalf("%s has %d rows, want 0", id, tab.Len())
		}
		card, _ := EFDC.Card(id)
		if diff := cmp.Diff(card.Columns, tab.Columns()); diff != "" {
			t.Fatalf("%s columns (-want +got):\n%s", id, diff)
		}
	}
	if got := f.Names(); len(got) != len(EFDC.Cards()) {
		t.Fatalf("names = %v, want one per card", got)
	}
}

func TestMasterDriverCountsRows(t *testing.T) {
	f := mustParseEFDC(t, efdcFixture)
	want := map[string]int{"C08": 2, "C09": 2, "C11": 1, "C12": 1, "C16": 1, "C17": 1}
	for id, n := range want {
		tab, _ := f.Table(id)
		if tab.Len() != n {
			t.Errorf("%s rows = %d, want %d", id, tab.Len(), n)
		}
	}
	c08, _ := f.Table("C08")
	q, err := c08.Float(1, "Qfactor")
	if err != nil || q != 0.5 {
		t.Fatalf("C08[1].Qfactor = %v, %v", q, err)
	}
	c16, _ := f.Table("C16")
	name, _ := c16.Get(0, "CLTS")
	if name.String() != "'Station A'" {
		t.Fatalf("quoted station name = %q", name.String())
	}
}

func TestMasterNonZeroDriverEnablesCards(t *testing.T) {
	text := strings.Replace(efdcFixture, "0 0 0 2 2 0 0 1 0", "0 0 0 2 2 1 0 1 0", 1)
	text = strings.Replace(text, "C11 withdrawal", "C10 hydraulic structures\n1 1 2 2 0 1 0 0 0 0 0 0 0\nC11 withdrawal", 1)
	f := mustParseEFDC(t, text)
	c10, _ := f.Table("C10")
	if c10.Len() != 1 {
		t.Fatalf("C10 rows = %d, want 1", c10.Len())
	}
	if got := string(f.Bytes()); got != text {
		t.Fatalf("round trip mismatch:\n%s", got)
	}
}

func TestMasterUnexpectedEOF(t *testing.T) {
	cut := efdcFixture[:strings.Index(efdcFixture, "C09")] + "C09 flow boundary constants\n20.0 0\n"
	_, err := ParseMaster(EFDCFile, EFDC, []byte(cut), nil)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if !errors.Is(err, ErrStructure) || pe.Card != "C09" || pe.Expected != 2 || pe.Actual != 1 {
		t.Fatalf("unexpected error %+v", pe)
	}
	if !strings.Contains(err.Error(), "efdc.inp") || !strings.Contains(err.Error(), "C09") {
		t.Fatalf("error does not name file and card: %v", err)
	}
}

func TestMasterWrongFieldCount(t *testing.T) {
	text := strings.Replace(efdcFixture, "8760 24 0.0", "8760 24", 1)
	_, err := ParseMaster(EFDCFile, EFDC, []byte(text), nil)
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Card != "C03" || pe.Expected != 3 || pe.Actual != 2 || pe.Line != 5 {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestMasterNonIntegerDriver(t *testing.T) {
	text := strings.Replace(efdcFixture, "0 0 0 2 2 0 0 1 0", "0 0 0 2.5 2 0 0 1 0", 1)
	_, err := ParseMaster(EFDCFile, EFDC, []byte(text), nil)
	if !errors.Is(err, ErrStructure) {
		t.Fatalf("expected structural error, got %v", err)
	}
}

func TestMasterInteriorCommentsStayWithTable(t *testing.T) {
	text := strings.Replace(efdcFixture, "3 4 0 0 1 0 0 1.0\n", "3 4 0 0 1 0 0 1.0\n# second boundary\n", 1)
	f := mustParseEFDC(t, text)
	c08, _ := f.Table("C08")
	if c08.Len() != 2 {
		t.Fatalf("C08 rows = %d", c08.Len())
	}
	if diff := cmp.Diff([]int{1}, c08.noteRows()); diff != "" {
		t.Fatalf("note rows (-want +got):\n%s", diff)
	}
	if got := string(f.Bytes()); got != text {
		t.Fatalf("interior comment lost:\n%s", got)
	}
	sel, err := c08.Select([]int{1})
	if err != nil {
		t.Fatal(err)
	}
	if len(sel.noteRows()) != 0 {
		t.Fatalf("Select kept interior comments")
	}
}

func TestMasterTrailingTextKept(t *testing.T) {
	f := mustParseEFDC(t, efdcFixture)
	last, ok := f.Records[len(f.Records)-1].(*Comment)
	if !ok {
		t.Fatalf("last record is %v, want comment", f.Records[len(f.Records)-1].Kind())
	}
	if diff := cmp.Diff([]string{"C18 passes through", "1 2 3"}, last.Lines); diff != "" {
		t.Fatalf("trailing lines (-want +got):\n%s", diff)
	}
}

func TestWQ3DWCRoundTripWithExternalCard(t *testing.T) {
	drivers := map[string]int{"C01.IANOX": 2, "C06.IWQTS": 0, "C34_1.IWQPS": 3}
	text := masterText(WQ3DWC, drivers, map[string]int{"C40": 2})
	f, err := ParseMaster(WQ3DWCFile, WQ3DWC, []byte(text), map[string]int{"C40": 2})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for id, n := range map[string]int{"C07": 0, "C34_2": 3, "C37": 10, "C39": 2, "C40": 2} {
		tab, _ := f.Table(id)
		if tab.Len() != n {
			t.Errorf("%s rows = %d, want %d", id, tab.Len(), n)
		}
	}
	if got := string(f.Bytes()); got != text {
		t.Fatalf("round trip mismatch")
	}
}

func TestWQ3DWCNeedsExternalLength(t *testing.T) {
	text := masterText(WQ3DWC, map[string]int{"C01.IANOX": 1, "C06.IWQTS": 1, "C34_1.IWQPS": 1}, map[string]int{"C40": 1})
	_, err := ParseMaster(WQ3DWCFile, WQ3DWC, []byte(text), nil)
	var pe *ParseError
	if !errors.As(err, &pe) || !errors.Is(err, ErrDependency) || pe.Card != "C40" {
		t.Fatalf("expected dependency error on C40, got %v", err)
	}
}
