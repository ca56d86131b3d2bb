package inp

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFlowSingleSeries(t *testing.T) {
	text := "A B C D E F G myflow\n1\n0.0\t1.5\n1.0\t2.5\n"
	f, err := ParseFlow(FlowFile, []byte(text))
	if err != nil {
		t.Fatal(err)
	}
	series := f.FlowSeries()
	if len(series) != 1 || series[0].Name() != "myflow" {
		t.Fatalf("series = %v", f.Names())
	}
	var got [][2]float64
	for _, row := range series[0].Samples().Rows() {
		tm, _ := row[0].Float()
		q, _ := row[1].Float()
		got = append(got, [2]float64{tm, q})
	}
	if diff := cmp.Diff([][2]float64{{0, 1.5}, {1, 2.5}}, got); diff != "" {
		t.Fatalf("samples (-want +got):\n%s", diff)
	}
	want := "A\tB\tC\tD\tE\tF\tG\tmyflow\n1\n0.0\t1.5\n1.0\t2.5\n"
	if diff := cmp.Diff(want, string(f.Bytes())); diff != "" {
		t.Fatalf("render (-want +got):\n%s", diff)
	}
}

func TestFlowRoundTrip(t *testing.T) {
	f, err := ParseFlow(FlowFile, []byte(flowFixture))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"north", "south"}, f.Names()); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
	if len(f.Warnings) != 0 {
		t.Fatalf("unexpected warnings %v", f.Warnings)
	}
	if diff := cmp.Diff(flowFixture, string(f.Bytes())); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
}

func TestFlowDepthMarkerMustBeOne(t *testing.T) {
	text := strings.Replace(flowFixture, "south\n1\n", "south\n2\n", 1)
	_, err := ParseFlow(FlowFile, []byte(text))
	var pe *ParseError
	if !errors.As(err, &pe) || !errors.Is(err, ErrStructure) {
		t.Fatalf("expected structural error, got %v", err)
	}
	if pe.Card != "south" || !strings.Contains(err.Error(), "south") {
		t.Fatalf("error does not name the series: %v", err)
	}
}

func TestFlowHeaderTokenCount(t *testing.T) {
	_, err := ParseFlow(FlowFile, []byte("0 0 86400 0 1 0 north\n1\n0 1\n"))
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Expected != 8 || pe.Actual != 7 {
		t.Fatalf("expected token count error, got %v", err)
	}
}

func TestFlowEOFBeforeDepth(t *testing.T) {
	_, err := ParseFlow(FlowFile, []byte("# c\n0 0 86400 0 1 0 0 north\n"))
	if !errors.Is(err, ErrStructure) {
		t.Fatalf("expected structural error, got %v", err)
	}
}

func TestFlowExplicitCountMismatchWarns(t *testing.T) {
	text := strings.Replace(flowFixture, "0\t3\t86400", "0\t5\t86400", 1)
	f, err := ParseFlow(FlowFile, []byte(text))
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Warnings) != 1 || f.Warnings[0].Card != "north" {
		t.Fatalf("warnings = %v", f.Warnings)
	}
}

func TestFlowTrailingBlankLines(t *testing.T) {
	text := flowFixture + "\n\n"
	f, err := ParseFlow(FlowFile, []byte(text))
	if err != nil {
		t.Fatal(err)
	}
	if got := string(f.Bytes()); got != text {
		t.Fatalf("trailing blank lines not preserved: %q", got)
	}
}

func TestFlowInteriorComments(t *testing.T) {
	text := strings.Replace(flowFixture, "1.0\t2.5\n", "\n# peak\n1.0\t2.5\n", 1)
	text = strings.Replace(text, "3.5\n", "3.5\n\n", 1)
	f, err := ParseFlow(FlowFile, []byte(text))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"north", "south"}, f.Names()); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
	north := f.FlowSeries()[0].Samples()
	if north.Len() != 3 {
		t.Fatalf("north has %d samples, want 3", north.Len())
	}
	if diff := cmp.Diff([]int{1}, north.noteRows()); diff != "" {
		t.Fatalf("note rows (-want +got):\n%s", diff)
	}
	if len(f.Warnings) != 0 {
		t.Fatalf("unexpected warnings %v", f.Warnings)
	}
	if diff := cmp.Diff(text, string(f.Bytes())); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
}

func TestFlowRejectsNonNumericSample(t *testing.T) {
	text := strings.Replace(flowFixture, "1.0\t2.5\n", "1.0\tdry\n", 1)
	_, err := ParseFlow(FlowFile, []byte(text))
	var pe *ParseError
	if !errors.As(err, &pe) || !errors.Is(err, ErrStructure) {
		t.Fatalf("expected structural error, got %v", err)
	}
	if pe.Card != "north" || pe.Line != 6 {
		t.Fatalf("error location = %s line %d", pe.Card, pe.Line)
	}
}

func TestFlowSetSamplesFollowsAnnouncedCount(t *testing.T) {
	f, _ := ParseFlow(FlowFile, []byte(flowFixture))
	north := f.FlowSeries()[0]
	shorter, err := north.Samples().Select([]int{0})
	if err != nil {
		t.Fatal(err)
	}
	if err := north.SetSamples(shorter); err != nil {
		t.Fatal(err)
	}
	if n, _ := north.ExplicitLength(); n != 1 {
		t.Fatalf("announced count = %d, want 1", n)
	}
	again, err := ParseFlow(FlowFile, f.Bytes())
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if len(again.Warnings) != 0 {
		t.Fatalf("reparse warnings: %v", again.Warnings)
	}
}
