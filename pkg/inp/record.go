package inp

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// RecordKind tags the variants of Record.
type RecordKind uint8

const (
	KindComment RecordKind = iota
	KindTable
	KindFlowSeries
	KindConcentrationSeries
	KindAdjustMatrix
)

func (k RecordKind) String() string {
	switch k {
	case KindComment:
		return "comment"
	case KindTable:
		return "table"
	case KindFlowSeries:
		return "flow series"
	case KindConcentrationSeries:
		return "concentration series"
	case KindAdjustMatrix:
		return "adjust matrix"
	default:
		return "record(" + strconv.Itoa(int(k)) + ")"
	}
}

// Record is one parsed unit of a file. The set of implementations is closed:
// *Comment, *Table, *FlowSeries, *ConcentrationSeries and *AdjustMatrix.
type Record interface {
	Kind() RecordKind
	render(sep string) []string
	cloneRecord() Record
}

// Comment is a run of lines kept verbatim.
type Comment struct {
	Lines []string
}

func (c *Comment) Kind() RecordKind       { return KindComment }
func (c *Comment) render(string) []string { return c.Lines }
func (c *Comment) cloneRecord() Record    { return &Comment{Lines: slices.Clone(c.Lines)} }

var (
	flowColumns          = []string{"time", "flow"}
	concentrationColumns = []string{
		"TIME", "CHC", "CHD", "CHG", "ROC", "LOC", "LDC", "RDC", "ROP", "LOP", "LDP", "RDP", "PO4",
		"RON", "LON", "LDN", "RDN", "NH4", "NO3",
		"usable_si", "unusable_si", "chemistry_demand_oxygen", "dissolved_oxygen",
		"active_metal", "EPEC", "dissolved_se", "grain_se",
	}
	adjustColumns = []string{
		"Bc", "Bd", "Bg", "ROC", "LOC", "LDOC", "RDC", "ROP", "LOP", "LDOP", "RDP", "PO4t", "RPON",
		"LON", "LDON", "RDN", "NH4", "NO3", "SU", "SA", "COD", "DO", "TAM", "FCB", "DSE", "PSE",
	}
)

// FlowColumns are the columns of a flow series sample table.
func FlowColumns() []string { return slices.Clone(flowColumns) }

// ConcentrationColumns are the 27 chemistry columns of wqpsc.inp rows.
func ConcentrationColumns() []string { return slices.Clone(concentrationColumns) }

// AdjustColumns are the 26 chemistry columns of a conc_adjust.inp matrix.
func AdjustColumns() []string { return slices.Clone(adjustColumns) }

const (
	flowSpecTokens          = 8
	concentrationSpecTokens = 7
)

// FlowSeries is one block of qser.inp: an 8-token header, a depth marker and
// (time, flow) samples.
type FlowSeries struct {
	spec    []string
	depth   string
	samples *Table
}

func (s *FlowSeries) Kind() RecordKind { return KindFlowSeries }

// Name is the last header token.
func (s *FlowSeries) Name() string { return s.spec[len(s.spec)-1] }

func (s *FlowSeries) Spec() []string { return slices.Clone(s.spec) }

// ExplicitLength returns the sample count announced by the second header
// token. Zero or a non-integer means no count was announced.
func (s *FlowSeries) ExplicitLength() (int, bool) {
	n, err := strconv.Atoi(s.spec[1])
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// Samples returns the live sample table; cell edits are visible to the file.
func (s *FlowSeries) Samples() *Table { return s.samples }

// SetSamples replaces the samples. An announced sample count follows the new
// length.
func (s *FlowSeries) SetSamples(t *Table) error {
	if !slices.Equal(t.columns, flowColumns) {
		return fmt.Errorf("inp: flow series %s: columns %v, want %v: %w", s.Name(), t.columns, flowColumns, ErrCatalog)
	}
	if _, ok := s.ExplicitLength(); ok {
		s.spec[1] = strconv.Itoa(t.Len())
	}
	s.samples = t.Clone()
	s.samples.name = s.Name()
	return nil
}

func (s *FlowSeries) render(sep string) []string {
	out := make([]string, 0, s.samples.Len()+2)
	out = append(out, strings.Join(s.spec, sep), s.depth)
	return append(out, s.samples.render(sep)...)
}

func (s *FlowSeries) cloneRecord() Record {
	return &FlowSeries{spec: slices.Clone(s.spec), depth: s.depth, samples: s.samples.Clone()}
}

// ConcentrationSeries is one block of wqpsc.inp. The first header token is
// the exact number of sample rows and is kept in step with the samples.
type ConcentrationSeries struct {
	spec    []string
	samples *Table
}

func (s *ConcentrationSeries) Kind() RecordKind { return KindConcentrationSeries }

func (s *ConcentrationSeries) Name() string { return s.spec[len(s.spec)-1] }

func (s *ConcentrationSeries) Spec() []string { return slices.Clone(s.spec) }

func (s *ConcentrationSeries) Samples() *Table { return s.samples }

func (s *ConcentrationSeries) SetSamples(t *Table) error {
	if !slices.Equal(t.columns, concentrationColumns) {
		return fmt.Errorf("inp: concentration series %s: columns do not match the wqpsc schema: %w", s.Name(), ErrCatalog)
	}
	s.spec[0] = strconv.Itoa(t.Len())
	s.samples = t.Clone()
	s.samples.name = s.Name()
	return nil
}

func (s *ConcentrationSeries) render(sep string) []string {
	out := make([]string, 0, s.samples.Len()+1)
	out = append(out, strings.Join(s.spec, sep))
	return append(out, s.samples.render(sep)...)
}

func (s *ConcentrationSeries) cloneRecord() Record {
	return &ConcentrationSeries{spec: slices.Clone(s.spec), samples: s.samples.Clone()}
}

// AdjustMatrix is one time-tagged matrix of conc_adjust.inp. Its row count is
// the number of flow boundaries declared in efdc.inp.
type AdjustMatrix struct {
	time   Value
	matrix *Table
}

func (m *AdjustMatrix) Kind() RecordKind { return KindAdjustMatrix }

func (m *AdjustMatrix) Time() float64 {
	f, _ := m.time.Float()
	return f
}

func (m *AdjustMatrix) Matrix() *Table { return m.matrix }

func (m *AdjustMatrix) SetMatrix(t *Table) error {
	if !slices.Equal(t.columns, adjustColumns) {
		return fmt.Errorf("inp: adjust matrix at %s: columns do not match the adjustment schema: %w", m.time, ErrCatalog)
	}
	m.matrix = t.Clone()
	m.matrix.name = matrixName(m.time)
	return nil
}

func (m *AdjustMatrix) render(sep string) []string {
	out := make([]string, 0, m.matrix.Len()+1)
	out = append(out, m.time.String())
	return append(out, m.matrix.render(sep)...)
}

func (m *AdjustMatrix) cloneRecord() Record {
	return &AdjustMatrix{time: m.time, matrix: m.matrix.Clone()}
}

func matrixName(time Value) string { return "t=" + time.String() }
