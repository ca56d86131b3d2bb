package workspace

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"efdcrun/pkg/inp"
)

// ErrUnknownMode is returned for a flow selection mode other than hard,
// flow or qfactor.
var ErrUnknownMode = errors.New("workspace: unknown selection mode")

// Mode is a flow boundary selection strategy.
type Mode string

const (
	// ModeHard removes unselected boundaries from every file and
	// re-enumerates the foreign keys that point at them.
	ModeHard Mode = "hard"
	// ModeFlow keeps every boundary but zeroes the flow samples of the
	// unselected ones.
	ModeFlow Mode = "flow"
	// ModeQfactor keeps every boundary but zeroes the C08 Qfactor of the
	// unselected ones.
	ModeQfactor Mode = "qfactor"
	// ModeSoft edited efdc.inp alone and left stale series behind. It is
	// recognized only to be rejected.
	ModeSoft Mode = "soft"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeHard, ModeFlow, ModeQfactor:
		return m, nil
	case ModeSoft:
		return "", fmt.Errorf("%w: soft selection leaves stale series behind, use hard, flow or qfactor", ErrUnknownMode)
	default:
		return "", fmt.Errorf("%w: %q, valid modes are hard, flow and qfactor", ErrUnknownMode, s)
	}
}

// SimulationLength is efdc.inp C03 NTC, the number of reference periods.
func (w *Workspace) SimulationLength() (int64, error) {
	c03, err := w.table(inp.EFDCFile, "C03")
	if err != nil {
		return 0, err
	}
	return c03.Int(0, "NTC")
}

func (w *Workspace) SetSimulationLength(n int64) error {
	c03, err := w.table(inp.EFDCFile, "C03")
	if err != nil {
		return err
	}
	return c03.Set(0, "NTC", inp.IntValue(n))
}

// BeginTime is efdc.inp C03 TBEGIN in days.
func (w *Workspace) BeginTime() (float64, error) {
	c03, err := w.table(inp.EFDCFile, "C03")
	if err != nil {
		return 0, err
	}
	return c03.Float(0, "TBEGIN")
}

func (w *Workspace) SetBeginTime(t float64) error {
	c03, err := w.table(inp.EFDCFile, "C03")
	if err != nil {
		return err
	}
	return c03.Set(0, "TBEGIN", inp.FloatValue(t))
}

// EnableRestart sets efdc.inp C02 ISRESTI so the model starts from the
// restart files in its directory.
func (w *Workspace) EnableRestart() error {
	c02, err := w.table(inp.EFDCFile, "C02")
	if err != nil {
		return err
	}
	return c02.Set(0, "ISRESTI", inp.IntValue(1))
}

func (w *Workspace) Restarting() (bool, error) {
	c02, err := w.table(inp.EFDCFile, "C02")
	if err != nil {
		return false, err
	}
	v, err := c02.Int(0, "ISRESTI")
	return v == 1, err
}

// CountFlow is the number of flow boundaries, the rows of efdc.inp C08.
func (w *Workspace) CountFlow() (int, error) {
	c08, err := w.table(inp.EFDCFile, "C08")
	if err != nil {
		return 0, err
	}
	return c08.Len(), nil
}

// flowSeriesIndex maps each C08 row to the 0-based qser.inp series its
// NQSERQ key points at.
func (w *Workspace) flowSeriesIndex() ([]int, []*inp.FlowSeries, error) {
	c08, err := w.table(inp.EFDCFile, "C08")
	if err != nil {
		return nil, nil, err
	}
	qser, err := w.mustFile(inp.FlowFile)
	if err != nil {
		return nil, nil, err
	}
	series := qser.FlowSeries()
	idx := make([]int, c08.Len())
	for i := range idx {
		k, err := c08.Int(i, "NQSERQ")
		if err != nil {
			return nil, nil, err
		}
		if k < 1 || int(k) > len(series) {
			return nil, nil, fmt.Errorf("%w: C08 row %d NQSERQ = %d, qser.inp has %d series", ErrInconsistent, i, k, len(series))
		}
		idx[i] = int(k) - 1
	}
	return idx, series, nil
}

// FlowNames names each flow boundary by the qser.inp series it uses.
func (w *Workspace) FlowNames() ([]string, error) {
	idx, series, err := w.flowSeriesIndex()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(idx))
	for i, k := range idx {
		names[i] = series[k].Name()
	}
	return names, nil
}

// SelectFlow keeps the flow boundaries at positions keep (0-based C08 rows)
// using the given mode.
func (w *Workspace) SelectFlow(keep []int, mode Mode) error {
	n, err := w.CountFlow()
	if err != nil {
		return err
	}
	for _, k := range keep {
		if k < 0 || k >= n {
			return fmt.Errorf("workspace: flow %d out of range [0,%d)", k, n)
		}
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}
	w.logger.Debug("select flow", zap.Ints("keep", keep), zap.String("mode", string(mode)))
	switch mode {
	case ModeFlow:
		return w.zeroFlow(complement(keep, n))
	case ModeQfactor:
		return w.zeroQfactor(complement(keep, n))
	default:
		return w.selectHard(keep)
	}
}

// DropFlow is SelectFlow with the complement of drop.
func (w *Workspace) DropFlow(drop []int, mode Mode) error {
	n, err := w.CountFlow()
	if err != nil {
		return err
	}
	return w.SelectFlow(complement(drop, n), mode)
}

func complement(sel []int, n int) []int {
	var out []int
	for i := range n {
		if !slices.Contains(sel, i) {
			out = append(out, i)
		}
	}
	return out
}

func (w *Workspace) zeroFlow(drop []int) error {
	idx, series, err := w.flowSeriesIndex()
	if err != nil {
		return err
	}
	for _, d := range drop {
		samples := series[idx[d]].Samples()
		for r := range samples.Len() {
			if err := samples.Set(r, "flow", inp.FloatValue(0)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Workspace) zeroQfactor(drop []int) error {
	c08, err := w.table(inp.EFDCFile, "C08")
	if err != nil {
		return err
	}
	for _, d := range drop {
		if err := c08.Set(d, "Qfactor", inp.FloatValue(0)); err != nil {
			return err
		}
	}
	return nil
}

// selectHard drops unselected boundaries from efdc.inp C07/C08/C09,
// qser.inp, wqpsc.inp, wq3dwc.inp C34 and every conc_adjust.inp matrix so
// that all of them re-parse with consistent counts. Boundaries past the end
// of the point source tables (outflows) have no concentration rows.
func (w *Workspace) selectHard(keep []int) error {
	efdc, err := w.mustFile(inp.EFDCFile)
	if err != nil {
		return err
	}
	qser, err := w.mustFile(inp.FlowFile)
	if err != nil {
		return err
	}
	c07, err := w.table(inp.EFDCFile, "C07")
	if err != nil {
		return err
	}
	nqsij, err := c07.Int(0, "NQSIJ")
	if err != nil {
		return err
	}
	nqser, err := c07.Int(0, "NQSER")
	if err != nil {
		return err
	}
	if nqsij != nqser {
		return fmt.Errorf("%w: efdc.inp C07 NQSIJ = %d but NQSER = %d", ErrInconsistent, nqsij, nqser)
	}

	c08, _ := efdc.Table("C08")
	if n := len(qser.FlowSeries()); n < c08.Len() {
		return fmt.Errorf("%w: efdc.inp C08 has %d flow boundaries, qser.inp has %d series", ErrInconsistent, c08.Len(), n)
	}
	c09, _ := efdc.Table("C09")
	c08sel, err := c08.Select(keep)
	if err != nil {
		return err
	}
	if c08sel, err = inp.Densify(c08sel, "NQSERQ", keep); err != nil {
		return fmt.Errorf("workspace: C08 NQSERQ: %w", err)
	}
	c09sel, err := c09.Select(keep)
	if err != nil {
		return err
	}

	var adjusted []*inp.Table
	adjust, hasAdjust := w.files[inp.AdjustFile]
	if hasAdjust {
		for _, m := range adjust.Matrices() {
			sel, err := m.Matrix().Select(keep)
			if err != nil {
				return fmt.Errorf("workspace: conc_adjust.inp matrix at %g: %w", m.Time(), err)
			}
			adjusted = append(adjusted, sel)
		}
	}

	// all selections are built before anything is replaced so a failure
	// leaves the workspace untouched
	var wqSel *inp.Table
	var wqKeep []int
	wq, hasWQ := w.files[inp.WQ3DWCFile]
	if hasWQ {
		c34_1, _ := wq.Table("C34_1")
		c34_2, _ := wq.Table("C34_2")
		iwqps, err := c34_1.Int(0, "IWQPS")
		if err != nil {
			return err
		}
		npstmsr, err := c34_1.Int(0, "NPSTMSR")
		if err != nil {
			return err
		}
		if iwqps != npstmsr {
			return fmt.Errorf("%w: wq3dwc.inp C34_1 IWQPS = %d but NPSTMSR = %d", ErrInconsistent, iwqps, npstmsr)
		}
		for _, k := range keep {
			if k < c34_2.Len() {
				wqKeep = append(wqKeep, k)
			}
		}
		if wqSel, err = c34_2.Select(wqKeep); err != nil {
			return err
		}
		if wqSel, err = inp.Densify(wqSel, "N", wqKeep); err != nil {
			return fmt.Errorf("workspace: C34_2 N: %w", err)
		}
	}

	if err := c07.Set(0, "NQSIJ", inp.IntValue(int64(len(keep)))); err != nil {
		return err
	}
	if err := c07.Set(0, "NQSER", inp.IntValue(int64(len(keep)))); err != nil {
		return err
	}
	if err := efdc.ReplaceTable("C08", c08sel); err != nil {
		return err
	}
	if err := efdc.ReplaceTable("C09", c09sel); err != nil {
		return err
	}
	if err := qser.SelectSeries(keep); err != nil {
		return err
	}
	if wqpsc, ok := w.files[inp.ConcentrationFile]; ok {
		n := len(wqpsc.ConcentrationSeries())
		var sel []int
		for _, k := range keep {
			if k < n {
				sel = append(sel, k)
			}
		}
		if err := wqpsc.SelectSeries(sel); err != nil {
			return err
		}
	}
	if hasWQ {
		c34_1, _ := wq.Table("C34_1")
		n := inp.IntValue(int64(len(wqKeep)))
		if err := c34_1.Set(0, "IWQPS", n); err != nil {
			return err
		}
		if err := c34_1.Set(0, "NPSTMSR", n); err != nil {
			return err
		}
		if err := wq.ReplaceTable("C34_2", wqSel); err != nil {
			return err
		}
	}
	if hasAdjust {
		for i, m := range adjust.Matrices() {
			if err := m.SetMatrix(adjusted[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetFlowRange assigns value to the flow samples of series name over the
// sample pairs [begin, end), that is rows [2*begin, 2*end). A negative end
// means half the series length.
func (w *Workspace) SetFlowRange(name string, value float64, begin, end int) error {
	samples, lo, hi, err := flowRange(w, name, begin, end)
	if err != nil {
		return err
	}
	v := inp.FloatValue(value)
	for r := lo; r < hi; r++ {
		if err := samples.Set(r, "flow", v); err != nil {
			return err
		}
	}
	return nil
}

// CopyFlowRange copies the flow samples of series name over the same range
// from another workspace.
func (w *Workspace) CopyFlowRange(name string, from *Workspace, begin, end int) error {
	samples, lo, hi, err := flowRange(w, name, begin, end)
	if err != nil {
		return err
	}
	src, _, _, err := flowRange(from, name, begin, end)
	if err != nil {
		return err
	}
	if src.Len() < hi {
		return fmt.Errorf("%w: source series %s has %d samples, need %d", ErrInconsistent, name, src.Len(), hi)
	}
	for r := lo; r < hi; r++ {
		v, err := src.Get(r, "flow")
		if err != nil {
			return err
		}
		if err := samples.Set(r, "flow", v); err != nil {
			return err
		}
	}
	return nil
}

func flowRange(ws *Workspace, name string, begin, end int) (*inp.Table, int, int, error) {
	qser, err := ws.mustFile(inp.FlowFile)
	if err != nil {
		return nil, 0, 0, err
	}
	samples, ok := qser.Table(name)
	if !ok {
		return nil, 0, 0, fmt.Errorf("workspace: qser.inp has no series %q", name)
	}
	if end < 0 {
		end = samples.Len() / 2
	}
	if begin < 0 || begin > end {
		return nil, 0, 0, fmt.Errorf("workspace: flow range [%d,%d) is empty or negative", begin, end)
	}
	return samples, min(2*begin, samples.Len()), min(2*end, samples.Len()), nil
}
