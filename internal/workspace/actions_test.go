package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"efdcrun/internal/testsim"
	"efdcrun/pkg/inp"
)

func column(t *testing.T, w *Workspace, file, card, col string) []string {
	t.Helper()
	tab, err := w.table(file, card)
	require.NoError(t, err)
	vals, err := tab.Column(col)
	require.NoError(t, err)
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.String()
	}
	return out
}

func flowValues(t *testing.T, w *Workspace, name string) []string {
	t.Helper()
	f, _ := w.File(inp.FlowFile)
	tab, ok := f.Table(name)
	require.True(t, ok, name)
	vals, err := tab.Column("flow")
	require.NoError(t, err)
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.String()
	}
	return out
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"hard", "flow", "qfactor"} {
		m, err := ParseMode(s)
		require.NoError(t, err)
		assert.Equal(t, Mode(s), m)
	}
	_, err := ParseMode("soft")
	assert.ErrorIs(t, err, ErrUnknownMode)
	_, err = ParseMode("gentle")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestSimulationWindow(t *testing.T) {
	w := load(t)
	n, err := w.SimulationLength()
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	require.NoError(t, w.SetSimulationLength(4))
	require.NoError(t, w.SetBeginTime(6))
	assert.Equal(t, []string{"4"}, column(t, w, inp.EFDCFile, "C03", "NTC"))
	assert.Equal(t, []string{"6.0"}, column(t, w, inp.EFDCFile, "C03", "TBEGIN"))
	require.NoError(t, w.Validate())
}

func TestEnableRestart(t *testing.T) {
	w := load(t)
	on, err := w.Restarting()
	require.NoError(t, err)
	assert.False(t, on)
	require.NoError(t, w.EnableRestart())
	on, err = w.Restarting()
	require.NoError(t, err)
	assert.True(t, on)
	require.NoError(t, w.Validate())
}

func TestFlowNames(t *testing.T) {
	w := load(t)
	n, err := w.CountFlow()
	require.NoError(t, err)
	assert.Equal(t, testsim.Flows, n)
	names, err := w.FlowNames()
	require.NoError(t, err)
	assert.Equal(t, testsim.FlowNames, names)
}

func TestSelectFlowHard(t *testing.T) {
	w := load(t)
	require.NoError(t, w.SelectFlow([]int{0, 2}, ModeHard))

	assert.Equal(t, []string{"2"}, column(t, w, inp.EFDCFile, "C07", "NQSIJ"))
	assert.Equal(t, []string{"2"}, column(t, w, inp.EFDCFile, "C07", "NQSER"))
	assert.Equal(t, []string{"1", "2"}, column(t, w, inp.EFDCFile, "C08", "NQSERQ"))
	assert.Equal(t, []string{"20.0", "22.0"}, column(t, w, inp.EFDCFile, "C09", "TEM"))

	names, err := w.FlowNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"north", "outlet"}, names)

	wqpsc, _ := w.File(inp.ConcentrationFile)
	assert.Equal(t, []string{"inflow1"}, wqpsc.Names())

	assert.Equal(t, []string{"1"}, column(t, w, inp.WQ3DWCFile, "C34_1", "IWQPS"))
	assert.Equal(t, []string{"1"}, column(t, w, inp.WQ3DWCFile, "C34_1", "NPSTMSR"))
	assert.Equal(t, []string{"1"}, column(t, w, inp.WQ3DWCFile, "C34_2", "N"))

	adjust, _ := w.File(inp.AdjustFile)
	require.Len(t, adjust.Matrices(), 2)
	for _, m := range adjust.Matrices() {
		vals, err := m.Matrix().Column("Bc")
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "3"}, []string{vals[0].String(), vals[1].String()})
	}

	require.NoError(t, w.Validate())
}

func TestSelectFlowHardReordersKeys(t *testing.T) {
	w := load(t)
	require.NoError(t, w.SelectFlow([]int{1, 0}, ModeHard))
	assert.Equal(t, []string{"1", "2"}, column(t, w, inp.EFDCFile, "C08", "NQSERQ"))
	assert.Equal(t, []string{"1", "2"}, column(t, w, inp.WQ3DWCFile, "C34_2", "N"))
	assert.Equal(t, []string{"5", "3"}, column(t, w, inp.EFDCFile, "C08", "IQS"))
	names, err := w.FlowNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"south", "north"}, names)
	require.NoError(t, w.Validate())
}

func TestSelectFlowHardOutflowOnly(t *testing.T) {
	w := load(t)
	require.NoError(t, w.SelectFlow([]int{2}, ModeHard))
	assert.Equal(t, []string{"0"}, column(t, w, inp.WQ3DWCFile, "C34_1", "IWQPS"))
	wqpsc, _ := w.File(inp.ConcentrationFile)
	assert.Empty(t, wqpsc.Names())
	require.NoError(t, w.Validate())
}

func TestSelectFlowHardAll(t *testing.T) {
	w := load(t)
	require.NoError(t, w.SelectFlow([]int{0, 1, 2}, ModeHard))
	for name, data := range w.Render() {
		assert.Equal(t, string(testsim.Files()[name]), string(data), name)
	}
}

func TestSelectFlowRejectsMismatchedCounts(t *testing.T) {
	w := load(t)
	efdc, _ := w.File(inp.EFDCFile)
	c07, _ := efdc.Table("C07")
	require.NoError(t, c07.Set(0, "NQSER", inp.IntValue(2)))
	before := w.Render()
	err := w.SelectFlow([]int{0}, ModeHard)
	assert.ErrorIs(t, err, ErrInconsistent)
	assert.Equal(t, before, w.Render())
}

func TestSelectFlowRejectsMissingSeries(t *testing.T) {
	w := load(t)
	qser, _ := w.File(inp.FlowFile)
	require.NoError(t, qser.SelectSeries([]int{0, 1}))
	before := w.Render()
	err := w.SelectFlow([]int{0, 2}, ModeHard)
	assert.ErrorIs(t, err, ErrInconsistent)
	assert.Equal(t, before, w.Render(), "workspace untouched")
}

func TestSelectFlowOutOfRange(t *testing.T) {
	w := load(t)
	assert.Error(t, w.SelectFlow([]int{3}, ModeHard))
	assert.ErrorIs(t, w.SelectFlow([]int{0}, ModeSoft), ErrUnknownMode)
}

func TestDropFlowZeroesFlow(t *testing.T) {
	w := load(t)
	require.NoError(t, w.DropFlow([]int{1}, ModeFlow))
	assert.Equal(t, []string{"0.0", "0.0", "0.0", "0.0"}, flowValues(t, w, "south"))
	assert.Equal(t, []string{"1.5", "2.5", "3.5", "4.5"}, flowValues(t, w, "north"))
	n, err := w.CountFlow()
	require.NoError(t, err)
	assert.Equal(t, testsim.Flows, n)
	require.NoError(t, w.Validate())
}

func TestDropFlowZeroesQfactor(t *testing.T) {
	w := load(t)
	require.NoError(t, w.DropFlow([]int{0, 2}, ModeQfactor))
	assert.Equal(t, []string{"0.0", "0.5", "0.0"}, column(t, w, inp.EFDCFile, "C08", "Qfactor"))
	assert.Equal(t, []string{"1.5", "2.5", "3.5", "4.5"}, flowValues(t, w, "north"))
	require.NoError(t, w.Validate())
}

func TestSetFlowRange(t *testing.T) {
	w := load(t)
	require.NoError(t, w.SetFlowRange("south", 9, 1, 2))
	assert.Equal(t, []string{"4.0", "5.0", "9.0", "9.0"}, flowValues(t, w, "south"))

	require.NoError(t, w.SetFlowRange("north", 0.25, 0, -1))
	assert.Equal(t, []string{"0.25", "0.25", "0.25", "0.25"}, flowValues(t, w, "north"))

	assert.Error(t, w.SetFlowRange("missing", 1, 0, 1))
	assert.Error(t, w.SetFlowRange("south", 1, 2, 1))
	require.NoError(t, w.Validate())
}

func TestCopyFlowRange(t *testing.T) {
	base := load(t)
	other := base.Clone()
	require.NoError(t, other.SetFlowRange("outlet", 7, 0, -1))

	require.NoError(t, base.CopyFlowRange("outlet", other, 0, 1))
	assert.Equal(t, []string{"7.0", "7.0", "-3.0", "-4.0"}, flowValues(t, base, "outlet"))
}
