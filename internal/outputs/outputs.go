// Package outputs reads what the model leaves behind after a run: the
// timing summary at the end of its console output and the qbal.out water
// balance table.
package outputs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"efdcrun/pkg/inp"
)

// TimingAnchor opens the timing summary the executable prints when it
// completes a simulation.
const TimingAnchor = "TIMING INFORMATION IN SECONDS"

// ErrModelFailed means the console output carries no timing summary, so the
// model stopped before completing.
var ErrModelFailed = errors.New("outputs: model did not complete")

// Timing maps each timed phase label, as printed, to seconds.
type Timing map[string]float64

// ParseTiming reads the "label words = value" pairs following the last
// timing anchor in the console output.
func ParseTiming(console []byte) (Timing, error) {
	s := string(console)
	i := strings.LastIndex(s, TimingAnchor)
	if i < 0 {
		return nil, fmt.Errorf("%w: no %q section in output", ErrModelFailed, TimingAnchor)
	}
	words := strings.Fields(s[i+len(TimingAnchor):])
	out := Timing{}
	var label []string
	for j := 0; j < len(words); j++ {
		if words[j] != "=" {
			label = append(label, words[j])
			continue
		}
		if j+1 >= len(words) {
			return nil, fmt.Errorf("%w: timing %q has no value", ErrModelFailed, strings.Join(label, " "))
		}
		j++
		v, err := strconv.ParseFloat(words[j], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: timing %q: %v", ErrModelFailed, strings.Join(label, " "), err)
		}
		out[strings.Join(label, " ")] = v
		label = nil
	}
	return out, nil
}

// Balance is the parsed qbal.out table.
type Balance struct {
	File *inp.File
}

// ReadBalance parses dir/qbal.out. A missing file yields (nil, nil) since
// the water balance output is optional.
func ReadBalance(dir string) (*Balance, error) {
	data, err := os.ReadFile(filepath.Join(dir, inp.BalanceFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("outputs: read %s: %w", inp.BalanceFile, err)
	}
	f, err := inp.ParseBalance(inp.BalanceFile, data)
	if err != nil {
		return nil, err
	}
	return &Balance{File: f}, nil
}

// Table returns the balance rows.
func (b *Balance) Table() *inp.Table {
	t, _ := b.File.Table("qbal")
	return t
}

// Days is the jday column.
func (b *Balance) Days() ([]float64, error) { return b.Series("jday") }

// Series returns one balance column as floats.
func (b *Balance) Series(column string) ([]float64, error) {
	t := b.Table()
	out := make([]float64, t.Len())
	for i := range out {
		v, err := t.Float(i, column)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
