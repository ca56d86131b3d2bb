package inp

import (
	"fmt"
	"strings"
)

// Standard file names.
const (
	EFDCFile          = "efdc.inp"
	FlowFile          = "qser.inp"
	ConcentrationFile = "wqpsc.inp"
	WQ3DWCFile        = "wq3dwc.inp"
	AdjustFile        = "conc_adjust.inp"
	BalanceFile       = "qbal.out"
)

// DefaultMaxPasses bounds the work-list loop of Resolve.
const DefaultMaxPasses = 1000

// Unit declares how one file is parsed and which parsed files it needs
// first. Extra computes the file's extra lengths from its dependencies and
// may be nil.
type Unit struct {
	Name  string
	Deps  []string
	Extra func(parsed map[string]*File) (map[string]int, error)
	Parse func(name string, text []byte, extra map[string]int) (*File, error)
}

// Resolve parses every unit whose text is present in src, each one only
// after all of its dependencies. It makes at most maxPasses sweeps over the
// pending units (DefaultMaxPasses when maxPasses <= 0) and stops early when a
// sweep parses nothing. Units left pending are reported as ErrDependency.
func Resolve(units []Unit, src map[string][]byte, maxPasses int) (map[string]*File, error) {
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}
	parsed := make(map[string]*File, len(units))
	var pending []Unit
	for _, u := range units {
		if _, ok := src[u.Name]; ok {
			pending = append(pending, u)
		}
	}
	for pass := 0; pass < maxPasses && len(pending) > 0; pass++ {
		var next []Unit
		for _, u := range pending {
			if !ready(u, parsed) {
				next = append(next, u)
				continue
			}
			var extra map[string]int
			if u.Extra != nil {
				var err error
				if extra, err = u.Extra(parsed); err != nil {
					return nil, fmt.Errorf("inp: %s: %w", u.Name, err)
				}
			}
			f, err := u.Parse(u.Name, src[u.Name], extra)
			if err != nil {
				return nil, err
			}
			parsed[u.Name] = f
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}
	if len(pending) > 0 {
		names := make([]string, len(pending))
		for i, u := range pending {
			names[i] = fmt.Sprintf("%s (needs %s)", u.Name, strings.Join(missing(u, parsed), ", "))
		}
		return nil, &ParseError{Err: ErrDependency, File: strings.Join(unitNames(pending), ", "), Msg: "unsatisfiable dependencies: " + strings.Join(names, "; ")}
	}
	return parsed, nil
}

func ready(u Unit, parsed map[string]*File) bool {
	for _, d := range u.Deps {
		if _, ok := parsed[d]; !ok {
			return false
		}
	}
	return true
}

func missing(u Unit, parsed map[string]*File) []string {
	var out []string
	for _, d := range u.Deps {
		if _, ok := parsed[d]; !ok {
			out = append(out, d)
		}
	}
	return out
}

func unitNames(units []Unit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Name
	}
	return out
}

// StandardUnits declares the input files of one simulation directory and
// their cross-file dependencies.
func StandardUnits() []Unit {
	return []Unit{
		{Name: EFDCFile, Parse: masterParser(EFDC)},
		{Name: FlowFile, Parse: func(name string, text []byte, _ map[string]int) (*File, error) {
			return ParseFlow(name, text)
		}},
		{Name: ConcentrationFile, Parse: func(name string, text []byte, _ map[string]int) (*File, error) {
			return ParseConcentration(name, text)
		}},
		{Name: WQ3DWCFile, Deps: []string{EFDCFile}, Extra: wq3dwcExtra, Parse: masterParser(WQ3DWC)},
		{Name: AdjustFile, Deps: []string{EFDCFile}, Extra: adjustExtra, Parse: ParseAdjust},
	}
}

// UnitNames lists the file names declared by units.
func UnitNames(units []Unit) []string { return unitNames(units) }

func masterParser(c *Catalog) func(string, []byte, map[string]int) (*File, error) {
	return func(name string, text []byte, extra map[string]int) (*File, error) {
		return ParseMaster(name, c, text, extra)
	}
}

func efdcCount(parsed map[string]*File, field string) (int, error) {
	f := parsed[EFDCFile]
	t, ok := f.Table("C07")
	if !ok {
		return 0, dependency(EFDCFile, "C07", "card missing from parsed file")
	}
	n, err := t.Int(0, field)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func wq3dwcExtra(parsed map[string]*File) (map[string]int, error) {
	n, err := efdcCount(parsed, "NQWR")
	if err != nil {
		return nil, err
	}
	return map[string]int{"C40": n}, nil
}

func adjustExtra(parsed map[string]*File) (map[string]int, error) {
	nqsij, err := efdcCount(parsed, "NQSIJ")
	if err != nil {
		return nil, err
	}
	nqser, err := efdcCount(parsed, "NQSER")
	if err != nil {
		return nil, err
	}
	if nqsij != nqser {
		return nil, structural(EFDCFile, "C07", 0, nqsij, nqser, "NQSIJ and NQSER must agree to size %s", AdjustFile)
	}
	return map[string]int{AdjustRowsKey: nqsij}, nil
}
