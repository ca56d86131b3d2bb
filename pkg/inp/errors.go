package inp

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStructure reports text whose shape does not match its format: wrong
	// token counts, a depth marker other than 1, input ending mid-record.
	ErrStructure = errors.New("structural parse error")
	// ErrDependency reports a row count that could not be resolved, either a
	// missing cross-file value or a dependency graph that never converges.
	ErrDependency = errors.New("dependency resolution error")
	// ErrCatalog reports a catalog/format mismatch such as an unknown card or
	// a driver field missing from its card.
	ErrCatalog = errors.New("catalog mismatch")
)

// ParseError carries the location of a fatal parse failure. It unwraps to one
// of ErrStructure, ErrDependency or ErrCatalog.
type ParseError struct {
	Err      error
	File     string
	Card     string // card id or series name, empty when not applicable
	Line     int    // 1-based, 0 when unknown
	Expected int
	Actual   int
	Msg      string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("inp: ")
	b.WriteString(e.File)
	if e.Card != "" {
		b.WriteString(": ")
		b.WriteString(e.Card)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if e.Expected != e.Actual {
		fmt.Fprintf(&b, " (expected %d, got %d)", e.Expected, e.Actual)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

func structural(file, card string, line, expected, actual int, format string, args ...any) error {
	return &ParseError{Err: ErrStructure, File: file, Card: card, Line: line, Expected: expected, Actual: actual, Msg: fmt.Sprintf(format, args...)}
}

func dependency(file, card, format string, args ...any) error {
	return &ParseError{Err: ErrDependency, File: file, Card: card, Msg: fmt.Sprintf(format, args...)}
}

func catalogMismatch(file, card, format string, args ...any) error {
	return &ParseError{Err: ErrCatalog, File: file, Card: card, Msg: fmt.Sprintf(format, args...)}
}

// Warning is a non-fatal finding attached to a parsed File.
type Warning struct {
	File string
	Card string
	Msg  string
}

func (w Warning) String() string {
	if w.Card == "" {
		return w.File + ": " + w.Msg
	}
	return w.File + ": " + w.Card + ": " + w.Msg
}
