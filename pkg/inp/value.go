package inp

import (
	"math"
	"strconv"
	"strings"
)

// Scalar identifies the type held by a Value.
type Scalar uint8

const (
	ScalarString Scalar = iota
	ScalarInt
	ScalarFloat
)

func (s Scalar) String() string {
	switch s {
	case ScalarInt:
		return "int"
	case ScalarFloat:
		return "float"
	default:
		return "string"
	}
}

// Value is one field of a data row. Values read from text keep their raw
// token and render it unchanged, so a file that is only partially edited
// keeps the numeric formatting the executable was given.
type Value struct {
	kind Scalar
	raw  string
	i    int64
	f    float64
}

// ParseValue classifies a token as int, float or string. Fortran style
// exponents (1.0D-3) are accepted as floats.
func ParseValue(token string) Value {
	if i, err := strconv.ParseInt(token, 10, 64); err == nil {
		return Value{kind: ScalarInt, raw: token, i: i, f: float64(i)}
	}
	if numericToken(token) {
		if f, err := strconv.ParseFloat(strings.Map(fortranExponent, token), 64); err == nil {
			return Value{kind: ScalarFloat, raw: token, f: f}
		}
	}
	return Value{kind: ScalarString, raw: token}
}

// IntValue returns an integer Value rendered in base 10.
func IntValue(i int64) Value {
	return Value{kind: ScalarInt, raw: strconv.FormatInt(i, 10), i: i, f: float64(i)}
}

// FloatValue returns a float Value rendered with the shortest representation
// that parses back to f. Integral values keep a ".0" suffix.
func FloatValue(f float64) Value {
	return Value{kind: ScalarFloat, raw: formatFloat(f), f: f}
}

// StringValue returns a string Value rendered verbatim.
func StringValue(s string) Value {
	return Value{kind: ScalarString, raw: s}
}

func (v Value) Kind() Scalar { return v.kind }

// Int returns the value as an integer. Floats with no fractional part
// convert; strings and fractional floats do not.
func (v Value) Int() (int64, bool) {
	switch v.kind {
	case ScalarInt:
		return v.i, true
	case ScalarFloat:
		if v.f == math.Trunc(v.f) && math.Abs(v.f) < 1<<53 {
			return int64(v.f), true
		}
	}
	return 0, false
}

func (v Value) Float() (float64, bool) {
	if v.kind == ScalarString {
		return 0, false
	}
	return v.f, true
}

// String returns the text the value renders as.
func (v Value) String() string { return v.raw }

// Equal reports whether both values have the same kind and rendering.
func (v Value) Equal(o Value) bool { return v.kind == o.kind && v.raw == o.raw }

func numericToken(s string) bool {
	digit := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune("+-.eEdD", r):
		default:
			return false
		}
	}
	return digit
}

func fortranExponent(r rune) rune {
	if r == 'd' || r == 'D' {
		return 'e'
	}
	return r
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if math.IsInf(f, 0) || math.IsNaN(f) || strings.ContainsRune(s, '.') {
		return s
	}
	return s + ".0"
}
