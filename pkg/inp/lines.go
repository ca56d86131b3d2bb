package inp

import "strings"

// splitLines breaks text into lines without their terminators. A final
// newline does not produce an empty trailing line.
func splitLines(text []byte) []string {
	if len(text) == 0 {
		return nil
	}
	s := strings.TrimSuffix(string(text), "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// splitFields splits a data line on whitespace runs. A token opened by a
// single or double quote extends to the matching quote, so quoted names may
// contain blanks.
func splitFields(line string) []string {
	var out []string
	i, n := 0, len(line)
	for i < n {
		for i < n && isBlank(line[i]) {
			i++
		}
		if i >= n {
			break
		}
		start := i
		if q := line[i]; q == '\'' || q == '"' {
			end := strings.IndexByte(line[i+1:], q)
			if end < 0 {
				i = n
			} else {
				i += end + 2
			}
			// a quoted token may run straight into unquoted text
			for i < n && !isBlank(line[i]) {
				i++
			}
		} else {
			for i < n && !isBlank(line[i]) {
				i++
			}
		}
		out = append(out, line[start:i])
	}
	return out
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' || c == '\v' || c == '\f' }

func isBlankLine(s string) bool { return strings.TrimSpace(s) == "" }

// isCardComment matches the comment convention of the card driven files: a
// blank line or one whose first non-blank character is '#' or 'C'.
func isCardComment(s string) bool {
	t := strings.TrimSpace(s)
	return t == "" || t[0] == '#' || t[0] == 'C'
}

func isHashComment(s string) bool {
	t := strings.TrimSpace(s)
	return t == "" || t[0] == '#'
}

func parseRow(tokens []string) []Value {
	row := make([]Value, len(tokens))
	for i, tok := range tokens {
		row[i] = ParseValue(tok)
	}
	return row
}
