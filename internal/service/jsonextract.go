package service

import (
	"bytes"
	"encoding/json"
	"sort"
)

// ExtractJSON returns the first balanced, valid JSON object embedded in out.
// Engine output mixes log lines with the result, so braces inside strings are
// skipped and candidates that do not parse are passed over. A brace that is
// never closed ends the search after the objects nested inside it are tried,
// so the scan stays linear on truncated output.
func ExtractJSON(out []byte) ([]byte, bool) {
	for start := 0; start < len(out); start++ {
		i := bytes.IndexByte(out[start:], '{')
		if i < 0 {
			return nil, false
		}
		start += i

		end, inner := balancedEnd(out, start)
		if end < 0 {
			sort.Slice(inner, func(a, b int) bool { return inner[a][0] < inner[b][0] })
			for _, s := range inner {
				if candidate := out[s[0]:s[1]]; json.Valid(candidate) {
					return candidate, true
				}
			}
			return nil, false
		}
		if candidate := out[start:end]; json.Valid(candidate) {
			return candidate, true
		}
	}
	return nil, false
}

// balancedEnd returns the index just past the brace closing out[start], or -1.
// When the brace never closes it also returns the spans of the objects that
// did close within the scan.
func balancedEnd(out []byte, start int) (int, [][2]int) {
	var open []int
	var closed [][2]int
	inString, escaped := false, false

	for i := start; i < len(out); i++ {
		c := out[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			open = append(open, i)
		case '}':
			lo := open[len(open)-1]
			open = open[:len(open)-1]
			if len(open) == 0 {
				return i + 1, nil
			}
			closed = append(closed, [2]int{lo, i + 1})
		}
	}
	return -1, closed
}
