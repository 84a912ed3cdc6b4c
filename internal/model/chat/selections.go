package chat

import (
	"strings"
	"unicode/utf8"
)

const (
	selectionsStart = "---selections---"
	selectionsEnd   = "---end selections---"
)

// Reply is an assistant message split into narration and the options the
// player can pick from.
type Reply struct {
	Message    string   `json:"message"`
	Selections []string `json:"selections"`
}

// ExtractSelections splits raw model output into narration and selections.
//
// Selections are the non-blank lines between a "---selections---" line and
// the next "---end selections---" line (or the end of input). Everything
// else is narration, concatenated without line breaks. Markers are matched
// on the trimmed line only.
func ExtractSelections(raw string) Reply {
	reply := Reply{Selections: []string{}}

	var narration strings.Builder
	inBlock := false
	for _, line := range splitLines(raw) {
		trimmed := strings.TrimSpace(line)
		if inBlock {
			if trimmed == selectionsEnd {
				inBlock = false
				continue
			}
			if trimmed != "" {
				reply.Selections = append(reply.Selections, trimmed)
			}
			continue
		}

		if trimmed == selectionsStart {
			inBlock = true
			continue
		}
		narration.WriteString(line)
	}

	reply.Message = narration.String()
	return reply
}

// splitLines breaks s on \n, \r, \r\n, \v, \f, \x1c-\x1e, U+0085, U+2028
// and U+2029. A trailing separator does not produce an empty last line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}

	var lines []string
	start := 0
	for i, r := range s {
		if i < start || !isLineBreak(r) {
			continue
		}
		lines = append(lines, s[start:i])
		start = i + utf8.RuneLen(r)
		if r == '\r' && start < len(s) && s[start] == '\n' {
			start++
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
