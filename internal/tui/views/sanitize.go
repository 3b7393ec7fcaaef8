package views

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// sanitizeForTerminal drops runes that tcell cannot lay out in a single cell
// grid: emoji modifiers and joiners, variation selectors, and control
// characters other than newline and tab. Message bodies are user input, so
// stray escape sequences must never reach the terminal.
func sanitizeForTerminal(s string) string {
	return strings.Map(func(r rune) rune {
		if dropRune(r) {
			return -1
		}
		return r
	}, s)
}

// singleLine sanitizes s and folds it onto one line for table cells.
func singleLine(s string) string {
	return strings.Join(strings.Fields(sanitizeForTerminal(s)), " ")
}

func dropRune(r rune) bool {
	switch {
	case r == '\n' || r == '\t':
		return false
	case unicode.IsControl(r):
		return true
	case r == utf8.RuneError:
		return true
	// Skin tone modifiers and the zero width joiner.
	case r >= 0x1F3FB && r <= 0x1F3FF, r == 0x200D:
		return true
	// Variation selectors and their supplement.
	case r >= 0xFE00 && r <= 0xFE0F, r >= 0xE0100 && r <= 0xE01EF:
		return true
	}
	return false
}
