package tui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
)

// WrapText wraps text to maxWidth display cells, breaking on spaces where
// possible. Tabs become spaces and control characters are dropped so
// clipboard text cannot move the terminal cursor.
func WrapText(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{}
	}

	var result []string
	for _, line := range strings.Split(cleanText(text), "\n") {
		if lipgloss.Width(line) <= maxWidth {
			result = append(result, line)
			continue
		}
		result = append(result, wrapLine(line, maxWidth)...)
	}
	return result
}

// wrapLine wraps a single line that is too long
func wrapLine(line string, maxWidth int) []string {
	var result []string
	var current []rune
	width := 0

	flush := func() {
		result = append(result, strings.TrimRight(string(current), " "))
		current = current[:0]
		width = 0
	}

	for _, word := range splitWords(line) {
		w := lipgloss.Width(word)

		// Break words longer than a full line
		if w > maxWidth {
			if width > 0 {
				flush()
			}
			for _, r := range word {
				rw := lipgloss.Width(string(r))
				if width+rw > maxWidth {
					flush()
				}
				current = append(current, r)
				width += rw
			}
			continue
		}

		need := w
		if width > 0 {
			need++
		}
		if width+need > maxWidth {
			flush()
			need = w
		}
		if width > 0 {
			current = append(current, ' ')
		}
		current = append(current, []rune(word)...)
		width += need
	}

	if width > 0 {
		flush()
	}
	return result
}

// splitWords splits text on whitespace
func splitWords(text string) []string {
	return strings.FieldsFunc(text, unicode.IsSpace)
}

func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, text)
}
