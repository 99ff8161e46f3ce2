package engine

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/yiblet/clipper/internal/store"
)

// DefaultPreviewWidth is the preview length used by list views.
const DefaultPreviewWidth = 80

// Preview renders a one-line label for an entry.
// Text entries use their first non-blank line, images their size.
func Preview(e store.Entry, maxLen int) string {
	if e.Kind == store.KindImage {
		return fmt.Sprintf("[image %s]", FormatSize(e.Size()))
	}

	text := e.Text()
	for _, line := range strings.Split(text, "\n") {
		if cleaned := SanitizeLine(line); cleaned != "" {
			return Truncate(cleaned, maxLen)
		}
	}
	return "[blank]"
}

// Truncate shortens s to at most maxLen runes, marking the cut with "...".
func Truncate(s string, maxLen int) string {
	runes := []rune(strings.TrimSpace(s))
	if maxLen <= 0 || len(runes) <= maxLen {
		return string(runes)
	}

	// Reserve 3 characters for "..."
	if maxLen < 3 {
		return strings.Repeat(".", maxLen)
	}
	return string(runes[:maxLen-3]) + "..."
}

// SanitizeLine replaces control characters and collapses whitespace so the
// result is safe to print on one terminal line.
func SanitizeLine(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// FormatSize renders a byte count for humans.
func FormatSize(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := int64(n) / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}
