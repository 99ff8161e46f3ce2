package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/yiblet/clipper/internal/engine"
	"github.com/yiblet/clipper/internal/store"
)

// DetailView renders the highlighted entry: a metadata header followed by
// the wrapped text, or a summary for images. term is highlighted in the
// body when non-empty.
func DetailView(entry *store.Entry, term string, width, height int, focused bool) string {
	borderColor := "62"
	if focused {
		borderColor = "205"
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(borderColor)).
		Padding(0, 1).
		Width(width).
		Height(height - 2)

	if entry == nil {
		return style.Render(lipgloss.NewStyle().Faint(true).Render("no entry selected"))
	}

	innerWidth := max(width-2, 8)
	header := detailHeader(*entry)

	var content strings.Builder
	content.WriteString(lipgloss.NewStyle().Faint(true).Render(header) + "\n\n")

	bodyRows := max(height-4-strings.Count(header, "\n")-2, 1)
	switch entry.Kind {
	case store.KindImage:
		content.WriteString(fmt.Sprintf("PNG image, %s\n", engine.FormatSize(entry.Size())))
		content.WriteString(lipgloss.NewStyle().Faint(true).Render("press enter to paste it"))
	default:
		lines := WrapText(entry.Text(), innerWidth)
		for i, line := range lines {
			if i == bodyRows {
				more := fmt.Sprintf("... %d more lines", len(lines)-bodyRows)
				content.WriteString(lipgloss.NewStyle().Faint(true).Render(more))
				break
			}
			content.WriteString(highlightTerm(line, term) + "\n")
		}
	}

	return style.Render(content.String())
}

func detailHeader(e store.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s", e.Kind, engine.FormatSize(e.Size()))
	if e.Pinned {
		b.WriteString("  pinned")
	}
	if e.Source != "" {
		fmt.Fprintf(&b, "  from %s", e.Source)
	}
	fmt.Fprintf(&b, "\ncopied %s, used %s", e.CreatedAt.Format(time.DateTime), e.LastUsedAt.Format(time.DateTime))
	return b.String()
}

// highlightTerm marks case-insensitive occurrences of term in line
func highlightTerm(line, term string) string {
	if term == "" {
		return line
	}

	style := lipgloss.NewStyle().
		Background(lipgloss.Color("11")).
		Foreground(lipgloss.Color("0"))

	lower := strings.ToLower(line)
	needle := strings.ToLower(term)
	// Lowercasing can change byte lengths outside ASCII; skip highlighting then.
	if len(lower) != len(line) {
		return line
	}

	var b strings.Builder
	pos := 0
	for {
		idx := strings.Index(lower[pos:], needle)
		if idx < 0 {
			break
		}
		start := pos + idx
		end := start + len(needle)
		b.WriteString(line[pos:start])
		b.WriteString(style.Render(line[start:end]))
		pos = end
	}
	b.WriteString(line[pos:])
	return b.String()
}
