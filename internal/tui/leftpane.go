package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yiblet/clipper/internal/engine"
	"github.com/yiblet/clipper/internal/store"
)

// ListMsg represents messages that the list pane handles
type ListMsg interface {
	isListMsg()
}

type NavigateUpMsg struct{}

func (NavigateUpMsg) isListMsg() {}

type NavigateDownMsg struct {
	MaxIndex int // Maximum valid index for bounds checking
}

func (NavigateDownMsg) isListMsg() {}

type GoToTopMsg struct{}

func (GoToTopMsg) isListMsg() {}

type GoToBottomMsg struct {
	MaxIndex int
}

func (GoToBottomMsg) isListMsg() {}

type ResizeListMsg struct {
	Width  int
	Height int
}

func (ResizeListMsg) isListMsg() {}

// ListModel holds the cursor and scroll state of the entry list
type ListModel struct {
	Cursor int // Highlighted row
	Offset int // First visible row
	Width  int
	Height int
}

// NewListModel creates a list model with the cursor on the first entry
func NewListModel(width, height int) ListModel {
	return ListModel{Width: width, Height: height}
}

// Update applies a list message
func (l *ListModel) Update(msg ListMsg) {
	switch m := msg.(type) {
	case NavigateUpMsg:
		if l.Cursor > 0 {
			l.Cursor--
		}
	case NavigateDownMsg:
		if l.Cursor < m.MaxIndex {
			l.Cursor++
		}
	case GoToTopMsg:
		l.Cursor = 0
	case GoToBottomMsg:
		l.Cursor = max(m.MaxIndex, 0)
	case ResizeListMsg:
		l.Width = m.Width
		l.Height = m.Height
	}
	l.scroll()
}

// Clamp keeps the cursor inside a list of n entries
func (l *ListModel) Clamp(n int) {
	if l.Cursor >= n {
		l.Cursor = max(n-1, 0)
	}
	l.scroll()
}

// rows is the number of entry rows that fit inside the border and title
func (l *ListModel) rows() int {
	return max(l.Height-4, 1)
}

// scroll moves Offset so the cursor stays visible
func (l *ListModel) scroll() {
	if l.Cursor < l.Offset {
		l.Offset = l.Cursor
	}
	if l.Cursor >= l.Offset+l.rows() {
		l.Offset = l.Cursor - l.rows() + 1
	}
	l.Offset = max(l.Offset, 0)
}

// ListView renders the entry list
func ListView(model ListModel, entries []store.Entry, title string, focused bool) string {
	borderColor := "62"
	if focused {
		borderColor = "205"
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(borderColor)).
		Padding(0, 1).
		Width(model.Width).
		Height(model.Height - 2)

	var content strings.Builder
	content.WriteString(lipgloss.NewStyle().Bold(true).Render(title) + "\n")

	if len(entries) == 0 {
		content.WriteString(lipgloss.NewStyle().Faint(true).Render("nothing copied yet"))
		return style.Render(content.String())
	}

	lineWidth := max(model.Width-2, 8)
	end := min(model.Offset+model.rows(), len(entries))
	for i := model.Offset; i < end; i++ {
		line := listLine(i, entries[i], lineWidth)
		if i == model.Cursor {
			line = lipgloss.NewStyle().
				Background(lipgloss.Color("62")).
				Foreground(lipgloss.Color("230")).
				Width(lineWidth).
				Render(line)
		}
		content.WriteString(line + "\n")
	}

	return style.Render(content.String())
}

// listLine renders one row: index, pin marker, then the preview
func listLine(i int, e store.Entry, width int) string {
	marker := " "
	if e.Pinned {
		marker = "*"
	}
	prefix := fmt.Sprintf("%2d %s ", i, marker)
	return prefix + engine.Preview(e, width-lipgloss.Width(prefix))
}
