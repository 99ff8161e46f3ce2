package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// ModalMsg represents messages that the modal component handles
type ModalMsg interface {
	isModalMsg()
}

type ShowModalMsg struct {
	Title   string
	Content string
	Options string
}

func (ShowModalMsg) isModalMsg() {}

type HideModalMsg struct{}

func (HideModalMsg) isModalMsg() {}

// ModalModel holds the state for modal dialogs
type ModalModel struct {
	Active  bool
	Title   string
	Content string
	Options string
	Width   int
}

// NewModalModel creates a hidden modal
func NewModalModel() ModalModel {
	return ModalModel{Width: 56}
}

// Update handles modal messages
func (m *ModalModel) Update(msg ModalMsg) {
	switch msg := msg.(type) {
	case ShowModalMsg:
		m.Active = true
		m.Title = msg.Title
		m.Content = msg.Content
		m.Options = msg.Options
	case HideModalMsg:
		m.Active = false
		m.Title = ""
		m.Content = ""
		m.Options = ""
	}
}

// ModalView renders the modal centered in a width x height area, or
// background when the modal is hidden.
func ModalView(model ModalModel, background string, width, height int) string {
	if !model.Active {
		return background
	}

	body := lipgloss.NewStyle().Bold(true).Render(model.Title)
	if model.Content != "" {
		body += "\n\n" + model.Content
	}
	if model.Options != "" {
		body += "\n\n" + lipgloss.NewStyle().Faint(true).Render(model.Options)
	}

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("9")).
		Padding(1, 2).
		Width(min(model.Width, max(width-4, 10))).
		Align(lipgloss.Center).
		Render(body)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}

// ShowDeleteConfirmation builds the delete confirmation modal
func ShowDeleteConfirmation(preview string, pinned bool) ShowModalMsg {
	content := fmt.Sprintf("%q", preview)
	if pinned {
		content += "\n\nThis entry is pinned."
	}
	return ShowModalMsg{
		Title:   "Delete entry?",
		Content: content,
		Options: "[y] delete    [n] cancel",
	}
}
