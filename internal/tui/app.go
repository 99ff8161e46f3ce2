// Package tui is clipper's terminal overlay: a searchable history list that
// the global hotkey shows and hides, with paste, pin and delete commands.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yiblet/clipper/internal/engine"
	"github.com/yiblet/clipper/internal/events"
	"github.com/yiblet/clipper/internal/hotkey"
	"github.com/yiblet/clipper/internal/inject"
	"github.com/yiblet/clipper/internal/store"
)

// UIMode represents the current modal state of the application
type UIMode int

const (
	NormalMode UIMode = iota
	SearchMode
	HelpMode
	DeleteMode
)

const flashDuration = 3 * time.Second

// History is the part of the engine the overlay reads and edits.
type History interface {
	List(opts store.ListOptions) []store.Entry
	Search(term string, opts store.ListOptions) []store.Entry
	Pin(id string) error
	Unpin(id string) error
	Delete(id string) error
	Counts() (pinned, unpinned int)
	HistoryLimit() int
}

// Paster pastes an entry into the previously focused application.
type Paster interface {
	Paste(ctx context.Context, id string) (store.Entry, error)
	RememberFocus()
}

// Visibility is told when the overlay is shown or hidden so it can bind
// navigation keys. *hotkey.Listener implements it.
type Visibility interface {
	SetVisible(visible bool) error
}

// Rechecker re-probes input permission. *hotkey.Listener implements it.
type Rechecker interface {
	Recheck() error
}

// Messages delivered to the program from outside the key loop.
type (
	HotkeyMsg          struct{ Event hotkey.Event }
	HistoryChangedMsg  struct{ Reason events.Reason }
	PermissionMsg      struct{ Status events.PermissionStatus }
	InjectionFailedMsg struct {
		ID  string
		Err error
	}
)

type pasteResultMsg struct {
	entry store.Entry
	err   error
}

type flashExpiredMsg struct{}

// Options configures the overlay.
type Options struct {
	History    History
	Paster     Paster     // nil disables paste
	Visibility Visibility // optional
	Rechecker  Rechecker  // optional

	// Hotkey is shown on the hidden screen.
	Hotkey string

	// Visible starts the overlay shown.
	Visible bool

	// Permission is the initial input permission state.
	Permission events.PermissionStatus

	// Context bounds paste operations.
	Context context.Context
}

// Selection is the highlighted entry id, shared with hotkey callbacks that
// run outside the program goroutine.
type Selection struct {
	mu sync.Mutex
	id string
}

// Get returns the highlighted id. It has the hotkey.SelectionFunc shape.
func (s *Selection) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, s.id != ""
}

func (s *Selection) set(id string) {
	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
}

// AppModel is the overlay's bubbletea model.
type AppModel struct {
	Width       int
	Height      int
	ListWidth   int
	DetailWidth int
	CurrentMode UIMode
	Visible     bool
	PinnedOnly  bool
	Permission  events.PermissionStatus

	List    ListModel
	Search  SearchModel
	Modal   ModalModel
	Entries []store.Entry

	FlashMessage string
	FlashExpiry  time.Time

	history    History
	paster     Paster
	visibility Visibility
	rechecker  Rechecker
	hotkey     string
	ctx        context.Context
	selection  *Selection
	pasting    bool
}

// NewAppModel creates the overlay model and loads the current history.
func NewAppModel(opts Options) *AppModel {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Permission == "" {
		opts.Permission = events.PermissionGranted
	}

	a := &AppModel{
		Width:      100,
		Height:     24,
		Visible:    opts.Visible,
		Permission: opts.Permission,
		List:       NewListModel(40, 22),
		Search:     NewSearchModel(),
		Modal:      NewModalModel(),
		history:    opts.History,
		paster:     opts.Paster,
		visibility: opts.Visibility,
		rechecker:  opts.Rechecker,
		hotkey:     opts.Hotkey,
		ctx:        opts.Context,
		selection:  &Selection{},
	}
	a.layout(a.Width, a.Height)
	a.refresh()
	return a
}

// Selection returns the shared highlighted-id holder.
func (a *AppModel) Selection() *Selection {
	return a.selection
}

// Init implements tea.Model
func (a *AppModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (a *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.layout(m.Width, m.Height)
		return a, nil
	case tea.KeyMsg:
		return a.handleKeyPress(m.String())
	case HotkeyMsg:
		return a.handleHotkey(m.Event)
	case HistoryChangedMsg:
		a.refresh()
		return a, nil
	case PermissionMsg:
		a.Permission = m.Status
		return a, nil
	case InjectionFailedMsg:
		return a, a.setFlashMessage(injectionFailedText(m.Err))
	case pasteResultMsg:
		return a.handlePasteResult(m)
	case flashExpiredMsg:
		if time.Now().After(a.FlashExpiry) {
			a.FlashMessage = ""
		}
		return a, nil
	}
	return a, nil
}

// layout splits the window between the list and detail panes
func (a *AppModel) layout(width, height int) {
	a.Width = max(width, 30)
	a.Height = max(height, 8)

	a.ListWidth = max(min(a.Width*2/5, 60), 20)
	a.DetailWidth = max(a.Width-a.ListWidth-4, 10)

	a.List.Update(ResizeListMsg{Width: a.ListWidth, Height: a.bodyHeight()})
}

// bodyHeight leaves room for the search and status lines
func (a *AppModel) bodyHeight() int {
	return a.Height - 2
}

// handleKeyPress dispatches on the current mode first
func (a *AppModel) handleKeyPress(key string) (tea.Model, tea.Cmd) {
	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.Visible {
		return a.handleHiddenKeys(key)
	}

	switch a.CurrentMode {
	case SearchMode:
		return a.handleSearchModeKeys(key)
	case HelpMode:
		return a.handleHelpModeKeys(key)
	case DeleteMode:
		return a.handleDeleteModeKeys(key)
	default:
		return a.handleNormalModeKeys(key)
	}
}

func (a *AppModel) handleHiddenKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		return a, tea.Quit
	case "enter", "o", " ":
		return a, a.show()
	}
	return a, nil
}

func (a *AppModel) handleSearchModeKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc":
		a.Search.Update(CancelSearchMsg{})
		a.CurrentMode = NormalMode
	case "enter":
		a.Search.Update(ExecuteSearchMsg{})
		a.CurrentMode = NormalMode
	case "up", "down":
		return a.moveCursor(key)
	case "backspace", "ctrl+h":
		a.Search.Backspace()
	default:
		if r := []rune(key); len(r) == 1 && r[0] >= ' ' {
			a.Search.Update(UpdateSearchInputMsg{Input: a.Search.Input + key})
		} else if key == "space" {
			a.Search.Update(UpdateSearchInputMsg{Input: a.Search.Input + " "})
		} else {
			return a, nil
		}
	}
	a.List.Update(GoToTopMsg{})
	a.refresh()
	return a, nil
}

func (a *AppModel) handleHelpModeKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "?", "esc", "q":
		a.CurrentMode = NormalMode
	}
	return a, nil
}

func (a *AppModel) handleDeleteModeKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y", "Y":
		a.Modal.Update(HideModalMsg{})
		a.CurrentMode = NormalMode
		entry := a.selected()
		if entry == nil {
			return a, nil
		}
		if err := a.history.Delete(entry.ID); err != nil {
			a.refresh()
			return a, a.setFlashMessage(fmt.Sprintf("Failed to delete: %v", err))
		}
		a.refresh()
		return a, a.setFlashMessage("Entry deleted")
	case "n", "N", "esc":
		a.Modal.Update(HideModalMsg{})
		a.CurrentMode = NormalMode
	}
	return a, nil
}

func (a *AppModel) handleNormalModeKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		return a, tea.Quit
	case "esc":
		if a.Search.Term() != "" {
			a.Search.Update(CancelSearchMsg{})
			a.refresh()
			return a, nil
		}
		return a, a.hide()
	case "?":
		a.CurrentMode = HelpMode
	case "/":
		a.Search.Update(StartSearchMsg{})
		a.CurrentMode = SearchMode
	case "up", "k", "down", "j", "g", "G", "home", "end":
		return a.moveCursor(key)
	case "enter":
		if entry := a.selected(); entry != nil {
			return a, a.paste(entry.ID)
		}
	case "p":
		return a, a.togglePin()
	case "d", "delete":
		if entry := a.selected(); entry != nil {
			a.Modal.Update(ShowDeleteConfirmation(engine.Preview(*entry, 40), entry.Pinned))
			a.CurrentMode = DeleteMode
		}
	case "tab":
		a.PinnedOnly = !a.PinnedOnly
		a.List.Update(GoToTopMsg{})
		a.refresh()
	case "r":
		return a, a.recheck()
	}
	return a, nil
}

func (a *AppModel) handleHotkey(ev hotkey.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case hotkey.ToggleVisibility:
		if a.Visible {
			return a, a.hide()
		}
		return a, a.show()
	case hotkey.Dismiss:
		if a.Visible {
			return a, a.hide()
		}
	case hotkey.NavigateUp:
		if a.Visible {
			return a.moveCursor("up")
		}
	case hotkey.NavigateDown:
		if a.Visible {
			return a.moveCursor("down")
		}
	case hotkey.Confirm:
		id := ev.ID
		if id == "" {
			if entry := a.selected(); entry != nil {
				id = entry.ID
			}
		}
		if id != "" {
			return a, a.paste(id)
		}
	}
	return a, nil
}

func (a *AppModel) moveCursor(key string) (tea.Model, tea.Cmd) {
	maxIndex := len(a.Entries) - 1
	switch key {
	case "up", "k":
		a.List.Update(NavigateUpMsg{})
	case "down", "j":
		a.List.Update(NavigateDownMsg{MaxIndex: maxIndex})
	case "g", "home":
		a.List.Update(GoToTopMsg{})
	case "G", "end":
		a.List.Update(GoToBottomMsg{MaxIndex: maxIndex})
	}
	a.syncSelection()
	return a, nil
}

// show makes the overlay visible, remembering the focused application
// first so a paste can return to it.
func (a *AppModel) show() tea.Cmd {
	if a.Visible {
		return nil
	}
	if a.paster != nil {
		a.paster.RememberFocus()
	}
	a.Visible = true
	a.CurrentMode = NormalMode
	a.List.Update(GoToTopMsg{})
	a.refresh()
	if a.visibility != nil {
		if err := a.visibility.SetVisible(true); err != nil {
			return a.setFlashMessage(fmt.Sprintf("Navigation keys unavailable: %v", err))
		}
	}
	return nil
}

// hide returns the overlay to its idle screen
func (a *AppModel) hide() tea.Cmd {
	if !a.Visible {
		return nil
	}
	a.Visible = false
	a.CurrentMode = NormalMode
	a.Modal.Update(HideModalMsg{})
	a.Search.Update(CancelSearchMsg{})
	if a.visibility != nil {
		if err := a.visibility.SetVisible(false); err != nil {
			return a.setFlashMessage(fmt.Sprintf("Failed to release navigation keys: %v", err))
		}
	}
	return nil
}

func (a *AppModel) paste(id string) tea.Cmd {
	if a.paster == nil {
		return a.setFlashMessage("Paste is unavailable")
	}
	if a.pasting {
		return nil
	}
	a.pasting = true
	p, ctx := a.paster, a.ctx
	return func() tea.Msg {
		entry, err := p.Paste(ctx, id)
		return pasteResultMsg{entry: entry, err: err}
	}
}

func (a *AppModel) handlePasteResult(m pasteResultMsg) (tea.Model, tea.Cmd) {
	a.pasting = false
	a.refresh()
	switch {
	case m.err == nil:
		hideCmd := a.hide()
		return a, tea.Batch(hideCmd, a.setFlashMessage(fmt.Sprintf("Pasted %s", engine.Preview(m.entry, 40))))
	case errors.Is(m.err, store.ErrNotFound):
		return a, a.setFlashMessage("That entry no longer exists")
	case errors.Is(m.err, inject.ErrInjectionFailed):
		return a, a.setFlashMessage(injectionFailedText(m.err))
	default:
		return a, a.setFlashMessage(fmt.Sprintf("Paste failed: %v", m.err))
	}
}

func injectionFailedText(err error) string {
	return fmt.Sprintf("Copied to clipboard, paste it manually (%v)", err)
}

func (a *AppModel) togglePin() tea.Cmd {
	entry := a.selected()
	if entry == nil {
		return nil
	}
	var err error
	msg := "Pinned"
	if entry.Pinned {
		err = a.history.Unpin(entry.ID)
		msg = "Unpinned"
	} else {
		err = a.history.Pin(entry.ID)
	}
	a.refresh()
	if err != nil {
		return a.setFlashMessage(fmt.Sprintf("Failed: %v", err))
	}
	return a.setFlashMessage(msg)
}

func (a *AppModel) recheck() tea.Cmd {
	if a.rechecker == nil {
		return nil
	}
	if err := a.rechecker.Recheck(); err != nil {
		return a.setFlashMessage(fmt.Sprintf("Hotkeys unavailable: %v", err))
	}
	return nil
}

// refresh reloads entries, keeping the cursor on the same entry when it is
// still listed.
func (a *AppModel) refresh() {
	var current string
	if entry := a.selected(); entry != nil {
		current = entry.ID
	}

	opts := store.ListOptions{PinnedOnly: a.PinnedOnly}
	if term := a.Search.Term(); term != "" {
		a.Entries = a.history.Search(term, opts)
	} else {
		a.Entries = a.history.List(opts)
	}

	if current != "" {
		for i, e := range a.Entries {
			if e.ID == current {
				a.List.Cursor = i
				break
			}
		}
	}
	a.List.Clamp(len(a.Entries))
	a.syncSelection()
}

func (a *AppModel) syncSelection() {
	if entry := a.selected(); entry != nil {
		a.selection.set(entry.ID)
		return
	}
	a.selection.set("")
}

func (a *AppModel) selected() *store.Entry {
	if a.List.Cursor < 0 || a.List.Cursor >= len(a.Entries) {
		return nil
	}
	return &a.Entries[a.List.Cursor]
}

// setFlashMessage shows message in the status line for a few seconds
func (a *AppModel) setFlashMessage(message string) tea.Cmd {
	a.FlashMessage = message
	a.FlashExpiry = time.Now().Add(flashDuration)
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashExpiredMsg{}
	})
}

// View implements tea.Model
func (a *AppModel) View() string {
	if !a.Visible {
		return a.renderHidden()
	}
	if a.CurrentMode == HelpMode {
		return renderHelpView(a.Width, a.Height) + "\n" + a.renderStatusLine()
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		ListView(a.List, a.Entries, a.listTitle(), true),
		DetailView(a.selected(), a.Search.Term(), a.DetailWidth, a.bodyHeight(), false),
	)
	body = ModalView(a.Modal, body, a.Width, a.bodyHeight())

	return body + "\n" + a.renderSearchLine() + "\n" + a.renderStatusLine()
}

func (a *AppModel) listTitle() string {
	title := "History"
	if a.PinnedOnly {
		title = "Pinned"
	}
	if term := a.Search.Term(); term != "" {
		title += fmt.Sprintf(" matching %q", term)
	}
	return fmt.Sprintf("%s (%d)", title, len(a.Entries))
}

func (a *AppModel) renderHidden() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("clipper") + " is recording your clipboard.\n\n")
	if a.hotkey != "" {
		fmt.Fprintf(&b, "Press %s anywhere to open history,\n", a.hotkey)
		b.WriteString("or enter here. ")
	} else {
		b.WriteString("Press enter to open history. ")
	}
	b.WriteString("q quits.")

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(1, 2).
		Render(b.String())
	return box + "\n" + a.renderStatusLine()
}

func (a *AppModel) renderSearchLine() string {
	switch {
	case a.CurrentMode == SearchMode:
		return "/" + a.Search.Input + lipgloss.NewStyle().Faint(true).Render("  (enter keeps filter, esc clears)")
	case a.Search.Term() != "":
		return lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf("filter: %s  (esc clears)", a.Search.Term()))
	}
	return ""
}

// renderStatusLine renders the bottom status line
func (a *AppModel) renderStatusLine() string {
	style := lipgloss.NewStyle().Width(a.Width)

	if a.FlashMessage != "" && time.Now().Before(a.FlashExpiry) {
		return style.Foreground(lipgloss.Color("10")).Render(a.FlashMessage)
	}
	if a.Permission == events.PermissionDenied {
		return style.Foreground(lipgloss.Color("9")).
			Render("Hotkeys disabled: grant input permission, then press r to recheck")
	}

	pinned, unpinned := a.history.Counts()
	return style.Faint(true).Render(fmt.Sprintf("%d pinned, %d/%d recent  enter paste  p pin  d delete  / search  ? help",
		pinned, unpinned, a.history.HistoryLimit()))
}

func renderHelpView(width, height int) string {
	help := `clipper: clipboard history

NAVIGATION
  j, down     Next entry
  k, up       Previous entry
  g, G        First / last entry
  tab         Toggle pinned-only view

ACTIONS
  enter       Paste the entry into the previous application
  p           Pin or unpin (pinned entries are never evicted)
  d           Delete the entry
  /           Filter by text, case-insensitive
  r           Recheck hotkey permission

OVERLAY
  esc         Clear the filter, or hide
  q           Quit clipper
  ?           Close this help`

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(1).
		Width(max(width-4, 20)).
		Height(max(height-4, 5)).
		Render(help)
}
