package tui

// SearchMsg represents messages that the search component handles
type SearchMsg interface {
	isSearchMsg()
}

type StartSearchMsg struct{}

func (StartSearchMsg) isSearchMsg() {}

type UpdateSearchInputMsg struct {
	Input string
}

func (UpdateSearchInputMsg) isSearchMsg() {}

type ExecuteSearchMsg struct{}

func (ExecuteSearchMsg) isSearchMsg() {}

type CancelSearchMsg struct{}

func (CancelSearchMsg) isSearchMsg() {}

// SearchModel holds the search input. The list filters as the user types.
type SearchModel struct {
	Active bool   // true while the input has focus
	Input  string // current input
}

// NewSearchModel creates an inactive search model
func NewSearchModel() SearchModel {
	return SearchModel{}
}

// Update applies a search message
func (s *SearchModel) Update(msg SearchMsg) {
	switch m := msg.(type) {
	case StartSearchMsg:
		s.Active = true
	case UpdateSearchInputMsg:
		s.Input = m.Input
	case ExecuteSearchMsg:
		s.Active = false
	case CancelSearchMsg:
		s.Active = false
		s.Input = ""
	}
}

// Term returns the filter currently applied to the list
func (s *SearchModel) Term() string {
	return s.Input
}

// Backspace removes the last rune of the input
func (s *SearchModel) Backspace() {
	r := []rune(s.Input)
	if len(r) > 0 {
		s.Input = string(r[:len(r)-1])
	}
}
