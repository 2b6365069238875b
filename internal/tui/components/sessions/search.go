package sessions

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/guilhermegouw/hiwar/internal/i18n"
	"github.com/guilhermegouw/hiwar/internal/tui/styles"
)

// SearchBox is a one-line filter with a result count.
type SearchBox struct {
	input   textinput.Model
	cat     i18n.Catalog
	width   int
	count   int
	visible bool
}

// NewSearchBox creates a hidden search box.
func NewSearchBox(cat i18n.Catalog) *SearchBox {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.CharLimit = 100

	return &SearchBox{input: ti, cat: cat}
}

// SetWidth sets the search box width.
func (s *SearchBox) SetWidth(width int) {
	s.width = width
}

// SetCount sets the number of matches shown next to the input.
func (s *SearchBox) SetCount(n int) {
	s.count = n
}

// Show makes the box visible and focuses it.
func (s *SearchBox) Show() tea.Cmd {
	s.visible = true
	s.input.SetValue("")
	return s.input.Focus()
}

// Hide hides and clears the box.
func (s *SearchBox) Hide() {
	s.visible = false
	s.input.SetValue("")
	s.input.Blur()
}

// IsVisible returns whether the search box is visible.
func (s *SearchBox) IsVisible() bool {
	return s.visible
}

// Value returns the current search text.
func (s *SearchBox) Value() string {
	return s.input.Value()
}

// Update handles messages for the search input.
func (s *SearchBox) Update(msg tea.Msg) (*SearchBox, tea.Cmd) {
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// View renders the input and the match count on one line.
func (s *SearchBox) View() string {
	if !s.visible {
		return ""
	}
	t := styles.CurrentTheme()

	count := t.S().Muted.Render(s.cat.Tf(i18n.SearchResults, s.count))
	s.input.SetWidth(max(1, s.width-lipgloss.Width(count)-4))
	in := s.input.View()
	gap := max(1, s.width-lipgloss.Width(in)-lipgloss.Width(count))
	return in + strings.Repeat(" ", gap) + count
}

// Cursor returns the cursor for the text input.
func (s *SearchBox) Cursor() *tea.Cursor {
	if s.visible {
		return s.input.Cursor()
	}
	return nil
}
