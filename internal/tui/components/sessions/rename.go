package sessions

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

const maxTitleLength = 60

// RenameInput edits a session title in place of its list entry.
type RenameInput struct {
	input textinput.Model
}

// NewRenameInput creates a new rename input.
func NewRenameInput(placeholder string) *RenameInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "✎ "
	ti.CharLimit = maxTitleLength

	return &RenameInput{input: ti}
}

// SetWidth sets the input width.
func (r *RenameInput) SetWidth(width int) {
	r.input.SetWidth(max(1, width))
}

// SetValue sets the input value with the cursor at the end.
func (r *RenameInput) SetValue(value string) {
	r.input.SetValue(value)
	r.input.CursorEnd()
}

// Value returns the title typed so far with runs of whitespace
// collapsed.
func (r *RenameInput) Value() string {
	return strings.Join(strings.Fields(r.input.Value()), " ")
}

// Focus focuses the input.
func (r *RenameInput) Focus() tea.Cmd {
	return r.input.Focus()
}

// Reset clears and blurs the input.
func (r *RenameInput) Reset() {
	r.input.SetValue("")
	r.input.Blur()
}

// Update handles messages.
func (r *RenameInput) Update(msg tea.Msg) (*RenameInput, tea.Cmd) {
	var cmd tea.Cmd
	r.input, cmd = r.input.Update(msg)
	return r, cmd
}

// View renders the input.
func (r *RenameInput) View() string {
	return r.input.View()
}

// Cursor returns the cursor position.
func (r *RenameInput) Cursor() *tea.Cursor {
	return r.input.Cursor()
}
