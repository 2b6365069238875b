package chat

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/guilhermegouw/hiwar/internal/tui/styles"
)

// Input is the message box. It stays editable while a reply streams so
// the next message can be drafted.
type Input struct {
	textInput textinput.Model
	width     int
	busy      bool
}

// NewInput creates a new input component.
func NewInput(placeholder string) *Input {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 4096
	ti.Focus()

	return &Input{textInput: ti}
}

// Init starts the cursor blink.
func (i *Input) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input events.
func (i *Input) Update(msg tea.Msg) (*Input, tea.Cmd) {
	var cmd tea.Cmd
	i.textInput, cmd = i.textInput.Update(msg)
	return i, cmd
}

// View renders the input.
func (i *Input) View() string {
	t := styles.CurrentTheme()

	border := t.BorderFocus
	if i.busy {
		border = t.Secondary
	}
	if !i.textInput.Focused() {
		border = t.Border
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(max(1, i.width-2)).
		Render(i.textInput.View())
}

// Height is the rendered height including the border.
func (i *Input) Height() int {
	return 3
}

// SetWidth sets the outer width.
func (i *Input) SetWidth(width int) {
	i.width = width
	i.textInput.SetWidth(max(1, width-6))
}

// SetBusy switches the border color while a reply streams.
func (i *Input) SetBusy(busy bool) {
	i.busy = busy
}

// Value returns the current input value.
func (i *Input) Value() string {
	return i.textInput.Value()
}

// SetValue sets the input value.
func (i *Input) SetValue(value string) {
	i.textInput.SetValue(value)
}

// Clear clears the input.
func (i *Input) Clear() {
	i.textInput.SetValue("")
}

// Focus focuses the input.
func (i *Input) Focus() tea.Cmd {
	return i.textInput.Focus()
}

// Blur removes focus from the input.
func (i *Input) Blur() {
	i.textInput.Blur()
}

// Cursor returns the cursor relative to the input box.
func (i *Input) Cursor() *tea.Cursor {
	c := i.textInput.Cursor()
	if c != nil {
		c.X += 2
		c.Y++
	}
	return c
}
