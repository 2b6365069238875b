package chat

import (
	"charm.land/bubbles/v2/help"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/guilhermegouw/hiwar/internal/i18n"
	"github.com/guilhermegouw/hiwar/internal/tui/styles"
)

// Status is what the status bar reports on its left side.
type Status int

// Status values.
const (
	StatusReady Status = iota
	StatusStreaming
	StatusCancelled
	StatusFailed
	StatusTimedOut
	StatusNotice
	StatusError
)

// StatusBar shows the turn state, a notice, and key help.
type StatusBar struct {
	cat     i18n.Catalog
	keys    KeyMap
	help    help.Model
	spinner *Spinner

	status Status
	detail string
	title  string
	width  int
}

// NewStatusBar creates a status bar reading frames from spinner.
func NewStatusBar(cat i18n.Catalog, keys KeyMap, spinner *Spinner) *StatusBar {
	return &StatusBar{
		cat:     cat,
		keys:    keys,
		help:    help.New(),
		spinner: spinner,
	}
}

// SetStatus sets the status and clears any detail.
func (s *StatusBar) SetStatus(status Status) {
	s.status = status
	s.detail = ""
}

// SetNotice shows a one-off message.
func (s *StatusBar) SetNotice(msg string) {
	s.status = StatusNotice
	s.detail = msg
}

// SetError shows an error message.
func (s *StatusBar) SetError(msg string) {
	s.status = StatusError
	s.detail = msg
}

// Status returns the current status.
func (s *StatusBar) Status() Status {
	return s.status
}

// SetTitle sets the current session title.
func (s *StatusBar) SetTitle(title string) {
	s.title = title
}

// SetWidth sets the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.width = width
}

// Text is the plain status text, without styling.
func (s *StatusBar) Text() string {
	switch s.status {
	case StatusStreaming:
		return s.cat.T(i18n.StatusStreaming)
	case StatusCancelled:
		return s.cat.T(i18n.StatusCancelled)
	case StatusFailed:
		return s.cat.T(i18n.StatusFailed)
	case StatusTimedOut:
		return s.cat.T(i18n.StatusTimedOut)
	case StatusNotice, StatusError:
		return s.detail
	}
	return s.cat.T(i18n.StatusReady)
}

// View renders the status bar.
func (s *StatusBar) View() string {
	t := styles.CurrentTheme()

	style := t.S().Success
	switch s.status {
	case StatusStreaming, StatusNotice:
		style = t.S().Info
	case StatusCancelled, StatusTimedOut:
		style = t.S().Warning
	case StatusFailed, StatusError:
		style = t.S().Error
	case StatusReady:
	}

	text := s.Text()
	if frame := s.spinner.View(); frame != "" {
		text = frame + " " + text
	}
	if s.title != "" {
		text += t.S().Muted.Render(" · " + s.title)
	}

	right := s.help.ShortHelpView(s.keys.ShortHelp())
	left := ansi.Truncate(style.Render(text), max(1, s.width-lipgloss.Width(right)-3), "…")

	gap := max(1, s.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	return lipgloss.NewStyle().
		Width(max(1, s.width)).
		Padding(0, 1).
		Render(left + lipgloss.NewStyle().Width(gap).Render("") + right)
}
