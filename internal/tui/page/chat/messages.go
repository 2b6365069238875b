package chat

import (
	"strings"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/guilhermegouw/hiwar/internal/debug"
	"github.com/guilhermegouw/hiwar/internal/i18n"
	"github.com/guilhermegouw/hiwar/internal/message"
	"github.com/guilhermegouw/hiwar/internal/tui/components/logo"
	"github.com/guilhermegouw/hiwar/internal/tui/styles"
)

// MessageList shows the committed transcript followed by the reply that
// is still streaming, if any.
type MessageList struct { //nolint:govet // fieldalignment: preserving logical field order
	cat      i18n.Catalog
	markdown *MarkdownRenderer
	viewport viewport.Model

	messages  []message.Message
	pending   string
	streaming bool

	// rendered caches committed messages; it is rebuilt when the list or
	// the width changes.
	rendered []string
	width    int
	height   int
}

// NewMessageList creates an empty list.
func NewMessageList(cat i18n.Catalog) *MessageList {
	return &MessageList{
		cat:      cat,
		markdown: NewMarkdownRenderer(),
		viewport: viewport.New(),
	}
}

// SetMessages replaces the committed transcript.
func (m *MessageList) SetMessages(msgs []message.Message) {
	m.messages = msgs
	m.rendered = nil
	m.refresh(true)
}

// Messages returns the committed transcript shown.
func (m *MessageList) Messages() []message.Message {
	return m.messages
}

// SetPending shows buffer as the in-progress bot reply.
func (m *MessageList) SetPending(buffer string) {
	m.streaming = true
	m.pending = buffer
	m.refresh(false)
}

// ClearPending drops the in-progress reply.
func (m *MessageList) ClearPending() {
	m.streaming = false
	m.pending = ""
	m.refresh(false)
}

// Pending returns the in-progress reply and whether one is shown.
func (m *MessageList) Pending() (string, bool) {
	return m.pending, m.streaming
}

// SetSize sets the viewport size.
func (m *MessageList) SetSize(width, height int) {
	if width != m.width {
		m.rendered = nil
	}
	m.width = width
	m.height = height
	m.viewport.SetWidth(width)
	m.viewport.SetHeight(height)
	m.refresh(false)
}

// Update routes scroll keys and the mouse wheel to the viewport.
func (m *MessageList) Update(msg tea.Msg) (*MessageList, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the list.
func (m *MessageList) View() string {
	if len(m.messages) == 0 && !m.streaming {
		empty := logo.RenderWithTagline(m.cat, m.width)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, empty)
	}
	return m.viewport.View()
}

// refresh re-renders the content, following the bottom when the view was
// already there or follow is set.
func (m *MessageList) refresh(follow bool) {
	if m.width <= 0 {
		return
	}
	atBottom := m.viewport.AtBottom()

	if m.rendered == nil {
		m.rendered = make([]string, 0, len(m.messages))
		for _, msg := range m.messages {
			m.rendered = append(m.rendered, m.renderMessage(msg))
		}
	}
	blocks := m.rendered
	if m.streaming {
		blocks = append(blocks[:len(blocks):len(blocks)],
			m.renderMessage(message.Message{Type: message.TypeBot, Text: m.pending}))
	}
	m.viewport.SetContent(strings.Join(blocks, "\n\n"))

	if follow || atBottom {
		m.viewport.GotoBottom()
	}
}

func (m *MessageList) renderMessage(msg message.Message) string {
	t := styles.CurrentTheme()
	width := max(10, m.width-2)

	align := lipgloss.Left
	if m.cat.RTL() {
		align = lipgloss.Right
	}

	var header, body string
	if msg.IsUser() {
		header = t.S().Secondary.Bold(true).Render(m.cat.T(i18n.YouLabel))
		body = t.S().Text.Width(width).Align(align).Render(msg.Text)
	} else {
		header = t.S().Primary.Bold(true).Render(m.cat.T(i18n.AssistantLabel))
		rendered, err := m.markdown.Render(msg.Text, width)
		if err != nil {
			debug.Error("chat", err, "rendering markdown")
		}
		body = rendered
	}
	if !msg.Timestamp.IsZero() {
		header += t.S().Subtle.Render("  " + m.cat.Clock(msg.Timestamp))
	}
	header = lipgloss.NewStyle().Width(width).Align(align).Render(header)
	if body == "" {
		return header
	}
	return header + "\n" + body
}
