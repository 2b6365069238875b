// Package chat is the chat page: transcript, input box, status bar and
// the history sidebar, all driven by the chat controller.
package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"

	"github.com/guilhermegouw/hiwar/internal/bridge"
	controller "github.com/guilhermegouw/hiwar/internal/chat"
	"github.com/guilhermegouw/hiwar/internal/debug"
	"github.com/guilhermegouw/hiwar/internal/events"
	"github.com/guilhermegouw/hiwar/internal/i18n"
	"github.com/guilhermegouw/hiwar/internal/message"
	"github.com/guilhermegouw/hiwar/internal/pubsub"
	"github.com/guilhermegouw/hiwar/internal/session"
	"github.com/guilhermegouw/hiwar/internal/tui/components/sessions"
	"github.com/guilhermegouw/hiwar/internal/tui/util"
)

const (
	sidebarMaxWidth = 34
	sidebarMinTotal = 70 // hide the sidebar below this terminal width
)

// sessionsLoadedMsg carries a fresh read of the store.
type sessionsLoadedMsg struct {
	list []session.Session
	err  error
}

// Options configures the page.
type Options struct {
	Controller *controller.Controller
	Catalog    i18n.Catalog
	// ExportDir is where /export writes when no path is given.
	ExportDir string
	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error
	Clock     func() time.Time
}

// Model is the chat page model.
type Model struct { //nolint:govet // fieldalignment: preserving logical field order
	ctx       context.Context
	ctrl      *controller.Controller
	cat       i18n.Catalog
	keys      KeyMap
	commands  *CommandRegistry
	exportDir string
	clipboard func(string) error
	now       func() time.Time

	messages *MessageList
	input    *Input
	spinner  *Spinner
	status   *StatusBar
	history  *sessions.History

	showSidebar bool
	width       int
	height      int
}

// New creates the chat page. ctx bounds every turn the page starts.
func New(ctx context.Context, opts Options) *Model {
	keys := DefaultKeyMap()
	spinner := &Spinner{}
	m := &Model{
		ctx:         ctx,
		ctrl:        opts.Controller,
		cat:         opts.Catalog,
		keys:        keys,
		commands:    NewCommandRegistry(),
		exportDir:   opts.ExportDir,
		clipboard:   opts.Clipboard,
		now:         opts.Clock,
		messages:    NewMessageList(opts.Catalog),
		input:       NewInput(opts.Catalog.T(i18n.InputPlaceholder)),
		spinner:     spinner,
		status:      NewStatusBar(opts.Catalog, keys, spinner),
		history:     sessions.NewHistory(opts.Catalog),
		showSidebar: true,
	}
	if m.clipboard == nil {
		m.clipboard = clipboard.WriteAll
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.exportDir == "" {
		m.exportDir = "."
	}
	m.resync()
	return m
}

// Init loads the history and starts the cursor blink.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.input.Init(), m.loadSessions())
}

// Update handles messages.
//
//nolint:gocyclo // page routes every message type
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseWheelMsg:
		var cmd tea.Cmd
		m.messages, cmd = m.messages.Update(msg)
		return m, cmd

	case spinnerTickMsg:
		return m, m.spinner.Update(msg)

	case bridge.ChatEventMsg:
		return m, m.handleChatEvent(msg.Event)

	case bridge.SessionEventMsg:
		return m, m.handleSessionEvent(msg.Event)

	case bridge.StoreChangedMsg:
		debug.Event("chat", "StoreChanged", "reloading history")
		return m, m.loadSessions()

	case sessionsLoadedMsg:
		if msg.err != nil {
			m.status.SetError(msg.err.Error())
			return m, nil
		}
		m.history.SetSessions(msg.list)
		return m, nil

	case util.InfoMsg:
		if msg.Type == util.InfoTypeError {
			m.status.SetError(msg.Msg)
		} else {
			m.status.SetNotice(msg.Msg)
		}
		return m, nil

	case sessions.SessionSelectedMsg:
		m.closeHistory()
		return m, m.report(m.ctrl.LoadSession(m.ctx, msg.SessionID), "")
	case sessions.NewSessionMsg:
		m.closeHistory()
		m.ctrl.NewSession(m.ctx)
		return m, m.input.Focus()
	case sessions.RenameSessionMsg:
		return m, m.report(m.ctrl.RenameSession(m.ctx, msg.SessionID, msg.Title), "")
	case sessions.DeleteSessionMsg:
		return m, m.report(m.ctrl.DeleteSession(m.ctx, msg.SessionID), "")
	case sessions.ClearHistoryMsg:
		return m, m.report(m.ctrl.ClearHistory(m.ctx), "")
	case sessions.ClosedMsg:
		return m, m.input.Focus()

	case NewChatMsg:
		m.ctrl.NewSession(m.ctx)
		return m, nil
	case ClearChatMsg:
		return m, m.report(m.ctrl.ClearTranscript(m.ctx), "")
	case RegenerateMsg:
		_, err := m.ctrl.Regenerate(m.ctx)
		return m, m.report(err, "")
	case ExportMsg:
		return m, m.export(msg.Path)
	case CopyMsg:
		return m, m.copyLast()
	case HelpMsg:
		m.status.SetNotice(m.commands.Usage())
		return m, nil
	case UnknownCommandMsg:
		m.status.SetError("/" + msg.Command + "?")
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.history.Focused() {
		var cmd tea.Cmd
		m.history, cmd = m.history.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Send):
		return m, m.submit()
	case key.Matches(msg, m.keys.Stop):
		if !m.ctrl.CancelStreaming() {
			m.input.Clear()
		}
		return m, nil
	case key.Matches(msg, m.keys.NewChat):
		m.ctrl.NewSession(m.ctx)
		return m, nil
	case key.Matches(msg, m.keys.History):
		if m.sidebarVisible() {
			m.input.Blur()
			m.history.Focus()
		}
		return m, nil
	case key.Matches(msg, m.keys.Sidebar):
		m.showSidebar = !m.showSidebar
		m.layout()
		return m, nil
	case key.Matches(msg, m.keys.Copy):
		return m, m.copyLast()
	case key.Matches(msg, m.keys.Regenerate):
		_, err := m.ctrl.Regenerate(m.ctx)
		return m, m.report(err, "")
	case key.Matches(msg, m.keys.Export):
		return m, m.export("")
	case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
		var cmd tea.Cmd
		m.messages, cmd = m.messages.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit is the send button: it stops a streaming reply, runs a slash
// command, or sends the input as a message.
func (m *Model) submit() tea.Cmd {
	value := m.input.Value()
	if !m.ctrl.State().Busy() {
		if msg, ok := m.commands.Parse(value); ok {
			m.input.Clear()
			return util.CmdHandler(msg)
		}
	}

	turn, err := m.ctrl.Submit(m.ctx, value)
	switch {
	case errors.Is(err, controller.ErrEmptyMessage):
		m.status.SetNotice(m.cat.T(i18n.EnterMessage))
		return nil
	case err != nil:
		return util.ReportError(err)
	case turn == nil:
		// stopped the reply in flight; the draft stays
		return nil
	}
	m.input.Clear()
	return nil
}

func (m *Model) handleChatEvent(e pubsub.Event[events.ChatEvent]) tea.Cmd {
	p := e.Payload
	if p.SessionID != m.ctrl.CurrentSessionID() {
		return nil
	}

	switch p.Type {
	case events.ChatMessageAppended:
		if p.MessageType == string(message.TypeBot) {
			m.messages.ClearPending()
		}
		m.messages.SetMessages(m.ctrl.Transcript())
	case events.ChatMessageUpdated:
		m.messages.SetPending(p.Text)
	case events.ChatStreamStarted:
		m.status.SetStatus(StatusStreaming)
		m.input.SetBusy(true)
		return m.spinner.Start(p.TurnID)
	case events.ChatStreamFinished:
		m.endTurn()
		switch controller.Outcome(p.Outcome) {
		case controller.OutcomeFailed:
			m.status.SetStatus(StatusFailed)
		case controller.OutcomeTimedOut:
			m.status.SetStatus(StatusTimedOut)
		case controller.OutcomeCancelled:
			m.status.SetStatus(StatusCancelled)
		case controller.OutcomeCompleted:
			m.status.SetStatus(StatusReady)
		}
		m.status.SetTitle(m.title())
	case events.ChatStreamCancelled:
		m.endTurn()
		m.status.SetStatus(StatusCancelled)
	case events.ChatTranscriptReset:
		m.messages.ClearPending()
		m.messages.SetMessages(m.ctrl.Transcript())
	}
	return nil
}

func (m *Model) endTurn() {
	m.spinner.Stop()
	m.input.SetBusy(false)
	m.messages.ClearPending()
}

func (m *Model) handleSessionEvent(e pubsub.Event[events.SessionEvent]) tea.Cmd {
	switch e.Payload.Type {
	case events.SessionEventSwitched, events.SessionEventCleared:
		m.endTurn()
		m.resync()
		m.status.SetStatus(StatusReady)
	case events.SessionEventUpdated, events.SessionEventCreated:
		m.status.SetTitle(m.title())
	case events.SessionEventDeleted:
	case events.SessionEventListChanged:
		return m.loadSessions()
	}
	return nil
}

// resync redraws from the controller's committed state.
func (m *Model) resync() {
	m.messages.SetMessages(m.ctrl.Transcript())
	m.history.SetActive(m.ctrl.CurrentSessionID())
	m.status.SetTitle(m.title())
}

func (m *Model) title() string {
	title := m.ctrl.Current().Title
	if i18n.IsPlaceholderTitle(title) {
		return m.cat.T(i18n.NewChatTitle)
	}
	return title
}

func (m *Model) loadSessions() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		list, err := ctrl.Sessions(ctx)
		return sessionsLoadedMsg{list: list, err: err}
	}
}

func (m *Model) report(err error, success string) tea.Cmd {
	if err != nil {
		return util.ReportError(err)
	}
	if success != "" {
		return util.ReportSuccess(success)
	}
	return nil
}

func (m *Model) copyLast() tea.Cmd {
	last, ok := message.LastBot(m.ctrl.Transcript())
	if !ok {
		return util.ReportInfo(m.cat.T(i18n.NothingToExport))
	}
	if err := m.clipboard(last.Text); err != nil {
		return util.ReportError(fmt.Errorf("copying reply: %w", err))
	}
	return util.ReportSuccess(m.cat.T(i18n.StatusCopied))
}

func (m *Model) export(path string) tea.Cmd {
	doc, err := m.ctrl.ExportMarkdown()
	if errors.Is(err, session.ErrNothingToExport) {
		return util.ReportInfo(m.cat.T(i18n.NothingToExport))
	}
	if err != nil {
		return util.ReportError(err)
	}
	if path == "" {
		path = filepath.Join(m.exportDir, fmt.Sprintf("chat-%s.md", m.now().Format("2006-01-02-150405")))
	}
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		return util.ReportError(fmt.Errorf("writing export: %w", err))
	}
	return util.ReportSuccess(m.cat.Tf(i18n.StatusSaved, path))
}

func (m *Model) closeHistory() {
	m.history.Blur()
	m.input.Focus()
}

// SetSize sets the page size.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.layout()
}

func (m *Model) sidebarVisible() bool {
	return m.showSidebar && m.width >= sidebarMinTotal
}

func (m *Model) sidebarWidth() int {
	if !m.sidebarVisible() {
		return 0
	}
	return min(sidebarMaxWidth, m.width/3)
}

func (m *Model) layout() {
	if !m.sidebarVisible() && m.history.Focused() {
		m.closeHistory()
	}
	mainWidth := m.width - m.sidebarWidth()
	m.history.SetSize(m.sidebarWidth(), m.height)
	m.input.SetWidth(mainWidth)
	m.status.SetWidth(mainWidth)
	m.messages.SetSize(mainWidth, m.messagesHeight())
}

func (m *Model) messagesHeight() int {
	return max(1, m.height-m.input.Height()-1)
}

// View renders the chat page.
func (m *Model) View() string {
	main := lipgloss.JoinVertical(lipgloss.Left,
		m.messages.View(),
		m.input.View(),
		m.status.View(),
	)
	if !m.sidebarVisible() {
		return main
	}
	if m.cat.RTL() {
		return lipgloss.JoinHorizontal(lipgloss.Top, main, m.history.View())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.history.View(), main)
}

// Cursor returns the cursor position on screen.
func (m *Model) Cursor() *tea.Cursor {
	mainX, sideX := m.sidebarWidth(), 0
	if m.cat.RTL() {
		mainX, sideX = 0, m.width-m.sidebarWidth()
	}
	if m.history.Focused() {
		c := m.history.Cursor()
		if c != nil {
			c.X += sideX
		}
		return c
	}
	c := m.input.Cursor()
	if c != nil {
		c.X += mainX
		c.Y += m.messagesHeight()
	}
	return c
}
