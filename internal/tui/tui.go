// Package tui provides the terminal user interface for hiwar.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"

	"github.com/guilhermegouw/hiwar/internal/bridge"
	controller "github.com/guilhermegouw/hiwar/internal/chat"
	"github.com/guilhermegouw/hiwar/internal/debug"
	"github.com/guilhermegouw/hiwar/internal/i18n"
	"github.com/guilhermegouw/hiwar/internal/tui/page/chat"
)

// ErrNoTerminal is returned by Run when stdin is not a TTY.
var ErrNoTerminal = errors.New("hiwar requires an interactive terminal: stdin/stdout must be connected to a TTY")

// Options configures Run.
type Options struct { //nolint:govet // fieldalignment: preserving logical field order
	Controller *controller.Controller
	Catalog    i18n.Catalog
	// Watch delivers a value whenever another process changes the store.
	Watch     <-chan struct{}
	ExportDir string
}

// Model is the main TUI model.
type Model struct {
	chatPage *chat.Model
	width    int
	height   int
	ready    bool
}

// New creates the root model around a chat page.
func New(ctx context.Context, opts Options) *Model {
	return &Model{
		chatPage: chat.New(ctx, chat.Options{
			Controller: opts.Controller,
			Catalog:    opts.Catalog,
			ExportDir:  opts.ExportDir,
		}),
	}
}

// Init initializes the TUI.
func (m *Model) Init() tea.Cmd {
	return m.chatPage.Init()
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		debug.Event("tui", "WindowSize", fmt.Sprintf("width=%d height=%d", msg.Width, msg.Height))
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.chatPage.SetSize(m.width, m.height)
		return m, nil
	case tea.KeyMsg:
		debug.Event("tui", "KeyMsg", fmt.Sprintf("key=%q", msg.String()))
	case bridge.ChatEventMsg:
		// one per chunk; too noisy to log
	default:
		debug.Event("tui", "Msg", fmt.Sprintf("type=%T", msg))
	}

	_, cmd := m.chatPage.Update(msg)
	return m, cmd
}

// View renders the TUI.
func (m *Model) View() tea.View {
	var view tea.View
	view.AltScreen = true
	view.MouseMode = tea.MouseModeCellMotion

	if !m.ready {
		view.Content = "..."
		return view
	}
	view.Content = m.chatPage.View()
	view.Cursor = m.chatPage.Cursor()
	return view
}

// Run starts the TUI program and blocks until the user quits or ctx is
// done.
func Run(ctx context.Context, opts Options) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ErrNoTerminal
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := New(ctx, opts)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	// Forward pub/sub events to Bubble Tea messages.
	tuiBridge := bridge.NewTUIBridge(opts.Controller.Hub(), p)
	tuiBridge.Start(ctx)
	defer tuiBridge.Stop()
	if opts.Watch != nil {
		tuiBridge.WatchStore(opts.Watch)
	}

	_, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
