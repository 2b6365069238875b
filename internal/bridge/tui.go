package bridge

import (
	"context"
	"sync"

	tea "charm.land/bubbletea/v2"

	"github.com/guilhermegouw/hiwar/internal/debug"
	"github.com/guilhermegouw/hiwar/internal/events"
	"github.com/guilhermegouw/hiwar/internal/pubsub"
)

// Sender is the part of *tea.Program the bridge needs.
type Sender interface {
	Send(tea.Msg)
}

// TUIBridge subscribes to the hub brokers and forwards events to a
// Bubble Tea program.
type TUIBridge struct { //nolint:govet // fieldalignment: preserving logical field order
	hub     *pubsub.Hub
	program Sender

	mu            sync.RWMutex
	sessionFilter string // only forward chat events for this session

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// TUIBridgeOption configures the TUIBridge.
type TUIBridgeOption func(*TUIBridge)

// WithSessionFilter only forwards chat events for the given session.
func WithSessionFilter(sessionID string) TUIBridgeOption {
	return func(b *TUIBridge) {
		b.sessionFilter = sessionID
	}
}

// NewTUIBridge creates a new TUI bridge.
func NewTUIBridge(hub *pubsub.Hub, program Sender, opts ...TUIBridgeOption) *TUIBridge {
	b := &TUIBridge{
		hub:     hub,
		program: program,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start begins forwarding events. Call Stop to shut down.
func (b *TUIBridge) Start(ctx context.Context) {
	b.ctx, b.cancel = context.WithCancel(ctx)

	// Subscribe before returning so no event published after Start is lost.
	chat := b.hub.Chat.Subscribe(b.ctx)
	sessions := b.hub.Session.Subscribe(b.ctx)

	b.wg.Add(2)
	go forward(b, chat, func(e pubsub.Event[events.ChatEvent]) bool {
		return b.accepts(e.Payload.SessionID)
	}, func(e pubsub.Event[events.ChatEvent]) tea.Msg { return ChatEventMsg{Event: e} })
	go forward(b, sessions, nil, func(e pubsub.Event[events.SessionEvent]) tea.Msg {
		return SessionEventMsg{Event: e}
	})

	debug.Event("bridge", "start", "TUI bridge started")
}

// WatchStore forwards each tick of changes as a StoreChangedMsg until
// the bridge stops or changes is closed.
func (b *TUIBridge) WatchStore(changes <-chan struct{}) {
	if b.ctx == nil || changes == nil {
		return
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-b.ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				b.program.Send(StoreChangedMsg{})
			}
		}
	}()
}

// Stop shuts the bridge down and waits for the forwarders. It is safe to
// call more than once, and before Start.
func (b *TUIBridge) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	debug.Event("bridge", "stop", "TUI bridge stopped")
}

// SetSessionFilter updates the session filter at runtime.
func (b *TUIBridge) SetSessionFilter(sessionID string) {
	b.mu.Lock()
	b.sessionFilter = sessionID
	b.mu.Unlock()
}

// ClearSessionFilter removes the session filter.
func (b *TUIBridge) ClearSessionFilter() {
	b.SetSessionFilter("")
}

func (b *TUIBridge) accepts(sessionID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sessionFilter == "" || sessionID == b.sessionFilter
}

func forward[T any](b *TUIBridge, ch <-chan pubsub.Event[T], keep func(pubsub.Event[T]) bool, wrap func(pubsub.Event[T]) tea.Msg) {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if keep != nil && !keep(event) {
				continue
			}
			b.program.Send(wrap(event))
		}
	}
}
