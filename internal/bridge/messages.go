// Package bridge forwards hub events into a Bubble Tea program.
package bridge

import (
	"github.com/guilhermegouw/hiwar/internal/events"
	"github.com/guilhermegouw/hiwar/internal/pubsub"
)

// ChatEventMsg wraps a transcript change for the TUI.
type ChatEventMsg struct {
	Event pubsub.Event[events.ChatEvent]
}

// SessionEventMsg wraps a session list change for the TUI.
type SessionEventMsg struct {
	Event pubsub.Event[events.SessionEvent]
}

// StoreChangedMsg reports that another process rewrote the store.
type StoreChangedMsg struct{}
