package pubsub

import (
	"sync"

	"github.com/guilhermegouw/hiwar/internal/events"
)

// chatBufferSize is larger than the default because a fast stream
// publishes one update per chunk.
const chatBufferSize = 256

// Hub is the central container for all domain brokers.
type Hub struct { //nolint:govet // fieldalignment: preserving logical field order
	Chat    *Broker[events.ChatEvent]
	Session *Broker[events.SessionEvent]

	registry *Registry
	once     sync.Once
	done     chan struct{}
}

// NewHub creates a Hub with all domain brokers initialized.
func NewHub() *Hub {
	h := &Hub{
		Chat: NewBroker("chat",
			WithBufferSize[events.ChatEvent](chatBufferSize),
			WithOverflow[events.ChatEvent](DropOldest)),
		Session:  NewBroker[events.SessionEvent]("session"),
		registry: NewRegistry(),
		done:     make(chan struct{}),
	}

	h.registry.Register("chat", h.Chat)
	h.registry.Register("session", h.Session)

	return h
}

// Shutdown shuts down all brokers. It is safe to call more than once.
func (h *Hub) Shutdown() {
	h.once.Do(func() {
		close(h.done)
		h.Chat.Shutdown()
		h.Session.Shutdown()
	})
}

// IsShutdown returns true if the hub has been shut down.
func (h *Hub) IsShutdown() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that's closed when the hub is shut down.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Registry returns the debug registry for introspection.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// DebugString returns a formatted debug string for all brokers.
func (h *Hub) DebugString() string {
	return h.registry.DebugString()
}
