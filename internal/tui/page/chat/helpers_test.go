package chat

import (
	"time"

	"github.com/guilhermegouw/hiwar/internal/events"
	"github.com/guilhermegouw/hiwar/internal/pubsub"
)

func chatEvent(e events.ChatEvent) pubsub.Event[events.ChatEvent] {
	return pubsub.Event[events.ChatEvent]{
		Type:      pubsub.EventType(e.Type),
		Payload:   e,
		Timestamp: time.Now(),
	}
}
