// Package pubsub provides a type-safe pub/sub broker implementation.
package pubsub

import "time"

// EventType is the coarse kind of an event; the payload carries the
// domain detail.
type EventType string

// Event types.
const (
	EventCreated   EventType = "created"
	EventUpdated   EventType = "updated"
	EventDeleted   EventType = "deleted"
	EventStarted   EventType = "started"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
	EventCancelled EventType = "cancelled"
)

// Event represents a typed event with metadata. Seq increases by one
// per publish on a broker, so a subscriber can tell when it missed
// events.
type Event[T any] struct { //nolint:govet // fieldalignment: preserving logical field order
	Type      EventType
	Payload   T
	Seq       uint64
	Timestamp time.Time
}
