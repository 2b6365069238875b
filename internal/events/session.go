package events

import "time"

// SessionEventType represents session-specific event types.
type SessionEventType string

// Session event type constants.
const (
	SessionEventCreated     SessionEventType = "created"
	SessionEventUpdated     SessionEventType = "updated"
	SessionEventDeleted     SessionEventType = "deleted"
	SessionEventSwitched    SessionEventType = "switched"
	SessionEventCleared     SessionEventType = "cleared"
	SessionEventListChanged SessionEventType = "list_changed"
)

// SessionEvent represents a change to the stored session list.
type SessionEvent struct {
	SessionID string
	Title     string
	Type      SessionEventType
	Count     int // list length after the change, for ListChanged
	Timestamp time.Time
}

// NewSessionCreatedEvent reports a session inserted into the store.
func NewSessionCreatedEvent(id, title string) SessionEvent {
	return SessionEvent{
		SessionID: id,
		Title:     title,
		Type:      SessionEventCreated,
		Timestamp: time.Now(),
	}
}

// NewSessionUpdatedEvent reports a stored session rewritten in place.
func NewSessionUpdatedEvent(id, title string) SessionEvent {
	return SessionEvent{
		SessionID: id,
		Title:     title,
		Type:      SessionEventUpdated,
		Timestamp: time.Now(),
	}
}

// NewSessionSwitchedEvent reports a change of the current session.
func NewSessionSwitchedEvent(id, title string) SessionEvent {
	return SessionEvent{
		SessionID: id,
		Title:     title,
		Type:      SessionEventSwitched,
		Timestamp: time.Now(),
	}
}

// NewSessionDeletedEvent reports a session removed from the store.
func NewSessionDeletedEvent(id string) SessionEvent {
	return SessionEvent{
		SessionID: id,
		Type:      SessionEventDeleted,
		Timestamp: time.Now(),
	}
}

// NewSessionClearedEvent reports that the whole history was wiped.
func NewSessionClearedEvent() SessionEvent {
	return SessionEvent{
		Type:      SessionEventCleared,
		Timestamp: time.Now(),
	}
}

// NewSessionListChangedEvent asks the view to redraw the history list.
func NewSessionListChangedEvent(count int) SessionEvent {
	return SessionEvent{
		Type:      SessionEventListChanged,
		Count:     count,
		Timestamp: time.Now(),
	}
}
