// Package events defines the payloads published on the pub/sub hub.
package events

import (
	"time"
)

// ChatEventType identifies a change to the live transcript.
type ChatEventType string

// Chat event type constants.
const (
	ChatMessageAppended ChatEventType = "message_appended"
	ChatMessageUpdated  ChatEventType = "message_updated"
	ChatStreamStarted   ChatEventType = "stream_started"
	ChatStreamFinished  ChatEventType = "stream_finished"
	ChatStreamCancelled ChatEventType = "stream_cancelled"
	ChatTranscriptReset ChatEventType = "transcript_reset"
)

// ChatEvent describes one change the view must render.
type ChatEvent struct { //nolint:govet // fieldalignment: preserving logical field order
	SessionID string
	TurnID    uint64
	Type      ChatEventType
	Timestamp time.Time

	// MessageType and Text describe the appended message, or the whole
	// in-progress buffer for ChatMessageUpdated.
	MessageType string
	Text        string

	// Outcome and Error are set on ChatStreamFinished.
	Outcome string
	Error   error
}

// NewMessageAppendedEvent reports a message added to the transcript.
func NewMessageAppendedEvent(sessionID string, turnID uint64, messageType, text string) ChatEvent {
	return ChatEvent{
		SessionID:   sessionID,
		TurnID:      turnID,
		Type:        ChatMessageAppended,
		MessageType: messageType,
		Text:        text,
		Timestamp:   time.Now(),
	}
}

// NewMessageUpdatedEvent carries the full streaming buffer so far.
func NewMessageUpdatedEvent(sessionID string, turnID uint64, buffer string) ChatEvent {
	return ChatEvent{
		SessionID:   sessionID,
		TurnID:      turnID,
		Type:        ChatMessageUpdated,
		MessageType: "bot",
		Text:        buffer,
		Timestamp:   time.Now(),
	}
}

// NewStreamStartedEvent reports that a turn opened its stream.
func NewStreamStartedEvent(sessionID string, turnID uint64) ChatEvent {
	return ChatEvent{
		SessionID: sessionID,
		TurnID:    turnID,
		Type:      ChatStreamStarted,
		Timestamp: time.Now(),
	}
}

// NewStreamFinishedEvent reports how a turn ended.
func NewStreamFinishedEvent(sessionID string, turnID uint64, outcome string, err error) ChatEvent {
	return ChatEvent{
		SessionID: sessionID,
		TurnID:    turnID,
		Type:      ChatStreamFinished,
		Outcome:   outcome,
		Error:     err,
		Timestamp: time.Now(),
	}
}

// NewStreamCancelledEvent tells the view to drop the in-progress message.
func NewStreamCancelledEvent(sessionID string, turnID uint64) ChatEvent {
	return ChatEvent{
		SessionID: sessionID,
		TurnID:    turnID,
		Type:      ChatStreamCancelled,
		Timestamp: time.Now(),
	}
}

// NewTranscriptResetEvent tells the view to redraw the whole transcript.
func NewTranscriptResetEvent(sessionID string) ChatEvent {
	return ChatEvent{
		SessionID: sessionID,
		Type:      ChatTranscriptReset,
		Timestamp: time.Now(),
	}
}
