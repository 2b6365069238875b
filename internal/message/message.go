// Package message defines the entries of a chat transcript.
package message

import (
	"strings"
	"time"
)

// Type identifies who authored a message.
type Type string

// Type constants.
const (
	TypeUser Type = "user"
	TypeBot  Type = "bot"
)

// Valid reports whether t is a known message type.
func (t Type) Valid() bool {
	return t == TypeUser || t == TypeBot
}

// Message is one entry in a conversation.
type Message struct {
	Text      string
	Type      Type
	Timestamp time.Time
}

// NewUser creates a user message stamped with now.
func NewUser(text string, now time.Time) Message {
	return Message{Text: text, Type: TypeUser, Timestamp: now}
}

// NewBot creates a bot message stamped with now.
func NewBot(text string, now time.Time) Message {
	return Message{Text: text, Type: TypeBot, Timestamp: now}
}

// IsUser reports whether the message was typed by the user.
func (m Message) IsUser() bool {
	return m.Type == TypeUser
}

// IsBot reports whether the message came from the assistant.
func (m Message) IsBot() bool {
	return m.Type == TypeBot
}

// IsBlank reports whether the message carries no visible text.
func (m Message) IsBlank() bool {
	return strings.TrimSpace(m.Text) == ""
}

// Clone returns a copy of msgs that shares no backing array with it.
func Clone(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// FirstUser returns the first user message in msgs.
func FirstUser(msgs []Message) (Message, bool) {
	for _, m := range msgs {
		if m.IsUser() {
			return m, true
		}
	}
	return Message{}, false
}

// LastBot returns the most recent bot message in msgs.
func LastBot(msgs []Message) (Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].IsBot() {
			return msgs[i], true
		}
	}
	return Message{}, false
}
