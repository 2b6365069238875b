package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/guilhermegouw/hiwar/internal/message"
)

// CurrentVersion is the envelope version written by Marshal.
const CurrentVersion = 1

// ErrUnsupportedVersion is returned for data written by a newer client.
var ErrUnsupportedVersion = errors.New("unsupported session data version")

// The record types mirror the JSON the browser client kept in local
// storage, so exports from either side load in the other.
type messageRecord struct {
	Text      string `json:"text"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

type sessionRecord struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Timestamp int64           `json:"timestamp"`
	Messages  []messageRecord `json:"messages"`
}

type envelope struct {
	Version  int             `json:"version"`
	Sessions []sessionRecord `json:"sessions"`
}

// Marshal encodes sessions in the versioned envelope.
func Marshal(list []Session) ([]byte, error) {
	data, err := json.Marshal(envelope{Version: CurrentVersion, Sessions: toRecords(list)})
	if err != nil {
		return nil, fmt.Errorf("encoding sessions: %w", err)
	}
	return data, nil
}

// MarshalList encodes sessions as a bare JSON array, the browser format.
func MarshalList(list []Session) ([]byte, error) {
	data, err := json.Marshal(toRecords(list))
	if err != nil {
		return nil, fmt.Errorf("encoding sessions: %w", err)
	}
	return data, nil
}

// Unmarshal decodes either a versioned envelope or a bare array.
// Empty input decodes to an empty list.
func Unmarshal(data []byte) ([]Session, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var records []sessionRecord
	if data[0] == '[' {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decoding sessions: %w", err)
		}
		return fromRecords(records), nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding sessions: %w", err)
	}
	if env.Version > CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	return fromRecords(env.Sessions), nil
}

func toRecords(list []Session) []sessionRecord {
	records := make([]sessionRecord, 0, len(list))
	for _, s := range list {
		msgs := make([]messageRecord, 0, len(s.Messages))
		for _, m := range s.Messages {
			msgs = append(msgs, messageRecord{
				Text:      m.Text,
				Type:      string(m.Type),
				Timestamp: m.Timestamp.UnixMilli(),
			})
		}
		records = append(records, sessionRecord{
			ID:        s.ID,
			Title:     s.Title,
			Timestamp: s.CreatedAt.UnixMilli(),
			Messages:  msgs,
		})
	}
	return records
}

// fromRecords converts records, dropping entries without an id and
// repeated ids after the first occurrence.
func fromRecords(records []sessionRecord) []Session {
	list := make([]Session, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if r.ID == "" || seen[r.ID] {
			continue
		}
		seen[r.ID] = true

		var msgs []message.Message
		for _, m := range r.Messages {
			msgs = append(msgs, message.Message{
				Text:      m.Text,
				Type:      normalizeType(m.Type),
				Timestamp: time.UnixMilli(m.Timestamp),
			})
		}
		list = append(list, Session{
			ID:        r.ID,
			Title:     r.Title,
			CreatedAt: time.UnixMilli(r.Timestamp),
			Messages:  msgs,
		})
	}
	return list
}

func normalizeType(t string) message.Type {
	if message.Type(t) == message.TypeUser {
		return message.TypeUser
	}
	return message.TypeBot
}
