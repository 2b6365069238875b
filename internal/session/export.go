package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guilhermegouw/hiwar/internal/i18n"
	"github.com/guilhermegouw/hiwar/internal/message"
)

// ErrNothingToExport is returned when exporting a session without messages.
var ErrNothingToExport = errors.New("no messages to export")

// ExportMarkdown renders messages as a markdown document headed by title.
func ExportMarkdown(title string, msgs []message.Message, now time.Time, cat i18n.Catalog) (string, error) {
	if len(msgs) == 0 {
		return "", ErrNothingToExport
	}
	if strings.TrimSpace(title) == "" {
		title = cat.T(i18n.ChatFallbackTitle)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", title)
	fmt.Fprintf(&b, "%s: %s\n\n", cat.T(i18n.ExportDate), cat.Date(now))
	b.WriteString("---\n\n")

	for _, m := range msgs {
		role := cat.T(i18n.AssistantLabel)
		if m.IsUser() {
			role = cat.T(i18n.YouLabel)
		}
		fmt.Fprintf(&b, "**%s** (%s):\n%s\n\n", role, cat.Clock(m.Timestamp), m.Text)
	}
	return b.String(), nil
}

// Backup is the portable export of the whole history.
type Backup struct {
	Settings   json.RawMessage
	Sessions   []Session
	ExportDate time.Time
}

type backupRecord struct {
	Settings     json.RawMessage `json:"settings,omitempty"`
	ChatSessions json.RawMessage `json:"chatSessions,omitempty"`
	ExportDate   string          `json:"exportDate"`
}

// MarshalBackup encodes b in the browser client's backup layout.
func MarshalBackup(b Backup) ([]byte, error) {
	list, err := MarshalList(b.Sessions)
	if err != nil {
		return nil, err
	}
	rec := backupRecord{
		Settings:     b.Settings,
		ChatSessions: list,
		ExportDate:   b.ExportDate.UTC().Format(time.RFC3339Nano),
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding backup: %w", err)
	}
	return data, nil
}

// UnmarshalBackup decodes a backup. Either section may be absent.
func UnmarshalBackup(data []byte) (Backup, error) {
	var rec backupRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Backup{}, fmt.Errorf("decoding backup: %w", err)
	}

	sessions, err := Unmarshal(rec.ChatSessions)
	if err != nil {
		return Backup{}, err
	}

	b := Backup{Settings: rec.Settings, Sessions: sessions}
	if rec.ExportDate != "" {
		if t, err := time.Parse(time.RFC3339Nano, rec.ExportDate); err == nil {
			b.ExportDate = t
		}
	}
	return b, nil
}

// HasSessions reports whether the backup carried a session list.
func (b Backup) HasSessions() bool {
	return b.Sessions != nil
}
