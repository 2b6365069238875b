// Package session models persisted conversations and the stores that
// hold them.
package session

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rivo/uniseg"

	"github.com/guilhermegouw/hiwar/internal/i18n"
	"github.com/guilhermegouw/hiwar/internal/message"
)

// DefaultTitleLimit is the number of characters kept from the first
// user message when deriving a title.
const DefaultTitleLimit = 30

// idPrefix starts every generated session id.
const idPrefix = "session_"

// Session is a conversation thread.
type Session struct {
	ID        string
	Title     string
	CreatedAt time.Time
	Messages  []message.Message
}

// New creates an empty session with a fresh id.
func New(title string, now time.Time) Session {
	return Session{
		ID:        NewID(now),
		Title:     title,
		CreatedAt: now,
	}
}

// NewID generates "session_<epoch ms>_<random suffix>".
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return idPrefix + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix
}

// HasMessages reports whether the session holds any history.
func (s Session) HasMessages() bool {
	return len(s.Messages) > 0
}

// Clone returns a deep copy of s.
func (s Session) Clone() Session {
	s.Messages = message.Clone(s.Messages)
	return s
}

// RefreshTitle replaces a placeholder title with one derived from the
// first user message. Titles set explicitly are kept.
func (s *Session) RefreshTitle(limit int) {
	if !i18n.IsPlaceholderTitle(s.Title) {
		return
	}
	first, ok := message.FirstUser(s.Messages)
	if !ok {
		return
	}
	if title := DeriveTitle(first.Text, limit); title != "" {
		s.Title = title
	}
}

// DeriveTitle trims text and cuts it to limit user-perceived characters,
// appending "..." when something was cut.
func DeriveTitle(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if limit <= 0 {
		limit = DefaultTitleLimit
	}
	if uniseg.GraphemeClusterCount(text) <= limit {
		return text
	}

	var b strings.Builder
	g := uniseg.NewGraphemes(text)
	for n := 0; n < limit && g.Next(); n++ {
		b.WriteString(g.Str())
	}
	return b.String() + "..."
}

// CloneAll deep-copies a session list.
func CloneAll(list []Session) []Session {
	if list == nil {
		return nil
	}
	out := make([]Session, len(list))
	for i, s := range list {
		out[i] = s.Clone()
	}
	return out
}

// Find returns the index of the session with id, or -1.
func Find(list []Session, id string) int {
	for i, s := range list {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Remove returns list without the session with id.
func Remove(list []Session, id string) ([]Session, bool) {
	idx := Find(list, id)
	if idx < 0 {
		return list, false
	}
	out := make([]Session, 0, len(list)-1)
	out = append(out, list[:idx]...)
	return append(out, list[idx+1:]...), true
}

// Upsert replaces the session with the same id in place, or inserts s at
// the front of the list when it is not there yet.
func Upsert(list []Session, s Session) []Session {
	if idx := Find(list, s.ID); idx >= 0 {
		out := make([]Session, len(list))
		copy(out, list)
		out[idx] = s
		return out
	}
	out := make([]Session, 0, len(list)+1)
	out = append(out, s)
	return append(out, list...)
}

// Newest returns the most recently created session.
func Newest(list []Session) (Session, bool) {
	if len(list) == 0 {
		return Session{}, false
	}
	best := 0
	for i := 1; i < len(list); i++ {
		if list[i].CreatedAt.After(list[best].CreatedAt) {
			best = i
		}
	}
	return list[best], true
}

// Search returns the sessions whose title or messages contain keyword,
// case-insensitively.
func Search(list []Session, keyword string) []Session {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return list
	}
	var out []Session
	for _, s := range list {
		if matches(s, keyword) {
			out = append(out, s)
		}
	}
	return out
}

func matches(s Session, keyword string) bool {
	if strings.Contains(strings.ToLower(s.Title), keyword) {
		return true
	}
	for _, m := range s.Messages {
		if strings.Contains(strings.ToLower(m.Text), keyword) {
			return true
		}
	}
	return false
}
