package session

import (
	"testing"
	"time"

	"github.com/guilhermegouw/hiwar/internal/message"
)

func sampleSessions() []Session {
	base := time.UnixMilli(1700000000000)
	return []Session{
		{
			ID:        "session_1700000002000_aaaaaaaaa",
			Title:     "كيف حالك؟",
			CreatedAt: base.Add(2 * time.Second),
			Messages: []message.Message{
				message.NewUser("كيف حالك؟", base.Add(2*time.Second)),
				message.NewBot("بخير، شكراً!", base.Add(3*time.Second)),
			},
		},
		{
			ID:        "session_1700000001000_bbbbbbbbb",
			Title:     "Explain goroutines",
			CreatedAt: base.Add(time.Second),
			Messages: []message.Message{
				message.NewUser("Explain goroutines", base.Add(time.Second)),
				message.NewBot("Goroutines are lightweight threads.", base.Add(1500*time.Millisecond)),
				message.NewUser("And channels?", base.Add(4*time.Second)),
			},
		},
		{
			ID:        "session_1700000000000_ccccccccc",
			Title:     "محادثة جديدة",
			CreatedAt: base,
		},
	}
}

// assertSameSessions compares id, title, timestamp and message order and
// content.
func assertSameSessions(t *testing.T, got, want []Session) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("got %d sessions, want %d", len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.ID != w.ID {
			t.Errorf("session[%d].ID = %q, want %q", i, g.ID, w.ID)
		}
		if g.Title != w.Title {
			t.Errorf("session[%d].Title = %q, want %q", i, g.Title, w.Title)
		}
		if g.CreatedAt.UnixMilli() != w.CreatedAt.UnixMilli() {
			t.Errorf("session[%d].CreatedAt = %d, want %d", i, g.CreatedAt.UnixMilli(), w.CreatedAt.UnixMilli())
		}
		if len(g.Messages) != len(w.Messages) {
			t.Errorf("session[%d] has %d messages, want %d", i, len(g.Messages), len(w.Messages))
			continue
		}
		for j := range w.Messages {
			gm, wm := g.Messages[j], w.Messages[j]
			if gm.Text != wm.Text || gm.Type != wm.Type || gm.Timestamp.UnixMilli() != wm.Timestamp.UnixMilli() {
				t.Errorf("session[%d].Messages[%d] = %+v, want %+v", i, j, gm, wm)
			}
		}
	}
}
