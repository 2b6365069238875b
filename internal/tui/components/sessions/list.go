package sessions

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/guilhermegouw/hiwar/internal/i18n"
	"github.com/guilhermegouw/hiwar/internal/session"
	"github.com/guilhermegouw/hiwar/internal/tui/styles"
	"github.com/guilhermegouw/hiwar/internal/tui/util"
)

// SessionList displays stored sessions with keyboard navigation.
type SessionList struct { //nolint:govet // fieldalignment: preserving logical field order
	all      []session.Session
	sessions []session.Session // all, filtered by query
	query    string
	activeID string
	cat      i18n.Catalog
	now      func() time.Time

	cursor int
	offset int
	width  int
	height int
}

// NewSessionList creates an empty list.
func NewSessionList(cat i18n.Catalog) *SessionList {
	return &SessionList{cat: cat, now: time.Now}
}

// SetSessions replaces the list contents, keeping the query.
func (l *SessionList) SetSessions(list []session.Session) {
	l.all = list
	l.apply()
}

// SetActive marks the session currently in view.
func (l *SessionList) SetActive(id string) {
	l.activeID = id
}

// Search filters by keyword; an empty keyword shows everything.
func (l *SessionList) Search(keyword string) {
	l.query = keyword
	l.cursor = 0
	l.offset = 0
	l.apply()
}

func (l *SessionList) apply() {
	l.sessions = session.Search(l.all, l.query)
	if l.cursor >= len(l.sessions) {
		l.cursor = max(0, len(l.sessions)-1)
	}
	l.ensureVisible()
}

// Len returns the number of visible rows.
func (l *SessionList) Len() int {
	return len(l.sessions)
}

// Total returns the number of stored sessions.
func (l *SessionList) Total() int {
	return len(l.all)
}

// SetSize sets the list dimensions.
func (l *SessionList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.ensureVisible()
}

// Selected returns the session under the cursor.
func (l *SessionList) Selected() (session.Session, bool) {
	if l.cursor >= 0 && l.cursor < len(l.sessions) {
		return l.sessions[l.cursor], true
	}
	return session.Session{}, false
}

// Update handles navigation keys.
func (l *SessionList) Update(msg tea.Msg) (*SessionList, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return l, nil
	}
	switch keyMsg.String() {
	case "up", "k":
		if l.cursor > 0 {
			l.cursor--
			l.ensureVisible()
		}
	case "down", "j":
		if l.cursor < len(l.sessions)-1 {
			l.cursor++
			l.ensureVisible()
		}
	case "home", "g":
		l.cursor = 0
		l.offset = 0
	case "end", "G":
		l.cursor = max(0, len(l.sessions)-1)
		l.ensureVisible()
	case "enter":
		if s, ok := l.Selected(); ok {
			return l, util.CmdHandler(SessionSelectedMsg{SessionID: s.ID})
		}
	case "n":
		return l, util.CmdHandler(NewSessionMsg{})
	}
	return l, nil
}

func (l *SessionList) ensureVisible() {
	rows := l.visibleRows()
	if l.cursor < l.offset {
		l.offset = l.cursor
	} else if l.cursor >= l.offset+rows {
		l.offset = l.cursor - rows + 1
	}
}

// Each entry takes two lines: title, then meta.
func (l *SessionList) visibleRows() int {
	return max(1, (l.height-2)/2)
}

// View renders the visible rows.
func (l *SessionList) View() string {
	t := styles.CurrentTheme()

	if len(l.sessions) == 0 {
		empty := l.cat.T(i18n.NoHistory)
		if l.query != "" {
			empty = l.cat.T(i18n.NoResults)
		}
		return t.S().Muted.Width(l.width).Align(lipgloss.Center).Padding(1, 0).Render(empty)
	}

	rows := l.visibleRows()
	end := min(l.offset+rows, len(l.sessions))

	var lines []string
	if l.offset > 0 {
		lines = append(lines, t.S().Muted.Render(fmt.Sprintf("  ↑ %d", l.offset)))
	}
	for i := l.offset; i < end; i++ {
		lines = append(lines, l.renderSession(l.sessions[i], i == l.cursor))
	}
	if rest := len(l.sessions) - end; rest > 0 {
		lines = append(lines, t.S().Muted.Render(fmt.Sprintf("  ↓ %d", rest)))
	}
	return strings.Join(lines, "\n")
}

func (l *SessionList) renderSession(s session.Session, selected bool) string {
	t := styles.CurrentTheme()

	title := s.Title
	if i18n.IsPlaceholderTitle(title) {
		title = l.cat.T(i18n.NewChatTitle)
	}
	title = ansi.Truncate(strings.ReplaceAll(title, "\n", " "), max(1, l.width-2), "…")

	meta := fmt.Sprintf("%s · %d", l.cat.RelativeTime(lastActivity(s), l.now()), len(s.Messages))
	meta = ansi.Truncate(meta, max(1, l.width-2), "…")

	marker := "  "
	titleStyle := t.S().Text
	if s.ID == l.activeID {
		marker = "• "
		titleStyle = t.S().Secondary
	}
	if selected {
		marker = "> "
		titleStyle = t.S().Primary.Bold(true)
	}
	return titleStyle.Render(marker+title) + "\n" + t.S().Muted.Render("  "+meta)
}

func lastActivity(s session.Session) time.Time {
	if n := len(s.Messages); n > 0 {
		return s.Messages[n-1].Timestamp
	}
	return s.CreatedAt
}
