// Package sessions renders the chat history sidebar.
package sessions

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/guilhermegouw/hiwar/internal/i18n"
	"github.com/guilhermegouw/hiwar/internal/session"
	"github.com/guilhermegouw/hiwar/internal/tui/styles"
	"github.com/guilhermegouw/hiwar/internal/tui/util"
)

// Step is the interaction the sidebar is in.
type Step int

const (
	// StepList browses the list.
	StepList Step = iota
	// StepSearch edits the filter.
	StepSearch
	// StepRename edits the selected title.
	StepRename
	// StepDeleteConfirm asks before deleting the selected session.
	StepDeleteConfirm
	// StepClearConfirm asks before deleting every session.
	StepClearConfirm
)

// History is the sidebar: a titled panel around the session list. It
// does not touch the store; it emits messages for the page to act on.
type History struct { //nolint:govet // fieldalignment: preserving logical field order
	cat    i18n.Catalog
	panel  *BorderedPanel
	list   *SessionList
	search *SearchBox
	rename *RenameInput

	step     Step
	focused  bool
	targetID string
	width    int
	height   int
}

// NewHistory creates the sidebar.
func NewHistory(cat i18n.Catalog) *History {
	return &History{
		cat:    cat,
		panel:  NewBorderedPanel(),
		list:   NewSessionList(cat),
		search: NewSearchBox(cat),
		rename: NewRenameInput(cat.T(i18n.NewChatTitle)),
	}
}

// SetSessions refreshes the list contents.
func (h *History) SetSessions(list []session.Session) {
	h.list.SetSessions(list)
	h.search.SetCount(h.list.Len())
}

// SetActive marks the session in view.
func (h *History) SetActive(id string) {
	h.list.SetActive(id)
}

// SetSize sets the outer dimensions.
func (h *History) SetSize(width, height int) {
	h.width = width
	h.height = height
	h.panel.SetSize(width, height)
	inner := max(1, width-4)
	h.search.SetWidth(inner)
	h.rename.SetWidth(inner)
	// title border, bottom border, hints, and the search or rename line
	h.list.SetSize(inner, max(2, height-5))
}

// Focus gives the sidebar keyboard focus.
func (h *History) Focus() {
	h.focused = true
	h.step = StepList
}

// Blur returns focus to the page.
func (h *History) Blur() {
	h.focused = false
	h.step = StepList
	h.search.Hide()
	h.rename.Reset()
	h.list.Search("")
}

// Focused reports whether the sidebar has focus.
func (h *History) Focused() bool {
	return h.focused
}

// Step returns the current interaction step.
func (h *History) Step() Step {
	return h.step
}

// Update handles keys while focused.
func (h *History) Update(msg tea.Msg) (*History, tea.Cmd) {
	if !h.focused {
		return h, nil
	}
	keyMsg, isKey := msg.(tea.KeyMsg)

	switch h.step {
	case StepSearch:
		if isKey {
			switch keyMsg.String() {
			case "esc":
				h.search.Hide()
				h.list.Search("")
				h.step = StepList
				return h, nil
			case "enter":
				h.step = StepList
				return h, nil
			case "up", "down":
				var cmd tea.Cmd
				h.list, cmd = h.list.Update(msg)
				return h, cmd
			}
		}
		var cmd tea.Cmd
		h.search, cmd = h.search.Update(msg)
		h.list.Search(h.search.Value())
		h.search.SetCount(h.list.Len())
		return h, cmd

	case StepRename:
		if isKey {
			switch keyMsg.String() {
			case "esc":
				h.rename.Reset()
				h.step = StepList
				return h, nil
			case "enter":
				title := strings.TrimSpace(h.rename.Value())
				id := h.targetID
				h.rename.Reset()
				h.step = StepList
				if title == "" {
					return h, nil
				}
				return h, util.CmdHandler(RenameSessionMsg{SessionID: id, Title: title})
			}
		}
		var cmd tea.Cmd
		h.rename, cmd = h.rename.Update(msg)
		return h, cmd

	case StepDeleteConfirm, StepClearConfirm:
		if !isKey {
			return h, nil
		}
		switch keyMsg.String() {
		case "y", "Y":
			step := h.step
			h.step = StepList
			if step == StepClearConfirm {
				return h, util.CmdHandler(ClearHistoryMsg{})
			}
			return h, util.CmdHandler(DeleteSessionMsg{SessionID: h.targetID})
		case "n", "N", "esc":
			h.step = StepList
		}
		return h, nil
	}

	if !isKey {
		return h, nil
	}
	switch keyMsg.String() {
	case "esc", "tab":
		h.Blur()
		return h, util.CmdHandler(ClosedMsg{})
	case "/":
		h.step = StepSearch
		return h, h.search.Show()
	case "r":
		if s, ok := h.list.Selected(); ok {
			h.targetID = s.ID
			h.rename.SetValue(s.Title)
			h.step = StepRename
			return h, h.rename.Focus()
		}
		return h, nil
	case "d", "delete":
		if s, ok := h.list.Selected(); ok {
			h.targetID = s.ID
			h.step = StepDeleteConfirm
		}
		return h, nil
	case "X":
		if h.list.Total() > 0 {
			h.step = StepClearConfirm
		}
		return h, nil
	}

	var cmd tea.Cmd
	h.list, cmd = h.list.Update(msg)
	return h, cmd
}

// View renders the sidebar.
func (h *History) View() string {
	t := styles.CurrentTheme()

	var body []string
	mode := HintModeNormal
	switch h.step {
	case StepSearch:
		body = append(body, h.search.View())
		mode = HintModeSearch
	case StepRename:
		body = append(body, h.rename.View())
		mode = HintModeRename
	case StepDeleteConfirm:
		if s, ok := h.list.Selected(); ok {
			body = append(body, t.S().Warning.Render("✕ "+s.Title+"?"))
		}
		mode = HintModeConfirm
	case StepClearConfirm:
		body = append(body, t.S().Warning.Width(max(1, h.width-4)).Render(h.cat.T(i18n.ConfirmClear)))
		mode = HintModeConfirm
	case StepList:
		if h.search.Value() != "" {
			body = append(body, t.S().Muted.Render("/ "+h.search.Value()))
		}
	}
	body = append(body, h.list.View())
	if h.focused {
		body = append(body, "", HintView(mode, h.width-4))
	}

	h.panel.SetTitle(" " + h.cat.T(i18n.HistoryHeader) + " ")
	h.panel.SetFocused(h.focused)
	h.panel.SetContent(strings.Join(body, "\n"))
	return h.panel.View()
}

// Cursor returns the cursor for the active input, relative to the panel.
func (h *History) Cursor() *tea.Cursor {
	var c *tea.Cursor
	switch h.step {
	case StepSearch:
		c = h.search.Cursor()
	case StepRename:
		c = h.rename.Cursor()
	default:
		return nil
	}
	if c != nil {
		c.X += 2
		c.Y++
	}
	return c
}
