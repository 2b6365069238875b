package sessions

// SessionSelectedMsg asks the page to load a stored session.
type SessionSelectedMsg struct {
	SessionID string
}

// RenameSessionMsg asks the page to retitle a session.
type RenameSessionMsg struct {
	SessionID string
	Title     string
}

// DeleteSessionMsg asks the page to delete a session.
type DeleteSessionMsg struct {
	SessionID string
}

// NewSessionMsg asks the page to start a fresh chat.
type NewSessionMsg struct{}

// ClearHistoryMsg asks the page to delete every stored session.
type ClearHistoryMsg struct{}

// ClosedMsg is sent when the history panel gives up focus.
type ClosedMsg struct{}
