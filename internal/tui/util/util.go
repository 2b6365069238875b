// Package util has small helpers shared by TUI components.
package util

import (
	tea "charm.land/bubbletea/v2"
)

// InfoType classifies an InfoMsg.
type InfoType int

// Info levels.
const (
	InfoTypeInfo InfoType = iota
	InfoTypeSuccess
	InfoTypeError
)

// InfoMsg carries a one-line notice for the status bar.
type InfoMsg struct {
	Type InfoType
	Msg  string
}

// CmdHandler wraps msg in a command.
func CmdHandler(msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}

// ReportError reports err on the status bar.
func ReportError(err error) tea.Cmd {
	return CmdHandler(InfoMsg{Type: InfoTypeError, Msg: err.Error()})
}

// ReportSuccess reports a completed action.
func ReportSuccess(msg string) tea.Cmd {
	return CmdHandler(InfoMsg{Type: InfoTypeSuccess, Msg: msg})
}

// ReportInfo reports a neutral notice.
func ReportInfo(msg string) tea.Cmd {
	return CmdHandler(InfoMsg{Type: InfoTypeInfo, Msg: msg})
}
