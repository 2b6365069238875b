package chat

import (
	"sort"
	"strings"

	tea "charm.land/bubbletea/v2"
)

// Slash command messages.
type (
	// NewChatMsg starts a fresh session.
	NewChatMsg struct{}

	// ClearChatMsg empties the current transcript.
	ClearChatMsg struct{}

	// ExportMsg writes the current chat as markdown to Path, or to a
	// generated file name when Path is empty.
	ExportMsg struct {
		Path string
	}

	// RegenerateMsg asks for the last reply again.
	RegenerateMsg struct{}

	// CopyMsg copies the last reply to the clipboard.
	CopyMsg struct{}

	// HelpMsg lists the commands on the status bar.
	HelpMsg struct{}

	// UnknownCommandMsg reports a slash command nobody registered.
	UnknownCommandMsg struct {
		Command string
	}
)

// Command is a slash command typed into the input box.
type Command struct {
	Name        string
	Description string
	Handler     func(args []string) tea.Msg
}

// CommandRegistry holds registered slash commands.
type CommandRegistry struct {
	commands map[string]Command
}

// NewCommandRegistry returns the registry with the built-in commands.
func NewCommandRegistry() *CommandRegistry {
	r := &CommandRegistry{commands: make(map[string]Command)}

	r.Register(Command{
		Name:        "new",
		Description: "start a new chat",
		Handler:     func([]string) tea.Msg { return NewChatMsg{} },
	})
	r.Register(Command{
		Name:        "clear",
		Description: "clear this chat",
		Handler:     func([]string) tea.Msg { return ClearChatMsg{} },
	})
	r.Register(Command{
		Name:        "export",
		Description: "save this chat as markdown",
		Handler: func(args []string) tea.Msg {
			return ExportMsg{Path: strings.Join(args, " ")}
		},
	})
	r.Register(Command{
		Name:        "retry",
		Description: "regenerate the last reply",
		Handler:     func([]string) tea.Msg { return RegenerateMsg{} },
	})
	r.Register(Command{
		Name:        "copy",
		Description: "copy the last reply",
		Handler:     func([]string) tea.Msg { return CopyMsg{} },
	})
	r.Register(Command{
		Name:        "help",
		Description: "list commands",
		Handler:     func([]string) tea.Msg { return HelpMsg{} },
	})

	return r
}

// Register adds a command to the registry.
func (r *CommandRegistry) Register(cmd Command) {
	r.commands[cmd.Name] = cmd
}

// Parse returns the message for a slash command, and false when input
// is not one.
func (r *CommandRegistry) Parse(input string) (tea.Msg, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return nil, false
	}

	parts := strings.Fields(input[1:])
	if len(parts) == 0 {
		return nil, false
	}

	name := strings.ToLower(parts[0])
	cmd, ok := r.commands[name]
	if !ok {
		return UnknownCommandMsg{Command: name}, true
	}
	return cmd.Handler(parts[1:]), true
}

// Commands returns the registered commands sorted by name.
func (r *CommandRegistry) Commands() []Command {
	cmds := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// Usage is a one-line summary of the commands.
func (r *CommandRegistry) Usage() string {
	names := make([]string, 0, len(r.commands))
	for _, c := range r.Commands() {
		names = append(names, "/"+c.Name)
	}
	return strings.Join(names, " ")
}
