package sessions

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/guilhermegouw/hiwar/internal/tui/styles"
)

// BorderedPanel renders content inside a rounded box with a centered
// title in the top border.
type BorderedPanel struct {
	title   string
	content string
	width   int
	height  int
	focused bool
}

// NewBorderedPanel creates a new bordered panel.
func NewBorderedPanel() *BorderedPanel {
	return &BorderedPanel{}
}

// SetTitle sets the border title.
func (p *BorderedPanel) SetTitle(title string) {
	p.title = title
}

// SetContent sets the panel body.
func (p *BorderedPanel) SetContent(content string) {
	p.content = content
}

// SetSize sets the outer dimensions.
func (p *BorderedPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetFocused switches the border to the focus color.
func (p *BorderedPanel) SetFocused(focused bool) {
	p.focused = focused
}

// View renders the panel at exactly width x height cells.
func (p *BorderedPanel) View() string {
	t := styles.CurrentTheme()

	borderColor := t.Border
	if p.focused {
		borderColor = t.BorderFocus
	}
	border := lipgloss.NewStyle().Foreground(borderColor)

	// ╭ + inner + ╮
	inner := max(4, p.width-2)
	contentWidth := inner - 2

	title := ansi.Truncate(p.title, max(0, inner-4), "…")
	titleRendered := t.S().Primary.Bold(true).Render(title)
	remaining := max(0, inner-lipgloss.Width(titleRendered))
	left := remaining / 2
	right := remaining - left

	lines := make([]string, 0, p.height)
	lines = append(lines, border.Render("╭"+strings.Repeat("─", left))+
		titleRendered+
		border.Render(strings.Repeat("─", right)+"╮"))

	body := strings.Split(p.content, "\n")
	for i := 0; i < max(1, p.height-2); i++ {
		line := ""
		if i < len(body) {
			line = body[i]
		}
		if w := lipgloss.Width(line); w > contentWidth {
			line = ansi.Truncate(line, contentWidth, "…")
		}
		line += strings.Repeat(" ", max(0, contentWidth-lipgloss.Width(line)))
		lines = append(lines, border.Render("│ ")+line+border.Render(" │"))
	}

	lines = append(lines, border.Render("╰"+strings.Repeat("─", inner)+"╯"))
	return strings.Join(lines, "\n")
}
