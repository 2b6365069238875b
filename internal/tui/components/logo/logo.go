// Package logo renders the hiwar wordmark.
package logo

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/guilhermegouw/hiwar/internal/i18n"
	"github.com/guilhermegouw/hiwar/internal/tui/styles"
)

const wordmark = `
╻ ╻╻╻ ╻┏━┓┏━┓
┣━┫┃┃╻┃┣━┫┣┳┛
╹ ╹╹┗┻┛╹ ╹╹┗╸
`

// Render returns the wordmark in a gradient of the theme colors.
func Render() string {
	t := styles.CurrentTheme()
	return styles.ApplyForegroundGrad(strings.Trim(wordmark, "\n"), t.Primary, t.Secondary)
}

// RenderWithTagline stacks the wordmark over the empty-chat prompt,
// centered in width columns. Narrow widths get the plain name.
func RenderWithTagline(cat i18n.Catalog, width int) string {
	t := styles.CurrentTheme()
	mark := Render()
	if width < Width() {
		mark = t.S().Title.Render("حوار")
	}
	tagline := t.S().Muted.Render(cat.T(i18n.NoMessages))
	return lipgloss.JoinVertical(lipgloss.Center, mark, "", tagline)
}

// Width returns the width of the wordmark.
func Width() int {
	return lipgloss.Width(strings.Trim(wordmark, "\n"))
}
