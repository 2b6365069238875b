// Package styles holds the TUI color theme and shared lipgloss styles.
package styles

import (
	"image/color"
	"strings"
	"sync"

	"charm.land/lipgloss/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// Theme is a named palette.
type Theme struct { //nolint:govet // fieldalignment: preserving logical field order
	Name   string
	IsDark bool

	Primary   color.Color
	Secondary color.Color
	Tertiary  color.Color
	Accent    color.Color

	BgBase    color.Color
	BgSubtle  color.Color
	BgOverlay color.Color

	FgBase   color.Color
	FgMuted  color.Color
	FgSubtle color.Color

	Border      color.Color
	BorderFocus color.Color

	Success color.Color
	Error   color.Color
	Warning color.Color
	Info    color.Color

	once   sync.Once
	styles *Styles
}

// Styles are the text styles derived from a theme.
type Styles struct {
	Text      lipgloss.Style
	Muted     lipgloss.Style
	Subtle    lipgloss.Style
	Title     lipgloss.Style
	Primary   lipgloss.Style
	Secondary lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Info      lipgloss.Style
	Selected  lipgloss.Style
}

// S returns the styles for t, built on first use.
func (t *Theme) S() *Styles {
	t.once.Do(func() {
		base := lipgloss.NewStyle().Foreground(t.FgBase)
		t.styles = &Styles{
			Text:      base,
			Muted:     lipgloss.NewStyle().Foreground(t.FgMuted),
			Subtle:    lipgloss.NewStyle().Foreground(t.FgSubtle),
			Title:     lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
			Primary:   lipgloss.NewStyle().Foreground(t.Primary),
			Secondary: lipgloss.NewStyle().Foreground(t.Secondary),
			Success:   lipgloss.NewStyle().Foreground(t.Success),
			Error:     lipgloss.NewStyle().Foreground(t.Error),
			Warning:   lipgloss.NewStyle().Foreground(t.Warning),
			Info:      lipgloss.NewStyle().Foreground(t.Info),
			Selected:  lipgloss.NewStyle().Foreground(t.FgBase).Background(t.BgOverlay).Bold(true),
		}
	})
	return t.styles
}

var (
	mu      sync.RWMutex
	current = NewDefaultTheme()
)

// CurrentTheme returns the active theme.
func CurrentTheme() *Theme {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// SetTheme replaces the active theme.
func SetTheme(t *Theme) {
	if t == nil {
		return
	}
	mu.Lock()
	current = t
	mu.Unlock()
}

// ParseHex parses a #rrggbb color. Invalid input yields black.
func ParseHex(hex string) color.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}
	}
	return c
}

// ApplyForegroundGrad colors each rune of s along a gradient from c1 to
// c2. Lines are colored independently.
func ApplyForegroundGrad(s string, c1, c2 color.Color) string {
	from, _ := colorful.MakeColor(c1)
	to, _ := colorful.MakeColor(c2)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		runes := []rune(line)
		if len(runes) == 0 {
			continue
		}
		var b strings.Builder
		for j, r := range runes {
			step := 0.0
			if len(runes) > 1 {
				step = float64(j) / float64(len(runes)-1)
			}
			c := from.BlendLuv(to, step).Clamped()
			b.WriteString(lipgloss.NewStyle().Foreground(c).Render(string(r)))
		}
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}
