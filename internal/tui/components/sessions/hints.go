package sessions

import (
	"github.com/guilhermegouw/hiwar/internal/tui/styles"
)

// HintMode selects which key hints are shown.
type HintMode int

const (
	// HintModeNormal shows hints for browsing.
	HintModeNormal HintMode = iota
	// HintModeSearch shows hints while filtering.
	HintModeSearch
	// HintModeRename shows hints while renaming.
	HintModeRename
	// HintModeConfirm shows hints for a yes/no question.
	HintModeConfirm
)

var hints = map[HintMode]string{
	HintModeNormal:  "enter open · n new · r rename · d delete · / search · X clear · esc close",
	HintModeSearch:  "enter done · esc clear · ↑↓ move",
	HintModeRename:  "enter save · esc cancel",
	HintModeConfirm: "y yes · n no",
}

// HintView renders the hints for mode, wrapped to width.
func HintView(mode HintMode, width int) string {
	t := styles.CurrentTheme()
	return t.S().Subtle.Width(max(1, width)).Render(hints[mode])
}
