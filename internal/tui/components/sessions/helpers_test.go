package sessions

import "github.com/charmbracelet/x/ansi"

func stripStyles(s string) string {
	return ansi.Strip(s)
}
