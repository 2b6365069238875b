package styles

// NewDefaultTheme returns the dark desert palette.
func NewDefaultTheme() *Theme {
	return &Theme{
		Name:   "default",
		IsDark: true,

		Primary:   ParseHex("#e0a458"), // sand
		Secondary: ParseHex("#6fb3b8"), // oasis teal
		Tertiary:  ParseHex("#3b3530"),
		Accent:    ParseHex("#f2c57c"),

		BgBase:    ParseHex("#1c1a18"),
		BgSubtle:  ParseHex("#262320"),
		BgOverlay: ParseHex("#34302b"),

		FgBase:   ParseHex("#e8e0d4"),
		FgMuted:  ParseHex("#a39a8c"),
		FgSubtle: ParseHex("#6d665c"),

		Border:      ParseHex("#3b3530"),
		BorderFocus: ParseHex("#e0a458"),

		Success: ParseHex("#9cc98a"),
		Error:   ParseHex("#e07a6e"),
		Warning: ParseHex("#e8c26a"),
		Info:    ParseHex("#6fb3b8"),
	}
}

// NewLightTheme returns a palette for light terminals.
func NewLightTheme() *Theme {
	return &Theme{
		Name:   "light",
		IsDark: false,

		Primary:   ParseHex("#9a5b13"),
		Secondary: ParseHex("#2f7479"),
		Tertiary:  ParseHex("#e6dfd3"),
		Accent:    ParseHex("#b5651d"),

		BgBase:    ParseHex("#faf7f2"),
		BgSubtle:  ParseHex("#f0ebe3"),
		BgOverlay: ParseHex("#e6dfd3"),

		FgBase:   ParseHex("#2b2620"),
		FgMuted:  ParseHex("#6d665c"),
		FgSubtle: ParseHex("#a39a8c"),

		Border:      ParseHex("#d8cfc2"),
		BorderFocus: ParseHex("#9a5b13"),

		Success: ParseHex("#3f7a2e"),
		Error:   ParseHex("#b23a2e"),
		Warning: ParseHex("#8a6a12"),
		Info:    ParseHex("#2f7479"),
	}
}
