package config

// UIConfig holds user interface configuration.
type UIConfig struct {
	// Theme selects the palette: auto follows the terminal background
	Theme string `json:"theme" yaml:"theme"`

	// ShowHelp renders the key binding footer
	ShowHelp bool `json:"show_help" yaml:"show_help"`

	// MarkdownStyle is the glamour style used for modal bodies; auto follows Theme
	MarkdownStyle string `json:"markdown_style,omitempty" yaml:"markdown_style,omitempty"`
}

// DefaultUIConfig returns sensible UI defaults.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Theme:         "auto",
		ShowHelp:      true,
		MarkdownStyle: "auto",
	}
}

// IsDark reports whether the dark palette should be used. Auto falls back to
// the detected terminal background.
func (u *UIConfig) IsDark(terminalDark bool) bool {
	switch u.Theme {
	case "dark":
		return true
	case "light":
		return false
	default:
		return terminalDark
	}
}
