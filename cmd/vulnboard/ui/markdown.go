package ui

import (
	"github.com/charmbracelet/glamour"
)

// markdownStyle picks the glamour style. An explicit configured style wins;
// otherwise it follows the theme.
func markdownStyle(configured string, theme Theme) string {
	switch configured {
	case "dark", "light", "notty", "ascii", "dracula", "pink", "tokyo-night":
		return configured
	}
	if theme.IsDark {
		return "dark"
	}
	return "light"
}

func newMarkdownRenderer(style string, width int) *glamour.TermRenderer {
	if width < MinContentWidth {
		width = MinContentWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// renderMarkdown renders md, falling back to the raw text when no renderer
// is available or rendering fails.
func renderMarkdown(r *glamour.TermRenderer, md string) string {
	if r == nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
