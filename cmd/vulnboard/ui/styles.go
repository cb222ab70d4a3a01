// Package ui provides the terminal screens for vulnboard: the priority
// action dashboard and the assessment wizard, styled with light/dark themes.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	// Light Mode Colors (Default)
	LightBackground = lipgloss.Color("#f8fafc")
	LightForeground = lipgloss.Color("#0f172a")
	LightPrimary    = lipgloss.Color("#1e3a5f") // Navy
	LightAccent     = lipgloss.Color("#0d9488") // Teal
	LightSecondary  = lipgloss.Color("#e2e8f0")
	LightMuted      = lipgloss.Color("#64748b")
	LightBorder     = lipgloss.Color("#cbd5e1")
	LightCard       = lipgloss.Color("#ffffff")

	// Dark Mode Colors
	DarkBackground = lipgloss.Color("#0b1220")
	DarkForeground = lipgloss.Color("#e2e8f0")
	DarkPrimary    = lipgloss.Color("#5eead4") // Teal (flipped)
	DarkAccent     = lipgloss.Color("#38bdf8")
	DarkSecondary  = lipgloss.Color("#1e293b")
	DarkMuted      = lipgloss.Color("#94a3b8")
	DarkBorder     = lipgloss.Color("#334155")
	DarkCard       = lipgloss.Color("#111827")

	// Semantic Colors (same in both modes)
	Destructive = lipgloss.Color("#dc2626")
	Success     = lipgloss.Color("#16a34a")
	Warning     = lipgloss.Color("#ca8a04")
	Info        = lipgloss.Color("#2563eb")
)

// Theme holds the current color scheme
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Secondary  lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Card       lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Secondary:  LightSecondary,
		Muted:      LightMuted,
		Border:     LightBorder,
		Card:       LightCard,
		IsDark:     false,
	}
}

// DarkTheme returns the dark mode theme
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Secondary:  DarkSecondary,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Card:       DarkCard,
		IsDark:     true,
	}
}

// TerminalIsDark guesses the terminal background from COLORFGBG.
func TerminalIsDark() bool {
	colorTerm := os.Getenv("COLORFGBG")
	if colorTerm == "" {
		return false
	}
	// Format is usually "foreground;background"
	parts := strings.Split(colorTerm, ";")
	if len(parts) < 2 {
		return false
	}
	bgIdx, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return false
	}
	// 0-6 and 8 (dark grey) are dark backgrounds
	return (bgIdx >= 0 && bgIdx <= 6) || bgIdx == 8
}

// Styles holds all the styled components
type Styles struct {
	Theme Theme

	// Layout
	Header  lipgloss.Style
	Footer  lipgloss.Style
	Content lipgloss.Style
	Panel   lipgloss.Style

	// Text
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	// Status
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Components
	Card         lipgloss.Style
	SelectedCard lipgloss.Style
	Modal        lipgloss.Style
	Banner       lipgloss.Style
	BannerClear  lipgloss.Style
	Celebration  lipgloss.Style
	Spinner      lipgloss.Style
	Divider      lipgloss.Style
	Badge        lipgloss.Style
	StepActive   lipgloss.Style
	StepInactive lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 2),

		Content: lipgloss.NewStyle().
			Padding(1, 2),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(PanelPaddingV, PanelPaddingH),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			MarginBottom(1),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(Info),

		Card: lipgloss.NewStyle().
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			PaddingLeft(1).
			MarginBottom(1),

		SelectedCard: lipgloss.NewStyle().
			BorderLeft(true).
			BorderStyle(lipgloss.DoubleBorder()).
			PaddingLeft(1).
			MarginBottom(1).
			Background(theme.Secondary),

		Modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Accent).
			Padding(1, ModalPadding),

		Banner: lipgloss.NewStyle().
			Background(Destructive).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1).
			Bold(true),

		BannerClear: lipgloss.NewStyle().
			Background(Success).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1).
			Bold(true),

		Celebration: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(Success).
			Foreground(Success).
			Padding(1, 4).
			Bold(true),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),

		Badge: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1).
			Bold(true),

		StepActive: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true).
			Underline(true),

		StepInactive: lipgloss.NewStyle().
			Foreground(theme.Muted),
	}
}

// DefaultStyles returns styles for the detected terminal theme
func DefaultStyles() Styles {
	if TerminalIsDark() {
		return NewStyles(DarkTheme())
	}
	return NewStyles(LightTheme())
}

// SeverityBadge renders an upper-cased severity label on its severity colour.
func (s Styles) SeverityBadge(label, hex string) string {
	return s.Badge.Background(lipgloss.Color(hex)).Render(label)
}

// CardStyle returns the card style with the severity colour on its edge.
func (s Styles) CardStyle(hex string, selected bool) lipgloss.Style {
	if selected {
		return s.SelectedCard.BorderForeground(lipgloss.Color(hex))
	}
	return s.Card.BorderForeground(lipgloss.Color(hex))
}

// RenderDivider returns a horizontal divider
func (s Styles) RenderDivider(width int) string {
	if width < 1 {
		width = 1
	}
	return s.Divider.Render(strings.Repeat("─", width))
}
