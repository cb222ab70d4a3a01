// Package ui layout constants for consistent spacing and dimensions
package ui

// Layout constants for viewport and panel sizing
const (
	// Viewport padding and margins
	ViewportHorizontalPadding = 4
	ViewportVerticalPadding   = 8

	// Side panel (progress, impact, assistant)
	SidePanelRatio   = 0.35
	SidePanelDivider = 1

	// Panel borders and spacing
	PanelBorderWidth = 1
	PanelPaddingH    = 1
	PanelPaddingV    = 0
	ContentIndent    = 2

	// Control areas
	HeaderHeight = 2
	BannerHeight = 1
	FooterHeight = 2

	// Responsive breakpoints
	MinimumTerminalWidth  = 60
	MinimumTerminalHeight = 20
	CompactModeWidth      = 100

	// Content widths
	ModalMaxWidth   = 90
	ModalPadding    = 2
	ProgressWidth   = 30
	MinContentWidth = 40
)

// LayoutConfig provides computed layout dimensions based on terminal size
type LayoutConfig struct {
	TerminalWidth  int
	TerminalHeight int
	IsCompact      bool
}

// NewLayoutConfig creates a layout configuration for the given terminal size
func NewLayoutConfig(width, height int) LayoutConfig {
	if width < MinimumTerminalWidth {
		width = MinimumTerminalWidth
	}
	if height < MinimumTerminalHeight {
		height = MinimumTerminalHeight
	}
	return LayoutConfig{
		TerminalWidth:  width,
		TerminalHeight: height,
		IsCompact:      width < CompactModeWidth,
	}
}

// ContentWidth returns the usable content width
func (l LayoutConfig) ContentWidth() int {
	return l.TerminalWidth - ViewportHorizontalPadding
}

// ContentHeight returns the usable content height
func (l LayoutConfig) ContentHeight() int {
	return l.TerminalHeight - ViewportVerticalPadding
}

// Columns splits the content width into the card list and the side panel.
// Compact layouts stack the panel below the list and get the full width for
// both.
func (l LayoutConfig) Columns() (main, side int) {
	w := l.ContentWidth()
	if l.IsCompact {
		return w, w
	}
	side = int(float64(w) * SidePanelRatio)
	main = w - side - SidePanelDivider
	return main, side
}

// ModalWidth returns the width of the detail modal.
func (l LayoutConfig) ModalWidth() int {
	return min(l.ContentWidth(), ModalMaxWidth)
}

// ModalInnerWidth returns the text width inside the modal padding.
func (l LayoutConfig) ModalInnerWidth() int {
	return l.ModalWidth() - ModalPadding*2
}

// PanelContentWidth returns the content width inside a bordered panel
func PanelContentWidth(panelWidth int) int {
	return panelWidth - (PanelBorderWidth * 2) - (PanelPaddingH * 2)
}
