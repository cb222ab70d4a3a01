package dashboard

import (
	"vulnboard/internal/logging"
)

// Banner is the render model of the status strip at the top of the screen.
type Banner struct {
	Text     string `json:"text"`
	AllClear bool   `json:"all_clear"`
	Hidden   bool   `json:"hidden"`
}

// Banner returns the current banner. A dismissed banner stays hidden even
// after the last critical action is removed.
func (c *Controller) Banner() Banner {
	b := Banner{
		Text:     c.data.Banner.Alert,
		AllClear: c.bannerAllClear,
		Hidden:   c.alertDismissed,
	}
	if c.bannerAllClear {
		b.Text = c.data.Banner.AllClear
	}
	return b
}

// CloseAlert dismisses the banner.
func (c *Controller) CloseAlert() {
	if c.alertDismissed {
		return
	}
	c.alertDismissed = true
	logging.Dashboard("Alert banner dismissed")
	c.changed()
}

// ToggleAIPanel opens or closes the assistant panel.
func (c *Controller) ToggleAIPanel() {
	c.aiPanelOpen = !c.aiPanelOpen
	logging.DashboardDebug("AI panel toggled, open=%v", c.aiPanelOpen)
	c.changed()
}

// CloseAIPanel closes the assistant panel.
func (c *Controller) CloseAIPanel() {
	if !c.aiPanelOpen {
		return
	}
	c.aiPanelOpen = false
	c.changed()
}

// AIPanelOpen reports whether the assistant panel is shown.
func (c *Controller) AIPanelOpen() bool {
	return c.aiPanelOpen
}

// ShowCelebration shows the celebration overlay and schedules its
// auto-dismiss. A later celebration is not cut short by an earlier one's
// dismiss.
func (c *Controller) ShowCelebration() {
	c.celebrating = true
	c.celebrationGen++
	gen := c.celebrationGen
	logging.Dashboard("Showing celebration")
	c.timeline.After("celebration/dismiss", c.timing.CelebrationDuration, func() {
		if c.celebrationGen == gen {
			c.CloseCelebration()
		}
	})
	c.changed()
}

// CloseCelebration hides the celebration overlay.
func (c *Controller) CloseCelebration() {
	if !c.celebrating {
		return
	}
	c.celebrating = false
	c.changed()
}

// Celebrating reports whether the celebration overlay is shown.
func (c *Controller) Celebrating() bool {
	return c.celebrating
}

// Escape closes the topmost overlay: the celebration, then the modal, then
// the assistant panel. It reports whether anything was closed.
func (c *Controller) Escape() bool {
	switch {
	case c.celebrating:
		c.CloseCelebration()
	case c.modal != nil:
		c.CloseDetail()
	case c.aiPanelOpen:
		c.CloseAIPanel()
	default:
		return false
	}
	return true
}
