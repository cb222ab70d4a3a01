package ui

import (
	"fmt"
	"strings"

	"vulnboard/internal/dashboard"
	"vulnboard/internal/fixtures"
	"vulnboard/internal/logging"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// DashboardNotice is shown after the dashboard recovered from a fault.
const DashboardNotice = "Something went wrong. Open dialogs were closed; your progress is intact."

// DashboardPage renders the priority action dashboard and maps keys onto the
// dashboard controller.
type DashboardPage struct {
	ctrl    *dashboard.Controller
	styles  Styles
	keys    DashboardKeys
	ring    progress.Model
	detail  viewport.Model
	md      *glamour.TermRenderer
	mdStyle string
	layout  LayoutConfig

	cursor    int
	detailFor int
	notice    string
}

// NewDashboardPage creates the dashboard page over ctrl.
func NewDashboardPage(ctrl *dashboard.Controller, styles Styles, mdStyle string) DashboardPage {
	layout := NewLayoutConfig(MinimumTerminalWidth, MinimumTerminalHeight)
	m := DashboardPage{
		ctrl:    ctrl,
		styles:  styles,
		keys:    NewDashboardKeys(),
		ring:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(ProgressWidth), progress.WithoutPercentage()),
		detail:  viewport.New(layout.ModalInnerWidth(), layout.ContentHeight()),
		mdStyle: markdownStyle(mdStyle, styles.Theme),
		layout:  layout,
	}
	m.md = newMarkdownRenderer(m.mdStyle, layout.ModalInnerWidth()-ModalPadding*2)
	return m
}

// Controller returns the dashboard controller.
func (m DashboardPage) Controller() *dashboard.Controller {
	return m.ctrl
}

// Keys returns the page bindings for the help view.
func (m DashboardPage) Keys() help.KeyMap {
	return m.keys
}

// Cursor returns the index of the selected card.
func (m DashboardPage) Cursor() int {
	return m.cursor
}

// Notice returns the recovery notice, or "" when none is shown.
func (m DashboardPage) Notice() string {
	return m.notice
}

// SetSize updates the layout for a new terminal size.
func (m *DashboardPage) SetSize(w, h int) {
	m.layout = NewLayoutConfig(w, h)
	m.detail.Width = m.layout.ModalInnerWidth()
	m.detail.Height = m.layout.ContentHeight()
	m.md = newMarkdownRenderer(m.mdStyle, m.layout.ModalInnerWidth()-ModalPadding*2)
	m.detailFor = 0
	m.syncDetail()
}

// Update handles key input.
func (m DashboardPage) Update(msg tea.Msg) (DashboardPage, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd = m.handleKey(msg)
	}
	m.clampCursor()
	m.syncDetail()
	return m, cmd
}

func (m *DashboardPage) handleKey(msg tea.KeyMsg) tea.Cmd {
	modal := m.ctrl.Modal()

	switch {
	case key.Matches(msg, m.keys.Dismiss):
		m.notice = ""
	case key.Matches(msg, m.keys.Escape):
		if !m.ctrl.Escape() {
			m.notice = ""
		}
	case key.Matches(msg, m.keys.ToggleAI):
		m.ctrl.ToggleAIPanel()
	case key.Matches(msg, m.keys.CloseAlert):
		m.ctrl.CloseAlert()
	case modal != nil && key.Matches(msg, m.keys.Confirm, m.keys.TakeAction):
		m.ctrl.ConfirmOpen()
	case modal != nil && key.Matches(msg, m.keys.Up, m.keys.Down, m.keys.ScrollPanel):
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return cmd
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		m.cursor++
	case modal == nil && key.Matches(msg, m.keys.Open):
		if id, ok := m.selected(); ok {
			m.ctrl.OpenDetail(id)
		}
	case key.Matches(msg, m.keys.TakeAction):
		if id, ok := m.selected(); ok {
			m.ctrl.Confirm(id)
		}
	}
	return nil
}

// Invoke runs an exported dashboard operation on behalf of the control
// server.
func (m *DashboardPage) Invoke(op string, id int) (bool, error) {
	changed, err := m.ctrl.Invoke(op, id)
	m.clampCursor()
	m.syncDetail()
	return changed, err
}

// Recover closes every overlay after a fault and shows a notice.
func (m *DashboardPage) Recover(err error) {
	logging.Get(logging.CategoryUI).Error("Dashboard recovered from fault: %v", err)
	logging.AuditWithSession("dashboard", "").Log(logging.AuditEvent{
		EventType: logging.AuditFaultRecovered,
		Message:   fmt.Sprint(err),
	})
	m.ctrl.CloseCelebration()
	m.ctrl.CloseDetail()
	m.notice = DashboardNotice
	m.clampCursor()
	m.syncDetail()
}

// Tick keeps cursor and modal content in step with changes made by timed
// continuations.
func (m *DashboardPage) Tick() {
	m.clampCursor()
	m.syncDetail()
}

func (m *DashboardPage) selected() (int, bool) {
	cards := m.ctrl.Render()
	if m.cursor < 0 || m.cursor >= len(cards) {
		return 0, false
	}
	return cards[m.cursor].ID, true
}

func (m *DashboardPage) clampCursor() {
	n := len(m.ctrl.Render())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *DashboardPage) syncDetail() {
	d := m.ctrl.Modal()
	if d == nil {
		m.detailFor = 0
		return
	}
	if d.Action.ID == m.detailFor {
		return
	}
	m.detailFor = d.Action.ID
	m.detail.SetContent(renderMarkdown(m.md, DetailMarkdown(d)))
	m.detail.GotoTop()
}

// DetailMarkdown renders the modal body for an action.
func DetailMarkdown(d *dashboard.Detail) string {
	a := d.Action
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", a.Title)

	sb.WriteString("## Vulnerability Information\n\n")
	if d.Link != "" {
		fmt.Fprintf(&sb, "**CVE ID:** [%s](%s)  \n", a.CVEID, d.Link)
	}
	fmt.Fprintf(&sb, "**Severity:** %s  \n", d.SeverityLabel)
	fmt.Fprintf(&sb, "**Affected Devices:** %d devices\n\n", a.DeviceCount)

	sb.WriteString("## Impact Analysis\n\n")
	sb.WriteString(a.Impact + "\n\n")

	sb.WriteString("## AI Recommendation\n\n")
	sb.WriteString(a.Recommendation + "\n\n")

	sb.WriteString("## Time to Action\n\n")
	fmt.Fprintf(&sb, "**Recommended timeframe:** %s\n\n", a.TimeToAction)
	if d.Urgent {
		sb.WriteString("⚠️ " + d.Advisory + "\n")
	} else {
		sb.WriteString("📅 " + d.Advisory + "\n")
	}
	return sb.String()
}

// View renders the page.
func (m DashboardPage) View() string {
	s := m.styles
	width := m.layout.ContentWidth()

	var sections []string
	sections = append(sections, s.Header.Width(width).Render("VULNBOARD  ·  Priority Actions"))

	if b := m.ctrl.Banner(); !b.Hidden {
		style := s.Banner
		icon := "⚠"
		if b.AllClear {
			style = s.BannerClear
			icon = "✅"
		}
		sections = append(sections, style.Width(width).Render(icon+" "+b.Text))
	}
	if m.notice != "" {
		sections = append(sections, s.Warning.Render(m.notice))
	}
	if m.ctrl.Celebrating() {
		sections = append(sections, lipgloss.PlaceHorizontal(width, lipgloss.Center,
			s.Celebration.Render("🎉 Action Confirmed!\nGreat work. Your facility is safer.")))
	}

	if d := m.ctrl.Modal(); d != nil {
		sections = append(sections, m.renderModal(d))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	mainW, sideW := m.layout.Columns()
	list := m.renderCards(mainW)
	side := m.renderSide(sideW)
	if m.layout.IsCompact {
		sections = append(sections, list, side)
	} else {
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, list, strings.Repeat(" ", SidePanelDivider), side))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardPage) renderModal(d *dashboard.Detail) string {
	s := m.styles
	body := m.detail.View()
	footer := s.Muted.Render("y confirm · esc close · pgup/pgdn scroll")
	box := s.Modal.BorderForeground(lipgloss.Color(d.Color)).Width(m.layout.ModalWidth()).
		Render(lipgloss.JoinVertical(lipgloss.Left, s.SeverityBadge(d.SeverityLabel, d.Color), body, footer))
	return lipgloss.PlaceHorizontal(m.layout.ContentWidth(), lipgloss.Center, box)
}

func (m DashboardPage) renderCards(width int) string {
	s := m.styles
	cards := m.ctrl.Render()

	var sb strings.Builder
	sb.WriteString(s.Title.Render(fmt.Sprintf("Priority Actions (%d)", len(cards))))
	sb.WriteString("\n")
	if len(cards) == 0 {
		sb.WriteString(s.Muted.Render("No pending actions."))
		return lipgloss.NewStyle().Width(width).Render(sb.String())
	}

	for i, c := range cards {
		var lines []string
		head := s.SeverityBadge(c.SeverityLabel, c.Color) + " " + s.Bold.Render(c.Title)
		if c.Phase != dashboard.PhaseListed && c.Phase != dashboard.PhaseDetailOpen {
			head += " " + s.Success.Render("✓ "+c.Phase.String())
		}
		lines = append(lines, head)
		lines = append(lines, s.Muted.Render(fmt.Sprintf("%d devices affected  ·  ⏱ %s", c.DeviceCount, c.TimeToAction)))
		lines = append(lines, s.Body.Render("Impact: "+c.Impact))
		card := s.CardStyle(c.Color, i == m.cursor).Width(width - 2).Render(strings.Join(lines, "\n"))
		sb.WriteString(card)
		sb.WriteString("\n")
	}
	return lipgloss.NewStyle().Width(width).Render(sb.String())
}

func (m DashboardPage) renderSide(width int) string {
	s := m.styles
	inner := PanelContentWidth(width)
	p := m.ctrl.Progress()
	im := m.ctrl.Impact()

	var sb strings.Builder
	sb.WriteString(s.Title.Render("Your Progress"))
	sb.WriteString("\n")
	ring := m.ring
	ring.Width = min(ProgressWidth, max(inner-6, 10))
	fmt.Fprintf(&sb, "%s %d%%\n", ring.ViewAs(float64(p.CriticalResolved)/100), p.CriticalResolved)
	sb.WriteString(s.Muted.Render("critical vulnerabilities resolved"))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Completed actions  %s\n", s.Bold.Render(fmt.Sprint(p.CompletedActions)))
	fmt.Fprintf(&sb, "Streak             %s days\n", s.Bold.Render(fmt.Sprint(p.StreakDays)))
	fmt.Fprintf(&sb, "Assessments        %s\n", s.Bold.Render(fmt.Sprint(p.TotalAssessments)))
	fmt.Fprintf(&sb, "Monthly target     %s%%\n", s.Bold.Render(fmt.Sprint(p.MonthlyTarget)))

	sb.WriteString("\n")
	sb.WriteString(s.Title.Render("Impact"))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Incidents prevented  %s\n", s.Success.Render(fmt.Sprint(im.IncidentsPrevented)))
	fmt.Fprintf(&sb, "Downtime prevented   %s\n", im.DowntimePrevented)
	fmt.Fprintf(&sb, "Cost saved           %s\n", im.CostSaved)
	fmt.Fprintf(&sb, "Security posture     %s\n", s.Bold.Render(fmt.Sprintf("%d%%", im.SecurityPostureScore)))

	if succ := m.ctrl.RecentSuccesses(); len(succ) > 0 {
		sb.WriteString("\n")
		sb.WriteString(s.Title.Render("Recent Successes"))
		sb.WriteString("\n")
		for _, r := range succ {
			fmt.Fprintf(&sb, "✓ %s %s\n", r.Text, s.Muted.Render(dashboard.FormatTimeAgo(r.HoursAgo)))
		}
	}

	if ach := m.ctrl.Achievements(); len(ach) > 0 {
		sb.WriteString("\n")
		sb.WriteString(s.Title.Render("Achievements"))
		sb.WriteString("\n")
		for _, a := range ach {
			mark := s.Muted.Render("○")
			if a.Earned {
				mark = s.Success.Render("★")
			}
			fmt.Fprintf(&sb, "%s %s %s\n", mark, a.Name, s.Muted.Render(a.Description))
		}
	}

	if m.ctrl.AIPanelOpen() {
		sb.WriteString("\n")
		sb.WriteString(s.Panel.Width(inner-PanelBorderWidth*2-PanelPaddingH*2).BorderForeground(s.Theme.Accent).Render(m.assistantText()))
	}

	return s.Panel.Width(inner).Render(strings.TrimRight(sb.String(), "\n"))
}

// assistantText is the body of the AI assistant panel: the most urgent
// pending action and its recommendation.
func (m DashboardPage) assistantText() string {
	s := m.styles
	head := s.Bold.Render("AI Assistant")
	for _, a := range m.ctrl.Actions() {
		if m.ctrl.PhaseOf(a.ID) == dashboard.PhaseListed || m.ctrl.PhaseOf(a.ID) == dashboard.PhaseDetailOpen {
			if a.Severity == fixtures.SeverityCritical || a.Severity == fixtures.SeverityHigh {
				return fmt.Sprintf("%s\nFocus next on %s (%s).\n%s", head, a.Title, a.CVEID, a.Recommendation)
			}
		}
	}
	return head + "\nNo critical or high actions pending. Review medium findings at the next maintenance window."
}
