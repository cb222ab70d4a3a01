package ui

import (
	"fmt"
	"strings"

	"vulnboard/internal/dashboard"
	"vulnboard/internal/fixtures"
	"vulnboard/internal/wizard"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// phaseRows is the set of processing phases the page has a row for. A phase
// declared without a label gets no row.
type phaseRows map[string]bool

func (p phaseRows) HasPhase(id string) bool { return p[id] }

func newPhaseRows(defs []fixtures.PhaseDef) phaseRows {
	rows := make(phaseRows, len(defs))
	for _, d := range defs {
		if strings.TrimSpace(d.Label) != "" {
			rows[d.ID] = true
		}
	}
	return rows
}

// WizardPage renders the five assessment screens and maps keys onto the
// wizard controller.
type WizardPage struct {
	ctrl    *wizard.Controller
	styles  Styles
	keys    WizardKeys
	spinner spinner.Model
	bar     progress.Model
	results viewport.Model
	md      *glamour.TermRenderer
	mdStyle string
	layout  LayoutConfig

	resultsReady bool
}

// NewWizardPage creates the wizard page over ctrl and registers the page as
// the animator's phase surface.
func NewWizardPage(ctrl *wizard.Controller, styles Styles, mdStyle string) WizardPage {
	layout := NewLayoutConfig(MinimumTerminalWidth, MinimumTerminalHeight)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	ctrl.Animator().SetSurface(newPhaseRows(ctrl.Data().Phases))

	m := WizardPage{
		ctrl:    ctrl,
		styles:  styles,
		keys:    NewWizardKeys(),
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(ProgressWidth)),
		results: viewport.New(layout.ContentWidth(), layout.ContentHeight()),
		mdStyle: markdownStyle(mdStyle, styles.Theme),
		layout:  layout,
	}
	m.md = newMarkdownRenderer(m.mdStyle, layout.ContentWidth())
	return m
}

// Init starts the spinner.
func (m WizardPage) Init() tea.Cmd {
	return m.spinner.Tick
}

// Controller returns the wizard controller.
func (m WizardPage) Controller() *wizard.Controller {
	return m.ctrl
}

// Keys returns the page bindings for the help view.
func (m WizardPage) Keys() help.KeyMap {
	return m.keys
}

// SetSize updates the layout for a new terminal size.
func (m *WizardPage) SetSize(w, h int) {
	m.layout = NewLayoutConfig(w, h)
	m.results.Width = m.layout.ContentWidth()
	m.results.Height = m.layout.ContentHeight() - HeaderHeight
	m.md = newMarkdownRenderer(m.mdStyle, m.layout.ContentWidth())
	m.resultsReady = false
	m.syncResults()
}

// Update handles key input and spinner ticks.
func (m WizardPage) Update(msg tea.Msg) (WizardPage, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
	case tea.KeyMsg:
		cmd = m.handleKey(msg)
	}
	m.syncResults()
	return m, cmd
}

func (m *WizardPage) handleKey(msg tea.KeyMsg) tea.Cmd {
	c := m.ctrl
	switch {
	case key.Matches(msg, m.keys.Dismiss):
		c.DismissNotice()
	case key.Matches(msg, m.keys.Next):
		m.primary()
	case key.Matches(msg, m.keys.Back):
		switch c.CurrentStep() {
		case wizard.StepAnalysis:
			c.Back()
		case wizard.StepConfirmation:
			c.Cancel()
		}
	case key.Matches(msg, m.keys.Escape):
		c.Escape()
	case key.Matches(msg, m.keys.Restart):
		c.Restart()
	case c.CurrentStep() == wizard.StepResults && key.Matches(msg, m.keys.Scroll):
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return cmd
	}
	return nil
}

// primary runs the main button of the current screen.
func (m *WizardPage) primary() {
	c := m.ctrl
	switch c.CurrentStep() {
	case wizard.StepSummary:
		c.Analyze()
	case wizard.StepAnalysis:
		c.Proceed()
	case wizard.StepConfirmation:
		c.ConfirmProceed()
	case wizard.StepResults:
		c.ViewResults()
	}
}

// Invoke runs an exported wizard operation on behalf of the control server.
func (m *WizardPage) Invoke(op string, arg int) (bool, error) {
	changed, err := m.ctrl.Invoke(op, arg)
	m.syncResults()
	return changed, err
}

// Recover hands a fault to the wizard controller.
func (m *WizardPage) Recover(err error) {
	m.ctrl.HandleFault(err)
	m.syncResults()
}

// Tick refreshes derived content after timed continuations ran.
func (m *WizardPage) Tick() {
	m.syncResults()
}

func (m *WizardPage) syncResults() {
	if m.ctrl.CurrentStep() != wizard.StepResults {
		m.resultsReady = false
		return
	}
	if m.resultsReady {
		return
	}
	m.resultsReady = true
	m.results.SetContent(renderMarkdown(m.md, ResultsMarkdown(m.ctrl.Data())))
	m.results.GotoTop()
}

// ResultsMarkdown renders the results screen body.
func ResultsMarkdown(w *fixtures.Wizard) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Remediation Plan Ready: %s\n\n", w.Summary.Site)
	sb.WriteString("| Outcome | Value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Downtime avoided | %s |\n", w.Impact.DowntimeAvoided)
	fmt.Fprintf(&sb, "| Risk reduction | %s |\n", w.Impact.RiskReduction)
	fmt.Fprintf(&sb, "| Cost avoided | %s |\n\n", w.Impact.CostAvoided)

	sb.WriteString("## Scheduled Actions\n\n")
	for _, a := range w.RemediationActions {
		fmt.Fprintf(&sb, "- **%s** (%s): %s, %s\n", a.Title, strings.ToUpper(string(a.Severity)), a.Owner, a.Window)
	}
	return sb.String()
}

// View renders the page.
func (m WizardPage) View() string {
	s := m.styles
	c := m.ctrl
	width := m.layout.ContentWidth()

	sections := []string{
		s.Header.Width(width).Render("VULNBOARD  ·  " + c.Title()),
		m.renderSteps(),
	}
	if n := c.Notice(); n != "" {
		sections = append(sections, s.Warning.Render(n)+" "+s.Muted.Render("(n to dismiss)"))
	}

	var body string
	switch c.CurrentStep() {
	case wizard.StepSummary:
		body = m.renderSummary()
	case wizard.StepAnalysis:
		body = m.renderAnalysis()
	case wizard.StepConfirmation:
		body = m.renderConfirmation()
	case wizard.StepProcessing:
		body = m.renderProcessing()
	case wizard.StepResults:
		body = m.results.View() + "\n" + s.Muted.Render("enter or r to start a new assessment")
	}
	sections = append(sections, s.Content.Render(body))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m WizardPage) renderSteps() string {
	s := m.styles
	var parts []string
	for _, sc := range m.ctrl.Screens() {
		label := fmt.Sprintf("%d %s", sc.Step, sc.Title)
		if sc.Active {
			parts = append(parts, s.StepActive.Render(label))
		} else {
			parts = append(parts, s.StepInactive.Render(label))
		}
	}
	return strings.Join(parts, s.Muted.Render(" › "))
}

func (m WizardPage) renderSummary() string {
	s := m.styles
	sum := m.ctrl.Data().Summary
	var sb strings.Builder
	sb.WriteString(s.Title.Render(sum.Site))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Devices scanned   %s\n", s.Bold.Render(fmt.Sprint(sum.DevicesScanned)))
	fmt.Fprintf(&sb, "Vulnerabilities   %s\n", s.Bold.Render(fmt.Sprint(sum.Vulnerabilities)))
	fmt.Fprintf(&sb, "  %s  %s  %s  %s\n",
		m.count(fixtures.SeverityCritical, sum.Critical),
		m.count(fixtures.SeverityHigh, sum.High),
		m.count(fixtures.SeverityMedium, sum.Medium),
		m.count(fixtures.SeverityLow, sum.Low))
	fmt.Fprintf(&sb, "Risk score        %s\n\n", s.Error.Render(fmt.Sprintf("%d/100", sum.RiskScore)))
	sb.WriteString(s.Muted.Render("enter: run AI risk analysis"))
	return sb.String()
}

func (m WizardPage) count(sev fixtures.Severity, n int) string {
	return m.styles.SeverityBadge(fmt.Sprintf("%s %d", strings.ToUpper(string(sev)), n), dashboard.SeverityColor(sev))
}

func (m WizardPage) renderAnalysis() string {
	s := m.styles
	var sb strings.Builder
	sb.WriteString(s.Title.Render("Critical Devices"))
	sb.WriteString("\n")
	for _, d := range m.ctrl.Data().CriticalDevices {
		sev := strings.ToUpper(string(d.Severity))
		fmt.Fprintf(&sb, "%s %s  %s\n", s.SeverityBadge(sev, dashboard.SeverityColor(d.Severity)), s.Bold.Render(d.Name), s.Muted.Render(d.Zone+" · "+d.Vendor))
		fmt.Fprintf(&sb, "   %s\n", d.CVEID)
	}
	sb.WriteString("\n")
	sb.WriteString(s.Muted.Render("enter: review remediation plan · b: back"))
	return sb.String()
}

func (m WizardPage) renderConfirmation() string {
	s := m.styles
	var sb strings.Builder
	sb.WriteString(s.Title.Render("Remediation Plan"))
	sb.WriteString("\n")
	for i, a := range m.ctrl.Data().RemediationActions {
		fmt.Fprintf(&sb, "%d. %s %s\n", i+1, s.Bold.Render(a.Title), s.SeverityBadge(strings.ToUpper(string(a.Severity)), dashboard.SeverityColor(a.Severity)))
		fmt.Fprintf(&sb, "   %s\n", s.Muted.Render(a.Owner+" · "+a.Window))
	}
	sb.WriteString("\n")
	sb.WriteString(s.Muted.Render("enter: confirm and proceed · esc/b: cancel"))
	return sb.String()
}

func (m WizardPage) renderProcessing() string {
	s := m.styles
	a := m.ctrl.Animator()
	var sb strings.Builder
	for _, p := range a.Phases() {
		if !newPhaseRows(m.ctrl.Data().Phases).HasPhase(p.ID) {
			continue
		}
		switch p.Status {
		case wizard.PhaseCompleted:
			fmt.Fprintf(&sb, "%s %s\n", s.Success.Render("✓"), p.Label)
		case wizard.PhaseActive:
			fmt.Fprintf(&sb, "%s %s\n", m.spinner.View(), s.Bold.Render(p.Label))
		default:
			fmt.Fprintf(&sb, "%s %s\n", s.Muted.Render("○"), s.Muted.Render(p.Label))
		}
	}
	sb.WriteString("\n")
	sb.WriteString(m.bar.ViewAs(a.Fraction()))
	for _, w := range a.Warnings() {
		sb.WriteString("\n")
		sb.WriteString(s.Warning.Render("! " + w))
	}
	return sb.String()
}
