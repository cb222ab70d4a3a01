package ui

import (
	"strings"
	"testing"
	"time"

	"vulnboard/internal/dashboard"
	"vulnboard/internal/fixtures"
	"vulnboard/internal/wizard"
)

func newDashboardPage(env *testEnv) DashboardPage {
	p := NewDashboardPage(env.dashboard(dashboard.Options{}), NewStyles(LightTheme()), "notty")
	p.SetSize(120, 60)
	return p
}

func TestDashboardPageRendersCardsAndPanels(t *testing.T) {
	p := newDashboardPage(newEnv())
	view := p.View()

	for _, want := range []string{
		"Priority Actions (3)",
		"Critical PLC Firmware Vulnerability",
		"CRITICAL",
		"8 devices affected",
		"85%",
		"Incidents prevented",
		"Recent Successes",
		"Vulnerability Hunter",
		"Critical Alert",
	} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view", want)
		}
	}
	if strings.Contains(view, "AI Assistant") {
		t.Fatalf("assistant panel should start closed")
	}
}

func TestDashboardPageModal(t *testing.T) {
	p := newDashboardPage(newEnv())
	p, _ = p.Update(down)
	p, _ = p.Update(enter)

	d := p.Controller().Modal()
	if d == nil || d.Action.ID != 2 {
		t.Fatalf("expected modal for action 2, got %+v", d)
	}
	view := p.View()
	if !strings.Contains(view, "HMI Authentication Bypass") {
		t.Fatalf("modal title missing")
	}
	if !strings.Contains(view, "Schedule maintenance window") {
		t.Fatalf("non-critical advisory missing")
	}

	// arrow keys scroll the modal instead of moving the cursor
	p, _ = p.Update(up)
	if p.Cursor() != 1 {
		t.Fatalf("cursor moved behind modal: %d", p.Cursor())
	}

	p, _ = p.Update(runes("y"))
	if p.Controller().Modal() != nil {
		t.Fatalf("confirm should close the modal")
	}
	if p.Controller().PhaseOf(2) != dashboard.PhaseConfirmed {
		t.Fatalf("phase = %s, want confirmed", p.Controller().PhaseOf(2))
	}
}

func TestDashboardPageEscapeAndPanels(t *testing.T) {
	p := newDashboardPage(newEnv())

	p, _ = p.Update(runes("a"))
	if !p.Controller().AIPanelOpen() {
		t.Fatalf("expected assistant panel open")
	}
	if !strings.Contains(p.View(), "AI Assistant") {
		t.Fatalf("assistant panel not rendered")
	}
	if !strings.Contains(p.assistantText(), "Focus next on Critical PLC Firmware Vulnerability") {
		t.Fatalf("assistant should point at the critical action")
	}

	p, _ = p.Update(enter)
	p, _ = p.Update(esc)
	if p.Controller().Modal() != nil || !p.Controller().AIPanelOpen() {
		t.Fatalf("first escape closes only the modal")
	}
	p, _ = p.Update(esc)
	if p.Controller().AIPanelOpen() {
		t.Fatalf("second escape closes the assistant panel")
	}

	p, _ = p.Update(runes("x"))
	if !p.Controller().Banner().Hidden {
		t.Fatalf("expected alert dismissed")
	}
	if strings.Contains(p.View(), "Critical Alert") {
		t.Fatalf("dismissed alert still rendered")
	}
}

func TestDashboardPageCelebration(t *testing.T) {
	env := newEnv()
	p := newDashboardPage(env)
	p, _ = p.Update(runes("c"))

	env.clock.Advance(300 * time.Millisecond)
	env.tl.RunDue()
	p.Tick()
	if !strings.Contains(p.View(), "Action Confirmed") {
		t.Fatalf("celebration not rendered")
	}
	if !strings.Contains(p.View(), "✓ celebrating") {
		t.Fatalf("card phase not rendered")
	}
}

func TestDetailMarkdownUrgency(t *testing.T) {
	a := fixtures.DefaultDashboard().PriorityActions[0]
	d := &dashboard.Detail{
		Action:        a,
		SeverityLabel: "CRITICAL",
		Urgent:        true,
		Advisory:      "Immediate attention required",
		Link:          dashboard.NVDLink(a.CVEID),
	}
	md := DetailMarkdown(d)
	for _, want := range []string{
		"## Vulnerability Information",
		"[CVE-2024-8756](https://nvd.nist.gov/vuln/detail/CVE-2024-8756)",
		"## AI Recommendation",
		"⚠️ Immediate attention required",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected %q in markdown:\n%s", want, md)
		}
	}
}

func newWizardPage(env *testEnv, opts wizard.Options) WizardPage {
	p := NewWizardPage(env.wizard(opts), NewStyles(DarkTheme()), "notty")
	p.SetSize(120, 40)
	return p
}

func TestWizardPageWalkthrough(t *testing.T) {
	env := newEnv()
	p := newWizardPage(env, wizard.Options{})
	c := p.Controller()

	if !strings.Contains(p.View(), "Riverside Assembly Plant") {
		t.Fatalf("summary missing site")
	}

	p, _ = p.Update(enter)
	if c.CurrentStep() != wizard.StepAnalysis || !strings.Contains(p.View(), "PLC-LINE2-01") {
		t.Fatalf("expected analysis screen with devices")
	}
	p, _ = p.Update(runes("b"))
	if c.CurrentStep() != wizard.StepSummary {
		t.Fatalf("b should go back to the summary")
	}

	p, _ = p.Update(enter)
	p, _ = p.Update(enter)
	if c.CurrentStep() != wizard.StepConfirmation || !strings.Contains(p.View(), "Patch PLC firmware") {
		t.Fatalf("expected confirmation screen")
	}
	p, _ = p.Update(esc)
	if c.CurrentStep() != wizard.StepAnalysis {
		t.Fatalf("esc should cancel confirmation")
	}

	p, _ = p.Update(enter)
	p, _ = p.Update(enter)
	if c.CurrentStep() != wizard.StepProcessing || !c.Animator().Running() {
		t.Fatalf("expected processing to start")
	}
	if !strings.Contains(p.View(), "Verifying device inventory") {
		t.Fatalf("phase label missing")
	}

	p, _ = p.Update(esc)
	if c.CurrentStep() != wizard.StepProcessing {
		t.Fatalf("esc must not leave processing")
	}

	env.clock.Advance(6 * time.Second)
	env.tl.RunDue()
	p.Tick()
	if c.CurrentStep() != wizard.StepResults {
		t.Fatalf("step = %d, want results", c.CurrentStep())
	}
	if view := p.View(); !strings.Contains(view, "Remediation Plan Ready") || !strings.Contains(view, "8 hours") {
		t.Fatalf("results not rendered:\n%s", view)
	}

	p, _ = p.Update(runes("r"))
	if c.CurrentStep() != wizard.StepSummary {
		t.Fatalf("r should restart")
	}
}

func TestWizardPageSkipsUnlabelledPhase(t *testing.T) {
	env := newEnv()
	data := fixtures.DefaultWizard()
	data.Phases[1].Label = ""
	c := wizard.NewController(data, env.tl, wizard.Options{})
	p := NewWizardPage(c, NewStyles(LightTheme()), "notty")

	c.GoTo(wizard.StepConfirmation)
	p, _ = p.Update(enter)

	env.clock.Advance(1200 * time.Millisecond)
	env.tl.RunDue()
	if got := c.Animator().Phases()[1].Status; got != wizard.PhaseCompleted {
		t.Fatalf("unlabelled phase status = %s, want completed", got)
	}
	if len(c.Animator().Warnings()) != 1 {
		t.Fatalf("expected one warning, got %v", c.Animator().Warnings())
	}
	if !strings.Contains(p.View(), "! ") {
		t.Fatalf("warning not rendered")
	}
}

func TestResultsMarkdown(t *testing.T) {
	md := ResultsMarkdown(fixtures.DefaultWizard())
	for _, want := range []string{"| Risk reduction | 64% |", "**Rotate HMI default credentials** (HIGH)"} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected %q in:\n%s", want, md)
		}
	}
}
