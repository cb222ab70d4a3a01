package ui

import (
	"testing"
	"time"

	"vulnboard/internal/control"
	"vulnboard/internal/dashboard"
	"vulnboard/internal/fixtures"
	"vulnboard/internal/schedule"
	"vulnboard/internal/wizard"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	up    = tea.KeyMsg{Type: tea.KeyUp}
)

type testEnv struct {
	clock *clockwork.FakeClock
	tl    *schedule.Timeline
	store *control.Store
}

func newEnv() *testEnv {
	clock := clockwork.NewFakeClock()
	return &testEnv{clock: clock, tl: schedule.NewTimeline(clock), store: control.NewStore()}
}

func (e *testEnv) dashboard(opts dashboard.Options) *dashboard.Controller {
	return dashboard.NewController(fixtures.DefaultDashboard(), e.tl, opts)
}

func (e *testEnv) wizard(opts wizard.Options) *wizard.Controller {
	return wizard.NewController(fixtures.DefaultWizard(), e.tl, opts)
}

func (e *testEnv) app(d *dashboard.Controller, w *wizard.Controller) App {
	a := NewApp(AppOptions{
		Timeline:      e.tl,
		Dashboard:     d,
		Wizard:        w,
		Store:         e.store,
		Styles:        NewStyles(LightTheme()),
		MarkdownStyle: "notty",
		ShowHelp:      true,
	})
	next, _ := a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(App)
}

func send(t *testing.T, a App, msg tea.Msg) App {
	t.Helper()
	next, _ := a.Update(msg)
	app, ok := next.(App)
	if !ok {
		t.Fatalf("Update returned %T, want App", next)
	}
	return app
}

// tick advances the fake clock and delivers the tick the App armed.
func (e *testEnv) tick(t *testing.T, a App, d time.Duration) App {
	t.Helper()
	e.clock.Advance(d)
	return send(t, a, timelineTickMsg{deadline: a.Armed()})
}
