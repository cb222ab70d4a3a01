package ui

import (
	"fmt"
	"time"

	"vulnboard/internal/control"
	"vulnboard/internal/dashboard"
	"vulnboard/internal/logging"
	"vulnboard/internal/schedule"
	"vulnboard/internal/wizard"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// timelineTickMsg asks the App to run due timeline continuations. deadline
// is the continuation deadline the tick was armed for; zero means "check
// now".
type timelineTickMsg struct {
	deadline time.Time
}

// AppOptions configures the root model. Exactly one of Dashboard or Wizard
// is set, and it must schedule onto Timeline.
type AppOptions struct {
	Timeline      *schedule.Timeline
	Dashboard     *dashboard.Controller
	Wizard        *wizard.Controller
	Store         *control.Store
	Styles        Styles
	MarkdownStyle string
	ShowHelp      bool
}

// App is the root bubbletea model. It owns the timeline clock: it arms a
// tea.Tick for the earliest pending continuation and runs due work on the
// UI goroutine, so controllers never see concurrent calls.
type App struct {
	screen   string
	timeline *schedule.Timeline
	dash     DashboardPage
	wiz      WizardPage
	store    *control.Store
	styles   Styles
	keys     GlobalKeys
	help     help.Model
	showHelp bool

	width    int
	height   int
	armed    time.Time
	quitting bool
}

// NewApp creates the root model.
func NewApp(opts AppOptions) App {
	a := App{
		timeline: opts.Timeline,
		store:    opts.Store,
		styles:   opts.Styles,
		keys:     newGlobalKeys(),
		help:     help.New(),
		showHelp: opts.ShowHelp,
	}
	if opts.Wizard != nil {
		a.screen = control.ScreenWizard
		a.wiz = NewWizardPage(opts.Wizard, opts.Styles, opts.MarkdownStyle)
	} else {
		a.screen = control.ScreenDashboard
		a.dash = NewDashboardPage(opts.Dashboard, opts.Styles, opts.MarkdownStyle)
	}
	a.publish()
	return a
}

// Screen returns the name of the running screen.
func (a App) Screen() string {
	return a.screen
}

// Dashboard returns the dashboard page. Only meaningful on the dashboard
// screen.
func (a App) Dashboard() DashboardPage {
	return a.dash
}

// Wizard returns the wizard page. Only meaningful on the wizard screen.
func (a App) Wizard() WizardPage {
	return a.wiz
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	check := func() tea.Msg { return timelineTickMsg{} }
	if a.screen == control.ScreenWizard {
		return tea.Batch(a.wiz.Init(), check)
	}
	return check
}

// Update implements tea.Model. A panic raised while handling msg is
// recovered and handed to the running screen's fault handler.
func (a App) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			if inv, ok := msg.(control.Invoke); ok {
				inv.Respond(control.Result{Err: err})
			}
			a.recoverFault(err)
			next := a.finish(nil)
			model, cmd = a, next
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.help.Width = msg.Width
		if a.screen == control.ScreenWizard {
			a.wiz.SetSize(msg.Width, msg.Height)
		} else {
			a.dash.SetSize(msg.Width, msg.Height)
		}
		return a, a.finish(nil)

	case timelineTickMsg:
		if msg.deadline.Equal(a.armed) {
			a.armed = time.Time{}
		}
		if ran := a.timeline.RunDue(); len(ran) > 0 {
			logging.Get(logging.CategoryUI).Debug("Timeline ran %v", ran)
		}
		a.tickPage()
		return a, a.finish(nil)

	case control.Invoke:
		a.invoke(msg)
		return a, a.finish(nil)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			a.quitting = true
			return a, tea.Quit
		case key.Matches(msg, a.keys.Help):
			a.help.ShowAll = !a.help.ShowAll
			return a, nil
		}
	}

	if a.screen == control.ScreenWizard {
		a.wiz, cmd = a.wiz.Update(msg)
	} else {
		a.dash, cmd = a.dash.Update(msg)
	}
	return a, a.finish(cmd)
}

func (a *App) invoke(inv control.Invoke) {
	if inv.Screen != a.screen {
		inv.Respond(control.Result{Err: control.ErrScreenInactive})
		return
	}
	var res control.Result
	if a.screen == control.ScreenWizard {
		res.Changed, res.Err = a.wiz.Invoke(inv.Op, inv.Arg)
	} else {
		res.Changed, res.Err = a.dash.Invoke(inv.Op, inv.Arg)
	}
	logging.Get(logging.CategoryControl).Debug("Invoke %s/%s(%d): changed=%v err=%v", inv.Screen, inv.Op, inv.Arg, res.Changed, res.Err)
	inv.Respond(res)
}

func (a *App) tickPage() {
	if a.screen == control.ScreenWizard {
		a.wiz.Tick()
	} else {
		a.dash.Tick()
	}
}

func (a *App) recoverFault(err error) {
	if a.screen == control.ScreenWizard {
		a.wiz.Recover(err)
	} else {
		a.dash.Recover(err)
	}
}

// finish publishes the new state and re-arms the timeline tick.
func (a *App) finish(cmd tea.Cmd) tea.Cmd {
	a.publish()
	return tea.Batch(cmd, a.arm())
}

// arm schedules a tick for the earliest pending continuation unless one is
// already armed for the same or an earlier deadline.
func (a *App) arm() tea.Cmd {
	deadline, ok := a.timeline.Deadline()
	if !ok {
		return nil
	}
	if !a.armed.IsZero() && !deadline.Before(a.armed) {
		return nil
	}
	a.armed = deadline
	d, _ := a.timeline.Next()
	return tea.Tick(d, func(time.Time) tea.Msg {
		return timelineTickMsg{deadline: deadline}
	})
}

// Armed returns the deadline the pending tick was armed for.
func (a App) Armed() time.Time {
	return a.armed
}

func (a *App) publish() {
	if a.store == nil {
		return
	}
	st := control.State{Screen: a.screen, UpdatedAt: a.timeline.Clock().Now()}
	if a.screen == control.ScreenWizard {
		ws := a.wiz.ctrl.Snapshot()
		st.Wizard = &ws
	} else {
		ds := a.dash.ctrl.Snapshot()
		st.Dashboard = &ds
	}
	a.store.Publish(st)
}

// View implements tea.Model.
func (a App) View() string {
	if a.quitting {
		return ""
	}
	var page string
	var keys help.KeyMap
	if a.screen == control.ScreenWizard {
		page, keys = a.wiz.View(), a.wiz.Keys()
	} else {
		page, keys = a.dash.View(), a.dash.Keys()
	}
	if !a.showHelp {
		return page
	}
	return lipgloss.JoinVertical(lipgloss.Left, page, a.styles.Footer.Render(a.help.View(keys)))
}
