// Package wizard implements the five-step assessment flow: a step navigator
// with named transitions, transition observers, and the processing animator
// that hands off from step 4 to the results screen.
package wizard

import (
	"fmt"
	"time"

	"vulnboard/internal/fixtures"
	"vulnboard/internal/logging"
	"vulnboard/internal/schedule"
)

// Step names one of the five wizard screens.
type Step int

const (
	StepSummary Step = iota + 1
	StepAnalysis
	StepConfirmation
	StepProcessing
	StepResults
)

// FirstStep and LastStep bound the valid range.
const (
	FirstStep = StepSummary
	LastStep  = StepResults
)

var titles = map[Step]string{
	StepSummary:      "Assessment Summary",
	StepAnalysis:     "AI Risk Analysis",
	StepConfirmation: "Confirm Remediation Plan",
	StepProcessing:   "Processing Remediation",
	StepResults:      "Remediation Results",
}

// Valid reports whether s is within [FirstStep, LastStep].
func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

// Title returns the page title of a step.
func (s Step) Title() string {
	return titles[s]
}

// RecoveryNotice is shown after an unexpected fault reset the wizard.
const RecoveryNotice = "Something went wrong. The assessment has been reset to the beginning."

// Options configures a Controller.
type Options struct {
	SettleDelay         time.Duration
	TransitionThreshold time.Duration
	Surface             PhaseSurface
	// Observers run after the built-in timing and snapshot observers.
	Observers []Observer
	OnChange  func()
}

// Controller owns the current step. Exactly one screen is active at any
// time. It is not safe for concurrent use.
type Controller struct {
	data     *fixtures.Wizard
	timeline *schedule.Timeline
	animator *Animator
	timing   *TimingObserver
	snapshot *SnapshotObserver

	observers []Observer
	onChange  func()

	step   Step
	notice string
}

// NewController creates a wizard on step 1.
func NewController(data *fixtures.Wizard, tl *schedule.Timeline, opts Options) *Controller {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = 800 * time.Millisecond
	}
	c := &Controller{
		data:     data,
		timeline: tl,
		timing:   NewTimingObserver(opts.TransitionThreshold),
		snapshot: NewSnapshotObserver(),
		onChange: opts.OnChange,
		step:     StepSummary,
	}
	c.observers = append([]Observer{c.timing, c.snapshot}, opts.Observers...)
	c.animator = NewAnimator(tl, data.Phases, opts.SettleDelay, opts.Surface, c.processingDone)
	c.animator.onChange = c.changed
	logging.Wizard("Wizard created, session %s, %d processing phases", c.snapshot.SessionID, len(data.Phases))
	return c
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}

// CurrentStep returns the active step.
func (c *Controller) CurrentStep() Step {
	return c.step
}

// Title returns the title of the active step.
func (c *Controller) Title() string {
	return c.step.Title()
}

// Data returns the wizard dataset.
func (c *Controller) Data() *fixtures.Wizard {
	return c.data
}

// Animator returns the processing animator.
func (c *Controller) Animator() *Animator {
	return c.animator
}

// Session returns the snapshot observer, which carries the session id.
func (c *Controller) Session() *SnapshotObserver {
	return c.snapshot
}

// Timing returns the transition timing observer.
func (c *Controller) Timing() *TimingObserver {
	return c.timing
}

// ScreenView is the render model of one entry in the step indicator.
type ScreenView struct {
	Step   Step   `json:"step"`
	Title  string `json:"title"`
	Active bool   `json:"active"`
}

// Screens returns all five screens with exactly the current one active.
func (c *Controller) Screens() []ScreenView {
	out := make([]ScreenView, 0, int(LastStep))
	for s := FirstStep; s <= LastStep; s++ {
		out = append(out, ScreenView{Step: s, Title: s.Title(), Active: s == c.step})
	}
	return out
}

// GoTo activates step. An out-of-range step is a programming error and
// panics.
func (c *Controller) GoTo(step Step) {
	if !step.Valid() {
		panic(fmt.Sprintf("wizard: step %d out of range [%d,%d]", step, FirstStep, LastStep))
	}
	c.activate("goto", step)
}

func (c *Controller) activate(name string, to Step) {
	timer := logging.StartTimer(logging.CategoryPerformance, fmt.Sprintf("wizard %s %d->%d", name, c.step, to))
	from := c.step
	c.step = to
	logging.Wizard("Step %d -> %d (%s): %s", from, to, name, to.Title())

	tr := Transition{Name: name, From: from, To: to, At: c.timeline.Now(), Timer: timer}
	for _, o := range c.observers {
		o.AfterTransition(tr)
	}
	logging.Audit().Log(logging.AuditEvent{
		EventType:  logging.AuditWizardTransition,
		Screen:     "wizard",
		SessionID:  c.snapshot.SessionID,
		Target:     name,
		Step:       int(to),
		Success:    true,
		DurationMs: c.timing.Last().Milliseconds(),
	})
	c.changed()
}

func (c *Controller) move(name string, from, to Step) bool {
	if c.step != from {
		logging.WizardDebug("%s ignored on step %d", name, c.step)
		return false
	}
	c.activate(name, to)
	return true
}

// Analyze moves from the summary to the analysis screen.
func (c *Controller) Analyze() bool { return c.move("analyze", StepSummary, StepAnalysis) }

// Back returns from the analysis screen to the summary.
func (c *Controller) Back() bool { return c.move("back", StepAnalysis, StepSummary) }

// Proceed moves from the analysis screen to the confirmation screen.
func (c *Controller) Proceed() bool { return c.move("proceed", StepAnalysis, StepConfirmation) }

// Cancel returns from the confirmation screen to the analysis screen.
func (c *Controller) Cancel() bool { return c.move("cancel", StepConfirmation, StepAnalysis) }

// ConfirmProceed moves to the processing screen and starts the animator.
func (c *Controller) ConfirmProceed() bool {
	if !c.move("confirm", StepConfirmation, StepProcessing) {
		return false
	}
	c.animator.Start()
	return true
}

// ViewResults leaves the results screen for a new assessment.
func (c *Controller) ViewResults() bool {
	return c.restart("view-results")
}

// Restart leaves the results screen for a new assessment.
func (c *Controller) Restart() bool {
	return c.restart("restart")
}

func (c *Controller) restart(name string) bool {
	if !c.move(name, StepResults, StepSummary) {
		return false
	}
	c.animator.Reset()
	return true
}

// Escape cancels the confirmation screen and does nothing elsewhere.
func (c *Controller) Escape() bool {
	if c.step != StepConfirmation {
		return false
	}
	return c.Cancel()
}

func (c *Controller) processingDone() {
	if c.step != StepProcessing {
		logging.Get(logging.CategoryWizard).Warn("Processing finished on step %d, results not shown", c.step)
		return
	}
	c.GoTo(StepResults)
}

// HandleFault recovers from an unexpected fault: the animator is reset, the
// wizard returns to step 1 and a recovery notice is shown.
func (c *Controller) HandleFault(err error) {
	logging.Get(logging.CategoryUI).Error("Recovered from fault: %v", err)
	logging.Audit().Log(logging.AuditEvent{
		EventType: logging.AuditFaultRecovered,
		Screen:    "wizard",
		SessionID: c.snapshot.SessionID,
		Message:   fmt.Sprint(err),
	})
	c.notice = RecoveryNotice
	c.animator.Reset()
	c.GoTo(StepSummary)
}

// Notice returns the recovery notice, or "" when none is shown.
func (c *Controller) Notice() string {
	return c.notice
}

// DismissNotice hides the recovery notice.
func (c *Controller) DismissNotice() {
	if c.notice == "" {
		return
	}
	c.notice = ""
	c.changed()
}
