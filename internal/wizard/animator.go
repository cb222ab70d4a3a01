package wizard

import (
	"fmt"
	"time"

	"vulnboard/internal/fixtures"
	"vulnboard/internal/logging"
	"vulnboard/internal/schedule"
)

// PhaseStatus is the tri-state of one processing phase.
type PhaseStatus int

const (
	PhasePending PhaseStatus = iota
	PhaseActive
	PhaseCompleted
)

func (s PhaseStatus) String() string {
	switch s {
	case PhasePending:
		return "pending"
	case PhaseActive:
		return "active"
	case PhaseCompleted:
		return "completed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText encodes the status by name.
func (s PhaseStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// PhaseSurface reports whether the view can display a phase. A phase the
// surface cannot show is completed instantly with a warning.
type PhaseSurface interface {
	HasPhase(id string) bool
}

type allPhases struct{}

func (allPhases) HasPhase(string) bool { return true }

// PhaseView is the render model of one phase.
type PhaseView struct {
	ID       string        `json:"id"`
	Label    string        `json:"label"`
	Duration time.Duration `json:"duration"`
	Status   PhaseStatus   `json:"status"`
}

// Animator drives the processing phases in declared order on a timeline.
// Once started a run is never cancelled; Reset and Start bump a generation
// so continuations of a superseded run do nothing when they fire.
type Animator struct {
	timeline *schedule.Timeline
	phases   []fixtures.PhaseDef
	status   []PhaseStatus
	surface  PhaseSurface
	settle   time.Duration
	onDone   func()
	onChange func()
	audit    *logging.AuditLogger

	gen      int
	running  bool
	warnings []string
}

// NewAnimator creates an animator over phases. onDone runs once per
// completed run, after the settle delay.
func NewAnimator(tl *schedule.Timeline, phases []fixtures.PhaseDef, settle time.Duration, surface PhaseSurface, onDone func()) *Animator {
	if surface == nil {
		surface = allPhases{}
	}
	return &Animator{
		timeline: tl,
		phases:   append([]fixtures.PhaseDef(nil), phases...),
		status:   make([]PhaseStatus, len(phases)),
		surface:  surface,
		settle:   settle,
		onDone:   onDone,
		audit:    logging.AuditWithSession("wizard", ""),
	}
}

// SetSurface replaces the phase surface. Used by the view once it knows
// which phases it can display.
func (a *Animator) SetSurface(s PhaseSurface) {
	if s == nil {
		s = allPhases{}
	}
	a.surface = s
}

func (a *Animator) changed() {
	if a.onChange != nil {
		a.onChange()
	}
}

// Start resets every phase and begins a new run with the first phase active.
func (a *Animator) Start() {
	a.gen++
	for i := range a.status {
		a.status[i] = PhasePending
	}
	a.running = true
	logging.AnimatorDebug("Processing run %d started with %d phases", a.gen, len(a.phases))
	a.activate(a.gen, 0)
}

func (a *Animator) activate(gen, i int) {
	if gen != a.gen {
		return
	}
	if i >= len(a.phases) {
		a.timeline.After("animator/settle", a.settle, func() {
			if gen != a.gen || !a.running {
				return
			}
			a.running = false
			logging.AnimatorDebug("Processing run %d complete", gen)
			if a.onDone != nil {
				a.onDone()
			}
		})
		a.changed()
		return
	}

	ph := a.phases[i]
	if !a.surface.HasPhase(ph.ID) {
		a.status[i] = PhaseCompleted
		msg := fmt.Sprintf("phase %q has no view element, skipped", ph.ID)
		a.warnings = append(a.warnings, msg)
		logging.AnimatorWarn("Processing %s", msg)
		a.audit.Log(logging.AuditEvent{
			EventType: logging.AuditPhaseSkipped,
			Target:    ph.ID,
			Message:   msg,
		})
		a.activate(gen, i+1)
		return
	}

	a.status[i] = PhaseActive
	a.changed()
	a.timeline.After("animator/"+ph.ID, ph.Duration, func() {
		if gen != a.gen {
			return
		}
		a.status[i] = PhaseCompleted
		a.activate(gen, i+1)
	})
}

// Reset returns every phase to pending and abandons any run in progress.
// Calling it repeatedly has no further effect.
func (a *Animator) Reset() {
	dirty := a.running
	for i, s := range a.status {
		if s != PhasePending {
			dirty = true
		}
		a.status[i] = PhasePending
	}
	if !dirty {
		return
	}
	a.gen++
	a.running = false
	logging.AnimatorDebug("Processing phases reset")
	a.changed()
}

// Running reports whether a run has started and not yet handed off.
func (a *Animator) Running() bool {
	return a.running
}

// Phases returns the render model of every phase in declared order.
func (a *Animator) Phases() []PhaseView {
	out := make([]PhaseView, len(a.phases))
	for i, ph := range a.phases {
		out[i] = PhaseView{ID: ph.ID, Label: ph.Label, Duration: ph.Duration, Status: a.status[i]}
	}
	return out
}

// Active returns the index of the active phase, or -1.
func (a *Animator) Active() int {
	for i, s := range a.status {
		if s == PhaseActive {
			return i
		}
	}
	return -1
}

// Fraction returns the share of completed phases in [0,1].
func (a *Animator) Fraction() float64 {
	if len(a.status) == 0 {
		return 1
	}
	done := 0
	for _, s := range a.status {
		if s == PhaseCompleted {
			done++
		}
	}
	return float64(done) / float64(len(a.status))
}

// Warnings returns the recorded skipped-phase warnings.
func (a *Animator) Warnings() []string {
	return append([]string(nil), a.warnings...)
}
