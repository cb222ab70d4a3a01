package wizard

import (
	"errors"
	"fmt"

	"vulnboard/internal/fixtures"
)

var (
	// ErrUnknownOp is returned by Invoke for an operation name not in Ops.
	ErrUnknownOp = errors.New("unknown wizard operation")
	// ErrStepOutOfRange is returned by Invoke("goto") for an invalid step.
	ErrStepOutOfRange = errors.New("wizard step out of range")
	// ErrNoRun is returned by Invoke("goto") for the processing step when no
	// processing run is in progress.
	ErrNoRun = errors.New("no processing run in progress")
)

// Exports is the named bag of operations external drivers may call.
type Exports struct {
	GoTo        func(step Step)
	Reset       func()
	Restart     func() bool
	CurrentStep func() Step
	Data        func() *fixtures.Wizard
}

// Exports returns the operation bag bound to this controller.
func (c *Controller) Exports() Exports {
	return Exports{
		GoTo:        c.GoTo,
		Reset:       c.animator.Reset,
		Restart:     c.Restart,
		CurrentStep: c.CurrentStep,
		Data:        c.Data,
	}
}

// Ops lists the operation names Invoke accepts.
var Ops = []string{"analyze", "back", "proceed", "cancel", "confirm", "view-results", "restart", "escape", "reset", "goto"}

// Invoke runs an operation by name. arg is the target step for goto and is
// validated instead of panicking, since it comes from outside the process.
// goto refuses the processing step unless a run is in progress, since that
// screen only leaves through the animator.
func (c *Controller) Invoke(op string, arg int) (bool, error) {
	switch op {
	case "analyze":
		return c.Analyze(), nil
	case "back":
		return c.Back(), nil
	case "proceed":
		return c.Proceed(), nil
	case "cancel":
		return c.Cancel(), nil
	case "confirm":
		return c.ConfirmProceed(), nil
	case "view-results":
		return c.ViewResults(), nil
	case "restart":
		return c.Restart(), nil
	case "escape":
		return c.Escape(), nil
	case "reset":
		c.animator.Reset()
		return true, nil
	case "goto":
		step := Step(arg)
		if !step.Valid() {
			return false, fmt.Errorf("%w: %d", ErrStepOutOfRange, arg)
		}
		if step == StepProcessing && !c.animator.Running() {
			return false, ErrNoRun
		}
		c.GoTo(step)
		return true, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownOp, op)
	}
}

// State is a read-only snapshot of the wizard for external observers.
type State struct {
	Step      Step        `json:"step"`
	Title     string      `json:"title"`
	Phases    []PhaseView `json:"phases"`
	Running   bool        `json:"running"`
	Notice    string      `json:"notice,omitempty"`
	SessionID string      `json:"session_id"`
}

// Snapshot captures the current state.
func (c *Controller) Snapshot() State {
	return State{
		Step:      c.step,
		Title:     c.Title(),
		Phases:    c.animator.Phases(),
		Running:   c.animator.Running(),
		Notice:    c.notice,
		SessionID: c.snapshot.SessionID,
	}
}
