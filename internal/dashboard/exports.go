package dashboard

import (
	"errors"
	"fmt"

	"vulnboard/internal/fixtures"
)

// ErrUnknownOp is returned by Invoke for an operation name not in Ops.
var ErrUnknownOp = errors.New("unknown dashboard operation")

// Exports is the named bag of operations external drivers (test harnesses,
// the control server) may call, plus read-only access to the dataset.
type Exports struct {
	OpenActionModal func(id int) bool
	CloseModal      func()
	ConfirmAction   func(id int) bool
	ToggleAIPanel   func()
	CloseAlert      func()
	UpdateProgress  func()
	ShowCelebration func()

	Actions func() []fixtures.PriorityAction
	Data    func() *fixtures.Dashboard
}

// Exports returns the operation bag bound to this controller.
func (c *Controller) Exports() Exports {
	return Exports{
		OpenActionModal: c.OpenDetail,
		CloseModal:      c.CloseDetail,
		ConfirmAction:   c.Confirm,
		ToggleAIPanel:   c.ToggleAIPanel,
		CloseAlert:      c.CloseAlert,
		UpdateProgress:  c.UpdateProgress,
		ShowCelebration: c.ShowCelebration,
		Actions:         c.Actions,
		Data:            c.data.Clone,
	}
}

// Ops lists the operation names Invoke accepts.
var Ops = []string{"open", "close", "confirm", "toggle-ai", "close-alert", "update-progress", "celebrate", "escape"}

// Invoke runs an exported operation by name. id is used by open and confirm.
// The boolean reports whether the operation changed anything it could
// report on; stale ids yield false with a nil error.
func (c *Controller) Invoke(op string, id int) (bool, error) {
	switch op {
	case "open":
		return c.OpenDetail(id), nil
	case "close":
		c.CloseDetail()
	case "confirm":
		return c.Confirm(id), nil
	case "toggle-ai":
		c.ToggleAIPanel()
	case "close-alert":
		c.CloseAlert()
	case "update-progress":
		c.UpdateProgress()
	case "celebrate":
		c.ShowCelebration()
	case "escape":
		return c.Escape(), nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownOp, op)
	}
	return true, nil
}

// State is a read-only snapshot of the dashboard for external observers.
type State struct {
	Cards       []CardView             `json:"cards"`
	Progress    fixtures.ProgressState `json:"progress"`
	Impact      fixtures.ImpactMetrics `json:"impact"`
	Banner      Banner                 `json:"banner"`
	ModalOpen   *int                   `json:"modal_open,omitempty"`
	Celebrating bool                   `json:"celebrating"`
	AIPanelOpen bool                   `json:"ai_panel_open"`
}

// Snapshot captures the current state.
func (c *Controller) Snapshot() State {
	s := State{
		Cards:       c.Render(),
		Progress:    c.Progress(),
		Impact:      c.Impact(),
		Banner:      c.Banner(),
		Celebrating: c.celebrating,
		AIPanelOpen: c.aiPanelOpen,
	}
	if c.modal != nil {
		id := c.modal.Action.ID
		s.ModalOpen = &id
	}
	return s
}
