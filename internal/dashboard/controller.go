// Package dashboard implements the priority action list: cards, the detail
// modal, the confirm-and-celebrate chain, progress counters and the status
// banner. It holds no view code; the ui package renders Controller state.
package dashboard

import (
	"fmt"
	"strings"
	"time"

	"vulnboard/internal/fixtures"
	"vulnboard/internal/logging"
	"vulnboard/internal/schedule"
)

// Phase is the lifecycle position of one priority action.
type Phase int

const (
	PhaseListed Phase = iota
	PhaseDetailOpen
	PhaseConfirmed
	PhaseCelebrating
	PhaseRemoved
)

func (p Phase) String() string {
	switch p {
	case PhaseListed:
		return "listed"
	case PhaseDetailOpen:
		return "detail_open"
	case PhaseConfirmed:
		return "confirmed"
	case PhaseCelebrating:
		return "celebrating"
	case PhaseRemoved:
		return "removed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Timing holds the delays of the confirm chain and the live metric cadence.
// Confirm delays are measured from the confirm itself; CelebrationDuration
// is measured from the moment the celebration is shown.
type Timing struct {
	CelebrationDelay    time.Duration
	CelebrationDuration time.Duration
	ProgressDelay       time.Duration
	RemovalDelay        time.Duration
	LiveRefreshStart    time.Duration
	LiveRefreshInterval time.Duration
	ProgressStep        int
}

// DefaultTiming returns the stock delays.
func DefaultTiming() Timing {
	return Timing{
		CelebrationDelay:    300 * time.Millisecond,
		CelebrationDuration: 3 * time.Second,
		ProgressDelay:       time.Second,
		RemovalDelay:        3500 * time.Millisecond,
		LiveRefreshStart:    5 * time.Second,
		LiveRefreshInterval: 30 * time.Second,
		ProgressStep:        5,
	}
}

// Options configures a Controller.
type Options struct {
	Timing Timing
	// Random drives the live metric drift; nil uses math/rand/v2.
	Random RandomSource
	// OnChange is called after every state mutation.
	OnChange func()
}

// CardView is the render model of one priority action card.
type CardView struct {
	ID            int               `json:"id"`
	Title         string            `json:"title"`
	DeviceCount   int               `json:"device_count"`
	Severity      fixtures.Severity `json:"severity"`
	SeverityLabel string            `json:"-"`
	Color         string            `json:"color"`
	TimeToAction  string            `json:"time_to_action"`
	Impact        string            `json:"impact"`
	Phase         Phase             `json:"phase"`
}

// Detail is the content of the open action modal.
type Detail struct {
	Action        fixtures.PriorityAction
	SeverityLabel string
	Color         string
	Advisory      string
	Urgent        bool
	Link          string
}

// Controller owns the dashboard state. It is not safe for concurrent use;
// every call must come from the single UI goroutine, including RunDue on the
// timeline it schedules onto.
type Controller struct {
	data     *fixtures.Dashboard
	timeline *schedule.Timeline
	timing   Timing
	random   RandomSource
	onChange func()
	audit    *logging.AuditLogger

	phases  map[int]Phase
	counted map[int]bool

	modal          *Detail
	celebrating    bool
	celebrationGen int
	aiPanelOpen    bool
	alertDismissed bool
	bannerAllClear bool
	liveStarted    bool
}

// NewController creates a controller over a private copy of data. Delayed
// work is scheduled on tl.
func NewController(data *fixtures.Dashboard, tl *schedule.Timeline, opts Options) *Controller {
	if opts.Timing == (Timing{}) {
		opts.Timing = DefaultTiming()
	}
	if opts.Random == nil {
		opts.Random = defaultRandom{}
	}
	c := &Controller{
		data:     data.Clone(),
		timeline: tl,
		timing:   opts.Timing,
		random:   opts.Random,
		onChange: opts.OnChange,
		audit:    logging.AuditWithSession("dashboard", ""),
		phases:   make(map[int]Phase, len(data.PriorityActions)),
		counted:  make(map[int]bool),
	}
	for _, a := range c.data.PriorityActions {
		c.phases[a.ID] = PhaseListed
	}
	logging.Dashboard("Dashboard controller created with %d priority actions", len(c.data.PriorityActions))
	return c
}

// Timeline returns the timeline the controller schedules onto.
func (c *Controller) Timeline() *schedule.Timeline {
	return c.timeline
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}

func (c *Controller) find(id int) (int, bool) {
	for i, a := range c.data.PriorityActions {
		if a.ID == id {
			return i, true
		}
	}
	return -1, false
}

// Render returns one card per priority action in list order. It has no side
// effects and may be called any number of times.
func (c *Controller) Render() []CardView {
	cards := make([]CardView, 0, len(c.data.PriorityActions))
	for _, a := range c.data.PriorityActions {
		cards = append(cards, CardView{
			ID:            a.ID,
			Title:         a.Title,
			DeviceCount:   a.DeviceCount,
			Severity:      a.Severity,
			SeverityLabel: strings.ToUpper(string(a.Severity)),
			Color:         SeverityColor(a.Severity),
			TimeToAction:  a.TimeToAction,
			Impact:        a.Impact,
			Phase:         c.phases[a.ID],
		})
	}
	return cards
}

// Actions returns a copy of the current priority action list.
func (c *Controller) Actions() []fixtures.PriorityAction {
	return append([]fixtures.PriorityAction(nil), c.data.PriorityActions...)
}

// PhaseOf returns the lifecycle phase of an action. Ids never seen report
// PhaseRemoved.
func (c *Controller) PhaseOf(id int) Phase {
	p, ok := c.phases[id]
	if !ok {
		return PhaseRemoved
	}
	return p
}

// Modal returns the open detail, or nil when no modal is shown.
func (c *Controller) Modal() *Detail {
	return c.modal
}

// OpenDetail opens the modal for an action. Unknown ids and actions already
// past confirmation are ignored. Opening a second action closes the first.
func (c *Controller) OpenDetail(id int) bool {
	i, ok := c.find(id)
	if !ok {
		logging.DashboardDebug("OpenDetail ignored: action %d not listed", id)
		return false
	}
	if p := c.phases[id]; p != PhaseListed && p != PhaseDetailOpen {
		logging.DashboardDebug("OpenDetail ignored: action %d is %s", id, p)
		return false
	}
	if c.modal != nil && c.modal.Action.ID != id {
		c.phases[c.modal.Action.ID] = PhaseListed
	}

	c.modal = newDetail(c.data.PriorityActions[i])
	c.phases[id] = PhaseDetailOpen
	logging.Dashboard("Opened detail for action %d (%s)", id, c.modal.Action.Title)
	c.audit.Log(logging.AuditEvent{
		EventType: logging.AuditActionOpened,
		Target:    fmt.Sprintf("action/%d", id),
		Success:   true,
	})
	c.changed()
	return true
}

func newDetail(a fixtures.PriorityAction) *Detail {
	d := &Detail{
		Action:        a,
		SeverityLabel: strings.ToUpper(string(a.Severity)),
		Color:         SeverityColor(a.Severity),
		Link:          NVDLink(a.CVEID),
	}
	if a.Severity == fixtures.SeverityCritical {
		d.Urgent = true
		d.Advisory = "Immediate attention required - This vulnerability poses significant risk to production systems."
	} else {
		d.Advisory = "Schedule maintenance window to address this vulnerability."
	}
	return d
}

// NVDLink returns the National Vulnerability Database page for a CVE id.
func NVDLink(cveID string) string {
	if cveID == "" {
		return ""
	}
	return "https://nvd.nist.gov/vuln/detail/" + cveID
}

// CloseDetail closes the modal and returns its action to the list.
func (c *Controller) CloseDetail() {
	if c.modal == nil {
		return
	}
	id := c.modal.Action.ID
	if c.phases[id] == PhaseDetailOpen {
		c.phases[id] = PhaseListed
	}
	c.modal = nil
	logging.DashboardDebug("Closed detail for action %d", id)
	c.changed()
}

// ConfirmOpen confirms the action shown in the modal.
func (c *Controller) ConfirmOpen() bool {
	if c.modal == nil {
		return false
	}
	return c.Confirm(c.modal.Action.ID)
}

// Confirm starts the remediation chain for an action: close the modal, then
// celebrate, count progress and remove the card on the configured delays.
// Stale ids and actions already confirmed are ignored.
func (c *Controller) Confirm(id int) bool {
	if _, ok := c.find(id); !ok {
		logging.DashboardDebug("Confirm ignored: action %d not listed", id)
		return false
	}
	switch c.phases[id] {
	case PhaseListed:
		c.phases[id] = PhaseDetailOpen
	case PhaseDetailOpen:
	default:
		logging.DashboardDebug("Confirm ignored: action %d already %s", id, c.phases[id])
		return false
	}

	if c.modal != nil && c.modal.Action.ID != id && c.phases[c.modal.Action.ID] == PhaseDetailOpen {
		c.phases[c.modal.Action.ID] = PhaseListed
	}
	c.modal = nil
	c.phases[id] = PhaseConfirmed
	logging.Dashboard("Confirmed action %d", id)
	c.audit.Log(logging.AuditEvent{
		EventType: logging.AuditActionConfirmed,
		Target:    fmt.Sprintf("action/%d", id),
		Success:   true,
	})

	t := c.timing
	c.timeline.Sequence(fmt.Sprintf("action/%d", id),
		schedule.Step{Name: "celebrate", Delay: t.CelebrationDelay, Run: func() {
			if c.phases[id] == PhaseConfirmed {
				c.phases[id] = PhaseCelebrating
			}
			c.ShowCelebration()
		}},
		schedule.Step{Name: "progress", Delay: t.ProgressDelay, Run: func() {
			c.countProgress(id)
		}},
		schedule.Step{Name: "remove", Delay: t.RemovalDelay, Run: func() {
			c.remove(id)
		}},
	)
	c.changed()
	return true
}

// countProgress applies the progress increment at most once per action.
func (c *Controller) countProgress(id int) {
	if c.counted[id] {
		logging.DashboardDebug("Progress for action %d already counted", id)
		return
	}
	c.counted[id] = true
	c.UpdateProgress()
}

func (c *Controller) remove(id int) {
	i, ok := c.find(id)
	if !ok {
		return
	}
	c.data.PriorityActions = append(c.data.PriorityActions[:i], c.data.PriorityActions[i+1:]...)
	c.phases[id] = PhaseRemoved
	if c.modal != nil && c.modal.Action.ID == id {
		c.modal = nil
	}
	logging.Dashboard("Removed action %d, %d remaining", id, len(c.data.PriorityActions))
	c.audit.Log(logging.AuditEvent{
		EventType: logging.AuditActionRemoved,
		Target:    fmt.Sprintf("action/%d", id),
		Success:   true,
	})

	if !c.hasCritical() && !c.alertDismissed && !c.bannerAllClear {
		c.bannerAllClear = true
		logging.Dashboard("No critical actions remain, banner switched to all-clear")
		c.audit.Log(logging.AuditEvent{EventType: logging.AuditBannerAllClear, Success: true})
	}
	c.changed()
}

func (c *Controller) hasCritical() bool {
	for _, a := range c.data.PriorityActions {
		if a.Severity == fixtures.SeverityCritical {
			return true
		}
	}
	return false
}
