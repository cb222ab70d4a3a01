package wizard

import (
	"time"

	"vulnboard/internal/logging"

	"github.com/google/uuid"
)

// Transition describes one completed step change.
type Transition struct {
	Name  string
	From  Step
	To    Step
	At    time.Time
	Timer *logging.Timer
}

// Observer is called by the controller after every transition. Observers
// must not change wizard state.
type Observer interface {
	AfterTransition(tr Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Transition)

// AfterTransition calls f.
func (f ObserverFunc) AfterTransition(tr Transition) { f(tr) }

// TimingObserver logs how long each transition took and warns above the
// threshold.
type TimingObserver struct {
	Threshold time.Duration
	last      time.Duration
}

// NewTimingObserver creates a timing observer. A zero threshold uses 500ms.
func NewTimingObserver(threshold time.Duration) *TimingObserver {
	if threshold <= 0 {
		threshold = 500 * time.Millisecond
	}
	return &TimingObserver{Threshold: threshold}
}

// AfterTransition implements Observer.
func (o *TimingObserver) AfterTransition(tr Transition) {
	if tr.Timer == nil {
		return
	}
	o.last = tr.Timer.StopWithThreshold(o.Threshold)
}

// Last returns the duration of the most recent transition.
func (o *TimingObserver) Last() time.Duration {
	return o.last
}

// Snapshot is the progress record saved after every transition.
type Snapshot struct {
	SessionID string    `json:"session_id"`
	Step      Step      `json:"step"`
	Timestamp time.Time `json:"timestamp"`
	Completed bool      `json:"completed"`
}

// SnapshotObserver records a Snapshot after every transition. Records are
// logged and audited only; Sink, when set, receives each one.
type SnapshotObserver struct {
	SessionID string
	Sink      func(Snapshot)
	last      *Snapshot
	count     int
}

// NewSnapshotObserver creates a snapshot observer with a fresh session id.
func NewSnapshotObserver() *SnapshotObserver {
	return &SnapshotObserver{SessionID: uuid.NewString()}
}

// AfterTransition implements Observer.
func (o *SnapshotObserver) AfterTransition(tr Transition) {
	s := Snapshot{
		SessionID: o.SessionID,
		Step:      tr.To,
		Timestamp: tr.At,
		Completed: tr.To == StepResults,
	}
	o.last = &s
	o.count++

	logging.Get(logging.CategorySession).StructuredLog("info", "progress snapshot", map[string]interface{}{
		"session":   s.SessionID,
		"step":      int(s.Step),
		"timestamp": s.Timestamp.UnixMilli(),
		"completed": s.Completed,
	})
	logging.AuditWithSession("wizard", o.SessionID).Log(logging.AuditEvent{
		Timestamp: s.Timestamp.UnixMilli(),
		EventType: logging.AuditProgressSnapshot,
		Step:      int(s.Step),
		Success:   s.Completed,
	})
	if o.Sink != nil {
		o.Sink(s)
	}
}

// Last returns the most recent snapshot, or nil before the first transition.
func (o *SnapshotObserver) Last() *Snapshot {
	return o.last
}

// Count returns how many snapshots were recorded.
func (o *SnapshotObserver) Count() int {
	return o.count
}
