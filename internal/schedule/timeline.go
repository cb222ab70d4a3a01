// Package schedule provides the single timer primitive used by the screen
// controllers: a timeline of named continuations with per-step delays,
// driven by a clock so the chain can be inspected and advanced in tests.
//
// A Timeline never spawns goroutines and never fires on its own. The owner
// calls RunDue whenever it may be time to do work (the UI arms a tea.Tick
// for Next()), so every continuation runs on the caller's thread.
//
// While a continuation runs, the timeline's notion of now is that
// continuation's deadline, so a chain scheduled from inside it keeps its
// nominal spacing however late RunDue was called.
package schedule

import (
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
)

// Step is one named continuation in a Sequence.
type Step struct {
	Name  string
	Delay time.Duration // relative to the moment the sequence is scheduled
	Run   func()
}

type entry struct {
	name     string
	deadline time.Time
	seq      uint64
	run      func()
}

// Timeline holds pending continuations ordered by deadline, then by the
// order they were scheduled.
type Timeline struct {
	clock   clockwork.Clock
	pending []entry
	nextSeq uint64

	// firing is the deadline of the continuation being run, zero otherwise.
	firing time.Time
}

// NewTimeline creates a timeline on the given clock. A nil clock uses the
// real wall clock.
func NewTimeline(clock clockwork.Clock) *Timeline {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Timeline{clock: clock}
}

// Clock returns the clock the timeline measures deadlines against.
func (t *Timeline) Clock() clockwork.Clock {
	return t.clock
}

// Now returns the deadline of the continuation being run, or the clock's
// time outside RunDue.
func (t *Timeline) Now() time.Time {
	if !t.firing.IsZero() {
		return t.firing
	}
	return t.clock.Now()
}

// After schedules fn to run once delay has elapsed, measured from Now.
func (t *Timeline) After(name string, delay time.Duration, fn func()) {
	if delay < 0 {
		delay = 0
	}
	t.nextSeq++
	t.pending = append(t.pending, entry{
		name:     name,
		deadline: t.Now().Add(delay),
		seq:      t.nextSeq,
		run:      fn,
	})
	sort.SliceStable(t.pending, func(i, j int) bool {
		a, b := t.pending[i], t.pending[j]
		if !a.deadline.Equal(b.deadline) {
			return a.deadline.Before(b.deadline)
		}
		return a.seq < b.seq
	})
}

// Sequence schedules every step relative to the same origin (Now). Step
// names are prefixed so a chain started for one entity can be told apart
// from another in Pending().
func (t *Timeline) Sequence(prefix string, steps ...Step) {
	for _, s := range steps {
		name := s.Name
		if prefix != "" {
			name = prefix + "/" + s.Name
		}
		t.After(name, s.Delay, s.Run)
	}
}

// RunDue runs every continuation whose deadline has passed and returns the
// names it ran, in order. Continuations scheduled while running are picked
// up in the same pass if they are already due.
func (t *Timeline) RunDue() []string {
	var ran []string
	now := t.clock.Now()
	for len(t.pending) > 0 {
		head := t.pending[0]
		if head.deadline.After(now) {
			break
		}
		t.pending = t.pending[1:]
		t.fire(head)
		ran = append(ran, head.name)
	}
	return ran
}

func (t *Timeline) fire(e entry) {
	if e.run == nil {
		return
	}
	prev := t.firing
	t.firing = e.deadline
	defer func() { t.firing = prev }()
	e.run()
}

// Next reports how long until the earliest pending continuation is due.
// ok is false when nothing is pending.
func (t *Timeline) Next() (d time.Duration, ok bool) {
	if len(t.pending) == 0 {
		return 0, false
	}
	d = t.pending[0].deadline.Sub(t.clock.Now())
	if d < 0 {
		d = 0
	}
	return d, true
}

// Deadline returns the absolute deadline of the earliest pending continuation.
func (t *Timeline) Deadline() (time.Time, bool) {
	if len(t.pending) == 0 {
		return time.Time{}, false
	}
	return t.pending[0].deadline, true
}

// Pending lists the names of pending continuations in firing order.
func (t *Timeline) Pending() []string {
	names := make([]string, len(t.pending))
	for i, e := range t.pending {
		names[i] = e.name
	}
	return names
}

// Len returns the number of pending continuations.
func (t *Timeline) Len() int {
	return len(t.pending)
}

