package wizard

import (
	"errors"
	"testing"
	"time"

	"vulnboard/internal/fixtures"
	"vulnboard/internal/schedule"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	clock  *clockwork.FakeClock
	tl     *schedule.Timeline
	c      *Controller
	toFive int
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{clock: clockwork.NewFakeClock()}
	h.tl = schedule.NewTimeline(h.clock)
	opts.Observers = append(opts.Observers, ObserverFunc(func(tr Transition) {
		if tr.To == StepResults {
			h.toFive++
		}
	}))
	h.c = NewController(fixtures.DefaultWizard(), h.tl, opts)
	return h
}

func (h *harness) advance(d time.Duration) {
	h.clock.Advance(d)
	h.tl.RunDue()
}

func (h *harness) toConfirmation(t *testing.T) {
	t.Helper()
	require.True(t, h.c.Analyze())
	require.True(t, h.c.Proceed())
	require.Equal(t, StepConfirmation, h.c.CurrentStep())
}

func statuses(a *Animator) []PhaseStatus {
	var out []PhaseStatus
	for _, p := range a.Phases() {
		out = append(out, p.Status)
	}
	return out
}

type missingPhases map[string]bool

func (m missingPhases) HasPhase(id string) bool { return !m[id] }

func TestGoToActivatesExactlyOneScreen(t *testing.T) {
	h := newHarness(t, Options{})
	want := map[Step]string{
		1: "Assessment Summary",
		2: "AI Risk Analysis",
		3: "Confirm Remediation Plan",
		4: "Processing Remediation",
		5: "Remediation Results",
	}

	for s := FirstStep; s <= LastStep; s++ {
		h.c.GoTo(s)
		assert.Equal(t, s, h.c.CurrentStep())
		assert.Equal(t, want[s], h.c.Title())

		active := 0
		for _, sc := range h.c.Screens() {
			if sc.Active {
				active++
				assert.Equal(t, s, sc.Step)
			}
		}
		assert.Equal(t, 1, active, "step %d", s)
	}
}

func TestGoToOutOfRangePanics(t *testing.T) {
	h := newHarness(t, Options{})
	assert.Panics(t, func() { h.c.GoTo(0) })
	assert.Panics(t, func() { h.c.GoTo(6) })
	assert.Equal(t, StepSummary, h.c.CurrentStep())
}

func TestNamedTransitions(t *testing.T) {
	h := newHarness(t, Options{})

	assert.False(t, h.c.Back(), "back from step 1")
	assert.False(t, h.c.Proceed(), "proceed from step 1")
	require.True(t, h.c.Analyze())
	assert.Equal(t, StepAnalysis, h.c.CurrentStep())

	require.True(t, h.c.Back())
	assert.Equal(t, StepSummary, h.c.CurrentStep())

	h.toConfirmation(t)
	require.True(t, h.c.Cancel())
	assert.Equal(t, StepAnalysis, h.c.CurrentStep())
	assert.False(t, h.c.ConfirmProceed(), "confirm from step 2")
	assert.False(t, h.c.Restart(), "restart from step 2")
	assert.Equal(t, StepAnalysis, h.c.CurrentStep())
}

func TestEscapeOnlyCancelsConfirmation(t *testing.T) {
	h := newHarness(t, Options{})
	for _, s := range []Step{StepSummary, StepAnalysis, StepProcessing, StepResults} {
		h.c.GoTo(s)
		assert.False(t, h.c.Escape())
		assert.Equal(t, s, h.c.CurrentStep())
	}

	h.c.GoTo(StepConfirmation)
	assert.True(t, h.c.Escape())
	assert.Equal(t, StepAnalysis, h.c.CurrentStep())
}

func TestProcessingRunsPhasesInOrder(t *testing.T) {
	h := newHarness(t, Options{})
	h.toConfirmation(t)

	var order []string
	h.c.onChange = func() {
		a := h.c.Animator()
		active := 0
		for _, p := range a.Phases() {
			if p.Status == PhaseActive {
				active++
			}
		}
		if active > 1 {
			t.Errorf("%d phases active at once", active)
		}
		if i := a.Active(); i >= 0 {
			id := a.Phases()[i].ID
			if len(order) == 0 || order[len(order)-1] != id {
				order = append(order, id)
			}
		}
	}

	require.True(t, h.c.ConfirmProceed())
	assert.Equal(t, StepProcessing, h.c.CurrentStep())
	assert.Equal(t, []PhaseStatus{PhaseActive, PhasePending, PhasePending, PhasePending}, statuses(h.c.Animator()))

	h.advance(1200 * time.Millisecond)
	assert.Equal(t, []PhaseStatus{PhaseCompleted, PhaseActive, PhasePending, PhasePending}, statuses(h.c.Animator()))

	for i := 0; i < 37; i++ {
		h.advance(100 * time.Millisecond)
	}
	// 4900ms: plan still active
	assert.Equal(t, StepProcessing, h.c.CurrentStep())
	assert.Equal(t, 3, h.c.Animator().Active())

	h.advance(100 * time.Millisecond)
	assert.Equal(t, -1, h.c.Animator().Active())
	assert.Equal(t, 1.0, h.c.Animator().Fraction())
	assert.Equal(t, StepProcessing, h.c.CurrentStep(), "settle delay before results")

	h.advance(800 * time.Millisecond)
	assert.Equal(t, StepResults, h.c.CurrentStep())
	assert.Equal(t, []string{"inventory", "correlate", "prioritize", "plan"}, order)
	for _, s := range statuses(h.c.Animator()) {
		assert.Equal(t, PhaseCompleted, s)
	}
	assert.Equal(t, 1, h.toFive)

	h.advance(time.Minute)
	assert.Equal(t, 1, h.toFive, "results entered exactly once")
	assert.False(t, h.c.Animator().Running())
}

func TestResetIsIdempotent(t *testing.T) {
	h := newHarness(t, Options{})
	h.toConfirmation(t)
	require.True(t, h.c.ConfirmProceed())
	h.advance(6 * time.Second)
	require.Equal(t, StepResults, h.c.CurrentStep())

	require.True(t, h.c.Restart())
	want := []PhaseStatus{PhasePending, PhasePending, PhasePending, PhasePending}
	assert.Equal(t, want, statuses(h.c.Animator()))

	h.c.Animator().Reset()
	h.c.Animator().Reset()
	assert.Equal(t, want, statuses(h.c.Animator()))
	assert.Equal(t, -1, h.c.Animator().Active())
}

func TestMissingPhaseIsSkipped(t *testing.T) {
	h := newHarness(t, Options{Surface: missingPhases{"correlate": true}})
	h.toConfirmation(t)
	require.True(t, h.c.ConfirmProceed())

	h.advance(1200 * time.Millisecond)
	assert.Equal(t, []PhaseStatus{PhaseCompleted, PhaseCompleted, PhaseActive, PhasePending}, statuses(h.c.Animator()))
	require.Len(t, h.c.Animator().Warnings(), 1)
	assert.Contains(t, h.c.Animator().Warnings()[0], "correlate")

	h.advance(1300*time.Millisecond + 1000*time.Millisecond + 800*time.Millisecond)
	assert.Equal(t, StepResults, h.c.CurrentStep())
}

func TestFaultDuringProcessingAbandonsRun(t *testing.T) {
	h := newHarness(t, Options{})
	h.toConfirmation(t)
	require.True(t, h.c.ConfirmProceed())
	h.advance(2 * time.Second)

	h.c.HandleFault(errors.New("boom"))
	assert.Equal(t, StepSummary, h.c.CurrentStep())
	assert.Equal(t, RecoveryNotice, h.c.Notice())

	h.advance(10 * time.Second)
	assert.Equal(t, StepSummary, h.c.CurrentStep())
	assert.Zero(t, h.toFive)
	for _, s := range statuses(h.c.Animator()) {
		assert.Equal(t, PhasePending, s)
	}

	h.c.DismissNotice()
	assert.Empty(t, h.c.Notice())
}

func TestRestartedRunIgnoresStaleSteps(t *testing.T) {
	h := newHarness(t, Options{})
	h.toConfirmation(t)
	require.True(t, h.c.ConfirmProceed())
	h.advance(1 * time.Second)

	h.c.GoTo(StepConfirmation)
	require.True(t, h.c.ConfirmProceed())
	h.advance(4500 * time.Millisecond)
	assert.Equal(t, StepProcessing, h.c.CurrentStep(), "first run's continuations are stale")

	h.advance(1300 * time.Millisecond)
	assert.Equal(t, StepResults, h.c.CurrentStep())
	assert.Equal(t, 1, h.toFive)
}

func TestSnapshotObserver(t *testing.T) {
	h := newHarness(t, Options{})
	var sunk []Snapshot
	h.c.Session().Sink = func(s Snapshot) { sunk = append(sunk, s) }

	_, err := uuid.Parse(h.c.Session().SessionID)
	require.NoError(t, err)
	assert.Nil(t, h.c.Session().Last())

	h.c.Analyze()
	last := h.c.Session().Last()
	require.NotNil(t, last)
	assert.Equal(t, StepAnalysis, last.Step)
	assert.False(t, last.Completed)
	assert.Equal(t, h.clock.Now(), last.Timestamp)

	h.c.GoTo(StepResults)
	assert.True(t, h.c.Session().Last().Completed)
	assert.Equal(t, 2, h.c.Session().Count())
	assert.Len(t, sunk, 2)
}

func TestTimingObserverRecordsEveryTransition(t *testing.T) {
	h := newHarness(t, Options{TransitionThreshold: time.Hour})
	assert.Equal(t, time.Hour, h.c.Timing().Threshold)

	h.c.Analyze()
	assert.Less(t, h.c.Timing().Last(), time.Hour)
	assert.Equal(t, 500*time.Millisecond, NewTimingObserver(0).Threshold)
}

func TestInvoke(t *testing.T) {
	h := newHarness(t, Options{})

	ok, err := h.c.Invoke("analyze", 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.c.Invoke("restart", 0)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.c.Invoke("goto", 9)
	assert.ErrorIs(t, err, ErrStepOutOfRange)
	assert.Equal(t, StepAnalysis, h.c.CurrentStep())

	ok, err = h.c.Invoke("goto", 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, StepConfirmation, h.c.CurrentStep())

	_, err = h.c.Invoke("goto", int(StepProcessing))
	assert.ErrorIs(t, err, ErrNoRun)
	assert.Equal(t, StepConfirmation, h.c.CurrentStep())

	require.True(t, h.c.ConfirmProceed())
	h.c.GoTo(StepConfirmation)
	ok, err = h.c.Invoke("goto", int(StepProcessing))
	require.NoError(t, err)
	assert.True(t, ok, "a run in progress can be rejoined")
	h.advance(6 * time.Second)
	assert.Equal(t, StepResults, h.c.CurrentStep())

	h.c.GoTo(StepConfirmation)
	_, err = h.c.Invoke("teleport", 0)
	assert.ErrorIs(t, err, ErrUnknownOp)

	state := h.c.Snapshot()
	assert.Equal(t, StepConfirmation, state.Step)
	assert.Equal(t, "Confirm Remediation Plan", state.Title)
	assert.Len(t, state.Phases, 4)
}

func TestExports(t *testing.T) {
	h := newHarness(t, Options{})
	ex := h.c.Exports()

	ex.GoTo(StepResults)
	assert.Equal(t, StepResults, ex.CurrentStep())
	assert.True(t, ex.Restart())
	assert.Equal(t, StepSummary, ex.CurrentStep())
	assert.Equal(t, "Riverside Assembly Plant", ex.Data().Summary.Site)
	ex.Reset()
}
