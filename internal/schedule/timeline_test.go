package schedule

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTimeline_FiresInDeadlineOrder(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tl := NewTimeline(clock)

	var order []string
	tl.After("late", 300*time.Millisecond, func() { order = append(order, "late") })
	tl.After("early", 100*time.Millisecond, func() { order = append(order, "early") })
	tl.After("tie-a", 200*time.Millisecond, func() { order = append(order, "tie-a") })
	tl.After("tie-b", 200*time.Millisecond, func() { order = append(order, "tie-b") })

	assert.Equal(t, []string{"early", "tie-a", "tie-b", "late"}, tl.Pending())

	assert.Empty(t, tl.RunDue(), "nothing is due before the clock moves")

	clock.Advance(250 * time.Millisecond)
	ran := tl.RunDue()
	if diff := cmp.Diff([]string{"early", "tie-a", "tie-b"}, ran); diff != "" {
		t.Fatalf("ran mismatch (-want +got):\n%s", diff)
	}

	clock.Advance(time.Second)
	tl.RunDue()
	assert.Equal(t, []string{"early", "tie-a", "tie-b", "late"}, order)
	assert.Equal(t, 0, tl.Len())
}

func TestTimeline_SequenceUsesCommonOrigin(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tl := NewTimeline(clock)

	var got []string
	tl.Sequence("confirm-1",
		Step{Name: "celebrate", Delay: 300 * time.Millisecond, Run: func() { got = append(got, "celebrate") }},
		Step{Name: "progress", Delay: time.Second, Run: func() { got = append(got, "progress") }},
		Step{Name: "remove", Delay: 3500 * time.Millisecond, Run: func() { got = append(got, "remove") }},
	)

	assert.Equal(t, []string{"confirm-1/celebrate", "confirm-1/progress", "confirm-1/remove"}, tl.Pending())

	clock.Advance(time.Second)
	tl.RunDue()
	assert.Equal(t, []string{"celebrate", "progress"}, got)

	d, ok := tl.Next()
	require.True(t, ok)
	assert.Equal(t, 2500*time.Millisecond, d)
}

func TestTimeline_ChainedContinuationsRunInSamePassWhenDue(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tl := NewTimeline(clock)

	var got []string
	tl.After("first", 100*time.Millisecond, func() {
		got = append(got, "first")
		tl.After("second", 0, func() { got = append(got, "second") })
		tl.After("third", 500*time.Millisecond, func() { got = append(got, "third") })
	})

	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, []string{"first", "second"}, tl.RunDue())
	assert.Equal(t, []string{"first", "second"}, got)
	assert.Equal(t, []string{"third"}, tl.Pending())

	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, []string{"third"}, tl.RunDue())
	assert.Equal(t, []string{"first", "second", "third"}, got)
}

func TestTimeline_ChainMeasuresFromFiringDeadline(t *testing.T) {
	clock := clockwork.NewFakeClock()
	start := clock.Now()
	tl := NewTimeline(clock)

	var at []time.Duration
	var link func(n int)
	link = func(n int) {
		at = append(at, tl.Now().Sub(start))
		if n < 3 {
			tl.After(fmt.Sprintf("link-%d", n+1), time.Second, func() { link(n + 1) })
		}
	}
	tl.After("link-1", time.Second, func() { link(1) })

	clock.Advance(5 * time.Second)
	ran := tl.RunDue()
	assert.Equal(t, []string{"link-1", "link-2", "link-3"}, ran)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, at)
	assert.Equal(t, 0, tl.Len())
	assert.Equal(t, clock.Now(), tl.Now(), "now follows the clock outside RunDue")
}

func TestTimeline_ChainStopsAtUndueLink(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tl := NewTimeline(clock)

	tl.After("a", time.Second, func() {
		tl.After("b", time.Second, func() {
			tl.After("c", 10*time.Second, func() {})
		})
	})

	clock.Advance(2500 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, tl.RunDue())
	assert.Equal(t, []string{"c"}, tl.Pending())

	d, ok := tl.Next()
	require.True(t, ok)
	assert.Equal(t, 9500*time.Millisecond, d)
}

func TestTimeline_NextWhenEmpty(t *testing.T) {
	tl := NewTimeline(clockwork.NewFakeClock())
	_, ok := tl.Next()
	assert.False(t, ok)
	_, ok = tl.Deadline()
	assert.False(t, ok)
}

func TestTimeline_NegativeDelayIsImmediate(t *testing.T) {
	tl := NewTimeline(clockwork.NewFakeClock())
	fired := false
	tl.After("now", -time.Second, func() { fired = true })
	tl.RunDue()
	assert.True(t, fired)
}
