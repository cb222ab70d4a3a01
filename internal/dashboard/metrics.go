package dashboard

import (
	"fmt"
	"math/rand"

	"vulnboard/internal/fixtures"
	"vulnboard/internal/logging"
)

// RandomSource supplies uniform floats in [0,1).
type RandomSource interface {
	Float64() float64
}

type defaultRandom struct{}

func (defaultRandom) Float64() float64 { return rand.Float64() }

const (
	incidentChance = 0.3
	scoreChance    = 0.2
)

// Progress returns a copy of the progress counters.
func (c *Controller) Progress() fixtures.ProgressState {
	return c.data.UserProgress
}

// Impact returns a copy of the impact metrics.
func (c *Controller) Impact() fixtures.ImpactMetrics {
	return c.data.ImpactMetrics
}

// Achievements returns the achievement badges.
func (c *Controller) Achievements() []fixtures.Achievement {
	return append([]fixtures.Achievement(nil), c.data.Achievements...)
}

// RecentSuccesses returns the recent successes feed.
func (c *Controller) RecentSuccesses() []fixtures.RecentSuccess {
	return append([]fixtures.RecentSuccess(nil), c.data.RecentSuccesses...)
}

// UpdateProgress bumps the completed and streak counters by one and the
// critical-resolved ring by the configured step, capped at 100. The confirm
// chain calls it at most once per action; external callers are not guarded.
func (c *Controller) UpdateProgress() {
	p := &c.data.UserProgress
	before := *p
	p.CompletedActions++
	p.StreakDays++
	p.CriticalResolved = min(p.CriticalResolved+c.timing.ProgressStep, 100)

	logging.Dashboard("Progress updated: completed %d->%d, streak %d->%d, resolved %d%%->%d%%",
		before.CompletedActions, p.CompletedActions,
		before.StreakDays, p.StreakDays,
		before.CriticalResolved, p.CriticalResolved)
	c.audit.Log(logging.AuditEvent{
		EventType: logging.AuditProgressUpdated,
		Success:   true,
		Fields: map[string]interface{}{
			"completed_actions": p.CompletedActions,
			"streak_days":       p.StreakDays,
			"critical_resolved": p.CriticalResolved,
		},
	})
	c.changed()
}

// StartLiveMetrics schedules the simulated metric drift: a first tick after
// LiveRefreshStart plus one interval, then one tick per interval. Repeated
// calls are ignored.
func (c *Controller) StartLiveMetrics() {
	if c.liveStarted {
		return
	}
	c.liveStarted = true
	c.timeline.After("live/start", c.timing.LiveRefreshStart, c.scheduleLiveTick)
	logging.DashboardDebug("Live metrics start in %v, every %v", c.timing.LiveRefreshStart, c.timing.LiveRefreshInterval)
}

func (c *Controller) scheduleLiveTick() {
	c.timeline.After("live/tick", c.timing.LiveRefreshInterval, func() {
		c.RefreshLiveMetrics()
		c.scheduleLiveTick()
	})
}

// RefreshLiveMetrics applies one round of drift: a 30% chance of one more
// incident prevented and a 20% chance of one more posture point, capped at
// 100.
func (c *Controller) RefreshLiveMetrics() {
	m := &c.data.ImpactMetrics
	changed := false
	if c.random.Float64() < incidentChance {
		m.IncidentsPrevented++
		changed = true
	}
	if c.random.Float64() < scoreChance && m.SecurityPostureScore < 100 {
		m.SecurityPostureScore++
		changed = true
	}
	if changed {
		logging.DashboardDebug("Live metrics: incidents=%d score=%d", m.IncidentsPrevented, m.SecurityPostureScore)
		c.changed()
	}
}

// FormatTimeAgo renders an hour count for the recent successes feed.
func FormatTimeAgo(hours int) string {
	switch {
	case hours < 1:
		return "Less than an hour ago"
	case hours == 1:
		return "1 hour ago"
	case hours < 24:
		return fmt.Sprintf("%d hours ago", hours)
	}
	days := hours / 24
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}
