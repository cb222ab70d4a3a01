package fixtures

import (
	"fmt"
	"strings"
)

// IssueLevel separates fixture problems that block start-up from ones that
// only degrade rendering.
type IssueLevel string

const (
	IssueError   IssueLevel = "error"
	IssueWarning IssueLevel = "warning"
)

// Issue is one finding from fixture validation.
type Issue struct {
	Level   IssueLevel
	Field   string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Level, i.Field, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Level == IssueError {
			return true
		}
	}
	return false
}

// FormatIssues renders issues one per line.
func FormatIssues(issues []Issue) string {
	lines := make([]string, len(issues))
	for i, is := range issues {
		lines[i] = is.String()
	}
	return strings.Join(lines, "\n")
}

// ValidateDashboard checks the dashboard dataset. Duplicate ids are reported
// even though the controller only assumes uniqueness.
func ValidateDashboard(d *Dashboard) []Issue {
	var issues []Issue
	seen := make(map[int]bool)

	for i, a := range d.PriorityActions {
		field := fmt.Sprintf("priority_actions[%d]", i)
		if seen[a.ID] {
			issues = append(issues, Issue{IssueError, field + ".id", fmt.Sprintf("duplicate id %d", a.ID)})
		}
		seen[a.ID] = true
		if a.Title == "" {
			issues = append(issues, Issue{IssueError, field + ".title", "title is required"})
		}
		if a.DeviceCount < 0 {
			issues = append(issues, Issue{IssueError, field + ".device_count", "must be >= 0"})
		}
		if !a.Severity.Known() {
			issues = append(issues, Issue{IssueWarning, field + ".severity", fmt.Sprintf("unknown severity %q renders as neutral", a.Severity)})
		}
		if a.CVEID == "" {
			issues = append(issues, Issue{IssueWarning, field + ".cve_id", "no CVE id, detail link will be empty"})
		}
	}

	p := d.UserProgress
	counters := map[string]int{
		"critical_resolved": p.CriticalResolved,
		"monthly_target":    p.MonthlyTarget,
		"streak_days":       p.StreakDays,
		"total_assessments": p.TotalAssessments,
		"completed_actions": p.CompletedActions,
	}
	for _, name := range []string{"critical_resolved", "monthly_target", "streak_days", "total_assessments", "completed_actions"} {
		if counters[name] < 0 {
			issues = append(issues, Issue{IssueError, "user_progress." + name, "must be >= 0"})
		}
	}
	if p.CriticalResolved > 100 {
		issues = append(issues, Issue{IssueError, "user_progress.critical_resolved", "percentage must be <= 100"})
	}

	score := d.ImpactMetrics.SecurityPostureScore
	if score < 0 || score > 100 {
		issues = append(issues, Issue{IssueError, "impact_metrics.security_posture_score", "must be within 0..100"})
	}
	if d.Banner.AllClear == "" {
		issues = append(issues, Issue{IssueWarning, "banner.all_clear", "empty all-clear copy"})
	}
	return issues
}

// ValidateWizard checks the wizard dataset.
func ValidateWizard(w *Wizard) []Issue {
	var issues []Issue
	if len(w.Phases) == 0 {
		issues = append(issues, Issue{IssueError, "phases", "at least one processing phase is required"})
	}
	seen := make(map[string]bool)
	for i, ph := range w.Phases {
		field := fmt.Sprintf("phases[%d]", i)
		if ph.ID == "" {
			issues = append(issues, Issue{IssueError, field + ".id", "id is required"})
		} else if seen[ph.ID] {
			issues = append(issues, Issue{IssueError, field + ".id", fmt.Sprintf("duplicate phase id %q", ph.ID)})
		}
		seen[ph.ID] = true
		if ph.Duration <= 0 {
			issues = append(issues, Issue{IssueError, field + ".duration", "must be > 0"})
		}
	}
	for i, dev := range w.CriticalDevices {
		if !dev.Severity.Known() {
			issues = append(issues, Issue{IssueWarning, fmt.Sprintf("critical_devices[%d].severity", i), fmt.Sprintf("unknown severity %q", dev.Severity)})
		}
	}
	if w.Summary.RiskScore < 0 || w.Summary.RiskScore > 100 {
		issues = append(issues, Issue{IssueError, "summary.risk_score", "must be within 0..100"})
	}
	return issues
}
