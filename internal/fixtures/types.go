// Package fixtures defines the static mock datasets the dashboard and the
// assessment wizard are seeded with at start-up, and loads them from YAML.
package fixtures

import "time"

// Severity ranks a priority action or device finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Known reports whether s is one of the four defined severities.
func (s Severity) Known() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// =============================================================================
// DASHBOARD DATASET
// =============================================================================

// PriorityAction is one remediable vulnerability finding awaiting confirmation.
type PriorityAction struct {
	ID             int      `yaml:"id"`
	Title          string   `yaml:"title"`
	DeviceCount    int      `yaml:"device_count"`
	Severity       Severity `yaml:"severity"`
	Impact         string   `yaml:"impact"`
	Recommendation string   `yaml:"recommendation"`
	TimeToAction   string   `yaml:"time_to_action"`
	CVEID          string   `yaml:"cve_id"`
}

// ProgressState holds the operator's progress counters.
type ProgressState struct {
	CriticalResolved int `yaml:"critical_resolved"` // percent, drives the progress ring
	MonthlyTarget    int `yaml:"monthly_target"`
	StreakDays       int `yaml:"streak_days"`
	TotalAssessments int `yaml:"total_assessments"`
	CompletedActions int `yaml:"completed_actions"`
}

// Achievement is a badge shown in the progress panel.
type Achievement struct {
	Name        string `yaml:"name"`
	Earned      bool   `yaml:"earned"`
	Description string `yaml:"description"`
}

// ImpactMetrics summarises what remediation has prevented so far.
type ImpactMetrics struct {
	IncidentsPrevented   int    `yaml:"incidents_prevented"`
	DowntimePrevented    string `yaml:"downtime_prevented"`
	CostSaved            string `yaml:"cost_saved"`
	SecurityPostureScore int    `yaml:"security_posture_score"`
}

// RecentSuccess is one entry in the recent successes feed.
type RecentSuccess struct {
	Text     string `yaml:"text"`
	HoursAgo int    `yaml:"hours_ago"`
}

// BannerCopy is the text of the persistent top-of-screen banner.
type BannerCopy struct {
	Alert    string `yaml:"alert"`
	AllClear string `yaml:"all_clear"`
}

// Dashboard is the full dashboard dataset.
type Dashboard struct {
	PriorityActions []PriorityAction `yaml:"priority_actions"`
	UserProgress    ProgressState    `yaml:"user_progress"`
	Achievements    []Achievement    `yaml:"achievements"`
	ImpactMetrics   ImpactMetrics    `yaml:"impact_metrics"`
	RecentSuccesses []RecentSuccess  `yaml:"recent_successes"`
	Banner          BannerCopy       `yaml:"banner"`
}

// Clone returns a deep copy so controllers can mutate their own list.
func (d *Dashboard) Clone() *Dashboard {
	out := *d
	out.PriorityActions = append([]PriorityAction(nil), d.PriorityActions...)
	out.Achievements = append([]Achievement(nil), d.Achievements...)
	out.RecentSuccesses = append([]RecentSuccess(nil), d.RecentSuccesses...)
	return &out
}

// =============================================================================
// WIZARD DATASET
// =============================================================================

// AssessmentSummary is shown on the first wizard screen.
type AssessmentSummary struct {
	Site            string `yaml:"site"`
	DevicesScanned  int    `yaml:"devices_scanned"`
	Vulnerabilities int    `yaml:"vulnerabilities"`
	Critical        int    `yaml:"critical"`
	High            int    `yaml:"high"`
	Medium          int    `yaml:"medium"`
	Low             int    `yaml:"low"`
	RiskScore       int    `yaml:"risk_score"`
}

// CriticalDevice is a device listed on the analysis screen.
type CriticalDevice struct {
	Name     string   `yaml:"name"`
	Zone     string   `yaml:"zone"`
	Vendor   string   `yaml:"vendor"`
	CVEID    string   `yaml:"cve_id"`
	Severity Severity `yaml:"severity"`
}

// RemediationAction is a planned fix shown on the confirmation screen.
type RemediationAction struct {
	Title    string   `yaml:"title"`
	Owner    string   `yaml:"owner"`
	Window   string   `yaml:"window"`
	Severity Severity `yaml:"severity"`
}

// WizardImpact is shown on the results screen.
type WizardImpact struct {
	DowntimeAvoided string `yaml:"downtime_avoided"`
	RiskReduction   string `yaml:"risk_reduction"`
	CostAvoided     string `yaml:"cost_avoided"`
}

// PhaseDef declares one timed step of the processing animation.
type PhaseDef struct {
	ID       string        `yaml:"id"`
	Label    string        `yaml:"label"`
	Duration time.Duration `yaml:"duration"`
}

// Wizard is the full wizard dataset.
type Wizard struct {
	Summary            AssessmentSummary   `yaml:"summary"`
	CriticalDevices    []CriticalDevice    `yaml:"critical_devices"`
	RemediationActions []RemediationAction `yaml:"remediation_actions"`
	Impact             WizardImpact        `yaml:"impact"`
	Phases             []PhaseDef          `yaml:"phases"`
}
