package config

import (
	"fmt"
	"time"
)

// DashboardConfig holds the dashboard's timed behaviour. Durations are Go
// duration strings so the YAML stays readable.
type DashboardConfig struct {
	CelebrationDelay    string `yaml:"celebration_delay"`
	CelebrationDuration string `yaml:"celebration_duration"`
	ProgressDelay       string `yaml:"progress_delay"`
	RemovalDelay        string `yaml:"removal_delay"`
	LiveRefreshStart    string `yaml:"live_refresh_start"`
	LiveRefreshInterval string `yaml:"live_refresh_interval"`
	ProgressStep        int    `yaml:"progress_step"`
	// LiveMetrics enables the simulated metric drift
	LiveMetrics bool `yaml:"live_metrics"`
}

// WizardConfig holds the wizard's timed behaviour.
type WizardConfig struct {
	SettleDelay         string `yaml:"settle_delay"`
	TransitionThreshold string `yaml:"transition_threshold"`
}

func parseDuration(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", raw)
	}
	return d, nil
}

func durationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := parseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

// GetCelebrationDelay returns the delay between confirming an action and
// showing the celebration.
func (c *Config) GetCelebrationDelay() time.Duration {
	return durationOr(c.Dashboard.CelebrationDelay, 300*time.Millisecond)
}

// GetCelebrationDuration returns how long the celebration stays up.
func (c *Config) GetCelebrationDuration() time.Duration {
	return durationOr(c.Dashboard.CelebrationDuration, 3*time.Second)
}

// GetProgressDelay returns the delay before the progress ring advances.
func (c *Config) GetProgressDelay() time.Duration {
	return durationOr(c.Dashboard.ProgressDelay, time.Second)
}

// GetRemovalDelay returns the delay before a confirmed card is removed.
func (c *Config) GetRemovalDelay() time.Duration {
	return durationOr(c.Dashboard.RemovalDelay, 3500*time.Millisecond)
}

// GetLiveRefreshStart returns the delay before the first live metric tick.
func (c *Config) GetLiveRefreshStart() time.Duration {
	return durationOr(c.Dashboard.LiveRefreshStart, 5*time.Second)
}

// GetLiveRefreshInterval returns the interval between live metric ticks.
func (c *Config) GetLiveRefreshInterval() time.Duration {
	d := durationOr(c.Dashboard.LiveRefreshInterval, 30*time.Second)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

// GetSettleDelay returns the pause between the last processing phase and
// the results step.
func (c *Config) GetSettleDelay() time.Duration {
	return durationOr(c.Wizard.SettleDelay, 800*time.Millisecond)
}

// GetTransitionThreshold returns the step transition duration above which a
// warning is logged.
func (c *Config) GetTransitionThreshold() time.Duration {
	return durationOr(c.Wizard.TransitionThreshold, 500*time.Millisecond)
}
