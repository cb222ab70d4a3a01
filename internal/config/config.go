package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all vulnboard configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Fixture files; empty paths use the embedded mock datasets
	Fixtures FixturesConfig `yaml:"fixtures"`

	// Timed behaviour of each screen
	Dashboard DashboardConfig `yaml:"dashboard"`
	Wizard    WizardConfig    `yaml:"wizard"`

	UI      UIConfig      `yaml:"ui"`
	Control ControlConfig `yaml:"control"`
	Logging LoggingConfig `yaml:"logging"`
}

// FixturesConfig points at the YAML datasets loaded at start-up.
type FixturesConfig struct {
	Dashboard string `yaml:"dashboard"`
	Wizard    string `yaml:"wizard"`
}

// ControlConfig configures the optional remote-control HTTP listener.
type ControlConfig struct {
	Addr string `yaml:"addr"` // empty disables the listener
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "vulnboard",
		Version: "0.3.0",

		Dashboard: DashboardConfig{
			CelebrationDelay:    "300ms",
			CelebrationDuration: "3s",
			ProgressDelay:       "1s",
			RemovalDelay:        "3500ms",
			LiveRefreshStart:    "5s",
			LiveRefreshInterval: "30s",
			ProgressStep:        5,
			LiveMetrics:         true,
		},

		Wizard: WizardConfig{
			SettleDelay:         "800ms",
			TransitionThreshold: "500ms",
		},

		UI: *DefaultUIConfig(),

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns the config path inside a workspace.
func DefaultPath(workspace string) string {
	return filepath.Join(workspace, ".vulnboard", "config.yaml")
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from <workspace>/.env into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadDotEnv(workspace string) error {
	path := filepath.Join(workspace, ".env")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("VULNBOARD_DASHBOARD_FIXTURES"); path != "" {
		c.Fixtures.Dashboard = path
	}
	if path := os.Getenv("VULNBOARD_WIZARD_FIXTURES"); path != "" {
		c.Fixtures.Wizard = path
	}
	if theme := os.Getenv("VULNBOARD_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if addr := os.Getenv("VULNBOARD_CONTROL_ADDR"); addr != "" {
		c.Control.Addr = addr
	}
	if v := os.Getenv("VULNBOARD_DEBUG"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = on
		}
	}
}

// ValidThemes lists the accepted UI theme names.
var ValidThemes = []string{"auto", "light", "dark"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validTheme := false
	for _, th := range ValidThemes {
		if c.UI.Theme == th {
			validTheme = true
			break
		}
	}
	if !validTheme {
		return fmt.Errorf("invalid ui theme: %s (valid: %v)", c.UI.Theme, ValidThemes)
	}

	if c.Dashboard.ProgressStep < 0 {
		return fmt.Errorf("dashboard.progress_step must be >= 0, got %d", c.Dashboard.ProgressStep)
	}

	durations := []struct {
		field string
		raw   string
	}{
		{"dashboard.celebration_delay", c.Dashboard.CelebrationDelay},
		{"dashboard.celebration_duration", c.Dashboard.CelebrationDuration},
		{"dashboard.progress_delay", c.Dashboard.ProgressDelay},
		{"dashboard.removal_delay", c.Dashboard.RemovalDelay},
		{"dashboard.live_refresh_start", c.Dashboard.LiveRefreshStart},
		{"dashboard.live_refresh_interval", c.Dashboard.LiveRefreshInterval},
		{"wizard.settle_delay", c.Wizard.SettleDelay},
		{"wizard.transition_threshold", c.Wizard.TransitionThreshold},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		if _, err := parseDuration(d.raw); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", d.field, err)
		}
	}

	return nil
}
