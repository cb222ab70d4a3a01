package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("fixture paths", func(t *testing.T) {
		t.Setenv("VULNBOARD_DASHBOARD_FIXTURES", "/tmp/d.yaml")
		t.Setenv("VULNBOARD_WIZARD_FIXTURES", "/tmp/w.yaml")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "/tmp/d.yaml", cfg.Fixtures.Dashboard)
		assert.Equal(t, "/tmp/w.yaml", cfg.Fixtures.Wizard)
	})

	t.Run("theme and control addr", func(t *testing.T) {
		t.Setenv("VULNBOARD_THEME", "dark")
		t.Setenv("VULNBOARD_CONTROL_ADDR", ":9090")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "dark", cfg.UI.Theme)
		assert.Equal(t, ":9090", cfg.Control.Addr)
	})

	t.Run("debug flag parses bools", func(t *testing.T) {
		t.Setenv("VULNBOARD_DEBUG", "true")
		cfg := &Config{}
		cfg.applyEnvOverrides()
		assert.True(t, cfg.Logging.DebugMode)

		t.Setenv("VULNBOARD_DEBUG", "nope")
		cfg = &Config{Logging: LoggingConfig{DebugMode: true}}
		cfg.applyEnvOverrides()
		assert.True(t, cfg.Logging.DebugMode, "unparseable value leaves setting alone")
	})

	t.Run("empty values do not override", func(t *testing.T) {
		t.Setenv("VULNBOARD_THEME", "")

		cfg := &Config{UI: UIConfig{Theme: "light"}}
		cfg.applyEnvOverrides()

		assert.Equal(t, "light", cfg.UI.Theme)
	})
}

func TestEnvOverridesApplyOnLoad(t *testing.T) {
	t.Setenv("VULNBOARD_THEME", "dark")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ui:\n  theme: light\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dark", cfg.UI.Theme)
}

func TestLoadDotEnv(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, LoadDotEnv(ws), "missing .env is not an error")

	t.Setenv("VULNBOARD_CONTROL_ADDR", "")
	os.Unsetenv("VULNBOARD_CONTROL_ADDR")
	t.Setenv("VULNBOARD_THEME", "light")

	content := "VULNBOARD_CONTROL_ADDR=127.0.0.1:7777\nVULNBOARD_THEME=dark\n"
	require.NoError(t, os.WriteFile(filepath.Join(ws, ".env"), []byte(content), 0644))
	require.NoError(t, LoadDotEnv(ws))

	assert.Equal(t, "127.0.0.1:7777", os.Getenv("VULNBOARD_CONTROL_ADDR"))
	assert.Equal(t, "light", os.Getenv("VULNBOARD_THEME"), "existing variables win")
}
