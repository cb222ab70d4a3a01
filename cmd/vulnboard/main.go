package main

import (
	"fmt"
	"os"
	"path/filepath"

	"vulnboard/internal/config"
	"vulnboard/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose     bool
	workspace   string
	configPath  string
	controlAddr string

	// Logger
	logger *zap.Logger
)

// annotationTUI marks commands that take over the terminal. They get a no-op
// zap logger so nothing is written over the screen.
const annotationTUI = "tui"

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vulnboard",
	Short: "vulnboard - OT vulnerability remediation dashboard",
	Long: `vulnboard is a terminal dashboard for industrial vulnerability remediation.

It lists priority actions by severity, walks an operator through confirming
each fix, and tracks progress, streaks and impact while doing so. The wizard
subcommand runs the five-step assessment flow instead.

Run without arguments to start the priority action dashboard.`,
	Annotations: map[string]string{annotationTUI: "true"},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if workspace == "" {
			ws, err := config.FindWorkspaceRoot()
			if err != nil {
				return fmt.Errorf("failed to resolve workspace: %w", err)
			}
			workspace = ws
		}

		// Interactive screens own the terminal
		if cmd.Annotations[annotationTUI] != "" {
			logger = zap.NewNop()
			return nil
		}

		// Initialize logger
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAudit()
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runDashboard,
}

// boot loads .env, the config file and the logging stack for the workspace.
func boot() (*config.Config, error) {
	if err := config.LoadDotEnv(workspace); err != nil {
		return nil, err
	}

	path := configPath
	if path == "" {
		path = config.DefaultPath(workspace)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if controlAddr != "" {
		cfg.Control.Addr = controlAddr
	}
	if verbose {
		cfg.Logging.DebugMode = true
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	if err := logging.Initialize(workspace, logging.Options{
		DebugMode:  cfg.Logging.DebugMode,
		Categories: cfg.Logging.Categories,
		Level:      cfg.Logging.Level,
		JSONFormat: cfg.Logging.JSONFormat(),
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logging.InitAudit(); err != nil {
		logger.Warn("audit log unavailable", zap.Error(err))
	}
	logging.Boot("Config loaded from %s (control=%q)", path, cfg.Control.Addr)
	return cfg, nil
}

// resolvePath makes a fixture path relative to the workspace. Empty stays
// empty so the embedded dataset is used.
func resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(workspace, p)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: nearest .vulnboard or current)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: <workspace>/.vulnboard/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&controlAddr, "control-addr", "", "Serve the remote-control API on this address (or set VULNBOARD_CONTROL_ADDR)")

	// Fixture subcommands
	fixturesCheckCmd.Flags().BoolVar(&watchFixtures, "watch", false, "Re-check fixture files whenever they change")
	fixturesCmd.AddCommand(fixturesCheckCmd)
	fixturesCmd.AddCommand(fixturesDumpCmd)

	// Config subcommands
	configInitCmd.Flags().BoolVar(&forceConfig, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	// Add commands to root
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(wizardCmd)
	rootCmd.AddCommand(fixturesCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
