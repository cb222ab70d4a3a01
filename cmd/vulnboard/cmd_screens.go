package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vulnboard/cmd/vulnboard/ui"
	"vulnboard/internal/config"
	"vulnboard/internal/control"
	"vulnboard/internal/dashboard"
	"vulnboard/internal/fixtures"
	"vulnboard/internal/logging"
	"vulnboard/internal/schedule"
	"vulnboard/internal/wizard"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// dashboardCmd runs the priority action dashboard, same as the bare command
var dashboardCmd = &cobra.Command{
	Use:         "dashboard",
	Short:       "Run the priority action dashboard",
	Annotations: map[string]string{annotationTUI: "true"},
	RunE:        runDashboard,
}

// wizardCmd runs the assessment wizard
var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Run the five-step vulnerability assessment wizard",
	Long: `Walks through an assessment: summary, AI risk analysis, plan
confirmation, the timed processing animation and the results screen.`,
	Annotations: map[string]string{annotationTUI: "true"},
	RunE:        runWizard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := boot()
	if err != nil {
		return err
	}
	data, err := loadDashboard(cfg)
	if err != nil {
		return err
	}

	tl := schedule.NewTimeline(clockwork.NewRealClock())
	ctrl := dashboard.NewController(data, tl, dashboard.Options{Timing: dashboardTiming(cfg)})
	if cfg.Dashboard.LiveMetrics {
		ctrl.StartLiveMetrics()
	}
	return runProgram(cmd.Context(), cfg, ui.AppOptions{Timeline: tl, Dashboard: ctrl})
}

func runWizard(cmd *cobra.Command, args []string) error {
	cfg, err := boot()
	if err != nil {
		return err
	}
	data, err := loadWizard(cfg)
	if err != nil {
		return err
	}

	tl := schedule.NewTimeline(clockwork.NewRealClock())
	ctrl := wizard.NewController(data, tl, wizard.Options{
		SettleDelay:         cfg.GetSettleDelay(),
		TransitionThreshold: cfg.GetTransitionThreshold(),
	})
	return runProgram(cmd.Context(), cfg, ui.AppOptions{Timeline: tl, Wizard: ctrl})
}

func dashboardTiming(cfg *config.Config) dashboard.Timing {
	return dashboard.Timing{
		CelebrationDelay:    cfg.GetCelebrationDelay(),
		CelebrationDuration: cfg.GetCelebrationDuration(),
		ProgressDelay:       cfg.GetProgressDelay(),
		RemovalDelay:        cfg.GetRemovalDelay(),
		LiveRefreshStart:    cfg.GetLiveRefreshStart(),
		LiveRefreshInterval: cfg.GetLiveRefreshInterval(),
		ProgressStep:        cfg.Dashboard.ProgressStep,
	}
}

// loadDashboard loads and validates the dashboard dataset. Validation errors
// abort start-up; warnings are logged.
func loadDashboard(cfg *config.Config) (*fixtures.Dashboard, error) {
	path := resolvePath(cfg.Fixtures.Dashboard)
	data, err := fixtures.LoadDashboard(path)
	if err != nil {
		return nil, err
	}
	if err := checkIssues("dashboard", path, fixtures.ValidateDashboard(data)); err != nil {
		return nil, err
	}
	return data, nil
}

func loadWizard(cfg *config.Config) (*fixtures.Wizard, error) {
	path := resolvePath(cfg.Fixtures.Wizard)
	data, err := fixtures.LoadWizard(path)
	if err != nil {
		return nil, err
	}
	if err := checkIssues("wizard", path, fixtures.ValidateWizard(data)); err != nil {
		return nil, err
	}
	return data, nil
}

func checkIssues(kind, path string, issues []fixtures.Issue) error {
	if path == "" {
		path = "embedded"
	}
	for _, is := range issues {
		if is.Level == fixtures.IssueWarning {
			logging.Get(logging.CategoryFixtures).Warn("%s fixtures (%s): %s", kind, path, is)
		}
	}
	if fixtures.HasErrors(issues) {
		return fmt.Errorf("invalid %s fixtures (%s):\n%s", kind, path, fixtures.FormatIssues(issues))
	}
	return nil
}

func themeFor(cfg *config.Config) ui.Theme {
	if cfg.UI.IsDark(ui.TerminalIsDark()) {
		return ui.DarkTheme()
	}
	return ui.LightTheme()
}

// runProgram runs the TUI and, when configured, the control server until the
// UI quits or the process is signalled.
func runProgram(parent context.Context, cfg *config.Config, opts ui.AppOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store := control.NewStore()
	opts.Store = store
	opts.Styles = ui.NewStyles(themeFor(cfg))
	opts.MarkdownStyle = cfg.UI.MarkdownStyle
	opts.ShowHelp = cfg.UI.ShowHelp

	p := tea.NewProgram(ui.NewApp(opts), tea.WithAltScreen())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("ui: %w", err)
		}
		return nil
	})
	if cfg.Control.Addr != "" {
		srv := control.NewServer(cfg.Control.Addr, p, store)
		g.Go(func() error {
			return srv.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		p.Quit()
		return nil
	})

	err := g.Wait()
	logger.Info("session ended", zap.Error(err))
	return err
}
