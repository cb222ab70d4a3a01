package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"vulnboard/internal/config"
	"vulnboard/internal/fixtures"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchFixtures bool

// fixturesCmd groups fixture maintenance commands
var fixturesCmd = &cobra.Command{
	Use:   "fixtures",
	Short: "Inspect and validate the mock datasets",
}

var fixturesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configured dashboard and wizard fixtures",
	Long: `Loads both fixture files (or the embedded defaults) and reports
every validation issue. With --watch the files are re-checked on each save.`,
	RunE: runFixturesCheck,
}

var fixturesDumpCmd = &cobra.Command{
	Use:       "dump [dashboard|wizard]",
	Short:     "Print a dataset as YAML, for use as a starting point",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"dashboard", "wizard"},
	RunE:      runFixturesDump,
}

type fixtureTarget struct {
	kind  string
	path  string
	check fixtures.CheckFunc
}

func fixtureTargets(cfg *config.Config) []fixtureTarget {
	return []fixtureTarget{
		{"dashboard", resolvePath(cfg.Fixtures.Dashboard), fixtures.CheckDashboardFile},
		{"wizard", resolvePath(cfg.Fixtures.Wizard), fixtures.CheckWizardFile},
	}
}

func runFixturesCheck(cmd *cobra.Command, args []string) error {
	cfg, err := boot()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	failed := false
	for _, t := range fixtureTargets(cfg) {
		issues, err := t.check(t.path)
		if !printReport(out, t.kind, t.path, issues, err) {
			failed = true
		}
	}

	if watchFixtures {
		return watchFixtureFiles(cmd.Context(), out, cfg)
	}
	if failed {
		return fmt.Errorf("fixture validation failed")
	}
	return nil
}

// printReport writes one file's result and reports whether it passed.
func printReport(out io.Writer, kind, path string, issues []fixtures.Issue, err error) bool {
	if path == "" {
		path = "embedded"
	}
	if err != nil {
		fmt.Fprintf(out, "%s (%s): %v\n", kind, path, err)
		return false
	}
	if len(issues) == 0 {
		fmt.Fprintf(out, "%s (%s): ok\n", kind, path)
		return true
	}
	fmt.Fprintf(out, "%s (%s): %d issue(s)\n%s\n", kind, path, len(issues), fixtures.FormatIssues(issues))
	return !fixtures.HasErrors(issues)
}

func watchFixtureFiles(parent context.Context, out io.Writer, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	w, err := fixtures.NewWatcher(300 * time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	kinds := make(map[string]string)
	watched := 0
	for _, t := range fixtureTargets(cfg) {
		if t.path == "" {
			continue
		}
		abs, err := filepath.Abs(t.path)
		if err != nil {
			return err
		}
		if err := w.Add(abs, t.check); err != nil {
			return fmt.Errorf("failed to watch %s: %w", t.path, err)
		}
		kinds[abs] = t.kind
		watched++
	}

	go w.Run(ctx)
	if watched == 0 {
		cancel()
		<-w.Done()
		return fmt.Errorf("no fixture files configured; embedded datasets cannot be watched")
	}

	logger.Info("watching fixtures", zap.Int("files", watched))
	fmt.Fprintf(out, "watching %d fixture file(s), ctrl+c to stop\n", watched)
	for r := range w.Reports() {
		printReport(out, kinds[r.Path], r.Path, r.Issues, r.Err)
	}
	return nil
}

func runFixturesDump(cmd *cobra.Command, args []string) error {
	cfg, err := boot()
	if err != nil {
		return err
	}

	var v interface{}
	switch args[0] {
	case "dashboard":
		v, err = fixtures.LoadDashboard(resolvePath(cfg.Fixtures.Dashboard))
	case "wizard":
		v, err = fixtures.LoadWizard(resolvePath(cfg.Fixtures.Wizard))
	default:
		return fmt.Errorf("unknown dataset %q (want dashboard or wizard)", args[0])
	}
	if err != nil {
		return err
	}

	data, err := fixtures.Marshal(v)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
