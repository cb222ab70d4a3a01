// Package logging provides config-driven categorized file-based logging for vulnboard.
// Logs are written to .vulnboard/logs/ with separate files per category.
// Logging is controlled by debug_mode in the logging options - when false, no logs are written.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot        Category = "boot"        // Boot/initialization
	CategorySession     Category = "session"     // Wizard sessions and progress snapshots
	CategoryPerformance Category = "performance" // Transition timings, slow operations

	// Screen categories
	CategoryDashboard Category = "dashboard" // Priority action list, modal, celebration
	CategoryWizard    Category = "wizard"    // Step navigation
	CategoryAnimator  Category = "animator"  // Processing phase animation
	CategoryUI        Category = "ui"        // bubbletea pages, fault recovery

	// Supporting categories
	CategoryFixtures Category = "fixtures" // Fixture loading, validation, watching
	CategoryControl  Category = "control"  // Remote-control HTTP surface
)

// AllCategories lists every known category in a stable order.
func AllCategories() []Category {
	return []Category{
		CategoryBoot, CategorySession, CategoryPerformance,
		CategoryDashboard, CategoryWizard, CategoryAnimator, CategoryUI,
		CategoryFixtures, CategoryControl,
	}
}

// Options mirrors config.LoggingConfig to avoid an import cycle.
type Options struct {
	DebugMode  bool
	Categories map[string]bool
	Level      string // debug, info, warn, error
	JSONFormat bool
}

// Logger writes one category to its own file through a zap core.
// A Logger with a nil sugar is a no-op.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	workspace string
	options   Options
	optionsMu sync.RWMutex
	level     = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Initialize sets up the logging directory from the given options.
// Should be called once at startup with the workspace path.
func Initialize(ws string, opts Options) error {
	if ws == "" {
		return fmt.Errorf("workspace path required")
	}

	optionsMu.Lock()
	workspace = ws
	logsDir = filepath.Join(ws, ".vulnboard", "logs")
	options = opts
	optionsMu.Unlock()

	level.SetLevel(parseLevel(opts.Level))

	if !opts.DebugMode {
		return nil // Silent no-op in production mode
	}

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("=== vulnboard logging initialized ===")
	boot.Info("Workspace: %s", ws)
	boot.Info("Logs directory: %s", logsDir)
	boot.Info("Log level: %s", level.Level())
	if len(opts.Categories) == 0 {
		boot.Info("All categories enabled (no category filter)")
	}
	return nil
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// IsDebugMode returns whether debug logging is enabled
func IsDebugMode() bool {
	optionsMu.RLock()
	defer optionsMu.RUnlock()
	return options.DebugMode
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	optionsMu.RLock()
	defer optionsMu.RUnlock()

	if !options.DebugMode {
		return false
	}
	if options.Categories == nil {
		return true
	}
	enabled, exists := options.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// LogsDir returns the directory log files are written to.
func LogsDir() string {
	optionsMu.RLock()
	defer optionsMu.RUnlock()
	return logsDir
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode is disabled or category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) || LogsDir() == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()

	if l, ok := loggers[category]; ok {
		return l
	}

	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(LogsDir(), fmt.Sprintf("%s_%s.log", date, category))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		sugar:    zap.New(newCore(zapcore.AddSync(file))).Sugar().With("cat", string(category)),
	}
	loggers[category] = l
	return l
}

func newCore(ws zapcore.WriteSyncer) zapcore.Core {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	optionsMu.RLock()
	jsonFormat := options.JSONFormat
	optionsMu.RUnlock()

	var enc zapcore.Encoder
	if jsonFormat {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	return zapcore.NewCore(enc, ws, level)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Errorf(format, args...)
}

// StructuredLog writes a log entry with custom key-value fields.
func (l *Logger) StructuredLog(lvl string, msg string, fields map[string]interface{}) {
	if l.sugar == nil {
		return
	}
	kv := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	switch parseLevel(lvl) {
	case zapcore.DebugLevel:
		l.sugar.Debugw(msg, kv...)
	case zapcore.WarnLevel:
		l.sugar.Warnw(msg, kv...)
	case zapcore.ErrorLevel:
		l.sugar.Errorw(msg, kv...)
	default:
		l.sugar.Infow(msg, kv...)
	}
}

// CloseAll flushes and closes all open log files (call at shutdown)
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	for _, l := range loggers {
		if l.sugar != nil {
			_ = l.sugar.Sync()
		}
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

// Dashboard logs to the dashboard category
func Dashboard(format string, args ...interface{}) {
	Get(CategoryDashboard).Info(format, args...)
}

// DashboardDebug logs debug to the dashboard category
func DashboardDebug(format string, args ...interface{}) {
	Get(CategoryDashboard).Debug(format, args...)
}

// DashboardWarn logs a warning to the dashboard category
func DashboardWarn(format string, args ...interface{}) {
	Get(CategoryDashboard).Warn(format, args...)
}

// Wizard logs to the wizard category
func Wizard(format string, args ...interface{}) {
	Get(CategoryWizard).Info(format, args...)
}

// WizardDebug logs debug to the wizard category
func WizardDebug(format string, args ...interface{}) {
	Get(CategoryWizard).Debug(format, args...)
}

// AnimatorWarn logs a warning to the animator category
func AnimatorWarn(format string, args ...interface{}) {
	Get(CategoryAnimator).Warn(format, args...)
}

// AnimatorDebug logs debug to the animator category
func AnimatorDebug(format string, args ...interface{}) {
	Get(CategoryAnimator).Debug(format, args...)
}

// Fixtures logs to the fixtures category
func Fixtures(format string, args ...interface{}) {
	Get(CategoryFixtures).Info(format, args...)
}

// Control logs to the control category
func Control(format string, args ...interface{}) {
	Get(CategoryControl).Info(format, args...)
}

// =============================================================================
// TIMING HELPERS - For performance logging
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
