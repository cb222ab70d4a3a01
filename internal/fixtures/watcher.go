package fixtures

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"vulnboard/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// CheckFunc validates one fixture file and returns its issues.
type CheckFunc func(path string) ([]Issue, error)

// Report is delivered after a watched file settles.
type Report struct {
	Path   string
	Issues []Issue
	Err    error
}

// Watcher re-validates fixture files when they change on disk. It watches
// the parent directories (editors replace files on save) and filters events
// down to the registered paths.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	checks      map[string]CheckFunc
	debounceMap map[string]time.Time
	debounceDur time.Duration
	reports     chan Report
	doneCh      chan struct{}
}

// NewWatcher creates a watcher. Call Add for each file, then Run.
func NewWatcher(debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	return &Watcher{
		watcher:     fw,
		checks:      make(map[string]CheckFunc),
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
		reports:     make(chan Report, 16),
		doneCh:      make(chan struct{}),
	}, nil
}

// Add registers a fixture file and its validation function.
func (w *Watcher) Add(path string, check CheckFunc) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.checks[abs] = check
	w.mu.Unlock()
	return w.watcher.Add(filepath.Dir(abs))
}

// Reports returns the channel validation reports are delivered on. It is
// closed when Run returns.
func (w *Watcher) Reports() <-chan Report {
	return w.reports
}

// Run processes filesystem events until ctx is cancelled, then closes the
// underlying watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.doneCh)
	defer close(w.reports)
	defer w.watcher.Close()

	ticker := time.NewTicker(w.debounceDur / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Fixtures("Fixture watcher stopped")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryFixtures).Error("Fixture watcher error: %v", err)

		case <-ticker.C:
			w.processDebounced(ctx)
		}
	}
}

// Done is closed once Run has returned.
func (w *Watcher) Done() <-chan struct{} {
	return w.doneCh
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.checks[name]; !ok {
		return
	}
	w.debounceMap[name] = time.Now()
}

func (w *Watcher) processDebounced(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for _, path := range settled {
		w.mu.Lock()
		check := w.checks[path]
		w.mu.Unlock()

		issues, err := check(path)
		logging.Fixtures("Re-validated %s: %d issues, err=%v", path, len(issues), err)
		select {
		case w.reports <- Report{Path: path, Issues: issues, Err: err}:
		case <-ctx.Done():
			return
		}
	}
}

// CheckDashboardFile loads and validates a dashboard fixture file.
func CheckDashboardFile(path string) ([]Issue, error) {
	d, err := LoadDashboard(path)
	if err != nil {
		return nil, err
	}
	return ValidateDashboard(d), nil
}

// CheckWizardFile loads and validates a wizard fixture file.
func CheckWizardFile(path string) ([]Issue, error) {
	w, err := LoadWizard(path)
	if err != nil {
		return nil, err
	}
	return ValidateWizard(w), nil
}
