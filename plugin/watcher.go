package plugin

import (
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the debounce duration for file change events.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger the watcher reports reload activity to.
func WithLogger(l *log.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// WithOnReload sets a callback invoked after every load/reload/unload.
func WithOnReload(fn func(path string, err error)) WatcherOption {
	return func(w *Watcher) { w.onReload = fn }
}

// Watcher hot-reloads a Registry's plugin directories on file change
// (spec.md §4.5's hot-reload behavior), grounded on the teacher's
// dynamic/plugin_watcher.go: debounced fsnotify events coalesce rapid
// successive writes from an editor's save into a single reload.
type Watcher struct {
	registry *Registry
	dirs     []string
	debounce time.Duration
	logger   *log.Logger
	onReload func(path string, err error)

	fsWatcher *fsnotify.Watcher
	done      chan struct{}
	wg        sync.WaitGroup

	mu      sync.Mutex
	pending map[string]time.Time
}

// NewWatcher creates a watcher over the given plugin directories.
func NewWatcher(registry *Registry, dirs []string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		registry: registry,
		dirs:     dirs,
		debounce: 500 * time.Millisecond,
		logger:   log.New(os.Stderr, "[plugin-watcher] ", log.LstdFlags),
		done:     make(chan struct{}),
		pending:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start watches every configured directory, loading whatever plugins
// already exist there before watching for subsequent changes.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsWatcher = fsw

	for _, dir := range w.dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			_ = fsw.Close()
			return err
		}
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return err
		}
		w.logger.Printf("watching plugin directory: %s", dir)
		_, errs := w.registry.LoadFromDirectory(dir)
		for _, loadErr := range errs {
			w.logger.Printf("initial load error: %v", loadErr)
		}
	}

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop terminates the watcher and releases its fsnotify handle.
func (w *Watcher) Stop() error {
	close(w.done)
	w.wg.Wait()
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".go" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.mu.Lock()
				w.pending[event.Name] = time.Now()
				w.mu.Unlock()
			}
			if event.Op&fsnotify.Remove != 0 {
				w.handleRemove(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Printf("watcher error: %v", err)

		case <-ticker.C:
			w.processPending()
		}
	}
}

func (w *Watcher) processPending() {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, t := range w.pending {
		if now.Sub(t) >= w.debounce {
			ready = append(ready, path)
		}
	}
	for _, path := range ready {
		delete(w.pending, path)
	}
	w.mu.Unlock()

	for _, path := range ready {
		w.handleChange(path)
	}
}

func (w *Watcher) handleChange(path string) {
	_, err := w.registry.LoadFromFile(path)
	if err != nil {
		w.logger.Printf("failed to reload %s: %v", path, err)
		w.notifyReload(path, err)
		return
	}
	w.logger.Printf("reloaded plugin from %s", path)
	w.notifyReload(path, nil)
}

func (w *Watcher) handleRemove(path string) {
	w.registry.UnloadPath(path)
	w.logger.Printf("unloaded plugin from removed file %s", path)
	w.notifyReload(path, nil)
}

func (w *Watcher) notifyReload(path string, err error) {
	if w.onReload != nil {
		w.onReload(path, err)
	}
}
