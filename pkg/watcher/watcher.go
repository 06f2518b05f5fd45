// Package watcher reports edits to Dart sources so cached property trees
// and mapped files can be dropped.
package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gnana997/widgetprops/pkg/scanner"
)

// DefaultDebounce is the quiet period before a changed file is reported.
const DefaultDebounce = 200 * time.Millisecond

// Handler receives debounced file notifications. Calls may come from
// several goroutines.
type Handler interface {
	FileChanged(path string)
	FileRemoved(path string)
}

// HandlerFuncs adapts two functions to Handler. Nil functions are skipped.
type HandlerFuncs struct {
	Changed func(path string)
	Removed func(path string)
}

func (h HandlerFuncs) FileChanged(path string) {
	if h.Changed != nil {
		h.Changed(path)
	}
}

func (h HandlerFuncs) FileRemoved(path string) {
	if h.Removed != nil {
		h.Removed(path)
	}
}

// Options configure a FileWatcher.
type Options struct {
	// Files selects the watched files; directories matching an exclude
	// pattern are not watched at all.
	Files scanner.ScanConfig
	// Debounce groups rapid writes to one file. Zero selects DefaultDebounce.
	Debounce time.Duration
}

// FileWatcher watches a source tree and reports changed files.
//
// Usage:
//
//	w, err := watcher.New(handler, watcher.Options{Files: scanner.DefaultScanConfig()}, logger)
//	if err != nil {
//	    return err
//	}
//	if err := w.Start("/path/to/app"); err != nil {
//	    return err
//	}
//	defer w.Stop()
type FileWatcher struct {
	watcher *fsnotify.Watcher
	handler Handler
	logger  *slog.Logger
	options Options
	root    string

	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	stopChan chan struct{}
	done     chan struct{}
	started  bool
	stopped  bool
	mu       sync.Mutex
}

// New creates a watcher reporting to handler.
func New(handler Handler, options Options, logger *slog.Logger) (*FileWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if options.Debounce <= 0 {
		options.Debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &FileWatcher{
		watcher:        w,
		handler:        handler,
		logger:         logger,
		options:        options,
		debounceTimers: make(map[string]*time.Timer),
		stopChan:       make(chan struct{}),
		done:           make(chan struct{}),
	}, nil
}

// Start watches rootPath and every directory below it that is not excluded.
// Directories created later are added as they appear.
func (fw *FileWatcher) Start(rootPath string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	switch {
	case fw.stopped:
		return errors.New("watcher already stopped")
	case fw.started:
		return errors.New("watcher already started")
	}

	root, err := filepath.Abs(rootPath)
	if err != nil {
		return fmt.Errorf("failed to resolve root path: %w", err)
	}
	fw.root = root
	if err := fw.watcher.Add(root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	fw.addTree(root)

	fw.started = true
	fw.logger.Info("file watcher started", "root", root)
	go fw.eventLoop()
	return nil
}

func (fw *FileWatcher) addTree(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != fw.root && fw.excludedDir(path) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			fw.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// Stop stops the watcher and cancels pending notifications. It is safe to
// call more than once.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if fw.stopped {
		fw.mu.Unlock()
		return nil
	}
	fw.stopped = true
	started := fw.started
	close(fw.stopChan)
	fw.mu.Unlock()

	fw.debounceMu.Lock()
	for _, timer := range fw.debounceTimers {
		timer.Stop()
	}
	fw.debounceTimers = make(map[string]*time.Timer)
	fw.debounceMu.Unlock()

	err := fw.watcher.Close()
	if started {
		<-fw.done
	}
	fw.logger.Info("file watcher stopped")
	return err
}

func (fw *FileWatcher) eventLoop() {
	defer close(fw.done)
	for {
		select {
		case <-fw.stopChan:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("file watcher error", "error", err)
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if isDir(path) {
			if !fw.excludedDir(path) {
				fw.addTree(path)
			}
			return
		}
	}
	if !fw.watchedFile(path) {
		return
	}

	fw.logger.Debug("file event", "op", event.Op.String(), "file", path)

	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		fw.debounce(path)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		fw.cancel(path)
		fw.handler.FileRemoved(path)
	}
}

// debounce reports path once no event for it arrived for the debounce period.
func (fw *FileWatcher) debounce(path string) {
	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()

	if timer, exists := fw.debounceTimers[path]; exists {
		timer.Stop()
	}
	fw.debounceTimers[path] = time.AfterFunc(fw.options.Debounce, func() {
		fw.debounceMu.Lock()
		delete(fw.debounceTimers, path)
		fw.debounceMu.Unlock()

		fw.handler.FileChanged(path)
	})
}

func (fw *FileWatcher) cancel(path string) {
	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()
	if timer, exists := fw.debounceTimers[path]; exists {
		timer.Stop()
		delete(fw.debounceTimers, path)
	}
}

func (fw *FileWatcher) rel(path string) (string, bool) {
	rel, err := filepath.Rel(fw.root, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (fw *FileWatcher) watchedFile(path string) bool {
	rel, ok := fw.rel(path)
	return ok && scanner.MatchesConfig(fw.options.Files, rel)
}

func (fw *FileWatcher) excludedDir(path string) bool {
	rel, ok := fw.rel(path)
	if !ok {
		return true
	}
	return !scanner.MatchesConfig(scanner.ScanConfig{Exclude: fw.options.Files.Exclude}, rel)
}

// GetStats returns file watcher statistics.
func (fw *FileWatcher) GetStats() FileWatcherStats {
	fw.debounceMu.Lock()
	pending := len(fw.debounceTimers)
	fw.debounceMu.Unlock()

	fw.mu.Lock()
	running := fw.started && !fw.stopped
	fw.mu.Unlock()

	return FileWatcherStats{
		PendingNotifications: pending,
		IsRunning:            running,
	}
}

// FileWatcherStats contains file watcher statistics.
type FileWatcherStats struct {
	PendingNotifications int
	IsRunning            bool
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
