package app

import (
	"os"
	"sync"
	"time"
)

// FileWatcher polls a file and calls back when its modification time moves
// forward. The decoder uses it to reload a local key database after the
// file is edited.
type FileWatcher struct {
	path          string
	checkInterval time.Duration

	mu       sync.Mutex
	baseline time.Time
	stopCh   chan struct{}
	onChange func()
}

// NewFileWatcher creates a watcher for path. Returns nil if the file cannot
// be stat'ed.
func NewFileWatcher(path string, checkInterval time.Duration) *FileWatcher {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}

	return &FileWatcher{
		path:          path,
		checkInterval: checkInterval,
		baseline:      info.ModTime(),
	}
}

// OnChange sets the callback to invoke when the file changes.
// The callback is called from a background goroutine - use appropriate
// synchronization if updating UI.
func (w *FileWatcher) OnChange(callback func()) {
	w.mu.Lock()
	w.onChange = callback
	w.mu.Unlock()
}

// Start begins watching in a background goroutine.
func (w *FileWatcher) Start() {
	w.mu.Lock()
	w.stopCh = make(chan struct{})
	stop := w.stopCh
	w.mu.Unlock()
	go w.watchLoop(stop)
}

// Stop stops the watcher goroutine. It is safe to call more than once.
func (w *FileWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}

// Path returns the watched file.
func (w *FileWatcher) Path() string {
	return w.path
}

func (w *FileWatcher) watchLoop(stop chan struct{}) {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if w.checkForUpdate() {
				w.mu.Lock()
				cb := w.onChange
				w.mu.Unlock()
				if cb != nil {
					cb()
				}
			}
		}
	}
}

// checkForUpdate reports whether the file changed since the last check and
// moves the baseline forward.
func (w *FileWatcher) checkForUpdate() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !info.ModTime().After(w.baseline) {
		return false
	}
	w.baseline = info.ModTime()
	return true
}
