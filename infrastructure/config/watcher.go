package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounceDuration = 100 * time.Millisecond

// ChangeHandler receives the previous and the newly loaded tunables.
type ChangeHandler func(previous, current Tunables)

// Watcher reloads the tunables whenever the config file changes. A file that fails to parse
// or validate is ignored and the current values stay in effect.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	mu       sync.RWMutex
	current  Tunables
	onChange []ChangeHandler
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewWatcher watches path. initial is the value the file was last loaded into.
func NewWatcher(path string, initial Tunables, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Editors and config maps replace the file through a rename, so watch the directory.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &Watcher{
		path:    path,
		watcher: fw,
		logger:  logger,
		current: initial,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// OnChange registers a callback for configuration changes
func (w *Watcher) OnChange(handler ChangeHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, handler)
}

// Current returns the tunables in effect.
func (w *Watcher) Current() Tunables {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start begins watching for configuration changes
func (w *Watcher) Start() {
	go w.watchLoop()
	w.logger.Info("Configuration watcher started", zap.String("path", w.path))
}

// Stop stops watching and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		<-w.done
		w.logger.Info("Configuration watcher stopped")
	})
}

func (w *Watcher) watchLoop() {
	defer close(w.done)

	var debounce *time.Timer
	target := filepath.Clean(w.path)

	for {
		select {
		case <-w.stopCh:
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDuration, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

// reload re-reads the file and notifies the handlers in registration order.
func (w *Watcher) reload() {
	w.mu.RLock()
	previous := w.current
	w.mu.RUnlock()

	next, err := LoadTunables(w.path, previous)
	if err != nil {
		w.logger.Error("Invalid configuration, keeping current", zap.String("path", w.path), zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = next
	handlers := append([]ChangeHandler(nil), w.onChange...)
	w.mu.Unlock()

	w.logChanges(previous, next)
	for _, handler := range handlers {
		handler(previous, next)
	}
}

func (w *Watcher) logChanges(previous, next Tunables) {
	var changes []string

	if previous.Retry != next.Retry {
		changes = append(changes, fmt.Sprintf("retry: %+v -> %+v", previous.Retry, next.Retry))
	}
	if previous.Cache != next.Cache {
		changes = append(changes, fmt.Sprintf("cache: %+v -> %+v", previous.Cache, next.Cache))
	}
	if previous.RateLimits != next.RateLimits {
		changes = append(changes, fmt.Sprintf("rate_limits: %+v -> %+v", previous.RateLimits, next.RateLimits))
	}

	w.logger.Info("Configuration reloaded",
		zap.String("path", w.path),
		zap.Strings("changes", changes),
	)
}
