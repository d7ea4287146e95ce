package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher reloads the config file when it changes and hands the new
// runtime settings to the registered callbacks.
type Watcher struct {
	path     string
	base     Config
	debounce time.Duration
	logger   *zap.Logger

	mu        sync.RWMutex
	current   Runtime
	callbacks []func(Runtime)

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	once    sync.Once
}

// NewWatcher starts watching cfg.ConfigFile. The directory is watched rather
// than the file so that editors replacing the file are noticed.
func NewWatcher(cfg *Config, logger *zap.Logger) (*Watcher, error) {
	return newWatcher(cfg, logger, defaultDebounce)
}

func newWatcher(cfg *Config, logger *zap.Logger, debounce time.Duration) (*Watcher, error) {
	if cfg.ConfigFile == "" {
		return nil, fmt.Errorf("no config file to watch")
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(filepath.Dir(cfg.ConfigFile)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", cfg.ConfigFile, err)
	}

	w := &Watcher{
		path:     filepath.Clean(cfg.ConfigFile),
		base:     *cfg,
		debounce: debounce,
		logger:   logger,
		current:  cfg.Runtime(),
		watcher:  fsWatcher,
		stopCh:   make(chan struct{}),
	}
	go w.watchLoop()

	logger.Info("Configuration hot reloading enabled", zap.String("file", cfg.ConfigFile))
	return w, nil
}

// OnChange registers a callback for runtime setting changes
func (w *Watcher) OnChange(callback func(Runtime)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, callback)
	w.mu.Unlock()
}

// Current returns the runtime settings in force
func (w *Watcher) Current() Runtime {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
	})
}

func (w *Watcher) watchLoop() {
	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))

		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		}
	}
}

// reload re-reads the file over the startup configuration. Invalid files
// are logged and ignored.
func (w *Watcher) reload() {
	next := w.base
	next.CORSAllowedOrigins = append([]string(nil), w.base.CORSAllowedOrigins...)
	if err := next.overlayFile(w.path); err != nil {
		w.logger.Error("Failed to reload configuration", zap.Error(err))
		return
	}
	if err := next.Validate(); err != nil {
		w.logger.Error("Invalid configuration after reload", zap.Error(err))
		return
	}

	runtime := next.Runtime()
	w.mu.Lock()
	if runtime == w.current {
		w.mu.Unlock()
		return
	}
	old := w.current
	w.current = runtime
	callbacks := append([]func(Runtime){}, w.callbacks...)
	w.mu.Unlock()

	w.logger.Info("Configuration reloaded",
		zap.Stringer("old_log_level", old.LogLevel),
		zap.Stringer("log_level", runtime.LogLevel),
		zap.Int("old_rate_limit", old.RateLimitPerMinute),
		zap.Int("rate_limit", runtime.RateLimitPerMinute))

	for i, cb := range callbacks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					w.logger.Error("Callback panicked", zap.Int("callback_index", i), zap.Any("panic", r))
				}
			}()
			cb(runtime)
		}()
	}
}

// ApplyLogLevel returns a callback that moves level to the reloaded value
func ApplyLogLevel(level zap.AtomicLevel) func(Runtime) {
	return func(r Runtime) { level.SetLevel(r.LogLevel) }
}
