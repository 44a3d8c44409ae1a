package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Watcher reloads the config file on change and applies the settings that
// are safe to change at runtime. Today that is the log level.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	level    zap.AtomicLevel
	logger   *zap.Logger
	debounce time.Duration

	mu       sync.Mutex
	onChange []func(*Config)

	stopCh chan struct{}
	done   chan struct{}
}

// NewWatcher watches path and its directory, so editors that save by rename are seen.
func NewWatcher(path string, level zap.AtomicLevel, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &Watcher{
		path:     path,
		watcher:  fw,
		level:    level,
		logger:   logger,
		debounce: 100 * time.Millisecond,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// OnChange registers fn to run with each successfully reloaded config.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Start begins watching for configuration changes
func (w *Watcher) Start() {
	go w.watchLoop()
	w.logger.Info("Configuration watcher started", zap.String("path", w.path))
}

// Stop stops watching and waits for the loop to exit.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
	<-w.done
	w.logger.Info("Configuration watcher stopped")
}

func (w *Watcher) watchLoop() {
	defer close(w.done)

	var timer *time.Timer
	for {
		select {
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	cfg := Defaults()
	if err := cfg.LoadFile(w.path); err != nil {
		w.logger.Error("Failed to reload configuration", zap.Error(err))
		return
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		w.logger.Error("Invalid configuration, keeping current", zap.Error(err))
		return
	}

	if lvl, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		w.logger.Warn("Ignoring invalid log level", zap.String("level", cfg.LogLevel))
	} else if lvl != w.level.Level() {
		w.logger.Info("Log level changed",
			zap.String("from", w.level.Level().String()),
			zap.String("to", lvl.String()),
		)
		w.level.SetLevel(lvl)
	}

	w.mu.Lock()
	handlers := append([]func(*Config){}, w.onChange...)
	w.mu.Unlock()
	for _, fn := range handlers {
		fn(cfg)
	}
}
