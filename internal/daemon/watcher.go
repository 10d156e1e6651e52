package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce coalesces the burst of events an editor save
// produces.
const DefaultWatchDebounce = 200 * time.Millisecond

// ConfigWatcher calls onChange once a burst of writes to any of the watched
// config files settles. Directories are watched rather than files so
// editors that replace the file on save keep being seen.
type ConfigWatcher struct {
	fs       *fsnotify.Watcher
	onChange func()
	logger   *slog.Logger
	delay    time.Duration

	mu     sync.Mutex
	files  map[string]bool
	timer  *time.Timer
	closed bool
	done   chan struct{}
}

// NewConfigWatcher watches files. A zero delay means DefaultWatchDebounce.
func NewConfigWatcher(files []string, delay time.Duration, onChange func(), logger *slog.Logger) (*ConfigWatcher, error) {
	if delay <= 0 {
		delay = DefaultWatchDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	w := &ConfigWatcher{
		fs:       fsw,
		onChange: onChange,
		logger:   logger,
		delay:    delay,
		files:    make(map[string]bool),
		done:     make(chan struct{}),
	}
	if err := w.SetFiles(files); err != nil {
		fsw.Close()
		return nil, err
	}
	go w.run()
	return w, nil
}

// SetFiles replaces the watched set, for example after a reload changed
// the includes.
func (w *ConfigWatcher) SetFiles(files []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.New("config watcher is closed")
	}

	dirs := make(map[string]bool)
	w.files = make(map[string]bool, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for _, d := range w.fs.WatchList() {
		if !dirs[d] {
			_ = w.fs.Remove(d)
		}
	}
	for d := range dirs {
		if err := w.fs.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}
	return nil
}

func (w *ConfigWatcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op.Has(fsnotify.Chmod) && !ev.Op.Has(fsnotify.Write) {
				continue
			}
			w.mu.Lock()
			match := w.files[filepath.Clean(ev.Name)]
			w.mu.Unlock()
			if match {
				w.logger.Debug("config file changed", "path", ev.Name, "op", ev.Op.String())
				w.trigger()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

func (w *ConfigWatcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.onChange)
}

// Close stops watching and cancels a pending callback.
func (w *ConfigWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	err := w.fs.Close()
	<-w.done
	return err
}
