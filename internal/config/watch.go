package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
)

// DefaultReloadDelay coalesces the bursts of events editors produce on save.
const DefaultReloadDelay = 150 * time.Millisecond

// Watcher reloads a config file when it changes. Valid configs are sent on
// Events and load or validation failures on Errors. Both channels are
// closed after Close.
type Watcher struct {
	path    string
	delay   time.Duration
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	Events  chan *Config
	Errors  chan error
	reload  chan struct{}
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewWatcher watches the directory holding path, since editors often
// replace a file rather than write it in place.
func NewWatcher(path string, delay time.Duration, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if delay <= 0 {
		delay = DefaultReloadDelay
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}
	w := &Watcher{
		path:    abs,
		delay:   delay,
		logger:  logger,
		watcher: fw,
		Events:  make(chan *Config, 1),
		Errors:  make(chan error, 1),
		reload:  make(chan struct{}, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	<-w.done
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	defer close(w.Errors)
	defer close(w.Events)

	debounced := debounce.New(w.delay)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounced(w.trigger)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		case <-w.reload:
			cfg, err := Load(w.path)
			if err != nil {
				w.sendError(err)
				continue
			}
			w.logger.Info("config reloaded", "path", w.path)
			select {
			case w.Events <- cfg:
			case <-w.closeCh:
				return
			}
		case <-w.closeCh:
			return
		}
	}
}

// trigger runs on the debounce timer goroutine.
func (w *Watcher) trigger() {
	select {
	case w.reload <- struct{}{}:
	default:
	}
}

func (w *Watcher) sendError(err error) {
	select {
	case w.Errors <- err:
	default:
		w.logger.Warn("config watcher error dropped", "err", err)
	}
}
