package main

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const watchDebounce = 250 * time.Millisecond

// ChangeKind says what a folder change means for the viewer
type ChangeKind int

const (
	// ChangeActiveFile means the displayed file was rewritten
	ChangeActiveFile ChangeKind = iota
	// ChangeListing means siblings were added, removed or renamed
	ChangeListing
)

// FileChange is one debounced notification from FileWatcher. Stamp is the active
// file's state when the change was flushed.
type FileChange struct {
	Kind  ChangeKind
	Path  string
	Stamp fileStamp
}

// FileWatcher watches the folder of the displayed image and reports debounced changes.
// Only one folder is watched at a time; Watch replaces the previous one.
type FileWatcher struct {
	fsWatcher *fsnotify.Watcher
	changes   chan FileChange
	stopChan  chan struct{}
	logger    *zap.Logger

	mutex      sync.Mutex
	dir        string
	activePath string
	pending    map[ChangeKind]string
	timer      *time.Timer
	stopped    bool
	wg         sync.WaitGroup
}

// NewFileWatcher creates the watcher and starts its event loop
func NewFileWatcher(logger *zap.Logger) (*FileWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &FileWatcher{
		fsWatcher: fsWatcher,
		changes:   make(chan FileChange, 8),
		stopChan:  make(chan struct{}),
		logger:    logger,
		pending:   make(map[ChangeKind]string),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Changes delivers debounced changes; it is never closed while the viewer runs
func (w *FileWatcher) Changes() <-chan FileChange {
	return w.changes
}

// Watch switches to the folder containing activePath
func (w *FileWatcher) Watch(activePath string) error {
	dir := filepath.Dir(activePath)

	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.stopped {
		return nil
	}

	w.activePath = filepath.Clean(activePath)
	if dir == w.dir {
		return nil
	}
	if w.dir != "" {
		if err := w.fsWatcher.Remove(w.dir); err != nil {
			w.logger.Debug("unwatch failed", zap.String("dir", w.dir), zap.Error(err))
		}
	}
	w.dir = ""
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	w.dir = dir
	w.logger.Debug("watching directory", zap.String("dir", dir))
	return nil
}

// Unwatch stops watching without shutting the watcher down
func (w *FileWatcher) Unwatch() {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.dir != "" {
		_ = w.fsWatcher.Remove(w.dir)
	}
	w.dir = ""
	w.activePath = ""
}

func (w *FileWatcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("fsnotify watcher error", zap.Error(err))

		case <-w.stopChan:
			return
		}
	}
}

func (w *FileWatcher) handle(event fsnotify.Event) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	name := filepath.Clean(event.Name)
	switch {
	case name == w.activePath && event.Op.Has(fsnotify.Write), name == w.activePath && event.Op.Has(fsnotify.Create):
		w.pending[ChangeActiveFile] = name
	case event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		w.pending[ChangeListing] = name
	default:
		return
	}

	if w.timer == nil {
		w.timer = time.AfterFunc(watchDebounce, w.flush)
	} else {
		w.timer.Reset(watchDebounce)
	}
}

// flush emits pending changes after the folder has been quiet for the debounce window
func (w *FileWatcher) flush() {
	w.mutex.Lock()
	pending := w.pending
	w.pending = make(map[ChangeKind]string)
	stopped := w.stopped
	w.mutex.Unlock()

	if stopped {
		return
	}
	for _, kind := range []ChangeKind{ChangeListing, ChangeActiveFile} {
		path, ok := pending[kind]
		if !ok {
			continue
		}
		change := FileChange{Kind: kind, Path: path}
		if kind == ChangeActiveFile {
			stamp, err := statSource(newFilePath(path))
			if err != nil {
				// Gone again; the listing change covers it
				continue
			}
			change.Stamp = stamp
		}
		select {
		case w.changes <- change:
		default:
			w.logger.Debug("change channel full, dropped change", zap.String("path", path))
		}
	}
}

// Stop shuts down the event loop and the underlying watcher
func (w *FileWatcher) Stop() {
	w.mutex.Lock()
	if w.stopped {
		w.mutex.Unlock()
		return
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.stopChan)
	w.mutex.Unlock()

	if err := w.fsWatcher.Close(); err != nil {
		w.logger.Warn("error closing fsnotify watcher", zap.Error(err))
	}
	w.wg.Wait()
}
