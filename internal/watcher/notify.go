package watcher

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/jsherman999/liveserve/internal/fingerprint"
)

// Notifier turns fsnotify events on watched files into scan nudges. It only
// shortens reload latency; the fingerprint comparison still decides whether
// anything changed.
type Notifier struct {
	fsw    *fsnotify.Watcher
	logger *slog.Logger
	nudges chan struct{}
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

func NewNotifier(root string, logger *slog.Logger) (*Notifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	n := &Notifier{
		fsw:    fsw,
		logger: logger,
		nudges: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	if err := fsw.Add(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	n.addTree(root)

	n.wg.Add(1)
	go n.loop()
	return n, nil
}

// Nudges is never closed; Close stops sending on it.
func (n *Notifier) Nudges() <-chan struct{} {
	return n.nudges
}

func (n *Notifier) Close() error {
	var err error
	n.once.Do(func() {
		close(n.done)
		err = n.fsw.Close()
		n.wg.Wait()
	})
	return err
}

// addTree watches every directory below root. Directories that cannot be
// read are skipped.
func (n *Notifier) addTree(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() || path == root {
			return nil
		}
		if err := n.fsw.Add(path); err != nil {
			n.logger.Debug("notify: watch add failed", slog.String("path", path), slog.Any("err", err))
		}
		return nil
	})
}

func (n *Notifier) loop() {
	defer n.wg.Done()
	for {
		select {
		case <-n.done:
			return
		case ev, ok := <-n.fsw.Events:
			if !ok {
				return
			}
			n.handle(ev)
		case err, ok := <-n.fsw.Errors:
			if !ok {
				return
			}
			if !errors.Is(err, fsnotify.ErrEventOverflow) {
				n.logger.Warn("notify: watcher error", slog.Any("err", err))
			}
			// events may have been lost; let the scan decide.
			n.nudge()
		}
	}
}

func (n *Notifier) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if err := n.fsw.Add(ev.Name); err == nil {
				n.addTree(ev.Name)
			}
			// files created together with the directory are caught by the scan.
			n.nudge()
			return
		}
	}
	// Chmod is kept: a bare mtime update (touch) arrives as an attribute change.
	if fingerprint.IsWatched(ev.Name) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		n.nudge()
	}
}

func (n *Notifier) nudge() {
	select {
	case n.nudges <- struct{}{}:
	default:
	}
}
